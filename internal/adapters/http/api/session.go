package api

import "net/http"

// SessionHeader carries the client session id in both directions.
const SessionHeader = "X-Session-ID"

type sessionHandlerFunc func(w http.ResponseWriter, r *http.Request, sessionID string)

// withSession resolves the request's session, creating one when the header is
// missing or names an unknown session, and echoes its id on the response.
func withSession(deps Dependencies, next sessionHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := deps.Session(r.Header.Get(SessionHeader))
		w.Header().Set(SessionHeader, sess.ID())
		next(w, r, sess.ID())
	}
}
