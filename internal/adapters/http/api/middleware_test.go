package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFailureClass(t *testing.T) {
	Convey("Statuses map onto error classes", t, func() {
		cases := map[int]string{
			http.StatusMultiStatus:         "partial_batch",
			http.StatusBadRequest:          "client_error",
			http.StatusNotFound:            "not_found",
			http.StatusConflict:            "conflict",
			http.StatusInternalServerError: "server_error",
			http.StatusBadGateway:          "store_error",
		}
		for status, kind := range cases {
			class, ok := failureClass(status)
			So(ok, ShouldBeTrue)
			So(class.kind, ShouldEqual, kind)
		}

		_, ok := failureClass(http.StatusCreated)
		So(ok, ShouldBeFalse)
	})
}

func TestMetricsMiddlewareStatus(t *testing.T) {
	Convey("Given a handler that writes a body without a header", t, func() {
		var seen int
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
			seen = w.(*statusRecorder).status()
		}, "test")

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

		Convey("Then the recorded status is 200", func() {
			So(seen, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "ok")
		})
	})

	Convey("Given a handler that fails", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			writeFailure(w, NewKind("api.test", ErrNotFound))
		}, "test")

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

		Convey("Then the error status passes through", func() {
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(rec.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
		})
	})
}
