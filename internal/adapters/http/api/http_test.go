package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/okian/bncc/internal/adapters/http/api"
	"github.com/okian/bncc/internal/adapters/repository"
	service "github.com/okian/bncc/internal/app"
	"github.com/okian/bncc/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// downStore fails every call with a transport error.
type downStore struct{ repository.Store }

var errDown = &repository.TransportError{Op: "test", StatusCode: 503, Err: errors.New("down")}

func (downStore) ListRecords(context.Context) ([]model.Record, error) { return nil, errDown }

// failSecond fails the second insert to drive a partial batch.
type failSecond struct {
	*repository.MemoryStore
	n int
}

func (f *failSecond) InsertRecord(ctx context.Context, r model.Record) error {
	f.n++
	if f.n == 2 {
		return errDown
	}
	return f.MemoryStore.InsertRecord(ctx, r)
}

type client struct {
	srv     *httptest.Server
	session string
}

func (c *client) do(method, path, body string) (*http.Response, []byte) {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rd)
	So(err, ShouldBeNil)
	if c.session != "" {
		req.Header.Set(api.SessionHeader, c.session)
	}
	resp, err := http.DefaultClient.Do(req)
	So(err, ShouldBeNil)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	So(err, ShouldBeNil)
	if id := resp.Header.Get(api.SessionHeader); id != "" {
		c.session = id
	}
	return resp, raw
}

func newTestServer(store repository.Store) (*client, func()) {
	svc := service.New(service.WithStore(store, "test"))
	mux := http.NewServeMux()
	server := api.NewServer(svc, svc)
	server.Register(context.Background(), mux, svc)
	srv := httptest.NewServer(mux)
	return &client{srv: srv}, srv.Close
}

const entryJSON = `{"escola":"%s","serie":"5º ano","disciplina":"Português","data":"%s","habilidade":"EF05LP01","resultado":%d}`

func entry(school, date string, result int) string {
	return fmt.Sprintf(entryJSON, school, date, result)
}

func TestHTTPServer(t *testing.T) {
	Convey("Given an API server over a memory store", t, func() {
		c, closeFn := newTestServer(repository.NewMemoryStore())
		defer closeFn()

		Convey("When a request arrives without a session", func() {
			resp, _ := c.do(http.MethodGet, "/records", "")

			Convey("Then a session id is issued", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(c.session, ShouldNotBeEmpty)
			})
		})

		Convey("When the store is empty", func() {
			resp, body := c.do(http.MethodGet, "/report", "")

			Convey("Then the report says so", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var rep map[string]any
				So(json.Unmarshal(body, &rep), ShouldBeNil)
				So(rep["empty"], ShouldEqual, true)
			})
		})

		Convey("When records are posted and a report requested", func() {
			resp, _ := c.do(http.MethodPost, "/records", entry("A", "2024-01-01", 40))
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			resp, _ = c.do(http.MethodPost, "/records", entry("A", "2024-02-01", 60))
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)

			resp, body := c.do(http.MethodGet, "/report?start=2024-01-01&end=2024-12-31", "")

			Convey("Then the trend shows the percent change", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var rep struct {
					Trend []struct {
						PercentChange *float64 `json:"percent_change"`
					} `json:"trend"`
				}
				So(json.Unmarshal(body, &rep), ShouldBeNil)
				So(rep.Trend, ShouldHaveLength, 1)
				So(*rep.Trend[0].PercentChange, ShouldEqual, 50.0)
			})

			Convey("Then records can be listed and deleted", func() {
				_, body := c.do(http.MethodGet, "/records", "")
				var recs []model.Record
				So(json.Unmarshal(body, &recs), ShouldBeNil)
				So(recs, ShouldHaveLength, 2)

				resp, _ := c.do(http.MethodDelete, "/records/"+url.PathEscape(string(recs[0].ID)), "")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				_, body = c.do(http.MethodGet, "/records", "")
				So(json.Unmarshal(body, &recs), ShouldBeNil)
				So(recs, ShouldHaveLength, 1)
			})
		})

		Convey("When the date range is inverted", func() {
			_, _ = c.do(http.MethodPost, "/records", entry("A", "2024-01-01", 40))
			resp, body := c.do(http.MethodGet, "/report?start=2024-05-01&end=2024-01-01", "")

			Convey("Then a validation error is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(string(body), ShouldContainSubstring, "validation_error")
			})
		})

		Convey("When a date parameter is malformed", func() {
			resp, _ := c.do(http.MethodGet, "/report?start=yesterday", "")

			Convey("Then it is a bad request", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When an invalid record is posted", func() {
			resp, body := c.do(http.MethodPost, "/records", `{"escola":"A","serie":"5º ano","disciplina":"Física","data":"2024-01-01","habilidade":"x","resultado":10}`)

			Convey("Then it is rejected with the field", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(string(body), ShouldContainSubstring, "disciplina")
			})
		})

		Convey("When lookup names are managed", func() {
			resp, _ := c.do(http.MethodPost, "/lookups/escolas", `{"nome":"Escola Azul"}`)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)

			Convey("Then duplicates conflict", func() {
				resp, _ := c.do(http.MethodPost, "/lookups/schools", `{"nome":"Escola Azul"}`)
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			})

			Convey("Then names can be listed and deleted", func() {
				_, body := c.do(http.MethodGet, "/lookups/schools", "")
				So(string(body), ShouldContainSubstring, "Escola Azul")

				resp, _ := c.do(http.MethodDelete, "/lookups/schools/Escola%20Azul", "")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				_, body = c.do(http.MethodGet, "/lookups/schools", "")
				So(strings.TrimSpace(string(body)), ShouldEqual, "[]")
			})

			Convey("Then an unknown list is not found", func() {
				resp, _ := c.do(http.MethodGet, "/lookups/classrooms", "")
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When pending entries are queued and submitted", func() {
			resp, body := c.do(http.MethodPost, "/pending", entry("A", "2024-03-01", 70))
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			So(string(body), ShouldContainSubstring, `"count":1`)
			_, _ = c.do(http.MethodPost, "/pending", entry("B", "2024-03-01", 80))

			_, body = c.do(http.MethodGet, "/pending", "")
			var pending []model.Record
			So(json.Unmarshal(body, &pending), ShouldBeNil)
			So(pending, ShouldHaveLength, 2)

			resp, body = c.do(http.MethodPost, "/pending/submit", "")

			Convey("Then all are stored", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var res service.BatchResult
				So(json.Unmarshal(body, &res), ShouldBeNil)
				So(res.Succeeded, ShouldEqual, 2)
				So(res.SucceededIdx, ShouldResemble, []int{0, 1})
				So(res.Failed, ShouldBeEmpty)
			})

			Convey("Then submitting an empty buffer is a bad request", func() {
				resp, _ := c.do(http.MethodPost, "/pending/submit", "")
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a method does not match a route", func() {
			resp, _ := c.do(http.MethodPut, "/records", "{}")

			Convey("Then it is not found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When metrics and stats are requested", func() {
			resp, body := c.do(http.MethodGet, "/healthz", "")
			statsResp, statsBody := c.do(http.MethodGet, "/stats", "")

			Convey("Then both are served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "bncc_")
				So(statsResp.StatusCode, ShouldEqual, http.StatusOK)
				So(string(statsBody), ShouldContainSubstring, `"store":"test"`)
			})
		})
	})

	Convey("Given a store that is down", t, func() {
		c, closeFn := newTestServer(downStore{Store: repository.NewMemoryStore()})
		defer closeFn()

		Convey("When a report is requested", func() {
			resp, body := c.do(http.MethodGet, "/report", "")

			Convey("Then the transport failure surfaces as a bad gateway", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadGateway)
				So(string(body), ShouldContainSubstring, "store_unavailable")
				So(string(body), ShouldContainSubstring, "down")
			})
		})
	})

	Convey("Given a store that fails the second insert", t, func() {
		c, closeFn := newTestServer(&failSecond{MemoryStore: repository.NewMemoryStore()})
		defer closeFn()

		for _, school := range []string{"A", "B", "C"} {
			_, _ = c.do(http.MethodPost, "/pending", entry(school, "2024-03-01", 50))
		}

		Convey("When the buffer is submitted", func() {
			resp, body := c.do(http.MethodPost, "/pending/submit", "")

			Convey("Then a multi-status reports the failed entry", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusMultiStatus)
				var res service.BatchResult
				So(json.Unmarshal(body, &res), ShouldBeNil)
				So(res.Succeeded, ShouldEqual, 2)
				So(res.SucceededIdx, ShouldResemble, []int{0, 2})
				So(string(body), ShouldContainSubstring, `"succeeded_idx":[0,2]`)
				So(res.Failed, ShouldHaveLength, 1)
				So(res.Failed[0].Index, ShouldEqual, 1)
				So(res.Failed[0].Error, ShouldContainSubstring, "down")
				So(res.Remaining, ShouldEqual, 1)
			})
		})
	})
}
