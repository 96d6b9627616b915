package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/okian/bncc/internal/domain/model"
)

const (
	restPrefix     = "/rest/v1/"
	maxErrBodySize = 4 << 10
	pgUniqueCode   = "23505"
)

// RESTStore talks to a hosted PostgREST endpoint, the dialect exposed by
// Supabase projects.
type RESTStore struct {
	base   *url.URL
	key    string
	client *http.Client
	tables Tables
}

var _ Store = (*RESTStore)(nil)

// NewRESTStore returns a store for the project at baseURL authenticated with
// the given API key.
func NewRESTStore(baseURL, key string, opts ...Option) (*RESTStore, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid store url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid store url %q: scheme and host are required", baseURL)
	}
	s := newSettings(opts)
	client := &http.Client{}
	if s.client != nil {
		c := *s.client
		client = &c
	}
	client.Timeout = s.timeout
	return &RESTStore{base: u, key: key, client: client, tables: s.tables}, nil
}

// restError is the error body PostgREST returns.
type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (s *RESTStore) endpoint(table string, q url.Values) string {
	u := *s.base
	u.Path = s.base.Path + restPrefix + url.PathEscape(table)
	u.RawQuery = q.Encode()
	return u.String()
}

// do sends one request. A non-2xx response is returned as a TransportError;
// the body of a successful response is decoded into out when out is non-nil.
func (s *RESTStore) do(ctx context.Context, op, method, endpoint string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Timeout: isTimeout(err), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
	var re restError
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &re) == nil && re.Message != "" {
		msg = re.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	te := &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	if op == OpInsertLookup && (resp.StatusCode == http.StatusConflict || re.Code == pgUniqueCode) {
		return fmt.Errorf("%w: %w", ErrDuplicateName, te)
	}
	return te
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ListRecords fetches the whole records table ordered by date.
func (s *RESTStore) ListRecords(ctx context.Context) (recs []model.Record, err error) {
	defer func(start time.Time) { observe(OpListRecords, start, err) }(time.Now())

	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "data.asc")
	var out []model.Record
	if err := s.do(ctx, OpListRecords, http.MethodGet, s.endpoint(s.tables.Records, q), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Record{}
	}
	// PostgREST orders by date only; keep equal dates in arrival order.
	slices.SortStableFunc(out, func(a, b model.Record) int { return a.Date.Compare(b.Date) })
	return out, nil
}

// InsertRecord posts one record. Empty skill or constructor columns are left
// out of the body.
func (s *RESTStore) InsertRecord(ctx context.Context, r model.Record) (err error) {
	defer func(start time.Time) { observe(OpInsertRecord, start, err) }(time.Now())

	r.ID = ""
	return s.do(ctx, OpInsertRecord, http.MethodPost, s.endpoint(s.tables.Records, nil), r, nil)
}

// DeleteRecord deletes by id.
func (s *RESTStore) DeleteRecord(ctx context.Context, id model.RecordID) (err error) {
	defer func(start time.Time) { observe(OpDeleteRecord, start, err) }(time.Now())

	q := url.Values{}
	q.Set("id", "eq."+string(id))
	return s.do(ctx, OpDeleteRecord, http.MethodDelete, s.endpoint(s.tables.Records, q), nil, nil)
}

// ListLookup fetches the names of a lookup list.
func (s *RESTStore) ListLookup(ctx context.Context, kind model.LookupKind) (names []string, err error) {
	defer func(start time.Time) { observe(OpListLookup, start, err) }(time.Now())

	table, err := s.tables.Lookup(kind)
	if err != nil {
		return nil, err
	}
	col := s.tables.LookupColumn
	q := url.Values{}
	q.Set("select", col)
	q.Set("order", col+".asc")
	var rows []map[string]any
	if err := s.do(ctx, OpListLookup, http.MethodGet, s.endpoint(table, q), nil, &rows); err != nil {
		return nil, err
	}
	names = make([]string, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[col].(string); ok {
			names = append(names, v)
		}
	}
	slices.Sort(names)
	return names, nil
}

// InsertLookup adds a name to a lookup list.
func (s *RESTStore) InsertLookup(ctx context.Context, kind model.LookupKind, name string) (err error) {
	defer func(start time.Time) { observe(OpInsertLookup, start, err) }(time.Now())

	table, err := s.tables.Lookup(kind)
	if err != nil {
		return err
	}
	body := map[string]string{s.tables.LookupColumn: name}
	return s.do(ctx, OpInsertLookup, http.MethodPost, s.endpoint(table, nil), body, nil)
}

// DeleteLookup removes a name from a lookup list.
func (s *RESTStore) DeleteLookup(ctx context.Context, kind model.LookupKind, name string) (err error) {
	defer func(start time.Time) { observe(OpDeleteLookup, start, err) }(time.Now())

	table, err := s.tables.Lookup(kind)
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set(s.tables.LookupColumn, "eq."+name)
	return s.do(ctx, OpDeleteLookup, http.MethodDelete, s.endpoint(table, q), nil, nil)
}
