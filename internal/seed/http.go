package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/pkg/logger"
)

// Client talks to the report API within a single session.
type Client struct {
	base    string
	http    *http.Client
	mu      sync.Mutex
	session string
}

// NewClient creates a client for baseURL.
func NewClient(cfg Config) *Client {
	return &Client{
		base: cfg.BaseURL,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Session returns the session id the service assigned, if any.
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// do sends one request and decodes a JSON response into out when out is
// non-nil. It returns the status code.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid := c.Session(); sid != "" {
		req.Header.Set(sessionHeader, sid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if sid := resp.Header.Get(sessionHeader); sid != "" {
		c.mu.Lock()
		c.session = sid
		c.mu.Unlock()
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Health checks that the service answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned status %d", status)
	}
	return nil
}

// Open acquires a session by listing pending entries once.
func (c *Client) Open(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, "/pending", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK || c.Session() == "" {
		return fmt.Errorf("no session issued (status %d)", status)
	}
	return nil
}

// Queue adds one entry to the pending buffer.
func (c *Client) Queue(ctx context.Context, r model.Record) error {
	var resp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	status, err := c.do(ctx, http.MethodPost, "/pending", r, &resp)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("queue rejected with status %d: %s", status, resp.Message)
	}
	return nil
}

// Submit flushes the pending buffer. Both 200 and 207 carry a BatchResult.
func (c *Client) Submit(ctx context.Context) (BatchResult, error) {
	var res BatchResult
	status, err := c.do(ctx, http.MethodPost, "/pending/submit", nil, &res)
	if err != nil {
		return res, err
	}
	if status != http.StatusOK && status != http.StatusMultiStatus {
		return res, fmt.Errorf("submit returned status %d", status)
	}
	return res, nil
}

// Report fetches the unfiltered report.
func (c *Client) Report(ctx context.Context) (Report, error) {
	var rep Report
	status, err := c.do(ctx, http.MethodGet, "/report", nil, &rep)
	if err != nil {
		return rep, err
	}
	if status != http.StatusOK {
		return rep, fmt.Errorf("report returned status %d", status)
	}
	return rep, nil
}

// queueRecords feeds records to the pending buffer with a worker pool.
func queueRecords(ctx context.Context, cfg Config, c *Client, records []model.Record, stats *Stats) {
	log := logger.Get().Named("seed")
	log.Info(ctx, "queueing records", logger.Count("records", len(records)), logger.Int("workers", cfg.Workers))

	var queued, rejected int64
	work := make(chan model.Record, cfg.Workers*2)
	var wg sync.WaitGroup
	for range max(cfg.Workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range work {
				if err := c.Queue(ctx, r); err != nil {
					atomic.AddInt64(&rejected, 1)
					log.Debug(ctx, "entry rejected", logger.Error(err))
					continue
				}
				atomic.AddInt64(&queued, 1)
			}
		}()
	}

	go func() {
		defer close(work)
		for _, r := range records {
			select {
			case <-ctx.Done():
				return
			case work <- r:
			}
		}
	}()
	wg.Wait()

	stats.Queued = int(atomic.LoadInt64(&queued))
	stats.Rejected = int(atomic.LoadInt64(&rejected))
	log.Info(ctx, "records queued", logger.Int("queued", stats.Queued), logger.Int("rejected", stats.Rejected))
}

// Pending lists the buffer in submission order.
func (c *Client) Pending(ctx context.Context) ([]model.Record, error) {
	var out []model.Record
	status, err := c.do(ctx, http.MethodGet, "/pending", nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("pending returned status %d", status)
	}
	return out, nil
}
