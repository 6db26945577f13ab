package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/example/rdo/internal/schema"
)

// TokenFunc returns the current bearer token for a request. It is called per
// request so refreshed sessions take effect without rebuilding the client.
type TokenFunc func(ctx context.Context) (string, error)

// Client talks to the hosted REST surface. One client is safe for concurrent
// use; the underlying http.Client handles connection pooling.
type Client struct {
	baseURL string
	apiKey  string
	token   TokenFunc
	http    *http.Client
	logger  *log.Logger
}

// NewClient builds a remote client for the given base URL and API key.
// If logger is nil, a default logger writing to stderr is used.
func NewClient(baseURL, apiKey string, token TokenFunc, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

var _ Store = (*Client)(nil)

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		tok, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("remote: obtaining token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

// StatusError is a non-2xx response from the remote store.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method: req.Method,
			Path:   req.URL.Path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote: decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}

// Ping probes the REST surface with the cheapest possible read.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/reports?select=id&limit=1", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// CurrentUser returns the session user, or nil when the token no longer maps
// to a session.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	var u User
	if err := c.do(req, &u); err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
			return nil, nil
		}
		return nil, err
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

func (c *Client) SelectReports(ctx context.Context) ([]schema.Report, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/reports?select=*", nil)
	if err != nil {
		return nil, err
	}
	var rows []reportWire
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}
	return decodeReports(rows)
}

func (c *Client) SelectActivities(ctx context.Context) ([]schema.Activity, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/activities?select=*", nil)
	if err != nil {
		return nil, err
	}
	var rows []schema.Activity
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) SelectPendings(ctx context.Context) ([]schema.Pending, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/pendings?select=*", nil)
	if err != nil {
		return nil, err
	}
	var rows []schema.Pending
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// upsert posts a batch with id as the conflict key. The remote merges by
// column and rejects batches that repeat a conflict key, so callers must
// deduplicate before handing rows in.
func (c *Client) upsert(ctx context.Context, table string, rows any) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("remote: encoding %s batch: %w", table, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/rest/v1/"+table+"?on_conflict=id", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
	return c.do(req, nil)
}

func (c *Client) UpsertReports(ctx context.Context, reports []schema.Report) error {
	if len(reports) == 0 {
		return nil
	}
	return c.upsert(ctx, "reports", reports)
}

func (c *Client) UpsertActivities(ctx context.Context, activities []schema.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	return c.upsert(ctx, "activities", activities)
}

func (c *Client) UpsertPendings(ctx context.Context, pendings []schema.Pending) error {
	if len(pendings) == 0 {
		return nil
	}
	return c.upsert(ctx, "pendings", pendings)
}

// DeleteReports hard-deletes report rows remotely. Normal flows replicate
// soft deletes through UpsertReports; this exists for the admin path.
func (c *Client) DeleteReports(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = `"` + id + `"`
	}
	path := "/rest/v1/reports?id=in.(" + url.QueryEscape(strings.Join(quoted, ",")) + ")"
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
