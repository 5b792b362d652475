// Package cms talks to the headless-CMS item store that owns every record
// in the marketplace: users, roles and verification tokens. The API is a
// conventional items API (/items/{collection} with equality/range
// filters), authenticated with a static service bearer token.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx reply from the CMS. Flows treat it as an upstream
// store failure: fatal on primary writes, logged on secondary steps.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cms: unexpected status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL, serviceToken string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   serviceToken,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With("component", "cms_client"),
	}
}

// Predicate is a single filter clause. The CMS combines clauses of one
// query with AND; OR is expressed by issuing separate queries.
type Predicate struct {
	Field string
	Op    string
	Value string
}

func Eq(field, value string) Predicate  { return Predicate{Field: field, Op: "_eq", Value: value} }
func Lte(field, value string) Predicate { return Predicate{Field: field, Op: "_lte", Value: value} }

type Query struct {
	Predicates []Predicate
	Sort       string // e.g. "-created_at"
	Limit      int
}

func (q Query) values() url.Values {
	vals := url.Values{}
	for _, p := range q.Predicates {
		vals.Set("filter["+p.Field+"]["+p.Op+"]", p.Value)
	}
	if q.Sort != "" {
		vals.Set("sort", q.Sort)
	}
	if q.Limit > 0 {
		vals.Set("limit", strconv.Itoa(q.Limit))
	}
	return vals
}

// Ping checks CMS reachability for the health endpoints.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/server/ping", nil, nil, nil)
}

func (c *Client) CreateItem(ctx context.Context, collection string, body, out any) error {
	return c.do(ctx, http.MethodPost, "/items/"+collection, nil, body, out)
}

func (c *Client) ListItems(ctx context.Context, collection string, q Query, out any) error {
	return c.do(ctx, http.MethodGet, "/items/"+collection, q.values(), nil, out)
}

func (c *Client) UpdateItem(ctx context.Context, collection, id string, patch, out any) error {
	return c.do(ctx, http.MethodPatch, "/items/"+collection+"/"+url.PathEscape(id), nil, patch, out)
}

// Post issues a bare POST outside the items API (e.g. credential checks).
// Non-2xx replies come back as *APIError so callers can map the status.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("cms: encode %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("cms: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cms: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("cms: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}

	if out == nil {
		return nil
	}

	// Every CMS success reply wraps its payload in a data envelope.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Body: "unparsable response"}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Body: "unparsable data payload"}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
