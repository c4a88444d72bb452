package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/logging"
)

const (
	defaultBaseURL    = "http://127.0.0.1:8000/api"
	defaultTimeout    = 15 * time.Second
	defaultHealthPath = "/health"
	maxErrorBody      = 4 << 10
)

// HTTPClient talks JSON to the backend's REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	validator  *Validator
	logger     logging.Logger
	healthPath string
	requestID  func() string
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the default client (15s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithTokenSource adds an Authorization bearer token to each request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) { c.tokens = ts }
}

// WithValidator checks listing responses before they are decoded.
func WithValidator(v *Validator) Option {
	return func(c *HTTPClient) { c.validator = v }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

// WithHealthPath sets the path probed by Ping.
func WithHealthPath(p string) Option {
	return func(c *HTTPClient) { c.healthPath = p }
}

// WithRequestIDs overrides how X-Request-Id values are generated.
func WithRequestIDs(fn func() string) Option {
	return func(c *HTTPClient) { c.requestID = fn }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.Nop(),
		healthPath: defaultHealthPath,
		requestID:  uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With("component", "gateway")
	return c
}

func (c *HTTPClient) List(ctx context.Context, coll Collection, query url.Values, out any) error {
	p := "/" + url.PathEscape(coll.String())
	if len(query) > 0 {
		p += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, p, nil, out, coll)
}

func (c *HTTPClient) Get(ctx context.Context, out any, segments ...string) error {
	return c.do(ctx, http.MethodGet, joinPath(segments...), nil, out, "")
}

func (c *HTTPClient) Create(ctx context.Context, coll Collection, fields any) error {
	return c.do(ctx, http.MethodPost, joinPath(coll.String()), fields, nil, "")
}

func (c *HTTPClient) Update(ctx context.Context, coll Collection, id models.ID, patch any) error {
	return c.do(ctx, http.MethodPatch, joinPath(coll.String(), id.String()), patch, nil, "")
}

func (c *HTTPClient) Delete(ctx context.Context, coll Collection, id models.ID) error {
	return c.do(ctx, http.MethodDelete, joinPath(coll.String(), id.String()), nil, nil, "")
}

func (c *HTTPClient) Invoke(ctx context.Context, coll Collection, segments ...string) error {
	return c.do(ctx, http.MethodPost, joinPath(append([]string{coll.String()}, segments...)...), nil, nil, "")
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.healthPath, nil, nil, "")
}

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// do performs a single request. Transport failures are reported as
// ErrUnavailable, non-2xx answers as *HTTPError.
func (c *HTTPClient) do(ctx context.Context, method, reqPath string, body, out any, validate Collection) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+reqPath, reader)
	if err != nil {
		return err
	}
	reqID := c.requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("auth token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Debug(ctx, "request failed", "method", method, "path", reqPath, "request_id", reqID, "error", err)
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, reqPath, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}
	c.logger.Debug(ctx, "request", "method", method, "path", reqPath, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(started).String())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Method: method, Path: reqPath, StatusCode: resp.StatusCode, Detail: errorDetail(payload)}
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return fmt.Errorf("%w: %s %s: empty body", ErrInvalidSnapshot, method, reqPath)
	}
	if validate != "" && c.validator != nil {
		if err := c.validator.Validate(validate, payload); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %v", ErrInvalidSnapshot, method, reqPath, err)
	}
	return nil
}

func joinPath(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// errorDetail extracts a readable message from an error body. The backend
// answers {"detail": "..."} or {"detail": [...]}.
func errorDetail(payload []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return s
		}
		return string(body.Detail)
	}
	if len(payload) > maxErrorBody {
		payload = payload[:maxErrorBody]
	}
	return strings.TrimSpace(string(payload))
}

var _ Client = (*HTTPClient)(nil)

// IsTransient reports whether err looks like the backend being down rather
// than a rejected request.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
