package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/leadconsole/internal/client/models"
)

type seen struct {
	method, path, query, body, auth, reqID, contentType string
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *seen, *atomic.Int32) {
	t.Helper()
	got := &seen{}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		b, _ := io.ReadAll(r.Body)
		*got = seen{
			method:      r.Method,
			path:        r.URL.Path,
			query:       r.URL.RawQuery,
			body:        string(b),
			auth:        r.Header.Get("Authorization"),
			reqID:       r.Header.Get("X-Request-Id"),
			contentType: r.Header.Get("Content-Type"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, got, &hits
}

func TestHTTPClient_RequestShapes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func(c *HTTPClient) error
		method string
		path   string
		query  string
		body   string
		resp   string
	}{
		{
			name:   "list",
			call:   func(c *HTTPClient) error { var out []models.Lead; return c.List(ctx, Leads, nil, &out) },
			method: http.MethodGet, path: "/api/leads",
		},
		{
			name: "list with query",
			call: func(c *HTTPClient) error {
				var out []models.Report
				return c.List(ctx, Reports, url.Values{"limit": {"5"}}, &out)
			},
			method: http.MethodGet, path: "/api/reports", query: "limit=5",
		},
		{
			name:   "get nested",
			call:   func(c *HTTPClient) error { var out models.LeadStats; return c.Get(ctx, &out, "leads", "stats", "summary") },
			method: http.MethodGet, path: "/api/leads/stats/summary", resp: `{"total":3}`,
		},
		{
			name: "create",
			call: func(c *HTTPClient) error {
				return c.Create(ctx, Board, models.NewBoardItem{Title: "Idea", Color: "#3B82F6", X: 60, Y: 70})
			},
			method: http.MethodPost, path: "/api/boussole",
			body: `{"title":"Idea","color":"#3B82F6","position_x":60,"position_y":70}`,
		},
		{
			name:   "update",
			call:   func(c *HTTPClient) error { return c.Update(ctx, Board, "7", models.Position{X: 120, Y: 80}) },
			method: http.MethodPatch, path: "/api/boussole/7",
			body: `{"position_x":120,"position_y":80}`,
		},
		{
			name:   "delete",
			call:   func(c *HTTPClient) error { return c.Delete(ctx, Board, "7") },
			method: http.MethodDelete, path: "/api/boussole/7",
		},
		{
			name:   "action",
			call:   func(c *HTTPClient) error { return c.Invoke(ctx, Visuals, "12", "approve") },
			method: http.MethodPost, path: "/api/visuals/12/approve",
		},
		{
			name:   "collection job",
			call:   func(c *HTTPClient) error { return c.Invoke(ctx, Reports, "weekly", "all") },
			method: http.MethodPost, path: "/api/reports/weekly/all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.resp
			if resp == "" {
				resp = `[]`
			}
			srv, got, hits := newServer(t, http.StatusOK, resp)
			c := NewHTTPClient(srv.URL+"/api/", WithRequestIDs(func() string { return "req-1" }))

			require.NoError(t, tt.call(c))
			assert.Equal(t, int32(1), hits.Load())
			assert.Equal(t, tt.method, got.method)
			assert.Equal(t, tt.path, got.path)
			if tt.query != "" {
				assert.Equal(t, tt.query, got.query)
			}
			if tt.body != "" {
				assert.JSONEq(t, tt.body, got.body)
				assert.Equal(t, "application/json", got.contentType)
			}
			assert.Equal(t, "req-1", got.reqID)
		})
	}
}

func TestHTTPClient_DecodesListing(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusOK,
		`[{"id":1,"title":"Promo","status":"draft","created_at":"2025-01-06T10:00:00"},
		  {"id":2,"title":"Spring","status":"generated","image_path":"/img/2.png","created_at":"2025-01-07T10:00:00"}]`)
	c := NewHTTPClient(srv.URL)

	var out []models.Visual
	require.NoError(t, c.List(context.Background(), Visuals, nil, &out))
	require.Len(t, out, 2)
	assert.Equal(t, models.ID("1"), out[0].ID)
	assert.Equal(t, models.VisualGenerated, out[1].Status)
	assert.Equal(t, "/img/2.png", models.Deref(out[1].ImagePath))
}

func TestHTTPClient_NoRetryOnServerError(t *testing.T) {
	srv, _, hits := newServer(t, http.StatusServiceUnavailable, `{"detail":"maintenance"}`)
	c := NewHTTPClient(srv.URL)

	err := c.Update(context.Background(), Board, "1", models.Position{})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "exactly one request")
	assert.ErrorIs(t, err, ErrUnavailable)

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusServiceUnavailable, he.StatusCode)
	assert.Equal(t, "maintenance", he.Detail)
	assert.True(t, IsTransient(err))
}

func TestHTTPClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
		detail string
	}{
		{http.StatusNotFound, `{"detail":"Item not found"}`, ErrNotFound, "Item not found"},
		{http.StatusUnauthorized, `{"detail":"bad token"}`, ErrUnauthorized, "bad token"},
		{http.StatusForbidden, ``, ErrUnauthorized, ""},
		{http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","title"],"msg":"field required"}]}`, nil, `[{"loc":["body","title"],"msg":"field required"}]`},
	}
	for _, tt := range tests {
		srv, _, _ := newServer(t, tt.status, tt.body)
		c := NewHTTPClient(srv.URL)

		err := c.Delete(context.Background(), Board, "99")
		require.Error(t, err)
		if tt.want != nil {
			assert.ErrorIs(t, err, tt.want, tt.status)
		} else {
			assert.False(t, errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable))
		}
		var he *HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, tt.detail, he.Detail)
	}
}

func TestHTTPClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := NewHTTPClient(addr, WithHTTPClient(&http.Client{Timeout: time.Second}))
	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusOK, `[]`)
	c := NewHTTPClient(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.List(ctx, Leads, nil, &[]models.Lead{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPClient_BearerToken(t *testing.T) {
	srv, got, _ := newServer(t, http.StatusOK, ``)
	c := NewHTTPClient(srv.URL, WithTokenSource(StaticToken(" abc ")))

	require.NoError(t, c.Invoke(context.Background(), Visuals, "1", "generate"))
	assert.Equal(t, "Bearer abc", got.auth)

	c = NewHTTPClient(srv.URL, WithTokenSource(&HMACTokenSource{}))
	err := c.Invoke(context.Background(), Visuals, "1", "generate")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestHTTPClient_SchemaRejectsMalformedSnapshot(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	srv, _, _ := newServer(t, http.StatusOK, `[{"id":1,"title":"x","status":"published"}]`)
	c := NewHTTPClient(srv.URL, WithValidator(v))

	out := []models.Visual{{ID: "keep"}}
	err = c.List(context.Background(), Visuals, nil, &out)
	require.ErrorIs(t, err, ErrInvalidSnapshot)
	assert.Equal(t, models.ID("keep"), out[0].ID, "nothing decoded on validation failure")
}

func TestHTTPClient_InvalidJSONIsInvalidSnapshot(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusOK, `{not json`)
	c := NewHTTPClient(srv.URL)

	var out []models.Lead
	err := c.List(context.Background(), Leads, nil, &out)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestHTTPClient_EmptyBodyIsNotASnapshot(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	for _, validator := range []*Validator{nil, v} {
		srv, _, _ := newServer(t, http.StatusOK, "  \n")
		c := NewHTTPClient(srv.URL, WithValidator(validator))

		out := []models.BoardItem{{ID: "keep"}}
		err := c.List(context.Background(), Board, nil, &out)
		require.ErrorIs(t, err, ErrInvalidSnapshot)
		assert.Equal(t, models.ID("keep"), out[0].ID)

		var stats models.LeadStats
		assert.ErrorIs(t, c.Get(context.Background(), &stats, "leads", "stats", "summary"), ErrInvalidSnapshot)

		assert.NoError(t, c.Delete(context.Background(), Board, "7"), "calls without a result accept an empty body")
	}
}

func TestHTTPClient_DefaultBaseURL(t *testing.T) {
	c := NewHTTPClient("  ")
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.NoError(t, c.Close())
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/visuals/12/approve", joinPath("visuals", "12", "approve"))
	assert.Equal(t, "/a%20b", joinPath("/a b/"))
	assert.Equal(t, "/", joinPath())
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "boom", errorDetail([]byte(`{"detail":"boom"}`)))
	assert.Equal(t, "plain text", errorDetail([]byte("plain text\n")))
	b, _ := json.Marshal(map[string]any{"other": 1})
	assert.Equal(t, string(b), errorDetail(b))
}
