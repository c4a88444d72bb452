// Package testutil holds an in-memory backend for tests of the console's
// pages and front ends.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/leadconsole/internal/client/gateway"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
)

// Call is one request seen by the fake.
type Call struct {
	Method string
	Path   string
	Body   []byte
}

func (c Call) String() string { return c.Method + " " + c.Path }

// FakeGateway implements gateway.Client over in-memory collections. It
// behaves like the real backend: listings return the full collection,
// unknown ids answer 404, and lifecycle actions check the visual's status.
type FakeGateway struct {
	mu      sync.Mutex
	nextID  int
	board   []models.BoardItem
	visuals []models.Visual
	reports []models.Report
	leads   []models.Lead
	stats   models.LeadStats

	calls    []Call
	failures map[string]error
	holds    map[string]chan struct{}
	pingErr  error
	now      func() time.Time
}

var _ gateway.Client = (*FakeGateway)(nil)

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		nextID:   100,
		failures: map[string]error{},
		holds:    map[string]chan struct{}{},
		now:      func() time.Time { return time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC) },
	}
}

func (g *FakeGateway) SeedBoard(items ...models.BoardItem) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.board = append(g.board, items...)
}

func (g *FakeGateway) SeedVisuals(items ...models.Visual) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visuals = append(g.visuals, items...)
}

func (g *FakeGateway) SeedReports(items ...models.Report) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reports = append(g.reports, items...)
}

func (g *FakeGateway) SeedLeads(items ...models.Lead) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.leads = append(g.leads, items...)
}

func (g *FakeGateway) SetStats(s models.LeadStats) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats = s
}

// Board returns the backend's board collection.
func (g *FakeGateway) Board() []models.BoardItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.board)
}

func (g *FakeGateway) Visuals() []models.Visual {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.visuals)
}

func (g *FakeGateway) Reports() []models.Report {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.reports)
}

// Fail makes every request matching "METHOD /path" return err until
// cleared with a nil err.
func (g *FakeGateway) Fail(method, path string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := method + " " + path
	if err == nil {
		delete(g.failures, key)
		return
	}
	g.failures[key] = err
}

// Hold blocks the next request matching "METHOD /path" after it has been
// recorded and before it takes effect. The returned func releases it.
func (g *FakeGateway) Hold(method, path string) (release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := make(chan struct{})
	g.holds[method+" "+path] = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (g *FakeGateway) SetPingError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pingErr = err
}

// Calls returns every request seen so far.
func (g *FakeGateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.calls)
}

// Count returns how many requests matched method and path.
func (g *FakeGateway) Count(method, path string) int {
	n := 0
	for _, c := range g.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// enter records the call, waits on a hold and returns any configured
// failure.
func (g *FakeGateway) enter(ctx context.Context, method, path string, body any) error {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	key := method + " " + path

	g.mu.Lock()
	g.calls = append(g.calls, Call{Method: method, Path: path, Body: raw})
	hold, held := g.holds[key]
	if held {
		delete(g.holds, key)
	}
	g.mu.Unlock()

	if held {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failures[key]
}

func notFound(method, path string) error {
	return &gateway.HTTPError{Method: method, Path: path, StatusCode: http.StatusNotFound, Detail: "Not found"}
}

func badRequest(method, path, detail string) error {
	return &gateway.HTTPError{Method: method, Path: path, StatusCode: http.StatusBadRequest, Detail: detail}
}

func recode(in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (g *FakeGateway) List(ctx context.Context, c gateway.Collection, query url.Values, out any) error {
	path := "/" + c.String()
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	if err := g.enter(ctx, http.MethodGet, path, nil); err != nil {
		return err
	}

	g.mu.Lock()
	var snap any
	switch c {
	case gateway.Board:
		snap = slices.Clone(g.board)
	case gateway.Visuals:
		snap = slices.Clone(g.visuals)
	case gateway.Leads:
		snap = slices.Clone(g.leads)
	case gateway.Reports:
		reports := slices.Clone(g.reports)
		if n, err := strconv.Atoi(query.Get("limit")); err == nil && n >= 0 && n < len(reports) {
			reports = reports[:n]
		}
		snap = reports
	default:
		g.mu.Unlock()
		return notFound(http.MethodGet, path)
	}
	g.mu.Unlock()

	return recode(snap, out)
}

func (g *FakeGateway) Get(ctx context.Context, out any, segments ...string) error {
	path := "/" + strings.Join(segments, "/")
	if err := g.enter(ctx, http.MethodGet, path, nil); err != nil {
		return err
	}
	if path != "/leads/stats/summary" {
		return notFound(http.MethodGet, path)
	}
	g.mu.Lock()
	s := g.stats
	g.mu.Unlock()
	return recode(s, out)
}

func (g *FakeGateway) Create(ctx context.Context, c gateway.Collection, fields any) error {
	path := "/" + c.String()
	if err := g.enter(ctx, http.MethodPost, path, fields); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	id := models.ID(strconv.Itoa(g.nextID))

	switch c {
	case gateway.Board:
		var item models.BoardItem
		if err := recode(fields, &item); err != nil {
			return badRequest(http.MethodPost, path, err.Error())
		}
		item.ID = id
		if item.Size == 0 {
			item.Size = 1
		}
		g.board = append(g.board, item)
	case gateway.Visuals:
		var v models.Visual
		if err := recode(fields, &v); err != nil {
			return badRequest(http.MethodPost, path, err.Error())
		}
		v.ID = id
		v.Status = models.VisualDraft
		v.CreatedAt = models.Timestamp{Time: g.now()}
		g.visuals = append(g.visuals, v)
	default:
		return &gateway.HTTPError{Method: http.MethodPost, Path: path, StatusCode: http.StatusMethodNotAllowed}
	}
	return nil
}

func (g *FakeGateway) Update(ctx context.Context, c gateway.Collection, id models.ID, patch any) error {
	path := fmt.Sprintf("/%s/%s", c, id)
	if err := g.enter(ctx, http.MethodPatch, path, patch); err != nil {
		return err
	}
	if c != gateway.Board {
		return &gateway.HTTPError{Method: http.MethodPatch, Path: path, StatusCode: http.StatusMethodNotAllowed}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	i := slices.IndexFunc(g.board, func(b models.BoardItem) bool { return b.ID == id })
	if i < 0 {
		return notFound(http.MethodPatch, path)
	}

	// Partial update: overlay the patch's keys on the stored record.
	merged := map[string]any{}
	if err := recode(g.board[i], &merged); err != nil {
		return err
	}
	if err := recode(patch, &merged); err != nil {
		return badRequest(http.MethodPatch, path, err.Error())
	}
	var updated models.BoardItem
	if err := recode(merged, &updated); err != nil {
		return badRequest(http.MethodPatch, path, err.Error())
	}
	updated.ID = id
	g.board[i] = updated
	return nil
}

func (g *FakeGateway) Delete(ctx context.Context, c gateway.Collection, id models.ID) error {
	path := fmt.Sprintf("/%s/%s", c, id)
	if err := g.enter(ctx, http.MethodDelete, path, nil); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	switch c {
	case gateway.Board:
		n := len(g.board)
		g.board = slices.DeleteFunc(g.board, func(b models.BoardItem) bool { return b.ID == id })
		if len(g.board) == n {
			return notFound(http.MethodDelete, path)
		}
	case gateway.Visuals:
		n := len(g.visuals)
		g.visuals = slices.DeleteFunc(g.visuals, func(v models.Visual) bool { return v.ID == id })
		if len(g.visuals) == n {
			return notFound(http.MethodDelete, path)
		}
	default:
		return &gateway.HTTPError{Method: http.MethodDelete, Path: path, StatusCode: http.StatusMethodNotAllowed}
	}
	return nil
}

func (g *FakeGateway) Invoke(ctx context.Context, c gateway.Collection, segments ...string) error {
	path := "/" + c.String() + "/" + strings.Join(segments, "/")
	if err := g.enter(ctx, http.MethodPost, path, nil); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case c == gateway.Reports && path == "/reports/weekly/all":
		g.nextID++
		end := g.now()
		g.reports = append([]models.Report{{
			ID:          models.ID(strconv.Itoa(g.nextID)),
			PeriodStart: models.Timestamp{Time: end.AddDate(0, 0, -7)},
			PeriodEnd:   models.Timestamp{Time: end},
			TotalLeads:  len(g.leads),
			Alerts:      []string{},
		}}, g.reports...)
		return nil

	case c == gateway.Visuals && len(segments) == 2:
		id := models.ID(segments[0])
		i := slices.IndexFunc(g.visuals, func(v models.Visual) bool { return v.ID == id })
		if i < 0 {
			return notFound(http.MethodPost, path)
		}
		v := &g.visuals[i]
		switch segments[1] {
		case "approve":
			if v.Status != models.VisualDraft {
				return badRequest(http.MethodPost, path, "Visual is not a draft")
			}
			v.Status = models.VisualApproved
		case "generate":
			if v.Status != models.VisualApproved {
				return badRequest(http.MethodPost, path, "Visual must be approved first")
			}
			v.Status = models.VisualGenerated
			v.ImagePath = models.Ptr(fmt.Sprintf("/static/visuals/%s.png", id))
		default:
			return notFound(http.MethodPost, path)
		}
		return nil
	}
	return notFound(http.MethodPost, path)
}

func (g *FakeGateway) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pingErr
}

func (g *FakeGateway) Close() error { return nil }
