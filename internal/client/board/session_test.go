package board

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
	"github.com/dmitrijs2005/leadconsole/internal/client/store"
)

type patch struct {
	id models.ID
	to models.Position
}

// boardMover persists moves into an in-memory authority through a real
// controller, counting the calls that would hit the backend.
type boardMover struct {
	mu      sync.Mutex
	server  map[models.ID]models.BoardItem
	order   []models.ID
	patches []patch
	fetches int
	ctrl    *reconcile.Controller[models.BoardItem]
}

func newBoardMover(t *testing.T, items ...models.BoardItem) *boardMover {
	t.Helper()
	m := &boardMover{server: map[models.ID]models.BoardItem{}}
	for _, it := range items {
		m.server[it.ID] = it
		m.order = append(m.order, it.ID)
	}
	m.ctrl = reconcile.NewController("boussole", store.New[models.BoardItem](), m.fetch, reconcile.Deps{})
	require.NoError(t, m.ctrl.Reconcile(context.Background()))
	return m
}

func (m *boardMover) fetch(context.Context) ([]models.BoardItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	out := make([]models.BoardItem, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.server[id])
	}
	return out, nil
}

func (m *boardMover) MoveItem(id models.ID, to models.Position) (*reconcile.Pending, error) {
	return m.ctrl.Submit(reconcile.Mutation[models.BoardItem]{
		Kind:  reconcile.KindUpdate,
		ID:    id,
		Local: func(b *models.BoardItem) { b.Move(to) },
		Remote: func(context.Context) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.patches = append(m.patches, patch{id, to})
			it := m.server[id]
			it.Move(to)
			m.server[id] = it
			return nil
		},
	})
}

func (m *boardMover) Refresh() (*reconcile.Pending, error) { return m.ctrl.Refresh() }

func (m *boardMover) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patches), m.fetches
}

func settle(t *testing.T, p *reconcile.Pending) reconcile.Settlement {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := p.Wait(ctx)
	require.NoError(t, err)
	return s
}

var canvas = Rect{X: 100, Y: 50, Width: 800, Height: 600}

func TestSession_OneMutationPerCompletedDrag(t *testing.T) {
	m := newBoardMover(t, models.BoardItem{ID: "7", Title: "idea", X: 10, Y: 10})
	s := NewSession(m.ctrl.Store(), m)

	require.NoError(t, s.Begin("7"))
	for i := 0; i < 25; i++ {
		require.NoError(t, s.Move(Point{X: 100 + float64(i), Y: 50 + float64(i)}, canvas))
	}
	patches, fetchesBefore := m.counts()
	assert.Equal(t, 0, patches, "moves are never sent")

	p, err := s.End(Point{X: 220, Y: 130}, canvas)
	require.NoError(t, err)
	res := settle(t, p)
	require.NoError(t, res.Err)

	patches, fetches := m.counts()
	assert.Equal(t, 1, patches)
	assert.Equal(t, fetchesBefore+1, fetches, "drop is followed by a re-fetch")
	assert.Equal(t, patch{"7", models.Position{X: 120, Y: 80}}, m.patches[0], "drop coordinates are canvas-relative")

	got, _ := m.ctrl.Store().Get("7")
	assert.Equal(t, models.Position{X: 120, Y: 80}, got.Position())

	st, id := s.State()
	assert.Equal(t, Idle, st)
	assert.Empty(t, id)
}

func TestSession_MoveUpdatesLocalPositionOnly(t *testing.T) {
	m := newBoardMover(t, models.BoardItem{ID: "1", X: 0, Y: 0})
	s := NewSession(m.ctrl.Store(), m)

	require.NoError(t, s.Begin("1"))
	require.NoError(t, s.Move(Point{X: 150, Y: 100}, canvas))

	got, _ := m.ctrl.Store().Get("1")
	assert.Equal(t, models.Position{X: 50, Y: 50}, got.Position())

	require.NoError(t, s.Move(Point{X: 5000, Y: 5000}, canvas), "outside points are ignored")
	got, _ = m.ctrl.Store().Get("1")
	assert.Equal(t, models.Position{X: 50, Y: 50}, got.Position())
}

func TestSession_SingleDragAtATime(t *testing.T) {
	m := newBoardMover(t, models.BoardItem{ID: "1"}, models.BoardItem{ID: "2"})
	s := NewSession(m.ctrl.Store(), m)

	require.NoError(t, s.Begin("1"))
	assert.ErrorIs(t, s.Begin("2"), ErrDragInProgress)

	st, id := s.State()
	assert.Equal(t, Dragging, st)
	assert.Equal(t, models.ID("1"), id)
}

func TestSession_DropOutsideCanvasRestoresConfirmedPosition(t *testing.T) {
	m := newBoardMover(t, models.BoardItem{ID: "1", X: 30, Y: 40})
	s := NewSession(m.ctrl.Store(), m)

	require.NoError(t, s.Begin("1"))
	require.NoError(t, s.Move(Point{X: 400, Y: 400}, canvas))

	p, err := s.End(Point{X: 10, Y: 10}, canvas)
	require.NoError(t, err)
	settle(t, p)

	patches, _ := m.counts()
	assert.Equal(t, 0, patches)
	got, _ := m.ctrl.Store().Get("1")
	assert.Equal(t, models.Position{X: 30, Y: 40}, got.Position())
}

func TestSession_AbortRestoresConfirmedPosition(t *testing.T) {
	m := newBoardMover(t, models.BoardItem{ID: "1", X: 30, Y: 40})
	s := NewSession(m.ctrl.Store(), m)

	require.NoError(t, s.Begin("1"))
	require.NoError(t, s.Move(Point{X: 400, Y: 400}, canvas))
	p, err := s.Abort()
	require.NoError(t, err)
	settle(t, p)

	patches, _ := m.counts()
	assert.Equal(t, 0, patches)
	got, _ := m.ctrl.Store().Get("1")
	assert.Equal(t, models.Position{X: 30, Y: 40}, got.Position())

	_, err = s.Abort()
	assert.ErrorIs(t, err, ErrNotDragging)
}

func TestSession_ErrorsOutsideDrag(t *testing.T) {
	m := newBoardMover(t, models.BoardItem{ID: "1"})
	s := NewSession(m.ctrl.Store(), m)

	assert.ErrorIs(t, s.Move(Point{}, canvas), ErrNotDragging)
	_, err := s.End(Point{}, canvas)
	assert.ErrorIs(t, err, ErrNotDragging)
	assert.ErrorIs(t, s.Begin("404"), ErrUnknownItem)
}

func TestRect(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 50}
	assert.True(t, r.Contains(Point{X: 10, Y: 10}))
	assert.True(t, r.Contains(Point{X: 109.9, Y: 59.9}))
	assert.False(t, r.Contains(Point{X: 110, Y: 20}))
	assert.False(t, r.Contains(Point{X: 9, Y: 20}))
	assert.Equal(t, models.Position{X: 5, Y: 7}, r.Relative(Point{X: 15, Y: 17}))
	assert.Equal(t, "dragging", Dragging.String())
	assert.Equal(t, "idle", Idle.String())
}
