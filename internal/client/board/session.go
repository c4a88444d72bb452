// Package board implements dragging notes around the idea board.
//
// A drag is a short-lived session: pick an item up, move it any number of
// times, drop it. Only the drop is persisted, as one position update
// followed by a re-fetch. Moves in between only change the local snapshot.
package board

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
	"github.com/dmitrijs2005/leadconsole/internal/client/store"
)

var (
	ErrDragInProgress = errors.New("another item is already being dragged")
	ErrNotDragging    = errors.New("no drag in progress")
	ErrUnknownItem    = errors.New("unknown board item")
)

// State is the phase of a drag session.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Point is a pointer location in the UI's coordinate space.
type Point struct {
	X, Y float64
}

// Rect is the canvas area in the UI's coordinate space.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether p lies inside the rectangle. The right and
// bottom edges are exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X < r.X+r.Width && p.Y < r.Y+r.Height
}

// Relative converts p to canvas coordinates.
func (r Rect) Relative(p Point) models.Position {
	return models.Position{X: p.X - r.X, Y: p.Y - r.Y}
}

// Mover persists a dropped item and refreshes the board.
type Mover interface {
	MoveItem(id models.ID, to models.Position) (*reconcile.Pending, error)
	Refresh() (*reconcile.Pending, error)
}

// Session tracks at most one drag at a time.
type Session struct {
	mu     sync.Mutex
	state  State
	itemID models.ID
	store  *store.Store[models.BoardItem]
	mover  Mover
}

// NewSession returns an idle session over the board snapshot in st.
func NewSession(st *store.Store[models.BoardItem], mover Mover) *Session {
	return &Session{store: st, mover: mover}
}

// State returns the session state and the dragged item, if any.
func (s *Session) State() (State, models.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.itemID
}

// Begin picks up the item with the given id.
func (s *Session) Begin(id models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Dragging {
		return ErrDragInProgress
	}
	if _, ok := s.store.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	s.state = Dragging
	s.itemID = id
	return nil
}

// Move shows the dragged item at p without persisting anything. Points
// outside the canvas are ignored.
func (s *Session) Move(p Point, canvas Rect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Dragging {
		return ErrNotDragging
	}
	if !canvas.Contains(p) {
		return nil
	}
	pos := canvas.Relative(p)
	s.store.Apply(s.itemID, func(b *models.BoardItem) { b.Move(pos) })
	return nil
}

// End drops the item at p. Inside the canvas this issues exactly one
// position update; outside it the drag is abandoned.
func (s *Session) End(p Point, canvas Rect) (*reconcile.Pending, error) {
	s.mu.Lock()
	if s.state != Dragging {
		s.mu.Unlock()
		return nil, ErrNotDragging
	}
	id := s.itemID
	s.state, s.itemID = Idle, ""
	s.mu.Unlock()

	if !canvas.Contains(p) {
		return s.mover.Refresh()
	}
	return s.mover.MoveItem(id, canvas.Relative(p))
}

// Abort abandons the drag. A re-fetch restores the last confirmed position.
func (s *Session) Abort() (*reconcile.Pending, error) {
	s.mu.Lock()
	if s.state != Dragging {
		s.mu.Unlock()
		return nil, ErrNotDragging
	}
	s.state, s.itemID = Idle, ""
	s.mu.Unlock()
	return s.mover.Refresh()
}
