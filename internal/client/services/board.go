package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/leadconsole/internal/client/board"
	"github.com/dmitrijs2005/leadconsole/internal/client/gateway"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
	"github.com/dmitrijs2005/leadconsole/internal/client/store"
)

// DefaultItemColor is used for new board items without a color.
const DefaultItemColor = "#3B82F6"

// New items land inside this box so they are visible on a small canvas.
const (
	placeMinX  = 50
	placeMinY  = 50
	placeSpanX = 600
	placeSpanY = 400
)

var ErrEmptyTitle = errors.New("title is required")

// BoardPage is the idea board: items that can be added, removed and moved
// by dragging.
type BoardPage struct {
	page[models.BoardItem]
}

func NewBoardPage(ctx context.Context, env Env) *BoardPage {
	return &BoardPage{page: newPage(ctx, env, gateway.Board, listFetch[models.BoardItem](env.Client, gateway.Board, nil))}
}

// Store exposes the snapshot for drag sessions and renderers.
func (p *BoardPage) Store() *store.Store[models.BoardItem] { return p.ctrl.Store() }

// Create adds an item at a random position. The new item appears after the
// trailing re-fetch.
func (p *BoardPage) Create(item models.NewBoardItem) (*reconcile.Pending, error) {
	item.Title = strings.TrimSpace(item.Title)
	if item.Title == "" {
		return nil, ErrEmptyTitle
	}
	if item.Color == "" {
		item.Color = DefaultItemColor
	}
	item.X = placeMinX + p.env.Rand()*placeSpanX
	item.Y = placeMinY + p.env.Rand()*placeSpanY

	return p.ctrl.Submit(reconcile.Mutation[models.BoardItem]{
		Kind: reconcile.KindCreate,
		Remote: func(ctx context.Context) error {
			return p.env.Client.Create(ctx, gateway.Board, item)
		},
	})
}

// Delete removes an item. The item disappears with the trailing re-fetch;
// an unknown id fails remotely and leaves the board untouched.
func (p *BoardPage) Delete(id models.ID) (*reconcile.Pending, error) {
	return p.ctrl.Submit(reconcile.Mutation[models.BoardItem]{
		Kind: reconcile.KindDelete,
		ID:   id,
		Remote: func(ctx context.Context) error {
			return p.env.Client.Delete(ctx, gateway.Board, id)
		},
	})
}

// MoveItem shows the item at to right away and persists the position with
// a single partial update.
func (p *BoardPage) MoveItem(id models.ID, to models.Position) (*reconcile.Pending, error) {
	return p.ctrl.Submit(reconcile.Mutation[models.BoardItem]{
		Kind:  reconcile.KindUpdate,
		ID:    id,
		Local: func(b *models.BoardItem) { b.Move(to) },
		Remote: func(ctx context.Context) error {
			return p.env.Client.Update(ctx, gateway.Board, id, to)
		},
	})
}

// NewDragSession starts a drag session bound to this page.
func (p *BoardPage) NewDragSession() *board.Session {
	return board.NewSession(p.ctrl.Store(), p)
}

var _ board.Mover = (*BoardPage)(nil)
