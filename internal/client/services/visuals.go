package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/leadconsole/internal/client/gateway"
	"github.com/dmitrijs2005/leadconsole/internal/client/lifecycle"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
	"github.com/dmitrijs2005/leadconsole/internal/client/store"
)

var ErrUnknownVisual = errors.New("unknown visual")

const generationStarted = "Visual generation in progress..."

// VisualsPage drives marketing visuals through approval and generation.
type VisualsPage struct {
	page[models.Visual]
	tracker *lifecycle.Tracker
}

func NewVisualsPage(ctx context.Context, env Env) *VisualsPage {
	p := &VisualsPage{tracker: lifecycle.NewTracker()}
	p.page = newPage(ctx, env, gateway.Visuals, p.fetch(listFetch[models.Visual](env.Client, gateway.Visuals, nil)))
	return p
}

// fetch wraps the listing so every snapshot passes through the status
// tracker. Regressions are logged and kept as the backend reports them.
func (p *VisualsPage) fetch(list store.FetchFunc[models.Visual]) store.FetchFunc[models.Visual] {
	return func(ctx context.Context) ([]models.Visual, error) {
		snap, err := list(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range p.tracker.Observe(snap) {
			p.env.Logger.Warn(ctx, "visual status went backwards",
				"id", r.ID.String(), "from", string(r.From), "to", string(r.To))
		}
		return snap, nil
	}
}

// Create adds a draft visual.
func (p *VisualsPage) Create(v models.NewVisual) (*reconcile.Pending, error) {
	v.Title = strings.TrimSpace(v.Title)
	if v.Title == "" {
		return nil, ErrEmptyTitle
	}
	return p.ctrl.Submit(reconcile.Mutation[models.Visual]{
		Kind: reconcile.KindCreate,
		Remote: func(ctx context.Context) error {
			return p.env.Client.Create(ctx, gateway.Visuals, v)
		},
	})
}

// Action returns the single action offered for the visual, if any. Nothing
// is offered while a transition for it is pending.
func (p *VisualsPage) Action(id models.ID) (lifecycle.Action, bool) {
	v, ok := p.Get(id)
	if !ok || p.InFlight(id) {
		return "", false
	}
	return lifecycle.Available(v.Status)
}

func (p *VisualsPage) Approve(id models.ID) (*reconcile.Pending, error) {
	return p.transition(id, lifecycle.Approve, "")
}

func (p *VisualsPage) Generate(id models.ID) (*reconcile.Pending, error) {
	return p.transition(id, lifecycle.Generate, generationStarted)
}

// transition posts the action. The status is not changed locally: the
// re-fetch after an accepted call brings the new status and image.
func (p *VisualsPage) transition(id models.ID, a lifecycle.Action, accepted string) (*reconcile.Pending, error) {
	v, ok := p.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVisual, id)
	}
	if err := lifecycle.Check(v.Status, a); err != nil {
		return nil, err
	}
	return p.ctrl.Submit(reconcile.Mutation[models.Visual]{
		Kind:      reconcile.KindAction,
		ID:        id,
		Exclusive: true,
		Accepted:  accepted,
		Remote: func(ctx context.Context) error {
			return p.env.Client.Invoke(ctx, gateway.Visuals, id.String(), string(a))
		},
	})
}
