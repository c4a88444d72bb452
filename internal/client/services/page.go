// Package services implements the console pages. Each page owns one
// snapshot store, the controller that mutates it and the scope its
// background work runs in. Closing a page detaches that scope.
package services

import (
	"context"
	"math/rand/v2"
	"net/url"
	"time"

	"github.com/dmitrijs2005/leadconsole/internal/client/gateway"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/notice"
	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
	"github.com/dmitrijs2005/leadconsole/internal/client/store"
	"github.com/dmitrijs2005/leadconsole/internal/clock"
	"github.com/dmitrijs2005/leadconsole/internal/logging"
)

// Env carries what every page needs.
type Env struct {
	Client   gateway.Client
	Notices  notice.Sink
	Logger   logging.Logger
	Recorder reconcile.Recorder
	Clock    clock.Clock

	// ReportsDelay is the wait between an accepted weekly report job and
	// the re-fetch. Zero means reconcile.DefaultJobDelay.
	ReportsDelay time.Duration

	// Rand returns a float in [0,1) and places new board items.
	Rand func() float64
}

func (e Env) withDefaults() Env {
	if e.Notices == nil {
		e.Notices = notice.Discard
	}
	if e.Logger == nil {
		e.Logger = logging.Nop()
	}
	if e.Clock == nil {
		e.Clock = clock.Real()
	}
	if e.Rand == nil {
		e.Rand = rand.Float64
	}
	return e
}

// page is the part shared by every entity page.
type page[T models.Entity] struct {
	env   Env
	scope *reconcile.Scope
	ctrl  *reconcile.Controller[T]
}

func newPage[T models.Entity](parent context.Context, env Env, coll gateway.Collection, fetch store.FetchFunc[T]) page[T] {
	env = env.withDefaults()
	scope := reconcile.NewScope(parent)
	ctrl := reconcile.NewController(coll.String(), store.New[T](), fetch, reconcile.Deps{
		Scope:    scope,
		Notices:  env.Notices,
		Logger:   env.Logger,
		Recorder: env.Recorder,
	})
	return page[T]{env: env, scope: scope, ctrl: ctrl}
}

func listFetch[T models.Entity](c gateway.Client, coll gateway.Collection, query url.Values) store.FetchFunc[T] {
	return func(ctx context.Context) ([]T, error) {
		var out []T
		if err := c.List(ctx, coll, query, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Load fetches the page's collection. A failure has already been reported
// as a notice; the previous snapshot stays.
func (p page[T]) Load(ctx context.Context) error {
	return p.ctrl.Reconcile(ctx)
}

// Refresh re-fetches in the background.
func (p page[T]) Refresh() (*reconcile.Pending, error) {
	return p.ctrl.Refresh()
}

// Items returns the current snapshot.
func (p page[T]) Items() []T {
	return p.ctrl.Store().Current()
}

func (p page[T]) Get(id models.ID) (T, bool) {
	return p.ctrl.Store().Get(id)
}

func (p page[T]) Loaded() bool {
	return p.ctrl.Store().Loaded()
}

func (p page[T]) InFlight(id models.ID) bool {
	return p.ctrl.InFlight(id)
}

// Close leaves the page. Calls already sent finish, but their results are
// dropped.
func (p page[T]) Close() {
	p.scope.Detach()
}

// Cancel leaves the page and aborts calls still in flight.
func (p page[T]) Cancel() {
	p.scope.Cancel()
}

// Wait blocks until the page's background work has returned.
func (p page[T]) Wait() {
	p.scope.Wait()
}
