// Package reconcile implements the console's optimistic mutation pattern.
//
// A gesture changes the local snapshot first, then sends exactly one remote
// call. A successful call is always followed by a full re-fetch, since the
// backend's response body is never trusted as the new state. A failed call is
// reported to the operator and left alone: no rollback and no retry. The next
// re-fetch, whatever triggers it, puts the view back in line with the backend.
//
// Nothing orders a mutation against a re-fetch started by another gesture. A
// fetch that completes before an older mutation has settled overwrites the
// optimistic edit until that mutation's own trailing fetch lands.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/notice"
	"github.com/dmitrijs2005/leadconsole/internal/client/store"
	"github.com/dmitrijs2005/leadconsole/internal/logging"
)

// Kind classifies a mutation for logs and the journal.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
	KindAction Kind = "action"
	KindJob    Kind = "job"
)

// Recorder persists the outcome of every remote mutation.
type Recorder interface {
	RecordMutation(ctx context.Context, collection string, kind Kind, id models.ID, err error) error
}

// Mutation describes one operator gesture.
type Mutation[T models.Entity] struct {
	Kind Kind
	ID   models.ID

	// Local is applied to the stored record before Remote is called.
	// Nil means the gesture has no optimistic effect.
	Local func(*T)

	// Remote performs the single backend call for this gesture.
	Remote func(ctx context.Context) error

	// Exclusive refuses the mutation while another exclusive mutation for
	// the same ID is still pending.
	Exclusive bool

	// Accepted, if set, is shown to the operator when Remote succeeds.
	Accepted string

	// Failed overrides the operator-facing text on failure.
	Failed string
}

// Deps are the collaborators shared by all controllers of a page.
type Deps struct {
	Scope    *Scope
	Notices  notice.Sink
	Logger   logging.Logger
	Recorder Recorder
}

// Controller applies mutations to one store and keeps it reconciled.
type Controller[T models.Entity] struct {
	collection string
	store      *store.Store[T]
	fetch      store.FetchFunc[T]
	scope      *Scope
	notices    notice.Sink
	logger     logging.Logger
	recorder   Recorder

	mu       sync.Mutex
	inflight map[models.ID]struct{}
}

// NewController returns a controller keeping st in line with the backend
// collection through fetch.
func NewController[T models.Entity](collection string, st *store.Store[T], fetch store.FetchFunc[T], deps Deps) *Controller[T] {
	if deps.Scope == nil {
		deps.Scope = NewScope(context.Background())
	}
	if deps.Notices == nil {
		deps.Notices = notice.Discard
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	c := &Controller[T]{
		collection: collection,
		store:      st,
		fetch:      fetch,
		scope:      deps.Scope,
		notices:    deps.Notices,
		logger:     deps.Logger.With("collection", collection),
		recorder:   deps.Recorder,
		inflight:   make(map[models.ID]struct{}),
	}
	deps.Scope.OnClose(st.Close)
	return c
}

// Store returns the snapshot this controller maintains.
func (c *Controller[T]) Store() *store.Store[T] { return c.store }

// Scope returns the lifetime the controller's work is bound to.
func (c *Controller[T]) Scope() *Scope { return c.scope }

// Collection is the backend collection name.
func (c *Controller[T]) Collection() string { return c.collection }

// Submit applies m.Local synchronously and starts m.Remote in the background.
// The returned Pending resolves after the remote call and, on success, the
// trailing re-fetch.
func (c *Controller[T]) Submit(m Mutation[T]) (*Pending, error) {
	if m.Remote == nil {
		return nil, errors.New("mutation has no remote call")
	}
	if c.scope.Closed() {
		return nil, ErrScopeClosed
	}
	if m.Exclusive {
		if !c.acquire(m.ID) {
			return nil, ErrInFlight
		}
	}

	if m.Local != nil && m.ID != "" {
		c.store.Apply(m.ID, m.Local)
	}

	p := newPending()
	started := c.scope.Go(func(ctx context.Context) {
		p.resolve(c.settle(ctx, m))
	})
	if !started {
		if m.Exclusive {
			c.release(m.ID)
		}
		return nil, ErrScopeClosed
	}
	return p, nil
}

// InFlight reports whether an exclusive mutation for id is pending.
func (c *Controller[T]) InFlight(id models.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

// Reconcile replaces the store with a fresh snapshot. A failure raises a
// fetch notice and leaves the previous snapshot in place.
func (c *Controller[T]) Reconcile(ctx context.Context) error {
	err := c.store.Load(ctx, c.fetch)
	if err == nil {
		c.logger.Debug(ctx, "reconciled", "items", c.store.Len())
		return nil
	}
	if errors.Is(err, store.ErrClosed) {
		return err
	}

	ff := &FetchFailure{Collection: c.collection, Err: err}
	c.logger.Warn(ctx, "reconcile failed", "error", err)
	c.notify(notice.Error(notice.ClassFetchFailure, fmt.Sprintf("Could not load %s: %v", c.collection, err)))
	return ff
}

// Refresh runs Reconcile in the background.
func (c *Controller[T]) Refresh() (*Pending, error) {
	p := newPending()
	if !c.scope.Go(func(ctx context.Context) {
		err := c.Reconcile(ctx)
		p.resolve(Settlement{Reconciled: err == nil, ReconcileErr: err})
	}) {
		return nil, ErrScopeClosed
	}
	return p, nil
}

func (c *Controller[T]) settle(ctx context.Context, m Mutation[T]) Settlement {
	if m.Exclusive {
		defer c.release(m.ID)
	}

	err := m.Remote(ctx)
	c.record(ctx, m, err)

	if err != nil {
		mf := &MutationFailure{Collection: c.collection, Kind: string(m.Kind), ID: m.ID, Err: err}
		c.logger.Warn(ctx, "mutation failed", "kind", string(m.Kind), "id", m.ID.String(), "error", err)
		text := m.Failed
		if text == "" {
			text = fmt.Sprintf("Could not %s: %v", describe(c.collection, m.Kind, m.ID), err)
		}
		c.notify(notice.Error(notice.ClassMutationFailure, text))
		return Settlement{Err: mf}
	}

	c.logger.Info(ctx, "mutation accepted", "kind", string(m.Kind), "id", m.ID.String())
	if m.Accepted != "" {
		c.notify(notice.Success(m.Accepted))
	}

	rerr := c.Reconcile(ctx)
	return Settlement{Reconciled: rerr == nil, ReconcileErr: rerr}
}

func (c *Controller[T]) record(ctx context.Context, m Mutation[T], err error) {
	if c.recorder == nil {
		return
	}
	if rerr := c.recorder.RecordMutation(context.WithoutCancel(ctx), c.collection, m.Kind, m.ID, err); rerr != nil {
		c.logger.Error(ctx, "journal write failed", "error", rerr)
	}
}

// notify drops notices once the page is gone.
func (c *Controller[T]) notify(n notice.Notice) {
	if c.scope.Closed() {
		return
	}
	c.notices.Notify(n)
}

func (c *Controller[T]) acquire(id models.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[id]; busy {
		return false
	}
	c.inflight[id] = struct{}{}
	return true
}

func (c *Controller[T]) release(id models.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, id)
}

func describe(collection string, kind Kind, id models.ID) string {
	if id == "" {
		return fmt.Sprintf("%s %s", kind, collection)
	}
	return fmt.Sprintf("%s %s/%s", kind, collection, id)
}
