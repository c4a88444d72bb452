package reconcile

import (
	"context"
	"sync"
)

// Settlement is the outcome of a mutation or background fetch.
type Settlement struct {
	// Err is a *MutationFailure when the remote call failed.
	Err error
	// Reconciled is true when the trailing fetch replaced the store.
	Reconciled bool
	// ReconcileErr is the trailing fetch error, if any.
	ReconcileErr error
}

// Pending is a handle on background work. Callers that fire and forget can
// drop it.
type Pending struct {
	done chan struct{}
	once sync.Once
	s    Settlement
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(s Settlement) {
	p.once.Do(func() {
		p.s = s
		close(p.done)
	})
}

// Done is closed once the work has settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until settlement or until ctx ends.
func (p *Pending) Wait(ctx context.Context) (Settlement, error) {
	select {
	case <-p.done:
		return p.s, nil
	case <-ctx.Done():
		return Settlement{}, ctx.Err()
	}
}

// Result returns the settlement if it is available.
func (p *Pending) Result() (Settlement, bool) {
	select {
	case <-p.done:
		return p.s, true
	default:
		return Settlement{}, false
	}
}
