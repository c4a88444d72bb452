package reconcile

import (
	"context"
	"sync"
)

// Scope ties background work to the lifetime of a page.
//
// Remote calls run on goroutines started with Go. Leaving the page calls
// Detach: calls already sent are allowed to finish but their results are
// ignored. Cancel additionally cancels their context.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	onClose []func()
	wg      sync.WaitGroup
}

// NewScope derives a scope from parent. Cancelling parent behaves like Cancel
// for requests already in flight.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context is the context remote calls should use.
func (s *Scope) Context() context.Context { return s.ctx }

// Go runs fn on a new goroutine. It returns false without running fn once
// the scope is closed.
func (s *Scope) Go(fn func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
	return true
}

// OnClose registers fn to run when the scope is detached or cancelled.
func (s *Scope) OnClose(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.onClose = append(s.onClose, fn)
	s.mu.Unlock()
}

// Closed reports whether Detach or Cancel was called.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Detach closes the scope without interrupting in-flight requests. The
// scope's context is released once they have all returned.
func (s *Scope) Detach() {
	s.close()
	go func() {
		s.wg.Wait()
		s.cancel()
	}()
}

// Cancel closes the scope and cancels in-flight requests.
func (s *Scope) Cancel() {
	s.close()
	s.cancel()
}

// Wait blocks until every goroutine started with Go has returned.
func (s *Scope) Wait() {
	s.wg.Wait()
}

func (s *Scope) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	hooks := s.onClose
	s.onClose = nil
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
