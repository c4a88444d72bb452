package reconcile

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/leadconsole/internal/client/models"
)

var (
	ErrFetchFailed      = errors.New("fetch failed")
	ErrMutationFailed   = errors.New("mutation failed")
	ErrJobTriggerFailed = errors.New("job trigger failed")

	// ErrInFlight rejects an exclusive mutation for an entity that already
	// has one pending.
	ErrInFlight = errors.New("a change for this item is already in progress")

	// ErrScopeClosed is returned when work is submitted after the page
	// owning the scope has gone away.
	ErrScopeClosed = errors.New("page closed")
)

// FetchFailure means a reconciliation fetch did not complete. The previous
// snapshot stays in place.
type FetchFailure struct {
	Collection string
	Err        error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Collection, e.Err)
}

func (e *FetchFailure) Unwrap() error { return e.Err }

func (e *FetchFailure) Is(target error) bool { return target == ErrFetchFailed }

// MutationFailure means a create, update, delete or action call was
// rejected or did not reach the backend. Local optimistic state is kept.
type MutationFailure struct {
	Collection string
	Kind       string
	ID         models.ID
	Err        error
}

func (e *MutationFailure) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s on %s: %v", e.Kind, e.Collection, e.Err)
	}
	return fmt.Sprintf("%s on %s/%s: %v", e.Kind, e.Collection, e.ID, e.Err)
}

func (e *MutationFailure) Unwrap() error { return e.Err }

func (e *MutationFailure) Is(target error) bool { return target == ErrMutationFailed }

// JobTriggerFailure means a background job start was rejected. No follow-up
// fetch is scheduled.
type JobTriggerFailure struct {
	Job string
	Err error
}

func (e *JobTriggerFailure) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Job, e.Err)
}

func (e *JobTriggerFailure) Unwrap() error { return e.Err }

func (e *JobTriggerFailure) Is(target error) bool { return target == ErrJobTriggerFailed }
