// Package lifecycle encodes the approval pipeline of a marketing visual:
//
//	draft --approve--> approved --generate--> generated
//
// Each non-terminal status offers exactly one action and the status only
// moves forward. The backend is the authority on the status; the console
// learns about a transition from the re-fetch that follows a successful
// action call.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/leadconsole/internal/client/models"
)

type Status = models.VisualStatus

const (
	Draft     = models.VisualDraft
	Approved  = models.VisualApproved
	Generated = models.VisualGenerated
)

// Action is the path segment posted to /visuals/{id}/{action}.
type Action string

const (
	Approve  Action = "approve"
	Generate Action = "generate"
)

var (
	ErrIllegalTransition = errors.New("illegal transition")
	ErrNotAvailable      = errors.New("action not available for current status")
	ErrUnknownStatus     = errors.New("unknown status")
)

var transitions = map[Status]struct {
	action Action
	next   Status
}{
	Draft:    {Approve, Approved},
	Approved: {Generate, Generated},
}

// Rank orders statuses along the pipeline; unknown statuses rank -1.
func Rank(s Status) int {
	switch s {
	case Draft:
		return 0
	case Approved:
		return 1
	case Generated:
		return 2
	}
	return -1
}

// Valid reports whether s is a known status.
func Valid(s Status) bool { return Rank(s) >= 0 }

// Terminal reports whether no action is offered in s.
func Terminal(s Status) bool { return s == Generated }

// Available returns the single action offered in s.
func Available(s Status) (Action, bool) {
	t, ok := transitions[s]
	if !ok {
		return "", false
	}
	return t.action, true
}

// Next returns the status reached by applying a in s.
func Next(s Status, a Action) (Status, error) {
	if !Valid(s) {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	t, ok := transitions[s]
	if !ok || t.action != a {
		return "", fmt.Errorf("%w: %s from %s", ErrIllegalTransition, a, s)
	}
	return t.next, nil
}

// Check verifies that a may be requested for a visual currently in s.
func Check(s Status, a Action) error {
	offered, ok := Available(s)
	if !ok || offered != a {
		return fmt.Errorf("%w: %s while %s", ErrNotAvailable, a, s)
	}
	return nil
}

// Regressed reports whether moving from prev to next goes backwards.
func Regressed(prev, next Status) bool {
	return Valid(prev) && Valid(next) && Rank(next) < Rank(prev)
}

// Regression is an observed backwards step in a visual's status.
type Regression struct {
	ID   models.ID
	From Status
	To   Status
}

// Tracker remembers the furthest status seen for each visual across
// snapshots so backwards steps reported by the backend can be surfaced.
type Tracker struct {
	mu   sync.Mutex
	seen map[models.ID]Status
}

// NewTracker returns a tracker that has seen no visuals.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[models.ID]Status)}
}

// Observe records a snapshot and returns any regressions it contains.
func (t *Tracker) Observe(snapshot []models.Visual) []Regression {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Regression
	for _, v := range snapshot {
		prev, ok := t.seen[v.ID]
		if ok && Regressed(prev, v.Status) {
			out = append(out, Regression{ID: v.ID, From: prev, To: v.Status})
			continue
		}
		if !ok || Rank(v.Status) > Rank(prev) {
			t.seen[v.ID] = v.Status
		}
	}
	return out
}
