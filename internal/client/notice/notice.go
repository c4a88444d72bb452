// Package notice carries user-visible messages (failures, confirmations)
// from background work to whatever UI is attached.
package notice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/leadconsole/internal/clock"
	"github.com/dmitrijs2005/leadconsole/internal/logging"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Class names the failure category of an error notice.
type Class string

const (
	ClassNone              Class = ""
	ClassFetchFailure      Class = "fetch_failure"
	ClassMutationFailure   Class = "mutation_failure"
	ClassJobTriggerFailure Class = "job_trigger_failure"
)

// Notice is one message for the operator.
type Notice struct {
	ID    string
	Level Level
	Class Class
	Text  string
	At    time.Time
}

// Sink receives notices.
type Sink interface {
	Notify(n Notice)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notice)

func (f SinkFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Sink = SinkFunc(func(Notice) {})

const defaultHistory = 50

// minSubscriberBuffer is the smallest channel buffer handed to a subscriber.
// An unbuffered channel would drop every notice the reader is not already
// blocked on.
const minSubscriberBuffer = 8

// Center stamps notices, logs them, keeps the most recent ones and fans them
// out to subscribers. Slow subscribers miss notices rather than block the
// sender.
type Center struct {
	mu      sync.Mutex
	clock   clock.Clock
	logger  logging.Logger
	history []Notice
	limit   int
	subs    []chan Notice
}

// NewCenter returns a center stamping notices with c and logging them to
// logger.
func NewCenter(c clock.Clock, logger logging.Logger) *Center {
	return &Center{clock: c, logger: logger.With("component", "notice"), limit: defaultHistory}
}

// Notify records n and sends it to every subscriber.
func (c *Center) Notify(n Notice) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.At.IsZero() {
		n.At = c.clock.Now()
	}

	ctx := context.Background()
	if n.Level == LevelError {
		c.logger.Warn(ctx, n.Text, "class", string(n.Class), "notice_id", n.ID)
	} else {
		c.logger.Info(ctx, n.Text, "notice_id", n.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, n)
	if len(c.history) > c.limit {
		c.history = c.history[len(c.history)-c.limit:]
	}
	for _, ch := range c.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Recent returns up to n of the latest notices, oldest first.
func (c *Center) Recent(n int) []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 || n > len(c.history) {
		n = len(c.history)
	}
	out := make([]Notice, n)
	copy(out, c.history[len(c.history)-n:])
	return out
}

// Subscribe returns a channel receiving notices sent after the call. Sends
// never block: once buffer notices are queued, later ones are dropped for
// this subscriber and only show up in Recent. buffer is raised to
// minSubscriberBuffer when smaller. The returned function unsubscribes and
// closes the channel.
func (c *Center) Subscribe(buffer int) (<-chan Notice, func()) {
	ch := make(chan Notice, max(buffer, minSubscriberBuffer))
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s == ch {
					c.subs = append(c.subs[:i], c.subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
}

// Error builds an error notice of the given class.
func Error(class Class, text string) Notice {
	return Notice{Level: LevelError, Class: class, Text: text}
}

// Info builds an informational notice.
func Info(text string) Notice {
	return Notice{Level: LevelInfo, Text: text}
}

// Success builds a confirmation notice.
func Success(text string) Notice {
	return Notice{Level: LevelSuccess, Text: text}
}
