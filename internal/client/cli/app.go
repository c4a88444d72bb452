package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/leadconsole/internal/client/board"
	"github.com/dmitrijs2005/leadconsole/internal/client/gateway"
	"github.com/dmitrijs2005/leadconsole/internal/client/journal"
	"github.com/dmitrijs2005/leadconsole/internal/client/notice"
	"github.com/dmitrijs2005/leadconsole/internal/client/services"
	"github.com/dmitrijs2005/leadconsole/internal/clock"
	"github.com/dmitrijs2005/leadconsole/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

const (
	DefaultCanvasWidth  = 800
	DefaultCanvasHeight = 600
)

// JournalReader is the read side of the mutation journal.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	Summarize(ctx context.Context) (journal.Summary, error)
}

// view is a page the operator is currently looking at.
type view interface {
	Load(ctx context.Context) error
	Close()
	Wait()
}

// Deps groups what the App is built from. Journal, Exporter and Pinger
// are optional; the matching commands report that they are disabled.
type Deps struct {
	Env      services.Env
	Notices  *notice.Center
	Pinger   gateway.Pinger
	Journal  JournalReader
	Exporter services.Exporter
	Canvas   board.Rect

	In  io.Reader
	Out io.Writer
}

type App struct {
	env      services.Env
	notices  *notice.Center
	pinger   gateway.Pinger
	journal  JournalReader
	exporter services.Exporter
	canvas   board.Rect
	logger   logging.Logger

	in  *bufio.Reader
	out io.Writer

	mu       sync.Mutex
	mode     Mode
	current  view
	viewName string
}

func NewApp(d Deps) *App {
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Env.Notices == nil && d.Notices != nil {
		d.Env.Notices = d.Notices
	}
	if d.Env.Clock == nil {
		d.Env.Clock = clock.Real()
	}
	if d.Env.Logger == nil {
		d.Env.Logger = logging.Nop()
	}
	if d.Canvas.Width <= 0 || d.Canvas.Height <= 0 {
		d.Canvas = board.Rect{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight}
	}
	return &App{
		env:      d.Env,
		notices:  d.Notices,
		pinger:   d.Pinger,
		journal:  d.Journal,
		exporter: d.Exporter,
		canvas:   d.Canvas,
		logger:   d.Env.Logger.With("component", "cli"),
		in:       bufio.NewReader(d.In),
		out:      &syncWriter{w: d.Out},
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if !changed {
		return
	}
	a.logger.Info(context.Background(), "switched mode", "mode", mode)
	if a.notices != nil {
		a.notices.Notify(notice.Info("Switched to " + string(mode) + " mode"))
	}
}

// StartOnlineStatusWatcher pings the backend once, then every interval,
// and flips the mode accordingly. It blocks until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if a.pinger == nil || interval <= 0 {
		return
	}
	ticker := a.env.Clock.NewTicker(interval)
	defer ticker.Stop()

	a.checkOnline(ctx)
	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.pinger.Ping(pctx)
	cancel()
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}

// enter makes v the current view and closes the one being left.
func (a *App) enter(name string, v view) {
	a.mu.Lock()
	prev := a.current
	a.current, a.viewName = v, name
	a.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
}

// Leave closes the current view, if any.
func (a *App) Leave() {
	a.enter("", nil)
}

// Wait blocks until the current view's background work has finished.
func (a *App) Wait() {
	a.mu.Lock()
	v := a.current
	a.mu.Unlock()
	if v != nil {
		v.Wait()
	}
}

// openView returns the current view when it already is a P, and opens a
// new one otherwise. The page is (re)loaded when it is new or reload is
// set.
func openView[P view](ctx context.Context, a *App, name string, newPage func(context.Context, services.Env) P, reload bool) (P, error) {
	a.mu.Lock()
	p, ok := a.current.(P)
	a.mu.Unlock()

	if ok && !reload {
		return p, nil
	}
	if !ok {
		p = newPage(ctx, a.env)
		a.enter(name, p)
	}
	return p, p.Load(ctx)
}

var _ execIface = (*App)(nil)
