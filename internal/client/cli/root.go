package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/leadconsole/internal/client/notice"
)

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var parts []string
	if a.viewName != "" {
		parts = append(parts, a.viewName)
	}
	if a.mode != "" {
		parts = append(parts, string(a.mode))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Root runs the console until the operator exits or ctx is done. Notices
// are printed as they arrive; the backend is pinged every onlineInterval.
func (a *App) Root(ctx context.Context, onlineInterval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to the lead console (type 'help' for commands)")

	if a.notices != nil {
		ch, unsubscribe := a.notices.Subscribe(32)
		defer unsubscribe()
		go func() {
			for n := range ch {
				fmt.Fprintln(a.out, formatNotice(n))
			}
		}()
	}

	go a.StartOnlineStatusWatcher(ctx, onlineInterval)

	runREPL(ctx, a, a.getStatus, a.in)
	a.Leave()
}

func formatNotice(n notice.Notice) string {
	switch n.Level {
	case notice.LevelError:
		return fmt.Sprintf("! [%s] %s", n.Class, n.Text)
	case notice.LevelSuccess:
		return "+ " + n.Text
	default:
		return "* " + n.Text
	}
}

// syncWriter serializes writes from the REPL and the notice printer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
