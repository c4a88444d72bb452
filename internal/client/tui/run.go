package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmitrijs2005/leadconsole/internal/client/board"
	"github.com/dmitrijs2005/leadconsole/internal/client/notice"
	"github.com/dmitrijs2005/leadconsole/internal/client/services"
)

// Run opens a board page and shows it until the operator quits or ctx is
// done. The page is closed on return, so results still in flight are
// dropped.
func Run(ctx context.Context, env services.Env, notices *notice.Center, canvas board.Rect) error {
	page := services.NewBoardPage(ctx, env)
	defer page.Close()

	var ch <-chan notice.Notice
	if notices != nil {
		sub, unsubscribe := notices.Subscribe(16)
		defer unsubscribe()
		ch = sub
	}

	model := NewModel(ctx, page, canvas, ch)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
