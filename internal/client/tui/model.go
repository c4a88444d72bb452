package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmitrijs2005/leadconsole/internal/client/board"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/notice"
	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
	"github.com/dmitrijs2005/leadconsole/internal/client/services"
)

// statusFadeDelay is how long a notice stays in the status bar.
const statusFadeDelay = 4 * time.Second

// Rows taken by the title bar and the status bar.
const (
	headerRows = 1
	footerRows = 1
)

type loadedMsg struct{ err error }

type settledMsg struct{ settlement reconcile.Settlement }

type noticeMsg struct{ notice notice.Notice }

type statusFadeMsg struct{ id string }

// Model is the bubbletea model of the board screen.
type Model struct {
	ctx     context.Context
	page    *services.BoardPage
	session *board.Session
	notices <-chan notice.Notice
	canvas  board.Rect

	width  int
	height int

	selected models.ID
	status   notice.Notice

	// grab is the offset between the pointer and the dragged item's
	// corner, so the item does not jump to the pointer.
	grab board.Point
}

// NewModel builds the board screen for page. canvas is the board area in
// canvas units; notices may be nil.
func NewModel(ctx context.Context, page *services.BoardPage, canvas board.Rect, notices <-chan notice.Notice) Model {
	return Model{
		ctx:     ctx,
		page:    page,
		session: page.NewDragSession(),
		notices: notices,
		canvas:  canvas,
	}
}

// Init implements tea.Model. Loads the board and starts listening for
// notices.
func (model Model) Init() tea.Cmd {
	page, ctx := model.page, model.ctx
	load := func() tea.Msg {
		return loadedMsg{err: page.Load(ctx)}
	}
	return tea.Batch(load, listenForNotice(model.notices))
}

// listenForNotice returns a tea.Cmd that blocks until a notice arrives,
// then delivers it as a noticeMsg.
func listenForNotice(channel <-chan notice.Notice) tea.Cmd {
	if channel == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-channel
		if !ok {
			return nil
		}
		return noticeMsg{notice: n}
	}
}

// waitFor returns a tea.Cmd that resolves once p has settled.
func waitFor(p *reconcile.Pending) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		s, _ := p.Wait(context.Background())
		return settledMsg{settlement: s}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)

	case tea.MouseMsg:
		command := model.handleMouse(message)
		return model, command

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height

	case noticeMsg:
		model.status = message.notice
		id := message.notice.ID
		return model, tea.Batch(
			listenForNotice(model.notices),
			tea.Tick(statusFadeDelay, func(time.Time) tea.Msg { return statusFadeMsg{id: id} }),
		)

	case statusFadeMsg:
		if model.status.ID == message.id {
			model.status = notice.Notice{}
		}

	case loadedMsg, settledMsg:
		// The store already holds the new snapshot; re-rendering is enough.
	}
	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.String() {
	case "q", "ctrl+c":
		return model, tea.Quit

	case "esc":
		if state, _ := model.session.State(); state == board.Dragging {
			p, err := model.session.Abort()
			model.grab = board.Point{}
			model.showError(err)
			return model, waitFor(p)
		}
		model.selected = ""

	case "r":
		p, err := model.page.Refresh()
		model.showError(err)
		return model, waitFor(p)

	case "x":
		if model.selected == "" {
			return model, nil
		}
		p, err := model.page.Delete(model.selected)
		model.showError(err)
		model.selected = ""
		return model, waitFor(p)
	}
	return model, nil
}

// handleMouse runs the drag session: a left press on an item picks it up,
// motion with the button held moves it, and the release drops it.
func (model *Model) handleMouse(message tea.MouseMsg) tea.Cmd {
	if model.width <= 0 || model.height <= headerRows+footerRows {
		return nil
	}
	state, _ := model.session.State()
	pointer := model.cellToPoint(message.X, message.Y)
	corner := board.Point{X: pointer.X - model.grab.X, Y: pointer.Y - model.grab.Y}

	switch message.Action {
	case tea.MouseActionPress:
		if message.Button != tea.MouseButtonLeft {
			return nil
		}
		id, ok := model.hitTest(message.X, message.Y)
		if !ok {
			model.selected = ""
			return nil
		}
		model.selected = id
		if err := model.session.Begin(id); err != nil {
			model.showError(err)
			return nil
		}
		if it, ok := model.page.Get(id); ok {
			model.grab = board.Point{X: pointer.X - (model.canvas.X + it.X), Y: pointer.Y - (model.canvas.Y + it.Y)}
		}

	case tea.MouseActionMotion:
		if state == board.Dragging && message.Button == tea.MouseButtonLeft {
			model.showError(model.session.Move(corner, model.canvas))
		}

	case tea.MouseActionRelease:
		if state != board.Dragging {
			return nil
		}
		p, err := model.session.End(corner, model.canvas)
		model.grab = board.Point{}
		model.showError(err)
		return waitFor(p)
	}
	return nil
}

// showError puts a local failure in the status bar. Remote failures
// arrive as notices.
func (model *Model) showError(err error) {
	if err != nil {
		model.status = notice.Notice{Level: notice.LevelError, Text: err.Error()}
	}
}

// gridSize is the number of cells available for the board.
func (model Model) gridSize() (int, int) {
	return model.width, model.height - headerRows - footerRows
}

// scale returns the canvas units covered by one cell.
func (model Model) scale() (float64, float64) {
	w, h := model.gridSize()
	return model.canvas.Width / float64(w), model.canvas.Height / float64(h)
}

// cellToPoint maps a terminal cell to a point in canvas space. Cells in
// the title and status bars fall outside the canvas.
func (model Model) cellToPoint(x, y int) board.Point {
	sx, sy := model.scale()
	return board.Point{
		X: model.canvas.X + float64(x)*sx,
		Y: model.canvas.Y + float64(y-headerRows)*sy,
	}
}

// itemCell returns the terminal cell of an item's top-left corner.
func (model Model) itemCell(it models.BoardItem) (int, int) {
	w, h := model.gridSize()
	sx, sy := model.scale()
	col := clamp(int(it.X/sx), 0, w-1)
	row := clamp(int(it.Y/sy), 0, h-1)
	return col, row + headerRows
}

// hitTest returns the item drawn under the cell. Items later in the
// snapshot are drawn on top and win.
func (model Model) hitTest(x, y int) (models.ID, bool) {
	items := model.page.Items()
	for i := len(items) - 1; i >= 0; i-- {
		col, row := model.itemCell(items[i])
		if row == y && x >= col && x < col+labelWidth(items[i]) {
			return items[i].ID, true
		}
	}
	return "", false
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
