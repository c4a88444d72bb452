package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/leadconsole/internal/client/board"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/notice"
)

const maxTitle = 24

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
)

const helpText = "drag to move · r refresh · x delete · esc cancel · q quit"

func label(it models.BoardItem) string {
	title := []rune(it.Title)
	if len(title) > maxTitle {
		title = append(title[:maxTitle-1], '…')
	}
	return "[" + string(title) + "]"
}

func labelWidth(it models.BoardItem) int {
	return lipgloss.Width(label(it))
}

// View implements tea.Model.
func (model Model) View() string {
	if model.width <= 0 || model.height <= headerRows+footerRows {
		return "Loading board..."
	}

	items := model.page.Items()
	lines := make([]string, 0, model.height)
	lines = append(lines, model.renderHeader(len(items)))
	lines = append(lines, model.renderGrid(items)...)
	lines = append(lines, model.renderStatus())
	return strings.Join(lines, "\n")
}

func (model Model) renderHeader(n int) string {
	title := fmt.Sprintf("Board  %d items", n)
	if !model.page.Loaded() {
		title = "Board  loading"
	}
	return titleStyle.Render(title) + "  " + helpStyle.Render(helpText)
}

type placed struct {
	col  int
	item models.BoardItem
}

func (model Model) renderGrid(items []models.BoardItem) []string {
	gridWidth, gridHeight := model.gridSize()
	rows := make([][]placed, gridHeight)
	for _, it := range items {
		col, row := model.itemCell(it)
		rows[row-headerRows] = append(rows[row-headerRows], placed{col: col, item: it})
	}

	state, dragged := model.session.State()
	dragging := state == board.Dragging

	out := make([]string, gridHeight)
	for r, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].col < row[j].col })

		var sb strings.Builder
		cursor := 0
		for _, p := range row {
			if p.col < cursor {
				continue
			}
			text := label(p.item)
			if w := lipgloss.Width(text); p.col+w > gridWidth {
				continue
			}
			sb.WriteString(strings.Repeat(" ", p.col-cursor))

			style := lipgloss.NewStyle().Foreground(lipgloss.Color(p.item.Color))
			if p.item.ID == model.selected {
				style = style.Reverse(true)
			}
			if dragging && p.item.ID == dragged {
				style = style.Bold(true).Underline(true)
			}
			sb.WriteString(style.Render(text))
			cursor = p.col + lipgloss.Width(text)
		}
		out[r] = sb.String()
	}
	return out
}

func (model Model) renderStatus() string {
	n := model.status
	switch {
	case n.Text == "":
		return ""
	case n.Level == notice.LevelError:
		return errorStyle.Render(n.Text)
	case n.Level == notice.LevelSuccess:
		return successStyle.Render(n.Text)
	default:
		return infoStyle.Render(n.Text)
	}
}
