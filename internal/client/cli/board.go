package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/leadconsole/internal/client/board"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/services"
)

func (a *App) Board(ctx context.Context) error {
	p, err := openView(ctx, a, "board", services.NewBoardPage, true)
	if err != nil {
		return err
	}

	items := p.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "The board is empty.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tCOLOR\tX\tY")
	for _, it := range items {
		category := models.Deref(it.Category)
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f\t%.0f\n", it.ID, it.Title, category, it.Color, it.X, it.Y)
	}
	return w.Flush()
}

func (a *App) AddBoardItem(ctx context.Context) error {
	p, err := openView(ctx, a, "board", services.NewBoardPage, false)
	if err != nil {
		return err
	}

	title, err := GetSimpleText(a.in, "Title", a.out)
	if err != nil {
		return err
	}
	description, err := GetSimpleText(a.in, "Description (optional)", a.out)
	if err != nil {
		return err
	}
	category, err := GetSimpleText(a.in, "Category (optional)", a.out)
	if err != nil {
		return err
	}
	color, err := GetSimpleText(a.in, "Color (default "+services.DefaultItemColor+")", a.out)
	if err != nil {
		return err
	}

	_, err = p.Create(models.NewBoardItem{
		Title:       title,
		Description: models.Ptr(description),
		Category:    models.Ptr(category),
		Color:       color,
	})
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintf(a.out, "Adding %q...\n", title)
	return nil
}

// RemoveBoardItem deletes an item after the operator confirms.
func (a *App) RemoveBoardItem(ctx context.Context, id string) error {
	p, err := openView(ctx, a, "board", services.NewBoardPage, false)
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf("Delete item %s?", id)
	if it, ok := p.Get(models.ID(id)); ok {
		prompt = fmt.Sprintf("Delete item %s %q?", id, it.Title)
	}
	ok, err := Confirm(a.in, prompt, a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if _, err := p.Delete(models.ID(id)); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintf(a.out, "Deleting %s...\n", id)
	return nil
}

// Move drags an item to canvas coordinates (x, y) and drops it there.
// A drop outside the canvas cancels the move.
func (a *App) Move(ctx context.Context, id, x, y string) error {
	px, err := strconv.ParseFloat(x, 64)
	if err != nil {
		fmt.Fprintln(a.out, "Error: invalid x:", x)
		return err
	}
	py, err := strconv.ParseFloat(y, 64)
	if err != nil {
		fmt.Fprintln(a.out, "Error: invalid y:", y)
		return err
	}

	p, err := openView(ctx, a, "board", services.NewBoardPage, false)
	if err != nil {
		return err
	}

	sess := p.NewDragSession()
	if err := sess.Begin(models.ID(id)); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	drop := board.Point{X: a.canvas.X + px, Y: a.canvas.Y + py}
	if _, err := sess.End(drop, a.canvas); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	if !a.canvas.Contains(drop) {
		fmt.Fprintf(a.out, "(%s, %s) is outside the %.0fx%.0f canvas, move cancelled.\n", x, y, a.canvas.Width, a.canvas.Height)
		return nil
	}
	fmt.Fprintf(a.out, "Moved %s to (%.0f, %.0f).\n", id, px, py)
	return nil
}
