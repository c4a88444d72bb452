package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
	"github.com/dmitrijs2005/leadconsole/internal/client/services"
)

func (a *App) Visuals(ctx context.Context) error {
	p, err := openView(ctx, a, "visuals", services.NewVisualsPage, true)
	if err != nil {
		return err
	}

	items := p.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No visuals.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tACTION\tIMAGE")
	for _, v := range items {
		action := "-"
		if act, ok := p.Action(v.ID); ok {
			action = string(act)
		} else if p.InFlight(v.ID) {
			action = "(pending)"
		}
		image := models.Deref(v.ImagePath)
		if image == "" {
			image = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Title, v.Status, action, image)
	}
	return w.Flush()
}

func (a *App) AddVisual(ctx context.Context) error {
	p, err := openView(ctx, a, "visuals", services.NewVisualsPage, false)
	if err != nil {
		return err
	}

	title, err := GetSimpleText(a.in, "Title", a.out)
	if err != nil {
		return err
	}
	subtitle, err := GetSimpleText(a.in, "Subtitle (optional)", a.out)
	if err != nil {
		return err
	}
	description, err := GetMultiline(a.in, "Description (optional)", a.out)
	if err != nil {
		return err
	}

	_, err = p.Create(models.NewVisual{
		Title:       title,
		Subtitle:    models.Ptr(subtitle),
		Description: models.Ptr(description),
	})
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintf(a.out, "Adding %q...\n", title)
	return nil
}

func (a *App) Approve(ctx context.Context, id string) error {
	return a.transition(ctx, id, "Approving", (*services.VisualsPage).Approve)
}

func (a *App) Generate(ctx context.Context, id string) error {
	return a.transition(ctx, id, "Generating", (*services.VisualsPage).Generate)
}

func (a *App) transition(ctx context.Context, id, verb string, do func(*services.VisualsPage, models.ID) (*reconcile.Pending, error)) error {
	p, err := openView(ctx, a, "visuals", services.NewVisualsPage, false)
	if err != nil {
		return err
	}
	if _, err := do(p, models.ID(id)); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintf(a.out, "%s %s...\n", verb, id)
	return nil
}
