package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/leadconsole/internal/client/services"
)

var (
	ErrExportDisabled  = errors.New("export is not configured")
	ErrJournalDisabled = errors.New("journal is disabled")
)

const historyLimit = 20

// Export writes a fresh snapshot of the named collection through the
// configured exporter.
func (a *App) Export(ctx context.Context, collection string) error {
	if a.exporter == nil {
		fmt.Fprintln(a.out, "Error:", ErrExportDisabled)
		return ErrExportDisabled
	}
	coll, err := services.ParseCollection(collection)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	res, err := services.ExportCollection(ctx, a.env.Client, a.exporter, coll)
	if err != nil {
		a.logger.Error(ctx, "export failed", "collection", coll, "error", err)
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	enc := ""
	if res.Encrypted {
		enc = ", encrypted"
	}
	fmt.Fprintf(a.out, "Exported %s to %s (%d bytes%s)\n", coll, res.Key, res.Size, enc)
	return nil
}

func (a *App) Journal(ctx context.Context) error {
	if a.journal == nil {
		fmt.Fprintln(a.out, "Error:", ErrJournalDisabled)
		return ErrJournalDisabled
	}
	entries, err := a.journal.Recent(ctx, historyLimit)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	sum, err := a.journal.Summarize(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	fmt.Fprintf(a.out, "Mutations: %d accepted, %d failed\n", sum.Accepted, sum.Failed)
	if len(entries) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AT\tCOLLECTION\tKIND\tID\tOUTCOME\tERROR")
	for _, e := range entries {
		entity, msg := e.EntityID, e.Error
		if entity == "" {
			entity = "-"
		}
		if msg == "" {
			msg = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.At.Local().Format("2006-01-02 15:04:05"), e.Collection, e.Kind, entity, e.Outcome, msg)
	}
	return w.Flush()
}

func (a *App) Notices(ctx context.Context) error {
	if a.notices == nil {
		return nil
	}
	recent := a.notices.Recent(historyLimit)
	if len(recent) == 0 {
		fmt.Fprintln(a.out, "No notices.")
		return nil
	}
	for _, n := range recent {
		fmt.Fprintf(a.out, "%s %s\n", n.At.Local().Format("15:04:05"), formatNotice(n))
	}
	return nil
}
