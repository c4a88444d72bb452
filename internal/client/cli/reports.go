package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/leadconsole/internal/client/services"
)

func (a *App) Reports(ctx context.Context) error {
	p, err := openView(ctx, a, "reports", services.NewReportsPage, true)
	if err != nil {
		return err
	}

	items := p.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No reports yet.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPERIOD\tLEADS\tBUDGET\tCPL\tQUALITY\tALERTS")
	for _, r := range items {
		period := "-"
		if !r.PeriodStart.IsZero() {
			period = r.PeriodStart.Format("2006-01-02") + " .. " + r.PeriodEnd.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.1f\t%d\n",
			r.ID, period, r.TotalLeads, r.TotalBudget, r.CostPerLead, r.AverageQuality, len(r.Alerts))
	}
	return w.Flush()
}

// GenerateReports starts the weekly report job. The list refreshes on its
// own once the reconcile delay has passed. The job does not depend on the
// listing, so a failed load does not stop it.
func (a *App) GenerateReports(ctx context.Context) error {
	p, _ := openView(ctx, a, "reports", services.NewReportsPage, false)
	_, err := p.GenerateWeekly(ctx)
	return err
}
