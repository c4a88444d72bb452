package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/leadconsole/internal/client/services"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func (a *App) Leads(ctx context.Context) error {
	p, err := openView(ctx, a, "leads", services.NewLeadsPage, true)
	if err != nil {
		return err
	}

	items := p.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No leads.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tSMS\tWHATSAPP\tCREATED")
	for _, l := range items {
		created := "-"
		if !l.CreatedAt.IsZero() {
			created = l.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.DisplayName(), l.Phone, yesNo(l.SMSSent), yesNo(l.WhatsAppSent), created)
	}
	return w.Flush()
}

// Stats prints the lead totals and the alerts of the most recent reports.
func (a *App) Stats(ctx context.Context) error {
	a.enter("stats", nil)

	s, err := services.NewDashboard(a.env).Load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Leads: %d  SMS sent: %d  WhatsApp sent: %d  Avg quality: %.1f\n",
		s.Stats.Total, s.Stats.SMSSent, s.Stats.WhatsAppSent, s.Stats.AverageQuality)
	if len(s.Alerts) == 0 {
		fmt.Fprintln(a.out, "No alerts.")
		return nil
	}
	fmt.Fprintln(a.out, "Alerts:")
	for _, al := range s.Alerts {
		fmt.Fprintln(a.out, "  - "+al)
	}
	return nil
}
