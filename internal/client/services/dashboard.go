package services

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/leadconsole/internal/client/gateway"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/notice"
	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
)

// RecentReports is how many reports the dashboard looks at for alerts.
const RecentReports = 5

// Summary is what the dashboard shows.
type Summary struct {
	Stats  models.LeadStats
	Alerts []string
}

// Dashboard aggregates lead statistics and the alerts of recent reports.
type Dashboard struct {
	env Env
}

func NewDashboard(env Env) *Dashboard {
	return &Dashboard{env: env.withDefaults()}
}

// Load fetches both sources concurrently. If either fails, nothing is
// returned and a fetch notice is raised.
func (d *Dashboard) Load(ctx context.Context) (Summary, error) {
	var (
		stats   models.LeadStats
		reports []models.Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.env.Client.Get(gctx, &stats, gateway.Leads.String(), "stats", "summary")
	})
	g.Go(func() error {
		q := url.Values{"limit": {fmt.Sprint(RecentReports)}}
		return d.env.Client.List(gctx, gateway.Reports, q, &reports)
	})
	if err := g.Wait(); err != nil {
		ff := &reconcile.FetchFailure{Collection: "dashboard", Err: err}
		d.env.Logger.Warn(ctx, "dashboard load failed", "error", err)
		d.env.Notices.Notify(notice.Error(notice.ClassFetchFailure, fmt.Sprintf("Could not load dashboard: %v", err)))
		return Summary{}, ff
	}

	s := Summary{Stats: stats, Alerts: []string{}}
	for _, r := range reports {
		s.Alerts = append(s.Alerts, r.Alerts...)
	}
	return s, nil
}
