package services

import (
	"context"

	"github.com/dmitrijs2005/leadconsole/internal/client/gateway"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
)

const weeklyJob = "weekly reports"

// ReportsPage lists weekly reports and starts their generation.
type ReportsPage struct {
	page[models.Report]
	weekly *reconcile.DelayedTrigger
}

func NewReportsPage(ctx context.Context, env Env) *ReportsPage {
	p := &ReportsPage{page: newPage(ctx, env, gateway.Reports, listFetch[models.Report](env.Client, gateway.Reports, nil))}
	p.weekly = &reconcile.DelayedTrigger{
		Job:   weeklyJob,
		Delay: p.env.ReportsDelay,
		Start: func(ctx context.Context) error {
			return p.env.Client.Invoke(ctx, gateway.Reports, "weekly", "all")
		},
		Reconcile: p.ctrl.Reconcile,
		Started:   "Weekly report generation started",
		Clock:     p.env.Clock,
		Scope:     p.scope,
		Notices:   p.env.Notices,
		Logger:    p.env.Logger,
		Recorder:  p.env.Recorder,
	}
	return p
}

// GenerateWeekly starts the weekly report job for all clients. When the
// backend accepts it the list is re-fetched once after the configured
// delay, whether or not the job has finished by then.
func (p *ReportsPage) GenerateWeekly(ctx context.Context) (*reconcile.Scheduled, error) {
	return p.weekly.Fire(ctx)
}
