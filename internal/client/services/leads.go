package services

import (
	"context"

	"github.com/dmitrijs2005/leadconsole/internal/client/gateway"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
)

// LeadsPage lists captured leads. Leads are read-only in the console.
type LeadsPage struct {
	page[models.Lead]
}

func NewLeadsPage(ctx context.Context, env Env) *LeadsPage {
	return &LeadsPage{page: newPage(ctx, env, gateway.Leads, listFetch[models.Lead](env.Client, gateway.Leads, nil))}
}
