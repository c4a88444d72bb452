package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/leadconsole/internal/client/archive"
	"github.com/dmitrijs2005/leadconsole/internal/client/gateway"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
)

var ErrUnknownCollection = errors.New("unknown collection")

// Exporter stores a snapshot. *archive.Exporter implements it.
type Exporter interface {
	Export(ctx context.Context, collection string, snapshot any) (archive.Result, error)
}

// ParseCollection maps an operator-typed name to a collection. "board" is
// accepted for the board collection.
func ParseCollection(name string) (gateway.Collection, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "leads":
		return gateway.Leads, nil
	case "board", "boussole":
		return gateway.Board, nil
	case "visuals":
		return gateway.Visuals, nil
	case "reports":
		return gateway.Reports, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCollection, name)
}

// ExportCollection fetches a fresh snapshot of coll and exports it. The
// snapshot is decoded into the console's models first, so the export only
// holds fields the console knows about.
func ExportCollection(ctx context.Context, c gateway.Client, ex Exporter, coll gateway.Collection) (archive.Result, error) {
	var (
		snap any
		err  error
	)
	switch coll {
	case gateway.Leads:
		snap, err = listFetch[models.Lead](c, coll, nil)(ctx)
	case gateway.Board:
		snap, err = listFetch[models.BoardItem](c, coll, nil)(ctx)
	case gateway.Visuals:
		snap, err = listFetch[models.Visual](c, coll, nil)(ctx)
	case gateway.Reports:
		snap, err = listFetch[models.Report](c, coll, nil)(ctx)
	default:
		return archive.Result{}, fmt.Errorf("%w: %q", ErrUnknownCollection, coll)
	}
	if err != nil {
		return archive.Result{}, fmt.Errorf("fetching %s: %w", coll, err)
	}
	return ex.Export(ctx, coll.String(), snap)
}
