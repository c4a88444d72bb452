package gateway

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/leadconsole/internal/client/models"
)

// Collection is a top-level REST resource of the backend.
type Collection string

const (
	Leads   Collection = "leads"
	Board   Collection = "boussole"
	Visuals Collection = "visuals"
	Reports Collection = "reports"
)

func (c Collection) String() string { return string(c) }

// Client is the console's view of the backend. Every method makes exactly
// one request and never retries.
type Client interface {
	// List decodes GET /{c}?{query} into out.
	List(ctx context.Context, c Collection, query url.Values, out any) error

	// Get decodes GET /{segments...} into out, for endpoints that are not a
	// plain collection listing.
	Get(ctx context.Context, out any, segments ...string) error

	// Create sends POST /{c} with fields as the JSON body.
	Create(ctx context.Context, c Collection, fields any) error

	// Update sends PATCH /{c}/{id} with patch as the JSON body.
	Update(ctx context.Context, c Collection, id models.ID, patch any) error

	// Delete sends DELETE /{c}/{id}.
	Delete(ctx context.Context, c Collection, id models.ID) error

	// Invoke sends POST /{c}/{segments...} with no body, e.g. an action on
	// one record or a collection-wide job.
	Invoke(ctx context.Context, c Collection, segments ...string) error

	// Ping checks that the backend answers.
	Ping(ctx context.Context) error

	Close() error
}

// Pinger is anything that can tell whether the backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
