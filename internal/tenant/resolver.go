// Package tenant resolves widget-token slugs to tenant records.
package tenant

import (
	"context"

	"reserva/internal/database"
	"reserva/internal/models"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned for missing and inactive tenants alike; the two
// cases are not distinguished externally.
var ErrNotFound = database.ErrTenantNotFound

// Store is the lookup the resolver needs from the backing store.
type Store interface {
	GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error)
}

// Resolver maps a slug to an active tenant. The resolved id always overrides
// any tenant identifier the caller supplied, so a valid token for tenant A
// can never act on tenant B.
type Resolver struct {
	store  Store
	logger zerolog.Logger
}

func NewResolver(store Store, logger zerolog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger.With().Str("component", "tenant").Logger(),
	}
}

// Resolve returns the active tenant for slug, or ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, slug string) (*models.Tenant, error) {
	t, err := r.store.GetTenantBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("slug", slug).Str("tenant_id", t.ID).Msg("tenant resolved")
	return t, nil
}
