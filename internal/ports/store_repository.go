package ports

import (
	"context"

	"ledgerpay-shopify-layer/internal/domain"
)

// StoreRepository persists store configuration blobs.
type StoreRepository interface {
	// FindStore retrieves a store by id. It returns (nil, nil) when the
	// store does not exist.
	FindStore(ctx context.Context, storeID string) (*domain.Store, error)

	// UpdateStore replaces the store's settings blob as a whole, guarded by
	// a compare-and-swap on the store's version token. A lost race yields
	// domain.ErrConcurrentEdit and no change. On success the store's
	// version is bumped in place.
	UpdateStore(ctx context.Context, store *domain.Store) error
}
