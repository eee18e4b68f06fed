package ports

import (
	"context"

	"ledgerpay-shopify-layer/internal/domain"
)

// ShopifyClient is the narrow surface of the Shopify Admin API this layer
// consumes. Credentials are bound at construction and every call is a
// synchronous remote call; the context bounds its lifetime.
type ShopifyClient interface {
	// GetOrder fetches an order by id. It returns (nil, nil) when the order
	// does not exist, and a *domain.RemoteError on transport failures.
	GetOrder(ctx context.Context, orderID string) (*domain.ExternalOrder, error)

	// OrdersCount is used purely as an authentication probe: an invalid key
	// or secret yields domain.ErrCredentialsRejected.
	OrdersCount(ctx context.Context) (int, error)

	// CheckScopes returns the permission handles granted to the private app.
	CheckScopes(ctx context.Context) ([]string, error)

	// CreateScriptTag registers a storefront script tag pointing at src and
	// returns the registration id.
	CreateScriptTag(ctx context.Context, src string) (string, error)

	// DeleteScriptTag removes a previously registered script tag.
	DeleteScriptTag(ctx context.Context, scriptID string) error
}

// ShopifyClientFactory builds a client bound to one store's credentials.
// Clients are constructed per call chain and never cached across stores.
type ShopifyClientFactory interface {
	ClientFor(creds domain.ShopifyCredentials) (ShopifyClient, error)
}
