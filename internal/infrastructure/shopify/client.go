package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ledgerpay-shopify-layer/internal/domain"
	"ledgerpay-shopify-layer/internal/infrastructure/metrics"
	"ledgerpay-shopify-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Factory builds per-store Shopify clients. Credentials are bound per client
// and never cached server-side beyond the request that needed them.
type Factory struct {
	logger zerolog.Logger
}

// NewFactory creates a new Shopify client factory.
func NewFactory(logger zerolog.Logger) *Factory {
	return &Factory{logger: logger}
}

// ClientFor builds a client authenticated as the store's private app. For
// private apps the API secret doubles as the access token.
func (f *Factory) ClientFor(creds domain.ShopifyCredentials) (ports.ShopifyClient, error) {
	app := goshopify.App{
		ApiKey:   creds.APIKey,
		Password: creds.APISecret,
	}
	api, err := goshopify.NewClient(app, creds.ShopName, creds.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create shopify client: %w", err)
	}
	return &client{api: api, shop: creds.ShopName, logger: f.logger}, nil
}

type client struct {
	api    *goshopify.Client
	shop   string
	logger zerolog.Logger
}

func (c *client) GetOrder(ctx context.Context, orderID string) (*domain.ExternalOrder, error) {
	id, err := strconv.ParseUint(orderID, 10, 64)
	if err != nil {
		// Shopify order ids are numeric; anything else cannot exist.
		return nil, nil
	}

	timer := prometheus.NewTimer(metrics.ShopifyCallDuration.WithLabelValues("get_order"))
	order, err := c.api.Order.Get(ctx, id, nil)
	timer.ObserveDuration()
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, c.mapError("get order", err)
	}

	price := decimal.Zero
	if order.TotalPrice != nil {
		price = *order.TotalPrice
	}
	return &domain.ExternalOrder{
		ID:              orderID,
		FinancialStatus: string(order.FinancialStatus),
		TotalPrice:      price,
		Currency:        order.Currency,
	}, nil
}

func (c *client) OrdersCount(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(metrics.ShopifyCallDuration.WithLabelValues("orders_count"))
	count, err := c.api.Order.Count(ctx, nil)
	timer.ObserveDuration()
	if err != nil {
		return 0, c.mapError("orders count", err)
	}
	return count, nil
}

func (c *client) CheckScopes(ctx context.Context) ([]string, error) {
	timer := prometheus.NewTimer(metrics.ShopifyCallDuration.WithLabelValues("check_scopes"))
	scopes, err := c.api.AccessScopes.List(ctx, nil)
	timer.ObserveDuration()
	if err != nil {
		return nil, c.mapError("check scopes", err)
	}

	handles := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		handles = append(handles, scope.Handle)
	}
	return handles, nil
}

func (c *client) CreateScriptTag(ctx context.Context, src string) (string, error) {
	timer := prometheus.NewTimer(metrics.ShopifyCallDuration.WithLabelValues("create_script_tag"))
	tag, err := c.api.ScriptTag.Create(ctx, goshopify.ScriptTag{
		Event:        "onload",
		Src:          src,
		DisplayScope: "order_status",
	})
	timer.ObserveDuration()
	if err != nil {
		return "", c.mapError("create script tag", err)
	}
	return scriptTagID(tag), nil
}

// scriptTagID renders goshopify's numeric tag id as the string the settings
// blob stores.
func scriptTagID(tag *goshopify.ScriptTag) string {
	return strconv.FormatUint(tag.Id, 10)
}

func (c *client) DeleteScriptTag(ctx context.Context, scriptID string) error {
	id, err := strconv.ParseUint(scriptID, 10, 64)
	if err != nil {
		return domain.NewValidationError("invalid script tag id %q", scriptID)
	}

	timer := prometheus.NewTimer(metrics.ShopifyCallDuration.WithLabelValues("delete_script_tag"))
	err = c.api.ScriptTag.Delete(ctx, id)
	timer.ObserveDuration()
	if err != nil {
		return c.mapError("delete script tag", err)
	}
	return nil
}

// mapError translates goshopify failures into the domain taxonomy: rejected
// credentials are user-facing, everything else is a remote failure that must
// stay distinguishable from "not found".
func (c *client) mapError(op string, err error) error {
	switch statusOf(err) {
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden:
		c.logger.Warn().Err(err).Str("shop", c.shop).Str("operation", op).Msg("Shopify rejected credentials")
		return fmt.Errorf("%s: %w", op, domain.ErrCredentialsRejected)
	}
	return &domain.RemoteError{Op: op, Err: err}
}

// statusOf extracts the HTTP status from a goshopify response error, or 0
// for transport-level failures.
func statusOf(err error) int {
	var respErr goshopify.ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status
	}
	return 0
}
