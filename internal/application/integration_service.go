package application

import (
	"context"
	"fmt"
	"time"

	"ledgerpay-shopify-layer/internal/domain"
	"ledgerpay-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Scopes the private app must have been granted before activation.
const (
	scopeReadOrders      = "read_orders"
	scopeWriteScriptTags = "write_script_tags"
)

// IntegrationService drives the credential lifecycle of a store's Shopify
// integration: validate, activate, deactivate. Settings are replaced as a
// whole blob under a per-store lock plus an optimistic version check, so two
// admin sessions cannot silently overwrite each other.
type IntegrationService struct {
	stores        ports.StoreRepository
	clients       ports.ShopifyClientFactory
	locks         *keyedMutex
	remoteTimeout time.Duration
	appURL        string
	logger        zerolog.Logger
}

// NewIntegrationService creates a new integration service. appURL is the
// externally reachable base URL used to build the storefront script address.
func NewIntegrationService(
	stores ports.StoreRepository,
	clients ports.ShopifyClientFactory,
	remoteTimeout time.Duration,
	appURL string,
	logger zerolog.Logger,
) *IntegrationService {
	return &IntegrationService{
		stores:        stores,
		clients:       clients,
		locks:         newKeyedMutex(),
		remoteTimeout: remoteTimeout,
		appURL:        appURL,
		logger:        logger,
	}
}

// ScriptURL returns the store-scoped address Shopify should load the
// storefront script from.
func (s *IntegrationService) ScriptURL(storeID string) string {
	return fmt.Sprintf("%s/stores/%s/integrations/shopify/shopify.js", s.appURL, storeID)
}

// Activate validates the candidate credentials against Shopify and, when
// they hold up, registers the storefront script and persists the settings
// with the activation timestamp set.
//
// Auth and scope failures abort before any state is touched; a script
// registration failure does not. Registration can be repaired later by an
// operator, while bad credentials or missing scopes mean the merchant must
// fix their private app first.
func (s *IntegrationService) Activate(ctx context.Context, storeID string, candidate *domain.ShopifySettings) error {
	if !candidate.CredentialsPopulated() {
		return domain.NewValidationError("please provide a Shopify API key, API secret and shop name")
	}

	client, err := s.clients.ClientFor(candidate.Credentials())
	if err != nil {
		return fmt.Errorf("failed to create shopify client: %w", err)
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	if _, err := client.OrdersCount(remoteCtx); err != nil {
		return err
	}

	scopes, err := client.CheckScopes(remoteCtx)
	if err != nil {
		return err
	}
	granted := make(map[string]bool, len(scopes))
	for _, scope := range scopes {
		granted[scope] = true
	}
	if !granted[scopeReadOrders] || !granted[scopeWriteScriptTags] {
		return domain.ErrScopesInsufficient
	}

	scriptID, err := client.CreateScriptTag(remoteCtx, s.ScriptURL(storeID))
	if err != nil {
		// Non-fatal: activation proceeds, the operator registers the
		// script manually.
		s.logger.Warn().
			Err(err).
			Str("storeId", storeID).
			Msg("Failed to register Shopify script tag, leaving script id unset")
		scriptID = ""
	}
	candidate.ScriptID = scriptID

	now := time.Now()
	candidate.IntegratedAt = &now

	s.locks.Lock(storeID)
	defer s.locks.Unlock(storeID)

	store, err := s.stores.FindStore(ctx, storeID)
	if err != nil {
		return fmt.Errorf("failed to find store: %w", err)
	}
	if store == nil {
		return domain.ErrNotFound
	}

	store.Blob.Shopify = candidate
	if err := s.stores.UpdateStore(ctx, store); err != nil {
		return err
	}

	s.logger.Info().
		Str("storeId", storeID).
		Str("shop", candidate.ShopName).
		Bool("scriptRegistered", scriptID != "").
		Msg("Shopify integration activated")
	return nil
}

// Deactivate clears the store's Shopify settings. The registered script tag
// is removed best-effort first; a failure there is logged and swallowed,
// deactivation always completes.
func (s *IntegrationService) Deactivate(ctx context.Context, storeID string) error {
	s.locks.Lock(storeID)
	defer s.locks.Unlock(storeID)

	store, err := s.stores.FindStore(ctx, storeID)
	if err != nil {
		return fmt.Errorf("failed to find store: %w", err)
	}
	if store == nil {
		return domain.ErrNotFound
	}

	settings := store.Blob.Shopify
	if settings.Integrated() && settings.ScriptID != "" {
		s.removeScriptTag(ctx, storeID, settings)
	}

	store.Blob.Shopify = nil
	if err := s.stores.UpdateStore(ctx, store); err != nil {
		return err
	}

	s.logger.Info().Str("storeId", storeID).Msg("Shopify integration cleared")
	return nil
}

func (s *IntegrationService) removeScriptTag(ctx context.Context, storeID string, settings *domain.ShopifySettings) {
	client, err := s.clients.ClientFor(settings.Credentials())
	if err != nil {
		s.logger.Warn().Err(err).Str("storeId", storeID).Msg("Skipping Shopify script tag removal")
		return
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	if err := client.DeleteScriptTag(remoteCtx, settings.ScriptID); err != nil {
		s.logger.Warn().
			Err(err).
			Str("storeId", storeID).
			Str("scriptId", settings.ScriptID).
			Msg("Failed to remove Shopify script tag, continuing with deactivation")
	}
}

// SettingsView is the integration state exposed to the configuration UI.
// The API secret is never included.
type SettingsView struct {
	APIKey       string     `json:"apiKey,omitempty"`
	ShopName     string     `json:"shopName,omitempty"`
	Integrated   bool       `json:"integrated"`
	IntegratedAt *time.Time `json:"integratedAt,omitempty"`
	ScriptID     string     `json:"scriptId,omitempty"`
}

// Settings returns the store's current integration state.
func (s *IntegrationService) Settings(ctx context.Context, storeID string) (*SettingsView, error) {
	store, err := s.stores.FindStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find store: %w", err)
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}

	settings := store.Blob.Shopify
	if settings == nil {
		return &SettingsView{}, nil
	}
	return &SettingsView{
		APIKey:       settings.APIKey,
		ShopName:     settings.ShopName,
		Integrated:   settings.Integrated(),
		IntegratedAt: settings.IntegratedAt,
		ScriptID:     settings.ScriptID,
	}, nil
}
