package domain

import (
	"net/url"
	"strings"
	"time"
)

// ShopifySettings holds a store's Shopify private-app integration state. It
// lives under the "shopify" key of the store's settings blob and is always
// read and written as a whole unit.
type ShopifySettings struct {
	APIKey       string
	APISecret    string
	ShopName     string
	IntegratedAt *time.Time
	ScriptID     string
}

// CredentialsPopulated reports whether all three credential fields are set.
func (s *ShopifySettings) CredentialsPopulated() bool {
	return s != nil && s.APIKey != "" && s.APISecret != "" && s.ShopName != ""
}

// Integrated reports whether the integration has been activated.
func (s *ShopifySettings) Integrated() bool {
	return s != nil && s.IntegratedAt != nil
}

// Credentials returns the per-call API credentials for this store.
func (s *ShopifySettings) Credentials() ShopifyCredentials {
	return ShopifyCredentials{
		APIKey:    s.APIKey,
		APISecret: s.APISecret,
		ShopName:  s.ShopName,
	}
}

// ShopifyCredentials identifies a single shop's private app. They are
// attached per API call and never shared between stores.
type ShopifyCredentials struct {
	APIKey    string
	APISecret string
	ShopName  string
}

// SettingsFromExampleURL parses credentials out of a Shopify example URL of
// the form https://{apikey}:{secret}@{shop}.myshopify.com/admin/api/... as
// shown in the Shopify private app admin. A malformed URL yields a
// ValidationError and no settings.
func SettingsFromExampleURL(raw string) (*ShopifySettings, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || parsed.User == nil {
		return nil, NewValidationError("the provided example URL was invalid")
	}
	secret, ok := parsed.User.Password()
	if !ok || parsed.User.Username() == "" || secret == "" {
		return nil, NewValidationError("the provided example URL was invalid")
	}

	shop := parsed.Hostname()
	if strings.HasSuffix(strings.ToLower(shop), ".myshopify.com") {
		shop = shop[:len(shop)-len(".myshopify.com")]
	}

	return &ShopifySettings{
		APIKey:    parsed.User.Username(),
		APISecret: secret,
		ShopName:  shop,
	}, nil
}

// StoreBlob is the store's opaque settings document. Only the Shopify
// sub-document is of interest to this layer.
type StoreBlob struct {
	Shopify *ShopifySettings
}

// Store is a tenant of the payment backend. Version is an optimistic
// concurrency token bumped on every blob replace.
type Store struct {
	ID      string
	Blob    StoreBlob
	Version int64
}
