package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ledgerpay-shopify-layer/internal/application"
	"ledgerpay-shopify-layer/internal/domain"
	"ledgerpay-shopify-layer/internal/infrastructure/metrics"
	"ledgerpay-shopify-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInvoiceStore struct {
	invoices []*domain.Invoice
	queryErr error
	created  int
}

func (s *stubInvoiceStore) Query(ctx context.Context, q ports.InvoiceQuery) ([]*domain.Invoice, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.invoices, nil
}

func (s *stubInvoiceStore) Create(ctx context.Context, req ports.CreateInvoiceRequest) (*domain.Invoice, error) {
	s.created++
	return &domain.Invoice{
		ID:       "inv-1",
		StoreID:  req.StoreID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   domain.InvoiceStatusNew,
		OrderID:  req.OrderID,
	}, nil
}

type stubStoreRepository struct {
	store *domain.Store
}

func (s *stubStoreRepository) FindStore(ctx context.Context, storeID string) (*domain.Store, error) {
	if s.store == nil || s.store.ID != storeID {
		return nil, nil
	}
	copied := *s.store
	return &copied, nil
}

func (s *stubStoreRepository) UpdateStore(ctx context.Context, store *domain.Store) error {
	store.Version++
	s.store = store
	return nil
}

type stubShopifyClient struct {
	order    *domain.ExternalOrder
	orderErr error
	scopes   []string
	scriptID string
}

func (s *stubShopifyClient) GetOrder(ctx context.Context, orderID string) (*domain.ExternalOrder, error) {
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	return s.order, nil
}

func (s *stubShopifyClient) OrdersCount(ctx context.Context) (int, error) { return 0, nil }

func (s *stubShopifyClient) CheckScopes(ctx context.Context) ([]string, error) {
	return s.scopes, nil
}

func (s *stubShopifyClient) CreateScriptTag(ctx context.Context, src string) (string, error) {
	return s.scriptID, nil
}

func (s *stubShopifyClient) DeleteScriptTag(ctx context.Context, scriptID string) error { return nil }

type stubClientFactory struct {
	client ports.ShopifyClient
}

func (s *stubClientFactory) ClientFor(creds domain.ShopifyCredentials) (ports.ShopifyClient, error) {
	return s.client, nil
}

type handlerFixture struct {
	invoices *stubInvoiceStore
	stores   *stubStoreRepository
	client   *stubShopifyClient
	router   chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	now := time.Now()
	fixture := &handlerFixture{
		invoices: &stubInvoiceStore{},
		stores: &stubStoreRepository{store: &domain.Store{
			ID:      "store-1",
			Version: 1,
			Blob: domain.StoreBlob{Shopify: &domain.ShopifySettings{
				APIKey:       "key",
				APISecret:    "secret",
				ShopName:     "testshop",
				IntegratedAt: &now,
			}},
		}},
		client: &stubShopifyClient{
			scopes:   []string{"read_orders", "write_script_tags"},
			scriptID: "9001",
		},
	}
	factory := &stubClientFactory{client: fixture.client}
	logger := zerolog.Nop()

	scriptDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, "bundle.js"), []byte("console.log('hi');"), 0o644))

	handler := NewIntegrationHandler(
		application.NewReconciliationService(fixture.invoices, fixture.stores, factory, time.Second, logger),
		application.NewIntegrationService(fixture.stores, factory, time.Second, "https://pay.example.com", logger),
		application.NewScriptService(scriptDir, []string{"bundle.js"}, "https://pay.example.com", false, logger),
		logger,
	)

	r := chi.NewRouter()
	r.Route("/stores/{storeID}/integrations/shopify", func(r chi.Router) {
		r.Get("/", handler.GetSettings)
		r.Post("/", handler.SaveSettings)
		r.Get("/shopify.js", handler.Script)
		r.Get("/{orderID}", handler.ReconcileOrder)
	})
	fixture.router = r
	return fixture
}

func (f *handlerFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthReportsOK(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReconcileOrderReturnsInvoice(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.client.order = &domain.ExternalOrder{
		ID:              "1001",
		FinancialStatus: domain.FinancialStatusPending,
		TotalPrice:      decimal.RequireFromString("25.00"),
		Currency:        "USD",
	}

	rec := fixture.do(t, http.MethodGet, "/stores/store-1/integrations/shopify/1001", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var result application.ReconcileResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "inv-1", result.InvoiceID)
	assert.Equal(t, "new", result.Status)
}

func TestReconcileOrderMetricSplitsCreatedFromMatched(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.client.order = &domain.ExternalOrder{
		ID:              "1001",
		FinancialStatus: domain.FinancialStatusPending,
		TotalPrice:      decimal.RequireFromString("25.00"),
		Currency:        "USD",
	}

	created := metrics.ReconcileOutcomes.WithLabelValues("created")
	matched := metrics.ReconcileOutcomes.WithLabelValues("matched")
	createdBefore := testutil.ToFloat64(created)
	matchedBefore := testutil.ToFloat64(matched)

	rec := fixture.do(t, http.MethodGet, "/stores/store-1/integrations/shopify/1001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, createdBefore+1, testutil.ToFloat64(created))
	assert.Equal(t, matchedBefore, testutil.ToFloat64(matched))

	marker := domain.OrderMarkerTag("1001")
	fixture.invoices.invoices = []*domain.Invoice{{
		ID:           "inv-1",
		StoreID:      "store-1",
		OrderID:      marker,
		Status:       domain.InvoiceStatusNew,
		InternalTags: []string{marker},
	}}

	rec = fixture.do(t, http.MethodGet, "/stores/store-1/integrations/shopify/1001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, createdBefore+1, testutil.ToFloat64(created))
	assert.Equal(t, matchedBefore+1, testutil.ToFloat64(matched))
}

func TestReconcileOrderCheckOnlyReturnsEmptyObject(t *testing.T) {
	fixture := newHandlerFixture(t)

	rec := fixture.do(t, http.MethodGet, "/stores/store-1/integrations/shopify/1001?checkOnly=true", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "{}", rec.Body.String())
	assert.Equal(t, 0, fixture.invoices.created)
}

func TestReconcileOrderMissingOrderReturns404(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.client.order = nil

	rec := fixture.do(t, http.MethodGet, "/stores/store-1/integrations/shopify/1001", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconcileOrderRemoteFailureReturns502(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.client.orderErr = &domain.RemoteError{Op: "get order", Err: errors.New("connection refused")}

	rec := fixture.do(t, http.MethodGet, "/stores/store-1/integrations/shopify/1001", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestReconcileOrderStoreFailureReturns500(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.invoices.queryErr = errors.New("connection reset")

	rec := fixture.do(t, http.MethodGet, "/stores/store-1/integrations/shopify/1001", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestScriptServedAsJavascript(t *testing.T) {
	fixture := newHandlerFixture(t)

	rec := fixture.do(t, http.MethodGet, "/stores/store-1/integrations/shopify/shopify.js", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/javascript; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `var STORE_ID = "store-1";`)
	assert.Contains(t, rec.Body.String(), "console.log('hi');")
}

func TestGetSettingsOmitsSecret(t *testing.T) {
	fixture := newHandlerFixture(t)

	rec := fixture.do(t, http.MethodGet, "/stores/store-1/integrations/shopify", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"apiKey":"key"`)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestGetSettingsUnknownStoreReturns404(t *testing.T) {
	fixture := newHandlerFixture(t)

	rec := fixture.do(t, http.MethodGet, "/stores/missing/integrations/shopify", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveSettingsActivates(t *testing.T) {
	fixture := newHandlerFixture(t)

	body := `{"command":"ShopifySaveCredentials","apiKey":"k2","apiSecret":"s2","shopName":"othershop"}`
	rec := fixture.do(t, http.MethodPost, "/stores/store-1/integrations/shopify", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Message  string                    `json:"message"`
		Settings *application.SettingsView `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Shopify integration successfully updated", resp.Message)
	require.NotNil(t, resp.Settings)
	assert.True(t, resp.Settings.Integrated)
	assert.Equal(t, "othershop", resp.Settings.ShopName)
}

func TestSaveSettingsFromExampleURL(t *testing.T) {
	fixture := newHandlerFixture(t)

	body := `{"exampleUrl":"https://k3:s3@newshop.myshopify.com/admin/api/2023-07/orders.json"}`
	rec := fixture.do(t, http.MethodPost, "/stores/store-1/integrations/shopify", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"shopName":"newshop"`)
}

func TestSaveSettingsMalformedExampleURLReturns422(t *testing.T) {
	fixture := newHandlerFixture(t)

	body := `{"exampleUrl":"not-a-url"}`
	rec := fixture.do(t, http.MethodPost, "/stores/store-1/integrations/shopify", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "the provided example URL was invalid")
}

func TestSaveSettingsIncompleteCredentialsReturns422(t *testing.T) {
	fixture := newHandlerFixture(t)

	body := `{"command":"ShopifySaveCredentials","apiKey":"k2"}`
	rec := fixture.do(t, http.MethodPost, "/stores/store-1/integrations/shopify", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSaveSettingsClearsCredentials(t *testing.T) {
	fixture := newHandlerFixture(t)

	body := `{"command":"ShopifyClearCredentials"}`
	rec := fixture.do(t, http.MethodPost, "/stores/store-1/integrations/shopify", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "credentials cleared")
	assert.Nil(t, fixture.stores.store.Blob.Shopify)
}

func TestSaveSettingsUnknownCommandReturns400(t *testing.T) {
	fixture := newHandlerFixture(t)

	body := `{"command":"ShopifyDoSomethingElse"}`
	rec := fixture.do(t, http.MethodPost, "/stores/store-1/integrations/shopify", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveSettingsMalformedBodyReturns400(t *testing.T) {
	fixture := newHandlerFixture(t)

	rec := fixture.do(t, http.MethodPost, "/stores/store-1/integrations/shopify", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
