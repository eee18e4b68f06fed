package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledgerpay-shopify-layer/internal/domain"
	"ledgerpay-shopify-layer/internal/ports"
)

type fakeInvoiceStore struct {
	mu        sync.Mutex
	invoices  []*domain.Invoice
	queryErr  error
	createErr error
	created   int
}

func (f *fakeInvoiceStore) Query(ctx context.Context, q ports.InvoiceQuery) ([]*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var matched []*domain.Invoice
	for _, invoice := range f.invoices {
		if containsString(q.StoreIDs, invoice.StoreID) && containsString(q.OrderIDs, invoice.OrderID) {
			matched = append(matched, invoice)
		}
	}
	return matched, nil
}

func (f *fakeInvoiceStore) Create(ctx context.Context, req ports.CreateInvoiceRequest) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	invoice := &domain.Invoice{
		ID:           fmt.Sprintf("inv-%d", f.created),
		StoreID:      req.StoreID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       domain.InvoiceStatusNew,
		OrderID:      req.OrderID,
		Metadata:     req.Metadata,
		InternalTags: req.InternalTags,
		CreatedAt:    time.Now(),
	}
	f.invoices = append(f.invoices, invoice)
	return invoice, nil
}

func containsString(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

type fakeStoreRepository struct {
	mu        sync.Mutex
	stores    map[string]*domain.Store
	findErr   error
	updateErr error
	updates   int
}

func newFakeStoreRepository(stores ...*domain.Store) *fakeStoreRepository {
	repo := &fakeStoreRepository{stores: make(map[string]*domain.Store)}
	for _, store := range stores {
		repo.stores[store.ID] = store
	}
	return repo
}

func (f *fakeStoreRepository) FindStore(ctx context.Context, storeID string) (*domain.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	store, ok := f.stores[storeID]
	if !ok {
		return nil, nil
	}
	copied := *store
	return &copied, nil
}

func (f *fakeStoreRepository) UpdateStore(ctx context.Context, store *domain.Store) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	current, ok := f.stores[store.ID]
	if !ok || current.Version != store.Version {
		return domain.ErrConcurrentEdit
	}
	f.updates++
	updated := *store
	updated.Version++
	f.stores[store.ID] = &updated
	store.Version++
	return nil
}

type fakeShopifyClient struct {
	mu sync.Mutex

	order    *domain.ExternalOrder
	orderErr error

	ordersCount int
	countErr    error

	scopes    []string
	scopesErr error

	scriptID  string
	scriptErr error
	scriptSrc string

	deleteErr error
	deleted   []string

	getOrderCalls int
	countCalls    int
	scopesCalls   int
	createCalls   int
}

func (f *fakeShopifyClient) GetOrder(ctx context.Context, orderID string) (*domain.ExternalOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getOrderCalls++
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return f.order, nil
}

func (f *fakeShopifyClient) OrdersCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.ordersCount, nil
}

func (f *fakeShopifyClient) CheckScopes(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopesCalls++
	if f.scopesErr != nil {
		return nil, f.scopesErr
	}
	return f.scopes, nil
}

func (f *fakeShopifyClient) CreateScriptTag(ctx context.Context, src string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.scriptSrc = src
	if f.scriptErr != nil {
		return "", f.scriptErr
	}
	return f.scriptID, nil
}

func (f *fakeShopifyClient) DeleteScriptTag(ctx context.Context, scriptID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, scriptID)
	return f.deleteErr
}

type fakeClientFactory struct {
	mu     sync.Mutex
	client ports.ShopifyClient
	err    error
	made   int
}

func (f *fakeClientFactory) ClientFor(creds domain.ShopifyCredentials) (ports.ShopifyClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.made++
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func integratedStore(id string) *domain.Store {
	now := time.Now()
	return &domain.Store{
		ID:      id,
		Version: 1,
		Blob: domain.StoreBlob{
			Shopify: &domain.ShopifySettings{
				APIKey:       "key",
				APISecret:    "secret",
				ShopName:     "testshop",
				IntegratedAt: &now,
			},
		},
	}
}
