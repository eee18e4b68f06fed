package application

import (
	"context"
	"fmt"
	"time"

	"ledgerpay-shopify-layer/internal/domain"
	"ledgerpay-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ReconcileResult reports the invoice matched or created for a Shopify order.
// Created distinguishes a fresh invoice from an existing match for callers
// tracking creation rates; it is not part of the response body.
type ReconcileResult struct {
	InvoiceID string `json:"invoiceId"`
	Status    string `json:"status"`
	Created   bool   `json:"-"`
}

// ReconciliationService finds or creates the ledgerpay invoice matching a
// Shopify order, enforcing the at-most-one-active-invoice invariant through
// a lookup-before-create protocol serialized per (store, order) pair.
type ReconciliationService struct {
	invoices      ports.InvoiceStore
	stores        ports.StoreRepository
	clients       ports.ShopifyClientFactory
	locks         *keyedMutex
	remoteTimeout time.Duration
	logger        zerolog.Logger
}

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(
	invoices ports.InvoiceStore,
	stores ports.StoreRepository,
	clients ports.ShopifyClientFactory,
	remoteTimeout time.Duration,
	logger zerolog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		invoices:      invoices,
		stores:        stores,
		clients:       clients,
		locks:         newKeyedMutex(),
		remoteTimeout: remoteTimeout,
		logger:        logger,
	}
}

// Reconcile resolves a Shopify order id to an invoice.
//
// The outcome is one of:
//   - (*ReconcileResult, nil): a matching invoice exists or was created
//   - (nil, nil): checkOnly was set and no invoice exists yet
//   - (nil, domain.ErrNotFound): no invoice, and none may be created
//   - (nil, err): invoice store or Shopify failure, propagated so callers
//     can tell "platform unavailable" apart from "no such order"
//
// A pending (New) invoice wins over a settled one for the same order because
// it represents the currently awaited payment; the step order is load-bearing
// and must not be re-sorted. The per-key lock held for the whole call closes
// the race where two simultaneous first-time calls both create an invoice.
func (s *ReconciliationService) Reconcile(ctx context.Context, storeID, orderID string, checkOnly bool) (*ReconcileResult, error) {
	key := storeID + "/" + orderID
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	marker := domain.OrderMarkerTag(orderID)

	matched, err := s.invoices.Query(ctx, ports.InvoiceQuery{
		StoreIDs: []string{storeID},
		OrderIDs: []string{marker},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}

	for _, invoice := range matched {
		if invoice.CorrelatesTo(orderID) && invoice.Status == domain.InvoiceStatusNew {
			return &ReconcileResult{InvoiceID: invoice.ID, Status: invoice.Status.Reported()}, nil
		}
	}
	for _, invoice := range matched {
		if invoice.CorrelatesTo(orderID) && invoice.Status.Settled() {
			return &ReconcileResult{InvoiceID: invoice.ID, Status: invoice.Status.Reported()}, nil
		}
	}

	if checkOnly {
		return nil, nil
	}

	store, err := s.stores.FindStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find store: %w", err)
	}
	if store == nil || !store.Blob.Shopify.Integrated() {
		return nil, domain.ErrNotFound
	}

	client, err := s.clients.ClientFor(store.Blob.Shopify.Credentials())
	if err != nil {
		return nil, fmt.Errorf("failed to create shopify client: %w", err)
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	order, err := client.GetOrder(remoteCtx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Pending() {
		return nil, domain.ErrNotFound
	}

	invoice, err := s.invoices.Create(ctx, ports.CreateInvoiceRequest{
		StoreID:      storeID,
		Amount:       order.TotalPrice,
		Currency:     order.Currency,
		OrderID:      marker,
		Metadata:     map[string]string{"orderId": marker},
		InternalTags: []string{marker},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.logger.Info().
		Str("storeId", storeID).
		Str("orderId", orderID).
		Str("invoiceId", invoice.ID).
		Msg("Created invoice for Shopify order")

	return &ReconcileResult{InvoiceID: invoice.ID, Status: invoice.Status.Reported(), Created: true}, nil
}
