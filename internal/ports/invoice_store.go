package ports

import (
	"context"

	"ledgerpay-shopify-layer/internal/domain"

	"github.com/shopspring/decimal"
)

// InvoiceQuery selects invoices by store and by the order id field.
type InvoiceQuery struct {
	StoreIDs []string
	OrderIDs []string
}

// CreateInvoiceRequest asks the invoice store to create a new invoice in
// status New.
type CreateInvoiceRequest struct {
	StoreID      string
	Amount       decimal.Decimal
	Currency     string
	OrderID      string
	Metadata     map[string]string
	InternalTags []string
}

// InvoiceStore is the persisted invoice collection of the payment backend.
// This layer only queries and requests creation; it never mutates status.
type InvoiceStore interface {
	Query(ctx context.Context, q InvoiceQuery) ([]*domain.Invoice, error)
	Create(ctx context.Context, req CreateInvoiceRequest) (*domain.Invoice, error)
}
