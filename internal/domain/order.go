package domain

import "github.com/shopspring/decimal"

// FinancialStatusPending is the only Shopify financial status for which an
// invoice may be created: it means the shopper chose the offline gateway and
// payment is still awaited.
const FinancialStatusPending = "pending"

// ExternalOrder is a Shopify order fetched on demand. It is never persisted
// locally.
type ExternalOrder struct {
	ID              string
	FinancialStatus string
	TotalPrice      decimal.Decimal
	Currency        string
}

// Pending reports whether the order is still awaiting payment.
func (o *ExternalOrder) Pending() bool {
	return o != nil && o.FinancialStatus == FinancialStatusPending
}
