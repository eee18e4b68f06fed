package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the externally visible state of a ledgerpay invoice.
type InvoiceStatus string

const (
	InvoiceStatusNew       InvoiceStatus = "New"
	InvoiceStatusPaid      InvoiceStatus = "Paid"
	InvoiceStatusConfirmed InvoiceStatus = "Confirmed"
	InvoiceStatusComplete  InvoiceStatus = "Complete"
	InvoiceStatusExpired   InvoiceStatus = "Expired"
	InvoiceStatusInvalid   InvoiceStatus = "Invalid"
)

// Settled reports whether payment has been received and is final or near-final.
func (s InvoiceStatus) Settled() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusConfirmed, InvoiceStatusComplete:
		return true
	}
	return false
}

// Reported returns the status as exposed on the wire (lower-cased).
func (s InvoiceStatus) Reported() string {
	return strings.ToLower(string(s))
}

// OrderMarkerPrefix prefixes the Shopify order id inside invoice tags so an
// invoice can be correlated back to exactly one Shopify order.
const OrderMarkerPrefix = "shopify-"

// OrderMarkerTag builds the full marker tag for a Shopify order id.
func OrderMarkerTag(orderID string) string {
	return OrderMarkerPrefix + orderID
}

// Invoice is a ledgerpay invoice as seen by this integration layer. The
// invoice store owns the record; this layer only reads it and requests
// creation, never mutates status.
type Invoice struct {
	ID           string
	StoreID      string
	Amount       decimal.Decimal
	Currency     string
	Status       InvoiceStatus
	OrderID      string
	Metadata     map[string]string
	InternalTags []string
	CreatedAt    time.Time
}

// MarkerOrderIDs parses the Shopify order ids out of the invoice's internal
// tags. Tags without the marker prefix are ignored.
func (i *Invoice) MarkerOrderIDs() []string {
	var ids []string
	for _, tag := range i.InternalTags {
		if strings.HasPrefix(tag, OrderMarkerPrefix) {
			ids = append(ids, strings.TrimPrefix(tag, OrderMarkerPrefix))
		}
	}
	return ids
}

// CorrelatesTo reports whether this invoice carries a marker tag for the
// given Shopify order id. Matching on the parsed tag values rather than the
// raw order id field defends against prefix collisions.
func (i *Invoice) CorrelatesTo(orderID string) bool {
	for _, id := range i.MarkerOrderIDs() {
		if id == orderID {
			return true
		}
	}
	return false
}
