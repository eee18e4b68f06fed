package entity

import (
	"time"

	"ledgerpay-shopify-layer/internal/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoInvoiceDoc represents an invoice in MongoDB. Amounts are stored as
// strings to avoid float rounding in BSON.
type MongoInvoiceDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	InvoiceID    string             `bson:"invoiceId"`
	StoreID      string             `bson:"storeId"`
	OrderID      string             `bson:"orderId"`
	Amount       string             `bson:"amount"`
	Currency     string             `bson:"currency"`
	Status       string             `bson:"status"`
	Metadata     map[string]string  `bson:"metadata,omitempty"`
	InternalTags []string           `bson:"internalTags,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoInvoiceDoc) ToDomain() *domain.Invoice {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		amount = decimal.Zero
	}
	return &domain.Invoice{
		ID:           d.InvoiceID,
		StoreID:      d.StoreID,
		Amount:       amount,
		Currency:     d.Currency,
		Status:       domain.InvoiceStatus(d.Status),
		OrderID:      d.OrderID,
		Metadata:     d.Metadata,
		InternalTags: d.InternalTags,
		CreatedAt:    d.CreatedAt,
	}
}

// MongoInvoiceDocFromDomain converts a domain entity to a MongoDB document.
func MongoInvoiceDocFromDomain(invoice *domain.Invoice) *MongoInvoiceDoc {
	return &MongoInvoiceDoc{
		InvoiceID:    invoice.ID,
		StoreID:      invoice.StoreID,
		OrderID:      invoice.OrderID,
		Amount:       invoice.Amount.String(),
		Currency:     invoice.Currency,
		Status:       string(invoice.Status),
		Metadata:     invoice.Metadata,
		InternalTags: invoice.InternalTags,
		CreatedAt:    invoice.CreatedAt,
	}
}
