package repository

import (
	"context"
	"fmt"
	"time"

	"ledgerpay-shopify-layer/internal/domain"
	"ledgerpay-shopify-layer/internal/infrastructure/metrics"
	"ledgerpay-shopify-layer/internal/infrastructure/repository/entity"
	"ledgerpay-shopify-layer/internal/ports"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoInvoiceStore implements InvoiceStore using MongoDB. There is
// deliberately no uniqueness constraint on (storeId, orderId): the
// at-most-one-active-invoice invariant is enforced by the reconciliation
// engine's lookup-before-create protocol.
type MongoInvoiceStore struct {
	collection *mongo.Collection
}

// NewMongoInvoiceStore creates a new MongoDB invoice store.
func NewMongoInvoiceStore(db *mongo.Database) ports.InvoiceStore {
	return &MongoInvoiceStore{
		collection: db.Collection("invoices"),
	}
}

// Query retrieves invoices matching any of the store ids and any of the
// order id values.
func (r *MongoInvoiceStore) Query(ctx context.Context, q ports.InvoiceQuery) ([]*domain.Invoice, error) {
	filter := bson.M{}
	if len(q.StoreIDs) > 0 {
		filter["storeId"] = bson.M{"$in": q.StoreIDs}
	}
	if len(q.OrderIDs) > 0 {
		filter["orderId"] = bson.M{"$in": q.OrderIDs}
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var invoices []*domain.Invoice
	for cursor.Next(ctx) {
		var doc entity.MongoInvoiceDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		invoices = append(invoices, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return invoices, nil
}

// Create inserts a new invoice in status New and returns it.
func (r *MongoInvoiceStore) Create(ctx context.Context, req ports.CreateInvoiceRequest) (*domain.Invoice, error) {
	invoice := &domain.Invoice{
		ID:           uuid.NewString(),
		StoreID:      req.StoreID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       domain.InvoiceStatusNew,
		OrderID:      req.OrderID,
		Metadata:     req.Metadata,
		InternalTags: req.InternalTags,
		CreatedAt:    time.Now(),
	}

	doc := entity.MongoInvoiceDocFromDomain(invoice)
	doc.UpdatedAt = doc.CreatedAt

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	metrics.InvoicesCreated.Inc()

	return invoice, nil
}
