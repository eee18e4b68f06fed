package repository

import (
	"context"
	"fmt"
	"time"

	"ledgerpay-shopify-layer/internal/domain"
	"ledgerpay-shopify-layer/internal/infrastructure/repository/entity"
	"ledgerpay-shopify-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStoreRepository implements StoreRepository using MongoDB.
type MongoStoreRepository struct {
	collection *mongo.Collection
}

// NewMongoStoreRepository creates a new MongoDB store repository.
func NewMongoStoreRepository(db *mongo.Database) ports.StoreRepository {
	return &MongoStoreRepository{
		collection: db.Collection("stores"),
	}
}

// FindStore retrieves a store by id.
func (r *MongoStoreRepository) FindStore(ctx context.Context, storeID string) (*domain.Store, error) {
	var doc entity.MongoStoreDoc
	err := r.collection.FindOne(ctx, bson.M{"storeId": storeID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return doc.ToDomain(), nil
}

// UpdateStore replaces the store's settings blob, guarded by a
// compare-and-swap on the version the caller read. A lost race leaves the
// document untouched and yields domain.ErrConcurrentEdit.
func (r *MongoStoreRepository) UpdateStore(ctx context.Context, store *domain.Store) error {
	filter := bson.M{
		"storeId": store.ID,
		"version": store.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"blob":      entity.MongoStoreBlobDocFromDomain(store.Blob),
			"updatedAt": time.Now(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update store: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrConcurrentEdit
	}

	store.Version++
	return nil
}
