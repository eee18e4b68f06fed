package entity

import (
	"time"

	"ledgerpay-shopify-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoStoreDoc represents a store configuration blob in MongoDB. The
// Shopify settings live under blob.shopify; version is the optimistic
// concurrency token bumped on every whole-blob replace.
type MongoStoreDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	StoreID   string             `bson:"storeId"`
	Version   int64              `bson:"version"`
	Blob      MongoStoreBlobDoc  `bson:"blob"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// MongoStoreBlobDoc is the store's settings document.
type MongoStoreBlobDoc struct {
	Shopify *MongoShopifySettingsDoc `bson:"shopify,omitempty"`
}

// MongoShopifySettingsDoc is the persisted shape of a store's Shopify
// integration settings.
type MongoShopifySettingsDoc struct {
	APIKey       string     `bson:"apiKey"`
	APISecret    string     `bson:"apiSecret"`
	ShopName     string     `bson:"shopName"`
	IntegratedAt *time.Time `bson:"integratedAt,omitempty"`
	ScriptID     string     `bson:"scriptId,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoStoreDoc) ToDomain() *domain.Store {
	store := &domain.Store{
		ID:      d.StoreID,
		Version: d.Version,
	}
	if d.Blob.Shopify != nil {
		store.Blob.Shopify = &domain.ShopifySettings{
			APIKey:       d.Blob.Shopify.APIKey,
			APISecret:    d.Blob.Shopify.APISecret,
			ShopName:     d.Blob.Shopify.ShopName,
			IntegratedAt: d.Blob.Shopify.IntegratedAt,
			ScriptID:     d.Blob.Shopify.ScriptID,
		}
	}
	return store
}

// MongoStoreBlobDocFromDomain converts a domain settings blob to its
// MongoDB document.
func MongoStoreBlobDocFromDomain(blob domain.StoreBlob) MongoStoreBlobDoc {
	doc := MongoStoreBlobDoc{}
	if blob.Shopify != nil {
		doc.Shopify = &MongoShopifySettingsDoc{
			APIKey:       blob.Shopify.APIKey,
			APISecret:    blob.Shopify.APISecret,
			ShopName:     blob.Shopify.ShopName,
			IntegratedAt: blob.Shopify.IntegratedAt,
			ScriptID:     blob.Shopify.ScriptID,
		}
	}
	return doc
}
