package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openshop/checkout/internal/domain"
)

// MongoRepository is the ProfileGateway backed by the "shipping_profiles"
// collection, one document per user.
type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection("shipping_profiles")}
}

type profileDocument struct {
	UserID  string                 `bson:"user_id"`
	Profile domain.ShippingProfile `bson:"profile"`
}

func (m *MongoRepository) Load(ctx context.Context, userID string) (*domain.ShippingProfile, error) {
	var doc profileDocument

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load shipping profile: %w", err)
	}

	return &doc.Profile, nil
}

func (m *MongoRepository) Save(ctx context.Context, userID string, profile domain.ShippingProfile) error {
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now()
	}

	filter := bson.M{"user_id": userID}
	update := bson.M{"$set": profileDocument{UserID: userID, Profile: profile}}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save shipping profile: %w", err)
	}

	return nil
}

// CreateIndexes sets up the unique user_id index. Called once at startup.
func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.M{"user_id": 1},
		Options: options.Index().SetUnique(true),
	}
	if _, err := m.collection.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create shipping profile index: %w", err)
	}
	return nil
}
