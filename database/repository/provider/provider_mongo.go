package providerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const queryTimeout = 5 * time.Second

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo uses the "providers" collection of db.
func NewMongoProviderRepo(db *mongo.Database) *MongoProviderRepo {
	return &MongoProviderRepo{coll: db.Collection("providers")}
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var provider models.Provider
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&provider); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to fetch provider with id %s: %w", id, err)
	}
	return &provider, nil
}

func (r *MongoProviderRepo) GetAvailability(ctx context.Context, id string) (models.ProviderAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.FindOne().SetProjection(bson.M{"availability": 1})
	var provider models.Provider
	if err := r.coll.FindOne(ctx, bson.M{"id": id}, opts).Decode(&provider); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to fetch availability for provider %s: %w", id, err)
	}
	if provider.Availability == nil {
		return models.ProviderAvailability{}, nil
	}
	return provider.Availability, nil
}

func (r *MongoProviderRepo) UpdateAvailability(ctx context.Context, id string, avail models.ProviderAvailability) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"availability": avail,
		"updatedAt":    time.Now().UTC(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update availability for provider %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrProviderNotFound
	}
	return nil
}
