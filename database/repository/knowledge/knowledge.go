package knowledgeRepo

import (
	"context"
	"fmt"
	"time"

	"concierge/database"
	"concierge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FAQRepository defines methods for tenant knowledge-base entries.
type FAQRepository interface {
	ListByTenant(ctx context.Context, tenantID string) ([]models.FAQEntry, error)
	// RecordHit increments the hit counter of an entry.
	RecordHit(ctx context.Context, id string, at time.Time) error
}

// MongoFAQRepo implements FAQRepository using MongoDB.
type MongoFAQRepo struct {
	coll *mongo.Collection
}

// NewMongoFAQRepo creates a new instance of FAQRepository using MongoDB.
func NewMongoFAQRepo() FAQRepository {
	repo := &MongoFAQRepo{coll: database.DB().Collection("faq_entries")}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenantId", Value: 1}}},
	})
	if err != nil {
		fmt.Printf("failed to create faq indexes: %v\n", err)
	}
	return repo
}

func (r *MongoFAQRepo) ListByTenant(ctx context.Context, tenantID string) ([]models.FAQEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"tenantId": tenantID})
	if err != nil {
		return nil, fmt.Errorf("failed to query faq entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.FAQEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode faq entries: %w", err)
	}
	return entries, nil
}

func (r *MongoFAQRepo) RecordHit(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$inc": bson.M{"hits": 1}, "$set": bson.M{"lastHitAt": at}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return fmt.Errorf("failed to record faq hit %s: %w", id, err)
	}
	return nil
}
