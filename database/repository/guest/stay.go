package guestRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"concierge/database"
	"concierge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StayRepository defines methods for guest stay records.
type StayRepository interface {
	// FindRelevantStay returns the stay that best describes the guest at the given moment:
	// the current stay, else the next upcoming, else the most recent past one. Nil when the
	// guest has no stays.
	FindRelevantStay(ctx context.Context, tenantID, guestPhone string, now time.Time) (*models.Stay, error)
}

// MongoStayRepo implements StayRepository using MongoDB.
type MongoStayRepo struct {
	coll *mongo.Collection
}

// NewMongoStayRepo creates a new instance of StayRepository using MongoDB.
func NewMongoStayRepo() StayRepository {
	repo := &MongoStayRepo{coll: database.DB().Collection("stays")}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "guestPhone", Value: 1}, {Key: "checkIn", Value: -1}},
	})
	if err != nil {
		fmt.Printf("failed to create stay indexes: %v\n", err)
	}
	return repo
}

func (r *MongoStayRepo) findOne(ctx context.Context, filter bson.M, sort bson.D) (*models.Stay, error) {
	var stay models.Stay
	err := r.coll.FindOne(ctx, filter, options.FindOne().SetSort(sort)).Decode(&stay)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stay: %w", err)
	}
	return &stay, nil
}

func (r *MongoStayRepo) FindRelevantStay(ctx context.Context, tenantID, guestPhone string, now time.Time) (*models.Stay, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	base := func() bson.M {
		return bson.M{"tenantId": tenantID, "guestPhone": guestPhone, "cancelled": bson.M{"$ne": true}}
	}

	current := base()
	current["checkIn"] = bson.M{"$lte": now}
	current["checkOut"] = bson.M{"$gt": now}
	if stay, err := r.findOne(ctx, current, bson.D{{Key: "checkIn", Value: -1}}); err != nil || stay != nil {
		return stay, err
	}

	upcoming := base()
	upcoming["checkIn"] = bson.M{"$gt": now}
	if stay, err := r.findOne(ctx, upcoming, bson.D{{Key: "checkIn", Value: 1}}); err != nil || stay != nil {
		return stay, err
	}

	past := base()
	past["checkOut"] = bson.M{"$lte": now}
	return r.findOne(ctx, past, bson.D{{Key: "checkOut", Value: -1}})
}
