package pendingRepo

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

// PendingRepository defines methods for pending sub-dialog markers.
type PendingRepository interface {
	// Create stores a new pending state after resolving any open one for the conversation.
	Create(ctx context.Context, p *models.PendingState) error
	// FindOpen returns the unresolved pending state of a conversation, or nil.
	FindOpen(ctx context.Context, conversationID string) (*models.PendingState, error)
	// Resolve marks a pending state resolved.
	Resolve(ctx context.Context, id string, at time.Time) error
	// ResolveAll marks every open pending state of a conversation resolved.
	ResolveAll(ctx context.Context, conversationID string, at time.Time) error
}

// MongoPendingRepo implements PendingRepository using MongoDB.
type MongoPendingRepo struct {
	coll *mongo.Collection
}

// NewMongoPendingRepo creates a new instance of PendingRepository using MongoDB.
func NewMongoPendingRepo() PendingRepository {
	repo := &MongoPendingRepo{coll: database.DB().Collection("pending_states")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create pending state indexes: %v\n", err)
	}
	return repo
}

func (r *MongoPendingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "resolvedAt", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoPendingRepo) Create(ctx context.Context, p *models.PendingState) error {
	if err := r.ResolveAll(ctx, p.ConversationID, time.Now()); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to create pending state: %w", err)
	}
	return nil
}

func (r *MongoPendingRepo) FindOpen(ctx context.Context, conversationID string) (*models.PendingState, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.PendingState
	err := r.coll.FindOne(ctx, bson.M{"conversationId": conversationID, "resolvedAt": nil}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch pending state for %s: %w", conversationID, err)
	}
	return &p, nil
}

func (r *MongoPendingRepo) Resolve(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"resolvedAt": at}}); err != nil {
		return fmt.Errorf("failed to resolve pending state %s: %w", id, err)
	}
	return nil
}

func (r *MongoPendingRepo) ResolveAll(ctx context.Context, conversationID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"conversationId": conversationID, "resolvedAt": nil}
	if _, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"resolvedAt": at}}); err != nil {
		return fmt.Errorf("failed to resolve pending states for %s: %w", conversationID, err)
	}
	return nil
}
