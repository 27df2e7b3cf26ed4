package conversationRepo

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

// MongoConversationRepo implements ConversationRepository using MongoDB.
type MongoConversationRepo struct {
	coll *mongo.Collection
}

// NewMongoConversationRepo creates a new instance of ConversationRepository using MongoDB.
func NewMongoConversationRepo() ConversationRepository {
	coll := database.DB().Collection("conversations")
	repo := &MongoConversationRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create conversation indexes: %v\n", err)
	}
	return repo
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoConversationRepo) ensureIndexes() error {
	ctx, cancel := withTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "guestPhone", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "mode.kind", Value: 1}, {Key: "updatedAt", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// GetByID retrieves a conversation by id, excluding its history.
func (r *MongoConversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne().SetProjection(bson.M{"history": 0})
	var conv models.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"id": id}, opts).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch conversation %s: %w", id, err)
	}
	return &conv, nil
}

// FindByGuest returns the most recently updated conversation for a guest.
func (r *MongoConversationRepo) FindByGuest(ctx context.Context, tenantID, guestPhone string) (*models.Conversation, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne().
		SetProjection(bson.M{"history": 0}).
		SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	var conv models.Conversation
	err := r.coll.FindOne(ctx, bson.M{"tenantId": tenantID, "guestPhone": guestPhone}, opts).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch conversation for guest: %w", err)
	}
	return &conv, nil
}

// Create inserts a new conversation document.
func (r *MongoConversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	if conv.History == nil {
		conv.History = []models.HistoryMsg{}
	}
	if conv.Mode.Kind == "" {
		conv.Mode = models.RecordOf(models.Normal{})
	}

	if _, err := r.coll.InsertOne(ctx, conv); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// SetMode replaces the stored mode record.
func (r *MongoConversationRepo) SetMode(ctx context.Context, id string, mode models.ModeRecord) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"mode": mode, "updatedAt": time.Now()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set mode for conversation %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendHistory pushes messages onto the history array.
func (r *MongoConversationRepo) AppendHistory(ctx context.Context, id string, msgs ...models.HistoryMsg) error {
	if len(msgs) == 0 {
		return nil
	}
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"history": bson.M{"$each": msgs}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to append history for conversation %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RecentHistory returns the last n messages using a $slice projection.
func (r *MongoConversationRepo) RecentHistory(ctx context.Context, id string, n int) ([]models.HistoryMsg, error) {
	if n <= 0 {
		return nil, nil
	}
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne().SetProjection(bson.M{"history": bson.M{"$slice": -n}})
	var conv models.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"id": id}, opts).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch history for conversation %s: %w", id, err)
	}
	return conv.History, nil
}

// FindStaleDialogs lists ids of conversations stuck outside normal mode.
func (r *MongoConversationRepo) FindStaleDialogs(ctx context.Context, before time.Time, limit int64) ([]string, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"mode.kind": bson.M{"$ne": models.ModeNormal},
		"updatedAt": bson.M{"$lt": before},
	}
	opts := options.Find().SetProjection(bson.M{"id": 1}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale dialogs: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode stale dialog: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}
