package taskRepo

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

// ErrNotFound is returned when no task matches.
var ErrNotFound = errors.New("task not found")

// TaskRepository defines methods for staff task storage.
type TaskRepository interface {
	// FindOpenByIdentity returns the newest open task of a conversation with the given item
	// identity created at or after since, or nil.
	FindOpenByIdentity(ctx context.Context, conversationID, identity string, since time.Time) (*models.StaffTask, error)
	GetByID(ctx context.Context, id string) (*models.StaffTask, error)
	Create(ctx context.Context, task *models.StaffTask) error
	// UpdateQuantity sets the quantity and merges metadata keys.
	UpdateQuantity(ctx context.Context, id string, quantity int, metadata map[string]string) error
}

// MongoTaskRepo implements TaskRepository using MongoDB.
type MongoTaskRepo struct {
	coll *mongo.Collection
}

// NewMongoTaskRepo creates a new instance of TaskRepository using MongoDB.
func NewMongoTaskRepo() TaskRepository {
	repo := &MongoTaskRepo{coll: database.DB().Collection("staff_tasks")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create task indexes: %v\n", err)
	}
	return repo
}

func (r *MongoTaskRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{
			{Key: "conversationId", Value: 1},
			{Key: "itemIdentity", Value: 1},
			{Key: "status", Value: 1},
			{Key: "createdAt", Value: -1},
		}},
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "department", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoTaskRepo) FindOpenByIdentity(ctx context.Context, conversationID, identity string, since time.Time) (*models.StaffTask, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"conversationId": conversationID,
		"itemIdentity":   identity,
		"status":         models.TaskStatusOpen,
		"createdAt":      bson.M{"$gte": since},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var task models.StaffTask
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up open task %q: %w", identity, err)
	}
	return &task, nil
}

func (r *MongoTaskRepo) GetByID(ctx context.Context, id string) (*models.StaffTask, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var task models.StaffTask
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch task %s: %w", id, err)
	}
	return &task, nil
}

func (r *MongoTaskRepo) Create(ctx context.Context, task *models.StaffTask) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *MongoTaskRepo) UpdateQuantity(ctx context.Context, id string, quantity int, metadata map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"quantity": quantity, "updatedAt": time.Now()}
	for k, v := range metadata {
		set["metadata."+k] = v
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
