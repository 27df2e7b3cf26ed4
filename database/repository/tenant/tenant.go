package tenantRepo

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

// ErrNotFound is returned when the tenant does not exist or is inactive.
var ErrNotFound = errors.New("tenant not found")

// TenantRepository defines methods for tenant data access.
type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*models.Tenant, error)
}

// MongoTenantRepo implements TenantRepository using MongoDB.
type MongoTenantRepo struct {
	coll *mongo.Collection
}

// NewMongoTenantRepo creates a new instance of TenantRepository using MongoDB.
func NewMongoTenantRepo() TenantRepository {
	repo := &MongoTenantRepo{coll: database.DB().Collection("tenants")}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		fmt.Printf("failed to create tenant indexes: %v\n", err)
	}
	return repo
}

func (r *MongoTenantRepo) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var tenant models.Tenant
	if err := r.coll.FindOne(ctx, bson.M{"id": id, "active": true}).Decode(&tenant); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch tenant %s: %w", id, err)
	}
	return &tenant, nil
}
