package catalogRepo

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

// CatalogRepository reads a tenant's live catalog. Results are never cached.
type CatalogRepository interface {
	ListServices(ctx context.Context, tenantID string) ([]models.Service, error)
	// ListMenuItems returns available menu items; an empty mealType returns all.
	ListMenuItems(ctx context.Context, tenantID, mealType string) ([]models.MenuItem, error)
	ListRequestItems(ctx context.Context, tenantID string) ([]models.RequestItem, error)
}

// MongoCatalogRepo implements CatalogRepository using MongoDB.
type MongoCatalogRepo struct {
	services     *mongo.Collection
	menuItems    *mongo.Collection
	requestItems *mongo.Collection
}

// NewMongoCatalogRepo creates a new instance of CatalogRepository using MongoDB.
func NewMongoCatalogRepo() CatalogRepository {
	db := database.DB()
	repo := &MongoCatalogRepo{
		services:     db.Collection("services"),
		menuItems:    db.Collection("menu_items"),
		requestItems: db.Collection("request_items"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create catalog indexes: %v\n", err)
	}
	return repo
}

func (r *MongoCatalogRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, coll := range []*mongo.Collection{r.services, r.menuItems, r.requestItems} {
		indexModels := []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "name", Value: 1}}},
		}
		if _, err := coll.Indexes().CreateMany(ctx, indexModels); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func (r *MongoCatalogRepo) ListServices(ctx context.Context, tenantID string) ([]models.Service, error) {
	return findAll[models.Service](ctx, r.services, bson.M{"tenantId": tenantID})
}

func (r *MongoCatalogRepo) ListMenuItems(ctx context.Context, tenantID, mealType string) ([]models.MenuItem, error) {
	filter := bson.M{"tenantId": tenantID, "available": true}
	if mealType != "" {
		filter["mealType"] = bson.M{"$in": []string{mealType, "all_day"}}
	}
	return findAll[models.MenuItem](ctx, r.menuItems, filter)
}

func (r *MongoCatalogRepo) ListRequestItems(ctx context.Context, tenantID string) ([]models.RequestItem, error) {
	return findAll[models.RequestItem](ctx, r.requestItems, bson.M{"tenantId": tenantID})
}
