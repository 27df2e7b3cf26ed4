package rulesRepo

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

// RulesRepository defines methods for tenant business rules.
type RulesRepository interface {
	ListBusinessRules(ctx context.Context, tenantID string) ([]models.BusinessRule, error)
	// GetRequiredFields returns the tenant override for a category or service, or nil when
	// the defaults apply. A service-specific rule wins over a category rule.
	GetRequiredFields(ctx context.Context, tenantID string, category models.ServiceCategory, serviceID string) ([]string, error)
}

// MongoRulesRepo implements RulesRepository using MongoDB.
type MongoRulesRepo struct {
	rules    *mongo.Collection
	required *mongo.Collection
}

// NewMongoRulesRepo creates a new instance of RulesRepository using MongoDB.
func NewMongoRulesRepo() RulesRepository {
	db := database.DB()
	repo := &MongoRulesRepo{
		rules:    db.Collection("business_rules"),
		required: db.Collection("required_fields_rules"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create rules indexes: %v\n", err)
	}
	return repo
}

func (r *MongoRulesRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.rules.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "enabled", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create business rule index: %w", err)
	}
	if _, err := r.required.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tenantId", Value: 1}, {Key: "category", Value: 1}, {Key: "serviceId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create required fields index: %w", err)
	}
	return nil
}

func (r *MongoRulesRepo) ListBusinessRules(ctx context.Context, tenantID string) ([]models.BusinessRule, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.rules.Find(ctx, bson.M{"tenantId": tenantID, "enabled": true})
	if err != nil {
		return nil, fmt.Errorf("failed to query business rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []models.BusinessRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode business rules: %w", err)
	}
	return rules, nil
}

func (r *MongoRulesRepo) GetRequiredFields(ctx context.Context, tenantID string, category models.ServiceCategory, serviceID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	lookups := []string{""}
	if serviceID != "" {
		lookups = []string{serviceID, ""}
	}
	for _, sid := range lookups {
		var rule models.RequiredFieldsRule
		filter := bson.M{"tenantId": tenantID, "category": category, "serviceId": sid}
		err := r.required.FindOne(ctx, filter).Decode(&rule)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch required fields: %w", err)
		}
		if len(rule.Fields) > 0 {
			return rule.Fields, nil
		}
	}
	return nil, nil
}
