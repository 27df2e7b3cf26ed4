package catalog

import (
	"context"

	catalogRepo "concierge/database/repository/catalog"
	"concierge/models"

	"go.uber.org/zap"
)

// CatalogService exposes a tenant's live catalog. Nothing is cached between calls.
type CatalogService interface {
	ListServices(ctx context.Context, tenantID string) ([]models.Service, error)
	ListMenuItems(ctx context.Context, tenantID, mealType string) ([]models.MenuItem, error)
	ListRequestItems(ctx context.Context, tenantID string) ([]models.RequestItem, error)

	// Snapshot loads services, menu items and request items concurrently.
	Snapshot(ctx context.Context, tenantID string) (models.CatalogSnapshot, error)
	// ServiceNames lists available service names, optionally for one category.
	ServiceNames(ctx context.Context, tenantID string, category models.ServiceCategory) ([]string, error)
	// FindService returns the service with the given name (case-insensitive), or nil.
	FindService(ctx context.Context, tenantID, name string) (*models.Service, error)
}

// DefaultCatalogService is the production implementation.
type DefaultCatalogService struct {
	Repo   catalogRepo.CatalogRepository
	Logger *zap.Logger
}
