package catalog

import (
	"context"
	"fmt"
	"strings"

	"concierge/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (s *DefaultCatalogService) ListServices(ctx context.Context, tenantID string) ([]models.Service, error) {
	services, err := s.Repo.ListServices(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list services for tenant %s: %w", tenantID, err)
	}
	return services, nil
}

func (s *DefaultCatalogService) ListMenuItems(ctx context.Context, tenantID, mealType string) ([]models.MenuItem, error) {
	items, err := s.Repo.ListMenuItems(ctx, tenantID, mealType)
	if err != nil {
		return nil, fmt.Errorf("list menu items for tenant %s: %w", tenantID, err)
	}
	return items, nil
}

func (s *DefaultCatalogService) ListRequestItems(ctx context.Context, tenantID string) ([]models.RequestItem, error) {
	items, err := s.Repo.ListRequestItems(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list request items for tenant %s: %w", tenantID, err)
	}
	return items, nil
}

func (s *DefaultCatalogService) Snapshot(ctx context.Context, tenantID string) (models.CatalogSnapshot, error) {
	var snap models.CatalogSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Services, err = s.ListServices(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		snap.MenuItems, err = s.ListMenuItems(gctx, tenantID, "")
		return err
	})
	g.Go(func() (err error) {
		snap.RequestItems, err = s.ListRequestItems(gctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.Logger.Warn("catalog snapshot failed", zap.String("tenantId", tenantID), zap.Error(err))
		return models.CatalogSnapshot{}, err
	}
	return snap, nil
}

func (s *DefaultCatalogService) ServiceNames(ctx context.Context, tenantID string, category models.ServiceCategory) ([]string, error) {
	services, err := s.ListServices(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return models.ServiceNames(services, category), nil
}

func (s *DefaultCatalogService) FindService(ctx context.Context, tenantID, name string) (*models.Service, error) {
	services, err := s.ListServices(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return Match(services, name), nil
}

// Match returns the service whose name equals name case-insensitively, or nil.
func Match(services []models.Service, name string) *models.Service {
	name = strings.TrimSpace(name)
	for i := range services {
		if strings.EqualFold(services[i].Name, name) {
			return &services[i]
		}
	}
	return nil
}
