// Package guest derives what a guest may ask for from their stay.
package guest

import (
	"context"
	"fmt"
	"time"

	guestRepo "concierge/database/repository/guest"
	"concierge/models"

	"go.uber.org/zap"
)

// GuestService computes a guest's status for one turn. The result is never stored.
type GuestService interface {
	Status(ctx context.Context, tenant models.Tenant, guestPhone string) (models.GuestStatus, error)
}

// DefaultGuestService is the production implementation.
type DefaultGuestService struct {
	Stays  guestRepo.StayRepository
	Now    func() time.Time
	Logger *zap.Logger
}

func (s *DefaultGuestService) Status(ctx context.Context, tenant models.Tenant, guestPhone string) (models.GuestStatus, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if guestPhone == "" {
		return StatusFor(nil, now), nil
	}
	stay, err := s.Stays.FindRelevantStay(ctx, tenant.ID, guestPhone, now)
	if err != nil {
		return StatusFor(nil, now), fmt.Errorf("load stay: %w", err)
	}
	return StatusFor(stay, now), nil
}

// StatusFor maps a stay to a lifecycle and its permissions.
func StatusFor(stay *models.Stay, now time.Time) models.GuestStatus {
	if stay == nil || stay.Cancelled {
		return models.GuestStatus{
			Lifecycle:       models.LifecycleUnregistered,
			CanBookServices: true,
			CanComplain:     true,
		}
	}

	status := models.GuestStatus{GuestName: stay.GuestName, Room: stay.Room}
	switch {
	case now.Before(stay.CheckIn):
		status.Lifecycle = models.LifecyclePreArrival
		status.CanBookServices = true
		status.CanComplain = true
	case now.Before(stay.CheckOut):
		status.Lifecycle = models.LifecycleActive
		status.CanRequestItems = true
		status.CanOrderFood = true
		status.CanBookServices = true
		status.CanReportMaintenance = true
		status.CanComplain = true
	default:
		status.Lifecycle = models.LifecyclePostCheckout
		status.CanComplain = true
	}
	return status
}
