// Package rules validates detected intents against tenant business rules and guest permissions.
package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	rulesRepo "concierge/database/repository/rules"
	"concierge/models"

	"go.uber.org/zap"
)

// RulesService checks a turn's intents before any side effect happens.
type RulesService interface {
	// Check returns the first blocking violation, if any, and every warning.
	Check(ctx context.Context, tenant models.Tenant, guest models.GuestStatus, intents []models.DetectedIntent, now time.Time) (*models.RuleViolation, []models.RuleViolation, error)
	GetRequiredFields(ctx context.Context, tenantID string, category models.ServiceCategory, serviceID string) ([]string, error)
}

// DefaultRulesService is the production implementation.
type DefaultRulesService struct {
	Repo   rulesRepo.RulesRepository
	Logger *zap.Logger
}

func (s *DefaultRulesService) Check(ctx context.Context, tenant models.Tenant, guest models.GuestStatus, intents []models.DetectedIntent, now time.Time) (*models.RuleViolation, []models.RuleViolation, error) {
	if v := PermissionViolation(guest, intents); v != nil {
		return v, nil, nil
	}
	list, err := s.Repo.ListBusinessRules(ctx, tenant.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load business rules: %w", err)
	}
	block, warnings := Evaluate(list, guest, intents, now.In(tenant.Location()).Hour())
	return block, warnings, nil
}

func (s *DefaultRulesService) GetRequiredFields(ctx context.Context, tenantID string, category models.ServiceCategory, serviceID string) ([]string, error) {
	return s.Repo.GetRequiredFields(ctx, tenantID, category, serviceID)
}

// Evaluate applies tenant rules to the actionable intents. localHour is the tenant's wall clock.
func Evaluate(list []models.BusinessRule, guest models.GuestStatus, intents []models.DetectedIntent, localHour int) (*models.RuleViolation, []models.RuleViolation) {
	var warnings []models.RuleViolation
	for _, in := range intents {
		if !in.Actionable() {
			continue
		}
		for _, rule := range list {
			if !rule.Enabled || !applies(rule, in) || satisfied(rule, guest, localHour) {
				continue
			}
			v := models.RuleViolation{Rule: rule.Name, Severity: rule.Severity, Message: rule.Message}
			if rule.Severity == models.SeverityBlock {
				return &v, warnings
			}
			warnings = append(warnings, v)
		}
	}
	return nil, warnings
}

func applies(rule models.BusinessRule, in models.DetectedIntent) bool {
	if rule.Intent != "" && rule.Intent != in.Intent {
		return false
	}
	if rule.Category != "" && !strings.EqualFold(rule.Category, in.Category) {
		return false
	}
	return true
}

func satisfied(rule models.BusinessRule, guest models.GuestStatus, hour int) bool {
	if rule.FromHour != nil && rule.ToHour != nil && !InWindow(hour, *rule.FromHour, *rule.ToHour) {
		return false
	}
	if len(rule.Lifecycle) > 0 {
		for _, l := range rule.Lifecycle {
			if l == guest.Lifecycle {
				return true
			}
		}
		return false
	}
	return true
}

// InWindow reports whether hour lies in [from, to). Windows may wrap past midnight.
func InWindow(hour, from, to int) bool {
	if from == to {
		return true
	}
	if from < to {
		return hour >= from && hour < to
	}
	return hour >= from || hour < to
}

// PermissionViolation blocks intents the guest's stay does not allow.
func PermissionViolation(guest models.GuestStatus, intents []models.DetectedIntent) *models.RuleViolation {
	for _, in := range intents {
		var allowed bool
		switch in.Intent {
		case models.IntentOrderFood:
			allowed = guest.CanOrderFood
		case models.IntentRequestItem:
			allowed = guest.CanRequestItems
		case models.IntentMaintenance:
			allowed = guest.CanReportMaintenance
		case models.IntentBookService:
			allowed = guest.CanBookServices
		case models.IntentComplaint:
			allowed = guest.CanComplain
		default:
			continue
		}
		if !allowed {
			return &models.RuleViolation{
				Rule:     "guest_permission:" + in.Intent,
				Severity: models.SeverityBlock,
				Message:  permissionMessage(guest.Lifecycle, in.Intent),
			}
		}
	}
	return nil
}

func permissionMessage(lifecycle models.Lifecycle, intent string) string {
	what := map[string]string{
		models.IntentOrderFood:   "Room service orders",
		models.IntentRequestItem: "Housekeeping requests",
		models.IntentMaintenance: "Maintenance requests",
		models.IntentBookService: "Bookings",
		models.IntentComplaint:   "Feedback",
	}[intent]
	switch lifecycle {
	case models.LifecyclePreArrival:
		return what + " open up once you've checked in. We look forward to welcoming you!"
	case models.LifecyclePostCheckout:
		return what + " are only available during your stay. Thank you for staying with us!"
	default:
		return what + " are available to registered guests. Please contact the front desk if you are staying with us."
	}
}
