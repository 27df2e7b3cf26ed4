package rules

import (
	"context"
	"testing"
	"time"

	"concierge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRepo struct {
	rules    []models.BusinessRule
	required []string
}

func (s stubRepo) ListBusinessRules(context.Context, string) ([]models.BusinessRule, error) {
	return s.rules, nil
}

func (s stubRepo) GetRequiredFields(context.Context, string, models.ServiceCategory, string) ([]string, error) {
	return s.required, nil
}

func hour(h int) *int { return &h }

func TestInWindow(t *testing.T) {
	assert.True(t, InWindow(10, 8, 22))
	assert.False(t, InWindow(22, 8, 22))
	assert.True(t, InWindow(23, 22, 6))
	assert.True(t, InWindow(3, 22, 6))
	assert.False(t, InWindow(12, 22, 6))
	assert.True(t, InWindow(5, 0, 0))
}

func TestEvaluate(t *testing.T) {
	active := models.GuestStatus{Lifecycle: models.LifecycleActive}
	food := []models.DetectedIntent{{Intent: models.IntentOrderFood, Confidence: 0.9}}
	list := []models.BusinessRule{
		{Name: "kitchen_hours", Intent: models.IntentOrderFood, Severity: models.SeverityBlock,
			FromHour: hour(7), ToHour: hour(23), Message: "The kitchen is closed.", Enabled: true},
		{Name: "late_notice", Intent: models.IntentOrderFood, Severity: models.SeverityWarning,
			FromHour: hour(7), ToHour: hour(21), Message: "Orders may take longer.", Enabled: true},
		{Name: "disabled", Severity: models.SeverityBlock, FromHour: hour(0), ToHour: hour(1), Enabled: false},
	}

	block, warnings := Evaluate(list, active, food, 12)
	assert.Nil(t, block)
	assert.Empty(t, warnings)

	block, warnings = Evaluate(list, active, food, 22)
	assert.Nil(t, block)
	require.Len(t, warnings, 1)
	assert.Equal(t, "late_notice", warnings[0].Rule)

	block, _ = Evaluate(list, active, food, 2)
	require.NotNil(t, block)
	assert.Equal(t, "The kitchen is closed.", block.Message)

	greeting := []models.DetectedIntent{{Intent: models.IntentGreeting}}
	block, _ = Evaluate(list, active, greeting, 2)
	assert.Nil(t, block)
}

func TestEvaluateLifecycleAndCategory(t *testing.T) {
	list := []models.BusinessRule{{
		Name: "spa_guests_only", Intent: models.IntentBookService, Category: "SPA",
		Severity: models.SeverityBlock, Lifecycle: []models.Lifecycle{models.LifecycleActive},
		Message: "The spa is reserved for in-house guests.", Enabled: true,
	}}
	pre := models.GuestStatus{Lifecycle: models.LifecyclePreArrival, CanBookServices: true}

	block, _ := Evaluate(list, pre, []models.DetectedIntent{{Intent: models.IntentBookService, Category: "spa"}}, 10)
	require.NotNil(t, block)

	block, _ = Evaluate(list, pre, []models.DetectedIntent{{Intent: models.IntentBookService, Category: "DINING"}}, 10)
	assert.Nil(t, block)
}

func TestCheckBlocksPostCheckoutRoomService(t *testing.T) {
	svc := &DefaultRulesService{Repo: stubRepo{}, Logger: zap.NewNop()}
	guest := models.GuestStatus{Lifecycle: models.LifecyclePostCheckout, CanComplain: true}

	block, _, err := svc.Check(context.Background(), models.Tenant{ID: "t1"}, guest,
		[]models.DetectedIntent{{Intent: models.IntentOrderFood}}, time.Now())

	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, models.SeverityBlock, block.Severity)
	assert.Contains(t, block.Message, "during your stay")
}
