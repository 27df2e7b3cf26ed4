package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"concierge/models"
	"concierge/services/concierge"
	"concierge/services/state"
	"concierge/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	sent []models.StaffNotifyPayload
	err  error
}

func (f *fakeNotifier) NotifyStaff(_ context.Context, p models.StaffNotifyPayload) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, p)
	return nil
}

type fakeFinder struct {
	ids    []string
	before time.Time
	err    error
}

func (f *fakeFinder) FindStaleDialogs(_ context.Context, before time.Time, _ int64) ([]string, error) {
	f.before = before
	return f.ids, f.err
}

func TestHandleStaffNotifyTask(t *testing.T) {
	notifier := &fakeNotifier{}
	handler := handleStaffNotifyTask(notifier, zap.NewNop())
	task, _, err := tasks.NewStaffNotifyTask(models.StaffNotifyPayload{TaskID: "task-1", TenantID: "t1", Department: models.DeptHousekeeping})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "task-1", notifier.sent[0].TaskID)
}

func TestHandleStaffNotifyTaskRetriesSendFailures(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("fcm unavailable")}
	handler := handleStaffNotifyTask(notifier, zap.NewNop())
	b, _ := json.Marshal(models.StaffNotifyPayload{TaskID: "task-1"})

	err := handler(context.Background(), asynq.NewTask(tasks.TypeStaffNotify, b))

	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleStaffNotifyTaskSkipsBadPayload(t *testing.T) {
	handler := handleStaffNotifyTask(&fakeNotifier{}, zap.NewNop())

	err := handler(context.Background(), asynq.NewTask(tasks.TypeStaffNotify, []byte("{not json")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSweepResetsStaleDialogs(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 10, 18, 12, 0, 0, 0, time.UTC)
	store := state.NewMemoryStore()
	for _, id := range []string{"c1", "c2"} {
		_, err := store.EnsureConversation(ctx, "t1", id, "+27820000000", "whatsapp")
		require.NoError(t, err)
	}
	require.NoError(t, store.SetMode(ctx, "c1", models.Gathering{Slots: models.BookingSlotState{ServiceCategory: models.CategorySpa}}))
	field := models.PendingField{EntityType: "task", EntityID: "task-1", Field: "quantity", StateType: models.PendingTaskQuantity}
	require.NoError(t, store.CreatePendingState(ctx, &models.PendingState{ConversationID: "c2", TenantID: "t1", PendingField: field}))
	require.NoError(t, store.SetMode(ctx, "c2", models.AwaitingClarification{Field: field}))

	finder := &fakeFinder{ids: []string{"c1", "c2", "gone"}}
	s := &Sweeper{
		Finder: finder,
		Store:  store,
		Locker: concierge.NewMemoryLocker(),
		MaxAge: 2 * time.Hour,
		Batch:  100,
		Now:    func() time.Time { return now },
		Logger: zap.NewNop(),
	}

	assert.Equal(t, 2, s.Sweep(ctx))
	assert.Equal(t, now.Add(-2*time.Hour), finder.before)

	for _, id := range []string{"c1", "c2"} {
		mode, err := store.GetMode(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.ModeNormal, mode.Kind(), id)
	}
	pending, err := store.GetPendingState(ctx, "c2")
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestSweepListFailure(t *testing.T) {
	s := &Sweeper{
		Finder: &fakeFinder{err: errors.New("mongo down")},
		Store:  state.NewMemoryStore(),
		Locker: concierge.NewMemoryLocker(),
		MaxAge: time.Hour,
		Now:    time.Now,
		Logger: zap.NewNop(),
	}

	assert.Zero(t, s.Sweep(context.Background()))
}
