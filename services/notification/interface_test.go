package notification

import (
	"context"
	"errors"
	"testing"

	"concierge/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	sent []*messaging.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	r.sent = append(r.sent, m)
	return "msg-1", r.err
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "staff-t1-front_desk", Topic("t1", models.DeptFrontDesk))
	assert.Equal(t, "staff-acme_lodge-spa", Topic("acme lodge", models.DeptSpa))
}

func TestNotifyStaff(t *testing.T) {
	sender := &recordingSender{}
	svc, err := NewDefaultNotificationService(sender, zap.NewNop())
	require.NoError(t, err)

	err = svc.NotifyStaff(context.Background(), models.StaffNotifyPayload{
		TaskID: "task-1", TenantID: "t1", Department: models.DeptHousekeeping,
		Title: "Towels", Body: "3 towels to room 204", Priority: string(models.PriorityUrgent),
	})

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "staff-t1-housekeeping", msg.Topic)
	assert.Equal(t, "high", msg.Android.Priority)
	assert.Equal(t, "task-1", msg.Data["taskId"])
}

func TestNotifyStaffSendFailure(t *testing.T) {
	svc, err := NewDefaultNotificationService(&recordingSender{err: errors.New("quota")}, zap.NewNop())
	require.NoError(t, err)

	err = svc.NotifyStaff(context.Background(), models.StaffNotifyPayload{TaskID: "task-1", Priority: "normal"})

	assert.Error(t, err)
}

func TestNewServiceRequiresClient(t *testing.T) {
	_, err := NewDefaultNotificationService(nil, zap.NewNop())
	assert.Error(t, err)
}
