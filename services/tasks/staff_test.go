package tasks

import (
	"encoding/json"
	"testing"

	"concierge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStaffNotifyTask(t *testing.T) {
	payload := models.StaffNotifyPayload{
		TaskID:     "task-1",
		TenantID:   "t1",
		Department: models.DeptSecurity,
		Title:      "Emergency",
		Body:       "Room 204 reports fire",
		Priority:   string(models.PriorityUrgent),
	}

	task, opts, err := NewStaffNotifyTask(payload)

	require.NoError(t, err)
	assert.Equal(t, TypeStaffNotify, task.Type())
	assert.Len(t, opts, 3)

	var decoded models.StaffNotifyPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, payload, decoded)
}

func TestQueueFor(t *testing.T) {
	assert.Equal(t, QueueCritical, QueueFor(models.PriorityUrgent))
	assert.Equal(t, QueueCritical, QueueFor(models.PriorityHigh))
	assert.Equal(t, QueueDefault, QueueFor(models.PriorityNormal))
	assert.Equal(t, QueueLow, QueueFor(models.PriorityLow))
}
