package tasks

import (
	"encoding/json"
	"time"

	"concierge/models"

	"github.com/hibiken/asynq"
)

const TypeStaffNotify = "staff:notify"

// Queue names, weighted in the worker config.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// QueueFor routes a task priority to a queue.
func QueueFor(p models.Priority) string {
	switch p {
	case models.PriorityUrgent, models.PriorityHigh:
		return QueueCritical
	case models.PriorityLow:
		return QueueLow
	}
	return QueueDefault
}

func NewStaffNotifyTask(payload models.StaffNotifyPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeStaffNotify, b)
	opts := []asynq.Option{
		asynq.Queue(QueueFor(models.Priority(payload.Priority))),
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
	}

	return task, opts, nil
}
