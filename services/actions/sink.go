package actions

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"concierge/models"
	"concierge/services/tasks"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultTaskSink) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateOrUpdateTask updates the open task with the same conversation and identity created
// within the dedup window, or creates a new one.
func (s *DefaultTaskSink) CreateOrUpdateTask(ctx context.Context, req TaskRequest) (*TaskOutcome, error) {
	identity := req.ItemIdentity
	if identity == "" {
		identity = Identity(req.Type, req.Item)
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	now := s.now()

	existing, err := s.Repo.FindOpenByIdentity(ctx, req.ConversationID, identity, now.Add(-s.DedupWindow))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.Repo.UpdateQuantity(ctx, existing.ID, quantity, req.Metadata); err != nil {
			return nil, err
		}
		existing.Quantity = quantity
		existing.UpdatedAt = now
		if existing.Metadata == nil && len(req.Metadata) > 0 {
			existing.Metadata = map[string]string{}
		}
		for k, v := range req.Metadata {
			existing.Metadata[k] = v
		}
		s.Logger.Info("Task updated within dedup window",
			zap.String("taskId", existing.ID),
			zap.String("identity", identity),
			zap.Int("quantity", quantity))
		s.notify(existing, true)
		return &TaskOutcome{Task: existing, Created: false}, nil
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	task := &models.StaffTask{
		ID:             uuid.New().String(),
		TenantID:       req.TenantID,
		ConversationID: req.ConversationID,
		Type:           req.Type,
		ItemIdentity:   identity,
		Item:           req.Item,
		Quantity:       quantity,
		Room:           req.Room,
		Department:     req.Department,
		Priority:       priority,
		Status:         models.TaskStatusOpen,
		Metadata:       req.Metadata,
		CreatedAt:      now,
	}
	if err := s.Repo.Create(ctx, task); err != nil {
		return nil, err
	}
	s.Logger.Info("Task created",
		zap.String("taskId", task.ID),
		zap.String("type", string(task.Type)),
		zap.String("department", task.Department),
		zap.String("conversationId", task.ConversationID))
	s.notify(task, false)
	return &TaskOutcome{Task: task, Created: true}, nil
}

func (s *DefaultTaskSink) UpdateTask(ctx context.Context, taskID string, quantity int, metadata map[string]string) (*models.StaffTask, error) {
	task, err := s.Repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if quantity > 0 {
		task.Quantity = quantity
	}
	if err := s.Repo.UpdateQuantity(ctx, task.ID, task.Quantity, metadata); err != nil {
		return nil, err
	}
	if task.Metadata == nil && len(metadata) > 0 {
		task.Metadata = map[string]string{}
	}
	for k, v := range metadata {
		task.Metadata[k] = v
	}
	task.UpdatedAt = s.now()
	s.notify(task, true)
	return task, nil
}

// notify queues a staff push. Queue failures are logged; the task itself already exists.
func (s *DefaultTaskSink) notify(task *models.StaffTask, updated bool) {
	if s.Queue == nil {
		return
	}
	payload := models.StaffNotifyPayload{
		TaskID:     task.ID,
		TenantID:   task.TenantID,
		Department: task.Department,
		Title:      Title(task, updated),
		Body:       Body(task),
		Priority:   string(task.Priority),
		Updated:    updated,
	}
	t, opts, err := tasks.NewStaffNotifyTask(payload)
	if err == nil {
		_, err = s.Queue.Enqueue(t, opts...)
	}
	if err != nil {
		s.Logger.Error("Failed to enqueue staff notification",
			zap.Error(err), zap.String("taskId", task.ID))
	}
}

// Title is the push title for a task.
func Title(task *models.StaffTask, updated bool) string {
	prefix := "New"
	if updated {
		prefix = "Updated"
	}
	switch task.Type {
	case models.TaskEmergency:
		return "EMERGENCY"
	case models.TaskFoodOrder:
		return prefix + " room service order"
	case models.TaskItemRequest:
		return prefix + " guest request"
	case models.TaskMaintenance:
		return prefix + " maintenance issue"
	case models.TaskComplaint:
		return prefix + " guest complaint"
	case models.TaskBooking:
		return prefix + " booking"
	case models.TaskHandoff:
		return "Guest needs a team member"
	case models.TaskLostItem:
		return prefix + " lost item report"
	}
	return prefix + " task"
}

// Body is the push body for a task.
func Body(task *models.StaffTask) string {
	body := task.Item
	if task.Quantity > 1 {
		body = strconv.Itoa(task.Quantity) + " x " + body
	}
	if task.Room != "" {
		body = fmt.Sprintf("%s (room %s)", body, task.Room)
	}
	return body
}
