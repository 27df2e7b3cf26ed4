package models

import "time"

// TaskType classifies a staff task.
type TaskType string

const (
	TaskItemRequest TaskType = "item_request"
	TaskFoodOrder   TaskType = "food_order"
	TaskMaintenance TaskType = "maintenance"
	TaskComplaint   TaskType = "complaint"
	TaskBooking     TaskType = "booking"
	TaskEmergency   TaskType = "emergency"
	TaskHandoff     TaskType = "handoff"
	TaskLostItem    TaskType = "lost_item"
)

// Departments that receive tasks.
const (
	DeptHousekeeping = "housekeeping"
	DeptFoodAndBev   = "food_and_beverage"
	DeptMaintenance  = "maintenance"
	DeptFrontDesk    = "front_desk"
	DeptConcierge    = "concierge"
	DeptSpa          = "spa"
	DeptSecurity     = "security"
	DeptGuestRel     = "guest_relations"
)

// Priority of a staff task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Task statuses.
const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// StaffTask is a side effect handed to the fulfilment system.
type StaffTask struct {
	ID             string            `bson:"id" json:"id"`
	TenantID       string            `bson:"tenantId" json:"tenantId"`
	ConversationID string            `bson:"conversationId" json:"conversationId"`
	Type           TaskType          `bson:"type" json:"type"`
	ItemIdentity   string            `bson:"itemIdentity" json:"itemIdentity"` // dedup key within a conversation
	Item           string            `bson:"item" json:"item"`
	Quantity       int               `bson:"quantity" json:"quantity"`
	Room           string            `bson:"room,omitempty" json:"room,omitempty"`
	Department     string            `bson:"department" json:"department"`
	Priority       Priority          `bson:"priority" json:"priority"`
	Status         string            `bson:"status" json:"status"`
	Metadata       map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt      time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// StaffNotifyPayload is the queued message that fans a task out to staff devices.
type StaffNotifyPayload struct {
	TaskID     string `json:"taskId"`
	TenantID   string `json:"tenantId"`
	Department string `json:"department"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Priority   string `json:"priority"`
	Updated    bool   `json:"updated"`
}
