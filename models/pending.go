package models

import "time"

// PendingStateType is the kind of sub-dialog a PendingState resumes.
type PendingStateType string

const (
	PendingClarification    PendingStateType = "clarification"
	PendingLostItemLocation PendingStateType = "lost_item_location"
	PendingTaskQuantity     PendingStateType = "task_quantity"
	PendingTaskTiming       PendingStateType = "task_timing"
)

// PendingField identifies what the bot is waiting for.
type PendingField struct {
	EntityType string           `bson:"entityType" json:"entityType"` // e.g. "task", "message"
	EntityID   string           `bson:"entityId" json:"entityId"`
	Field      string           `bson:"field" json:"field"` // e.g. "location", "quantity"
	StateType  PendingStateType `bson:"stateType" json:"stateType"`
}

// PendingState is a sub-dialog resumption marker. At most one per conversation is unresolved.
type PendingState struct {
	ID             string            `bson:"id" json:"id"`
	ConversationID string            `bson:"conversationId" json:"conversationId"`
	TenantID       string            `bson:"tenantId" json:"tenantId"`
	PendingField   `bson:",inline"`
	Context        map[string]string `bson:"context,omitempty" json:"context,omitempty"` // e.g. the original question
	CreatedAt      time.Time         `bson:"createdAt" json:"createdAt"`
	ResolvedAt     *time.Time        `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}

// Context keys for PendingState.
const (
	PendingCtxOriginalMessage = "originalMessage"
	PendingCtxQuestion        = "question"
	PendingCtxItem            = "item"
)
