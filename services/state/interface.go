package state

import (
	"context"
	"fmt"

	conversationRepo "concierge/database/repository/conversation"
	pendingRepo "concierge/database/repository/pending"
	"concierge/models"

	"go.uber.org/zap"
)

// Store is the per-conversation state the router reads and writes each turn.
type Store interface {
	// EnsureConversation loads the conversation by id, else the guest's latest one, else
	// creates a new one.
	EnsureConversation(ctx context.Context, tenantID, conversationID, guestPhone, channel string) (*models.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)

	GetMode(ctx context.Context, conversationID string) (models.Mode, error)
	SetMode(ctx context.Context, conversationID string, mode models.Mode) error
	// GetSlotState returns the slots of a gathering conversation, or nil.
	GetSlotState(ctx context.Context, conversationID string) (*models.BookingSlotState, error)
	// SetSlotState stores the slots and puts the conversation in gathering mode.
	SetSlotState(ctx context.Context, conversationID string, slots models.BookingSlotState) error

	// CreatePendingState stores a marker, resolving any open one first.
	CreatePendingState(ctx context.Context, p *models.PendingState) error
	ResolvePendingState(ctx context.Context, id string) error
	// GetPendingState returns the open marker of a conversation, or nil.
	GetPendingState(ctx context.Context, conversationID string) (*models.PendingState, error)

	AppendHistory(ctx context.Context, conversationID string, msgs ...models.HistoryMsg) error
	// GetRecentHistory returns the last n messages, oldest first.
	GetRecentHistory(ctx context.Context, conversationID string, n int) ([]models.HistoryMsg, error)
}

// PersistenceError wraps a storage failure. The router answers it by forcing normal mode.
type PersistenceError struct {
	Op             string
	ConversationID string
	Err            error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("state %s for conversation %s: %v", e.Op, e.ConversationID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op, conversationID string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, ConversationID: conversationID, Err: err}
}

// DefaultStore is the production Store over MongoDB with an optional Redis history cache.
type DefaultStore struct {
	Conversations conversationRepo.ConversationRepository
	Pending       pendingRepo.PendingRepository
	History       *RedisHistoryCache // nil disables caching
	Logger        *zap.Logger
}
