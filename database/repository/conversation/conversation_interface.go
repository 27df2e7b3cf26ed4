package conversationRepo

import (
	"context"
	"errors"
	"time"

	"concierge/models"
)

// ErrNotFound is returned when no conversation matches the lookup.
var ErrNotFound = errors.New("conversation not found")

// ConversationRepository defines methods for conversation data access.
type ConversationRepository interface {
	// GetByID retrieves a conversation without its history.
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	// FindByGuest returns the most recent conversation of a guest at a tenant.
	FindByGuest(ctx context.Context, tenantID, guestPhone string) (*models.Conversation, error)
	// Create inserts a new conversation.
	Create(ctx context.Context, conv *models.Conversation) error
	// SetMode replaces the stored mode record.
	SetMode(ctx context.Context, id string, mode models.ModeRecord) error
	// AppendHistory appends messages to the history in order.
	AppendHistory(ctx context.Context, id string, msgs ...models.HistoryMsg) error
	// RecentHistory returns the last n history messages, oldest first.
	RecentHistory(ctx context.Context, id string, n int) ([]models.HistoryMsg, error)
	// FindStaleDialogs lists conversations whose mode is not normal and that were last
	// updated before the cutoff.
	FindStaleDialogs(ctx context.Context, before time.Time, limit int64) ([]string, error)
}
