package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"concierge/models"

	"github.com/google/uuid"
)

// ErrConversationNotFound is returned by MemoryStore for unknown conversations.
var ErrConversationNotFound = errors.New("conversation not found")

// MemoryStore is an in-process Store, used by tests and local runs without MongoDB.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	pending       map[string]*models.PendingState

	// FailWrites makes every mutating call fail, for exercising persistence-failure paths.
	FailWrites bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: map[string]*models.Conversation{},
		pending:       map[string]*models.PendingState{},
	}
}

func (m *MemoryStore) writeErr(op, id string) error {
	if m.FailWrites {
		return persistErr(op, id, errors.New("store unavailable"))
	}
	return nil
}

func (m *MemoryStore) EnsureConversation(_ context.Context, tenantID, conversationID, guestPhone, channel string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conv, ok := m.conversations[conversationID]; ok {
		c := *conv
		return &c, nil
	}
	if conversationID == "" && guestPhone != "" {
		var latest *models.Conversation
		for _, c := range m.conversations {
			if c.TenantID == tenantID && c.GuestPhone == guestPhone && (latest == nil || c.UpdatedAt.After(latest.UpdatedAt)) {
				latest = c
			}
		}
		if latest != nil {
			c := *latest
			return &c, nil
		}
	}
	if err := m.writeErr("create", conversationID); err != nil {
		return nil, err
	}
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	now := time.Now()
	conv := &models.Conversation{
		ID:         conversationID,
		TenantID:   tenantID,
		GuestPhone: guestPhone,
		Channel:    channel,
		Mode:       models.RecordOf(models.Normal{}),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.conversations[conversationID] = conv
	c := *conv
	return &c, nil
}

func (m *MemoryStore) GetConversation(_ context.Context, conversationID string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[conversationID]
	if !ok {
		return nil, persistErr("get", conversationID, ErrConversationNotFound)
	}
	c := *conv
	c.History = append([]models.HistoryMsg(nil), conv.History...)
	return &c, nil
}

func (m *MemoryStore) GetMode(ctx context.Context, conversationID string) (models.Mode, error) {
	conv, err := m.GetConversation(ctx, conversationID)
	if err != nil {
		return models.Normal{}, err
	}
	return conv.Mode.Mode(), nil
}

func (m *MemoryStore) SetMode(_ context.Context, conversationID string, mode models.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr("set mode", conversationID); err != nil {
		return err
	}
	conv, ok := m.conversations[conversationID]
	if !ok {
		return persistErr("set mode", conversationID, ErrConversationNotFound)
	}
	conv.Mode = models.RecordOf(mode)
	conv.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) GetSlotState(ctx context.Context, conversationID string) (*models.BookingSlotState, error) {
	mode, err := m.GetMode(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if g, ok := mode.(models.Gathering); ok {
		slots := g.Slots
		return &slots, nil
	}
	return nil, nil
}

func (m *MemoryStore) SetSlotState(ctx context.Context, conversationID string, slots models.BookingSlotState) error {
	return m.SetMode(ctx, conversationID, models.Gathering{Slots: slots})
}

func (m *MemoryStore) CreatePendingState(_ context.Context, p *models.PendingState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr("create pending", p.ConversationID); err != nil {
		return err
	}
	now := time.Now()
	for _, open := range m.pending {
		if open.ConversationID == p.ConversationID && open.ResolvedAt == nil {
			open.ResolvedAt = &now
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	stored := *p
	m.pending[p.ID] = &stored
	return nil
}

func (m *MemoryStore) ResolvePendingState(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr("resolve pending", ""); err != nil {
		return err
	}
	if p, ok := m.pending[id]; ok && p.ResolvedAt == nil {
		now := time.Now()
		p.ResolvedAt = &now
	}
	return nil
}

func (m *MemoryStore) GetPendingState(_ context.Context, conversationID string) (*models.PendingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pending {
		if p.ConversationID == conversationID && p.ResolvedAt == nil {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) AppendHistory(_ context.Context, conversationID string, msgs ...models.HistoryMsg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr("append history", conversationID); err != nil {
		return err
	}
	conv, ok := m.conversations[conversationID]
	if !ok {
		return persistErr("append history", conversationID, ErrConversationNotFound)
	}
	conv.History = append(conv.History, msgs...)
	conv.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) GetRecentHistory(_ context.Context, conversationID string, n int) ([]models.HistoryMsg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[conversationID]
	if !ok {
		return nil, persistErr("recent history", conversationID, ErrConversationNotFound)
	}
	if n <= 0 {
		return nil, nil
	}
	h := conv.History
	if n < len(h) {
		h = h[len(h)-n:]
	}
	return append([]models.HistoryMsg(nil), h...), nil
}
