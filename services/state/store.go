package state

import (
	"context"
	"errors"
	"time"

	conversationRepo "concierge/database/repository/conversation"
	"concierge/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultStore) EnsureConversation(ctx context.Context, tenantID, conversationID, guestPhone, channel string) (*models.Conversation, error) {
	if conversationID != "" {
		conv, err := s.Conversations.GetByID(ctx, conversationID)
		if err == nil {
			if conv.TenantID != tenantID {
				return nil, persistErr("ensure", conversationID, errors.New("conversation belongs to another tenant"))
			}
			return conv, nil
		}
		if !errors.Is(err, conversationRepo.ErrNotFound) {
			return nil, persistErr("ensure", conversationID, err)
		}
	} else if guestPhone != "" {
		conv, err := s.Conversations.FindByGuest(ctx, tenantID, guestPhone)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, conversationRepo.ErrNotFound) {
			return nil, persistErr("ensure", "", err)
		}
	}

	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	conv := &models.Conversation{
		ID:         conversationID,
		TenantID:   tenantID,
		GuestPhone: guestPhone,
		Channel:    channel,
		Mode:       models.RecordOf(models.Normal{}),
	}
	if err := s.Conversations.Create(ctx, conv); err != nil {
		return nil, persistErr("create", conversationID, err)
	}
	s.Logger.Info("conversation created",
		zap.String("conversationId", conv.ID),
		zap.String("tenantId", tenantID))
	return conv, nil
}

func (s *DefaultStore) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	conv, err := s.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, persistErr("get", conversationID, err)
	}
	return conv, nil
}

func (s *DefaultStore) GetMode(ctx context.Context, conversationID string) (models.Mode, error) {
	conv, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return models.Normal{}, err
	}
	return conv.Mode.Mode(), nil
}

func (s *DefaultStore) SetMode(ctx context.Context, conversationID string, mode models.Mode) error {
	return persistErr("set mode", conversationID, s.Conversations.SetMode(ctx, conversationID, models.RecordOf(mode)))
}

func (s *DefaultStore) GetSlotState(ctx context.Context, conversationID string) (*models.BookingSlotState, error) {
	mode, err := s.GetMode(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if g, ok := mode.(models.Gathering); ok {
		slots := g.Slots
		return &slots, nil
	}
	return nil, nil
}

func (s *DefaultStore) SetSlotState(ctx context.Context, conversationID string, slots models.BookingSlotState) error {
	return s.SetMode(ctx, conversationID, models.Gathering{Slots: slots})
}

func (s *DefaultStore) CreatePendingState(ctx context.Context, p *models.PendingState) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return persistErr("create pending", p.ConversationID, s.Pending.Create(ctx, p))
}

func (s *DefaultStore) ResolvePendingState(ctx context.Context, id string) error {
	return persistErr("resolve pending", "", s.Pending.Resolve(ctx, id, time.Now()))
}

func (s *DefaultStore) GetPendingState(ctx context.Context, conversationID string) (*models.PendingState, error) {
	p, err := s.Pending.FindOpen(ctx, conversationID)
	if err != nil {
		return nil, persistErr("get pending", conversationID, err)
	}
	return p, nil
}

func (s *DefaultStore) AppendHistory(ctx context.Context, conversationID string, msgs ...models.HistoryMsg) error {
	if err := s.Conversations.AppendHistory(ctx, conversationID, msgs...); err != nil {
		return persistErr("append history", conversationID, err)
	}
	if s.History != nil {
		if err := s.History.Append(ctx, conversationID, msgs...); err != nil {
			s.Logger.Warn("history cache append failed", zap.String("conversationId", conversationID), zap.Error(err))
			s.History.Invalidate(ctx, conversationID)
		}
	}
	return nil
}

func (s *DefaultStore) GetRecentHistory(ctx context.Context, conversationID string, n int) ([]models.HistoryMsg, error) {
	if s.History != nil {
		msgs, ok, err := s.History.Recent(ctx, conversationID, n)
		if err != nil {
			s.Logger.Warn("history cache read failed", zap.String("conversationId", conversationID), zap.Error(err))
		} else if ok {
			return msgs, nil
		}
	}

	msgs, err := s.Conversations.RecentHistory(ctx, conversationID, n)
	if err != nil {
		return nil, persistErr("recent history", conversationID, err)
	}
	if s.History != nil && len(msgs) > 0 {
		if err := s.History.Fill(ctx, conversationID, msgs, len(msgs) < n); err != nil {
			s.Logger.Warn("history cache fill failed", zap.String("conversationId", conversationID), zap.Error(err))
		}
	}
	return msgs, nil
}
