package concierge

import (
	"context"
	"errors"
	"fmt"
	"time"

	tenantRepo "concierge/database/repository/tenant"
	"concierge/models"
	"concierge/services/state"

	"go.uber.org/zap"
)

var (
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrConversationNotFound = errors.New("conversation not found")
)

// ConversationHistoryLimit caps the history returned by GetConversation.
const ConversationHistoryLimit = 50

// ConciergeService is the entry point used by the HTTP layer.
type ConciergeService interface {
	HandleMessage(ctx context.Context, tenantID string, msg models.InboundMessage) (models.Reply, error)
	GetConversation(ctx context.Context, tenantID, conversationID string) (*models.Conversation, error)
	// ResetDialog drops any booking dialog or pending question of a conversation.
	ResetDialog(ctx context.Context, tenantID, conversationID string) error
}

// DefaultConciergeService is the production implementation.
type DefaultConciergeService struct {
	Router   *Router
	Store    state.Store
	Tenants  tenantRepo.TenantRepository
	Locker   Locker
	LockWait time.Duration
	Logger   *zap.Logger
}

func (s *DefaultConciergeService) tenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	t, err := s.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, tenantRepo.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("load tenant %s: %w", tenantID, err)
	}
	return t, nil
}

func (s *DefaultConciergeService) HandleMessage(ctx context.Context, tenantID string, msg models.InboundMessage) (models.Reply, error) {
	tenant, err := s.tenant(ctx, tenantID)
	if err != nil {
		return models.Reply{}, err
	}
	conv, err := s.Store.EnsureConversation(ctx, tenant.ID, msg.ConversationID, msg.GuestPhone, msg.Channel)
	if err != nil {
		return models.Reply{}, fmt.Errorf("open conversation: %w", err)
	}
	if conv.TenantID != tenant.ID {
		return models.Reply{}, ErrConversationNotFound
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.LockWait)
	defer cancel()
	unlock, err := s.Locker.Lock(lockCtx, conv.ID)
	if err != nil {
		return models.Reply{}, fmt.Errorf("lock conversation %s: %w", conv.ID, err)
	}
	defer unlock()

	// Another turn may have changed the mode while this one waited.
	if fresh, err := s.Store.GetConversation(ctx, conv.ID); err == nil {
		conv = fresh
	}

	reply := s.Router.Route(ctx, *tenant, conv, msg.Text)
	s.Logger.Info("Message handled",
		zap.String("tenantId", tenant.ID),
		zap.String("conversationId", conv.ID),
		zap.String("stage", reply.Stage),
		zap.Int("tasks", len(reply.Tasks)))
	return reply, nil
}

func (s *DefaultConciergeService) conversation(ctx context.Context, tenantID, conversationID string) (*models.Conversation, error) {
	conv, err := s.Store.GetConversation(ctx, conversationID)
	if err != nil || conv == nil || conv.TenantID != tenantID {
		if err != nil {
			s.Logger.Debug("Conversation lookup failed", zap.String("conversationId", conversationID), zap.Error(err))
		}
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *DefaultConciergeService) GetConversation(ctx context.Context, tenantID, conversationID string) (*models.Conversation, error) {
	conv, err := s.conversation(ctx, tenantID, conversationID)
	if err != nil {
		return nil, err
	}
	history, err := s.Store.GetRecentHistory(ctx, conv.ID, ConversationHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	conv.History = history
	return conv, nil
}

func (s *DefaultConciergeService) ResetDialog(ctx context.Context, tenantID, conversationID string) error {
	conv, err := s.conversation(ctx, tenantID, conversationID)
	if err != nil {
		return err
	}
	lockCtx, cancel := context.WithTimeout(ctx, s.LockWait)
	defer cancel()
	unlock, err := s.Locker.Lock(lockCtx, conv.ID)
	if err != nil {
		return fmt.Errorf("lock conversation %s: %w", conv.ID, err)
	}
	defer unlock()

	if p, err := s.Store.GetPendingState(ctx, conv.ID); err == nil && p != nil {
		if err := s.Store.ResolvePendingState(ctx, p.ID); err != nil {
			return err
		}
	}
	if err := s.Store.SetMode(ctx, conv.ID, models.Normal{}); err != nil {
		return err
	}
	s.Logger.Info("Dialog reset", zap.String("conversationId", conv.ID))
	return nil
}
