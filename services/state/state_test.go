package state

import (
	"context"
	"errors"
	"testing"
	"time"

	conversationRepo "concierge/database/repository/conversation"
	"concierge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConversations struct {
	convs   map[string]*models.Conversation
	failErr error
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{convs: map[string]*models.Conversation{}}
}

func (f *fakeConversations) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	c, ok := f.convs[id]
	if !ok {
		return nil, conversationRepo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConversations) FindByGuest(_ context.Context, tenantID, guestPhone string) (*models.Conversation, error) {
	for _, c := range f.convs {
		if c.TenantID == tenantID && c.GuestPhone == guestPhone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, conversationRepo.ErrNotFound
}

func (f *fakeConversations) Create(_ context.Context, conv *models.Conversation) error {
	cp := *conv
	f.convs[conv.ID] = &cp
	return nil
}

func (f *fakeConversations) SetMode(_ context.Context, id string, mode models.ModeRecord) error {
	c, ok := f.convs[id]
	if !ok {
		return conversationRepo.ErrNotFound
	}
	c.Mode = mode
	return nil
}

func (f *fakeConversations) AppendHistory(_ context.Context, id string, msgs ...models.HistoryMsg) error {
	c, ok := f.convs[id]
	if !ok {
		return conversationRepo.ErrNotFound
	}
	c.History = append(c.History, msgs...)
	return nil
}

func (f *fakeConversations) RecentHistory(_ context.Context, id string, n int) ([]models.HistoryMsg, error) {
	c, ok := f.convs[id]
	if !ok {
		return nil, conversationRepo.ErrNotFound
	}
	h := c.History
	if n < len(h) {
		h = h[len(h)-n:]
	}
	return append([]models.HistoryMsg(nil), h...), nil
}

func (f *fakeConversations) FindStaleDialogs(context.Context, time.Time, int64) ([]string, error) {
	return nil, nil
}

type fakePending struct {
	items []*models.PendingState
}

func (f *fakePending) Create(_ context.Context, p *models.PendingState) error {
	now := time.Now()
	for _, open := range f.items {
		if open.ConversationID == p.ConversationID && open.ResolvedAt == nil {
			open.ResolvedAt = &now
		}
	}
	cp := *p
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakePending) FindOpen(_ context.Context, conversationID string) (*models.PendingState, error) {
	for _, p := range f.items {
		if p.ConversationID == conversationID && p.ResolvedAt == nil {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePending) Resolve(_ context.Context, id string, at time.Time) error {
	for _, p := range f.items {
		if p.ID == id {
			p.ResolvedAt = &at
		}
	}
	return nil
}

func (f *fakePending) ResolveAll(_ context.Context, conversationID string, at time.Time) error {
	for _, p := range f.items {
		if p.ConversationID == conversationID && p.ResolvedAt == nil {
			p.ResolvedAt = &at
		}
	}
	return nil
}

func newDefaultStore() (*DefaultStore, *fakeConversations) {
	convs := newFakeConversations()
	return &DefaultStore{
		Conversations: convs,
		Pending:       &fakePending{},
		Logger:        zap.NewNop(),
	}, convs
}

func guestMsg(text string) models.HistoryMsg {
	return models.HistoryMsg{Role: models.RoleGuest, Text: text}
}

func TestDefaultStoreEnsureConversation(t *testing.T) {
	ctx := context.Background()
	s, _ := newDefaultStore()

	created, err := s.EnsureConversation(ctx, "t1", "", "+27820000001", "whatsapp")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.ModeNormal, created.Mode.Kind)

	again, err := s.EnsureConversation(ctx, "t1", "", "+27820000001", "whatsapp")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	byID, err := s.EnsureConversation(ctx, "t1", created.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	_, err = s.EnsureConversation(ctx, "t2", created.ID, "", "")
	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestDefaultStoreWrapsRepositoryErrors(t *testing.T) {
	s, convs := newDefaultStore()
	convs.failErr = errors.New("connection reset")

	_, err := s.EnsureConversation(context.Background(), "t1", "c1", "", "")

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "ensure", perr.Op)
	assert.ErrorIs(t, err, convs.failErr)
}

func TestDefaultStoreSlotStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newDefaultStore()
	_, err := s.EnsureConversation(ctx, "t1", "c1", "", "")
	require.NoError(t, err)

	slots, err := s.GetSlotState(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, slots)

	name := "Kruger Day Trip"
	require.NoError(t, s.SetSlotState(ctx, "c1", models.BookingSlotState{ServiceName: &name}))

	mode, err := s.GetMode(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeGatheringBookingInfo, mode.Kind())

	slots, err = s.GetSlotState(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, slots)
	require.NotNil(t, slots.ServiceName)
	assert.Equal(t, name, *slots.ServiceName)

	require.NoError(t, s.SetMode(ctx, "c1", models.Normal{}))
	slots, err = s.GetSlotState(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, slots)
}

func TestDefaultStorePendingStateKeepsOneOpen(t *testing.T) {
	ctx := context.Background()
	s, _ := newDefaultStore()

	first := &models.PendingState{ConversationID: "c1", PendingField: models.PendingField{Field: "quantity"}}
	require.NoError(t, s.CreatePendingState(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := &models.PendingState{ConversationID: "c1", PendingField: models.PendingField{Field: "location"}}
	require.NoError(t, s.CreatePendingState(ctx, second))

	open, err := s.GetPendingState(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, second.ID, open.ID)

	require.NoError(t, s.ResolvePendingState(ctx, second.ID))
	open, err = s.GetPendingState(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestDefaultStoreHistoryWithoutCache(t *testing.T) {
	ctx := context.Background()
	s, _ := newDefaultStore()
	_, err := s.EnsureConversation(ctx, "t1", "c1", "", "")
	require.NoError(t, err)

	require.NoError(t, s.AppendHistory(ctx, "c1", guestMsg("one"), guestMsg("two")))
	require.NoError(t, s.AppendHistory(ctx, "c1", guestMsg("three")))

	recent, err := s.GetRecentHistory(ctx, "c1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[0].Text)
	assert.Equal(t, "three", recent[1].Text)

	err = s.AppendHistory(ctx, "missing", guestMsg("x"))
	assert.ErrorIs(t, err, conversationRepo.ErrNotFound)
}

func TestMemoryStoreReusesGuestConversation(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	a, err := m.EnsureConversation(ctx, "t1", "", "+27820000001", "web")
	require.NoError(t, err)
	b, err := m.EnsureConversation(ctx, "t1", "", "+27820000001", "web")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	other, err := m.EnsureConversation(ctx, "t2", "", "+27820000001", "web")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, other.ID)
}

func TestMemoryStoreFailWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	_, err := m.EnsureConversation(ctx, "t1", "c1", "", "")
	require.NoError(t, err)

	m.FailWrites = true

	var perr *PersistenceError
	assert.ErrorAs(t, m.SetMode(ctx, "c1", models.Normal{}), &perr)
	assert.ErrorAs(t, m.AppendHistory(ctx, "c1", guestMsg("hi")), &perr)
	assert.ErrorAs(t, m.CreatePendingState(ctx, &models.PendingState{ConversationID: "c1"}), &perr)

	// reads keep working
	mode, err := m.GetMode(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeNormal, mode.Kind())
}

func TestMemoryStoreHistoryIsCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	_, err := m.EnsureConversation(ctx, "t1", "c1", "", "")
	require.NoError(t, err)
	require.NoError(t, m.AppendHistory(ctx, "c1", guestMsg("hello")))

	conv, err := m.GetConversation(ctx, "c1")
	require.NoError(t, err)
	conv.History[0].Text = "changed"

	recent, err := m.GetRecentHistory(ctx, "c1", 10)
	require.NoError(t, err)
	assert.Equal(t, "hello", recent[0].Text)

	none, err := m.GetRecentHistory(ctx, "c1", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
