package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"concierge/middleware"
	"concierge/models"
	"concierge/services/concierge"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeConcierge struct {
	err      error
	received models.InboundMessage
	tenant   string
}

func (f *fakeConcierge) HandleMessage(_ context.Context, tenantID string, msg models.InboundMessage) (models.Reply, error) {
	f.tenant, f.received = tenantID, msg
	if f.err != nil {
		return models.Reply{}, f.err
	}
	return models.Reply{Text: "Hello!", Stage: concierge.StageClassifier, ConversationID: "c1", Mode: models.ModeNormal}, nil
}

func (f *fakeConcierge) GetConversation(_ context.Context, tenantID, id string) (*models.Conversation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Conversation{ID: id, TenantID: tenantID}, nil
}

func (f *fakeConcierge) ResetDialog(context.Context, string, string) error {
	return f.err
}

func newRouter(svc concierge.ConciergeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewConciergeHandler(svc)
	r := gin.New()
	r.Use(middleware.LoggingMiddleware(zap.NewNop()))
	r.Use(func(c *gin.Context) { c.Set(middleware.TenantIDKey, "t1") })
	r.POST("/messages", h.PostMessageHandler)
	r.GET("/conversations/:id", h.GetConversationHandler)
	r.DELETE("/conversations/:id/dialog", h.ResetDialogHandler)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostMessage(t *testing.T) {
	svc := &fakeConcierge{}
	w := do(newRouter(svc), http.MethodPost, "/messages", `{"conversationId":"c1","guestPhone":"+27820000000","text":"hi"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reply":"Hello!"`)
	assert.Contains(t, w.Body.String(), `"stage":"classifier"`)
	assert.Equal(t, "t1", svc.tenant)
	assert.Equal(t, "hi", svc.received.Text)
}

func TestPostMessageValidation(t *testing.T) {
	r := newRouter(&fakeConcierge{})

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/messages", `{"text":"hi"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/messages", `{"guestPhone":"1","text":"   "}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/messages", `not json`).Code)
}

func TestPostMessageErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{concierge.ErrTenantNotFound, http.StatusNotFound},
		{concierge.ErrConversationNotFound, http.StatusNotFound},
		{concierge.ErrLockTimeout, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		r := newRouter(&fakeConcierge{err: tt.err})
		w := do(r, http.MethodPost, "/messages", `{"guestPhone":"+27820000000","text":"hi"}`)
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
	}
}

func TestConversationEndpoints(t *testing.T) {
	r := newRouter(&fakeConcierge{})

	w := do(r, http.MethodGet, "/conversations/c9", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"c9"`)

	w = do(r, http.MethodDelete, "/conversations/c9/dialog", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"normal"`)

	missing := newRouter(&fakeConcierge{err: concierge.ErrConversationNotFound})
	assert.Equal(t, http.StatusNotFound, do(missing, http.MethodGet, "/conversations/c9", "").Code)
	assert.Equal(t, http.StatusNotFound, do(missing, http.MethodDelete, "/conversations/c9/dialog", "").Code)
}
