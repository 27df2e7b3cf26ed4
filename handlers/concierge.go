package handlers

import (
	"errors"
	"net/http"
	"strings"

	"concierge/middleware"
	"concierge/models"
	"concierge/services/concierge"
	"concierge/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConciergeHandler serves the guest messaging endpoints.
type ConciergeHandler struct {
	Service concierge.ConciergeService
}

func NewConciergeHandler(svc concierge.ConciergeService) *ConciergeHandler {
	return &ConciergeHandler{Service: svc}
}

// PostMessageHandler routes one inbound guest message and returns the concierge reply.
func (h *ConciergeHandler) PostMessageHandler(c *gin.Context) {
	logger := middleware.RequestLogger(c)
	tenantID := c.GetString(middleware.TenantIDKey)

	var msg models.InboundMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "Invalid message", err.Error())
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid_input", "Invalid message", "text is empty")
		return
	}

	reply, err := h.Service.HandleMessage(c.Request.Context(), tenantID, msg)
	if err != nil {
		switch {
		case errors.Is(err, concierge.ErrTenantNotFound):
			utils.JSONError(c, http.StatusNotFound, "tenant_not_found", "Tenant not found", tenantID)
		case errors.Is(err, concierge.ErrConversationNotFound):
			utils.JSONError(c, http.StatusNotFound, "conversation_not_found", "Conversation not found", msg.ConversationID)
		case errors.Is(err, concierge.ErrLockTimeout):
			utils.JSONError(c, http.StatusConflict, "conversation_busy", "Conversation is busy, please retry", "")
		default:
			logger.Error("Failed to handle message", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to handle message", "")
		}
		return
	}
	c.JSON(http.StatusOK, reply)
}

// GetConversationHandler returns a conversation with its recent history.
func (h *ConciergeHandler) GetConversationHandler(c *gin.Context) {
	tenantID := c.GetString(middleware.TenantIDKey)
	conv, err := h.Service.GetConversation(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		if errors.Is(err, concierge.ErrConversationNotFound) {
			utils.JSONError(c, http.StatusNotFound, "conversation_not_found", "Conversation not found", c.Param("id"))
			return
		}
		middleware.RequestLogger(c).Error("Failed to load conversation", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to load conversation", "")
		return
	}
	c.JSON(http.StatusOK, conv)
}

// ResetDialogHandler drops a conversation's booking dialog or pending question.
func (h *ConciergeHandler) ResetDialogHandler(c *gin.Context) {
	tenantID := c.GetString(middleware.TenantIDKey)
	err := h.Service.ResetDialog(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, concierge.ErrConversationNotFound):
			utils.JSONError(c, http.StatusNotFound, "conversation_not_found", "Conversation not found", c.Param("id"))
		case errors.Is(err, concierge.ErrLockTimeout):
			utils.JSONError(c, http.StatusConflict, "conversation_busy", "Conversation is busy, please retry", "")
		default:
			middleware.RequestLogger(c).Error("Failed to reset dialog", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to reset dialog", "")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversationId": c.Param("id"), "mode": models.ModeNormal})
}

// HealthHandler reports the latest dependency health snapshot.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	state := "ok"
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(code, gin.H{"status": state, "message": "Hi, I'm the concierge", "dependencies": status})
}
