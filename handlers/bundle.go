package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Concierge endpoints
	PostMessageHandler     gin.HandlerFunc
	GetConversationHandler gin.HandlerFunc
	ResetDialogHandler     gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}
