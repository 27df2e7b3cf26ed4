// Package slots runs the multi-turn booking dialog: it extracts booking details from each guest
// message, works out what is still missing, asks for it, and books once everything is known.
package slots

import (
	"context"
	"fmt"
	"time"

	"concierge/models"
	"concierge/services/actions"
	"concierge/services/catalog"
	ai "concierge/services/intelligence"

	"go.uber.org/zap"
)

// State is where a booking dialog stands after a turn.
type State string

const (
	StateIdle               State = "idle"
	StateGathering          State = "gathering"
	StateReady              State = "ready"
	StateMaxAttemptsReached State = "max_attempts_reached"
	StateCancelled          State = "cancelled"
	StateCreated            State = "created"
	StateInvalid            State = "invalid"
	StateEscalated          State = "escalated"
)

// RequiredFields looks up tenant overrides of the required booking fields. A nil result means
// the defaults apply.
type RequiredFields interface {
	GetRequiredFields(ctx context.Context, tenantID string, category models.ServiceCategory, serviceID string) ([]string, error)
}

// Turn is what the engine needs to know about the current message.
type Turn struct {
	Tenant         models.Tenant
	ConversationID string
	Room           string
	Message        string
	History        []models.HistoryMsg
}

// Outcome is the result of one dialog turn. Mode is what the conversation should be left in.
type Outcome struct {
	State   State
	Reply   string
	Mode    models.Mode
	Slots   models.BookingSlotState
	Missing []string
	Task    *models.StaffTask
}

// ValidationError is a booking that cannot go ahead as asked. The dialog keeps its state so the
// guest can correct it.
type ValidationError struct {
	Code        string
	Message     string
	Alternative string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("booking validation failed (%s): %s", e.Code, e.Message)
}

// GuestMessage is the text shown to the guest.
func (e *ValidationError) GuestMessage() string {
	if e.Alternative == "" {
		return e.Message
	}
	return e.Message + " " + e.Alternative
}

// Engine is the slot-filling state machine. It never persists anything itself; the caller
// stores Outcome.Mode.
type Engine struct {
	Oracle       ai.Oracle
	Catalog      catalog.CatalogService
	Rules        RequiredFields
	Tasks        actions.TaskSink
	MaxQuestions int
	Now          func() time.Time
	Logger       *zap.Logger
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
