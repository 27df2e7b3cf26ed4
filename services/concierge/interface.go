// Package concierge routes each guest message through an ordered list of stages and returns
// exactly one reply.
package concierge

import (
	"context"
	"fmt"
	"time"

	"concierge/config"
	"concierge/models"
	"concierge/services/actions"
	"concierge/services/catalog"
	"concierge/services/classifier"
	"concierge/services/guest"
	ai "concierge/services/intelligence"
	"concierge/services/knowledge"
	"concierge/services/rules"
	"concierge/services/slots"
	"concierge/services/state"

	"go.uber.org/zap"
)

// Stage names, in routing order.
const (
	StagePending     = "pending"
	StageEmergency   = "emergency"
	StageKnowledge   = "knowledge"
	StageTransfer    = "transfer"
	StageBooking     = "booking"
	StageFollowup    = "followup"
	StageAnalysis    = "analysis"
	StageRules       = "rules"
	StageMaintenance = "maintenance"
	StageClassifier  = "classifier"
	StageCriticalFAQ = "critical_faq"
	StageGenerate    = "generate"
	StageFallback    = "fallback"
)

// StageOrder is the fixed routing order. The first stage that returns a reply wins.
var StageOrder = []string{
	StagePending,
	StageEmergency,
	StageKnowledge,
	StageTransfer,
	StageBooking,
	StageFollowup,
	StageAnalysis,
	StageRules,
	StageMaintenance,
	StageClassifier,
	StageCriticalFAQ,
	StageGenerate,
	StageFallback,
}

// Deps are the collaborators of the router.
type Deps struct {
	Store      state.Store
	Oracle     ai.Oracle
	Catalog    catalog.CatalogService
	Knowledge  knowledge.KnowledgeService
	Rules      rules.RulesService
	Guests     guest.GuestService
	Tasks      actions.TaskSink
	Extractor  *actions.Extractor
	Slots      *slots.Engine
	Classifier *classifier.Classifier
	Tuning     config.Tuning
	Now        func() time.Time
	Logger     *zap.Logger
}

// Turn is the working state of one message as it moves through the stages. Stages may read
// anything and record side effects; only the stage that answers sets the reply.
type Turn struct {
	Tenant       models.Tenant
	Conversation *models.Conversation
	Message      string // normalised; a resumed clarification replaces it
	History      []models.HistoryMsg
	Guest        models.GuestStatus
	Mode         models.Mode
	// NextMode is the mode to persist after the turn; nil keeps Mode.
	NextMode models.Mode
	Analysis *models.IntentAnalysis
	// SkipAmbiguity is set when the message already answers a clarification question.
	SkipAmbiguity bool
	Tasks         []models.StaffTask
	Warnings      []models.RuleViolation
	// PersistenceFailed forces normal mode at the end of the turn.
	PersistenceFailed bool

	catalog *models.CatalogSnapshot
}

// LastBot returns the previous bot message of the conversation.
func (t *Turn) LastBot() (models.HistoryMsg, bool) {
	return models.LastBotMessage(t.History)
}

// StageFunc runs one stage. A nil reply with a nil error passes the turn to the next stage.
type StageFunc func(ctx context.Context, t *Turn) (*models.Reply, error)

// Stage is a named routing step.
type Stage struct {
	Name string
	Run  StageFunc
}

// StageError is a stage that failed or panicked. The router logs it and moves on.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
