package concierge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"concierge/models"

	"go.uber.org/zap"
)

// Router runs the stages in StageOrder.
type Router struct {
	deps   Deps
	stages []Stage
}

// NewRouter wires the stages to their dependencies.
func NewRouter(deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	r := &Router{deps: deps}
	funcs := map[string]StageFunc{
		StagePending:     r.pendingStage,
		StageEmergency:   r.emergencyStage,
		StageKnowledge:   r.knowledgeStage,
		StageTransfer:    r.transferStage,
		StageBooking:     r.bookingStage,
		StageFollowup:    r.followupStage,
		StageAnalysis:    r.analysisStage,
		StageRules:       r.rulesStage,
		StageMaintenance: r.maintenanceStage,
		StageClassifier:  r.classifierStage,
		StageCriticalFAQ: r.criticalStage,
		StageGenerate:    r.generateStage,
		StageFallback:    r.fallbackStage,
	}
	for _, name := range StageOrder {
		r.stages = append(r.stages, Stage{Name: name, Run: funcs[name]})
	}
	return r
}

// Stages returns the stages in the order they run.
func (r *Router) Stages() []Stage { return r.stages }

var spaceRe = regexp.MustCompile(`\s+`)

// Normalize trims a message and collapses its whitespace.
func Normalize(message string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(message), " ")
}

// Route answers one guest message. It never fails: stage errors are logged and skipped, and
// the fallback stage always answers.
func (r *Router) Route(ctx context.Context, tenant models.Tenant, conv *models.Conversation, message string) models.Reply {
	log := r.deps.Logger.With(zap.String("conversationId", conv.ID), zap.String("tenantId", tenant.ID))
	t := r.newTurn(ctx, tenant, conv, Normalize(message), log)

	reply := r.run(ctx, t, log)
	reply.ConversationID = conv.ID
	reply.Tasks = t.Tasks
	if t.Analysis != nil {
		reply.Intents = t.Analysis.Intents
	}

	r.persist(ctx, t, &reply, message, log)
	return reply
}

func (r *Router) newTurn(ctx context.Context, tenant models.Tenant, conv *models.Conversation, message string, log *zap.Logger) *Turn {
	t := &Turn{
		Tenant:       tenant,
		Conversation: conv,
		Message:      message,
		Mode:         conv.Mode.Mode(),
	}
	history, err := r.deps.Store.GetRecentHistory(ctx, conv.ID, r.deps.Tuning.HistoryWindow)
	if err != nil {
		log.Warn("History unavailable for this turn", zap.Error(err))
	}
	t.History = history

	if r.deps.Guests != nil {
		status, err := r.deps.Guests.Status(ctx, tenant, conv.GuestPhone)
		if err != nil {
			log.Warn("Guest status unavailable, treating guest as unregistered", zap.Error(err))
		}
		t.Guest = status
	} else {
		t.Guest = models.GuestStatus{Lifecycle: models.LifecycleUnregistered}
	}
	return t
}

func (r *Router) run(ctx context.Context, t *Turn, log *zap.Logger) models.Reply {
	for _, stage := range r.stages {
		reply, err := r.runStage(ctx, stage, t)
		if err != nil {
			log.Error("Stage failed", zap.String("stage", stage.Name), zap.Error(err))
			continue
		}
		if reply == nil || strings.TrimSpace(reply.Text) == "" {
			continue
		}
		reply.Stage = stage.Name
		log.Info("Turn answered", zap.String("stage", stage.Name))
		return *reply
	}
	// Unreachable while the fallback stage is last, kept so Route can never return empty text.
	return models.Reply{Text: fallbackReply(t.Tenant), Stage: StageFallback}
}

// runStage turns a panic into a StageError.
func (r *Router) runStage(ctx context.Context, stage Stage, t *Turn) (reply *models.Reply, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reply = nil
			err = &StageError{Stage: stage.Name, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	reply, err = stage.Run(ctx, t)
	if err != nil {
		return nil, &StageError{Stage: stage.Name, Err: err}
	}
	return reply, nil
}

// persist appends the exchange to history and stores the next mode. Any storage failure
// leaves the conversation in normal mode.
func (r *Router) persist(ctx context.Context, t *Turn, reply *models.Reply, raw string, log *zap.Logger) {
	now := r.deps.Now()
	meta := map[string]string{models.MetaStage: reply.Stage}
	for k, v := range reply.Meta {
		meta[k] = v
	}
	err := r.deps.Store.AppendHistory(ctx, t.Conversation.ID,
		models.HistoryMsg{Role: models.RoleGuest, Text: strings.TrimSpace(raw), At: now},
		models.HistoryMsg{Role: models.RoleBot, Text: reply.Text, At: now, Meta: meta},
	)
	if err != nil {
		t.PersistenceFailed = true
		log.Error("Failed to append history", zap.Error(err))
	}

	next := t.NextMode
	if next == nil {
		next = t.Mode
	}
	if t.PersistenceFailed {
		next = models.Normal{}
	}
	if next == nil {
		next = models.Normal{}
	}

	if next.Kind() != t.Mode.Kind() || t.NextMode != nil || t.PersistenceFailed {
		if err := r.deps.Store.SetMode(ctx, t.Conversation.ID, next); err != nil {
			log.Error("Failed to persist mode, conversation falls back to normal", zap.Error(err))
			next = models.Normal{}
		}
	}
	reply.Mode = next.Kind()
}
