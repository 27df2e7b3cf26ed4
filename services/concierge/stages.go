package concierge

import (
	"context"
	"strings"

	"concierge/models"
	"concierge/services/actions"
	"concierge/services/classifier"
	"concierge/services/detect"
	ai "concierge/services/intelligence"
	"concierge/services/rules"
	"concierge/services/slots"
	"concierge/services/validator"

	"go.uber.org/zap"
)

func reply(text string) *models.Reply {
	return &models.Reply{Text: text}
}

// snapshot loads the catalog once per turn.
func (r *Router) snapshot(ctx context.Context, t *Turn) (models.CatalogSnapshot, error) {
	if t.catalog != nil {
		return *t.catalog, nil
	}
	snap, err := r.deps.Catalog.Snapshot(ctx, t.Tenant.ID)
	if err != nil {
		return models.CatalogSnapshot{}, err
	}
	t.catalog = &snap
	return snap, nil
}

func (r *Router) log(t *Turn) *zap.Logger {
	return r.deps.Logger.With(zap.String("conversationId", t.Conversation.ID))
}

// createTask records a task for the turn. Failures are logged; the guest still gets an answer.
func (r *Router) createTask(ctx context.Context, t *Turn, req actions.TaskRequest) *models.StaffTask {
	req.TenantID = t.Tenant.ID
	req.ConversationID = t.Conversation.ID
	if req.Room == "" {
		req.Room = t.Guest.Room
	}
	out, err := r.deps.Tasks.CreateOrUpdateTask(ctx, req)
	if err != nil {
		r.log(t).Error("Failed to create task", zap.String("type", string(req.Type)), zap.Error(err))
		return nil
	}
	t.Tasks = append(t.Tasks, *out.Task)
	return out.Task
}

// clearDialog drops any booking dialog or pending question.
func (r *Router) clearDialog(ctx context.Context, t *Turn) {
	t.NextMode = models.Normal{}
	p, err := r.deps.Store.GetPendingState(ctx, t.Conversation.ID)
	if err != nil || p == nil {
		return
	}
	if err := r.deps.Store.ResolvePendingState(ctx, p.ID); err != nil {
		t.PersistenceFailed = true
		r.log(t).Error("Failed to resolve pending state", zap.Error(err))
	}
}

// await stores a pending question and moves the conversation into clarification mode.
func (r *Router) await(ctx context.Context, t *Turn, field models.PendingField, extra map[string]string) {
	p := &models.PendingState{
		ConversationID: t.Conversation.ID,
		TenantID:       t.Tenant.ID,
		PendingField:   field,
		Context:        extra,
		CreatedAt:      r.deps.Now(),
	}
	if err := r.deps.Store.CreatePendingState(ctx, p); err != nil {
		t.PersistenceFailed = true
		r.log(t).Error("Failed to store pending state", zap.Error(err))
		return
	}
	t.NextMode = models.AwaitingClarification{Field: field}
}

func taskMeta(task *models.StaffTask) map[string]string {
	if task == nil {
		return nil
	}
	return map[string]string{
		models.MetaTaskIdentity: task.ItemIdentity,
		models.MetaTaskItem:     task.Item,
		models.MetaTaskType:     string(task.Type),
		models.MetaTaskID:       task.ID,
		models.MetaTaskDept:     task.Department,
	}
}

func (r *Router) slotTurn(t *Turn) slots.Turn {
	return slots.Turn{
		Tenant:         t.Tenant,
		ConversationID: t.Conversation.ID,
		Room:           t.Guest.Room,
		Message:        t.Message,
		History:        t.History,
	}
}

func (t *Turn) applySlots(out slots.Outcome) *models.Reply {
	t.NextMode = out.Mode
	if out.Task != nil {
		t.Tasks = append(t.Tasks, *out.Task)
	}
	return reply(out.Reply)
}

// pendingStage resumes a sub-dialog the bot opened on an earlier turn.
func (r *Router) pendingStage(ctx context.Context, t *Turn) (*models.Reply, error) {
	p, err := r.deps.Store.GetPendingState(ctx, t.Conversation.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		// A lost or already resolved marker must not leave the conversation waiting.
		if _, ok := t.Mode.(models.AwaitingClarification); ok {
			r.log(t).Warn("Awaiting clarification without an open pending state, resetting mode")
			t.Mode = models.Normal{}
			t.NextMode = models.Normal{}
		}
		return nil, nil
	}
	resolve := func() {
		if err := r.deps.Store.ResolvePendingState(ctx, p.ID); err != nil {
			t.PersistenceFailed = true
			r.log(t).Error("Failed to resolve pending state", zap.Error(err))
		}
		t.NextMode = models.Normal{}
		if _, ok := t.Mode.(models.AwaitingClarification); ok {
			t.Mode = models.Normal{}
		}
	}
	rc := classifier.ClassifyReply(t.Message)

	switch p.StateType {
	case models.PendingClarification:
		resolve()
		if original := p.Context[models.PendingCtxOriginalMessage]; original != "" {
			t.Message = original + " " + t.Message
		}
		t.SkipAmbiguity = true
		return nil, nil

	case models.PendingLostItemLocation:
		resolve()
		item := p.Context[models.PendingCtxItem]
		if rc.Kind == classifier.ReplyNegative {
			return reply(lostItemNoIdea), nil
		}
		if _, err := r.deps.Tasks.UpdateTask(ctx, p.EntityID, 0, map[string]string{"location": t.Message}); err != nil {
			return nil, err
		}
		return reply(lostItemThanks(item)), nil

	case models.PendingTaskQuantity:
		resolve()
		if rc.Kind != classifier.ReplyQuantity || rc.Quantity <= 0 {
			return nil, nil
		}
		task, err := r.deps.Tasks.UpdateTask(ctx, p.EntityID, rc.Quantity, nil)
		if err != nil {
			return nil, err
		}
		t.Tasks = append(t.Tasks, *task)
		return &models.Reply{Text: quantityUpdatedReply(task.Item, rc.Quantity, false), Meta: taskMeta(task)}, nil

	case models.PendingTaskTiming:
		resolve()
		if rc.Kind != classifier.ReplyTime {
			return nil, nil
		}
		task, err := r.deps.Tasks.UpdateTask(ctx, p.EntityID, 0, map[string]string{"requestedTime": rc.Time})
		if err != nil {
			return nil, err
		}
		t.Tasks = append(t.Tasks, *task)
		return reply("Perfect, we'll have that with you " + timePhrase(rc.Time) + "."), nil
	}

	resolve()
	return nil, nil
}

func timePhrase(expr string) string {
	switch {
	case expr == "now", expr == "asap", strings.HasPrefix(expr, "right"), strings.HasPrefix(expr, "straight"),
		strings.HasPrefix(expr, "in "), strings.HasPrefix(expr, "this "), expr == "tonight",
		strings.HasPrefix(expr, "tomorrow"):
		return expr
	}
	return "at " + expr
}

func (r *Router) emergencyStage(ctx context.Context, t *Turn) (*models.Reply, error) {
	keyword, ok := detect.DetectEmergency(t.Message)
	if !ok {
		return nil, nil
	}
	r.log(t).Warn("Emergency detected", zap.String("keyword", keyword))
	r.createTask(ctx, t, actions.TaskRequest{
		Type:         models.TaskEmergency,
		ItemIdentity: "emergency:" + keyword,
		Item:         "Emergency reported: " + keyword,
		Department:   models.DeptSecurity,
		Priority:     models.PriorityUrgent,
		Metadata:     map[string]string{"message": t.Message},
	})
	r.clearDialog(ctx, t)
	return reply(emergencyReply(t.Tenant)), nil
}

func (r *Router) knowledgeStage(ctx context.Context, t *Turn) (*models.Reply, error) {
	if r.deps.Knowledge == nil {
		return nil, nil
	}
	m, err := r.deps.Knowledge.Lookup(ctx, t.Tenant.ID, t.Message)
	if err != nil || m == nil {
		return nil, err
	}
	if err := r.deps.Knowledge.RecordHit(ctx, m.Entry.ID); err != nil {
		r.log(t).Warn("Failed to record faq hit", zap.String("faqId", m.Entry.ID), zap.Error(err))
	}
	return reply(m.Entry.Answer), nil
}

func (r *Router) transferStage(ctx context.Context, t *Turn) (*models.Reply, error) {
	if !detect.DetectTransfer(t.Message) {
		return nil, nil
	}
	r.createTask(ctx, t, actions.TaskRequest{
		Type:       models.TaskHandoff,
		Item:       "Guest asked to speak to a team member",
		Department: models.DeptFrontDesk,
		Priority:   models.PriorityHigh,
		Metadata:   map[string]string{"message": t.Message},
	})
	r.clearDialog(ctx, t)
	return reply(transferReply(t.Tenant)), nil
}

func (r *Router) bookingStage(ctx context.Context, t *Turn) (*models.Reply, error) {
	g, ok := t.Mode.(models.Gathering)
	if !ok {
		return nil, nil
	}
	out := r.deps.Slots.Continue(ctx, r.slotTurn(t), g.Slots)
	return t.applySlots(out), nil
}

// followupStage answers short replies to the previous bot message using the metadata stored
// with it, without calling the oracle.
func (r *Router) followupStage(ctx context.Context, t *Turn) (*models.Reply, error) {
	last, ok := t.LastBot()
	if !ok {
		return nil, nil
	}
	rc := classifier.ClassifyReply(t.Message)
	if rc.Kind == classifier.ReplyNone {
		return nil, nil
	}
	shape := classifier.ShapeOf(last.Text)
	meta := last.Meta

	switch {
	case rc.Kind == classifier.ReplyQuantity && meta[models.MetaTaskIdentity] != "":
		task := r.createTask(ctx, t, actions.TaskRequest{
			Type:         models.TaskType(meta[models.MetaTaskType]),
			ItemIdentity: meta[models.MetaTaskIdentity],
			Item:         meta[models.MetaTaskItem],
			Quantity:     rc.Quantity,
			Department:   meta[models.MetaTaskDept],
		})
		if task == nil {
			return nil, nil
		}
		created := task.ID != meta[models.MetaTaskID]
		return &models.Reply{Text: quantityUpdatedReply(task.Item, rc.Quantity, created), Meta: taskMeta(task)}, nil

	case shape == classifier.ShapeYesNo && rc.Kind == classifier.ReplyAffirmative && meta[models.MetaOfferItem] != "":
		taskType := models.TaskType(meta[models.MetaOfferType])
		if taskType == "" {
			taskType = models.TaskItemRequest
		}
		dept := models.DeptHousekeeping
		if taskType == models.TaskFoodOrder {
			dept = models.DeptFoodAndBev
		}
		item := meta[models.MetaOfferItem]
		if v := rules.PermissionViolation(t.Guest, []models.DetectedIntent{{Intent: intentFor(taskType)}}); v != nil {
			return reply(v.Message), nil
		}
		task := r.createTask(ctx, t, actions.TaskRequest{Type: taskType, Item: item, Quantity: 1, Department: dept})
		if task == nil {
			return nil, nil
		}
		return &models.Reply{Text: "Great, I've arranged " + item + " for you. How many would you like?", Meta: taskMeta(task)}, nil

	case (shape == classifier.ShapeYesNo || shape == classifier.ShapeOpen) && rc.Kind == classifier.ReplyNegative:
		return reply(declinedReply), nil

	case shape == classifier.ShapeTiming && rc.Kind == classifier.ReplyTime && meta[models.MetaTaskID] != "":
		task, err := r.deps.Tasks.UpdateTask(ctx, meta[models.MetaTaskID], 0, map[string]string{"requestedTime": rc.Time})
		if err != nil {
			return nil, err
		}
		t.Tasks = append(t.Tasks, *task)
		return reply("Perfect, we'll have that with you " + timePhrase(rc.Time) + "."), nil

	case rc.Kind == classifier.ReplyAcknowledgment && shape != classifier.ShapeOpen:
		return reply(ackReply), nil
	}
	return nil, nil
}

func intentFor(t models.TaskType) string {
	switch t {
	case models.TaskFoodOrder:
		return models.IntentOrderFood
	case models.TaskItemRequest:
		return models.IntentRequestItem
	case models.TaskMaintenance:
		return models.IntentMaintenance
	case models.TaskComplaint:
		return models.IntentComplaint
	case models.TaskBooking:
		return models.IntentBookService
	}
	return ""
}

// analysisStage asks the oracle what the guest wants. Options it names are checked against the
// live catalog before anything else sees them.
func (r *Router) analysisStage(ctx context.Context, t *Turn) (*models.Reply, error) {
	snap, err := r.snapshot(ctx, t)
	if err != nil {
		r.log(t).Warn("Catalog unavailable for analysis", zap.Error(err))
	}
	names := snap.AllNames()

	var a models.IntentAnalysis
	err = r.deps.Oracle.Complete(ctx, ai.Request{
		Name:        ai.CallAnalyze,
		Prompt:      ai.AnalysisPrompt(t.Tenant, t.Message, t.History, names),
		Temperature: 0.1,
		Schema:      ai.AnalysisSchema,
	}, &a)
	if err != nil {
		r.log(t).Warn("Intent analysis failed", zap.Error(err))
		return nil, nil
	}

	for i := range a.Intents {
		res := validator.FilterOptions(a.Intents[i].AvailableOptions, names)
		if len(res.Removed) > 0 {
			r.log(t).Info("Removed options not in catalog",
				zap.String("intent", a.Intents[i].Intent),
				zap.Strings("removed", res.Removed))
		}
		a.Intents[i].AvailableOptions = res.Kept
	}
	t.Analysis = &a

	if !a.Ambiguous || a.Confidence < r.deps.Tuning.AmbiguityConfidence || t.SkipAmbiguity {
		return nil, nil
	}
	question := strings.TrimSpace(a.ClarificationQuestion)
	if question == "" {
		return nil, nil
	}
	question, _ = validator.CorrectNarrative(question, names)
	r.await(ctx, t, models.PendingField{
		EntityType: "message",
		EntityID:   t.Conversation.ID,
		Field:      "clarification",
		StateType:  models.PendingClarification,
	}, map[string]string{
		models.PendingCtxOriginalMessage: t.Message,
		models.PendingCtxQuestion:        question,
	})
	return reply(question), nil
}

func (r *Router) rulesStage(ctx context.Context, t *Turn) (*models.Reply, error) {
	if !t.Analysis.HasActionable() || r.deps.Rules == nil {
		return nil, nil
	}
	block, warnings, err := r.deps.Rules.Check(ctx, t.Tenant, t.Guest, t.Analysis.Intents, r.deps.Now())
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		r.log(t).Warn("Business rule warning", zap.String("rule", w.Rule), zap.String("message", w.Message))
	}
	t.Warnings = warnings
	if block != nil {
		r.log(t).Info("Business rule blocked request", zap.String("rule", block.Rule))
		return reply(block.Message), nil
	}
	return nil, nil
}

// maintenanceStage handles single-purpose maintenance reports. Messages the analysis found to
// carry other requests go to the generate stage, whose scanner also covers maintenance.
func (r *Router) maintenanceStage(ctx context.Context, t *Turn) (*models.Reply, error) {
	m := detect.ScoreMaintenance(t.Message)
	if m.Score < r.deps.Tuning.MaintenanceThreshold {
		return nil, nil
	}
	if t.Analysis != nil {
		for _, in := range t.Analysis.Intents {
			if in.Actionable() && in.Intent != models.IntentMaintenance {
				return nil, nil
			}
		}
	}
	if v := rules.PermissionViolation(t.Guest, []models.DetectedIntent{{Intent: models.IntentMaintenance}}); v != nil {
		return reply(v.Message), nil
	}
	task := r.createTask(ctx, t, actions.TaskRequest{
		Type:       models.TaskMaintenance,
		Item:       strings.TrimSpace(m.Fixture + " " + m.Issue),
		Department: models.DeptMaintenance,
		Priority:   models.PriorityHigh,
		Metadata:   map[string]string{"details": t.Message},
	})
	return &models.Reply{Text: maintenanceReply(m.Fixture), Meta: taskMeta(task)}, nil
}

func (r *Router) classifierStage(ctx context.Context, t *Turn) (*models.Reply, error) {
	if t.Analysis.HasActionable() || r.deps.Classifier == nil {
		return nil, nil
	}
	last, _ := t.LastBot()
	res := r.deps.Classifier.Classify(ctx, t.Message, last.Text)

	switch res.Label {
	case classifier.LabelGreeting:
		return reply(greetingReply(t.Tenant, t.Guest)), nil
	case classifier.LabelMenu:
		meal := mealNow(r.deps.Now().In(t.Tenant.Location()).Hour())
		items, err := r.deps.Catalog.ListMenuItems(ctx, t.Tenant.ID, meal)
		if err != nil {
			return nil, err
		}
		if text, ok := menuReply(meal, items); ok {
			return reply(text), nil
		}
	case classifier.LabelTiming:
		if text, ok := mealHoursReply(t.Tenant); ok {
			return reply(text), nil
		}
	}
	return nil, nil
}

func (r *Router) criticalStage(_ context.Context, t *Turn) (*models.Reply, error) {
	topic, ok := detect.DetectCritical(t.Message)
	if !ok {
		return nil, nil
	}
	answer, ok := detect.CriticalAnswer(topic, t.Tenant)
	if !ok {
		return nil, nil
	}
	return reply(answer), nil
}

func (r *Router) fallbackStage(_ context.Context, t *Turn) (*models.Reply, error) {
	return reply(fallbackReply(t.Tenant)), nil
}
