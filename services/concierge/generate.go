package concierge

import (
	"context"
	"strings"

	"concierge/models"
	"concierge/services/actions"
	"concierge/services/classifier"
	ai "concierge/services/intelligence"
	"concierge/services/rules"
	"concierge/services/validator"

	"go.uber.org/zap"
)

// generateStage starts booking dialogs, and otherwise lets the oracle answer with the full tenant
// context before turning its directives (and anything the scanner finds) into tasks.
func (r *Router) generateStage(ctx context.Context, t *Turn) (*models.Reply, error) {
	if in, ok := t.Analysis.Find(models.IntentBookService); ok {
		category, _ := models.ParseCategory(in.Category)
		serviceName := ""
		if in.Specificity == models.SpecificitySpecific && len(in.AvailableOptions) == 1 {
			serviceName = in.AvailableOptions[0]
		}
		out := r.deps.Slots.Begin(ctx, r.slotTurn(t), category, serviceName)
		return t.applySlots(out), nil
	}

	snap, err := r.snapshot(ctx, t)
	if err != nil {
		r.log(t).Warn("Catalog unavailable for reply generation", zap.Error(err))
	}
	if text, blocked := r.restricted(ctx, t, snap); blocked {
		return reply(text), nil
	}

	var gen models.GeneratedReply
	err = r.deps.Oracle.Complete(ctx, ai.Request{
		Name:        ai.CallGenerate,
		Prompt:      ai.ReplyPrompt(t.Tenant, t.Guest, snap, t.History, t.Message),
		Temperature: 0.6,
		Schema:      ai.ReplySchema,
	}, &gen)
	if err != nil {
		return nil, err
	}

	names := snap.AllNames()
	text, corrections := validator.CorrectNarrative(strings.TrimSpace(gen.Reply), names)
	for _, c := range corrections {
		r.log(t).Info("Corrected generated reply", zap.String("kind", c.Kind), zap.String("from", c.From))
	}

	var last *models.StaffTask
	var lostItem *models.StaffTask
	for _, c := range r.deps.Extractor.Extract(t.Message, gen.Directives, snap) {
		if v := rules.PermissionViolation(t.Guest, []models.DetectedIntent{{Intent: intentFor(c.Type)}}); v != nil {
			r.log(t).Info("Skipped task the guest may not request", zap.String("type", string(c.Type)))
			if text == "" {
				text = v.Message
			}
			continue
		}
		task := r.createTask(ctx, t, c.Request(t.Tenant.ID, t.Conversation.ID, t.Guest.Room))
		if task == nil {
			continue
		}
		last = task
		if c.Type == models.TaskLostItem && c.Location == "" {
			lostItem = task
		}
	}

	if text == "" {
		if len(t.Tasks) == 0 {
			return nil, nil
		}
		text = requestPassedOn
	}

	out := &models.Reply{Text: text, Meta: taskMeta(last)}
	switch {
	case lostItem != nil:
		if !strings.Contains(text, "?") {
			out.Text = text + " " + lostItemAskReply
		}
		r.await(ctx, t, models.PendingField{
			EntityType: "task",
			EntityID:   lostItem.ID,
			Field:      "location",
			StateType:  models.PendingLostItemLocation,
		}, map[string]string{models.PendingCtxItem: lostItem.Item})
	case last != nil && classifier.ShapeOf(text) == classifier.ShapeQuantity:
		r.await(ctx, t, models.PendingField{
			EntityType: "task",
			EntityID:   last.ID,
			Field:      "quantity",
			StateType:  models.PendingTaskQuantity,
		}, map[string]string{models.PendingCtxItem: last.Item})
	case last != nil && classifier.ShapeOf(text) == classifier.ShapeTiming:
		r.await(ctx, t, models.PendingField{
			EntityType: "task",
			EntityID:   last.ID,
			Field:      "time",
			StateType:  models.PendingTaskTiming,
		}, map[string]string{models.PendingCtxItem: last.Item})
	case last == nil && classifier.ShapeOf(text) == classifier.ShapeYesNo:
		if item, ok := offeredItem(text, snap); ok {
			out.Meta = map[string]string{models.MetaOfferItem: item, models.MetaOfferType: string(models.TaskItemRequest)}
		}
	}
	return out, nil
}

// restricted asks the oracle whether a guest without an active stay is asking for an item only
// in-house guests may have. Any oracle failure lets the request through.
func (r *Router) restricted(ctx context.Context, t *Turn, snap models.CatalogSnapshot) (string, bool) {
	if t.Guest.Lifecycle == models.LifecycleActive {
		return "", false
	}
	var names []string
	for _, it := range snap.RequestItems {
		if it.Restricted {
			names = append(names, it.Name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	var res ai.PermissionResult
	err := r.deps.Oracle.Complete(ctx, ai.Request{
		Name:        ai.CallPermission,
		Prompt:      ai.PermissionPrompt(t.Message, names),
		Temperature: 0,
		Schema:      ai.PermissionSchema,
	}, &res)
	if err != nil {
		r.log(t).Warn("Item permission check failed, allowing request", zap.Error(err))
		return "", false
	}
	if !res.Restricted {
		return "", false
	}
	item := ""
	if res.Item != nil {
		item = *res.Item
	}
	return restrictedReply(item), true
}

// offeredItem finds the request item a yes/no question offers.
func offeredItem(text string, snap models.CatalogSnapshot) (string, bool) {
	lower := strings.ToLower(text)
	for _, it := range snap.RequestItems {
		if actions.MentionIndex(lower, it.Name) >= 0 {
			return it.Name, true
		}
	}
	return "", false
}
