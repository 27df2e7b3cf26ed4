package slots

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"concierge/models"
	"concierge/services/actions"
	"concierge/services/classifier"
	"concierge/services/detect"
	ai "concierge/services/intelligence"
	"concierge/services/validator"

	"go.uber.org/zap"
)

const (
	cancelledReply  = "No problem, I've cancelled that booking request. Is there anything else I can help with?"
	escalationOffer = "I'm having trouble getting all the details for this booking. Would you like me to connect you with our team to finish it?"
	escalatedReply  = "I've asked a member of our team to get in touch with you to complete the booking."
	bookingFailed   = "I couldn't send your booking request just now. Please try again in a moment, or contact the front desk."
)

// Begin starts a booking dialog. The category and service name come from intent analysis and
// may be empty. A seeded name passes the same guard as an extracted one.
func (e *Engine) Begin(ctx context.Context, turn Turn, category models.ServiceCategory, serviceName string) Outcome {
	var s models.BookingSlotState
	s.ServiceCategory = category
	if serviceName != "" {
		s.ServiceName = models.Str(serviceName)
	}
	return e.step(ctx, turn, s, true)
}

// Continue runs one turn of an existing dialog.
func (e *Engine) Continue(ctx context.Context, turn Turn, prior models.BookingSlotState) Outcome {
	return e.step(ctx, turn, prior, false)
}

func (e *Engine) step(ctx context.Context, turn Turn, prior models.BookingSlotState, fresh bool) Outcome {
	log := e.Logger.With(zap.String("conversationId", turn.ConversationID))

	services, err := e.Catalog.ListServices(ctx, turn.Tenant.ID)
	if err != nil {
		log.Warn("Catalog unavailable for booking dialog", zap.Error(err))
	}
	allNames := catalogNames(services, "")

	if fresh && prior.ServiceName != nil {
		seed := models.SlotExtraction{ServiceName: prior.ServiceName}
		prior.ServiceName = nil
		e.sanitize(&seed, prior, turn.Message, services)
		prior.ServiceName = seed.ServiceName
	}

	ext, extracted := e.extract(ctx, turn, prior, allNames, log)
	state := prior
	if extracted {
		e.sanitize(&ext, prior, turn.Message, services)
		state.Merge(ext)
	}
	if state.ServiceName != nil && state.ServiceCategory == "" {
		for _, s := range services {
			if s.Name == *state.ServiceName {
				state.ServiceCategory = s.Category
			}
		}
	}

	if (extracted && ext.WantsToCancel) || detect.IsCancellation(turn.Message) {
		log.Info("Booking dialog cancelled")
		return Outcome{State: StateCancelled, Reply: cancelledReply, Mode: models.Normal{}, Slots: state}
	}

	if prior.EscalationOffered && !fresh {
		switch classifier.ClassifyReply(turn.Message).Kind {
		case classifier.ReplyAffirmative:
			return e.escalate(ctx, turn, state, log)
		case classifier.ReplyNegative:
			state.QuestionAttempts = 0
			state.EscalationOffered = false
		}
	}

	missing := e.missing(ctx, turn.Tenant.ID, state, services, log)
	state.MissingFields = missing

	if len(missing) == 0 {
		return e.book(ctx, turn, state, services, log)
	}

	state.QuestionAttempts++
	if state.QuestionAttempts > e.MaxQuestions {
		state.EscalationOffered = true
		log.Info("Booking dialog reached its question limit", zap.Strings("missing", missing))
		return Outcome{State: StateMaxAttemptsReached, Reply: escalationOffer, Mode: models.Gathering{Slots: state}, Slots: state, Missing: missing}
	}

	categoryNames := models.ServiceNames(services, state.ServiceCategory)
	question := e.question(ctx, state, missing, categoryNames, models.ServiceNames(services, ""), log)
	return Outcome{State: StateGathering, Reply: question, Mode: models.Gathering{Slots: state}, Slots: state, Missing: missing}
}

// extract asks the oracle for slot values. On failure the prior state stands.
func (e *Engine) extract(ctx context.Context, turn Turn, prior models.BookingSlotState, names []string, log *zap.Logger) (models.SlotExtraction, bool) {
	var ext models.SlotExtraction
	today := e.now().In(turn.Tenant.Location())
	err := e.Oracle.Complete(ctx, ai.Request{
		Name:        ai.CallExtract,
		Prompt:      ai.ExtractionPrompt(turn.Message, turn.History, prior, names, today),
		Temperature: 0.1,
		Schema:      ai.ExtractionSchema,
	}, &ext)
	if err != nil {
		log.Warn("Slot extraction failed, keeping prior state", zap.Error(err))
		return models.SlotExtraction{}, false
	}
	return ext, true
}

// catalogNames lists every service row, available or not, optionally for one category.
// Unavailable names stay matchable so validation can tell the guest about them.
func catalogNames(services []models.Service, category models.ServiceCategory) []string {
	var names []string
	for _, s := range services {
		if category == "" || s.Category == category {
			names = append(names, s.Name)
		}
	}
	return names
}

// sanitize drops service names that are not in the catalog, and new names the guest did not
// actually write when the category offers more than one choice.
func (e *Engine) sanitize(ext *models.SlotExtraction, prior models.BookingSlotState, message string, services []models.Service) {
	if ext.ServiceName == nil {
		return
	}
	canon, ok := validator.Canonical(*ext.ServiceName, catalogNames(services, ""))
	if !ok {
		e.Logger.Info("Dropped extracted service name not in catalog", zap.String("serviceName", *ext.ServiceName))
		ext.ServiceName = nil
		return
	}
	if prior.ServiceName != nil && strings.EqualFold(*prior.ServiceName, canon) {
		ext.ServiceName = &canon
		return
	}

	category := prior.ServiceCategory
	if ext.ServiceCategory != nil {
		if c, ok := models.ParseCategory(*ext.ServiceCategory); ok {
			category = c
		}
	}
	if actions.MentionIndex(strings.ToLower(message), canon) < 0 && len(catalogNames(services, category)) > 1 {
		e.Logger.Info("Dropped inferred service name", zap.String("serviceName", canon))
		ext.ServiceName = nil
		return
	}
	ext.ServiceName = &canon
}

func (e *Engine) missing(ctx context.Context, tenantID string, state models.BookingSlotState, services []models.Service, log *zap.Logger) []string {
	var required []string
	if state.ServiceCategory != "" && e.Rules != nil {
		serviceID := ""
		if state.ServiceName != nil {
			for _, s := range services {
				if s.Name == *state.ServiceName {
					serviceID = s.ID
				}
			}
		}
		override, err := e.Rules.GetRequiredFields(ctx, tenantID, state.ServiceCategory, serviceID)
		if err != nil {
			log.Warn("Required-field lookup failed, using defaults", zap.Error(err))
		}
		required = override
	}
	if required == nil {
		required = DefaultRequired(state.ServiceCategory)
	}
	return MissingFields(state, required)
}

func (e *Engine) book(ctx context.Context, turn Turn, state models.BookingSlotState, services []models.Service, log *zap.Logger) Outcome {
	if err := Validate(state, services, turn.Tenant, e.now()); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			log.Info("Booking failed validation", zap.String("code", verr.Code))
			return Outcome{State: StateInvalid, Reply: verr.GuestMessage(), Mode: models.Gathering{Slots: state}, Slots: state}
		}
		log.Error("Booking validation error", zap.Error(err))
		return Outcome{State: StateInvalid, Reply: bookingFailed, Mode: models.Gathering{Slots: state}, Slots: state}
	}

	quantity := 1
	if state.NumberOfPeople != nil {
		quantity = *state.NumberOfPeople
	}
	summary := Summary(state)
	out, err := e.Tasks.CreateOrUpdateTask(ctx, actions.TaskRequest{
		TenantID:       turn.Tenant.ID,
		ConversationID: turn.ConversationID,
		Type:           models.TaskBooking,
		Item:           summary,
		Quantity:       quantity,
		Room:           turn.Room,
		Department:     departmentFor(state.ServiceCategory),
		Priority:       models.PriorityNormal,
		Metadata:       Metadata(state),
	})
	if err != nil {
		log.Error("Failed to create booking task", zap.Error(err))
		return Outcome{State: StateReady, Reply: bookingFailed, Mode: models.Gathering{Slots: state}, Slots: state}
	}

	return Outcome{
		State: StateCreated,
		Reply: fmt.Sprintf("Wonderful! I've sent your booking request for %s to our team. We'll confirm shortly.", summary),
		Mode:  models.Normal{},
		Slots: state,
		Task:  out.Task,
	}
}

func (e *Engine) escalate(ctx context.Context, turn Turn, state models.BookingSlotState, log *zap.Logger) Outcome {
	meta := Metadata(state)
	meta["missing"] = strings.Join(state.MissingFields, ",")
	out, err := e.Tasks.CreateOrUpdateTask(ctx, actions.TaskRequest{
		TenantID:       turn.Tenant.ID,
		ConversationID: turn.ConversationID,
		Type:           models.TaskHandoff,
		Item:           "Help finishing booking: " + Summary(state),
		Room:           turn.Room,
		Department:     models.DeptFrontDesk,
		Priority:       models.PriorityHigh,
		Metadata:       meta,
	})
	if err != nil {
		log.Error("Failed to create escalation task", zap.Error(err))
		return Outcome{State: StateMaxAttemptsReached, Reply: bookingFailed, Mode: models.Gathering{Slots: state}, Slots: state}
	}
	return Outcome{State: StateEscalated, Reply: escalatedReply, Mode: models.Normal{}, Slots: state, Task: out.Task}
}

// question picks the next question. A lone missing service name is always asked
// deterministically from the catalog; everything else goes to the oracle with a per-field
// fallback.
func (e *Engine) question(ctx context.Context, state models.BookingSlotState, missing, categoryNames, allNames []string, log *zap.Logger) string {
	if len(missing) == 1 && missing[0] == models.FieldServiceName && len(categoryNames) > 0 {
		return ServiceQuestion(state.ServiceCategory, categoryNames)
	}

	var options []string
	for _, f := range missing {
		if f == models.FieldServiceName {
			options = categoryNames
		}
	}
	fallback := FieldQuestion(missing[0], state.ServiceCategory, options)

	var res ai.QuestionResult
	err := e.Oracle.Complete(ctx, ai.Request{
		Name:        ai.CallQuestion,
		Prompt:      ai.QuestionPrompt(state, missing, options),
		Temperature: 0.4,
		Schema:      ai.QuestionSchema,
	}, &res)
	if err != nil {
		log.Warn("Question generation failed, using fallback", zap.Error(err))
		return fallback
	}

	q := strings.TrimSpace(res.Question)
	if q == "" || !strings.Contains(q, "?") || len(q) > 300 {
		return fallback
	}
	corrected, corrections := validator.CorrectNarrative(q, allNames)
	for _, c := range corrections {
		if c.Kind == validator.CorrectionConfirmation {
			// The oracle confirmed something we do not offer; ask plainly instead.
			return fallback
		}
	}
	return corrected
}
