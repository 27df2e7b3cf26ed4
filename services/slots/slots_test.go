package slots

import (
	"context"
	"testing"
	"time"

	"concierge/models"
	"concierge/services/actions"
	"concierge/services/catalog"
	"concierge/services/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testNow    = time.Date(2025, 10, 18, 10, 0, 0, 0, time.UTC)
	testTenant = models.Tenant{ID: "t1", Name: "Marula Lodge", Timezone: "UTC", DiningMaxPartySize: 12}
	testTurn   = Turn{Tenant: testTenant, ConversationID: "c1", Room: "204"}
)

var testServices = []models.Service{
	{ID: "s1", Name: "Kruger Day Trip", Category: models.CategoryLocalTours, Available: true, MaxCapacity: 8},
	{ID: "s2", Name: "Cape Point Tour", Category: models.CategoryLocalTours, Available: true, AdvanceNoticeHours: 48},
	{ID: "s3", Name: "Hot Stone Massage", Category: models.CategorySpa, Available: true},
	{ID: "s4", Name: "Sunset Cruise", Category: models.CategoryActivities, Available: false},
	{ID: "s5", Name: "Sunrise Cruise", Category: models.CategoryActivities, Available: true},
}

type fixture struct {
	engine *Engine
	oracle *mocks.FakeOracle
	tasks  *mocks.FakeTaskRepo
	rules  *mocks.FakeRulesRepo
}

func newFixture() fixture {
	oracle := mocks.NewFakeOracle()
	tasks := &mocks.FakeTaskRepo{}
	rules := &mocks.FakeRulesRepo{}
	engine := &Engine{
		Oracle:  oracle,
		Catalog: &catalog.DefaultCatalogService{Repo: &mocks.FakeCatalogRepo{Catalog: models.CatalogSnapshot{Services: testServices}}, Logger: zap.NewNop()},
		Rules:   rules,
		Tasks: &actions.DefaultTaskSink{
			Repo:        tasks,
			DedupWindow: 5 * time.Minute,
			Now:         func() time.Time { return testNow },
			Logger:      zap.NewNop(),
		},
		MaxQuestions: 3,
		Now:          func() time.Time { return testNow },
		Logger:       zap.NewNop(),
	}
	return fixture{engine: engine, oracle: oracle, tasks: tasks, rules: rules}
}

func turn(message string) Turn {
	t := testTurn
	t.Message = message
	return t
}

func TestLocalToursPartySizeLeavesOnlyDateMissing(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"numberOfPeople": 5, "wantsToCancel": false, "confidence": 0.9}`)
	prior := models.BookingSlotState{
		ServiceCategory:  models.CategoryLocalTours,
		ServiceName:      models.Str("Kruger Day Trip"),
		QuestionAttempts: 1,
	}

	out := f.engine.Continue(context.Background(), turn("for 5 people"), prior)

	assert.Equal(t, StateGathering, out.State)
	require.NotNil(t, out.Slots.NumberOfPeople)
	assert.Equal(t, 5, *out.Slots.NumberOfPeople)
	assert.Equal(t, "Kruger Day Trip", *out.Slots.ServiceName)
	assert.Equal(t, []string{models.FieldRequestedDate}, out.Missing)
	assert.Equal(t, "What date would you like?", out.Reply)
	gathering, ok := out.Mode.(models.Gathering)
	require.True(t, ok)
	assert.Equal(t, 2, gathering.Slots.QuestionAttempts)
}

func TestDiningReadyToBook(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"wantsToCancel": false, "confidence": 0.8}`)
	prior := models.BookingSlotState{
		ServiceCategory: models.CategoryDining,
		NumberOfPeople:  models.Int(2),
		RequestedDate:   models.Str("2025-10-18"),
		RequestedTime:   models.Str("19:00"),
	}

	assert.Empty(t, MissingFields(prior, DefaultRequired(models.CategoryDining)))

	out := f.engine.Continue(context.Background(), turn("yes that's right"), prior)

	assert.Equal(t, StateCreated, out.State)
	assert.Empty(t, out.Missing)
	assert.IsType(t, models.Normal{}, out.Mode)
	require.NotNil(t, out.Task)
	assert.Equal(t, models.TaskBooking, out.Task.Type)
	assert.Equal(t, models.DeptFoodAndBev, out.Task.Department)
	assert.Equal(t, 2, out.Task.Quantity)
	assert.Contains(t, out.Reply, "a table for 2 on 2025-10-18 at 19:00")
	assert.Len(t, f.tasks.Snapshot(), 1)
}

func TestDiningNeverRequiresServiceNameOrLocation(t *testing.T) {
	state := models.BookingSlotState{ServiceCategory: models.CategoryDining}
	override := []string{models.FieldServiceName, models.FieldLocation, models.FieldNumberOfPeople}

	missing := MissingFields(state, override)

	assert.Equal(t, []string{models.FieldNumberOfPeople}, missing)
	assert.NotContains(t, MissingFields(state, DefaultRequired(models.CategoryDining)), models.FieldServiceName)
}

func TestTenantOverrideReplacesDefaults(t *testing.T) {
	f := newFixture()
	f.rules.Required = map[models.ServiceCategory][]string{
		models.CategorySpa: {models.FieldServiceName, models.FieldRequestedDate},
	}
	f.oracle.Respond("extract_slots", `{"requestedDate": "2025-10-20", "wantsToCancel": false, "confidence": 0.9}`)
	prior := models.BookingSlotState{ServiceCategory: models.CategorySpa, ServiceName: models.Str("Hot Stone Massage")}

	out := f.engine.Continue(context.Background(), turn("on the 20th"), prior)

	assert.Equal(t, StateCreated, out.State)
	assert.Equal(t, models.DeptSpa, out.Task.Department)
}

func TestBoundedQuestioning(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"wantsToCancel": false, "confidence": 0.2}`)
	f.oracle.Respond("next_question", `{"question": "When would you like to go?"}`)
	state := models.BookingSlotState{ServiceCategory: models.CategoryLocalTours}

	var questions int
	var last Outcome
	for i := 0; i < 6; i++ {
		last = f.engine.Continue(context.Background(), turn("hmm"), state)
		if last.State == StateGathering {
			questions++
		}
		if last.State == StateMaxAttemptsReached {
			break
		}
		state = last.Mode.(models.Gathering).Slots
	}

	assert.Equal(t, 3, questions)
	assert.Equal(t, StateMaxAttemptsReached, last.State)
	assert.Equal(t, escalationOffer, last.Reply)
	kept, ok := last.Mode.(models.Gathering)
	require.True(t, ok, "state is kept after offering escalation")
	assert.True(t, kept.Slots.EscalationOffered)
	assert.LessOrEqual(t, f.oracle.CallCount("next_question"), 3)
}

func TestEscalationAccepted(t *testing.T) {
	f := newFixture()
	prior := models.BookingSlotState{ServiceCategory: models.CategoryLocalTours, QuestionAttempts: 4, EscalationOffered: true}

	out := f.engine.Continue(context.Background(), turn("yes please"), prior)

	assert.Equal(t, StateEscalated, out.State)
	assert.IsType(t, models.Normal{}, out.Mode)
	require.NotNil(t, out.Task)
	assert.Equal(t, models.TaskHandoff, out.Task.Type)
	assert.Equal(t, models.PriorityHigh, out.Task.Priority)
}

func TestEscalationDeclinedResetsAttempts(t *testing.T) {
	f := newFixture()
	prior := models.BookingSlotState{ServiceCategory: models.CategoryLocalTours, QuestionAttempts: 4, EscalationOffered: true}

	out := f.engine.Continue(context.Background(), turn("no thanks"), prior)

	assert.Equal(t, StateGathering, out.State)
	assert.Equal(t, 1, out.Slots.QuestionAttempts)
	assert.False(t, out.Slots.EscalationOffered)
}

func TestCancellation(t *testing.T) {
	f := newFixture()
	prior := models.BookingSlotState{ServiceCategory: models.CategorySpa}

	out := f.engine.Continue(context.Background(), turn("actually never mind"), prior)

	assert.Equal(t, StateCancelled, out.State)
	assert.IsType(t, models.Normal{}, out.Mode)
	assert.Empty(t, f.tasks.Snapshot())
}

func TestOracleCancellationFlag(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"wantsToCancel": true, "confidence": 0.9}`)

	out := f.engine.Continue(context.Background(), turn("we'll skip it"), models.BookingSlotState{ServiceCategory: models.CategorySpa})

	assert.Equal(t, StateCancelled, out.State)
}

func TestInferredServiceNameIsDropped(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"serviceName": "Kruger Day Trip", "wantsToCancel": false, "confidence": 0.7}`)
	prior := models.BookingSlotState{
		ServiceCategory: models.CategoryLocalTours,
		NumberOfPeople:  models.Int(2),
		RequestedDate:   models.Str("2025-10-21"),
	}

	out := f.engine.Continue(context.Background(), turn("a tour please"), prior)

	assert.Nil(t, out.Slots.ServiceName)
	assert.Equal(t, []string{models.FieldServiceName}, out.Missing)
	assert.Equal(t, "Which tour would you like? We offer: Kruger Day Trip, Cape Point Tour.", out.Reply)
	assert.Zero(t, f.oracle.CallCount("next_question"))
}

func TestNamedServiceIsCanonicalised(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"serviceName": "kruger day trip", "wantsToCancel": false, "confidence": 0.9}`)

	out := f.engine.Begin(context.Background(), turn("book the kruger day trip"), models.CategoryLocalTours, "")

	require.NotNil(t, out.Slots.ServiceName)
	assert.Equal(t, "Kruger Day Trip", *out.Slots.ServiceName)
}

func TestHallucinatedServiceNameIsDropped(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"serviceName": "Private Safari", "serviceCategory": "LOCAL_TOURS", "wantsToCancel": false, "confidence": 0.9}`)

	out := f.engine.Begin(context.Background(), turn("the private safari"), "", "")

	assert.Nil(t, out.Slots.ServiceName)
	assert.Equal(t, models.CategoryLocalTours, out.Slots.ServiceCategory)
}

func TestExtractionFailureKeepsPriorState(t *testing.T) {
	f := newFixture()
	prior := models.BookingSlotState{
		ServiceCategory: models.CategoryLocalTours,
		ServiceName:     models.Str("Kruger Day Trip"),
		NumberOfPeople:  models.Int(3),
	}

	out := f.engine.Continue(context.Background(), turn("hmm let me think"), prior)

	assert.Equal(t, StateGathering, out.State)
	assert.Equal(t, 3, *out.Slots.NumberOfPeople)
	assert.Equal(t, []string{models.FieldRequestedDate}, out.Missing)
}

func TestValidationFailureKeepsState(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"numberOfPeople": 10, "wantsToCancel": false, "confidence": 0.9}`)
	prior := models.BookingSlotState{
		ServiceCategory: models.CategoryLocalTours,
		ServiceName:     models.Str("Kruger Day Trip"),
		RequestedDate:   models.Str("2025-10-20"),
	}

	out := f.engine.Continue(context.Background(), turn("10 of us"), prior)

	assert.Equal(t, StateInvalid, out.State)
	assert.Contains(t, out.Reply, "up to 8 guests")
	assert.IsType(t, models.Gathering{}, out.Mode)
	assert.Empty(t, f.tasks.Snapshot())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		state models.BookingSlotState
		code  string
	}{
		{"past date", models.BookingSlotState{ServiceCategory: models.CategoryDining, RequestedDate: models.Str("2025-10-17")}, "past_date"},
		{"past time today", models.BookingSlotState{ServiceCategory: models.CategoryDining, RequestedDate: models.Str("2025-10-18"), RequestedTime: models.Str("08:00")}, "past_time"},
		{"bad date", models.BookingSlotState{ServiceCategory: models.CategoryDining, RequestedDate: models.Str("next tuesday")}, "bad_date"},
		{"advance notice", models.BookingSlotState{ServiceName: models.Str("Cape Point Tour"), RequestedDate: models.Str("2025-10-19")}, "advance_notice"},
		{"unavailable", models.BookingSlotState{ServiceName: models.Str("Sunset Cruise"), ServiceCategory: models.CategoryActivities}, "unavailable"},
		{"dining party too big", models.BookingSlotState{ServiceCategory: models.CategoryDining, NumberOfPeople: models.Int(14)}, "capacity"},
		{"ok", models.BookingSlotState{ServiceName: models.Str("Cape Point Tour"), RequestedDate: models.Str("2025-10-25"), NumberOfPeople: models.Int(20)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.state, testServices, testTenant, testNow)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.code, verr.Code)
		})
	}
}

func TestUnavailableServiceSuggestsAlternative(t *testing.T) {
	err := Validate(models.BookingSlotState{ServiceName: models.Str("Sunset Cruise")}, testServices, testTenant, testNow)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Would Sunrise Cruise work instead?", verr.Alternative)
}

func TestSummary(t *testing.T) {
	s := models.BookingSlotState{
		ServiceName:    models.Str("Hot Stone Massage"),
		NumberOfPeople: models.Int(2),
		RequestedDate:  models.Str("2025-10-20"),
		RequestedTime:  models.Str("15:00"),
	}
	assert.Equal(t, "Hot Stone Massage for 2 on 2025-10-20 at 15:00", Summary(s))
}

func TestSeededServiceNameNeedsGuestMention(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"numberOfPeople": 2, "requestedDate": "2025-10-20", "wantsToCancel": false, "confidence": 0.9}`)

	out := f.engine.Begin(context.Background(), turn("I'd like to book a tour for 2 on Monday"), models.CategoryLocalTours, "Kruger Day Trip")

	assert.Equal(t, StateGathering, out.State)
	assert.Nil(t, out.Slots.ServiceName)
	assert.Equal(t, []string{models.FieldServiceName}, out.Missing)
	assert.Equal(t, "Which tour would you like? We offer: Kruger Day Trip, Cape Point Tour.", out.Reply)
	assert.Empty(t, f.tasks.Snapshot())
}

func TestSeededServiceNameKeptWhenNamed(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"numberOfPeople": 2, "requestedDate": "2025-10-25", "wantsToCancel": false, "confidence": 0.9}`)

	out := f.engine.Begin(context.Background(), turn("I'd like the Cape Point Tour for 2 on the 25th"), models.CategoryLocalTours, "cape point tour")

	assert.Equal(t, StateCreated, out.State)
	require.NotNil(t, out.Slots.ServiceName)
	assert.Equal(t, "Cape Point Tour", *out.Slots.ServiceName)
	assert.Len(t, f.tasks.Snapshot(), 1)
}

func TestSeededServiceNameOutsideCatalogIsDropped(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"wantsToCancel": false, "confidence": 0.9}`)

	out := f.engine.Begin(context.Background(), turn("book the night safari"), models.CategoryLocalTours, "Night Safari")

	assert.Nil(t, out.Slots.ServiceName)
	assert.Contains(t, out.Missing, models.FieldServiceName)
}

func TestUnavailableServiceIsReportedWithAlternative(t *testing.T) {
	f := newFixture()
	f.oracle.Respond("extract_slots", `{"serviceName": "Sunset Cruise", "numberOfPeople": 2, "requestedDate": "2025-10-20", "wantsToCancel": false, "confidence": 0.9}`)

	out := f.engine.Begin(context.Background(), turn("Can I book the Sunset Cruise for 2 on the 20th?"), models.CategoryActivities, "")

	assert.Equal(t, StateInvalid, out.State)
	assert.Equal(t, "Unfortunately Sunset Cruise isn't available at the moment. Would Sunrise Cruise work instead?", out.Reply)
	require.NotNil(t, out.Slots.ServiceName)
	assert.Equal(t, "Sunset Cruise", *out.Slots.ServiceName)
	assert.IsType(t, models.Gathering{}, out.Mode)
	assert.Empty(t, f.tasks.Snapshot())
}
