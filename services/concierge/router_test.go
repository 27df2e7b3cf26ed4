package concierge

import (
	"context"
	"testing"
	"time"

	"concierge/config"
	"concierge/models"
	"concierge/services/actions"
	"concierge/services/catalog"
	"concierge/services/classifier"
	"concierge/services/guest"
	ai "concierge/services/intelligence"
	"concierge/services/knowledge"
	"concierge/services/mocks"
	"concierge/services/rules"
	"concierge/services/slots"
	"concierge/services/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testNow    = time.Date(2025, 10, 18, 10, 0, 0, 0, time.UTC)
	testTenant = models.Tenant{
		ID:             "t1",
		Name:           "Marula Lodge",
		Timezone:       "UTC",
		FrontDeskPhone: "+27 11 555 0100",
		EmergencyPhone: "+27 11 555 0199",
		BreakfastHours: "06:30-10:30",
		DinnerHours:    "18:00-22:00",
		Active:         true,
	}
	testStay = &models.Stay{
		ID:         "stay1",
		TenantID:   "t1",
		GuestPhone: "+27820000000",
		GuestName:  "Thandi Nkosi",
		Room:       "204",
		CheckIn:    testNow.AddDate(0, 0, -2),
		CheckOut:   testNow.AddDate(0, 0, 3),
	}
	testCatalog = models.CatalogSnapshot{
		Services: []models.Service{
			{ID: "s1", Name: "Kruger Day Trip", Category: models.CategoryLocalTours, Available: true, MaxCapacity: 8},
			{ID: "s2", Name: "Hot Stone Massage", Category: models.CategorySpa, Available: true},
		},
		MenuItems: []models.MenuItem{
			{Name: "Club Sandwich", MealType: "all_day", Price: 120, Available: true},
		},
		RequestItems: []models.RequestItem{
			{Name: "Towels", Department: models.DeptHousekeeping},
			{Name: "Pillows", Department: models.DeptHousekeeping},
			{Name: "Binoculars", Department: models.DeptFrontDesk, Restricted: true},
		},
	}
	testFAQ = []models.FAQEntry{
		{ID: "faq-breakfast", TenantID: "t1", Question: "Is breakfast included in the rate?", Answer: "Yes, breakfast is included for all guests."},
		{ID: "faq-smoke", TenantID: "t1", Question: "What should I do if I smell smoke?", Answer: "Please leave the room and call reception.", Keywords: []string{"smoke"}},
	}
)

type fixture struct {
	router *Router
	store  *state.MemoryStore
	oracle *mocks.FakeOracle
	tasks  *mocks.FakeTaskRepo
	queue  *mocks.FakeQueue
	faq    *mocks.FakeFAQRepo
	stays  *mocks.FakeStays
}

func newFixture() *fixture {
	f := &fixture{
		store:  state.NewMemoryStore(),
		oracle: mocks.NewFakeOracle(),
		tasks:  &mocks.FakeTaskRepo{},
		queue:  &mocks.FakeQueue{},
		faq:    &mocks.FakeFAQRepo{Entries: testFAQ},
		stays:  &mocks.FakeStays{Stay: testStay},
	}
	now := func() time.Time { return testNow }
	tuning := config.DefaultTuning()
	logger := zap.NewNop()

	catalogSvc := &catalog.DefaultCatalogService{Repo: &mocks.FakeCatalogRepo{Catalog: testCatalog}, Logger: logger}
	rulesSvc := &rules.DefaultRulesService{Repo: &mocks.FakeRulesRepo{}, Logger: logger}
	sink := &actions.DefaultTaskSink{
		Repo:        f.tasks,
		Queue:       f.queue,
		DedupWindow: tuning.DedupWindow,
		Now:         now,
		Logger:      logger,
	}
	f.router = NewRouter(Deps{
		Store:     f.store,
		Oracle:    f.oracle,
		Catalog:   catalogSvc,
		Knowledge: &knowledge.DefaultKnowledgeService{Repo: f.faq, Threshold: tuning.KBSimilarityThreshold, Logger: logger},
		Rules:     rulesSvc,
		Guests:    &guest.DefaultGuestService{Stays: f.stays, Now: now, Logger: logger},
		Tasks:     sink,
		Extractor: &actions.Extractor{
			Thresholds: actions.Thresholds{
				Food:        tuning.FoodOrderThreshold,
				Item:        tuning.ItemRequestThreshold,
				Maintenance: tuning.MaintenanceThreshold,
				Complaint:   tuning.ComplaintThreshold,
			},
			Logger: logger,
		},
		Slots: &slots.Engine{
			Oracle:       f.oracle,
			Catalog:      catalogSvc,
			Rules:        rulesSvc,
			Tasks:        sink,
			MaxQuestions: tuning.MaxQuestions,
			Now:          now,
			Logger:       logger,
		},
		Classifier: &classifier.Classifier{Oracle: f.oracle, Mode: classifier.ModeHeuristic, Logger: logger},
		Tuning:     tuning,
		Now:        now,
		Logger:     logger,
	})
	return f
}

func (f *fixture) conversation(t *testing.T) *models.Conversation {
	t.Helper()
	conv, err := f.store.EnsureConversation(context.Background(), testTenant.ID, "c1", testStay.GuestPhone, "whatsapp")
	require.NoError(t, err)
	return conv
}

// send routes a message with the conversation as currently stored.
func (f *fixture) send(t *testing.T, message string) models.Reply {
	t.Helper()
	conv, err := f.store.GetConversation(context.Background(), f.conversation(t).ID)
	require.NoError(t, err)
	return f.router.Route(context.Background(), testTenant, conv, message)
}

func analysis(intents ...models.DetectedIntent) models.IntentAnalysis {
	return models.IntentAnalysis{Intents: intents, Confidence: 0.9}
}

func TestStageOrder(t *testing.T) {
	f := newFixture()

	var names []string
	for _, s := range f.router.Stages() {
		names = append(names, s.Name)
		assert.NotNil(t, s.Run, s.Name)
	}
	assert.Equal(t, StageOrder, names)
	assert.Equal(t, StagePending, names[0])
	assert.Equal(t, StageFallback, names[len(names)-1])
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "two towels please", Normalize("  two \t towels\n\nplease "))
	assert.Equal(t, "", Normalize("   "))
}

func TestEmergencyWinsOverKnowledgeBase(t *testing.T) {
	f := newFixture()

	out := f.send(t, "There's smoke coming from under the door")

	assert.Equal(t, StageEmergency, out.Stage)
	assert.Contains(t, out.Text, testTenant.EmergencyPhone)
	assert.Zero(t, f.faq.Hits["faq-smoke"])
	assert.Zero(t, f.oracle.CallCount(ai.CallAnalyze))

	tasks := f.tasks.Snapshot()
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskEmergency, tasks[0].Type)
	assert.Equal(t, models.DeptSecurity, tasks[0].Department)
	assert.Equal(t, models.PriorityUrgent, tasks[0].Priority)
	assert.Equal(t, 1, f.queue.Len())
}

func TestKnowledgeBaseAnswer(t *testing.T) {
	f := newFixture()

	out := f.send(t, "is breakfast included?")

	assert.Equal(t, StageKnowledge, out.Stage)
	assert.Equal(t, "Yes, breakfast is included for all guests.", out.Text)
	assert.Equal(t, 1, f.faq.Hits["faq-breakfast"])
	assert.Zero(t, f.oracle.CallCount(ai.CallAnalyze))
}

func TestTransferCreatesHandoffTask(t *testing.T) {
	f := newFixture()

	out := f.send(t, "Can I speak to a real person please")

	assert.Equal(t, StageTransfer, out.Stage)
	tasks := f.tasks.Snapshot()
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskHandoff, tasks[0].Type)
	assert.Equal(t, models.DeptFrontDesk, tasks[0].Department)
}

func TestFallbackWhenOracleIsDown(t *testing.T) {
	f := newFixture()

	out := f.send(t, "qwerty zxcv")

	assert.Equal(t, StageFallback, out.Stage)
	assert.NotEmpty(t, out.Text)
	assert.Contains(t, out.Text, testTenant.FrontDeskPhone)
	assert.Equal(t, models.ModeNormal, out.Mode)
}

func TestStagePanicIsRecovered(t *testing.T) {
	f := newFixture()
	for i := range f.router.stages {
		if f.router.stages[i].Name == StageKnowledge {
			f.router.stages[i].Run = func(context.Context, *Turn) (*models.Reply, error) {
				panic("index out of range")
			}
		}
	}

	var out models.Reply
	require.NotPanics(t, func() { out = f.send(t, "qwerty zxcv") })

	assert.Equal(t, StageFallback, out.Stage)
	assert.NotEmpty(t, out.Text)
}

func TestStageErrorUnwraps(t *testing.T) {
	err := &StageError{Stage: StageGenerate, Err: ai.ErrTimeout}

	assert.ErrorIs(t, err, ai.ErrTimeout)
	assert.Contains(t, err.Error(), "stage generate")
}

func TestQuantityFollowUpUpdatesSameTask(t *testing.T) {
	f := newFixture()
	f.oracle.RespondValue(ai.CallAnalyze, analysis(models.DetectedIntent{Intent: models.IntentRequestItem, Confidence: 0.95}))
	f.oracle.RespondValue(ai.CallGenerate, models.GeneratedReply{
		Reply:      "Of course! I'll send 3 towels up to room 204.",
		Directives: []models.ActionDirective{{Type: models.DirectiveRequestItem, Item: "Towels", Quantity: 3}},
	})

	first := f.send(t, "Could I get 3 towels please?")

	assert.Equal(t, StageGenerate, first.Stage)
	require.Len(t, first.Tasks, 1)
	assert.Equal(t, 3, first.Tasks[0].Quantity)
	assert.Equal(t, "204", first.Tasks[0].Room)

	second := f.send(t, "make it 5")

	assert.Equal(t, StageFollowup, second.Stage)
	assert.Contains(t, second.Text, "5")
	tasks := f.tasks.Snapshot()
	require.Len(t, tasks, 1)
	assert.Equal(t, 5, tasks[0].Quantity)
	assert.Equal(t, first.Tasks[0].ID, tasks[0].ID)
	assert.Equal(t, 1, f.oracle.CallCount(ai.CallAnalyze))
}

func TestBookingDialogAcrossTurns(t *testing.T) {
	f := newFixture()
	f.oracle.RespondValue(ai.CallAnalyze, analysis(models.DetectedIntent{
		Intent:           models.IntentBookService,
		Category:         string(models.CategoryLocalTours),
		Specificity:      models.SpecificitySpecific,
		AvailableOptions: []string{"Kruger Day Trip"},
		Confidence:       0.9,
	}))
	f.oracle.Respond(ai.CallExtract,
		`{"wantsToCancel": false, "confidence": 0.9}`,
		`{"numberOfPeople": 5, "requestedDate": "2025-10-20", "wantsToCancel": false, "confidence": 0.9}`,
	)

	first := f.send(t, "I'd like to book the Kruger Day Trip")

	assert.Equal(t, StageGenerate, first.Stage)
	assert.Equal(t, models.ModeGatheringBookingInfo, first.Mode)
	assert.Equal(t, "How many people will be joining?", first.Text)
	assert.Empty(t, f.tasks.Snapshot())

	second := f.send(t, "5 of us on the 20th")

	assert.Equal(t, StageBooking, second.Stage)
	assert.Equal(t, models.ModeNormal, second.Mode)
	tasks := f.tasks.Snapshot()
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskBooking, tasks[0].Type)
	assert.Equal(t, 5, tasks[0].Quantity)
}

func TestClarificationResumesOriginalRequest(t *testing.T) {
	f := newFixture()
	f.oracle.RespondValue(ai.CallAnalyze,
		models.IntentAnalysis{
			Intents:               []models.DetectedIntent{{Intent: models.IntentOther, Confidence: 0.4}},
			Ambiguous:             true,
			Confidence:            0.8,
			ClarificationQuestion: "Could you tell me what you need help with?",
		},
	)
	f.oracle.RespondValue(ai.CallAnalyze, analysis(models.DetectedIntent{Intent: models.IntentRequestItem, Confidence: 0.9}))
	f.oracle.RespondValue(ai.CallGenerate, models.GeneratedReply{
		Reply:      "Of course, two extra pillows are on their way.",
		Directives: []models.ActionDirective{{Type: models.DirectiveRequestItem, Item: "Pillows", Quantity: 2}},
	})

	first := f.send(t, "can you sort out the thing from earlier")

	assert.Equal(t, StageAnalysis, first.Stage)
	assert.Equal(t, "Could you tell me what you need help with?", first.Text)
	assert.Equal(t, models.ModeAwaitingClarification, first.Mode)
	pending, err := f.store.GetPendingState(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, models.PendingClarification, pending.StateType)

	second := f.send(t, "two extra pillows please")

	assert.Equal(t, StageGenerate, second.Stage)
	assert.Equal(t, models.ModeNormal, second.Mode)
	require.Len(t, second.Tasks, 1)
	assert.Equal(t, "Pillows", second.Tasks[0].Item)
	assert.Equal(t, 2, second.Tasks[0].Quantity)

	pending, _ = f.store.GetPendingState(context.Background(), "c1")
	assert.Nil(t, pending)
	last := f.oracle.Calls[len(f.oracle.Calls)-2]
	require.Equal(t, ai.CallAnalyze, last.Name)
	assert.Contains(t, last.Prompt, "can you sort out the thing from earlier two extra pillows please")
}

func TestUnregisteredGuestCannotRequestItems(t *testing.T) {
	f := newFixture()
	f.stays.Stay = nil
	f.oracle.RespondValue(ai.CallAnalyze, analysis(models.DetectedIntent{Intent: models.IntentRequestItem, Confidence: 0.9}))

	out := f.send(t, "Could I get 3 towels please?")

	assert.Equal(t, StageRules, out.Stage)
	assert.NotEmpty(t, out.Text)
	assert.Empty(t, f.tasks.Snapshot())
	assert.Zero(t, f.oracle.CallCount(ai.CallGenerate))
}

func TestPersistenceFailureFallsBackToNormal(t *testing.T) {
	f := newFixture()
	conv := f.conversation(t)
	f.oracle.RespondValue(ai.CallAnalyze, analysis(models.DetectedIntent{
		Intent:           models.IntentBookService,
		Category:         string(models.CategoryLocalTours),
		Specificity:      models.SpecificitySpecific,
		AvailableOptions: []string{"Kruger Day Trip"},
		Confidence:       0.9,
	}))
	f.oracle.Respond(ai.CallExtract, `{"wantsToCancel": false, "confidence": 0.9}`)
	f.store.FailWrites = true

	out := f.router.Route(context.Background(), testTenant, conv, "I'd like to book the Kruger Day Trip")

	assert.NotEmpty(t, out.Text)
	assert.Equal(t, models.ModeNormal, out.Mode)
	stored, err := f.store.GetConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ModeNormal, stored.Mode.Kind)
}

func TestHistoryCarriesStageAndTaskMetadata(t *testing.T) {
	f := newFixture()
	f.oracle.RespondValue(ai.CallAnalyze, analysis(models.DetectedIntent{Intent: models.IntentRequestItem, Confidence: 0.95}))
	f.oracle.RespondValue(ai.CallGenerate, models.GeneratedReply{
		Reply:      "Of course! I'll send 3 towels up to room 204.",
		Directives: []models.ActionDirective{{Type: models.DirectiveRequestItem, Item: "Towels", Quantity: 3}},
	})

	f.send(t, "Could I get 3 towels please?")

	history, err := f.store.GetRecentHistory(context.Background(), "c1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleGuest, history[0].Role)
	assert.Equal(t, models.RoleBot, history[1].Role)
	assert.Equal(t, StageGenerate, history[1].Meta[models.MetaStage])
	assert.Equal(t, "item_request:towel", history[1].Meta[models.MetaTaskIdentity])
}

func preArrivalStay() *models.Stay {
	stay := *testStay
	stay.CheckIn = testNow.AddDate(0, 0, 2)
	stay.CheckOut = testNow.AddDate(0, 0, 5)
	return &stay
}

func TestRestrictedItemIsRefusedBeforeArrival(t *testing.T) {
	f := newFixture()
	f.stays.Stay = preArrivalStay()
	f.oracle.RespondValue(ai.CallAnalyze, analysis(models.DetectedIntent{Intent: models.IntentInformation, Confidence: 0.9}))
	f.oracle.Respond(ai.CallPermission, `{"restricted": true, "item": "Binoculars"}`)

	out := f.send(t, "Do you lend out binoculars for game drives?")

	assert.Equal(t, StageGenerate, out.Stage)
	assert.Equal(t, "Binoculars is only available to guests staying with us. Please contact the front desk if you need help.", out.Text)
	assert.Zero(t, f.oracle.CallCount(ai.CallGenerate))
	assert.Empty(t, f.tasks.Snapshot())
}

func TestPermissionCheckFailureLetsRequestThrough(t *testing.T) {
	f := newFixture()
	f.stays.Stay = preArrivalStay()
	f.oracle.RespondValue(ai.CallAnalyze, analysis(models.DetectedIntent{Intent: models.IntentInformation, Confidence: 0.9}))
	f.oracle.Fail(ai.CallPermission, ai.ErrTimeout)
	f.oracle.RespondValue(ai.CallGenerate, models.GeneratedReply{Reply: "Yes, binoculars can be borrowed from reception once you arrive."})

	out := f.send(t, "Do you lend out binoculars for game drives?")

	assert.Equal(t, StageGenerate, out.Stage)
	assert.Equal(t, "Yes, binoculars can be borrowed from reception once you arrive.", out.Text)
	assert.Equal(t, 1, f.oracle.CallCount(ai.CallPermission))
	assert.Equal(t, 1, f.oracle.CallCount(ai.CallGenerate))
}

func TestActiveGuestSkipsPermissionCheck(t *testing.T) {
	f := newFixture()
	f.oracle.RespondValue(ai.CallAnalyze, analysis(models.DetectedIntent{Intent: models.IntentInformation, Confidence: 0.9}))
	f.oracle.RespondValue(ai.CallGenerate, models.GeneratedReply{Reply: "Binoculars are available at reception."})

	out := f.send(t, "Do you lend out binoculars for game drives?")

	assert.Equal(t, "Binoculars are available at reception.", out.Text)
	assert.Zero(t, f.oracle.CallCount(ai.CallPermission))
}

func TestOfferedItemMatchesWholeWords(t *testing.T) {
	snap := models.CatalogSnapshot{RequestItems: []models.RequestItem{{Name: "Pen"}, {Name: "Towels"}}}

	_, ok := offeredItem("Shall I have someone open the window for you?", snap)
	assert.False(t, ok)

	item, ok := offeredItem("Would you like a pen as well?", snap)
	assert.True(t, ok)
	assert.Equal(t, "Pen", item)

	item, ok = offeredItem("Shall I send up a fresh towel?", snap)
	assert.True(t, ok)
	assert.Equal(t, "Towels", item)
}

func TestAwaitingWithoutPendingStateReturnsToNormal(t *testing.T) {
	f := newFixture()
	f.conversation(t)
	require.NoError(t, f.store.SetMode(context.Background(), "c1", models.AwaitingClarification{
		Field: models.PendingField{EntityType: "message", Field: "clarification", StateType: models.PendingClarification},
	}))

	out := f.send(t, "is breakfast included?")

	assert.Equal(t, StageKnowledge, out.Stage)
	assert.Equal(t, models.ModeNormal, out.Mode)
	conv, err := f.store.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeNormal, conv.Mode.Kind)
}
