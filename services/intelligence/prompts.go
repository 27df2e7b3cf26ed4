package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"concierge/models"
)

// Call names, used for logging and for routing in test fakes.
const (
	CallAnalyze    = "analyze_intent"
	CallExtract    = "extract_slots"
	CallQuestion   = "next_question"
	CallClassify   = "classify_message"
	CallGenerate   = "generate_reply"
	CallPermission = "item_permission"
)

func str(desc string) *Schema  { return &Schema{Type: TypeString, Description: desc} }
func nstr(desc string) *Schema { return &Schema{Type: TypeString, Description: desc, Nullable: true} }
func strList(desc string) *Schema {
	return &Schema{Type: TypeArray, Description: desc, Items: &Schema{Type: TypeString}}
}

// AnalysisSchema is the response shape of intent analysis.
var AnalysisSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"intents": {
			Type: TypeArray,
			Items: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"intent": {Type: TypeString, Enum: []string{
						models.IntentBookService, models.IntentOrderFood, models.IntentRequestItem,
						models.IntentMaintenance, models.IntentComplaint, models.IntentLostItem,
						models.IntentInformation, models.IntentGreeting, models.IntentHumanTransfer,
						models.IntentOther,
					}},
					"category":          nstr("DINING, LOCAL_TOURS, SPA, TRANSPORT or ACTIVITIES"),
					"specificity":       {Type: TypeString, Enum: []string{models.SpecificitySpecific, models.SpecificityGeneral}},
					"availableOptions":  strList("catalog names relevant to the request"),
					"confidence":        {Type: TypeNumber},
					"requestedQuantity": {Type: TypeInteger},
					"span":              str("exact text from the message supporting this intent"),
				},
				Required: []string{"intent", "confidence"},
			},
		},
		"ambiguous":             {Type: TypeBoolean},
		"confidence":            {Type: TypeNumber},
		"clarificationQuestion": nstr("question to ask when the message is ambiguous"),
	},
	Required: []string{"intents", "ambiguous", "confidence"},
}

// ExtractionSchema is the response shape of slot extraction.
var ExtractionSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		models.FieldServiceName:     nstr("exact catalog name, or null"),
		models.FieldServiceCategory: nstr("DINING, LOCAL_TOURS, SPA, TRANSPORT or ACTIVITIES"),
		models.FieldMealType:        nstr("breakfast, lunch or dinner"),
		models.FieldLocation:        nstr("pickup or destination"),
		models.FieldNumberOfPeople:  {Type: TypeInteger, Nullable: true},
		models.FieldRequestedDate:   nstr("YYYY-MM-DD"),
		models.FieldRequestedTime:   nstr("HH:MM, 24 hour"),
		models.FieldSpecialRequests: nstr(""),
		"wantsToCancel":             {Type: TypeBoolean},
		"confidence":                {Type: TypeNumber},
		"citations":                 strList("message fragments each value came from"),
		"assumptions":               strList(""),
		"uncertainties":             strList(""),
	},
	Required: []string{"wantsToCancel", "confidence"},
}

// QuestionSchema is the response shape of next-question generation.
var QuestionSchema = &Schema{
	Type:       TypeObject,
	Properties: map[string]*Schema{"question": str("one short question")},
	Required:   []string{"question"},
}

// ClassificationSchema is the response shape of message classification.
var ClassificationSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"label":      {Type: TypeString, Enum: []string{"greeting", "menu", "timing", "other"}},
		"confidence": {Type: TypeNumber},
	},
	Required: []string{"label", "confidence"},
}

// ReplySchema is the response shape of concierge reply generation.
var ReplySchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"reply": str("message to the guest"),
		"directives": {
			Type: TypeArray,
			Items: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"type": {Type: TypeString, Enum: []string{
						models.DirectiveOrderFood, models.DirectiveRequestItem, models.DirectiveMaintenance,
						models.DirectiveComplaint, models.DirectiveLostItem,
					}},
					"item":     str(""),
					"quantity": {Type: TypeInteger},
					"details":  str(""),
					"location": nstr("where a lost item was last seen"),
				},
				Required: []string{"type", "item"},
			},
		},
	},
	Required: []string{"reply"},
}

// PermissionSchema is the response shape of the restricted-item check.
var PermissionSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"restricted": {Type: TypeBoolean},
		"item":       nstr("the restricted item the guest asked for"),
	},
	Required: []string{"restricted"},
}

// ClassificationResult is the decoded answer of a classification call.
type ClassificationResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// QuestionResult is the decoded answer of a question call.
type QuestionResult struct {
	Question string `json:"question"`
}

// PermissionResult is the decoded answer of a restricted-item check.
type PermissionResult struct {
	Restricted bool    `json:"restricted"`
	Item       *string `json:"item"`
}

func formatHistory(history []models.HistoryMsg) string {
	if len(history) == 0 {
		return "(no previous messages)"
	}
	var sb strings.Builder
	for _, m := range history {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Text)
	}
	return sb.String()
}

func bulletList(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return "- " + strings.Join(names, "\n- ")
}

// AnalysisPrompt asks for the intents in a guest message.
func AnalysisPrompt(tenant models.Tenant, message string, history []models.HistoryMsg, catalog []string) string {
	return fmt.Sprintf(`You analyse guest messages for the concierge of %s.
Identify every intent in the latest message. A message can carry several intents.
Only list availableOptions that appear verbatim in the catalog below; never invent names.
Set ambiguous=true only when you cannot tell what the guest wants, and write one short
clarificationQuestion in that case.

Catalog:
%s

Conversation so far:
%s
Latest guest message: %q`, tenant.Name, bulletList(catalog), formatHistory(history), message)
}

// ExtractionPrompt asks for booking slot values in a message.
func ExtractionPrompt(message string, history []models.HistoryMsg, prior models.BookingSlotState, services []string, today time.Time) string {
	priorJSON, _ := json.Marshal(prior)
	return fmt.Sprintf(`Extract booking details from the guest's latest message.
Today is %s (%s). Resolve relative dates to YYYY-MM-DD and times to 24 hour HH:MM.
Return null for anything the guest did not say. Do not repeat values already known unless the
guest changed them. serviceName must be copied exactly from the list below, or null.
Set wantsToCancel=true only if the guest no longer wants to book.

Bookable services:
%s

Known so far: %s

Conversation so far:
%s
Latest guest message: %q`, today.Format("2006-01-02"), today.Weekday(), bulletList(services), priorJSON, formatHistory(history), message)
}

// QuestionPrompt asks for one natural question about the missing fields.
func QuestionPrompt(state models.BookingSlotState, missing []string, options []string) string {
	known, _ := json.Marshal(state)
	optionLine := "There are no named options to mention."
	if len(options) > 0 {
		optionLine = "If you mention options, list exactly these and no others: " + strings.Join(options, ", ") + "."
	}
	return fmt.Sprintf(`You are a hotel concierge finishing a %s booking.
Known details: %s
Still needed: %s
Ask the guest one short, friendly question for the first missing detail. %s`,
		state.ServiceCategory.Label(), known, strings.Join(missing, ", "), optionLine)
}

// ClassifyPrompt asks for a coarse label of a message.
func ClassifyPrompt(message, lastBot string) string {
	return fmt.Sprintf(`Classify the guest message as greeting, menu (asking about food or the menu),
timing (asking about opening hours or times) or other.
Previous concierge message: %q
Guest message: %q`, lastBot, message)
}

// ReplyPrompt asks for a concierge answer with action directives.
func ReplyPrompt(tenant models.Tenant, guest models.GuestStatus, catalog models.CatalogSnapshot, history []models.HistoryMsg, message string) string {
	var menu []string
	for _, m := range catalog.MenuItems {
		menu = append(menu, fmt.Sprintf("%s (%s, %.2f)", m.Name, m.MealType, m.Price))
	}
	var items []string
	for _, r := range catalog.RequestItems {
		items = append(items, r.Name)
	}
	guestLine := "The guest is not registered."
	if guest.Lifecycle != models.LifecycleUnregistered {
		guestLine = fmt.Sprintf("Guest %s, room %s, stay status %s.", guest.GuestName, guest.Room, guest.Lifecycle)
	}
	return fmt.Sprintf(`You are the concierge of %s. %s
Front desk: %s. Check-in %s, check-out %s. Breakfast %s, lunch %s, dinner %s, room service %s.

Only mention services, dishes and items from these lists. If something is not listed, say so.
Services:
%s
Menu:
%s
Items housekeeping can bring:
%s

When the guest asks for something to be done, add a directive: ORDER_FOOD for menu items,
REQUEST_ITEM for items, MAINTENANCE for broken things, COMPLAINT for complaints, LOST_ITEM for
lost property (set location if the guest said where).

Conversation so far:
%s
Latest guest message: %q`,
		tenant.Name, guestLine, tenant.FrontDeskPhone, tenant.CheckInTime, tenant.CheckOutTime,
		tenant.BreakfastHours, tenant.LunchHours, tenant.DinnerHours, tenant.RoomServiceHours,
		bulletList(catalog.ServiceNames("")), bulletList(menu), bulletList(items),
		formatHistory(history), message)
}

// PermissionPrompt asks whether a message requests one of the restricted items.
func PermissionPrompt(message string, restricted []string) string {
	return fmt.Sprintf(`These items are only available to guests currently staying at the hotel:
%s
Does this message ask for one of them? Message: %q`, bulletList(restricted), message)
}
