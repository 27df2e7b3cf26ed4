package models

// Intent labels produced by oracle analysis.
const (
	IntentBookService   = "book_service"
	IntentOrderFood     = "order_food"
	IntentRequestItem   = "request_item"
	IntentMaintenance   = "maintenance"
	IntentComplaint     = "complaint"
	IntentLostItem      = "lost_item"
	IntentInformation   = "information"
	IntentGreeting      = "greeting"
	IntentHumanTransfer = "human_transfer"
	IntentOther         = "other"
)

// Specificity of a detected intent.
const (
	SpecificitySpecific = "specific"
	SpecificityGeneral  = "general"
)

// DetectedIntent is one intent found in a guest message. AvailableOptions only ever holds
// catalog-validated names.
type DetectedIntent struct {
	Intent            string   `json:"intent"`
	Category          string   `json:"category,omitempty"`
	Specificity       string   `json:"specificity,omitempty"`
	AvailableOptions  []string `json:"availableOptions,omitempty"`
	Confidence        float64  `json:"confidence"`
	RequestedQuantity int      `json:"requestedQuantity,omitempty"`
	Span              string   `json:"span,omitempty"` // text from the message supporting the intent
}

// Actionable reports whether the intent leads to a side effect rather than small talk.
func (d DetectedIntent) Actionable() bool {
	switch d.Intent {
	case IntentBookService, IntentOrderFood, IntentRequestItem, IntentMaintenance, IntentComplaint, IntentLostItem:
		return true
	}
	return false
}

// IntentAnalysis is the oracle's view of a message.
type IntentAnalysis struct {
	Intents               []DetectedIntent `json:"intents"`
	Ambiguous             bool             `json:"ambiguous"`
	Confidence            float64          `json:"confidence"`
	ClarificationQuestion string           `json:"clarificationQuestion,omitempty"`
}

// Primary returns the highest-confidence intent.
func (a *IntentAnalysis) Primary() (DetectedIntent, bool) {
	if a == nil || len(a.Intents) == 0 {
		return DetectedIntent{}, false
	}
	best := a.Intents[0]
	for _, in := range a.Intents[1:] {
		if in.Confidence > best.Confidence {
			best = in
		}
	}
	return best, true
}

// Find returns the first intent with the given label.
func (a *IntentAnalysis) Find(intent string) (DetectedIntent, bool) {
	if a == nil {
		return DetectedIntent{}, false
	}
	for _, in := range a.Intents {
		if in.Intent == intent {
			return in, true
		}
	}
	return DetectedIntent{}, false
}

// HasActionable reports whether any intent is actionable.
func (a *IntentAnalysis) HasActionable() bool {
	if a == nil {
		return false
	}
	for _, in := range a.Intents {
		if in.Actionable() {
			return true
		}
	}
	return false
}
