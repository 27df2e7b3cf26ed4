package models

// InboundMessage is the payload posted by the chat transport.
type InboundMessage struct {
	ConversationID string `json:"conversationId"`
	GuestPhone     string `json:"guestPhone" binding:"required"`
	Channel        string `json:"channel"`
	Text           string `json:"text" binding:"required"`
}

// Reply is what the router returns for one inbound message. Text is never empty.
type Reply struct {
	Text           string            `json:"reply"`
	Stage          string            `json:"stage"` // pipeline stage that produced the reply
	ConversationID string            `json:"conversationId"`
	Mode           ModeKind          `json:"mode"`
	Intents        []DetectedIntent  `json:"intents,omitempty"`
	Tasks          []StaffTask       `json:"tasks,omitempty"`
	Meta           map[string]string `json:"-"` // follow-up metadata stored on the bot history message
}

// Directive types surfaced by reply generation.
const (
	DirectiveOrderFood   = "ORDER_FOOD"
	DirectiveRequestItem = "REQUEST_ITEM"
	DirectiveMaintenance = "MAINTENANCE"
	DirectiveComplaint   = "COMPLAINT"
	DirectiveLostItem    = "LOST_ITEM"
)

// ActionDirective is a structured side-effect request attached to a generated reply.
type ActionDirective struct {
	Type     string `json:"type"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity,omitempty"`
	Details  string `json:"details,omitempty"`
	Location string `json:"location,omitempty"` // lost items: where it was last seen
}

// GeneratedReply is the oracle's concierge answer plus any directives.
type GeneratedReply struct {
	Reply      string            `json:"reply"`
	Directives []ActionDirective `json:"directives,omitempty"`
}
