package models

import "time"

// Role of a history message author.
type Role string

const (
	RoleGuest Role = "guest"
	RoleBot   Role = "bot"
)

// Conversation is a guest chat thread scoped to one tenant.
type Conversation struct {
	ID         string       `bson:"id" json:"id"`
	TenantID   string       `bson:"tenantId" json:"tenantId"`
	GuestPhone string       `bson:"guestPhone,omitempty" json:"guestPhone,omitempty"` // channel address of the guest
	Channel    string       `bson:"channel,omitempty" json:"channel,omitempty"`       // e.g. "whatsapp", "web"
	Mode       ModeRecord   `bson:"mode" json:"mode"`
	History    []HistoryMsg `bson:"history,omitempty" json:"history,omitempty"` // append-only
	CreatedAt  time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// HistoryMsg is one turn of the transcript. Bot messages may carry follow-up metadata so a
// short reply on the next turn ("yes", "make it 5") can be resolved without the oracle.
type HistoryMsg struct {
	Role Role              `bson:"role" json:"role"`
	Text string            `bson:"text" json:"text"`
	At   time.Time         `bson:"at" json:"at"`
	Meta map[string]string `bson:"meta,omitempty" json:"meta,omitempty"`
}

// Keys used in HistoryMsg.Meta.
const (
	MetaStage        = "stage"
	MetaOfferItem    = "offerItem"    // item offered in a yes/no question
	MetaOfferType    = "offerType"    // task type the offer would create
	MetaTaskIdentity = "taskIdentity" // identity of the task the bot just confirmed
	MetaTaskItem     = "taskItem"
	MetaTaskType     = "taskType"
	MetaTaskID       = "taskId"
	MetaTaskDept     = "taskDepartment"
)

// LastBotMessage returns the most recent bot message, if any.
func LastBotMessage(history []HistoryMsg) (HistoryMsg, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleBot {
			return history[i], true
		}
	}
	return HistoryMsg{}, false
}
