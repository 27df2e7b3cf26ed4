package models

// ModeKind names a conversation mode on the wire.
type ModeKind string

const (
	ModeNormal                ModeKind = "normal"
	ModeGatheringBookingInfo  ModeKind = "gathering_booking_info"
	ModeAwaitingClarification ModeKind = "awaiting_clarification"
)

// Mode is a closed set of conversation modes. Only the three types in this file implement it,
// and each carries exactly the payload its mode needs.
type Mode interface {
	Kind() ModeKind
	isMode()
}

// Normal is the default mode: no sub-dialog in progress.
type Normal struct{}

// Gathering is an in-progress booking dialog.
type Gathering struct {
	Slots BookingSlotState
}

// AwaitingClarification waits for the guest to answer a pending question.
type AwaitingClarification struct {
	Field PendingField
}

func (Normal) Kind() ModeKind                { return ModeNormal }
func (Gathering) Kind() ModeKind             { return ModeGatheringBookingInfo }
func (AwaitingClarification) Kind() ModeKind { return ModeAwaitingClarification }

func (Normal) isMode()                {}
func (Gathering) isMode()             {}
func (AwaitingClarification) isMode() {}

// ModeRecord is the persisted form of a Mode.
type ModeRecord struct {
	Kind         ModeKind          `bson:"kind" json:"kind"`
	Slots        *BookingSlotState `bson:"slots,omitempty" json:"slots,omitempty"`
	PendingField *PendingField     `bson:"pendingField,omitempty" json:"pendingField,omitempty"`
}

// RecordOf converts a Mode to its persisted form. A nil mode is Normal.
func RecordOf(m Mode) ModeRecord {
	switch v := m.(type) {
	case Gathering:
		slots := v.Slots
		return ModeRecord{Kind: ModeGatheringBookingInfo, Slots: &slots}
	case AwaitingClarification:
		field := v.Field
		return ModeRecord{Kind: ModeAwaitingClarification, PendingField: &field}
	default:
		return ModeRecord{Kind: ModeNormal}
	}
}

// Mode decodes the record. Inconsistent records (a gathering mode without slots, an unknown
// kind) decode to Normal so a corrupted document can never wedge a conversation.
func (r ModeRecord) Mode() Mode {
	switch r.Kind {
	case ModeGatheringBookingInfo:
		if r.Slots != nil {
			return Gathering{Slots: *r.Slots}
		}
	case ModeAwaitingClarification:
		if r.PendingField != nil {
			return AwaitingClarification{Field: *r.PendingField}
		}
	}
	return Normal{}
}
