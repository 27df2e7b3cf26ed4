package models

import (
	"strconv"
	"strings"
)

// ServiceCategory groups bookable services.
type ServiceCategory string

const (
	CategoryDining     ServiceCategory = "DINING"
	CategoryLocalTours ServiceCategory = "LOCAL_TOURS"
	CategorySpa        ServiceCategory = "SPA"
	CategoryTransport  ServiceCategory = "TRANSPORT"
	CategoryActivities ServiceCategory = "ACTIVITIES"
)

// ParseCategory normalises free text ("local tours", "Dining") to a known category.
func ParseCategory(s string) (ServiceCategory, bool) {
	c := ServiceCategory(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")))
	switch c {
	case CategoryDining, CategoryLocalTours, CategorySpa, CategoryTransport, CategoryActivities:
		return c, true
	}
	return "", false
}

// Label is the guest-facing name of the category.
func (c ServiceCategory) Label() string {
	switch c {
	case CategoryDining:
		return "dining option"
	case CategoryLocalTours:
		return "tour"
	case CategorySpa:
		return "spa treatment"
	case CategoryTransport:
		return "transfer"
	case CategoryActivities:
		return "activity"
	}
	return "service"
}

// Slot field names. These are also the names used by business-rule overrides.
const (
	FieldServiceName     = "serviceName"
	FieldServiceCategory = "serviceCategory"
	FieldMealType        = "mealType"
	FieldLocation        = "location"
	FieldNumberOfPeople  = "numberOfPeople"
	FieldRequestedDate   = "requestedDate"
	FieldRequestedTime   = "requestedTime"
	FieldSpecialRequests = "specialRequests"
)

// BookingSlotState accumulates booking parameters across turns. Nil pointers are unset slots.
type BookingSlotState struct {
	ServiceName          *string         `bson:"serviceName,omitempty" json:"serviceName,omitempty"`
	ServiceCategory      ServiceCategory `bson:"serviceCategory,omitempty" json:"serviceCategory,omitempty"`
	MealType             *string         `bson:"mealType,omitempty" json:"mealType,omitempty"`
	Location             *string         `bson:"location,omitempty" json:"location,omitempty"`
	NumberOfPeople       *int            `bson:"numberOfPeople,omitempty" json:"numberOfPeople,omitempty"`
	RequestedDate        *string         `bson:"requestedDate,omitempty" json:"requestedDate,omitempty"` // YYYY-MM-DD
	RequestedTime        *string         `bson:"requestedTime,omitempty" json:"requestedTime,omitempty"` // HH:MM, 24h
	SpecialRequests      *string         `bson:"specialRequests,omitempty" json:"specialRequests,omitempty"`
	ExtractionConfidence float64         `bson:"extractionConfidence" json:"extractionConfidence"`
	MissingFields        []string        `bson:"missingRequiredFields,omitempty" json:"missingRequiredFields"`
	QuestionAttempts     int             `bson:"questionAttempts" json:"questionAttempts"`
	EscalationOffered    bool            `bson:"escalationOffered,omitempty" json:"escalationOffered,omitempty"`

	// Diagnostics only; never drive behaviour.
	Citations     []string `bson:"citations,omitempty" json:"citations,omitempty"`
	Assumptions   []string `bson:"assumptions,omitempty" json:"assumptions,omitempty"`
	Uncertainties []string `bson:"uncertainties,omitempty" json:"uncertainties,omitempty"`
}

// SlotExtraction is what the oracle returns for one message. Nil means "not mentioned".
type SlotExtraction struct {
	ServiceName     *string  `json:"serviceName"`
	ServiceCategory *string  `json:"serviceCategory"`
	MealType        *string  `json:"mealType"`
	Location        *string  `json:"location"`
	NumberOfPeople  *int     `json:"numberOfPeople"`
	RequestedDate   *string  `json:"requestedDate"`
	RequestedTime   *string  `json:"requestedTime"`
	SpecialRequests *string  `json:"specialRequests"`
	WantsToCancel   bool     `json:"wantsToCancel"`
	Confidence      float64  `json:"confidence"`
	Citations       []string `json:"citations"`
	Assumptions     []string `json:"assumptions"`
	Uncertainties   []string `json:"uncertainties"`
}

// Merge folds an extraction into the state. Only non-null, non-blank values are applied, so a
// slot that has been filled never regresses to empty.
func (s *BookingSlotState) Merge(e SlotExtraction) {
	setString(&s.ServiceName, e.ServiceName)
	setString(&s.MealType, e.MealType)
	setString(&s.Location, e.Location)
	setString(&s.RequestedDate, e.RequestedDate)
	setString(&s.RequestedTime, e.RequestedTime)
	setString(&s.SpecialRequests, e.SpecialRequests)
	if e.NumberOfPeople != nil && *e.NumberOfPeople > 0 {
		n := *e.NumberOfPeople
		s.NumberOfPeople = &n
	}
	if e.ServiceCategory != nil {
		if c, ok := ParseCategory(*e.ServiceCategory); ok {
			s.ServiceCategory = c
		}
	}
	if e.Confidence > 0 {
		s.ExtractionConfidence = e.Confidence
	}
	s.Citations = append(s.Citations, e.Citations...)
	s.Assumptions = append(s.Assumptions, e.Assumptions...)
	s.Uncertainties = append(s.Uncertainties, e.Uncertainties...)
}

func setString(dst **string, v *string) {
	if v == nil {
		return
	}
	t := strings.TrimSpace(*v)
	if t == "" || strings.EqualFold(t, "null") {
		return
	}
	*dst = &t
}

// Value returns the slot's value as text and whether it is set.
func (s BookingSlotState) Value(field string) (string, bool) {
	var p *string
	switch field {
	case FieldServiceName:
		p = s.ServiceName
	case FieldServiceCategory:
		return string(s.ServiceCategory), s.ServiceCategory != ""
	case FieldMealType:
		p = s.MealType
	case FieldLocation:
		p = s.Location
	case FieldNumberOfPeople:
		if s.NumberOfPeople == nil {
			return "", false
		}
		return strconv.Itoa(*s.NumberOfPeople), true
	case FieldRequestedDate:
		p = s.RequestedDate
	case FieldRequestedTime:
		p = s.RequestedTime
	case FieldSpecialRequests:
		p = s.SpecialRequests
	}
	if p == nil {
		return "", false
	}
	return *p, true
}

// Str returns a pointer to a copy of v.
func Str(v string) *string { return &v }

// Int returns a pointer to a copy of v.
func Int(v int) *int { return &v }
