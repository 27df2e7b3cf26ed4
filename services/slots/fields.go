package slots

import (
	"fmt"
	"strings"

	"concierge/models"
)

var defaultRequired = map[models.ServiceCategory][]string{
	models.CategoryDining:     {models.FieldNumberOfPeople, models.FieldRequestedDate, models.FieldRequestedTime},
	models.CategoryLocalTours: {models.FieldServiceName, models.FieldNumberOfPeople, models.FieldRequestedDate},
	models.CategorySpa:        {models.FieldServiceName, models.FieldRequestedDate, models.FieldRequestedTime},
	models.CategoryTransport:  {models.FieldLocation, models.FieldRequestedDate, models.FieldRequestedTime},
	models.CategoryActivities: {models.FieldServiceName, models.FieldNumberOfPeople, models.FieldRequestedDate},
}

// DefaultRequired returns the built-in required fields of a category.
func DefaultRequired(category models.ServiceCategory) []string {
	if req, ok := defaultRequired[category]; ok {
		return append([]string(nil), req...)
	}
	return []string{models.FieldServiceCategory, models.FieldRequestedDate}
}

// MissingFields lists the required fields the state has no value for, in required order.
// Dining never asks for a service name or a location.
func MissingFields(state models.BookingSlotState, required []string) []string {
	missing := []string{}
	for _, f := range required {
		if state.ServiceCategory == models.CategoryDining && (f == models.FieldServiceName || f == models.FieldLocation) {
			continue
		}
		if _, ok := state.Value(f); !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// FieldQuestion is the deterministic question for one missing field.
func FieldQuestion(field string, category models.ServiceCategory, options []string) string {
	switch field {
	case models.FieldServiceName:
		if len(options) > 0 {
			return ServiceQuestion(category, options)
		}
		return fmt.Sprintf("Which %s would you like?", category.Label())
	case models.FieldServiceCategory:
		return "What would you like to book? We can arrange dining, tours, spa treatments, transfers and activities."
	case models.FieldNumberOfPeople:
		return "How many people will be joining?"
	case models.FieldRequestedDate:
		return "What date would you like?"
	case models.FieldRequestedTime:
		return "What time would suit you?"
	case models.FieldLocation:
		return "Where should we pick you up, or where are you headed?"
	case models.FieldMealType:
		return "Is that for breakfast, lunch or dinner?"
	}
	return "Could you tell me a bit more about what you'd like to book?"
}

// ServiceQuestion enumerates the catalog for a category. It is built here rather than by the
// oracle so no option is ever invented or left out.
func ServiceQuestion(category models.ServiceCategory, options []string) string {
	return fmt.Sprintf("Which %s would you like? We offer: %s.", category.Label(), strings.Join(options, ", "))
}

// Summary describes a booking in one line.
func Summary(s models.BookingSlotState) string {
	var sb strings.Builder
	if s.ServiceName != nil {
		sb.WriteString(*s.ServiceName)
	} else if s.ServiceCategory == models.CategoryDining {
		sb.WriteString("a table")
	} else {
		sb.WriteString("a " + s.ServiceCategory.Label())
	}
	if s.NumberOfPeople != nil {
		fmt.Fprintf(&sb, " for %d", *s.NumberOfPeople)
	}
	if s.RequestedDate != nil {
		sb.WriteString(" on " + *s.RequestedDate)
	}
	if s.RequestedTime != nil {
		sb.WriteString(" at " + *s.RequestedTime)
	}
	if s.Location != nil {
		sb.WriteString(" (" + *s.Location + ")")
	}
	return sb.String()
}

// Metadata flattens the filled slots for the booking task.
func Metadata(s models.BookingSlotState) map[string]string {
	meta := map[string]string{}
	for _, f := range []string{
		models.FieldServiceName, models.FieldServiceCategory, models.FieldMealType, models.FieldLocation,
		models.FieldNumberOfPeople, models.FieldRequestedDate, models.FieldRequestedTime, models.FieldSpecialRequests,
	} {
		if v, ok := s.Value(f); ok {
			meta[f] = v
		}
	}
	return meta
}

func departmentFor(category models.ServiceCategory) string {
	switch category {
	case models.CategoryDining:
		return models.DeptFoodAndBev
	case models.CategorySpa:
		return models.DeptSpa
	}
	return models.DeptConcierge
}
