package slots

import (
	"fmt"
	"time"

	"concierge/models"
	"concierge/services/catalog"

	"github.com/sahilm/fuzzy"
)

// Validate checks a complete booking against the live catalog and the tenant's clock.
func Validate(s models.BookingSlotState, services []models.Service, tenant models.Tenant, now time.Time) error {
	var service *models.Service
	if s.ServiceName != nil {
		service = catalog.Match(services, *s.ServiceName)
		if service == nil {
			return &ValidationError{
				Code:        "not_found",
				Message:     fmt.Sprintf("I couldn't find %s in what we offer.", *s.ServiceName),
				Alternative: suggest(*s.ServiceName, s.ServiceCategory, services),
			}
		}
		if !service.Available {
			return &ValidationError{
				Code:        "unavailable",
				Message:     fmt.Sprintf("Unfortunately %s isn't available at the moment.", service.Name),
				Alternative: suggest(service.Name, service.Category, services),
			}
		}
	}

	loc := tenant.Location()
	local := now.In(loc)
	if s.RequestedDate != nil {
		day, err := time.ParseInLocation("2006-01-02", *s.RequestedDate, loc)
		if err != nil {
			return &ValidationError{Code: "bad_date", Message: "I didn't catch the date. Which day would you like?"}
		}
		today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		if day.Before(today) {
			return &ValidationError{Code: "past_date", Message: "That date has already passed. Which upcoming day would suit you?"}
		}

		at := day
		if s.RequestedTime != nil {
			clock, err := time.Parse("15:04", *s.RequestedTime)
			if err != nil {
				return &ValidationError{Code: "bad_time", Message: "I didn't catch the time. What time would you like?"}
			}
			at = time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
			if at.Before(local) {
				return &ValidationError{Code: "past_time", Message: "That time has already passed today. Would a later time work?"}
			}
		}

		if service != nil && service.AdvanceNoticeHours > 0 && at.Sub(local) < time.Duration(service.AdvanceNoticeHours)*time.Hour {
			earliest := local.Add(time.Duration(service.AdvanceNoticeHours) * time.Hour)
			return &ValidationError{
				Code:        "advance_notice",
				Message:     fmt.Sprintf("%s needs at least %d hours' notice.", service.Name, service.AdvanceNoticeHours),
				Alternative: fmt.Sprintf("The earliest we can arrange it is %s.", earliest.Format("Monday 2 January at 15:04")),
			}
		}
	}

	if s.NumberOfPeople != nil {
		capacity := tenant.DiningMaxPartySize
		name := "a table"
		if service != nil {
			capacity, name = service.MaxCapacity, service.Name
		} else if s.ServiceCategory != models.CategoryDining {
			capacity = 0
		}
		if capacity > 0 && *s.NumberOfPeople > capacity {
			return &ValidationError{
				Code:        "capacity",
				Message:     fmt.Sprintf("%s can take up to %d guests.", name, capacity),
				Alternative: "Would you like to book for a smaller group, or shall I ask the team about a larger one?",
			}
		}
	}
	return nil
}

// suggest offers the closest available service in the same category.
func suggest(name string, category models.ServiceCategory, services []models.Service) string {
	var candidates []string
	for _, s := range services {
		if s.Available && (category == "" || s.Category == category) && s.Name != name {
			candidates = append(candidates, s.Name)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	best := candidates[0]
	if matches := fuzzy.Find(name, candidates); len(matches) > 0 {
		best = matches[0].Str
	}
	return fmt.Sprintf("Would %s work instead?", best)
}
