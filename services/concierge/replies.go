package concierge

import (
	"fmt"
	"strings"

	"concierge/models"
)

func fallbackReply(tenant models.Tenant) string {
	msg := "I'm sorry, I didn't quite catch that. Could you tell me a little more about what you need?"
	if tenant.FrontDeskPhone != "" {
		msg += " You can also reach the front desk on " + tenant.FrontDeskPhone + "."
	}
	return msg
}

func emergencyReply(tenant models.Tenant) string {
	call := "call your local emergency services"
	if tenant.EmergencyPhone != "" {
		call = "call " + tenant.EmergencyPhone
	}
	return "This sounds like an emergency. I've alerted our team and someone is on the way. If anyone is in immediate danger, please " + call + " now."
}

func transferReply(tenant models.Tenant) string {
	msg := "Of course. I've asked a member of our team to get in touch with you shortly."
	if tenant.FrontDeskPhone != "" {
		msg += " You can also call the front desk on " + tenant.FrontDeskPhone + "."
	}
	return msg
}

func greetingReply(tenant models.Tenant, guest models.GuestStatus) string {
	name := ""
	if guest.GuestName != "" {
		name = " " + strings.Fields(guest.GuestName)[0]
	}
	return fmt.Sprintf("Hello%s! Welcome to %s. How can I help you today?", name, tenant.Name)
}

func maintenanceReply(fixture string) string {
	if fixture == "" {
		return "I'm sorry about that. I've reported it to our maintenance team and someone will be with you shortly."
	}
	return fmt.Sprintf("I'm sorry about the %s. I've reported it to our maintenance team and someone will be with you shortly.", fixture)
}

func mealHoursReply(tenant models.Tenant) (string, bool) {
	var parts []string
	for _, h := range []struct{ meal, hours string }{
		{"Breakfast", tenant.BreakfastHours},
		{"Lunch", tenant.LunchHours},
		{"Dinner", tenant.DinnerHours},
		{"Room service", tenant.RoomServiceHours},
	} {
		if h.hours != "" {
			parts = append(parts, h.meal+": "+h.hours)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return "Here are our dining times. " + strings.Join(parts, ". ") + ".", true
}

func menuReply(meal string, items []models.MenuItem) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	names := make([]string, 0, len(items))
	for _, m := range items {
		names = append(names, fmt.Sprintf("%s (%.2f)", m.Name, m.Price))
	}
	return fmt.Sprintf("Here's what's on our %s menu: %s. Would you like to order anything?", meal, strings.Join(names, ", ")), true
}

func quantityUpdatedReply(item string, qty int, created bool) string {
	if created {
		return fmt.Sprintf("Done! I've requested %d %s for you.", qty, item)
	}
	return fmt.Sprintf("No problem, I've updated that to %d %s.", qty, item)
}

const (
	declinedReply    = "No problem. Let me know if there's anything else I can help with."
	ackReply         = "You're welcome! Let me know if there's anything else you need."
	lostItemAskReply = "Where do you think you last had it?"
	lostItemNoIdea   = "No problem, I've let the front desk know. We'll be in touch if it turns up."
	requestPassedOn  = "I've passed your request on to our team."
)

func lostItemThanks(item string) string {
	if item == "" {
		item = "item"
	}
	return fmt.Sprintf("Thank you, I've passed that on. We'll let you know as soon as we find your %s.", item)
}

func restrictedReply(item string) string {
	if item == "" {
		item = "That"
	}
	return item + " is only available to guests staying with us. Please contact the front desk if you need help."
}

// mealNow picks the meal served at a local hour.
func mealNow(hour int) string {
	switch {
	case hour < 11:
		return "breakfast"
	case hour < 16:
		return "lunch"
	}
	return "dinner"
}
