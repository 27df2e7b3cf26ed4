package detect

import (
	"fmt"
	"regexp"
	"strings"

	"concierge/models"
)

// CriticalTopic is one of the questions answered straight from tenant settings.
type CriticalTopic string

const (
	TopicWifi      CriticalTopic = "wifi"
	TopicCheckIn   CriticalTopic = "check_in"
	TopicCheckOut  CriticalTopic = "check_out"
	TopicFrontDesk CriticalTopic = "front_desk"
)

var criticalPatterns = []struct {
	topic CriticalTopic
	re    *regexp.Regexp
}{
	{TopicWifi, regexp.MustCompile(`\b(wi-?fi|internet|wireless)\b.*\b(password|code|network|login|name|details)\b|\b(password|code)\b.*\b(wi-?fi|internet)\b`)},
	{TopicCheckOut, regexp.MustCompile(`\b(check[-\s]?out|checkout)\b.*\b(time|when|until|latest)\b|\b(what\s+time|when)\b.*\b(check[-\s]?out|checkout)\b`)},
	{TopicCheckIn, regexp.MustCompile(`\b(check[-\s]?in|checkin)\b.*\b(time|when|from|earliest)\b|\b(what\s+time|when)\b.*\b(check[-\s]?in|checkin)\b`)},
	{TopicFrontDesk, regexp.MustCompile(`\b(front\s+desk|reception|emergency)\b.*\b(number|phone|call|contact)\b|\b(number|phone)\b.*\b(front\s+desk|reception)\b`)},
}

// DetectCritical returns the critical topic a message asks about.
func DetectCritical(message string) (CriticalTopic, bool) {
	text := strings.ToLower(message)
	for _, p := range criticalPatterns {
		if p.re.MatchString(text) {
			return p.topic, true
		}
	}
	return "", false
}

// CriticalAnswer builds the reply for a topic from tenant settings. It fails when the tenant
// has not configured the value.
func CriticalAnswer(topic CriticalTopic, tenant models.Tenant) (string, bool) {
	switch topic {
	case TopicWifi:
		if tenant.WifiPassword == "" {
			return "", false
		}
		if tenant.WifiName != "" {
			return fmt.Sprintf("The WiFi network is %s and the password is %s.", tenant.WifiName, tenant.WifiPassword), true
		}
		return fmt.Sprintf("The WiFi password is %s.", tenant.WifiPassword), true
	case TopicCheckIn:
		if tenant.CheckInTime == "" {
			return "", false
		}
		return fmt.Sprintf("Check-in is from %s.", tenant.CheckInTime), true
	case TopicCheckOut:
		if tenant.CheckOutTime == "" {
			return "", false
		}
		return fmt.Sprintf("Check-out is by %s. Let us know if you'd like to ask about a late check-out.", tenant.CheckOutTime), true
	case TopicFrontDesk:
		if tenant.FrontDeskPhone == "" {
			return "", false
		}
		msg := fmt.Sprintf("You can reach the front desk on %s.", tenant.FrontDeskPhone)
		if tenant.EmergencyPhone != "" {
			msg += fmt.Sprintf(" For emergencies call %s.", tenant.EmergencyPhone)
		}
		return msg, true
	}
	return "", false
}
