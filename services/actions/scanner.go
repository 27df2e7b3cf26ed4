package actions

import (
	"regexp"
	"strings"

	"concierge/models"
	"concierge/services/classifier"
	"concierge/services/detect"
)

// Hit is one request the deterministic scanner found in a message.
type Hit struct {
	Type       models.TaskType
	Item       string
	Quantity   int
	Department string
	Score      float64
}

var (
	orderVerbRe      = regexp.MustCompile(`\b(order|i'?d\s+like|i\s+would\s+like|can\s+i\s+(?:get|have)|could\s+i\s+(?:get|have)|may\s+i\s+have|send\s+(?:up|me)|bring\s+(?:me|up|us)|i\s+want|get\s+me|we'?d\s+like|please\s+send)\b`)
	foodContextRe    = regexp.MustCompile(`\b(room\s+service|to\s+(?:my|our|the)\s+room|hungry|for\s+(?:breakfast|lunch|dinner))\b`)
	requestVerbRe    = regexp.MustCompile(`\b(bring|send|need|could\s+i\s+(?:get|have)|can\s+i\s+(?:get|have)|i'?d\s+like|i\s+would\s+like|extra|more|another|fresh|replace|run\s+out\s+of|ran\s+out\s+of)\b`)
	inquiryRe        = regexp.MustCompile(`\b(menu|what\s+(?:is|are|does)|how\s+much|price|do\s+you\s+(?:have|serve|offer)|is\s+there|are\s+there|where\s+(?:is|are|can)|what\s+time)\b`)
	complaintRe      = regexp.MustCompile(`\b(complain(?:t)?|unacceptable|disgusting|terrible|horrible|awful|rude|worst|dirty|filthy|smelly|stinks|noisy|too\s+loud|not\s+happy|unhappy|disappointed|disappointing|ridiculous|poor\s+service|cold\s+food|food\s+was\s+cold|overcharged)\b`)
	escalateRe       = regexp.MustCompile(`\b(manager|refund|compensation|review)\b`)
	complaintNegRe   = regexp.MustCompile(`\b(no\s+complaints?|not\s+(?:a\s+)?complain(?:t|ing)|nothing\s+to\s+complain|not\s+(?:that\s+)?(?:bad|dirty|noisy)|wasn'?t\s+(?:bad|dirty|noisy))\b`)
	roomNumberRe     = regexp.MustCompile(`\b(?:room|rm|suite)\s*#?\s*\d+\b`)
	quantityBeforeRe = regexp.MustCompile(`\b` + classifier.NumberExpr + `\s+(?:extra\s+|more\s+|fresh\s+|clean\s+|additional\s+)?$`)
)

// Scan runs every deterministic scorer over the message.
func Scan(message string, catalog models.CatalogSnapshot) []Hit {
	text := strings.ToLower(message)
	var hits []Hit
	if h, ok := ScanFood(text, catalog.MenuItems); ok {
		hits = append(hits, h)
	}
	if h, ok := ScanItem(text, catalog.RequestItems); ok {
		hits = append(hits, h)
	}
	if m := detect.ScoreMaintenance(text); m.Score > 0 {
		hits = append(hits, Hit{
			Type:       models.TaskMaintenance,
			Item:       strings.TrimSpace(m.Fixture + " " + m.Issue),
			Quantity:   1,
			Department: models.DeptMaintenance,
			Score:      m.Score,
		})
	}
	if score := ScoreComplaint(text); score > 0 {
		hits = append(hits, Hit{
			Type:       models.TaskComplaint,
			Item:       "guest complaint",
			Quantity:   1,
			Department: models.DeptGuestRel,
			Score:      score,
		})
	}
	return hits
}

// ScanFood scores the best menu item named in the message. A named item is worth 0.5, an
// ordering verb 0.3, a quantity or room-service context 0.1 each; menu questions cost 0.4.
func ScanFood(text string, menu []models.MenuItem) (Hit, bool) {
	item, idx := findName(text, menuNames(menu))
	if item == "" {
		return Hit{}, false
	}
	qty := quantityBefore(text, idx)
	score := 0.5
	if orderVerbRe.MatchString(text) {
		score += 0.3
	}
	if qty > 0 {
		score += 0.1
	}
	if foodContextRe.MatchString(text) {
		score += 0.1
	}
	if inquiryRe.MatchString(text) {
		score -= 0.4
	}
	if qty == 0 {
		qty = 1
	}
	return Hit{Type: models.TaskFoodOrder, Item: item, Quantity: qty, Department: models.DeptFoodAndBev, Score: score}, true
}

// ScanItem scores the best request item named in the message, weighted like ScanFood.
func ScanItem(text string, items []models.RequestItem) (Hit, bool) {
	names := make([]string, 0, len(items))
	for _, r := range items {
		names = append(names, r.Name)
	}
	name, idx := findName(text, names)
	if name == "" {
		return Hit{}, false
	}
	dept := models.DeptHousekeeping
	for _, r := range items {
		if r.Name == name && r.Department != "" {
			dept = r.Department
		}
	}
	qty := quantityBefore(text, idx)
	score := 0.5
	if requestVerbRe.MatchString(text) {
		score += 0.3
	}
	if qty > 0 {
		score += 0.1
	}
	if inquiryRe.MatchString(text) {
		score -= 0.3
	}
	if qty == 0 {
		qty = 1
	}
	return Hit{Type: models.TaskItemRequest, Item: name, Quantity: qty, Department: dept, Score: score}, true
}

// ScoreComplaint gives 0.45 per complaint term (two terms at most), 0.2 for asking for a manager
// or refund, and takes 0.5 off for explicit denials.
func ScoreComplaint(text string) float64 {
	terms := complaintRe.FindAllString(text, -1)
	if len(terms) > 2 {
		terms = terms[:2]
	}
	score := 0.45 * float64(len(terms))
	if len(terms) > 0 && escalateRe.MatchString(text) {
		score += 0.2
	}
	if complaintNegRe.MatchString(text) {
		score -= 0.5
	}
	if score < 0 {
		return 0
	}
	return score
}

func menuNames(menu []models.MenuItem) []string {
	names := make([]string, 0, len(menu))
	for _, m := range menu {
		if m.Available {
			names = append(names, m.Name)
		}
	}
	return names
}

// findName returns the longest catalog name mentioned in text as whole words, and its
// position.
func findName(text string, names []string) (string, int) {
	best, at := "", -1
	for _, n := range names {
		i := MentionIndex(text, n)
		if i < 0 {
			continue
		}
		if len(strings.TrimSpace(n)) > len(strings.TrimSpace(best)) {
			best, at = n, i
		}
	}
	return best, at
}

// quantityBefore reads a quantity written right before position idx ("3 towels", "two extra
// pillows"). Room numbers are ignored.
func quantityBefore(text string, idx int) int {
	if idx <= 0 {
		return 0
	}
	prefix := roomNumberRe.ReplaceAllString(text[:idx], "")
	m := quantityBeforeRe.FindStringSubmatch(prefix)
	if m == nil {
		return 0
	}
	return classifier.ParseNumber(m[1])
}
