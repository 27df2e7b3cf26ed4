// Package validator checks oracle output against the live catalog before it reaches a guest or
// triggers a side effect. Everything here is a pure function of its inputs.
package validator

import (
	"fmt"
	"regexp"
	"strings"
)

// Qualifiers the oracle tends to attach to catalog names that do not carry them.
var Qualifiers = []string{"rooftop", "private", "luxury", "premium", "vip", "exclusive", "deluxe", "signature", "sunset"}

// FilterResult is the outcome of FilterOptions.
type FilterResult struct {
	Kept    []string // canonical catalog spelling, first-seen order, no duplicates
	Removed []string // as asserted by the oracle
}

// Canonical returns the catalog spelling of name, matched case-insensitively.
func Canonical(name string, catalog []string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, c := range catalog {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return c, true
		}
	}
	return "", false
}

// FilterOptions keeps only options that are members of the catalog.
func FilterOptions(options, catalog []string) FilterResult {
	var res FilterResult
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		canon, ok := Canonical(opt, catalog)
		if !ok {
			if strings.TrimSpace(opt) != "" {
				res.Removed = append(res.Removed, opt)
			}
			continue
		}
		key := strings.ToLower(canon)
		if seen[key] {
			continue
		}
		seen[key] = true
		res.Kept = append(res.Kept, canon)
	}
	return res
}

// Correction kinds.
const (
	CorrectionQualifier    = "qualifier"
	CorrectionConfirmation = "confirmation"
)

// Correction records one rewrite made by CorrectNarrative.
type Correction struct {
	Kind string
	From string
	To   string
}

// confirmationPattern finds an affirmative booking confirmation and captures the capitalised
// entity it confirms.
var confirmationPattern = regexp.MustCompile(
	`(?i:\b(?:i(?:'ve| have) (?:booked|reserved|arranged|confirmed)|(?:booking|reservation) (?:for|at)|you(?:'re| are) (?:booked|all set) (?:for|at|on))\s+(?:you\s+)?(?:(?:a|an|the)\s+)?(?:(?:table|spot|seat|place|session)\s+(?:at|on|for)\s+(?:the\s+)?)?)` +
		`([A-Z][\w'&-]*(?:\s+[A-Z][\w'&-]*)*)`)

// CorrectNarrative rewrites over-specific names to their catalog spelling and replaces an
// affirmative confirmation of an entity that is not in the catalog with a corrective question.
func CorrectNarrative(text string, catalog []string) (string, []Correction) {
	var corrections []Correction
	for _, name := range catalog {
		re := qualifierPattern(name)
		if re == nil {
			continue
		}
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			corrections = append(corrections, Correction{Kind: CorrectionQualifier, From: match, To: name})
			return name
		})
	}

	for _, m := range confirmationPattern.FindAllStringSubmatch(text, -1) {
		entity := strings.TrimSpace(m[1])
		if entity == "" || inCatalog(entity, catalog) {
			continue
		}
		fixed := CorrectiveQuestion(entity, catalog)
		corrections = append(corrections, Correction{Kind: CorrectionConfirmation, From: entity, To: fixed})
		return fixed, corrections
	}
	return text, corrections
}

// CorrectiveQuestion is the guest message used when the oracle confirmed something that does
// not exist.
func CorrectiveQuestion(entity string, catalog []string) string {
	if len(catalog) == 0 {
		return fmt.Sprintf("I'm sorry, I couldn't confirm %q. Could you tell me a little more about what you'd like so I can check with the team?", entity)
	}
	return fmt.Sprintf("I'm sorry, I couldn't find %q among our services. We offer: %s. Which would you like?",
		entity, strings.Join(catalog, ", "))
}

func qualifierPattern(name string) *regexp.Regexp {
	lower := strings.ToLower(name)
	var missing []string
	for _, q := range Qualifiers {
		if !strings.Contains(lower, q) {
			missing = append(missing, q)
		}
	}
	if len(missing) == 0 || strings.TrimSpace(name) == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:(?:` + strings.Join(missing, "|") + `)\s+)+` + regexp.QuoteMeta(name) + `\b`)
}

func inCatalog(entity string, catalog []string) bool {
	e := strings.ToLower(strings.TrimSpace(entity))
	for _, c := range catalog {
		lc := strings.ToLower(strings.TrimSpace(c))
		if lc == "" {
			continue
		}
		if e == lc || strings.HasPrefix(e, lc) || (len(e) >= 4 && strings.Contains(lc, e)) {
			return true
		}
	}
	return false
}
