// Package classifier labels guest messages with a weighted-regex heuristic and, when the
// heuristic is unsure, the oracle.
package classifier

import (
	"regexp"
	"strings"
)

// Label is the coarse class of a guest message.
type Label string

const (
	LabelGreeting Label = "greeting"
	LabelMenu     Label = "menu"
	LabelTiming   Label = "timing"
	LabelOther    Label = "other"
)

// Result sources.
const (
	SourceHeuristic = "heuristic"
	SourceOracle    = "oracle"
)

// Result is a classification with its provenance.
type Result struct {
	Label      Label
	Confidence float64
	Source     string
	Patterns   []string // heuristic patterns that matched
}

type weightedPattern struct {
	re     *regexp.Regexp
	weight float64
}

var patterns = map[Label][]weightedPattern{
	LabelGreeting: {
		{regexp.MustCompile(`^\s*(hi|hello|hey|hiya|howdy|greetings|yo)\b`), 0.9},
		{regexp.MustCompile(`\bgood\s+(morning|afternoon|evening)\b`), 0.9},
		{regexp.MustCompile(`\b(how\s+are\s+you|how's\s+it\s+going)\b`), 0.7},
		{regexp.MustCompile(`^\s*(thanks|thank\s+you|cheers)\b`), 0.6},
	},
	LabelMenu: {
		{regexp.MustCompile(`\b(menu|menus)\b`), 0.9},
		{regexp.MustCompile(`\bwhat\s+(food|dishes|meals)\b`), 0.9},
		{regexp.MustCompile(`\b(breakfast|lunch|dinner|room\s+service)\s+(options|menu|choices)\b`), 0.9},
		{regexp.MustCompile(`\b(vegan|vegetarian|gluten[-\s]free|halal|kosher)\b`), 0.7},
		{regexp.MustCompile(`\bwhat\s+(can|do)\s+(i|we)\s+(eat|order)\b`), 0.8},
		{regexp.MustCompile(`\b(hungry|something\s+to\s+eat)\b`), 0.6},
	},
	LabelTiming: {
		{regexp.MustCompile(`\bwhat\s+time\b`), 0.9},
		{regexp.MustCompile(`\b(opening|closing)\s+(hours|times?)\b`), 0.9},
		{regexp.MustCompile(`\bwhen\s+(is|does|do|are)\b.*\b(open|close|served|start|end|available)\b`), 0.9},
		{regexp.MustCompile(`\b(until|till)\s+what\s+time\b`), 0.9},
		{regexp.MustCompile(`\bhours\b`), 0.5},
		{regexp.MustCompile(`\b(open|closed)\s+(now|today|tonight)\b`), 0.8},
	},
}

var labelOrder = []Label{LabelGreeting, LabelMenu, LabelTiming}

// Heuristic scores every label's patterns. Confidence is the best label's share of the total
// score, boosted when only one label matched or several of its patterns did, penalised when the
// runner-up is within 30% of the winner, and scaled down when the winning evidence is weak.
func Heuristic(message string) Result {
	text := strings.ToLower(message)

	scores := map[Label]float64{}
	counts := map[Label]int{}
	matched := map[Label][]string{}
	for _, label := range labelOrder {
		for _, p := range patterns[label] {
			if p.re.MatchString(text) {
				scores[label] += p.weight
				counts[label]++
				matched[label] = append(matched[label], p.re.String())
			}
		}
	}

	var best Label
	var bestScore, total float64
	for _, label := range labelOrder {
		s := scores[label]
		total += s
		if s > bestScore {
			best, bestScore = label, s
		}
	}
	if bestScore == 0 {
		return Result{Label: LabelOther, Confidence: 0.4, Source: SourceHeuristic}
	}

	confidence := bestScore / total
	if len(scores) == 1 {
		confidence = min(confidence+0.25, 1.0)
	}
	if counts[best] >= 2 {
		confidence = min(confidence+0.1, 1.0)
	}
	if len(scores) > 1 {
		var second float64
		for label, s := range scores {
			if label != best && s > second {
				second = s
			}
		}
		if second > 0 && (bestScore-second)/bestScore < 0.3 {
			confidence *= 0.8
		}
	}
	confidence *= min(bestScore, 1.0)

	return Result{Label: best, Confidence: confidence, Source: SourceHeuristic, Patterns: matched[best]}
}
