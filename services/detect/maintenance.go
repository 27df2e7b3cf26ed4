package detect

import (
	"regexp"
	"strings"
)

// MaintenanceMatch is the evidence behind a maintenance score.
type MaintenanceMatch struct {
	Score   float64
	Fixture string // what is broken, e.g. "shower"
	Issue   string // how it is broken, e.g. "leaking"
}

var (
	issueRe               = regexp.MustCompile(`\b(broken|broke|not\s+working|doesn'?t\s+work|isn'?t\s+working|won'?t\s+(?:turn\s+on|work|open|close|lock|flush|drain)|stopped\s+working|leaking|leaks?|clogged|blocked|no\s+hot\s+water|no\s+water|no\s+power|flickering|making\s+(?:a\s+)?(?:noise|noises)|dripping|jammed|stuck|cracked|overflowing|tripped)\b`)
	fixtureRe             = regexp.MustCompile(`\b(air\s*con(?:ditioning|ditioner)?|aircon|a/?c|heater|heating|shower|toilet|sink|tap|faucet|bath(?:tub)?|drain|tv|television|remote|light|lights|lamp|bulb|fridge|minibar|safe|door|lock|key\s*card|window|blinds|curtains?|kettle|hair\s*dryer|socket|plug|power|elevator|lift|fan|geyser|pipe)\b`)
	selfContainedIssueRe  = regexp.MustCompile(`water|power`)
	// Contexts that look like maintenance but are questions or hypotheticals.
	maintenanceNegativeRe = regexp.MustCompile(`\b(how\s+do\s+i|how\s+to|where\s+is|where\s+can\s+i|is\s+there\s+a|do\s+you\s+have|what\s+if|in\s+case|was\s+broken\s+but|fixed\s+now|works\s+now|all\s+good\s+now)\b`)
)

// ScoreMaintenance scores how likely the message reports a broken fixture. An issue phrase is
// worth 0.55, a fixture 0.35, both together a further 0.1; question and hypothetical phrasing
// costs 0.4.
func ScoreMaintenance(message string) MaintenanceMatch {
	text := strings.ToLower(message)
	var m MaintenanceMatch
	if issue := issueRe.FindString(text); issue != "" {
		m.Issue = issue
		m.Score += 0.55
	}
	if fixture := fixtureRe.FindString(text); fixture != "" {
		m.Fixture = fixture
		m.Score += 0.35
	} else if selfContainedIssueRe.MatchString(m.Issue) {
		// "no hot water" names its own fixture.
		m.Fixture = m.Issue
		m.Score += 0.35
	}
	if m.Issue != "" && m.Fixture != "" {
		m.Score += 0.1
	}
	if maintenanceNegativeRe.MatchString(text) {
		m.Score -= 0.4
	}
	if m.Score < 0 {
		m.Score = 0
	}
	return m
}
