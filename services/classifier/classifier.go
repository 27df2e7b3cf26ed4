package classifier

import (
	"context"
	"regexp"
	"strings"

	ai "concierge/services/intelligence"

	"go.uber.org/zap"
)

// Mode selects how Classify combines the heuristic and the oracle.
type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeOracle    Mode = "oracle"
	ModeHybrid    Mode = "hybrid"
)

// ParseMode maps a config value to a Mode, defaulting to hybrid.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeHeuristic:
		return ModeHeuristic
	case ModeOracle:
		return ModeOracle
	}
	return ModeHybrid
}

// Classifier is the two-tier message classifier.
type Classifier struct {
	Oracle          ai.Oracle
	Mode            Mode
	RegexThreshold  float64
	OracleThreshold float64
	Logger          *zap.Logger
}

var timeOfDay = regexp.MustCompile(`\b(morning|afternoon|evening|tonight|tomorrow|noon|midnight|breakfast|lunch|dinner|\d{1,2}(:\d{2})?\s*(am|pm))\b`)

// IsAmbiguous reports whether a message needs more than the heuristic: it mentions a time of
// day, or it answers an open question from the bot.
func IsAmbiguous(message, lastBot string) bool {
	if timeOfDay.MatchString(strings.ToLower(message)) {
		return true
	}
	return ShapeOf(lastBot) == ShapeOpen
}

// Classify labels a message. lastBot is the previous bot message, if any.
func (c *Classifier) Classify(ctx context.Context, message, lastBot string) Result {
	heuristic := Heuristic(message)

	switch c.Mode {
	case ModeHeuristic:
		return heuristic
	case ModeOracle:
		if res, ok := c.askOracle(ctx, message, lastBot); ok {
			return res
		}
		return heuristic
	}

	if heuristic.Confidence >= c.RegexThreshold {
		return heuristic
	}
	if !IsAmbiguous(message, lastBot) {
		return heuristic
	}
	if res, ok := c.askOracle(ctx, message, lastBot); ok && res.Confidence > c.OracleThreshold {
		return res
	}
	return heuristic
}

func (c *Classifier) askOracle(ctx context.Context, message, lastBot string) (Result, bool) {
	if c.Oracle == nil {
		return Result{}, false
	}
	var out ai.ClassificationResult
	err := c.Oracle.Complete(ctx, ai.Request{
		Name:        ai.CallClassify,
		Prompt:      ai.ClassifyPrompt(message, lastBot),
		Temperature: 0,
		Schema:      ai.ClassificationSchema,
	}, &out)
	if err != nil {
		c.Logger.Warn("oracle classification failed, keeping heuristic", zap.Error(err))
		return Result{}, false
	}
	label := Label(strings.ToLower(out.Label))
	switch label {
	case LabelGreeting, LabelMenu, LabelTiming, LabelOther:
	default:
		c.Logger.Warn("oracle returned unknown label", zap.String("label", out.Label))
		return Result{}, false
	}
	return Result{Label: label, Confidence: out.Confidence, Source: SourceOracle}, true
}
