package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"concierge/services/detect"
)

// ReplyKind is the shape of a short guest reply.
type ReplyKind string

const (
	ReplyNone           ReplyKind = ""
	ReplyAffirmative    ReplyKind = "affirmative"
	ReplyNegative       ReplyKind = "negative"
	ReplyQuantity       ReplyKind = "quantity"
	ReplyTime           ReplyKind = "time"
	ReplyAcknowledgment ReplyKind = "acknowledgment"
	ReplyCancel         ReplyKind = "cancel"
)

// ReplyClass is a classified short reply.
type ReplyClass struct {
	Kind     ReplyKind
	Quantity int    // set for ReplyQuantity
	Time     string // raw time expression for ReplyTime
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"a couple": 2, "a few": 3,
}

// NumberExpr matches a small quantity written as digits or words.
const NumberExpr = `(\d{1,3}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|a couple|a few)`

var (
	makeItRe   = regexp.MustCompile(`\bmake\s+(?:it|that)\s+` + NumberExpr + `\b`)
	bareQtyRe  = regexp.MustCompile(`^(?:actually\s+|just\s+|only\s+|maybe\s+)?` + NumberExpr + `(?:\s+(?:please|pls|of them|more|instead|thanks|thank you))*[.!]*$`)
	timeRe     = regexp.MustCompile(`\b(\d{1,2}(?::\d{2})?\s*(?:am|pm)|\d{1,2}:\d{2}|noon|midnight|now|asap|right away|straight away|in\s+\d+\s+(?:minutes|mins|hours?)|in\s+(?:an|half\s+an)\s+hour|tonight|this\s+(?:morning|afternoon|evening)|tomorrow(?:\s+morning|\s+afternoon|\s+evening)?)\b`)
	ackRe      = regexp.MustCompile(`^(thanks|thank\s+you|thx|ty|cheers|great|cool|awesome|got\s+it|noted|ok(?:ay)?\s+thanks?|perfect,?\s+thanks?|much\s+appreciated)\b`)
	negativeRe = regexp.MustCompile(`^(no|nope|nah|not\s+now|not\s+really|no\s+thanks?|i'?m\s+good|i'?m\s+fine|don'?t|do\s+not)\b`)
	yesRe      = regexp.MustCompile(`^(yes|yeah|yea|yep|yup|sure|ok|okay|please|please\s+do|go\s+ahead|sounds\s+good|perfect|absolutely|definitely|of\s+course|why\s+not|that\s+would\s+be\s+(?:great|lovely|nice)|i\s+would|i'?d\s+like\s+that)\b`)
)

// ClassifyReply recognises the short replies used to answer a bot question.
func ClassifyReply(text string) ReplyClass {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return ReplyClass{}
	}
	if detect.IsCancellation(t) {
		return ReplyClass{Kind: ReplyCancel}
	}
	if m := makeItRe.FindStringSubmatch(t); m != nil {
		return ReplyClass{Kind: ReplyQuantity, Quantity: ParseNumber(m[1])}
	}
	if m := bareQtyRe.FindStringSubmatch(t); m != nil {
		return ReplyClass{Kind: ReplyQuantity, Quantity: ParseNumber(m[1])}
	}

	short := len(strings.Fields(t)) <= 6
	if m := timeRe.FindStringSubmatch(t); m != nil && short {
		return ReplyClass{Kind: ReplyTime, Time: m[1]}
	}
	if !short {
		return ReplyClass{}
	}
	switch {
	case negativeRe.MatchString(t):
		return ReplyClass{Kind: ReplyNegative}
	case ackRe.MatchString(t) && !strings.HasPrefix(t, "yes"):
		return ReplyClass{Kind: ReplyAcknowledgment}
	case yesRe.MatchString(t):
		return ReplyClass{Kind: ReplyAffirmative}
	}
	return ReplyClass{}
}

// ParseNumber reads a NumberExpr match; unknown words are 0.
func ParseNumber(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return numberWords[s]
}

// Shape is the kind of question a bot message asked.
type Shape string

const (
	ShapeNone             Shape = ""
	ShapeQuantity         Shape = "quantity"
	ShapeYesNo            Shape = "yes_no"
	ShapeTiming           Shape = "timing"
	ShapeTaskConfirmation Shape = "task_confirmation"
	ShapeOpen             Shape = "open"
)

var (
	quantityQRe = regexp.MustCompile(`\bhow\s+many\b`)
	timingQRe   = regexp.MustCompile(`\b(what\s+time|when\s+would\s+you\s+like|when\s+should|when\s+do\s+you\s+need|when\s+works)\b`)
	yesNoQRe    = regexp.MustCompile(`\b(would\s+you\s+like|shall\s+i|should\s+i|do\s+you\s+want|can\s+i\s+(?:send|arrange|book|get|bring)|may\s+i|want\s+me\s+to)\b`)
	confirmRe   = regexp.MustCompile(`\b(i'?ve\s+(?:sent|arranged|asked|notified|passed|logged|created|let)|i\s+have\s+(?:sent|arranged|asked|notified|passed|logged)|(?:is|are)\s+on\s+(?:its|their)\s+way|will\s+be\s+(?:brought|sent|delivered|with\s+you))\b`)
)

// ShapeOf inspects the previous bot message.
func ShapeOf(botText string) Shape {
	t := strings.ToLower(botText)
	if strings.TrimSpace(t) == "" {
		return ShapeNone
	}
	question := strings.Contains(t, "?")
	switch {
	case question && quantityQRe.MatchString(t):
		return ShapeQuantity
	case question && timingQRe.MatchString(t):
		return ShapeTiming
	case question && yesNoQRe.MatchString(t):
		return ShapeYesNo
	case confirmRe.MatchString(t):
		return ShapeTaskConfirmation
	case question:
		return ShapeOpen
	}
	return ShapeNone
}
