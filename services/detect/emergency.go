// Package detect holds the deterministic keyword detectors the router runs before any oracle
// call.
package detect

import (
	"regexp"
	"strings"
)

var emergencyRe = regexp.MustCompile(`\b(fire|smoke|burning|gas\s+leak|smell\s+gas|can'?t\s+breathe|not\s+breathing|heart\s+attack|stroke|unconscious|collapsed|choking|bleeding|overdose|seizure|ambulance|paramedic|police|intruder|break[-\s]?in|robbed|attacked|assaulted|emergency|urgent(?:ly)?\s+help|help\s+urgently|some(?:one|body)\s+help|call\s+(?:911|999|112|10111)|flooding|drowning)\b`)

// Phrases that contain an emergency keyword but are not emergencies.
var emergencyExclusions = regexp.MustCompile(`\b(fire\s*pit|fire\s*place|firework|fire\s+exit|fire\s+alarm\s+test|fire\s+drill|campfire|bonfire|smoked\s+\w+|smoking\s+(?:room|area|section)|non[-\s]?smoking|smoke\s+free|emergency\s+(?:number|contact|exit|procedures?)|in\s+case\s+of\s+(?:an\s+)?emergency|police\s+station|burning\s+question|(?:can|may)\s+i\s+smoke|where\s+(?:can\s+i|to)\s+smoke)\b`)

// DetectEmergency reports whether the message describes an emergency and returns the keyword
// that triggered it.
func DetectEmergency(message string) (string, bool) {
	text := emergencyExclusions.ReplaceAllString(strings.ToLower(message), " ")
	m := emergencyRe.FindString(text)
	return m, m != ""
}

var transferRe = regexp.MustCompile(`\b((?:speak|talk|chat)\s+(?:to|with)\s+(?:a\s+|an\s+|the\s+|someone\s+(?:at|from)\s+(?:the\s+)?)?(?:human|person|real\s+person|someone|agent|staff|manager|receptionist|front\s+desk|reception)|(?:real|live)\s+(?:person|human|agent)|human\s+please|transfer\s+me|connect\s+me\s+(?:to|with)|call\s+me\s+back|put\s+me\s+through)\b`)

// DetectTransfer reports whether the guest asked for a human.
func DetectTransfer(message string) bool {
	return transferRe.MatchString(strings.ToLower(message))
}

var cancelRe = regexp.MustCompile(`\b(cancel(?:led)?|never\s*mind|forget\s+(?:it|about\s+it)|don'?t\s+(?:want|need)\s+(?:it|that|to\s+book)|no\s+longer\s+(?:want|need)|changed\s+my\s+mind|stop\s+(?:the\s+)?booking)\b`)

// IsCancellation reports whether the guest is calling off what they asked for.
func IsCancellation(message string) bool {
	return cancelRe.MatchString(strings.ToLower(message))
}
