// Package knowledge answers guest questions from the tenant's FAQ entries.
package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	knowledgeRepo "concierge/database/repository/knowledge"
	"concierge/models"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
)

// Match is the best FAQ entry for a message.
type Match struct {
	Entry models.FAQEntry
	Score float64
}

// KnowledgeService looks up FAQ answers.
type KnowledgeService interface {
	// Lookup returns the best entry scoring at or above the threshold, or nil.
	Lookup(ctx context.Context, tenantID, message string) (*Match, error)
	RecordHit(ctx context.Context, entryID string) error
}

// DefaultKnowledgeService is the production implementation.
type DefaultKnowledgeService struct {
	Repo      knowledgeRepo.FAQRepository
	Threshold float64
	Logger    *zap.Logger
}

func (s *DefaultKnowledgeService) Lookup(ctx context.Context, tenantID, message string) (*Match, error) {
	entries, err := s.Repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load faq entries: %w", err)
	}
	best := BestMatch(message, entries)
	if best == nil || best.Score < s.Threshold {
		return nil, nil
	}
	s.Logger.Debug("faq matched",
		zap.String("tenantId", tenantID),
		zap.String("faqId", best.Entry.ID),
		zap.Float64("score", best.Score))
	return best, nil
}

func (s *DefaultKnowledgeService) RecordHit(ctx context.Context, entryID string) error {
	return s.Repo.RecordHit(ctx, entryID, time.Now())
}

// BestMatch scores every entry and returns the highest, or nil when there are none.
func BestMatch(message string, entries []models.FAQEntry) *Match {
	var best *Match
	for _, e := range entries {
		score := Score(message, e)
		if best == nil || score > best.Score {
			best = &Match{Entry: e, Score: score}
		}
	}
	return best
}

// keywordNudge is what a single keyword hit adds to the similarity score.
const keywordNudge = 0.1

// Score is the similarity of a message to an entry: the best of edit-distance similarity to
// the question and content-word overlap with the question. Two or more keyword hits score
// their coverage; a single hit only nudges the similarity.
func Score(message string, e models.FAQEntry) float64 {
	score := max(Similarity(message, e.Question), tokenDice(message, e.Question))
	if len(e.Keywords) == 0 {
		return score
	}
	msg := normalize(message)
	hit := 0
	for _, k := range e.Keywords {
		if k = normalize(k); k != "" && containsPhrase(msg, k) {
			hit++
		}
	}
	switch {
	case hit >= 2:
		score = max(score, 0.8*float64(hit)/float64(len(e.Keywords)))
	case hit == 1:
		score = max(score, min(score+keywordNudge, 0.8))
	}
	return score
}

// Similarity is 1 minus the normalised Levenshtein distance of the two texts.
func Similarity(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return 0
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "do": true, "does": true,
	"you": true, "your": true, "i": true, "we": true, "can": true, "to": true, "of": true,
	"in": true, "on": true, "for": true, "there": true, "it": true, "what": true, "and": true,
	"my": true, "me": true, "have": true, "has": true, "be": true, "at": true, "any": true,
	"please": true, "hi": true, "hello": true,
}

func contentWords(s string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.Fields(normalize(s)) {
		if !stopwords[w] {
			words[w] = true
		}
	}
	return words
}

func tokenDice(a, b string) float64 {
	wa, wb := contentWords(a), contentWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	shared := 0
	for w := range wa {
		if wb[w] {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(wa)+len(wb))
}

func normalize(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			space = false
			continue
		}
		if !space && sb.Len() > 0 {
			sb.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(sb.String())
}

func containsPhrase(text, phrase string) bool {
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}
