package flashcard

import (
	"time"

	"github.com/vytor/flashdeck/internal/models"
)

// MasteryRule decides when a card counts as mastered. A card is mastered
// when its interval has reached IntervalDays, or when it has been reviewed
// at least once and its ease is at least MinEase.
type MasteryRule struct {
	IntervalDays int
	MinEase      int
}

func DefaultMasteryRule() MasteryRule {
	return MasteryRule{IntervalDays: 7, MinEase: models.DefaultEase}
}

func (m MasteryRule) Mastered(card models.Card) bool {
	if card.Interval >= m.IntervalDays {
		return true
	}
	return card.LastReviewed != nil && card.Ease >= m.MinEase
}

// Classify aggregates mastery, due and recency counts over cards.
func (m MasteryRule) Classify(cards []models.Card, now time.Time) models.DeckSummary {
	var s models.DeckSummary
	s.Total = len(cards)
	for _, c := range cards {
		if m.Mastered(c) {
			s.Mastered++
		}
		if IsDue(c, now) {
			s.DueToday++
		}
		if c.LastReviewed == nil {
			s.New++
			continue
		}
		if s.LastStudied == nil || c.LastReviewed.After(*s.LastStudied) {
			t := *c.LastReviewed
			s.LastStudied = &t
		}
	}
	return s
}
