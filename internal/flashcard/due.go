package flashcard

import (
	"sort"
	"time"

	"github.com/vytor/flashdeck/internal/models"
)

// IsDue reports whether a card may be reviewed at now. Cards that were
// never reviewed are always due.
func IsDue(card models.Card, now time.Time) bool {
	return card.NextReview == nil || !card.NextReview.After(now)
}

// SelectDue returns the cards due at now: never-reviewed cards first, then
// by earliest NextReview, ties kept in input order. A limit <= 0 means no
// limit. The input slice is not modified.
func SelectDue(cards []models.Card, limit int, now time.Time) []models.Card {
	due := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if IsDue(c, now) {
			due = append(due, c)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].NextReview, due[j].NextReview
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}
