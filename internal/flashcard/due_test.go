package flashcard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/flashdeck/internal/flashcard"
	"github.com/vytor/flashdeck/internal/models"
)

func cardDueAt(id string, due *time.Time) models.Card {
	c := models.NewCard("deck", "front "+id, "back "+id)
	c.ID = id
	c.NextReview = due
	return c
}

func at(t time.Time) *time.Time { return &t }

func ids(cards []models.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestSelectDue_NewCardsFirst(t *testing.T) {
	now := jan1
	cards := []models.Card{
		cardDueAt("B", at(now.AddDate(0, 0, -1))),
		cardDueAt("A", nil),
	}

	got := flashcard.SelectDue(cards, 0, now)
	assert.Equal(t, []string{"A", "B"}, ids(got))
}

func TestSelectDue_FiltersAndOrders(t *testing.T) {
	now := jan1
	cards := []models.Card{
		cardDueAt("future", at(now.Add(time.Minute))),
		cardDueAt("late", at(now.Add(-time.Hour))),
		cardDueAt("new1", nil),
		cardDueAt("exact", at(now)),
		cardDueAt("oldest", at(now.AddDate(0, 0, -3))),
		cardDueAt("new2", nil),
	}

	got := flashcard.SelectDue(cards, 0, now)
	assert.Equal(t, []string{"new1", "new2", "oldest", "late", "exact"}, ids(got))
}

func TestSelectDue_LimitIsPrefix(t *testing.T) {
	now := jan1
	cards := []models.Card{
		cardDueAt("c", at(now.Add(-time.Hour))),
		cardDueAt("b", at(now.Add(-2*time.Hour))),
		cardDueAt("a", nil),
	}

	assert.Equal(t, []string{"a", "b"}, ids(flashcard.SelectDue(cards, 2, now)))
	assert.Len(t, flashcard.SelectDue(cards, 10, now), 3)
	assert.Len(t, flashcard.SelectDue(cards, 0, now), 3)
}

func TestSelectDue_IdempotentAndPure(t *testing.T) {
	now := jan1
	cards := []models.Card{
		cardDueAt("x", at(now.Add(-time.Hour))),
		cardDueAt("y", nil),
		cardDueAt("z", at(now.Add(-2*time.Hour))),
	}
	before := ids(cards)

	first := flashcard.SelectDue(cards, 0, now)
	second := flashcard.SelectDue(cards, 0, now)

	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, before, ids(cards), "input order untouched")
}

func TestSelectDue_Empty(t *testing.T) {
	assert.Empty(t, flashcard.SelectDue(nil, 5, jan1))
}
