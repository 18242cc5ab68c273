package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
	"github.com/vytor/flashdeck/internal/repository/memory"
)

func cardWithSchedule(t *testing.T, store repository.Store, deckID, front string, next *time.Time) models.Card {
	t.Helper()
	ctx := context.Background()
	c, err := store.Cards.Create(ctx, models.NewCard(deckID, front, "back"))
	require.NoError(t, err)
	if next == nil {
		return *c
	}
	reviewed := next.AddDate(0, 0, -1)
	c.LastReviewed, c.NextReview = &reviewed, next
	updated, err := store.Reviews.Record(ctx, *c, models.Review{Rating: 3, ReviewedAt: reviewed})
	require.NoError(t, err)
	return *updated
}

func TestCardService_CreateAndGet(t *testing.T) {
	store := memory.NewStore()
	svc := NewCardService(store.Decks, store.Cards, fixedClock())
	ctx := context.Background()
	deck, err := store.Decks.Create(ctx, models.Deck{Name: "Physics"})
	require.NoError(t, err)

	created, err := svc.CreateCard(ctx, deck.ID, " F = ? ", "ma")
	require.NoError(t, err)
	assert.Equal(t, "F = ?", created.Front)
	assert.Equal(t, "Physics", created.DeckName)
	assert.Equal(t, models.DefaultEase, created.Ease)
	assert.Equal(t, models.DefaultInterval, created.Interval)
	assert.Zero(t, created.Repetitions)
	assert.Nil(t, created.NextReview)

	got, err := svc.GetCard(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Physics", got.DeckName)
}

func TestCardService_CreateValidation(t *testing.T) {
	store := memory.NewStore()
	svc := NewCardService(store.Decks, store.Cards, nil)
	ctx := context.Background()
	deck, err := store.Decks.Create(ctx, models.Deck{Name: "D"})
	require.NoError(t, err)

	_, err = svc.CreateCard(ctx, deck.ID, "", "a")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	_, err = svc.CreateCard(ctx, deck.ID, "q", "  ")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	_, err = svc.CreateCard(ctx, "no-deck", "q", "a")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	_, err = svc.GetCard(ctx, "no-card")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	cards, err := svc.ListCards(ctx, "no-deck")
	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestCardService_ListCardsAfterDeckDeleted(t *testing.T) {
	store := memory.NewStore()
	svc := NewCardService(store.Decks, store.Cards, nil)
	ctx := context.Background()
	deck, err := store.Decks.Create(ctx, models.Deck{Name: "Temporary"})
	require.NoError(t, err)
	for _, front := range []string{"q1", "q2", "q3"} {
		_, err := svc.CreateCard(ctx, deck.ID, front, "a")
		require.NoError(t, err)
	}

	cards, err := svc.ListCards(ctx, deck.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 3)

	require.NoError(t, store.Decks.Delete(ctx, deck.ID))

	cards, err = svc.ListCards(ctx, deck.ID)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestCardService_DueCardsOrderingAndLimit(t *testing.T) {
	store := memory.NewStore()
	svc := NewCardService(store.Decks, store.Cards, fixedClock())
	ctx := context.Background()

	a, err := store.Decks.Create(ctx, models.Deck{Name: "A"})
	require.NoError(t, err)
	b, err := store.Decks.Create(ctx, models.Deck{Name: "B"})
	require.NoError(t, err)

	yesterday := jan1.AddDate(0, 0, -1)
	lastWeek := jan1.AddDate(0, 0, -7)
	tomorrow := jan1.AddDate(0, 0, 1)

	cardWithSchedule(t, store, a.ID, "yesterday", &yesterday)
	cardWithSchedule(t, store, a.ID, "new", nil)
	cardWithSchedule(t, store, a.ID, "tomorrow", &tomorrow)
	cardWithSchedule(t, store, b.ID, "last week", &lastWeek)

	due, err := svc.DueCards(ctx, a.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "yesterday"}, fronts(due))
	assert.Equal(t, "A", due[0].DeckName)

	all, err := svc.DueCards(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "last week", "yesterday"}, fronts(all))
	assert.Equal(t, "B", all[1].DeckName)

	limited, err := svc.DueCards(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "last week"}, fronts(limited))

	_, err = svc.DueCards(ctx, "", -1)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	_, err = svc.DueCards(ctx, "missing", 0)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func fronts(cards []models.CardWithDeck) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Front
	}
	return out
}
