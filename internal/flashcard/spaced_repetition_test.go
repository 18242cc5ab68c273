package flashcard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashdeck/internal/flashcard"
	"github.com/vytor/flashdeck/internal/models"
)

var jan1 = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func TestNextState_GoodOnNewCard(t *testing.T) {
	s, err := flashcard.NextState(flashcard.State{Ease: 250, Interval: 1, Repetitions: 0}, flashcard.Good, jan1)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Interval, "ceil(1*2.5) = 3")
	assert.Equal(t, 250, s.Ease)
	assert.Equal(t, 1, s.Repetitions)
	assert.Equal(t, jan1, s.LastReviewed)
	assert.Equal(t, time.Date(2024, 1, 4, 9, 30, 0, 0, time.UTC), s.NextReview)
}

func TestNextState_AgainResetsInterval(t *testing.T) {
	s, err := flashcard.NextState(flashcard.State{Ease: 250, Interval: 3, Repetitions: 1}, flashcard.Again, jan1)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Interval)
	assert.Equal(t, 230, s.Ease)
	assert.Equal(t, 2, s.Repetitions, "repetitions count every review, lapses included")
	assert.Equal(t, jan1.AddDate(0, 0, 1), s.NextReview)
}

func TestNextState_IntervalCalculation(t *testing.T) {
	tests := []struct {
		name     string
		rating   flashcard.Rating
		interval int
		ease     int
		expected int
		newEase  int
	}{
		{name: "hard grows by 1.2 rounded up", rating: flashcard.Hard, interval: 1, ease: 250, expected: 2, newEase: 235},
		{name: "hard on exact multiple does not over-round", rating: flashcard.Hard, interval: 10, ease: 250, expected: 12, newEase: 235},
		{name: "good multiplies by ease", rating: flashcard.Good, interval: 6, ease: 250, expected: 15, newEase: 250},
		{name: "good with low ease still rounds up", rating: flashcard.Good, interval: 1, ease: 130, expected: 2, newEase: 130},
		{name: "easy applies bonus", rating: flashcard.Easy, interval: 1, ease: 250, expected: 4, newEase: 260},
		{name: "easy on longer interval", rating: flashcard.Easy, interval: 10, ease: 250, expected: 33, newEase: 260},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := flashcard.NextState(flashcard.State{Ease: tt.ease, Interval: tt.interval}, tt.rating, jan1)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s.Interval)
			assert.Equal(t, tt.newEase, s.Ease)
		})
	}
}

func TestNextState_EaseClamps(t *testing.T) {
	state := flashcard.State{Ease: 135, Interval: 5}
	for i := 0; i < 2; i++ {
		s, err := flashcard.NextState(state, flashcard.Again, jan1)
		require.NoError(t, err)
		state = s.State
		assert.GreaterOrEqual(t, state.Ease, flashcard.MinEase)
	}
	assert.Equal(t, 130, state.Ease)

	state = flashcard.State{Ease: 395, Interval: 1}
	for i := 0; i < 2; i++ {
		s, err := flashcard.NextState(state, flashcard.Easy, jan1)
		require.NoError(t, err)
		state = s.State
		assert.LessOrEqual(t, state.Ease, flashcard.MaxEase)
	}
	assert.Equal(t, 400, state.Ease)
}

func TestNextState_BoundsHoldForAllRatings(t *testing.T) {
	eases := []int{130, 131, 145, 200, 250, 399, 400}
	intervals := []int{1, 2, 7, 30, 365, flashcard.MaxInterval}
	ratings := []flashcard.Rating{flashcard.Again, flashcard.Hard, flashcard.Good, flashcard.Easy}

	for _, e := range eases {
		for _, iv := range intervals {
			for _, r := range ratings {
				s, err := flashcard.NextState(flashcard.State{Ease: e, Interval: iv}, r, jan1)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, s.Ease, flashcard.MinEase)
				assert.LessOrEqual(t, s.Ease, flashcard.MaxEase)
				assert.GreaterOrEqual(t, s.Interval, 1)
				assert.Equal(t, jan1.AddDate(0, 0, s.Interval), s.NextReview)
			}
		}
	}
}

func TestNextState_EasyIsMonotonic(t *testing.T) {
	state := flashcard.State{Ease: 250, Interval: 1}
	prev := state.Interval
	for i := 0; i < 40; i++ {
		s, err := flashcard.NextState(state, flashcard.Easy, jan1)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s.Interval, prev)
		prev = s.Interval
		state = s.State
	}
	assert.Equal(t, flashcard.MaxInterval, state.Interval)
}

func TestNextState_CalendarDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// DST begins 2024-03-10 in New York.
	now := time.Date(2024, 3, 9, 10, 0, 0, 0, loc)

	s, err := flashcard.NextState(flashcard.State{Ease: 250, Interval: 1}, flashcard.Again, now)
	require.NoError(t, err)

	assert.Equal(t, 10, s.NextReview.Hour(), "wall-clock time is preserved")
	assert.Equal(t, 23*time.Hour, s.NextReview.Sub(now))
}

func TestNextState_InvalidRating(t *testing.T) {
	for _, r := range []flashcard.Rating{0, 5, -1} {
		_, err := flashcard.NextState(flashcard.State{Ease: 250, Interval: 1}, r, jan1)
		assert.ErrorIs(t, err, flashcard.ErrInvalidRating)
	}
}

func TestParseRating(t *testing.T) {
	for v := 1; v <= 4; v++ {
		r, err := flashcard.ParseRating(v)
		require.NoError(t, err)
		assert.Equal(t, flashcard.Rating(v), r)
	}
	_, err := flashcard.ParseRating(0)
	assert.ErrorIs(t, err, flashcard.ErrInvalidRating)
	_, err = flashcard.ParseRating(5)
	assert.ErrorIs(t, err, flashcard.ErrInvalidRating)
}

func TestApplyReview_UpdatesCard(t *testing.T) {
	card := models.NewCard("deck-1", "Q", "A")
	card.ID = "card-1"

	updated, err := flashcard.ApplyReview(card, flashcard.Good, jan1)
	require.NoError(t, err)

	assert.Equal(t, "card-1", updated.ID)
	assert.Equal(t, 3, updated.Interval)
	require.NotNil(t, updated.LastReviewed)
	require.NotNil(t, updated.NextReview)
	assert.Equal(t, jan1, *updated.LastReviewed)
	assert.Equal(t, jan1.AddDate(0, 0, 3), *updated.NextReview)
	assert.Nil(t, card.NextReview, "input card is not modified")
}
