package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashdeck/internal/db"
	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
	"github.com/vytor/flashdeck/internal/repository/memory"
	"github.com/vytor/flashdeck/internal/repository/sqlite"
	"github.com/vytor/flashdeck/internal/testutil/mocks"
)

var jan1 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func seedCard(t *testing.T, store repository.Store) *models.Card {
	t.Helper()
	ctx := context.Background()
	deck, err := store.Decks.Create(ctx, models.Deck{Name: "Capitals"})
	require.NoError(t, err)
	card, err := store.Cards.Create(ctx, models.NewCard(deck.ID, "Capital of Peru?", "Lima"))
	require.NoError(t, err)
	return card
}

func TestSubmitReview_GoodOnNewCard(t *testing.T) {
	store := memory.NewStore()
	card := seedCard(t, store)
	svc := NewReviewService(store, 3)

	res, err := svc.SubmitReview(context.Background(), card.ID, 3, jan1)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Card.Interval)
	assert.Equal(t, 250, res.Card.Ease)
	assert.Equal(t, 1, res.Card.Repetitions)
	assert.Equal(t, "Capitals", res.Card.DeckName)
	require.NotNil(t, res.Card.NextReview)
	assert.True(t, res.Card.NextReview.Equal(time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, res.Review.Rating)
	assert.Equal(t, card.ID, res.Review.CardID)
	assert.NotEmpty(t, res.Review.ID)

	reviews, err := svc.ListReviews(context.Background(), card.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, res.Review.ID, reviews[0].ID)
}

func TestSubmitReview_AgainKeepsCountingRepetitions(t *testing.T) {
	store := memory.NewStore()
	card := seedCard(t, store)
	svc := NewReviewService(store, 3)
	ctx := context.Background()

	_, err := svc.SubmitReview(ctx, card.ID, 3, jan1)
	require.NoError(t, err)
	res, err := svc.SubmitReview(ctx, card.ID, 1, jan1.AddDate(0, 0, 3))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Card.Interval)
	assert.Equal(t, 230, res.Card.Ease)
	assert.Equal(t, 2, res.Card.Repetitions)
	assert.True(t, res.Card.NextReview.Equal(jan1.AddDate(0, 0, 4)))
}

func TestSubmitReview_RejectsBadRatingBeforeLoading(t *testing.T) {
	cards := new(mocks.MockCardRepository)
	reviews := new(mocks.MockReviewRepository)
	svc := NewReviewService(repository.Store{Decks: new(mocks.MockDeckRepository), Cards: cards, Reviews: reviews}, 3)

	for _, rating := range []int{0, 5, -1, 42} {
		_, err := svc.SubmitReview(context.Background(), "card-1", rating, jan1)
		assert.True(t, errors.HasCode(err, errors.ErrCodeValidation), "rating %d", rating)
	}
	cards.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	reviews.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReview_UnknownCard(t *testing.T) {
	svc := NewReviewService(memory.NewStore(), 3)
	_, err := svc.SubmitReview(context.Background(), "missing", 2, jan1)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	_, err = svc.ListReviews(context.Background(), "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestSubmitReview_RetriesOnConflict(t *testing.T) {
	decks := new(mocks.MockDeckRepository)
	cards := new(mocks.MockCardRepository)
	reviews := new(mocks.MockReviewRepository)
	svc := NewReviewService(repository.Store{Decks: decks, Cards: cards, Reviews: reviews}, 3)

	stale := models.NewCard("deck-1", "q", "a")
	stale.ID, stale.Version = "card-1", 1
	fresh := stale
	fresh.Version, fresh.Interval, fresh.Repetitions = 2, 3, 1
	stored := fresh
	stored.Version, stored.Interval, stored.Repetitions = 3, 8, 2

	cards.On("Get", mock.Anything, "card-1").Return(&stale, nil).Once()
	cards.On("Get", mock.Anything, "card-1").Return(&fresh, nil).Once()
	reviews.On("Record", mock.Anything, mock.MatchedBy(func(c models.Card) bool { return c.Version == 1 }), mock.Anything).
		Return(nil, repository.ErrConflict).Once()
	reviews.On("Record", mock.Anything, mock.MatchedBy(func(c models.Card) bool {
		return c.Version == 2 && c.Interval == 8 && c.Repetitions == 2
	}), mock.Anything).Return(&stored, nil).Once()
	decks.On("Get", mock.Anything, "deck-1").Return(&models.Deck{ID: "deck-1", Name: "D"}, nil)

	res, err := svc.SubmitReview(context.Background(), "card-1", 3, jan1)
	require.NoError(t, err)
	assert.Equal(t, 8, res.Card.Interval)

	cards.AssertExpectations(t)
	reviews.AssertExpectations(t)
}

func TestSubmitReview_GivesUpAfterMaxRetries(t *testing.T) {
	cards := new(mocks.MockCardRepository)
	reviews := new(mocks.MockReviewRepository)
	svc := NewReviewService(repository.Store{Decks: new(mocks.MockDeckRepository), Cards: cards, Reviews: reviews}, 2)

	card := models.NewCard("deck-1", "q", "a")
	card.ID = "card-1"
	cards.On("Get", mock.Anything, "card-1").Return(&card, nil)
	reviews.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil, repository.ErrConflict)

	_, err := svc.SubmitReview(context.Background(), "card-1", 4, jan1)
	assert.True(t, errors.HasCode(err, errors.ErrCodeConflict))
	reviews.AssertNumberOfCalls(t, "Record", 2)
}

func TestSubmitReview_ConcurrentSameCardLosesNothing(t *testing.T) {
	store := memory.NewStore()
	card := seedCard(t, store)
	svc := NewReviewService(store, 1)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitReview(ctx, card.ID, 2, jan1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.Cards.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.Repetitions)
	assert.Equal(t, int64(n+1), got.Version)

	reviews, err := svc.ListReviews(ctx, card.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, n)

	assert.Zero(t, svc.(*reviewService).locks.size())
}

// Two services on separate connections share no lock, so only the version
// check in Record keeps their writes from overwriting each other.
func TestSubmitReview_ConcurrentAcrossConnections(t *testing.T) {
	path := "file:" + filepath.Join(t.TempDir(), "reviews.db")
	first, err := db.Open(path)
	require.NoError(t, err)
	defer first.Close()
	second, err := db.Open(path)
	require.NoError(t, err)
	defer second.Close()

	storeA := sqlite.NewStore(first.DB)
	storeB := sqlite.NewStore(second.DB)
	card := seedCard(t, storeA)
	services := []ReviewService{NewReviewService(storeA, 10), NewReviewService(storeB, 10)}
	ctx := context.Background()

	const perService = 20
	var wg sync.WaitGroup
	errs := make(chan error, perService*len(services))
	for _, svc := range services {
		for i := 0; i < perService; i++ {
			wg.Add(1)
			go func(svc ReviewService) {
				defer wg.Done()
				_, err := svc.SubmitReview(ctx, card.ID, 3, jan1)
				errs <- err
			}(svc)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n := perService * len(services)
	got, err := storeB.Cards.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.Repetitions)
	assert.Equal(t, card.Version+int64(n), got.Version)

	reviews, err := storeA.Reviews.ListByCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, n)
}

func TestSubmitReview_DifferentCardsDoNotShareLock(t *testing.T) {
	km := newKeyedMutex()
	unlockA := km.Lock("a")

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	unlockA()
	assert.Zero(t, km.size())
}
