package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/flashcard"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

// DefaultReviewRetries bounds the optimistic retries of one submission.
const DefaultReviewRetries = 3

// ReviewService applies ratings to cards and keeps the review log.
type ReviewService interface {
	// SubmitReview validates the rating, reschedules the card and records the
	// review as one atomic write. Submissions for the same card are serialized.
	SubmitReview(ctx context.Context, cardID string, rating int, now time.Time) (*models.ReviewResult, error)
	ListReviews(ctx context.Context, cardID string) ([]models.Review, error)
}

type reviewService struct {
	deckRepo   repository.DeckRepository
	cardRepo   repository.CardRepository
	reviewRepo repository.ReviewRepository
	locks      *keyedMutex
	maxRetries int
}

// NewReviewService creates a new ReviewService. maxRetries < 1 falls back to DefaultReviewRetries.
func NewReviewService(store repository.Store, maxRetries int) ReviewService {
	if maxRetries < 1 {
		maxRetries = DefaultReviewRetries
	}
	return &reviewService{
		deckRepo:   store.Decks,
		cardRepo:   store.Cards,
		reviewRepo: store.Reviews,
		locks:      newKeyedMutex(),
		maxRetries: maxRetries,
	}
}

func (s *reviewService) SubmitReview(ctx context.Context, cardID string, rating int, now time.Time) (*models.ReviewResult, error) {
	log := logger.FromContext(ctx).WithPrefix("review_service").WithField("card_id", cardID)

	r, err := flashcard.ParseRating(rating)
	if err != nil {
		return nil, errors.NewValidationError("rating", "must be 1 (again), 2 (hard), 3 (good) or 4 (easy)")
	}
	if cardID == "" {
		return nil, errors.NewValidationError("cardId", "must not be empty")
	}

	// The in-process lock serializes reviews of one card inside this process;
	// the version check in Record covers writers outside it.
	unlock := s.locks.Lock(cardID)
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		card, err := s.cardRepo.Get(ctx, cardID)
		if err != nil {
			return nil, fromRepoError(err, "card", cardID)
		}

		next, err := flashcard.ApplyReview(*card, r, now)
		if err != nil {
			log.Error("scheduling failed: %v", err)
			return nil, errors.NewInternalError(err)
		}

		review := models.Review{ID: uuid.NewString(), CardID: cardID, Rating: int(r), ReviewedAt: now}
		updated, err := s.reviewRepo.Record(ctx, next, review)
		if err == nil {
			log.Info("review recorded: rating=%s, interval=%d, ease=%d, attempt=%d", r, updated.Interval, updated.Ease, attempt)
			return s.result(ctx, review, updated)
		}
		if !stderrors.Is(err, repository.ErrConflict) {
			appErr := fromRepoError(err, "card", cardID)
			if appErr.Code == errors.ErrCodeInternal {
				log.Error("failed to record review: %v", err)
			}
			return nil, appErr
		}

		lastErr = err
		log.Warn("version conflict on attempt %d/%d", attempt, s.maxRetries)
		if err := ctx.Err(); err != nil {
			return nil, errors.NewUnavailableError("review cancelled", err)
		}
	}

	log.Error("giving up after %d conflicting attempts", s.maxRetries)
	return nil, errors.NewConflictError("card is being reviewed concurrently, retry the request", lastErr)
}

func (s *reviewService) result(ctx context.Context, review models.Review, card *models.Card) (*models.ReviewResult, error) {
	deck, err := s.deckRepo.Get(ctx, card.DeckID)
	if err != nil {
		return nil, fromRepoError(err, "card", card.ID)
	}
	return &models.ReviewResult{
		Review: review,
		Card:   models.CardWithDeck{Card: *card, DeckName: deck.Name},
	}, nil
}

func (s *reviewService) ListReviews(ctx context.Context, cardID string) ([]models.Review, error) {
	log := logger.FromContext(ctx).WithPrefix("review_service")
	log.Debug("listing reviews: card_id=%s", cardID)

	if _, err := s.cardRepo.Get(ctx, cardID); err != nil {
		return nil, fromRepoError(err, "card", cardID)
	}
	reviews, err := s.reviewRepo.ListByCard(ctx, cardID)
	if err != nil {
		log.Error("failed to list reviews: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}
