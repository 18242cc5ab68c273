package services

import (
	"context"

	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/flashcard"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

// StatsService handles statistics-related business logic
type StatsService interface {
	DeckStats(ctx context.Context, deckID string) (*models.DeckWithStats, error)
	AllDeckStats(ctx context.Context) ([]models.DeckWithStats, error)
	GlobalStats(ctx context.Context) (*models.GlobalStats, error)
}

type statsService struct {
	deckRepo repository.DeckRepository
	cardRepo repository.CardRepository
	rule     flashcard.MasteryRule
	now      Clock
}

// NewStatsService creates a new StatsService. Deck-level and global figures
// share the same mastery rule.
func NewStatsService(deckRepo repository.DeckRepository, cardRepo repository.CardRepository, rule flashcard.MasteryRule, now Clock) StatsService {
	return &statsService{deckRepo: deckRepo, cardRepo: cardRepo, rule: rule, now: orNow(now)}
}

func (s *statsService) DeckStats(ctx context.Context, deckID string) (*models.DeckWithStats, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_service")
	log.Debug("getting deck stats: deck_id=%s", deckID)

	deck, err := s.deckRepo.Get(ctx, deckID)
	if err != nil {
		return nil, fromRepoError(err, "deck", deckID)
	}
	cards, err := s.cardRepo.List(ctx, models.CardFilter{DeckID: deckID})
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &models.DeckWithStats{Deck: *deck, DeckSummary: s.rule.Classify(cards, s.now())}, nil
}

func (s *statsService) AllDeckStats(ctx context.Context) ([]models.DeckWithStats, error) {
	stats, _, err := s.collect(ctx)
	return stats, err
}

func (s *statsService) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_service")

	decks, total, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("global stats: decks=%d, cards=%d, mastered=%d", len(decks), total.Total, total.Mastered)
	return &models.GlobalStats{
		TotalCards:    total.Total,
		MasteredCards: total.Mastered,
		LearningCards: total.DueToday,
		NewCards:      total.New,
		Decks:         decks,
	}, nil
}

// collect classifies every deck from a single card listing and returns the
// per-deck figures along with the summary over all cards.
func (s *statsService) collect(ctx context.Context) ([]models.DeckWithStats, models.DeckSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_service")

	decks, err := s.deckRepo.List(ctx)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, models.DeckSummary{}, errors.NewInternalError(err)
	}
	cards, err := s.cardRepo.List(ctx, models.CardFilter{})
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, models.DeckSummary{}, errors.NewInternalError(err)
	}

	byDeck := make(map[string][]models.Card, len(decks))
	for _, c := range cards {
		byDeck[c.DeckID] = append(byDeck[c.DeckID], c)
	}

	now := s.now()
	out := make([]models.DeckWithStats, 0, len(decks))
	var owned []models.Card
	for _, d := range decks {
		out = append(out, models.DeckWithStats{Deck: d, DeckSummary: s.rule.Classify(byDeck[d.ID], now)})
		owned = append(owned, byDeck[d.ID]...)
	}
	return out, s.rule.Classify(owned, now), nil
}
