package services

import (
	"context"
	"strings"

	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/flashcard"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

// CardService handles card-related business logic
type CardService interface {
	CreateCard(ctx context.Context, deckID, front, back string) (*models.CardWithDeck, error)
	GetCard(ctx context.Context, id string) (*models.CardWithDeck, error)
	// ListCards returns the cards of a deck. A deck that does not exist, or
	// no longer exists, has no cards.
	ListCards(ctx context.Context, deckID string) ([]models.Card, error)
	// DueCards returns cards due now, never-reviewed first then earliest due.
	// An empty deckID spans every deck; limit <= 0 means no limit.
	DueCards(ctx context.Context, deckID string, limit int) ([]models.CardWithDeck, error)
}

type cardService struct {
	deckRepo repository.DeckRepository
	cardRepo repository.CardRepository
	now      Clock
}

// NewCardService creates a new CardService
func NewCardService(deckRepo repository.DeckRepository, cardRepo repository.CardRepository, now Clock) CardService {
	return &cardService{deckRepo: deckRepo, cardRepo: cardRepo, now: orNow(now)}
}

func (s *cardService) CreateCard(ctx context.Context, deckID, front, back string) (*models.CardWithDeck, error) {
	log := logger.FromContext(ctx).WithPrefix("card_service")

	front, back = strings.TrimSpace(front), strings.TrimSpace(back)
	if front == "" {
		return nil, errors.NewValidationError("front", "must not be empty")
	}
	if back == "" {
		return nil, errors.NewValidationError("back", "must not be empty")
	}

	deck, err := s.deckRepo.Get(ctx, deckID)
	if err != nil {
		return nil, fromRepoError(err, "deck", deckID)
	}

	card := models.NewCard(deck.ID, front, back)
	card.CreatedAt = s.now()
	created, err := s.cardRepo.Create(ctx, card)
	if err != nil {
		log.Error("failed to create card: %v", err)
		return nil, fromRepoError(err, "deck", deckID)
	}
	log.Info("card created: id=%s, deck_id=%s", created.ID, deck.ID)
	return &models.CardWithDeck{Card: *created, DeckName: deck.Name}, nil
}

func (s *cardService) GetCard(ctx context.Context, id string) (*models.CardWithDeck, error) {
	log := logger.FromContext(ctx).WithPrefix("card_service")
	log.Debug("getting card: id=%s", id)

	card, err := s.cardRepo.Get(ctx, id)
	if err != nil {
		return nil, fromRepoError(err, "card", id)
	}
	deck, err := s.deckRepo.Get(ctx, card.DeckID)
	if err != nil {
		// The deck was deleted between the two reads, taking the card with it.
		return nil, fromRepoError(err, "card", id)
	}
	return &models.CardWithDeck{Card: *card, DeckName: deck.Name}, nil
}

func (s *cardService) ListCards(ctx context.Context, deckID string) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_service")
	log.Debug("listing cards: deck_id=%s", deckID)

	if deckID == "" {
		return nil, errors.NewValidationError("deckId", "must not be empty")
	}
	cards, err := s.cardRepo.List(ctx, models.CardFilter{DeckID: deckID})
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if cards == nil {
		cards = []models.Card{}
	}
	return cards, nil
}

func (s *cardService) DueCards(ctx context.Context, deckID string, limit int) ([]models.CardWithDeck, error) {
	log := logger.FromContext(ctx).WithPrefix("card_service")
	log.Debug("selecting due cards: deck_id=%s, limit=%d", deckID, limit)

	if limit < 0 {
		return nil, errors.NewValidationError("limit", "must be a positive integer")
	}

	names := make(map[string]string)
	if deckID != "" {
		deck, err := s.deckRepo.Get(ctx, deckID)
		if err != nil {
			return nil, fromRepoError(err, "deck", deckID)
		}
		names[deck.ID] = deck.Name
	} else {
		decks, err := s.deckRepo.List(ctx)
		if err != nil {
			log.Error("failed to list decks: %v", err)
			return nil, errors.NewInternalError(err)
		}
		for _, d := range decks {
			names[d.ID] = d.Name
		}
	}

	now := s.now()
	candidates, err := s.cardRepo.List(ctx, models.CardFilter{DeckID: deckID, DueAt: &now})
	if err != nil {
		log.Error("failed to list candidate cards: %v", err)
		return nil, errors.NewInternalError(err)
	}

	due := flashcard.SelectDue(candidates, limit, now)
	out := make([]models.CardWithDeck, 0, len(due))
	for _, c := range due {
		out = append(out, models.CardWithDeck{Card: c, DeckName: names[c.DeckID]})
	}
	log.Debug("selected %d of %d candidate cards", len(out), len(candidates))
	return out, nil
}
