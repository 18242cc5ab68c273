package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

const maxDeckNameLen = 200

// DeckService handles deck-related business logic
type DeckService interface {
	CreateDeck(ctx context.Context, name string) (*models.Deck, error)
	GetDeck(ctx context.Context, id string) (*models.Deck, error)
	ListDecks(ctx context.Context) ([]models.Deck, error)
	// DeleteDeck removes the deck, its cards and their reviews.
	DeleteDeck(ctx context.Context, id string) error
}

type deckService struct {
	deckRepo repository.DeckRepository
	now      Clock
}

// NewDeckService creates a new DeckService
func NewDeckService(deckRepo repository.DeckRepository, now Clock) DeckService {
	return &deckService{deckRepo: deckRepo, now: orNow(now)}
}

func (s *deckService) CreateDeck(ctx context.Context, name string) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_service")

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "must not be empty")
	}
	if utf8.RuneCountInString(name) > maxDeckNameLen {
		return nil, errors.NewValidationError("name", "must be at most 200 characters")
	}

	deck, err := s.deckRepo.Create(ctx, models.Deck{Name: name, CreatedAt: s.now()})
	if err != nil {
		log.Error("failed to create deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("deck created: id=%s, name=%q", deck.ID, deck.Name)
	return deck, nil
}

func (s *deckService) GetDeck(ctx context.Context, id string) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_service")
	log.Debug("getting deck: id=%s", id)

	deck, err := s.deckRepo.Get(ctx, id)
	if err != nil {
		return nil, fromRepoError(err, "deck", id)
	}
	return deck, nil
}

func (s *deckService) ListDecks(ctx context.Context) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_service")

	decks, err := s.deckRepo.List(ctx)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return decks, nil
}

func (s *deckService) DeleteDeck(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("deck_service")
	log.Debug("deleting deck: id=%s", id)

	if err := s.deckRepo.Delete(ctx, id); err != nil {
		appErr := fromRepoError(err, "deck", id)
		if appErr.Code == errors.ErrCodeInternal {
			log.Error("failed to delete deck: %v", err)
		}
		return appErr
	}
	return nil
}
