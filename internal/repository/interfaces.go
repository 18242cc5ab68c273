package repository

import (
	"context"
	"errors"

	"github.com/vytor/flashdeck/internal/models"
)

var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a card changed since it was read.
	ErrConflict = errors.New("card was modified concurrently")
)

// DeckRepository handles deck data access
type DeckRepository interface {
	Create(ctx context.Context, deck models.Deck) (*models.Deck, error)
	Get(ctx context.Context, id string) (*models.Deck, error)
	List(ctx context.Context) ([]models.Deck, error)
	// Delete removes the deck together with its cards and their reviews.
	Delete(ctx context.Context, id string) error
}

// CardRepository handles card data access
type CardRepository interface {
	Create(ctx context.Context, card models.Card) (*models.Card, error)
	// CreateBatch inserts all cards or none.
	CreateBatch(ctx context.Context, cards []models.Card) ([]models.Card, error)
	Get(ctx context.Context, id string) (*models.Card, error)
	List(ctx context.Context, filter models.CardFilter) ([]models.Card, error)
}

// ReviewRepository handles review data access
type ReviewRepository interface {
	// Record stores the card's new SRS state and the review as one atomic
	// unit. card.Version must be the version that was read; ErrConflict is
	// returned if the stored card has moved on since.
	Record(ctx context.Context, card models.Card, review models.Review) (*models.Card, error)
	ListByCard(ctx context.Context, cardID string) ([]models.Review, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Decks   DeckRepository
	Cards   CardRepository
	Reviews ReviewRepository
}
