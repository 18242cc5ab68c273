package generator

import (
	"context"

	"github.com/vytor/flashdeck/internal/models"
)

// Request describes one batch of cards to generate from source text.
type Request struct {
	DeckID             string
	Content            string
	Count              int
	IncreaseDifficulty bool
}

// Generator turns source text into card seeds.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]models.CardSeed, error)
}

// Ensure Client implements the interface
var _ Generator = (*Client)(nil)
