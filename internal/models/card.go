package models

import "time"

// Default SRS state for newly created cards.
const (
	DefaultEase     = 250
	DefaultInterval = 1
)

type Card struct {
	ID           string     `json:"id"`
	DeckID       string     `json:"deckId"`
	Front        string     `json:"front"`
	Back         string     `json:"back"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastReviewed *time.Time `json:"lastReviewed"`
	NextReview   *time.Time `json:"nextReview"`
	Ease         int        `json:"ease"`
	Interval     int        `json:"interval"`
	Repetitions  int        `json:"repetitions"`
	Version      int64      `json:"-"`
}

// NewCard returns a card seeded with the default SRS state.
func NewCard(deckID, front, back string) Card {
	return Card{
		DeckID:   deckID,
		Front:    front,
		Back:     back,
		Ease:     DefaultEase,
		Interval: DefaultInterval,
	}
}

// CardWithDeck is a card joined with the name of its owning deck.
type CardWithDeck struct {
	Card
	DeckName string `json:"deckName"`
}

// CardSeed is the minimal input for creating a card, as produced by the generator.
type CardSeed struct {
	DeckID string `json:"deckId"`
	Front  string `json:"front"`
	Back   string `json:"back"`
}

// CardFilter narrows card listings. Zero values mean "no constraint".
type CardFilter struct {
	DeckID string
	DueAt  *time.Time
}
