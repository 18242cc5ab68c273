package models

import "time"

// DeckSummary aggregates SRS state over a collection of cards.
type DeckSummary struct {
	Total       int        `json:"totalCards"`
	Mastered    int        `json:"masteredCards"`
	DueToday    int        `json:"dueToday"`
	New         int        `json:"newCards"`
	LastStudied *time.Time `json:"lastStudied"`
}

type DeckWithStats struct {
	Deck
	DeckSummary
}

type GlobalStats struct {
	TotalCards    int             `json:"totalCards"`
	MasteredCards int             `json:"masteredCards"`
	LearningCards int             `json:"learningCards"`
	NewCards      int             `json:"newCards"`
	Decks         []DeckWithStats `json:"decks"`
}
