package models

import "time"

type Deck struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Review struct {
	ID         string    `json:"id"`
	CardID     string    `json:"cardId"`
	Rating     int       `json:"rating"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

// ReviewResult is returned after a rating has been applied.
type ReviewResult struct {
	Review Review       `json:"review"`
	Card   CardWithDeck `json:"card"`
}
