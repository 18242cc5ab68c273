// Package memory is a process-local backend used for tests and for running
// the server without a database file. State is lost on exit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

type state struct {
	mu      sync.RWMutex
	decks   map[string]models.Deck
	cards   map[string]models.Card
	reviews map[string][]models.Review
}

// NewStore returns repositories sharing one in-memory state.
func NewStore() repository.Store {
	s := &state{
		decks:   make(map[string]models.Deck),
		cards:   make(map[string]models.Card),
		reviews: make(map[string][]models.Review),
	}
	return repository.Store{
		Decks:   &deckRepository{s},
		Cards:   &cardRepository{s},
		Reviews: &reviewRepository{s},
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// clone detaches the pointer fields so callers cannot mutate stored state.
func clone(c models.Card) models.Card {
	c.LastReviewed = copyTime(c.LastReviewed)
	c.NextReview = copyTime(c.NextReview)
	return c
}

type deckRepository struct{ s *state }

func (r *deckRepository) Create(ctx context.Context, d models.Deck) (*models.Deck, error) {
	if d.Name == "" {
		return nil, errors.New("deck name must not be empty")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.CreatedAt = d.CreatedAt.UTC()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.decks[d.ID]; ok {
		return nil, fmt.Errorf("deck %s already exists", d.ID)
	}
	r.s.decks[d.ID] = d
	logger.FromContext(ctx).WithPrefix("memory").Debug("deck stored: id=%s", d.ID)
	return &d, nil
}

func (r *deckRepository) Get(_ context.Context, id string) (*models.Deck, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.decks[id]
	if !ok {
		return nil, fmt.Errorf("deck %s: %w", id, repository.ErrNotFound)
	}
	return &d, nil
}

func (r *deckRepository) List(_ context.Context) ([]models.Deck, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	decks := make([]models.Deck, 0, len(r.s.decks))
	for _, d := range r.s.decks {
		decks = append(decks, d)
	}
	sort.Slice(decks, func(i, j int) bool {
		if !decks[i].CreatedAt.Equal(decks[j].CreatedAt) {
			return decks[i].CreatedAt.After(decks[j].CreatedAt)
		}
		return decks[i].ID < decks[j].ID
	})
	return decks, nil
}

func (r *deckRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.decks[id]; !ok {
		return fmt.Errorf("deck %s: %w", id, repository.ErrNotFound)
	}
	removed := 0
	for cid, c := range r.s.cards {
		if c.DeckID == id {
			delete(r.s.cards, cid)
			delete(r.s.reviews, cid)
			removed++
		}
	}
	delete(r.s.decks, id)
	logger.FromContext(ctx).WithPrefix("memory").Info("deck deleted: id=%s, cards=%d", id, removed)
	return nil
}

type cardRepository struct{ s *state }

func (r *cardRepository) prepare(c models.Card) (models.Card, error) {
	if c.Front == "" || c.Back == "" {
		return c, errors.New("card front and back must not be empty")
	}
	if _, ok := r.s.decks[c.DeckID]; !ok {
		return c, fmt.Errorf("deck %s: %w", c.DeckID, repository.ErrNotFound)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, ok := r.s.cards[c.ID]; ok {
		return c, fmt.Errorf("card %s already exists", c.ID)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.Version = 1
	return clone(c), nil
}

func (r *cardRepository) Create(ctx context.Context, c models.Card) (*models.Card, error) {
	out, err := r.CreateBatch(ctx, []models.Card{c})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (r *cardRepository) CreateBatch(_ context.Context, cards []models.Card) ([]models.Card, error) {
	if len(cards) == 0 {
		return nil, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.Card, len(cards))
	seen := make(map[string]bool, len(cards))
	for i, c := range cards {
		p, err := r.prepare(c)
		if err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("card %s duplicated in batch", p.ID)
		}
		seen[p.ID] = true
		out[i] = p
	}
	for _, c := range out {
		r.s.cards[c.ID] = clone(c)
	}
	return out, nil
}

func (r *cardRepository) Get(_ context.Context, id string) (*models.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.cards[id]
	if !ok {
		return nil, fmt.Errorf("card %s: %w", id, repository.ErrNotFound)
	}
	c = clone(c)
	return &c, nil
}

func (r *cardRepository) List(_ context.Context, filter models.CardFilter) ([]models.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var cards []models.Card
	for _, c := range r.s.cards {
		if filter.DeckID != "" && c.DeckID != filter.DeckID {
			continue
		}
		if filter.DueAt != nil && c.NextReview != nil && c.NextReview.After(*filter.DueAt) {
			continue
		}
		cards = append(cards, clone(c))
	}
	sort.Slice(cards, func(i, j int) bool {
		if !cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].CreatedAt.Before(cards[j].CreatedAt)
		}
		return cards[i].ID < cards[j].ID
	})
	return cards, nil
}

type reviewRepository struct{ s *state }

func (r *reviewRepository) Record(ctx context.Context, c models.Card, rv models.Review) (*models.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.cards[c.ID]
	if !ok {
		return nil, fmt.Errorf("card %s: %w", c.ID, repository.ErrNotFound)
	}
	if stored.Version != c.Version {
		return nil, fmt.Errorf("card %s at version %d: %w", c.ID, c.Version, repository.ErrConflict)
	}

	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	if rv.ReviewedAt.IsZero() {
		rv.ReviewedAt = time.Now()
	}
	rv.ReviewedAt = rv.ReviewedAt.UTC()
	rv.CardID = c.ID

	stored.LastReviewed = copyTime(c.LastReviewed)
	stored.NextReview = copyTime(c.NextReview)
	stored.Ease = c.Ease
	stored.Interval = c.Interval
	stored.Repetitions = c.Repetitions
	stored.Version++
	r.s.cards[c.ID] = stored
	r.s.reviews[c.ID] = append(r.s.reviews[c.ID], rv)

	logger.FromContext(ctx).WithPrefix("memory").Debug("review stored: card_id=%s, version=%d", c.ID, stored.Version)
	out := clone(stored)
	return &out, nil
}

func (r *reviewRepository) ListByCard(_ context.Context, cardID string) ([]models.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.reviews[cardID]
	out := make([]models.Review, len(src))
	copy(out, src)
	return out, nil
}
