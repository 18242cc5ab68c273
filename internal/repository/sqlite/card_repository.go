package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func prepareCard(c models.Card) models.Card {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.Version = 1
	return c
}

func insertCards(ctx context.Context, exec execer, cards []models.Card) error {
	query := sqlBuilder.Insert("cards").Columns(cardColumns...)
	for _, c := range cards {
		query = query.Values(c.ID, c.DeckID, c.Front, c.Back, c.CreatedAt, toNullTime(c.LastReviewed), toNullTime(c.NextReview),
			c.Ease, c.Interval, c.Repetitions, c.Version)
	}
	stmt, args, err := query.ToSql()
	if err != nil {
		return err
	}
	_, err = exec.ExecContext(ctx, stmt, args...)
	return err
}

func (r *cardRepository) Create(ctx context.Context, c models.Card) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	c = prepareCard(c)
	log.Debug("inserting card: id=%s, deck_id=%s", c.ID, c.DeckID)

	if err := insertCards(ctx, r.db, []models.Card{c}); err != nil {
		log.Error("failed to insert card: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) CreateBatch(ctx context.Context, cards []models.Card) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	if len(cards) == 0 {
		return nil, nil
	}
	log.Debug("inserting %d cards", len(cards))

	out := make([]models.Card, len(cards))
	for i, c := range cards {
		out[i] = prepareCard(c)
	}
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		return insertCards(ctx, tx, out)
	})
	if err != nil {
		log.Error("failed to insert card batch: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *cardRepository) Get(ctx context.Context, id string) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("getting card: id=%s", id)

	c, err := getCard(ctx, r.db, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error("failed to get card: %v", err)
	}
	return c, err
}

func getCard(ctx context.Context, q queryRower, id string) (*models.Card, error) {
	stmt, args, err := sqlBuilder.Select(cardColumns...).From("cards").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanCard(q.QueryRowContext(ctx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) List(ctx context.Context, filter models.CardFilter) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: deck_id=%s, due=%v", filter.DeckID, filter.DueAt != nil)

	query := sqlBuilder.Select(cardColumns...).From("cards")
	if filter.DeckID != "" {
		query = query.Where(squirrel.Eq{"deck_id": filter.DeckID})
	}
	if filter.DueAt != nil {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"next_review": nil},
			squirrel.LtOrEq{"next_review": filter.DueAt.UTC()},
		})
	}
	query = query.OrderBy("created_at", "id")

	stmt, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	log.Debug("found %d cards", len(cards))
	return cards, rows.Err()
}
