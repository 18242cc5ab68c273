package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) Create(ctx context.Context, d models.Deck) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	if d.ID == "" {
		d.ID = newID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.CreatedAt = d.CreatedAt.UTC()
	log.Debug("inserting deck: id=%s, name=%s", d.ID, d.Name)

	_, err := r.db.ExecContext(ctx, `INSERT INTO decks (id, name, created_at) VALUES (?, ?, ?)`, d.ID, d.Name, d.CreatedAt)
	if err != nil {
		log.Error("failed to insert deck: %v", err)
		return nil, err
	}
	return &d, nil
}

func (r *deckRepository) Get(ctx context.Context, id string) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("getting deck: id=%s", id)

	var d models.Deck
	err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM decks WHERE id = ?`, id).Scan(&d.ID, &d.Name, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("deck not found: id=%s", id)
		return nil, fmt.Errorf("deck %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}
	d.CreatedAt = d.CreatedAt.UTC()
	return &d, nil
}

func (r *deckRepository) List(ctx context.Context) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	query, args, err := sqlBuilder.Select("id", "name", "created_at").From("decks").OrderBy("created_at DESC", "id").ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	defer rows.Close()

	var decks []models.Deck
	for rows.Next() {
		var d models.Deck
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			log.Error("failed to scan deck row: %v", err)
			return nil, err
		}
		d.CreatedAt = d.CreatedAt.UTC()
		decks = append(decks, d)
	}
	log.Debug("found %d decks", len(decks))
	return decks, rows.Err()
}

// Delete removes reviews, cards and the deck in one transaction so no reader
// ever sees cards pointing at a missing deck.
func (r *deckRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("deleting deck: id=%s", id)

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE card_id IN (SELECT id FROM cards WHERE deck_id = ?)`, id); err != nil {
			log.Error("failed to delete reviews: %v", err)
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE deck_id = ?`, id)
		if err != nil {
			log.Error("failed to delete cards: %v", err)
			return err
		}
		cards, _ := res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
		if err != nil {
			log.Error("failed to delete deck: %v", err)
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("deck %s: %w", id, repository.ErrNotFound)
		}
		log.Info("deck deleted: id=%s, cards=%d", id, cards)
		return nil
	})
}
