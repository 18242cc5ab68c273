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

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new ReviewRepository implementation
func NewReviewRepository(db *sql.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Record(ctx context.Context, c models.Card, rv models.Review) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("recording review: card_id=%s, rating=%d, version=%d", c.ID, rv.Rating, c.Version)

	if rv.ID == "" {
		rv.ID = newID()
	}
	if rv.ReviewedAt.IsZero() {
		rv.ReviewedAt = time.Now()
	}
	rv.CardID = c.ID

	var updated *models.Card
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, args, err := sqlBuilder.Update("cards").
			Set("last_reviewed", toNullTime(c.LastReviewed)).
			Set("next_review", toNullTime(c.NextReview)).
			Set("ease", c.Ease).
			Set("interval_days", c.Interval).
			Set("repetitions", c.Repetitions).
			Set("version", squirrel.Expr("version + 1")).
			Where(squirrel.Eq{"id": c.ID, "version": c.Version}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// Distinguish a vanished card from a stale version.
			if _, err := getCard(ctx, tx, c.ID); err != nil {
				return err
			}
			return fmt.Errorf("card %s at version %d: %w", c.ID, c.Version, repository.ErrConflict)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO reviews (id, card_id, rating, reviewed_at) VALUES (?, ?, ?, ?)`,
			rv.ID, rv.CardID, rv.Rating, rv.ReviewedAt.UTC()); err != nil {
			return err
		}

		updated, err = getCard(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
			log.Debug("review not recorded: %v", err)
		} else {
			log.Error("failed to record review: %v", err)
		}
		return nil, err
	}
	log.Debug("review recorded: id=%s, new_version=%d", rv.ID, updated.Version)
	return updated, nil
}

func (r *reviewRepository) ListByCard(ctx context.Context, cardID string) ([]models.Review, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("listing reviews: card_id=%s", cardID)

	stmt, args, err := sqlBuilder.Select("id", "card_id", "rating", "reviewed_at").
		From("reviews").
		Where(squirrel.Eq{"card_id": cardID}).
		OrderBy("reviewed_at", "rowid").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to list reviews: %v", err)
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.CardID, &rv.Rating, &rv.ReviewedAt); err != nil {
			log.Error("failed to scan review row: %v", err)
			return nil, err
		}
		rv.ReviewedAt = rv.ReviewedAt.UTC()
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// NewStore wires the SQLite repositories over one database handle.
func NewStore(db *sql.DB) repository.Store {
	return repository.Store{
		Decks:   NewDeckRepository(db),
		Cards:   NewCardRepository(db),
		Reviews: NewReviewRepository(db),
	}
}
