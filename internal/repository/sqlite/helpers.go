package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var cardColumns = []string{
	"id", "deck_id", "front", "back", "created_at", "last_reviewed", "next_review",
	"ease", "interval_days", "repetitions", "version",
}

type rowScanner interface {
	Scan(dest ...any) error
}

// execer and queryRower are satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanCard(row rowScanner) (models.Card, error) {
	var c models.Card
	var lastReviewed, nextReview sql.NullTime
	err := row.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.CreatedAt, &lastReviewed, &nextReview,
		&c.Ease, &c.Interval, &c.Repetitions, &c.Version)
	if err != nil {
		return c, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.LastReviewed = fromNullTime(lastReviewed)
	c.NextReview = fromNullTime(nextReview)
	return c, nil
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// toNullTime stores timestamps in UTC so the text encoding compares in time order.
func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func newID() string {
	return uuid.NewString()
}

func tx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	log := logger.FromContext(ctx).WithPrefix("repo")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		log.Debug("transaction rolled back due to error: %v", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction: %v", err)
		return err
	}
	log.Debug("transaction committed")
	return nil
}
