package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/flashdeck/internal/flashcard"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
	"github.com/vytor/flashdeck/internal/repository/sqlite"
	"github.com/vytor/flashdeck/internal/testutil"
)

type DeckRepositorySuite struct {
	suite.Suite
	db    *sql.DB
	store repository.Store
}

func (s *DeckRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.store = sqlite.NewStore(s.db)
}

func (s *DeckRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *DeckRepositorySuite) TestCreateGetList() {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	older, err := s.store.Decks.Create(ctx, models.Deck{Name: "Older", CreatedAt: base})
	s.Require().NoError(err)
	newer, err := s.store.Decks.Create(ctx, models.Deck{Name: "Newer", CreatedAt: base.Add(time.Hour)})
	s.Require().NoError(err)

	got, err := s.store.Decks.Get(ctx, older.ID)
	s.Require().NoError(err)
	s.Assert().Equal("Older", got.Name)
	s.Assert().True(got.CreatedAt.Equal(base))

	decks, err := s.store.Decks.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(decks, 2)
	s.Assert().Equal(newer.ID, decks[0].ID, "newest first")
}

func (s *DeckRepositorySuite) TestGet_NotFound() {
	_, err := s.store.Decks.Get(context.Background(), "nope")
	s.Assert().ErrorIs(err, repository.ErrNotFound)
}

func (s *DeckRepositorySuite) TestDelete_CascadesCardsAndReviews() {
	ctx := context.Background()

	deck, err := s.store.Decks.Create(ctx, models.Deck{Name: "Doomed"})
	s.Require().NoError(err)
	keep, err := s.store.Decks.Create(ctx, models.Deck{Name: "Kept"})
	s.Require().NoError(err)

	cards, err := s.store.Cards.CreateBatch(ctx, []models.Card{
		models.NewCard(deck.ID, "q1", "a1"),
		models.NewCard(deck.ID, "q2", "a2"),
		models.NewCard(deck.ID, "q3", "a3"),
	})
	s.Require().NoError(err)
	kept, err := s.store.Cards.Create(ctx, models.NewCard(keep.ID, "q", "a"))
	s.Require().NoError(err)

	for _, c := range append(cards, *kept) {
		next, err := flashcard.ApplyReview(c, flashcard.Hard, time.Now())
		s.Require().NoError(err)
		_, err = s.store.Reviews.Record(ctx, next, models.Review{Rating: 2})
		s.Require().NoError(err)
	}

	s.Require().NoError(s.store.Decks.Delete(ctx, deck.ID))

	remaining, err := s.store.Cards.List(ctx, models.CardFilter{DeckID: deck.ID})
	s.Require().NoError(err)
	s.Assert().Empty(remaining)

	var reviewCount int
	s.Require().NoError(s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&reviewCount))
	s.Assert().Equal(1, reviewCount, "only the kept deck's review survives")

	_, err = s.store.Decks.Get(ctx, deck.ID)
	s.Assert().ErrorIs(err, repository.ErrNotFound)
}

func (s *DeckRepositorySuite) TestDelete_NotFound() {
	err := s.store.Decks.Delete(context.Background(), "nope")
	s.Assert().ErrorIs(err, repository.ErrNotFound)
}

func TestDeckRepositorySuite(t *testing.T) {
	suite.Run(t, new(DeckRepositorySuite))
}
