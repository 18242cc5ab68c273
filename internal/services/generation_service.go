package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/vytor/flashdeck/internal/document"
	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/generator"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

const (
	DefaultGenerateCount = 10
	MaxGenerateCount     = 30
	DefaultMaxUpload     = 10 << 20
	// maxContentBytes bounds the text sent to the model.
	maxContentBytes = 60_000
)

// GenerateRequest asks for cards to be generated into an existing deck.
type GenerateRequest struct {
	DeckID             string
	Content            string
	Count              int
	IncreaseDifficulty bool
}

// GenerationService creates cards from free text or uploaded documents.
type GenerationService interface {
	GenerateCards(ctx context.Context, req GenerateRequest) ([]models.Card, error)
	GenerateFromDocument(ctx context.Context, req GenerateRequest, filename string, r io.Reader) ([]models.Card, error)
}

type generationService struct {
	deckRepo  repository.DeckRepository
	cardRepo  repository.CardRepository
	gen       generator.Generator
	maxUpload int64
	now       Clock
}

// NewGenerationService creates a new GenerationService. maxUpload caps the
// number of document bytes read.
func NewGenerationService(deckRepo repository.DeckRepository, cardRepo repository.CardRepository, gen generator.Generator, maxUpload int64, now Clock) GenerationService {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &generationService{deckRepo: deckRepo, cardRepo: cardRepo, gen: gen, maxUpload: maxUpload, now: orNow(now)}
}

func (s *generationService) GenerateCards(ctx context.Context, req GenerateRequest) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("generation_service").WithField("deck_id", req.DeckID)

	if req.Count == 0 {
		req.Count = DefaultGenerateCount
	}
	if req.Count < 1 || req.Count > MaxGenerateCount {
		return nil, errors.NewValidationError("count", fmt.Sprintf("must be between 1 and %d", MaxGenerateCount))
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return nil, errors.NewValidationError("content", "must not be empty")
	}
	if len(req.Content) > maxContentBytes {
		log.Warn("content truncated from %d to %d bytes", len(req.Content), maxContentBytes)
		req.Content = truncateUTF8(req.Content, maxContentBytes)
	}

	if _, err := s.deckRepo.Get(ctx, req.DeckID); err != nil {
		return nil, fromRepoError(err, "deck", req.DeckID)
	}

	seeds, err := s.gen.Generate(ctx, generator.Request{
		DeckID:             req.DeckID,
		Content:            req.Content,
		Count:              req.Count,
		IncreaseDifficulty: req.IncreaseDifficulty,
	})
	if err != nil {
		log.Error("card generation failed: %v", err)
		if stderrors.Is(err, generator.ErrNotConfigured) {
			return nil, errors.NewUnavailableError("card generation is not configured", err)
		}
		return nil, errors.NewUnavailableError("card generation failed", err)
	}
	if len(seeds) > req.Count {
		seeds = seeds[:req.Count]
	}

	createdAt := s.now()
	cards := make([]models.Card, len(seeds))
	for i, seed := range seeds {
		cards[i] = models.NewCard(req.DeckID, seed.Front, seed.Back)
		cards[i].CreatedAt = createdAt
	}
	created, err := s.cardRepo.CreateBatch(ctx, cards)
	if err != nil {
		log.Error("failed to store generated cards: %v", err)
		return nil, fromRepoError(err, "deck", req.DeckID)
	}
	log.Info("stored %d generated cards", len(created))
	return created, nil
}

func (s *generationService) GenerateFromDocument(ctx context.Context, req GenerateRequest, filename string, r io.Reader) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("generation_service").WithField("filename", filename)

	data, err := io.ReadAll(io.LimitReader(r, s.maxUpload+1))
	if err != nil {
		log.Error("failed to read upload: %v", err)
		return nil, errors.NewBadRequestError("could not read uploaded file")
	}
	if int64(len(data)) > s.maxUpload {
		return nil, errors.NewValidationError("file", fmt.Sprintf("must be at most %d bytes", s.maxUpload))
	}

	text, err := document.Extract(filename, data)
	if err != nil {
		log.Warn("text extraction failed: %v", err)
		switch {
		case stderrors.Is(err, document.ErrUnsupported):
			return nil, errors.NewValidationError("file", "supported types are "+strings.Join(document.SupportedExtensions, ", "))
		case stderrors.Is(err, document.ErrEmpty):
			return nil, errors.NewValidationError("file", "document contains no readable text")
		case stderrors.Is(err, document.ErrTooLarge):
			return nil, errors.NewValidationError("file", fmt.Sprintf("document expands past %d bytes", document.MaxDecompressedBytes))
		default:
			return nil, errors.NewValidationError("file", "document could not be parsed")
		}
	}
	log.Debug("extracted %d bytes of text", len(text))

	req.Content = text
	return s.GenerateCards(ctx, req)
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
