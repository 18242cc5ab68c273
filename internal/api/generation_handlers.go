package api

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/services"
)

// multipart overhead allowed on top of the document itself
const uploadSlack = 1 << 20

type generateCardsRequest struct {
	DeckID             string `json:"deckId" validate:"required"`
	Content            string `json:"content" validate:"required"`
	Count              int    `json:"count" validate:"omitempty,min=1,max=30"`
	IncreaseDifficulty bool   `json:"increaseDifficulty"`
}

type generatedCardsResponse struct {
	Success  bool          `json:"success"`
	Count    int           `json:"count"`
	Cards    []models.Card `json:"cards"`
	FileName string        `json:"fileName,omitempty"`
}

func (s *Server) handleGenerateCards(w http.ResponseWriter, r *http.Request) {
	var req generateCardsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	cards, err := s.GenerationService.GenerateCards(r.Context(), services.GenerateRequest{
		DeckID:             req.DeckID,
		Content:            req.Content,
		Count:              req.Count,
		IncreaseDifficulty: req.IncreaseDifficulty,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, generatedCardsResponse{Success: true, Count: len(cards), Cards: cards})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	maxUpload := s.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = services.DefaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+uploadSlack)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			handleError(w, r, errors.NewValidationError("document", "file is too large"))
			return
		}
		handleError(w, r, errors.NewBadRequestError("expected a multipart/form-data body"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("document")
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("no file uploaded in field \"document\""))
		return
	}
	defer file.Close()

	req := services.GenerateRequest{
		DeckID:             strings.TrimSpace(r.FormValue("deckId")),
		IncreaseDifficulty: r.FormValue("increaseDifficulty") == "true",
	}
	if req.DeckID == "" {
		handleError(w, r, errors.NewValidationError("deckId", "is required"))
		return
	}
	if raw := r.FormValue("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			handleError(w, r, errors.NewValidationError("count", "must be an integer"))
			return
		}
		req.Count = n
	}

	log.Debug("document uploaded: name=%s, size=%d", header.Filename, header.Size)
	cards, err := s.GenerationService.GenerateFromDocument(r.Context(), req, header.Filename, file)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, generatedCardsResponse{
		Success:  true,
		Count:    len(cards),
		Cards:    cards,
		FileName: header.Filename,
	})
}
