package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createCardRequest struct {
	DeckID string `json:"deckId" validate:"required"`
	Front  string `json:"front" validate:"required"`
	Back   string `json:"back" validate:"required"`
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.CardService.CreateCard(r.Context(), req.DeckID, req.Front, req.Back)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.CardService.GetCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleListDeckCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.CardService.ListCards(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cards)
}

func (s *Server) handleDeckDueCards(w http.ResponseWriter, r *http.Request) {
	s.writeDueCards(w, r, chi.URLParam(r, "id"))
}

func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	s.writeDueCards(w, r, "")
}

func (s *Server) writeDueCards(w http.ResponseWriter, r *http.Request, deckID string) {
	limit, err := parseLimit(r, s.DueLimitMax)
	if err != nil {
		handleError(w, r, err)
		return
	}
	cards, err := s.CardService.DueCards(r.Context(), deckID, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cards)
}
