package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type submitReviewRequest struct {
	CardID string `json:"cardId" validate:"required"`
	Rating *int   `json:"rating" validate:"required,min=1,max=4"`
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var req submitReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	res, err := s.ReviewService.SubmitReview(r.Context(), req.CardID, *req.Rating, s.now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.ReviewService.ListReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reviews)
}
