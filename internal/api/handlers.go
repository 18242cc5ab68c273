package api

import (
	"context"
	"time"

	"github.com/vytor/flashdeck/internal/services"
)

// Server holds the services and limits the HTTP layer needs.
type Server struct {
	DeckService       services.DeckService
	CardService       services.CardService
	ReviewService     services.ReviewService
	StatsService      services.StatsService
	GenerationService services.GenerationService

	// Ready reports whether the storage backend can serve traffic.
	Ready func(ctx context.Context) error
	// Now stamps review submissions. Defaults to time.Now.
	Now func() time.Time

	DueLimitMax    int
	MaxUploadBytes int64
	CORSOrigins    []string
	RequestTimeout time.Duration
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
