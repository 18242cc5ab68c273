package services

import (
	stderrors "errors"
	"time"

	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/repository"
)

// Clock supplies the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func orNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// fromRepoError maps repository sentinels onto API-facing errors.
func fromRepoError(err error, resource string, id any) *errors.AppError {
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NewNotFoundError(resource, id)
	case stderrors.Is(err, repository.ErrConflict):
		return errors.NewConflictError(resource+" was modified concurrently, retry the request", err)
	default:
		return errors.NewInternalError(err)
	}
}
