package http

import (
	"errors"
	"net/http"

	"github.com/vogiaan1904/eventhub-seatsync/internal/service"
	pkgErrors "github.com/vogiaan1904/eventhub-seatsync/pkg/errors"
)

var (
	errInvalidEventID    = pkgErrors.NewHTTPError(40001, "Invalid event id")
	errInvalidBody       = pkgErrors.NewHTTPError(40002, "Invalid request body")
	errInvalidStatus     = pkgErrors.NewHTTPError(40003, "Status must be one of active, cancelled, postponed")
	errPostponedDate     = pkgErrors.NewHTTPError(40004, "A new date (YYYY-MM-DD) is required when postponing an event")
	errUnauthenticated   = pkgErrors.NewHTTPError(40101, "Authentication required").WithStatus(http.StatusUnauthorized)
	errForbidden         = pkgErrors.NewHTTPError(40301, "You do not have permission to perform this action").WithStatus(http.StatusForbidden)
	errEventNotFound     = pkgErrors.NewHTTPError(40401, "Event not found").WithStatus(http.StatusNotFound)
	errEventFull         = pkgErrors.NewHTTPError(40901, "Event is full").WithStatus(http.StatusConflict)
	errRateLimited       = pkgErrors.NewHTTPError(42901, "Too many requests, please slow down").WithStatus(http.StatusTooManyRequests)
	errStreamUnsupported = pkgErrors.NewHTTPError(50001, "Streaming unsupported").WithStatus(http.StatusInternalServerError)
	errUnhealthy         = pkgErrors.NewHTTPError(50301, "Service unavailable").WithStatus(http.StatusServiceUnavailable)
)

const codeValidation = 40005

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return errEventNotFound
	case errors.Is(err, service.ErrEventFull):
		return errEventFull
	case errors.Is(err, service.ErrInvalidEventStatus):
		return errInvalidStatus
	case errors.Is(err, service.ErrPostponedDateRequired), errors.Is(err, service.ErrInvalidPostponedDate):
		return errPostponedDate
	default:
		return err
	}
}
