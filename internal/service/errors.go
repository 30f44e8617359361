package service

import (
	"errors"

	domainErrors "github.com/vogiaan1904/eventhub-seatsync/internal/errors"
)

var (
	ErrEventNotFound         = domainErrors.ErrEventNotFound
	ErrEventFull             = domainErrors.ErrEventFull
	ErrInvalidEventStatus    = domainErrors.ErrInvalidEventStatus
	ErrPostponedDateRequired = domainErrors.ErrPostponedDateRequired

	ErrInvalidSeatDelta     = errors.New("seat delta must not be zero")
	ErrInvalidPostponedDate = errors.New("postponed date must be YYYY-MM-DD")
)
