package errors

import "errors"

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventFull             = errors.New("event is full")
	ErrInvalidEventStatus    = errors.New("invalid event status")
	ErrPostponedDateRequired = errors.New("a new date is required when postponing an event")
	ErrStatusNotCached       = errors.New("event status not cached")
)
