package service

import (
	"context"

	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
)

type EventStatusService interface {
	// GetEventStatus serves the poll endpoint from the cache, falling back to Postgres.
	GetEventStatus(ctx context.Context, eID int64) (*models.EventStatus, error)
	UpdateEventStatus(ctx context.Context, in UpdateEventStatusInput) (*models.EventStatus, error)
	AdjustSeats(ctx context.Context, in AdjustSeatsInput) (*models.EventStatus, error)
}
