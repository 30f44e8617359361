package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domainErrors "github.com/vogiaan1904/eventhub-seatsync/internal/errors"
	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
)

type StatusChange struct {
	Status      models.EventLifecycle
	Reason      string
	PostponedTo *time.Time
}

type EventRepository interface {
	Get(ctx context.Context, eID int64) (*models.Event, error)
	// UpdateStatus applies the change and returns the status the event had before it.
	UpdateStatus(ctx context.Context, eID int64, chg StatusChange) (models.EventLifecycle, *models.Event, error)
	AdjustSeats(ctx context.Context, eID int64, delta int) (*models.Event, error)
}

type pgEventRepository struct {
	db *pgxpool.Pool
	l  logger.Logger
}

func NewEventRepository(db *pgxpool.Pool, l logger.Logger) EventRepository {
	return &pgEventRepository{
		db: db,
		l:  l,
	}
}

const eventColumns = `id, title, event_date, max_participants, available_seats, allow_waitlist,
	is_active, status, status_reason, postponed_to, cancelled_at, updated_at`

func (r *pgEventRepository) Get(ctx context.Context, eID int64) (*models.Event, error) {
	row := r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, eID)

	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEventNotFound
		}
		r.l.Errorf(ctx, "pgEventRepository.Get: %v", err)
		return nil, err
	}

	return e, nil
}

const updateStatusSQL = `
WITH prev AS (
	SELECT id, status FROM events WHERE id = $1 FOR UPDATE
)
UPDATE events e SET
	status        = $2::text,
	status_reason = NULLIF($3::text, ''),
	postponed_to  = CASE WHEN $2::text = 'postponed' THEN $4::date ELSE e.postponed_to END,
	event_date    = CASE WHEN $2::text = 'postponed' THEN $4::date::timestamptz ELSE e.event_date END,
	cancelled_at  = CASE WHEN $2::text = 'cancelled' THEN NOW() ELSE NULL END,
	is_active     = ($2::text <> 'cancelled'),
	updated_at    = NOW()
FROM prev
WHERE e.id = prev.id
RETURNING prev.status, e.id, e.title, e.event_date, e.max_participants, e.available_seats,
	e.allow_waitlist, e.is_active, e.status, e.status_reason, e.postponed_to, e.cancelled_at, e.updated_at`

func (r *pgEventRepository) UpdateStatus(ctx context.Context, eID int64, chg StatusChange) (models.EventLifecycle, *models.Event, error) {
	var prev string
	e := &models.Event{}

	row := r.db.QueryRow(ctx, updateStatusSQL, eID, string(chg.Status), chg.Reason, chg.PostponedTo)
	if err := scanInto(row, e, &prev); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, domainErrors.ErrEventNotFound
		}
		r.l.Errorf(ctx, "pgEventRepository.UpdateStatus: %v", err)
		return "", nil, err
	}

	return models.ParseEventLifecycle(prev), e, nil
}

const adjustSeatsSQL = `
UPDATE events SET
	available_seats = LEAST(available_seats + $2, max_participants),
	updated_at      = NOW()
WHERE id = $1 AND ($2 > 0 OR available_seats + $2 >= 0)
RETURNING ` + eventColumns

func (r *pgEventRepository) AdjustSeats(ctx context.Context, eID int64, delta int) (*models.Event, error) {
	row := r.db.QueryRow(ctx, adjustSeatsSQL, eID, delta)

	e, err := scanEvent(row)
	if err == nil {
		return e, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		r.l.Errorf(ctx, "pgEventRepository.AdjustSeats: %v", err)
		return nil, err
	}

	// No row updated: either the event is missing or the decrement would oversell.
	if _, gErr := r.Get(ctx, eID); gErr != nil {
		return nil, gErr
	}

	return nil, domainErrors.ErrEventFull
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	e := &models.Event{}
	if err := scanInto(row, e); err != nil {
		return nil, err
	}
	return e, nil
}

// scanInto reads the event columns; any extra destinations are scanned first.
func scanInto(row pgx.Row, e *models.Event, leading ...any) error {
	var (
		status string
		reason *string
	)

	dest := append(leading,
		&e.ID, &e.Title, &e.EventDate, &e.MaxParticipants, &e.AvailableSeats, &e.AllowWaitlist,
		&e.IsActive, &status, &reason, &e.PostponedTo, &e.CancelledAt, &e.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return fmt.Errorf("scan event: %w", err)
	}

	e.Status = models.ParseEventLifecycle(status)
	if reason != nil {
		e.StatusReason = *reason
	}

	return nil
}
