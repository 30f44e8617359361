package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vogiaan1904/eventhub-seatsync/internal/delivery/kafka"
	"github.com/vogiaan1904/eventhub-seatsync/internal/delivery/kafka/producer"
	domainErrors "github.com/vogiaan1904/eventhub-seatsync/internal/errors"
	"github.com/vogiaan1904/eventhub-seatsync/internal/metrics"
	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
	"github.com/vogiaan1904/eventhub-seatsync/internal/repository/firestore"
	"github.com/vogiaan1904/eventhub-seatsync/internal/repository/postgres"
	repository "github.com/vogiaan1904/eventhub-seatsync/internal/repository/redis"
	pkgLog "github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/util"
	"golang.org/x/sync/singleflight"
)

// statusLoadTimeout bounds a coalesced cache-miss load.
const statusLoadTimeout = 5 * time.Second

type eventStatusService struct {
	events postgres.EventRepository
	logs   postgres.ActivityLogRepository
	cache  repository.StatusRepository
	mirror firestore.EventMirror
	prod   producer.Producer
	l      pkgLog.Logger

	loads singleflight.Group
}

func NewEventStatusService(
	events postgres.EventRepository,
	logs postgres.ActivityLogRepository,
	cache repository.StatusRepository,
	mirror firestore.EventMirror,
	prod producer.Producer,
	l pkgLog.Logger,
) EventStatusService {
	return &eventStatusService{
		events: events,
		logs:   logs,
		cache:  cache,
		mirror: mirror,
		prod:   prod,
		l:      l,
	}
}

func (s *eventStatusService) GetEventStatus(ctx context.Context, eID int64) (*models.EventStatus, error) {
	st, err := s.cache.Get(ctx, eID)
	if err == nil {
		metrics.StatusCacheLookups.WithLabelValues("hit").Inc()
		return st, nil
	}
	if !errors.Is(err, domainErrors.ErrStatusNotCached) {
		s.l.Warnf(ctx, "service.eventStatusService.GetEventStatus: cache: %v", err)
	}
	metrics.StatusCacheLookups.WithLabelValues("miss").Inc()

	// The load is shared by every coalesced caller, so it must not die with
	// the first caller's context.
	ch := s.loads.DoChan(strconv.FormatInt(eID, 10), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusLoadTimeout)
		defer cancel()

		e, err := s.events.Get(loadCtx, eID)
		if err != nil {
			return nil, err
		}

		snap := e.StatusSnapshot()
		if err := s.cache.Set(loadCtx, snap); err != nil {
			metrics.SyncFailures.WithLabelValues("redis_cache").Inc()
		}
		return snap, nil
	})

	var v any
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		v, err = res.Val, res.Err
	}
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			s.l.Warnf(ctx, "service.eventStatusService.GetEventStatus: %v", err)
		} else {
			s.l.Errorf(ctx, "service.eventStatusService.GetEventStatus: %v", err)
		}
		return nil, err
	}

	snap := v.(models.EventStatus)
	return &snap, nil
}

func (s *eventStatusService) UpdateEventStatus(ctx context.Context, in UpdateEventStatusInput) (*models.EventStatus, error) {
	status := models.EventLifecycle(strings.ToLower(strings.TrimSpace(in.Status)))
	if !status.IsValid() {
		s.l.Warnf(ctx, "service.eventStatusService.UpdateEventStatus: %v: %q", ErrInvalidEventStatus, in.Status)
		return nil, ErrInvalidEventStatus
	}

	chg := postgres.StatusChange{
		Status: status,
		Reason: strings.TrimSpace(in.Reason),
	}
	if status == models.EventStatusPostponed {
		if strings.TrimSpace(in.PostponedTo) == "" {
			return nil, ErrPostponedDateRequired
		}
		d, err := util.ParseDate(in.PostponedTo)
		if err != nil {
			return nil, ErrInvalidPostponedDate
		}
		chg.PostponedTo = &d
	}

	prev, e, err := s.events.UpdateStatus(ctx, in.EventID, chg)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			s.l.Warnf(ctx, "service.eventStatusService.UpdateEventStatus: %v", err)
		} else {
			s.l.Errorf(ctx, "service.eventStatusService.UpdateEventStatus: %v", err)
		}
		return nil, err
	}

	snap := e.StatusSnapshot()
	mirrored := s.propagate(ctx, snap)
	s.recordStatusChange(ctx, in.ChangedBy, prev, e, mirrored)
	metrics.StatusChanges.WithLabelValues(string(status)).Inc()

	if status != models.EventStatusActive {
		if err := s.prod.PublishEventStatusChanged(ctx, kafka.EventStatusChangedEvent{
			EventID:        e.ID,
			Title:          e.Title,
			PreviousStatus: string(prev),
			Status:         string(status),
			Reason:         e.StatusReason,
			PostponedTo:    snap.PostponedTo,
			ChangedBy:      in.ChangedBy,
		}); err != nil {
			metrics.SyncFailures.WithLabelValues("kafka").Inc()
		}
	}

	s.l.Infof(ctx, "Event %d status %s -> %s", e.ID, prev, status)

	return &snap, nil
}

func (s *eventStatusService) AdjustSeats(ctx context.Context, in AdjustSeatsInput) (*models.EventStatus, error) {
	if in.Delta == 0 {
		return nil, ErrInvalidSeatDelta
	}

	direction := "release"
	if in.Delta < 0 {
		direction = "reserve"
	}

	e, err := s.events.AdjustSeats(ctx, in.EventID, in.Delta)
	if err != nil {
		metrics.SeatAdjustments.WithLabelValues(direction, "rejected").Inc()
		if errors.Is(err, ErrEventNotFound) || errors.Is(err, ErrEventFull) {
			s.l.Warnf(ctx, "service.eventStatusService.AdjustSeats: event %d: %v", in.EventID, err)
		} else {
			s.l.Errorf(ctx, "service.eventStatusService.AdjustSeats: %v", err)
		}
		return nil, err
	}
	metrics.SeatAdjustments.WithLabelValues(direction, "applied").Inc()

	snap := e.StatusSnapshot()
	s.propagate(ctx, snap)

	if err := s.prod.PublishEventSeatsChanged(ctx, kafka.EventSeatsChangedEvent{
		EventID:         e.ID,
		Delta:           in.Delta,
		AvailableSeats:  snap.AvailableSeats,
		MaxParticipants: snap.MaxParticipants,
		IsSoldOut:       snap.IsSoldOut,
	}); err != nil {
		metrics.SyncFailures.WithLabelValues("kafka").Inc()
	}

	s.l.Debugf(ctx, "Event %d seats %+d -> %d available (source %s)", e.ID, in.Delta, snap.AvailableSeats, in.Source)

	return &snap, nil
}

// propagate pushes a committed snapshot to the cache, the live channel and the
// Firestore mirror. Failures are logged and counted, never returned. It reports
// whether the mirror write succeeded.
func (s *eventStatusService) propagate(ctx context.Context, snap models.EventStatus) bool {
	if err := s.cache.Set(ctx, snap); err != nil {
		metrics.SyncFailures.WithLabelValues("redis_cache").Inc()
	}
	if err := s.cache.Publish(ctx, snap); err != nil {
		metrics.SyncFailures.WithLabelValues("redis_publish").Inc()
	}

	if err := s.mirror.Sync(ctx, snap); err != nil {
		if !errors.Is(err, firestore.ErrMirrorUnavailable) {
			metrics.SyncFailures.WithLabelValues("firestore").Inc()
		}
		return false
	}
	return true
}

func (s *eventStatusService) recordStatusChange(ctx context.Context, userID string, prev models.EventLifecycle, e *models.Event, mirrored bool) {
	meta := map[string]any{
		"event_id":      e.ID,
		"old_status":    string(prev),
		"new_status":    string(e.Status),
		"firebase_sync": mirrored,
	}
	if e.StatusReason != "" {
		meta["reason"] = e.StatusReason
	}
	if e.PostponedTo != nil {
		meta["postponed_to"] = util.FormatDate(*e.PostponedTo)
	}

	al := &models.ActivityLog{
		ActivityType: models.ActivityEventStatusChange,
		UserID:       userID,
		Details:      fmt.Sprintf("Event %q status changed from %s to %s", e.Title, prev, e.Status),
		Metadata:     meta,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.logs.Create(ctx, al); err != nil {
		metrics.SyncFailures.WithLabelValues("activity_log").Inc()
	}
}
