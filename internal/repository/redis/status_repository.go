package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	domainErrors "github.com/vogiaan1904/eventhub-seatsync/internal/errors"
	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/redis"
)

type StatusRepository interface {
	Get(ctx context.Context, eID int64) (*models.EventStatus, error)
	Set(ctx context.Context, st models.EventStatus) error
	Invalidate(ctx context.Context, eID int64) error
	// Publish pushes the snapshot to every live subscriber of the event.
	Publish(ctx context.Context, st models.EventStatus) error
}

type redisStatusRepository struct {
	cli       *redis.Client
	namespace string
	ttl       time.Duration
	l         logger.Logger
}

func NewRedisStatusRepository(cli *redis.Client, namespace string, ttl time.Duration, l logger.Logger) StatusRepository {
	return &redisStatusRepository{
		cli:       cli,
		namespace: namespace,
		ttl:       ttl,
		l:         l,
	}
}

func (r *redisStatusRepository) Get(ctx context.Context, eID int64) (*models.EventStatus, error) {
	data, err := r.cli.Get(ctx, r.statusKey(eID))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, domainErrors.ErrStatusNotCached
		}
		r.l.Errorf(ctx, "redisStatusRepository.Get: %v", err)
		return nil, err
	}

	var st models.EventStatus
	if err := json.Unmarshal(data, &st); err != nil {
		r.l.Warnf(ctx, "redisStatusRepository.Get: dropping corrupt entry for event %d: %v", eID, err)
		_ = r.cli.Del(ctx, r.statusKey(eID))
		return nil, domainErrors.ErrStatusNotCached
	}

	return &st, nil
}

func (r *redisStatusRepository) Set(ctx context.Context, st models.EventStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal event status: %w", err)
	}

	if err := r.cli.Set(ctx, r.statusKey(st.EventID), data, r.ttl); err != nil {
		r.l.Errorf(ctx, "redisStatusRepository.Set: %v", err)
		return err
	}

	return nil
}

func (r *redisStatusRepository) Invalidate(ctx context.Context, eID int64) error {
	if err := r.cli.Del(ctx, r.statusKey(eID)); err != nil {
		r.l.Errorf(ctx, "redisStatusRepository.Invalidate: %v", err)
		return err
	}
	return nil
}

func (r *redisStatusRepository) Publish(ctx context.Context, st models.EventStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal event status: %w", err)
	}

	ch := StatusChannel(r.namespace, strconv.FormatInt(st.EventID, 10))
	if err := r.cli.Publish(ctx, ch, data); err != nil {
		r.l.Errorf(ctx, "redisStatusRepository.Publish: %v", err)
		return err
	}

	r.l.Debugf(ctx, "Published status for event %d on %s", st.EventID, ch)

	return nil
}

func (r *redisStatusRepository) statusKey(eID int64) string {
	return StatusKey(r.namespace, strconv.FormatInt(eID, 10))
}

// StatusKey is the cache key holding the latest snapshot for one event.
func StatusKey(namespace, eventID string) string {
	return fmt.Sprintf("%s:status:%s", namespace, eventID)
}

// StatusChannel is the pub/sub channel carrying live snapshots for one event.
func StatusChannel(namespace, eventID string) string {
	return fmt.Sprintf("%s:events:%s", namespace, eventID)
}
