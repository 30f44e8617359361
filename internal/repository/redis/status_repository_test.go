package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/vogiaan1904/eventhub-seatsync/internal/errors"
	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/redis"
)

func setupRepo(t *testing.T) (*miniredis.Miniredis, *goredis.Client, StatusRepository) {
	t.Helper()

	mr := miniredis.RunT(t)
	cli := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cli.Close() })

	repo := NewRedisStatusRepository(redis.Wrap(cli), "test", time.Minute, logger.NewNop())
	return mr, cli, repo
}

func TestStatusRepository_SetGet(t *testing.T) {
	mr, _, repo := setupRepo(t)
	ctx := context.Background()

	st := models.EventStatus{EventID: 42, AvailableSeats: 3, MaxParticipants: 50, Status: models.EventStatusActive}
	require.NoError(t, repo.Set(ctx, st))

	assert.True(t, mr.Exists("test:status:42"))
	assert.Equal(t, time.Minute, mr.TTL("test:status:42"))

	got, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableSeats)
	assert.Equal(t, models.EventStatusActive, got.Status)
}

func TestStatusRepository_Miss(t *testing.T) {
	_, _, repo := setupRepo(t)

	_, err := repo.Get(context.Background(), 1)
	assert.ErrorIs(t, err, domainErrors.ErrStatusNotCached)
}

func TestStatusRepository_CorruptEntryIsDropped(t *testing.T) {
	mr, _, repo := setupRepo(t)
	require.NoError(t, mr.Set("test:status:9", "{not json"))

	_, err := repo.Get(context.Background(), 9)
	assert.ErrorIs(t, err, domainErrors.ErrStatusNotCached)
	assert.False(t, mr.Exists("test:status:9"))
}

func TestStatusRepository_Invalidate(t *testing.T) {
	mr, _, repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, models.EventStatus{EventID: 5}))
	require.NoError(t, repo.Invalidate(ctx, 5))
	assert.False(t, mr.Exists("test:status:5"))
}

func TestStatusRepository_Publish(t *testing.T) {
	_, cli, repo := setupRepo(t)
	ctx := context.Background()

	sub := cli.Subscribe(ctx, StatusChannel("test", "42"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Publish(ctx, models.EventStatus{EventID: 42, AvailableSeats: 1, MaxParticipants: 5}))

	select {
	case msg := <-sub.Channel():
		var st models.EventStatus
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &st))
		assert.Equal(t, 1, st.AvailableSeats)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}
