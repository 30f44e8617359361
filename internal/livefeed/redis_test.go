package livefeed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	repository "github.com/vogiaan1904/eventhub-seatsync/internal/repository/redis"
	"github.com/vogiaan1904/eventhub-seatsync/internal/seatsync"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/redis"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cli.Close() })
	return mr, cli
}

func nextDoc(t *testing.T, feed seatsync.DocumentFeed) seatsync.FeedDocument {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	doc, err := feed.Next(ctx)
	require.NoError(t, err)
	return doc
}

func TestRedisDialer_InitialThenPublished(t *testing.T) {
	mr, cli := setupRedis(t)
	require.NoError(t, mr.Set(repository.StatusKey("proj", "5"), `{"available_seats":8,"max_participants":20,"status":"active"}`))

	d := NewRedisDialer(cli, logger.NewNop())
	feed, err := d.Dial(context.Background(), seatsync.LiveConfig{ProjectID: "proj"}, "5")
	require.NoError(t, err)
	defer feed.Stop()

	doc := nextDoc(t, feed)
	assert.True(t, doc.Exists)
	assert.Equal(t, json.Number("8"), doc.Fields["available_seats"])

	mr.Publish(repository.StatusChannel("proj", "5"), `not json`)
	mr.Publish(repository.StatusChannel("proj", "5"), `{"available_seats":7,"status":"postponed"}`)

	doc = nextDoc(t, feed)
	assert.True(t, doc.Exists)
	assert.Equal(t, "postponed", doc.Fields["status"])
}

func TestRedisDialer_DeletedDocument(t *testing.T) {
	mr, cli := setupRedis(t)

	feed, err := NewRedisDialer(cli, logger.NewNop()).Dial(context.Background(), seatsync.LiveConfig{ProjectID: "proj"}, "5")
	require.NoError(t, err)
	defer feed.Stop()

	mr.Publish(repository.StatusChannel("proj", "5"), `{"event_id":5,"deleted":true}`)

	doc := nextDoc(t, feed)
	assert.False(t, doc.Exists)
}

func TestRedisFeed_StopUnblocksNext(t *testing.T) {
	_, cli := setupRedis(t)

	feed, err := NewRedisDialer(cli, logger.NewNop()).Dial(context.Background(), seatsync.LiveConfig{ProjectID: "proj"}, "5")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := feed.Next(context.Background())
		errCh <- err
	}()

	feed.Stop()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrFeedClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Stop")
	}
}

func TestDialers_WithoutClient(t *testing.T) {
	_, err := NewRedisDialer(nil, logger.NewNop()).Dial(context.Background(), seatsync.LiveConfig{ProjectID: "p"}, "1")
	assert.ErrorIs(t, err, seatsync.ErrLiveUnavailable)

	_, err = NewFirestoreDialer(nil).Dial(context.Background(), seatsync.LiveConfig{ProjectID: "p"}, "1")
	assert.ErrorIs(t, err, seatsync.ErrLiveUnavailable)
}

func TestWatcher_GoesLiveOverRedis(t *testing.T) {
	mr, cli := setupRedis(t)
	require.NoError(t, mr.Set(repository.StatusKey("proj", "5"), `{"available_seats":1,"max_participants":20}`))

	views := make(chan seatsync.View, 8)
	w := seatsync.NewWatcher(seatsync.Config{
		Page:           seatsync.PageConfig{EventID: "5", MaxParticipants: 20, AvailableSeats: 20},
		LiveConfig:     []byte(`{"provider":"redis","projectId":"proj"}`),
		ConfirmTimeout: time.Hour,
		PollInterval:   time.Hour,
	}, seatsync.FetcherFunc(func(context.Context, string) (map[string]any, error) {
		t.Error("poll source used while live confirmed")
		return nil, nil
	}), logger.InitializeTestZapLogger(),
		seatsync.WithDialer(seatsync.ProviderRedis, NewRedisDialer(cli, logger.NewNop())),
		seatsync.WithObserver(func(v seatsync.View) { views <- v }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	select {
	case v := <-views:
		assert.Equal(t, seatsync.ModeLive, v.Mode)
		assert.Equal(t, "1 seat left", v.Document.ElementByID(seatsync.ElementSeatText).Text)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never confirmed over redis")
	}
}
