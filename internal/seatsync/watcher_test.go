package seatsync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFeed struct {
	docs     chan FeedDocument
	errs     chan error
	stopped  chan struct{}
	stopOnce sync.Once

	inNext        atomic.Int32
	stopRacedNext atomic.Bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		docs:    make(chan FeedDocument),
		errs:    make(chan error),
		stopped: make(chan struct{}),
	}
}

func (f *fakeFeed) Next(ctx context.Context) (FeedDocument, error) {
	f.inNext.Add(1)
	defer f.inNext.Add(-1)

	select {
	case d := <-f.docs:
		return d, nil
	case err := <-f.errs:
		return FeedDocument{}, err
	case <-f.stopped:
		return FeedDocument{}, errors.New("feed stopped")
	case <-ctx.Done():
		return FeedDocument{}, ctx.Err()
	}
}

func (f *fakeFeed) Stop() {
	if f.inNext.Load() > 0 {
		f.stopRacedNext.Store(true)
	}
	f.stopOnce.Do(func() { close(f.stopped) })
}

func (f *fakeFeed) isStopped() bool {
	select {
	case <-f.stopped:
		return true
	default:
		return false
	}
}

func (f *fakeFeed) push(t *testing.T, fields map[string]any) {
	t.Helper()
	select {
	case f.docs <- FeedDocument{Exists: true, Fields: fields}:
	case <-time.After(time.Second):
		t.Fatal("live document not consumed")
	}
}

type harness struct {
	w       *Watcher
	fetcher *fakeFetcher
	feed    *fakeFeed
	views   chan View
	cancel  context.CancelFunc
	done    chan error
}

const liveBlob = `{"apiKey":"k","projectId":"eventhub-test","provider":"firestore"}`

func startWatcher(t *testing.T, liveConfig string, confirm time.Duration, interval time.Duration) *harness {
	t.Helper()

	h := &harness{
		fetcher: &fakeFetcher{fields: map[string]any{"available_seats": 30, "max_participants": 50, "status": "active"}},
		feed:    newFakeFeed(),
		views:   make(chan View, 64),
		done:    make(chan error, 1),
	}

	dialer := DialerFunc(func(ctx context.Context, cfg LiveConfig, eventID string) (DocumentFeed, error) {
		assert.Equal(t, "eventhub-test", cfg.ProjectID)
		assert.Equal(t, "7", eventID)
		return h.feed, nil
	})

	h.w = NewWatcher(Config{
		Page:           PageConfig{EventID: "7", MaxParticipants: 50, AvailableSeats: 50},
		LiveConfig:     []byte(liveConfig),
		ConfirmTimeout: confirm,
		PollInterval:   interval,
		PollTimeout:    time.Second,
	}, h.fetcher, logger.NewNop(),
		WithDialer(ProviderFirestore, dialer),
		WithObserver(func(v View) {
			select {
			case h.views <- v:
			default:
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.w.Run(ctx) }()

	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
	h.done <- nil
}

func (h *harness) nextView(t *testing.T) View {
	t.Helper()
	select {
	case v := <-h.views:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no view published")
		return View{}
	}
}

func (h *harness) waitMode(t *testing.T, m ConnectionMode) {
	t.Helper()
	require.Eventually(t, func() bool { return h.w.Mode() == m }, 2*time.Second, 2*time.Millisecond)
}

func TestWatcher_NoLiveConfigPollsImmediately(t *testing.T) {
	h := startWatcher(t, "", time.Hour, 30*time.Millisecond)

	v := h.nextView(t)
	assert.Equal(t, ModePolling, v.Mode)
	assert.Equal(t, OriginPoll, v.Origin)
	assert.Equal(t, "30 seats left", v.Document.ElementByID(ElementSeatText).Text)

	// second tick
	h.nextView(t)
	assert.GreaterOrEqual(t, h.fetcher.Calls(), 2)
}

func TestWatcher_MalformedConfigPolls(t *testing.T) {
	for _, blob := range []string{`{not json`, `{"apiKey":"k"}`, `{"projectId":"eventhub-test","provider":"carrier-pigeon"}`} {
		h := startWatcher(t, blob, time.Hour, time.Hour)
		v := h.nextView(t)
		assert.Equal(t, ModePolling, v.Mode, blob)
		h.stop()
	}
}

func TestWatcher_LiveConfirmsWithinWindow(t *testing.T) {
	h := startWatcher(t, liveBlob, time.Hour, 10*time.Millisecond)
	assert.Equal(t, ModeUnconfirmed, h.w.Mode())

	h.feed.push(t, map[string]any{"available_seats": int64(12), "max_participants": int64(50), "status": "active"})

	v := h.nextView(t)
	assert.Equal(t, ModeLive, v.Mode)
	assert.Equal(t, OriginLive, v.Origin)
	assert.Equal(t, 12, v.Snapshot.AvailableSeats)
	assert.Zero(t, h.fetcher.Calls())
}

func TestWatcher_LiveIsSticky(t *testing.T) {
	h := startWatcher(t, liveBlob, time.Hour, 10*time.Millisecond)
	h.feed.push(t, map[string]any{"available_seats": 12})
	h.nextView(t)

	h.feed.errs <- errors.New("permission denied")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, ModeLive, h.w.Mode())
	assert.Zero(t, h.fetcher.Calls())
}

func TestWatcher_MissingDocumentIgnored(t *testing.T) {
	h := startWatcher(t, liveBlob, time.Hour, time.Hour)

	h.feed.docs <- FeedDocument{Exists: false}
	h.feed.push(t, map[string]any{"available_seats": 2})

	v := h.nextView(t)
	assert.Equal(t, 2, v.Snapshot.AvailableSeats)
	assert.Equal(t, ModeLive, v.Mode)
}

func TestWatcher_ConfirmTimeoutFallsBackToPolling(t *testing.T) {
	h := startWatcher(t, liveBlob, 30*time.Millisecond, time.Hour)

	v := h.nextView(t)
	assert.Equal(t, ModePolling, v.Mode)
	assert.Equal(t, OriginPoll, v.Origin)
	assert.Equal(t, 1, h.fetcher.Calls())
}

func TestWatcher_LateLiveStopsPolling(t *testing.T) {
	h := startWatcher(t, liveBlob, 20*time.Millisecond, 10*time.Millisecond)
	h.waitMode(t, ModePolling)
	h.nextView(t)

	h.feed.push(t, map[string]any{"available_seats": 5})
	h.waitMode(t, ModeLive)
	require.False(t, h.w.poller.IsRunning())

	calls := h.fetcher.Calls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, h.fetcher.Calls())
}

func TestWatcher_LiveErrorBeforeConfirmPolls(t *testing.T) {
	h := startWatcher(t, liveBlob, time.Hour, time.Hour)

	h.feed.errs <- errors.New("unavailable")

	v := h.nextView(t)
	assert.Equal(t, ModePolling, v.Mode)
	assert.Equal(t, 1, h.fetcher.Calls())
}

func TestWatcher_DialFailurePolls(t *testing.T) {
	fetcher := &fakeFetcher{fields: map[string]any{"available_seats": 1}}
	views := make(chan View, 4)
	w := NewWatcher(Config{
		Page:         PageConfig{EventID: "7", MaxParticipants: 50, AvailableSeats: 50},
		LiveConfig:   []byte(liveBlob),
		PollInterval: time.Hour,
	}, fetcher, logger.NewNop(),
		WithDialer(ProviderFirestore, DialerFunc(func(context.Context, LiveConfig, string) (DocumentFeed, error) {
			return nil, ErrLiveUnavailable
		})),
		WithObserver(func(v View) { views <- v }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	v := <-views
	assert.Equal(t, ModePolling, v.Mode)
	assert.Equal(t, "1 seat left", v.Document.ElementByID(ElementSeatText).Text)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_LastWriteWinsDuringWindow(t *testing.T) {
	h := startWatcher(t, liveBlob, 20*time.Millisecond, time.Hour)
	h.waitMode(t, ModePolling)
	poll := h.nextView(t)
	assert.Equal(t, 30, poll.Snapshot.AvailableSeats)

	h.feed.push(t, map[string]any{"available_seats": 0, "status": "cancelled"})
	live := h.nextView(t)

	assert.Equal(t, 0, live.Snapshot.AvailableSeats)
	assert.Equal(t, models.EventStatusCancelled, h.w.Snapshot().Status)
	assert.False(t, live.Document.ElementByID(ElementStatusBanner).Hidden)
}

func TestWatcher_CloseReleasesSources(t *testing.T) {
	h := startWatcher(t, liveBlob, time.Hour, time.Hour)
	h.feed.push(t, map[string]any{"available_seats": 3})
	h.nextView(t)

	h.w.Close()

	assert.True(t, h.feed.isStopped())
	assert.False(t, h.feed.stopRacedNext.Load(), "feed stopped while Next was in flight")
	assert.False(t, h.w.poller.IsRunning())
}

func TestWatcher_CloseBeforeRun(t *testing.T) {
	fetcher := &fakeFetcher{fields: map[string]any{"available_seats": 1}}
	w := NewWatcher(Config{Page: PageConfig{EventID: "7", MaxParticipants: 5}}, fetcher, logger.NewNop())
	w.Close()

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		w.Close()
		t.Fatal("Run kept going after Close")
	}
	assert.Zero(t, fetcher.Calls())
}

func TestWatcher_RequiresEventID(t *testing.T) {
	w := NewWatcher(Config{}, &fakeFetcher{}, logger.NewNop())
	assert.ErrorIs(t, w.Run(context.Background()), ErrMissingEventID)
}

func TestParseWidgetAttributes(t *testing.T) {
	pc, err := ParseWidgetAttributes(map[string]string{"eventId": "9", "maxParticipants": "40", "allowWaitlist": "true"})
	require.NoError(t, err)
	assert.Equal(t, PageConfig{EventID: "9", MaxParticipants: 40, AvailableSeats: 40, AllowWaitlist: true}, pc)

	pc, err = ParseWidgetAttributes(map[string]string{"eventId": "9", "maxParticipants": "x", "allowWaitlist": "True"})
	require.NoError(t, err)
	assert.Equal(t, 1, pc.MaxParticipants)
	assert.False(t, pc.AllowWaitlist)

	_, err = ParseWidgetAttributes(map[string]string{})
	assert.ErrorIs(t, err, ErrMissingEventID)
}

func TestParseLiveConfig(t *testing.T) {
	lc, err := ParseLiveConfig([]byte(`{"projectId":" p1 "}`))
	require.NoError(t, err)
	assert.Equal(t, "p1", lc.ProjectID)
	assert.Equal(t, ProviderFirestore, lc.Provider)
	assert.Equal(t, "events", lc.Collection)

	_, err = ParseLiveConfig(nil)
	assert.ErrorIs(t, err, ErrNoLiveConfig)

	_, err = ParseLiveConfig([]byte(`{"apiKey":"x"}`))
	assert.ErrorIs(t, err, ErrMissingProjectID)
}
