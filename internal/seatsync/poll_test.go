package seatsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
)

type fakeFetcher struct {
	mu     sync.Mutex
	calls  int
	fields map[string]any
	err    error
}

func (f *fakeFetcher) FetchStatus(ctx context.Context, eventID string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.fields, f.err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) set(fields map[string]any, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields, f.err = fields, err
}

func TestHTTPFetcher_FetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/participant/api/event-status/42", r.URL.Path)
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"available_seats": 3, "max_participants": 50, "status": "active"}`))
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL + "/", Token: "tok", Client: srv.Client()}
	fields, err := f.FetchStatus(context.Background(), "42")
	require.NoError(t, err)

	snap := Normalize(fields, Defaults{MaxParticipants: 1})
	assert.Equal(t, 3, snap.AvailableSeats)
	assert.Equal(t, 50, snap.MaxParticipants)
}

func TestHTTPFetcher_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL, Client: srv.Client()}
	_, err := f.FetchStatus(context.Background(), "42")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
}

func TestPoller_FiresImmediately(t *testing.T) {
	f := &fakeFetcher{fields: map[string]any{"available_seats": 4}}
	out := make(chan Update)
	p := NewPoller(f, "1", time.Hour, time.Second, Defaults{MaxParticipants: 10}, out, logger.NewNop())

	require.True(t, p.Start(context.Background()))
	defer p.Stop()

	select {
	case upd := <-out:
		assert.Equal(t, OriginPoll, upd.Origin)
		assert.Equal(t, 4, upd.Snapshot.AvailableSeats)
	case <-time.After(time.Second):
		t.Fatal("first poll did not fire on start")
	}
}

func TestPoller_FiresOnInterval(t *testing.T) {
	f := &fakeFetcher{fields: map[string]any{"available_seats": 4}}
	out := make(chan Update)
	p := NewPoller(f, "1", 20*time.Millisecond, time.Second, Defaults{MaxParticipants: 10}, out, logger.NewNop())

	p.Start(context.Background())
	defer p.Stop()

	for i := 0; i < 3; i++ {
		select {
		case <-out:
		case <-time.After(time.Second):
			t.Fatalf("poll %d never fired", i+1)
		}
	}
	assert.GreaterOrEqual(t, f.Calls(), 3)
}

func TestPoller_StartIsIdempotent(t *testing.T) {
	f := &fakeFetcher{err: errors.New("down")}
	p := NewPoller(f, "1", time.Hour, time.Second, Defaults{MaxParticipants: 10}, make(chan Update), logger.NewNop())

	require.True(t, p.Start(context.Background()))
	assert.False(t, p.Start(context.Background()))

	p.Stop()
	assert.False(t, p.IsRunning())
	p.Stop()

	require.True(t, p.Start(context.Background()))
	p.Stop()
}

func TestPoller_FailureKeepsPolling(t *testing.T) {
	f := &fakeFetcher{err: errors.New("down")}
	out := make(chan Update)
	p := NewPoller(f, "1", 10*time.Millisecond, time.Second, Defaults{MaxParticipants: 10}, out, logger.NewNop())
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return f.Calls() >= 2 }, time.Second, 5*time.Millisecond)

	f.set(map[string]any{"available_seats": 9}, nil)
	select {
	case upd := <-out:
		assert.Equal(t, 9, upd.Snapshot.AvailableSeats)
	case <-time.After(time.Second):
		t.Fatal("poller did not recover")
	}
}
