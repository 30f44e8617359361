package seatsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vogiaan1904/eventhub-seatsync/internal/metrics"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
)

// StatusPath is the poll endpoint, relative to the deployment origin.
const StatusPath = "/participant/api/event-status/"

// StatusFetcher returns the raw status document for an event.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, eventID string) (map[string]any, error)
}

type FetcherFunc func(ctx context.Context, eventID string) (map[string]any, error)

func (f FetcherFunc) FetchStatus(ctx context.Context, eventID string) (map[string]any, error) {
	return f(ctx, eventID)
}

// StatusError is a non-2xx answer from the poll endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("seatsync: status endpoint returned %d", e.Code)
}

type HTTPFetcher struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func (f *HTTPFetcher) FetchStatus(ctx context.Context, eventID string) (map[string]any, error) {
	endpoint := strings.TrimRight(f.BaseURL, "/") + StatusPath + url.PathEscape(eventID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	cli := f.Client
	if cli == nil {
		cli = http.DefaultClient
	}
	resp, err := cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var fields map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("seatsync: decode status: %w", err)
	}
	return fields, nil
}

// Poller fetches the status immediately on Start and then on every interval
// until stopped. Snapshots go to out.
type Poller struct {
	fetcher  StatusFetcher
	eventID  string
	interval time.Duration
	timeout  time.Duration
	defaults Defaults
	out      chan<- Update
	l        logger.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewPoller(fetcher StatusFetcher, eventID string, interval, timeout time.Duration, d Defaults, out chan<- Update, l logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	return &Poller{
		fetcher:  fetcher,
		eventID:  eventID,
		interval: interval,
		timeout:  timeout,
		defaults: d,
		out:      out,
		l:        l,
	}
}

// Start is a no-op returning false when the loop is already running.
func (p *Poller) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.isRunning = true

	go p.loop(loopCtx, p.done)

	p.l.Debugf(ctx, "Poller started for event %s every %s", p.eventID, p.interval)
	return true
}

// Stop cancels any in-flight fetch and waits for the loop to exit. A later
// Start re-arms the poller.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.isRunning = false
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isRunning
}

func (p *Poller) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	fctx, cancel := context.WithTimeout(ctx, p.timeout)
	fields, err := p.fetcher.FetchStatus(fctx, p.eventID)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.PollRequests.WithLabelValues("error").Inc()
		p.l.Warnf(ctx, "seatsync.Poller.poll: event %s: %v", p.eventID, err)
		return
	}
	metrics.PollRequests.WithLabelValues("ok").Inc()

	upd := Update{Origin: OriginPoll, Snapshot: Normalize(fields, p.defaults)}
	select {
	case p.out <- upd:
	case <-ctx.Done():
	}
}
