package seatsync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/eventhub-seatsync/internal/metrics"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
)

// View is what observers see after each reducer pass.
type View struct {
	EventID  string
	Mode     ConnectionMode
	Origin   Origin
	Snapshot Snapshot
	Document *Document
}

type Option func(*Watcher)

// WithDialer registers the live dialer for a provider name.
func WithDialer(provider string, d LiveDialer) Option {
	return func(w *Watcher) {
		if d != nil {
			w.dialers[provider] = d
		}
	}
}

// WithObserver is called on the loop goroutine after every reducer pass. It
// receives a copy of the document and must not block for long.
func WithObserver(fn func(View)) Option {
	return func(w *Watcher) {
		w.observer = fn
	}
}

func WithDocument(doc *Document) Option {
	return func(w *Watcher) {
		w.doc = doc
	}
}

// Watcher is one watch session: it arbitrates between the live and poll
// sources and applies their snapshots to a page document.
type Watcher struct {
	id       string
	cfg      Config
	fetcher  StatusFetcher
	dialers  map[string]LiveDialer
	observer func(View)
	l        logger.Logger

	updates  chan Update
	liveErrs chan error

	// owned by the loop goroutine
	doc          *Document
	poller       *Poller
	feed         DocumentFeed
	liveDone     chan struct{}
	confirmTimer *time.Timer

	mu       sync.RWMutex
	mode     ConnectionMode
	snapshot Snapshot
	running  bool
	closed   bool
	cancel   context.CancelFunc
	stopped  chan struct{}
}

func NewWatcher(cfg Config, fetcher StatusFetcher, l logger.Logger, opts ...Option) *Watcher {
	cfg.setDefaults()

	w := &Watcher{
		id:       uuid.NewString(),
		cfg:      cfg,
		fetcher:  fetcher,
		dialers:  make(map[string]LiveDialer),
		l:        l,
		updates:  make(chan Update),
		liveErrs: make(chan error),
		mode:     ModeUnconfirmed,
		snapshot: Normalize(nil, cfg.Page.Defaults()),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.doc == nil {
		w.doc = NewWidgetDocument(cfg.Page)
	}
	w.poller = NewPoller(fetcher, cfg.Page.EventID, cfg.PollInterval, cfg.PollTimeout, cfg.Page.Defaults(), w.updates, l)

	return w
}

func (w *Watcher) ID() string {
	return w.id
}

func (w *Watcher) Mode() ConnectionMode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mode
}

// Snapshot returns the last snapshot applied, or the page defaults.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}

// Run boots the session and blocks until ctx is cancelled or Close is called,
// then tears everything down. It only fails for a page without an event id.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.Page.EventID == "" {
		return ErrMissingEventID
	}

	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	if w.running || w.closed {
		w.mu.Unlock()
		cancel()
		return nil
	}
	w.running = true
	w.cancel = cancel
	w.stopped = make(chan struct{})
	w.mu.Unlock()

	defer close(w.stopped)
	defer w.teardown(ctx, cancel)

	ctx = w.l.With(ctx, "event_id", w.cfg.Page.EventID, "watch_id", w.id)

	metrics.ActiveWatchers.Inc()
	defer metrics.ActiveWatchers.Dec()

	confirmC := w.boot(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-confirmC:
			confirmC = nil
			w.onConfirmTimeout(ctx)
		case upd := <-w.updates:
			w.apply(ctx, upd)
		case err := <-w.liveErrs:
			w.onLiveError(ctx, err)
		}
	}
}

// Close tears the session down and waits for Run to return. A watcher closed
// before Run never starts.
func (w *Watcher) Close() {
	w.mu.Lock()
	w.closed = true
	cancel, stopped := w.cancel, w.stopped
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

// boot picks the initial source. It returns the confirmation timer channel,
// or nil when the session went straight to polling.
func (w *Watcher) boot(ctx context.Context) <-chan time.Time {
	lc, err := ParseLiveConfig(w.cfg.LiveConfig)
	if err != nil {
		w.l.Debugf(ctx, "seatsync.Watcher.boot: polling only: %v", err)
		w.startPolling(ctx)
		return nil
	}

	dialer, ok := w.dialers[lc.Provider]
	if !ok {
		w.l.Debugf(ctx, "seatsync.Watcher.boot: no live client for provider %q, polling only", lc.Provider)
		w.startPolling(ctx)
		return nil
	}

	feed, err := dialer.Dial(ctx, lc, w.cfg.Page.EventID)
	if err != nil {
		w.l.Warnf(ctx, "seatsync.Watcher.boot: dial %s: %v", lc.Provider, err)
		w.startPolling(ctx)
		return nil
	}

	w.feed = feed
	w.liveDone = make(chan struct{})
	go func(done chan<- struct{}) {
		defer close(done)
		pumpLive(ctx, feed, w.cfg.Page.Defaults(), w.updates, w.liveErrs)
	}(w.liveDone)

	w.confirmTimer = time.NewTimer(w.cfg.ConfirmTimeout)
	return w.confirmTimer.C
}

func (w *Watcher) apply(ctx context.Context, upd Update) {
	if upd.Origin == OriginLive && w.Mode() != ModeLive {
		w.confirmLive(ctx)
	}

	UpdateSeatUI(w.doc, upd.Snapshot, w.cfg.Page.AllowWaitlist)

	w.mu.Lock()
	w.snapshot = upd.Snapshot
	mode := w.mode
	w.mu.Unlock()

	if w.observer != nil {
		w.observer(View{
			EventID:  w.cfg.Page.EventID,
			Mode:     mode,
			Origin:   upd.Origin,
			Snapshot: upd.Snapshot,
			Document: w.doc.Clone(),
		})
	}
}

func (w *Watcher) confirmLive(ctx context.Context) {
	w.stopConfirmTimer()
	w.poller.Stop()
	w.setMode(ctx, ModeLive)
}

func (w *Watcher) onConfirmTimeout(ctx context.Context) {
	w.confirmTimer = nil
	if w.Mode() == ModeLive {
		return
	}
	w.l.Infof(ctx, "Live feed did not confirm within %s, switching to polling", w.cfg.ConfirmTimeout)
	w.startPolling(ctx)
}

func (w *Watcher) onLiveError(ctx context.Context, err error) {
	if w.Mode() == ModeLive {
		metrics.LiveErrors.WithLabelValues("post_confirm").Inc()
		w.l.Warnf(ctx, "seatsync.Watcher.onLiveError: %v", err)
		return
	}

	metrics.LiveErrors.WithLabelValues("pre_confirm").Inc()
	w.l.Infof(ctx, "Live feed failed before confirming, switching to polling: %v", err)
	w.stopConfirmTimer()
	w.startPolling(ctx)
}

func (w *Watcher) startPolling(ctx context.Context) {
	if w.Mode() != ModePolling {
		w.setMode(ctx, ModePolling)
	}
	w.poller.Start(ctx)
}

func (w *Watcher) setMode(ctx context.Context, m ConnectionMode) {
	w.mu.Lock()
	prev := w.mode
	w.mode = m
	w.mu.Unlock()

	if prev != m {
		metrics.ModeTransitions.WithLabelValues(string(m)).Inc()
		w.l.Debugf(ctx, "Watch mode %s -> %s", prev, m)
	}
}

func (w *Watcher) stopConfirmTimer() {
	if w.confirmTimer != nil {
		w.confirmTimer.Stop()
		w.confirmTimer = nil
	}
}

func (w *Watcher) teardown(ctx context.Context, cancel context.CancelFunc) {
	cancel()
	w.stopConfirmTimer()
	w.poller.Stop()

	// Feeds return from Next once ctx is done, and Stop must not race Next.
	if w.feed != nil {
		<-w.liveDone
		w.feed.Stop()
		w.feed = nil
	}

	w.mu.Lock()
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	w.l.Debugf(ctx, "Watch session %s closed", w.id)
}
