package seatsync

import (
	"context"
	"errors"
)

// ErrLiveUnavailable is returned by a dialer whose client was never set up.
var ErrLiveUnavailable = errors.New("seatsync: live client unavailable")

// FeedDocument is one observation of the remote status document.
type FeedDocument struct {
	Exists bool
	Fields map[string]any
}

// DocumentFeed yields successive states of one document. Next blocks until a
// change arrives and returns once ctx is done. Stop releases the subscription;
// it is only called after the last Next has returned.
type DocumentFeed interface {
	Next(ctx context.Context) (FeedDocument, error)
	Stop()
}

// LiveDialer opens a feed on the document for eventID.
type LiveDialer interface {
	Dial(ctx context.Context, cfg LiveConfig, eventID string) (DocumentFeed, error)
}

type DialerFunc func(ctx context.Context, cfg LiveConfig, eventID string) (DocumentFeed, error)

func (f DialerFunc) Dial(ctx context.Context, cfg LiveConfig, eventID string) (DocumentFeed, error) {
	return f(ctx, cfg, eventID)
}

// pumpLive forwards existing documents as live updates until the feed fails
// or ctx ends. Missing documents are skipped. Only the first error is reported.
func pumpLive(ctx context.Context, feed DocumentFeed, d Defaults, out chan<- Update, errs chan<- error) {
	for {
		doc, err := feed.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case errs <- err:
			case <-ctx.Done():
			}
			return
		}
		if !doc.Exists {
			continue
		}

		select {
		case out <- Update{Origin: OriginLive, Snapshot: Normalize(doc.Fields, d)}:
		case <-ctx.Done():
			return
		}
	}
}
