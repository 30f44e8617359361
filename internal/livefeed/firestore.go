package livefeed

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/vogiaan1904/eventhub-seatsync/internal/seatsync"
)

// FirestoreDialer listens on {collection}/{eventID} through a shared client.
// A nil client makes every Dial fail fast with ErrLiveUnavailable.
type FirestoreDialer struct {
	cli *firestore.Client
}

func NewFirestoreDialer(cli *firestore.Client) *FirestoreDialer {
	return &FirestoreDialer{cli: cli}
}

func (d *FirestoreDialer) Dial(ctx context.Context, cfg seatsync.LiveConfig, eventID string) (seatsync.DocumentFeed, error) {
	if d == nil || d.cli == nil {
		return nil, seatsync.ErrLiveUnavailable
	}

	it := d.cli.Collection(cfg.Collection).Doc(eventID).Snapshots(ctx)
	return &firestoreFeed{it: it}, nil
}

// snapshotIterator is the part of *firestore.DocumentSnapshotIterator the feed uses.
type snapshotIterator interface {
	Next() (*firestore.DocumentSnapshot, error)
	Stop()
}

type firestoreFeed struct {
	it snapshotIterator
}

// Next ignores ctx; the iterator is bound to the context given to Dial.
// Iterator errors are sticky, so every error ends the feed. A missing
// document arrives as a snapshot that does not exist, never as an error.
func (f *firestoreFeed) Next(_ context.Context) (seatsync.FeedDocument, error) {
	snap, err := f.it.Next()
	if err != nil {
		return seatsync.FeedDocument{}, fmt.Errorf("firestore listen: %w", err)
	}
	if snap == nil || !snap.Exists() {
		return seatsync.FeedDocument{Exists: false}, nil
	}
	return seatsync.FeedDocument{Exists: true, Fields: snap.Data()}, nil
}

func (f *firestoreFeed) Stop() {
	f.it.Stop()
}
