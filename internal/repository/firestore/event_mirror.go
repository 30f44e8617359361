package firestore

import (
	"context"
	"errors"
	"strconv"

	"cloud.google.com/go/firestore"
	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
)

var ErrMirrorUnavailable = errors.New("firestore mirror unavailable")

// EventMirror copies event snapshots into the document store watched by live pages.
type EventMirror interface {
	Sync(ctx context.Context, st models.EventStatus) error
}

type firestoreEventMirror struct {
	cli        *firestore.Client
	collection string
	l          logger.Logger
}

// NewEventMirror accepts a nil client; Sync then reports ErrMirrorUnavailable.
func NewEventMirror(cli *firestore.Client, collection string, l logger.Logger) EventMirror {
	return &firestoreEventMirror{
		cli:        cli,
		collection: collection,
		l:          l,
	}
}

func (m *firestoreEventMirror) Sync(ctx context.Context, st models.EventStatus) error {
	if m.cli == nil {
		return ErrMirrorUnavailable
	}

	doc := m.cli.Collection(m.collection).Doc(strconv.FormatInt(st.EventID, 10))
	if _, err := doc.Set(ctx, st.Fields(), firestore.MergeAll); err != nil {
		m.l.Warnf(ctx, "firestoreEventMirror.Sync: event %d: %v", st.EventID, err)
		return err
	}

	m.l.Debugf(ctx, "Firestore mirror synced for event %d", st.EventID)

	return nil
}
