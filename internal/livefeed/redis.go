package livefeed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/eventhub-seatsync/internal/seatsync"
	repository "github.com/vogiaan1904/eventhub-seatsync/internal/repository/redis"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/redis"
)

var ErrFeedClosed = errors.New("livefeed: subscription closed")

// RedisDialer serves the live channel from Redis. The config's projectId is the
// key namespace. The cached status, when present, is delivered first.
type RedisDialer struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisDialer(cli *redis.Client, l logger.Logger) *RedisDialer {
	return &RedisDialer{cli: cli, l: l}
}

func (d *RedisDialer) Dial(ctx context.Context, cfg seatsync.LiveConfig, eventID string) (seatsync.DocumentFeed, error) {
	if d == nil || d.cli == nil {
		return nil, seatsync.ErrLiveUnavailable
	}

	ps := d.cli.Subscribe(ctx, repository.StatusChannel(cfg.ProjectID, eventID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("livefeed: subscribe: %w", err)
	}

	feed := &redisFeed{ps: ps, msgs: ps.Channel(), eventID: eventID, l: d.l}

	// Subscribe before reading so a change between the two is not lost.
	raw, err := d.cli.Get(ctx, repository.StatusKey(cfg.ProjectID, eventID))
	switch {
	case err == nil:
		doc, perr := parseDocument(raw)
		if perr != nil {
			d.l.Warnf(ctx, "livefeed.RedisDialer.Dial: ignoring cached status for event %s: %v", eventID, perr)
		} else {
			feed.initial = &doc
		}
	case errors.Is(err, redis.ErrNil):
	default:
		d.l.Warnf(ctx, "livefeed.RedisDialer.Dial: read cached status: %v", err)
	}

	return feed, nil
}

type redisFeed struct {
	ps      *goredis.PubSub
	msgs    <-chan *goredis.Message
	initial *seatsync.FeedDocument
	eventID string
	l       logger.Logger
}

func (f *redisFeed) Next(ctx context.Context) (seatsync.FeedDocument, error) {
	if f.initial != nil {
		doc := *f.initial
		f.initial = nil
		return doc, nil
	}

	for {
		select {
		case <-ctx.Done():
			return seatsync.FeedDocument{}, ctx.Err()
		case msg, ok := <-f.msgs:
			if !ok {
				return seatsync.FeedDocument{}, ErrFeedClosed
			}
			doc, err := parseDocument([]byte(msg.Payload))
			if err != nil {
				f.l.Warnf(ctx, "livefeed.redisFeed.Next: event %s: %v", f.eventID, err)
				continue
			}
			return doc, nil
		}
	}
}

func (f *redisFeed) Stop() {
	_ = f.ps.Close()
}

func parseDocument(raw []byte) (seatsync.FeedDocument, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return seatsync.FeedDocument{}, fmt.Errorf("livefeed: decode document: %w", err)
	}

	if deleted, _ := fields["deleted"].(bool); deleted {
		return seatsync.FeedDocument{Exists: false}, nil
	}
	return seatsync.FeedDocument{Exists: true, Fields: fields}, nil
}
