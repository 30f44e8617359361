package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/vogiaan1904/eventhub-seatsync/config"
	infraFirestore "github.com/vogiaan1904/eventhub-seatsync/internal/infra/firestore"
	"github.com/vogiaan1904/eventhub-seatsync/internal/livefeed"
	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
	"github.com/vogiaan1904/eventhub-seatsync/internal/seatsync"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/redis"
)

type watchOptions struct {
	server         string
	token          string
	eventID        string
	maxSeats       int
	available      int
	allowWaitlist  bool
	liveConfig     string
	redisAddr      string
	credentials    string
	confirmTimeout time.Duration
	pollInterval   time.Duration
	output         string
}

var watchOpts watchOptions

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow seat availability for one event",
	Long: `Start a watch session for an event. Without --live-config the session polls
the status endpoint; with it, the session subscribes to the live channel and
falls back to polling when the channel does not confirm in time.`,
	Example: `  seatwatch watch --server https://events.example.edu --event 42 --token $TOKEN
  seatwatch watch --server http://localhost:8080 --event 42 \
    --live-config '{"provider":"redis","projectId":"eventhub"}' --redis-addr localhost:6379`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd.Context(), watchOpts, cmd.OutOrStdout())
	},
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchOpts.server, "server", "http://localhost:8080", "deployment origin serving the status endpoint")
	f.StringVar(&watchOpts.token, "token", os.Getenv("SEATWATCH_TOKEN"), "bearer token for the status endpoint")
	f.StringVar(&watchOpts.eventID, "event", "", "event id")
	f.IntVar(&watchOpts.maxSeats, "max", 1, "page default for max participants")
	f.IntVar(&watchOpts.available, "available", -1, "page default for available seats (defaults to --max)")
	f.BoolVar(&watchOpts.allowWaitlist, "allow-waitlist", false, "show the waitlist control when full")
	f.StringVar(&watchOpts.liveConfig, "live-config", "", "live configuration JSON; empty polls only")
	f.StringVar(&watchOpts.redisAddr, "redis-addr", "", "redis address for the redis live provider")
	f.StringVar(&watchOpts.credentials, "firestore-credentials", "", "service account file for the firestore live provider")
	f.DurationVar(&watchOpts.confirmTimeout, "confirm-timeout", seatsync.DefaultConfirmTimeout, "how long the live channel has to confirm")
	f.DurationVar(&watchOpts.pollInterval, "poll-interval", seatsync.DefaultPollInterval, "poll period")
	f.StringVarP(&watchOpts.output, "output", "o", "text", "output format: text, json or html")
	_ = watchCmd.MarkFlagRequired("event")
}

func runWatch(ctx context.Context, o watchOptions, out io.Writer) error {
	l := newLogger()
	defer l.Sync()

	attrs := map[string]string{
		"eventId":         o.eventID,
		"maxParticipants": strconv.Itoa(o.maxSeats),
		"allowWaitlist":   strconv.FormatBool(o.allowWaitlist),
	}
	if o.available >= 0 {
		attrs["availableSeats"] = strconv.Itoa(o.available)
	}
	page, err := seatsync.ParseWidgetAttributes(attrs)
	if err != nil {
		return err
	}

	opts := []seatsync.Option{
		seatsync.WithObserver(func(v seatsync.View) {
			if err := printView(out, o.output, v); err != nil {
				l.Errorf(ctx, "seatwatch: %v", err)
			}
		}),
	}

	// Dialers are only registered when the corresponding client can be built,
	// so a missing client sends the session straight to polling.
	if lc, err := seatsync.ParseLiveConfig([]byte(o.liveConfig)); err == nil {
		switch lc.Provider {
		case seatsync.ProviderRedis:
			if o.redisAddr != "" {
				cli := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: o.redisAddr}))
				defer cli.Close()
				opts = append(opts, seatsync.WithDialer(seatsync.ProviderRedis, livefeed.NewRedisDialer(cli, l)))
			}
		case seatsync.ProviderFirestore:
			fsCli, err := infraFirestore.Connect(ctx, config.FirestoreConfig{ProjectID: lc.ProjectID, CredentialsFile: o.credentials})
			if err != nil {
				l.Warnf(ctx, "seatwatch: firestore: %v", err)
			} else if fsCli != nil {
				defer infraFirestore.Disconnect(fsCli)
				opts = append(opts, seatsync.WithDialer(seatsync.ProviderFirestore, livefeed.NewFirestoreDialer(fsCli)))
			}
		}
	}

	fetcher := &seatsync.HTTPFetcher{
		BaseURL: o.server,
		Token:   o.token,
		Client:  &http.Client{Timeout: seatsync.DefaultPollTimeout},
	}

	w := seatsync.NewWatcher(seatsync.Config{
		Page:           page,
		LiveConfig:     []byte(o.liveConfig),
		ConfirmTimeout: o.confirmTimeout,
		PollInterval:   o.pollInterval,
	}, fetcher, l, opts...)

	return w.Run(ctx)
}

func printView(out io.Writer, format string, v seatsync.View) error {
	switch format {
	case "json":
		return json.NewEncoder(out).Encode(struct {
			EventID  string                  `json:"event_id"`
			Mode     seatsync.ConnectionMode `json:"mode"`
			Origin   seatsync.Origin         `json:"origin"`
			Snapshot seatsync.Snapshot       `json:"snapshot"`
		}{v.EventID, v.Mode, v.Origin, v.Snapshot})
	case "html":
		if err := v.Document.Render(out); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out)
		return err
	default:
		s := v.Snapshot
		line := fmt.Sprintf("%s [%s/%s] %s", time.Now().Format(time.TimeOnly), v.Mode, v.Origin, v.Document.ElementByID(seatsync.ElementSeatText).Text)
		line += fmt.Sprintf(" (%d%% full)", seatsync.FillPercent(s.AvailableSeats, s.MaxParticipants))
		if s.Status != models.EventStatusActive {
			line += " status=" + string(s.Status)
			if s.PostponedTo != "" {
				line += " to=" + s.PostponedTo
			}
			if s.StatusReason != "" {
				line += fmt.Sprintf(" reason=%q", s.StatusReason)
			}
		}
		_, err := fmt.Fprintln(out, line)
		return err
	}
}
