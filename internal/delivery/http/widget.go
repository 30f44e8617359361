package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
	"github.com/vogiaan1904/eventhub-seatsync/internal/seatsync"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/response"
)

var widgetPage = template.Must(template.New("seat-widget").Parse(`<section class="seat-widget" data-event-id="{{ .EventID }}" data-max-participants="{{ .MaxParticipants }}" data-allow-waitlist="{{ .AllowWaitlist }}" data-status-url="{{ .StatusURL }}" data-stream-url="{{ .StreamURL }}">
{{- with .LiveConfig }}
<script type="application/json" id="live-config">{{ . }}</script>
{{- end }}
{{ .Widget }}
</section>
`))

type widgetData struct {
	EventID         string
	MaxParticipants int
	AllowWaitlist   bool
	StatusURL       string
	StreamURL       string
	LiveConfig      *seatsync.LiveConfig
	Widget          template.HTML
}

// SeatWidget renders the widget server-side with the current status so the
// first paint is already correct.
func (h *Handler) SeatWidget(w http.ResponseWriter, r *http.Request) {
	eID, ok := h.eventID(w, r)
	if !ok {
		return
	}

	st, err := h.svc.GetEventStatus(r.Context(), eID)
	if err != nil {
		response.Error(w, h.mapError(err))
		return
	}

	pc := pageConfig(st)
	doc := seatsync.NewWidgetDocument(pc)
	seatsync.UpdateSeatUI(doc, seatsync.Normalize(st.Fields(), pc.Defaults()), pc.AllowWaitlist)

	var inner bytes.Buffer
	if err := doc.Render(&inner); err != nil {
		h.l.Errorf(r.Context(), "delivery.http.SeatWidget: %v", err)
		response.Error(w, err)
		return
	}

	var page bytes.Buffer
	if err := widgetPage.Execute(&page, widgetData{
		EventID:         pc.EventID,
		MaxParticipants: pc.MaxParticipants,
		AllowWaitlist:   pc.AllowWaitlist,
		StatusURL:       seatsync.StatusPath + pc.EventID,
		StreamURL:       "/participant/events/" + pc.EventID + "/seats/stream",
		LiveConfig:      h.cfg.LiveConfig,
		Widget:          template.HTML(inner.String()),
	}); err != nil {
		h.l.Errorf(r.Context(), "delivery.http.SeatWidget: %v", err)
		response.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(page.Bytes())
}

type seatFrame struct {
	Mode     seatsync.ConnectionMode `json:"mode"`
	Origin   seatsync.Origin         `json:"origin"`
	Snapshot seatsync.Snapshot       `json:"snapshot"`
	HTML     string                  `json:"html"`
}

// StreamSeats runs a watch session for the connection and pushes every
// reducer pass as an SSE "seats" event. Closing the connection tears the
// session down.
func (h *Handler) StreamSeats(w http.ResponseWriter, r *http.Request) {
	eID, ok := h.eventID(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, errStreamUnsupported)
		return
	}

	st, err := h.svc.GetEventStatus(r.Context(), eID)
	if err != nil {
		response.Error(w, h.mapError(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	views := make(chan seatsync.View, 1)
	opts := []seatsync.Option{seatsync.WithObserver(func(v seatsync.View) { offerLatest(views, v) })}
	for provider, d := range h.cfg.Dialers {
		opts = append(opts, seatsync.WithDialer(provider, d))
	}

	watcher := seatsync.NewWatcher(seatsync.Config{
		Page:           pageConfig(st),
		LiveConfig:     h.liveBlob,
		ConfirmTimeout: h.cfg.ConfirmTimeout,
		PollInterval:   h.cfg.PollInterval,
		PollTimeout:    h.cfg.PollTimeout,
	}, h.statusFetcher(), h.l, opts...)

	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "retry: %d\n\n", h.cfg.HeartbeatInterval.Milliseconds())
	flusher.Flush()

	heartbeat := time.NewTicker(h.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	var seq int
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case v := <-views:
			data, err := encodeFrame(v)
			if err != nil {
				h.l.Errorf(ctx, "delivery.http.StreamSeats: %v", err)
				continue
			}
			seq++
			if _, err := fmt.Fprintf(w, "id: %d\nevent: seats\ndata: %s\n\n", seq, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func encodeFrame(v seatsync.View) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.Document.Render(&buf); err != nil {
		return nil, err
	}
	return json.Marshal(seatFrame{
		Mode:     v.Mode,
		Origin:   v.Origin,
		Snapshot: v.Snapshot,
		HTML:     buf.String(),
	})
}

// offerLatest replaces any unsent view so a slow client only sees the newest state.
func offerLatest(ch chan seatsync.View, v seatsync.View) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// statusFetcher reads the service directly instead of looping back over HTTP.
func (h *Handler) statusFetcher() seatsync.StatusFetcher {
	return seatsync.FetcherFunc(func(ctx context.Context, eventID string) (map[string]any, error) {
		eID, err := strconv.ParseInt(eventID, 10, 64)
		if err != nil {
			return nil, err
		}
		st, err := h.svc.GetEventStatus(ctx, eID)
		if err != nil {
			return nil, err
		}
		return st.Fields(), nil
	})
}

func pageConfig(st *models.EventStatus) seatsync.PageConfig {
	capacity := st.MaxParticipants
	if capacity < 1 {
		capacity = 1
	}
	return seatsync.PageConfig{
		EventID:         strconv.FormatInt(st.EventID, 10),
		MaxParticipants: capacity,
		AvailableSeats:  st.AvailableSeats,
		AllowWaitlist:   st.AllowWaitlist,
	}
}
