package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vogiaan1904/eventhub-seatsync/internal/seatsync"
	"github.com/vogiaan1904/eventhub-seatsync/internal/service"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/response"
)

// HealthCheck reports one dependency; a non-nil error marks the service unhealthy.
type HealthCheck func(ctx context.Context) error

type Config struct {
	// LiveConfig is handed to pages and to server-side watch sessions. Nil
	// means pages poll only.
	LiveConfig        *seatsync.LiveConfig
	Dialers           map[string]seatsync.LiveDialer
	ConfirmTimeout    time.Duration
	PollInterval      time.Duration
	PollTimeout       time.Duration
	HeartbeatInterval time.Duration
	HealthChecks      map[string]HealthCheck
}

type Handler struct {
	svc       service.EventStatusService
	l         logger.Logger
	validator *validator.Validate
	cfg       Config
	liveBlob  []byte
}

func NewHandler(svc service.EventStatusService, l logger.Logger, cfg Config) *Handler {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 25 * time.Second
	}

	h := &Handler{
		svc:       svc,
		l:         l,
		validator: validator.New(),
		cfg:       cfg,
	}
	if cfg.LiveConfig != nil {
		h.liveBlob, _ = json.Marshal(cfg.LiveConfig)
	}
	return h
}

// Health runs every registered check with a short deadline.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.cfg.HealthChecks))
	healthy := true
	for name, check := range h.cfg.HealthChecks {
		if err := check(ctx); err != nil {
			h.l.Warnf(ctx, "delivery.http.Health: %s: %v", name, err)
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "up"
	}

	if !healthy {
		response.JSON(w, http.StatusServiceUnavailable, response.Resp{
			ErrorCode: errUnhealthy.Code,
			Message:   errUnhealthy.Message,
			Data:      checks,
		})
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "eventhub-seatsync",
		"checks":  checks,
	})
}

// GetEventStatus is the poll endpoint read by watch sessions.
func (h *Handler) GetEventStatus(w http.ResponseWriter, r *http.Request) {
	eID, ok := h.eventID(w, r)
	if !ok {
		return
	}

	st, err := h.svc.GetEventStatus(r.Context(), eID)
	if err != nil {
		response.Error(w, h.mapError(err))
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	response.JSON(w, http.StatusOK, st)
}

func (h *Handler) UpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	eID, ok := h.eventID(w, r)
	if !ok {
		return
	}

	var in service.UpdateEventStatusInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&in); err != nil {
		response.Error(w, errInvalidBody)
		return
	}
	in.EventID = eID
	if c, ok := ClaimsFromContext(r.Context()); ok {
		in.ChangedBy = c.Subject
	}

	if err := h.validator.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			response.ValidationError(w, codeValidation, fields)
			return
		}
		response.Error(w, errInvalidBody)
		return
	}

	st, err := h.svc.UpdateEventStatus(r.Context(), in)
	if err != nil {
		response.Error(w, h.mapError(err))
		return
	}

	response.JSON(w, http.StatusOK, st)
}

func (h *Handler) eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	eID, err := strconv.ParseInt(chi.URLParam(r, "eventId"), 10, 64)
	if err != nil || eID <= 0 {
		response.Error(w, errInvalidEventID)
		return 0, false
	}
	return eID, true
}
