// Package seatsync keeps a seat-availability widget in step with an event's
// capacity. A Watcher arbitrates between a live push feed and an HTTP poll
// loop and funnels both into UpdateSeatUI, the only writer of widget state.
package seatsync

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
)

// Snapshot is the normalized status record every source produces.
type Snapshot struct {
	AvailableSeats  int                   `json:"available_seats"`
	MaxParticipants int                   `json:"max_participants"`
	Status          models.EventLifecycle `json:"status"`
	StatusReason    string                `json:"status_reason,omitempty"`
	PostponedTo     string                `json:"postponed_to,omitempty"`
}

// Defaults are the page-supplied values used when a source sends missing or
// non-numeric counts.
type Defaults struct {
	AvailableSeats  int
	MaxParticipants int
}

// Normalize coerces a raw document into a Snapshot. It never fails: bad counts
// fall back to the defaults and unknown statuses read as active.
func Normalize(fields map[string]any, d Defaults) Snapshot {
	snap := Snapshot{
		AvailableSeats:  d.AvailableSeats,
		MaxParticipants: d.MaxParticipants,
		Status:          models.EventStatusActive,
	}

	if v, ok := coerceInt(fields["available_seats"]); ok {
		snap.AvailableSeats = v
	}
	if v, ok := coerceInt(fields["max_participants"]); ok && v >= 1 {
		snap.MaxParticipants = v
	}
	if snap.MaxParticipants < 1 {
		snap.MaxParticipants = 1
	}

	if s, ok := fields["status"].(string); ok {
		snap.Status = models.ParseEventLifecycle(s)
	}
	snap.StatusReason = coerceString(fields["status_reason"])
	snap.PostponedTo = coerceString(fields["postponed_to"])

	return snap
}

func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return saturate(int64(n)), true
	case int32:
		return int(n), true
	case int64:
		return saturate(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return saturate(i), true
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return saturate(i), true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
	}
	return 0, false
}

// Counts are held within the int32 range; anything beyond saturates.
func saturate(i int64) int {
	switch {
	case i > math.MaxInt32:
		return math.MaxInt32
	case i < math.MinInt32:
		return math.MinInt32
	}
	return int(i)
}

func floatToInt(f float64) (int, bool) {
	switch {
	case math.IsNaN(f):
		return 0, false
	case f > math.MaxInt32:
		return math.MaxInt32, true
	case f < math.MinInt32:
		return math.MinInt32, true
	}
	return int(math.Trunc(f)), true
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case time.Time:
		return s.Format(models.DateFormat)
	case *string:
		if s != nil {
			return strings.TrimSpace(*s)
		}
	}
	return ""
}
