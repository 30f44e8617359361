package seatsync

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
)

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
		ok   bool
	}{
		{"int", 7, 7, true},
		{"int64", int64(42), 42, true},
		{"float truncates", 12.9, 12, true},
		{"negative float truncates toward zero", -0.5, 0, true},
		{"json number", json.Number("30"), 30, true},
		{"json float number", json.Number("30.7"), 30, true},
		{"numeric string", " 15 ", 15, true},
		{"float string", "3.99", 3, true},
		{"garbage string", "lots", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"min int64", int64(math.MinInt64), math.MinInt32, true},
		{"large int64", int64(-9223372036854775800), math.MinInt32, true},
		{"min int64 json number", json.Number("-9223372036854775808"), math.MinInt32, true},
		{"huge negative string", "-9223372036854775807", math.MinInt32, true},
		{"exponent string saturates", "-1e12", math.MinInt32, true},
		{"huge positive float", 1e15, math.MaxInt32, true},
		{"nan", math.NaN(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceInt(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_ExtremeNegativeCountsAreFull(t *testing.T) {
	d := Defaults{AvailableSeats: 50, MaxParticipants: 50}

	for _, raw := range []any{
		json.Number("-9223372036854775808"),
		"-9223372036854775807",
		int64(-9223372036854775800),
		"-1e12",
	} {
		snap := Normalize(map[string]any{"available_seats": raw, "max_participants": 50}, d)
		pct := FillPercent(snap.AvailableSeats, snap.MaxParticipants)

		assert.Equal(t, 100, pct, "available_seats=%v", raw)
		assert.Equal(t, TierCritical, TierFor(pct), "available_seats=%v", raw)
		assert.Equal(t, "Event Full", SeatText(snap.AvailableSeats), "available_seats=%v", raw)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	d := Defaults{AvailableSeats: 20, MaxParticipants: 50}

	snap := Normalize(map[string]any{
		"available_seats":  "many",
		"max_participants": nil,
		"status":           "  POSTPONED ",
	}, d)

	assert.Equal(t, 20, snap.AvailableSeats)
	assert.Equal(t, 50, snap.MaxParticipants)
	assert.Equal(t, models.EventStatusPostponed, snap.Status)
}

func TestNormalize_UnknownStatusIsActive(t *testing.T) {
	snap := Normalize(map[string]any{"status": "archived"}, Defaults{MaxParticipants: 10})
	assert.Equal(t, models.EventStatusActive, snap.Status)

	snap = Normalize(nil, Defaults{MaxParticipants: 10})
	assert.Equal(t, models.EventStatusActive, snap.Status)
}

func TestNormalize_MaxAtLeastOne(t *testing.T) {
	snap := Normalize(map[string]any{"max_participants": 0}, Defaults{MaxParticipants: 0})
	assert.Equal(t, 1, snap.MaxParticipants)

	snap = Normalize(map[string]any{"max_participants": -3}, Defaults{MaxParticipants: 25})
	assert.Equal(t, 25, snap.MaxParticipants)
}

func TestNormalize_PostponedToTimestamp(t *testing.T) {
	when := time.Date(2025, 5, 1, 18, 30, 0, 0, time.UTC)
	snap := Normalize(map[string]any{
		"status":        "postponed",
		"postponed_to":  when,
		"status_reason": " venue change ",
	}, Defaults{MaxParticipants: 10})

	assert.Equal(t, "2025-05-01", snap.PostponedTo)
	assert.Equal(t, "venue change", snap.StatusReason)
}
