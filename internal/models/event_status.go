package models

import "time"

const DateFormat = "2006-01-02"

type EventStatus struct {
	EventID         int64          `json:"event_id"`
	AvailableSeats  int            `json:"available_seats"`
	MaxParticipants int            `json:"max_participants"`
	IsSoldOut       bool           `json:"is_sold_out"`
	AllowWaitlist   bool           `json:"allow_waitlist"`
	Status          EventLifecycle `json:"status"`
	StatusReason    string         `json:"status_reason"`
	PostponedTo     *string        `json:"postponed_to"`
	UpdatedAt       time.Time      `json:"updated_at"`
	// Deleted marks a live-channel message announcing the document is gone.
	Deleted bool `json:"deleted,omitempty"`
}

// Fields renders the snapshot as a document body for the Firestore mirror.
func (s EventStatus) Fields() map[string]any {
	var postponedTo any
	if s.PostponedTo != nil {
		postponedTo = *s.PostponedTo
	}

	return map[string]any{
		"event_id":         s.EventID,
		"available_seats":  s.AvailableSeats,
		"max_participants": s.MaxParticipants,
		"allow_waitlist":   s.AllowWaitlist,
		"status":           string(s.Status),
		"status_reason":    s.StatusReason,
		"postponed_to":     postponedTo,
		"is_active":        s.Status != EventStatusCancelled,
		"updated_at":       s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
