package models

import (
	"strings"
	"time"
)

type EventLifecycle string

const (
	EventStatusActive    EventLifecycle = "active"
	EventStatusCancelled EventLifecycle = "cancelled"
	EventStatusPostponed EventLifecycle = "postponed"
)

func (s EventLifecycle) IsValid() bool {
	switch s {
	case EventStatusActive, EventStatusCancelled, EventStatusPostponed:
		return true
	}
	return false
}

// ParseEventLifecycle maps free-form input to a lifecycle value; anything
// unrecognized is active.
func ParseEventLifecycle(s string) EventLifecycle {
	v := EventLifecycle(strings.ToLower(strings.TrimSpace(s)))
	if !v.IsValid() {
		return EventStatusActive
	}
	return v
}

type Event struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	EventDate       time.Time      `json:"event_date"`
	MaxParticipants int            `json:"max_participants"`
	AvailableSeats  int            `json:"available_seats"`
	AllowWaitlist   bool           `json:"allow_waitlist"`
	IsActive        bool           `json:"is_active"`
	Status          EventLifecycle `json:"status"`
	StatusReason    string         `json:"status_reason,omitempty"`
	PostponedTo     *time.Time     `json:"postponed_to,omitempty"`
	CancelledAt     *time.Time     `json:"cancelled_at,omitempty"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (e *Event) IsSoldOut() bool {
	return e.AvailableSeats <= 0
}

// StatusSnapshot is the record served by the poll endpoint and pushed on the live
// channels. Field names are shared by every transport.
func (e *Event) StatusSnapshot() EventStatus {
	snap := EventStatus{
		EventID:         e.ID,
		AvailableSeats:  e.AvailableSeats,
		MaxParticipants: e.MaxParticipants,
		IsSoldOut:       e.IsSoldOut(),
		AllowWaitlist:   e.AllowWaitlist,
		Status:          e.Status,
		StatusReason:    e.StatusReason,
		UpdatedAt:       e.UpdatedAt,
	}
	if snap.Status == "" {
		snap.Status = EventStatusActive
	}
	if e.PostponedTo != nil {
		d := e.PostponedTo.Format(DateFormat)
		snap.PostponedTo = &d
	}
	return snap
}
