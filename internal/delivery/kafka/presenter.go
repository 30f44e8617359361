package kafka

import "time"

// Events published BY the seat sync service

// EventStatusChangedEvent feeds the notification service, which mails
// registered participants. It is not sent when an event is re-activated.
type EventStatusChangedEvent struct {
	EventID        int64     `json:"event_id"`
	Title          string    `json:"title"`
	PreviousStatus string    `json:"previous_status"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
	PostponedTo    *string   `json:"postponed_to,omitempty"`
	ChangedBy      string    `json:"changed_by,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type EventSeatsChangedEvent struct {
	EventID         int64     `json:"event_id"`
	Delta           int       `json:"delta"`
	AvailableSeats  int       `json:"available_seats"`
	MaxParticipants int       `json:"max_participants"`
	IsSoldOut       bool      `json:"is_sold_out"`
	Timestamp       time.Time `json:"timestamp"`
}

// Events consumed BY the seat sync service (from the registration service)

type RegistrationEvent struct {
	RegistrationID string    `json:"registration_id"`
	UserID         string    `json:"user_id"`
	EventID        int64     `json:"event_id"`
	Timestamp      time.Time `json:"timestamp"`
}
