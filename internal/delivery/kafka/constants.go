package kafka

const (
	TopicEventStatusChanged = "event.status_changed"
	TopicEventSeatsChanged  = "event.seats_changed"

	TopicRegistrationConfirmed = "registration.confirmed"
	TopicRegistrationCancelled = "registration.cancelled"
)
