package service

type UpdateEventStatusInput struct {
	EventID     int64  `json:"-" validate:"required,gt=0"`
	Status      string `json:"status" validate:"required,oneof=active cancelled postponed"`
	Reason      string `json:"reason" validate:"max=500"`
	PostponedTo string `json:"postponed_to" validate:"required_if=Status postponed"`
	ChangedBy   string `json:"-"`
}

type AdjustSeatsInput struct {
	EventID int64
	Delta   int
	// Source names the trigger, e.g. a registration id.
	Source string
}
