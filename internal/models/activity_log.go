package models

import "time"

const ActivityEventStatusChange = "event_status_change"

type ActivityLog struct {
	ID           string         `json:"id"`
	ActivityType string         `json:"activity_type"`
	UserID       string         `json:"user_id,omitempty"`
	Details      string         `json:"details"`
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}
