package seatsync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultConfirmTimeout = 5 * time.Second
	DefaultPollInterval   = 15 * time.Second
	DefaultPollTimeout    = 10 * time.Second

	ProviderFirestore = "firestore"
	ProviderRedis     = "redis"
)

var (
	ErrNoLiveConfig     = errors.New("seatsync: no live config")
	ErrMissingProjectID = errors.New("seatsync: live config has no projectId")
	ErrMissingEventID   = errors.New("seatsync: page has no event id")
)

// LiveConfig is the page-embedded live configuration blob. Only provider and
// projectId drive behavior; the rest is passed through to dialers.
type LiveConfig struct {
	Provider   string `json:"provider,omitempty"`
	ProjectID  string `json:"projectId"`
	APIKey     string `json:"apiKey,omitempty"`
	AuthDomain string `json:"authDomain,omitempty"`
	Collection string `json:"collection,omitempty"`
}

// ParseLiveConfig decodes the blob. Provider defaults to firestore and the
// collection to "events".
func ParseLiveConfig(raw []byte) (LiveConfig, error) {
	var lc LiveConfig
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return lc, ErrNoLiveConfig
	}
	if err := json.Unmarshal(raw, &lc); err != nil {
		return lc, fmt.Errorf("seatsync: malformed live config: %w", err)
	}

	lc.ProjectID = strings.TrimSpace(lc.ProjectID)
	if lc.ProjectID == "" {
		return lc, ErrMissingProjectID
	}
	lc.Provider = strings.ToLower(strings.TrimSpace(lc.Provider))
	if lc.Provider == "" {
		lc.Provider = ProviderFirestore
	}
	if lc.Collection == "" {
		lc.Collection = "events"
	}
	return lc, nil
}

type PageConfig struct {
	EventID         string
	MaxParticipants int
	// AvailableSeats is the initial count, and the fallback for non-numeric
	// counts from a source.
	AvailableSeats int
	AllowWaitlist  bool
}

func (pc PageConfig) Defaults() Defaults {
	return Defaults{AvailableSeats: pc.AvailableSeats, MaxParticipants: pc.MaxParticipants}
}

// ParseWidgetAttributes reads the widget's data attributes. allowWaitlist is
// enabled only by the literal string "true".
func ParseWidgetAttributes(attrs map[string]string) (PageConfig, error) {
	pc := PageConfig{EventID: strings.TrimSpace(attrs["eventId"])}
	if pc.EventID == "" {
		return pc, ErrMissingEventID
	}

	pc.MaxParticipants = 1
	if v, err := strconv.Atoi(strings.TrimSpace(attrs["maxParticipants"])); err == nil && v >= 1 {
		pc.MaxParticipants = v
	}
	pc.AvailableSeats = pc.MaxParticipants
	if v, err := strconv.Atoi(strings.TrimSpace(attrs["availableSeats"])); err == nil {
		pc.AvailableSeats = v
	}
	pc.AllowWaitlist = attrs["allowWaitlist"] == "true"

	return pc, nil
}

type Config struct {
	Page PageConfig
	// LiveConfig is the raw live configuration blob; empty means polling only.
	LiveConfig     []byte
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	PollTimeout    time.Duration
}

func (c *Config) setDefaults() {
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = DefaultConfirmTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	if c.Page.MaxParticipants < 1 {
		c.Page.MaxParticipants = 1
	}
}
