package seatsync

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/vogiaan1904/eventhub-seatsync/internal/models"
)

type FillTier string

const (
	TierNormal   FillTier = "normal"
	TierWarning  FillTier = "warning"
	TierCritical FillTier = "critical"
)

// FillPercent is the share of seats taken, rounded and clamped to [0,100].
func FillPercent(available, max int) int {
	if max < 1 {
		max = 1
	}
	pct := math.Round(100 * (float64(max) - float64(available)) / float64(max))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(pct)
}

func TierFor(pct int) FillTier {
	switch {
	case pct >= 90:
		return TierCritical
	case pct >= 60:
		return TierWarning
	default:
		return TierNormal
	}
}

func SeatText(available int) string {
	switch {
	case available <= 0:
		return "Event Full"
	case available == 1:
		return "1 seat left"
	default:
		return fmt.Sprintf("%d seats left", available)
	}
}

// UpdateSeatUI applies a snapshot to the widget. It is the only writer of
// capacity state and is idempotent for a given snapshot.
func UpdateSeatUI(doc *Document, snap Snapshot, allowWaitlist bool) {
	pct := FillPercent(snap.AvailableSeats, snap.MaxParticipants)

	if fill := doc.ElementByID(ElementCapacityFill); fill != nil {
		fill.HasWidth = true
		fill.Width = pct
		fill.Class = "capacity-fill capacity-fill--" + string(TierFor(pct))
	}

	if text := doc.ElementByID(ElementSeatText); text != nil {
		text.Text = SeatText(snap.AvailableSeats)
	}

	// Buttons are left as they are for cancelled or postponed events.
	if snap.Status == models.EventStatusActive {
		hasSeats := snap.AvailableSeats > 0
		setHidden(doc, ElementRegisterButton, !hasSeats)
		setHidden(doc, ElementWaitlistButton, hasSeats || !allowWaitlist)
		setHidden(doc, ElementFullIndicator, hasSeats || allowWaitlist)
	}

	updateBanner(doc, snap)
}

func setHidden(doc *Document, id string, hidden bool) {
	if el := doc.ElementByID(id); el != nil {
		el.Hidden = hidden
	}
}

func updateBanner(doc *Document, snap Snapshot) {
	banner := doc.ElementByID(ElementStatusBanner)

	if snap.Status != models.EventStatusCancelled && snap.Status != models.EventStatusPostponed {
		if banner != nil {
			banner.Hidden = true
		}
		return
	}

	if banner == nil {
		banner = &Element{ID: ElementStatusBanner, Role: "alert"}
		doc.Prepend(banner)
	}
	banner.Hidden = false
	banner.Class = "status-banner status-banner--" + string(snap.Status)
	banner.HTML = bannerMarkup(snap)
}

func bannerMarkup(snap Snapshot) template.HTML {
	var b strings.Builder

	switch snap.Status {
	case models.EventStatusCancelled:
		b.WriteString("<strong>This event has been cancelled.</strong>")
	case models.EventStatusPostponed:
		b.WriteString("<strong>This event has been postponed")
		if snap.PostponedTo != "" {
			b.WriteString(" to ")
			b.WriteString(template.HTMLEscapeString(snap.PostponedTo))
		}
		b.WriteString(".</strong>")
	}

	if snap.StatusReason != "" {
		b.WriteString(" Reason: ")
		b.WriteString(template.HTMLEscapeString(snap.StatusReason))
	}

	return template.HTML(b.String())
}
