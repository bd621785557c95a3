package rules

import (
	"strings"
	"time"

	"github.com/phillip/cleanup-sponsorship-go/models"
)

// Classify derives an event's lifecycle status. An explicit completed or
// cancelled always wins; otherwise the event date decides, compared by
// calendar day in now's location. Without a date the stored ongoing/upcoming
// hint is kept, anything else reads as upcoming.
func Classify(status string, eventAt any, now time.Time) models.EventStatus {
	stored := models.EventStatus(strings.ToLower(strings.TrimSpace(status)))
	if stored == models.EventCompleted || stored == models.EventCancelled {
		return stored
	}

	if at, ok := ToDate(eventAt); ok {
		if startOfDay(at, now.Location()).Before(startOfDay(now, now.Location())) {
			return models.EventCompleted
		}
		return models.EventUpcoming
	}

	if stored == models.EventOngoing {
		return models.EventOngoing
	}
	return models.EventUpcoming
}

// ClassifyEvent is Classify over a stored event. A nil event is upcoming.
func ClassifyEvent(ev *models.Event, now time.Time) models.EventStatus {
	if ev == nil {
		return models.EventUpcoming
	}
	return Classify(ev.Status, ev.EventAt, now)
}

// Terminal reports whether no further participation is possible.
func Terminal(s models.EventStatus) bool {
	return s == models.EventCompleted || s == models.EventCancelled
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
