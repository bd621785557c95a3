package rules

import (
	"time"

	"github.com/phillip/cleanup-sponsorship-go/models"
)

// CanSponsor reports whether ev accepts new sponsorships at now.
func CanSponsor(ev *models.Event, now time.Time) bool {
	if ev == nil || !ev.SponsorshipRequired {
		return false
	}
	if Terminal(ClassifyEvent(ev, now)) {
		return false
	}
	if at, ok := ToDate(ev.EventAt); ok && at.Before(now) {
		return false
	}
	return true
}
