package controllers

import (
	"strconv"
	"time"

	models "github.com/phillip/cleanup-sponsorship-go/models"
	"github.com/phillip/cleanup-sponsorship-go/rules"
)

// eventView is an event plus everything the app derives from it, so no
// screen recomputes status or eligibility on its own.
type eventView struct {
	models.Event
	EventAt                 *time.Time            `json:"eventAt"`
	DerivedStatus           models.EventStatus    `json:"derivedStatus"`
	CanSponsor              bool                  `json:"canSponsor"`
	Progress                rules.FundingProgress `json:"progress"`
	Currency                string                `json:"currency"`
	CurrentFundingFormatted string                `json:"currentFundingFormatted"`
	FundingGoalFormatted    string                `json:"fundingGoalFormatted,omitempty"`
}

// etagVariant is what the view derives beyond the stored event: the display
// currency and the clock-dependent status and eligibility.
func (v eventView) etagVariant() []string {
	return []string{
		v.Currency,
		string(v.DerivedStatus),
		strconv.FormatBool(v.CanSponsor),
	}
}

// listETagVariant covers the request's filters and every member, so removals
// and filter changes produce a new tag.
func listETagVariant(filters []string, views []eventView) []string {
	out := append([]string{strconv.Itoa(len(views))}, filters...)
	for _, v := range views {
		out = append(out, v.ID.Hex(), strconv.FormatInt(v.UpdatedAt.UnixNano(), 10))
		out = append(out, v.etagVariant()...)
	}
	return out
}

func newEventView(ev models.Event, now time.Time, currency string) eventView {
	v := eventView{
		Event:                   ev,
		DerivedStatus:           rules.ClassifyEvent(&ev, now),
		CanSponsor:              rules.CanSponsor(&ev, now),
		Progress:                rules.Progress(ev.CurrentFunding, ev.FundingGoal),
		Currency:                currency,
		CurrentFundingFormatted: rules.Currencies.Format(ev.CurrentFunding, currency),
	}
	if at, ok := rules.ToDate(ev.EventAt); ok {
		v.EventAt = &at
	}
	if v.Progress.HasValidGoal {
		v.FundingGoalFormatted = rules.Currencies.Format(ev.FundingGoal, currency)
	}
	return v
}
