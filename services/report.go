package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/cleanup-sponsorship-go/models"
	"github.com/phillip/cleanup-sponsorship-go/rules"
	"github.com/phillip/cleanup-sponsorship-go/store"
)

type ReportLine struct {
	SponsorshipID   primitive.ObjectID       `json:"sponsorshipId"`
	EventID         primitive.ObjectID       `json:"eventId"`
	EventTitle      string                   `json:"eventTitle"`
	EventStatus     models.EventStatus       `json:"eventStatus"`
	SponsorshipType models.SponsorshipType   `json:"sponsorshipType"`
	Status          models.SponsorshipStatus `json:"status"`
	Amount          float64                  `json:"amount"`
	AmountFormatted string                   `json:"amountFormatted"`
}

type SponsorReport struct {
	Currency       string                           `json:"currency"`
	ByStatus       map[models.SponsorshipStatus]int `json:"byStatus"`
	EventsFunded   int                              `json:"eventsFunded"`
	TotalPledged   float64                          `json:"totalPledged"`
	TotalFormatted string                           `json:"totalFormatted"`
	Lines          []ReportLine                     `json:"lines"`
}

// Report summarizes a sponsor's pledges. Rejected sponsorships are listed but
// not counted towards the pledged total. Amounts stay in base currency;
// display only affects the formatted strings.
func (s *Sponsorships) Report(ctx context.Context, sponsorID primitive.ObjectID, display string) (*SponsorReport, error) {
	list, err := s.store.ListSponsorships(ctx, store.SponsorshipFilter{SponsorID: &sponsorID})
	if err != nil {
		return nil, fmt.Errorf("list sponsorships: %w", err)
	}

	now := s.now()
	display = rules.Currencies.Resolve(display)
	rep := &SponsorReport{
		Currency: display,
		ByStatus: map[models.SponsorshipStatus]int{},
		Lines:    make([]ReportLine, 0, len(list)),
	}

	for _, sp := range list {
		rep.ByStatus[sp.Status]++

		line := ReportLine{
			SponsorshipID:   sp.ID,
			EventID:         sp.EventID,
			SponsorshipType: sp.SponsorshipType,
			Status:          sp.Status,
			Amount:          sp.Amount,
			AmountFormatted: rules.Currencies.Format(sp.Amount, display),
		}
		ev, err := s.store.GetEvent(ctx, sp.EventID)
		switch {
		case err == nil:
			line.EventTitle = ev.Title
			line.EventStatus = rules.ClassifyEvent(ev, now)
		case errors.Is(err, store.ErrNotFound):
			line.EventTitle = "(deleted event)"
		default:
			return nil, fmt.Errorf("get event: %w", err)
		}
		rep.Lines = append(rep.Lines, line)

		if sp.Status != models.SponsorshipRejected {
			rep.TotalPledged += sp.Amount
			rep.EventsFunded++
		}
	}

	rep.TotalFormatted = rules.Currencies.Format(rep.TotalPledged, display)
	return rep, nil
}
