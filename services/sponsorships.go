package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/cleanup-sponsorship-go/metrics"
	models "github.com/phillip/cleanup-sponsorship-go/models"
	"github.com/phillip/cleanup-sponsorship-go/rules"
	"github.com/phillip/cleanup-sponsorship-go/store"
)

// SponsorshipNotifier is told about accepted submissions. Implementations
// must not block for long; Submit calls it on its own goroutine.
type SponsorshipNotifier interface {
	SponsorshipSubmitted(ctx context.Context, organizer *models.User, ev *models.Event, sp *models.Sponsorship)
}

type Sponsorships struct {
	store    store.Store
	notifier SponsorshipNotifier
	log      *slog.Logger
	now      func() time.Time
}

func NewSponsorships(st store.Store, notifier SponsorshipNotifier, log *slog.Logger, now func() time.Time) *Sponsorships {
	if now == nil {
		now = time.Now
	}
	return &Sponsorships{store: st, notifier: notifier, log: log, now: now}
}

// Submit records a sponsor's pledge for an event. A sponsor who already
// sponsored the event gets rules.ErrDuplicateSponsorship whatever the form
// says; otherwise the event must be eligible and the form valid.
func (s *Sponsorships) Submit(ctx context.Context, sponsor models.Sponsor, eventID primitive.ObjectID, form rules.SponsorshipForm) (*models.Sponsorship, error) {
	sp, err := s.submit(ctx, sponsor, eventID, form)
	outcome := "accepted"
	if err != nil {
		outcome = "refused"
		if kind, ok := rules.KindOf(err); ok {
			outcome = string(kind)
		}
	}
	metrics.SponsorshipsTotal.WithLabelValues(string(form.SponsorshipType), outcome).Inc()
	return sp, err
}

func (s *Sponsorships) submit(ctx context.Context, sponsor models.Sponsor, eventID primitive.ObjectID, form rules.SponsorshipForm) (*models.Sponsorship, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	dup, err := s.store.HasSponsorship(ctx, eventID, sponsor.UserID())
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dup {
		return nil, rules.ErrDuplicateSponsorship
	}

	now := s.now()
	if !rules.CanSponsor(ev, now) {
		return nil, ErrNotEligible
	}
	if err := rules.ValidateSponsorship(form); err != nil {
		return nil, err
	}

	company := s.companyName(ctx, sponsor, form)
	sp := &models.Sponsorship{
		ID:                primitive.NewObjectID(),
		EventID:           eventID,
		SponsorID:         sponsor.UserID(),
		Amount:            form.AmountValue(),
		SponsorshipType:   form.SponsorshipType,
		Status:            models.SponsorshipPending,
		ContactEmail:      form.ContactEmail,
		ContactPhone:      rules.NormalizePhone(form.ContactPhone),
		CompanyName:       company,
		Message:           form.Message,
		InKindDescription: form.InKindDescription,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.RecordSponsorship(ctx, sp); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, rules.ErrDuplicateSponsorship
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("record sponsorship: %w", err)
	}

	metrics.FundingPledgedTotal.Add(sp.Amount)
	s.log.Info("sponsorship submitted",
		slog.String("sponsorship_id", sp.ID.Hex()),
		slog.String("event_id", eventID.Hex()),
		slog.String("sponsor_id", sponsor.UserID().Hex()),
		slog.String("type", string(sp.SponsorshipType)),
		slog.Float64("amount", sp.Amount),
	)

	if s.notifier != nil {
		go s.notifyOrganizer(context.WithoutCancel(ctx), ev, sp)
	}
	return sp, nil
}

// companyName prefers the form, then the account, then the stored profile.
// Accounts rebuilt from token claims carry no company.
func (s *Sponsorships) companyName(ctx context.Context, sponsor models.Sponsor, form rules.SponsorshipForm) string {
	if name := strings.TrimSpace(form.CompanyName); name != "" {
		return name
	}
	if sponsor.CompanyName != "" {
		return sponsor.CompanyName
	}
	u, err := s.store.GetUserByID(ctx, sponsor.UserID())
	if err != nil {
		s.log.Warn("sponsor profile unavailable",
			slog.String("sponsor_id", sponsor.UserID().Hex()),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return u.CompanyName
}

func (s *Sponsorships) notifyOrganizer(ctx context.Context, ev *models.Event, sp *models.Sponsorship) {
	organizer, err := s.store.GetUserByID(ctx, ev.OrganizerID)
	if err != nil {
		s.log.Error("failed to get organizer for notification",
			slog.String("event_id", ev.ID.Hex()),
			slog.String("error", err.Error()),
		)
		return
	}
	s.notifier.SponsorshipSubmitted(ctx, organizer, ev, sp)
}

// Review moves a sponsorship along pending → approved|rejected → completed.
// Only the event's organizer (or an admin) may do so. Funding already
// counted is never taken back.
func (s *Sponsorships) Review(ctx context.Context, actor models.Account, id primitive.ObjectID, to models.SponsorshipStatus) (*models.Sponsorship, error) {
	sp, err := s.store.GetSponsorship(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSponsorshipNotFound
		}
		return nil, fmt.Errorf("get sponsorship: %w", err)
	}

	ev, err := s.store.GetEvent(ctx, sp.EventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !models.Owns(actor, ev.OrganizerID) {
		return nil, ErrForbidden
	}
	if !sp.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, sp.Status, to)
	}

	now := s.now()
	if err := s.store.SetSponsorshipStatus(ctx, id, sp.Status, to, now); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("set sponsorship status: %w", err)
	}

	metrics.SponsorshipReviewsTotal.WithLabelValues(string(to)).Inc()
	s.log.Info("sponsorship reviewed",
		slog.String("sponsorship_id", id.Hex()),
		slog.String("from", string(sp.Status)),
		slog.String("to", string(to)),
		slog.String("reviewer_id", actor.UserID().Hex()),
	)

	sp.Status = to
	sp.UpdatedAt = now
	return sp, nil
}

// ListForEvent is the organizer's view of who sponsored an event.
func (s *Sponsorships) ListForEvent(ctx context.Context, actor models.Account, eventID primitive.ObjectID, status models.SponsorshipStatus) ([]models.Sponsorship, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !models.Owns(actor, ev.OrganizerID) {
		return nil, ErrForbidden
	}
	return s.store.ListSponsorships(ctx, store.SponsorshipFilter{EventID: &eventID, Status: status})
}

func (s *Sponsorships) ListForSponsor(ctx context.Context, sponsorID primitive.ObjectID, status models.SponsorshipStatus) ([]models.Sponsorship, error) {
	return s.store.ListSponsorships(ctx, store.SponsorshipFilter{SponsorID: &sponsorID, Status: status})
}
