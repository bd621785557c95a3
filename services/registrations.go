package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/cleanup-sponsorship-go/metrics"
	models "github.com/phillip/cleanup-sponsorship-go/models"
	"github.com/phillip/cleanup-sponsorship-go/rules"
	"github.com/phillip/cleanup-sponsorship-go/store"
	"github.com/phillip/cleanup-sponsorship-go/utils"
)

type Registrations struct {
	store store.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewRegistrations(st store.Store, log *slog.Logger, now func() time.Time) *Registrations {
	if now == nil {
		now = time.Now
	}
	return &Registrations{store: st, log: log, now: now}
}

// Register signs a volunteer up and returns the registration together with
// the check-in token their QR code carries.
func (s *Registrations) Register(ctx context.Context, volunteer models.Volunteer, eventID primitive.ObjectID) (*models.Registration, utils.CheckInToken, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, utils.CheckInToken{}, ErrEventNotFound
		}
		return nil, utils.CheckInToken{}, fmt.Errorf("get event: %w", err)
	}

	now := s.now()
	if rules.Terminal(rules.ClassifyEvent(ev, now)) {
		return nil, utils.CheckInToken{}, ErrRegistrationClosed
	}
	if ev.MaxVolunteers > 0 {
		n, err := s.store.CountRegistrations(ctx, eventID)
		if err != nil {
			return nil, utils.CheckInToken{}, fmt.Errorf("count registrations: %w", err)
		}
		if n >= ev.MaxVolunteers {
			return nil, utils.CheckInToken{}, ErrEventFull
		}
	}

	reg := &models.Registration{
		ID:          primitive.NewObjectID(),
		EventID:     eventID,
		VolunteerID: volunteer.UserID(),
		CreatedAt:   now,
	}
	if err := s.store.CreateRegistration(ctx, reg); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, utils.CheckInToken{}, ErrAlreadyRegistered
		}
		return nil, utils.CheckInToken{}, fmt.Errorf("create registration: %w", err)
	}

	metrics.RegistrationsTotal.Inc()
	s.log.Info("volunteer registered",
		slog.String("registration_id", reg.ID.Hex()),
		slog.String("event_id", eventID.Hex()),
		slog.String("user_id", volunteer.UserID().Hex()),
	)
	return reg, TokenFor(reg), nil
}

func TokenFor(reg *models.Registration) utils.CheckInToken {
	return utils.CheckInToken{
		EventID:        reg.EventID.Hex(),
		RegistrationID: reg.ID.Hex(),
		UserID:         reg.VolunteerID.Hex(),
	}
}

func (s *Registrations) List(ctx context.Context, actor models.Account, eventID primitive.ObjectID) ([]models.Registration, error) {
	if err := s.authorize(ctx, actor, eventID); err != nil {
		return nil, err
	}
	return s.store.ListRegistrations(ctx, eventID)
}

// CheckIn validates a scanned QR token against the event being run and marks
// the registration as attended. Every mismatch reads as an invalid token so a
// scanner learns nothing about other events.
func (s *Registrations) CheckIn(ctx context.Context, actor models.Account, eventID primitive.ObjectID, raw string) (*models.Registration, error) {
	reg, err := s.checkIn(ctx, actor, eventID, raw)
	switch {
	case err == nil:
		metrics.CheckInsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrAlreadyCheckedIn):
		metrics.CheckInsTotal.WithLabelValues("repeat").Inc()
	default:
		metrics.CheckInsTotal.WithLabelValues("refused").Inc()
	}
	return reg, err
}

func (s *Registrations) checkIn(ctx context.Context, actor models.Account, eventID primitive.ObjectID, raw string) (*models.Registration, error) {
	if err := s.authorize(ctx, actor, eventID); err != nil {
		return nil, err
	}

	tok, err := utils.ParseCheckInToken(raw)
	if err != nil || tok.EventID != eventID.Hex() {
		return nil, ErrInvalidCheckInToken
	}
	regID, err := primitive.ObjectIDFromHex(tok.RegistrationID)
	if err != nil {
		return nil, ErrInvalidCheckInToken
	}

	reg, err := s.store.GetRegistration(ctx, regID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCheckInToken
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if reg.EventID != eventID || reg.VolunteerID.Hex() != tok.UserID {
		return nil, ErrInvalidCheckInToken
	}

	now := s.now()
	if err := s.store.CheckIn(ctx, regID, now); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("check in: %w", err)
	}

	s.log.Info("volunteer checked in",
		slog.String("registration_id", regID.Hex()),
		slog.String("event_id", eventID.Hex()),
	)
	reg.CheckedIn = true
	reg.CheckedInAt = &now
	return reg, nil
}

func (s *Registrations) authorize(ctx context.Context, actor models.Account, eventID primitive.ObjectID) error {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if !models.Owns(actor, ev.OrganizerID) {
		return ErrForbidden
	}
	return nil
}
