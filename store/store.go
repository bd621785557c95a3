// Package store persists users, events, sponsorships and registrations.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/cleanup-sponsorship-go/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	// ErrConflict means the document exists but not in the expected state.
	ErrConflict = errors.New("conflict")
)

type EventFilter struct {
	OrganizerID *primitive.ObjectID
	// Query matches the title, case-insensitively.
	Query               string
	SponsorshipRequired *bool
}

type SponsorshipFilter struct {
	EventID   *primitive.ObjectID
	SponsorID *primitive.ObjectID
	Status    models.SponsorshipStatus
}

type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePreferences(ctx context.Context, id primitive.ObjectID, prefs models.Preferences, at time.Time) error

	CreateEvent(ctx context.Context, ev *models.Event) error
	GetEvent(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	ListEvents(ctx context.Context, f EventFilter) ([]models.Event, error)
	UpdateEvent(ctx context.Context, id primitive.ObjectID, p models.EventPatch, at time.Time) (*models.Event, error)
	// DeleteEvent removes the event and its volunteer registrations.
	DeleteEvent(ctx context.Context, id primitive.ObjectID) error

	HasSponsorship(ctx context.Context, eventID, sponsorID primitive.ObjectID) (bool, error)
	// RecordSponsorship inserts sp unless the sponsor already sponsored the
	// event (ErrDuplicate), then atomically adds sp.Amount to the event's
	// currentFunding (when positive) and 1 to its sponsorCount.
	RecordSponsorship(ctx context.Context, sp *models.Sponsorship) error
	GetSponsorship(ctx context.Context, id primitive.ObjectID) (*models.Sponsorship, error)
	ListSponsorships(ctx context.Context, f SponsorshipFilter) ([]models.Sponsorship, error)
	// SetSponsorshipStatus moves a sponsorship from one status to another,
	// failing with ErrConflict when it is no longer in from.
	SetSponsorshipStatus(ctx context.Context, id primitive.ObjectID, from, to models.SponsorshipStatus, at time.Time) error

	CreateRegistration(ctx context.Context, r *models.Registration) error
	GetRegistration(ctx context.Context, id primitive.ObjectID) (*models.Registration, error)
	ListRegistrations(ctx context.Context, eventID primitive.ObjectID) ([]models.Registration, error)
	CountRegistrations(ctx context.Context, eventID primitive.ObjectID) (int, error)
	// CheckIn marks a registration as checked in; ErrConflict if it already is.
	CheckIn(ctx context.Context, id primitive.ObjectID, at time.Time) error
}
