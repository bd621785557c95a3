package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizerID primitive.ObjectID `bson:"organizerId" json:"organizerId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`

	// EventAt is whatever the document holds: a BSON date, a string written by
	// older clients, or nothing at all ("TBA"). Read it through rules.ToDate.
	EventAt any `bson:"eventAt,omitempty" json:"-"`

	// Status is a stored hint only; rules.ClassifyEvent derives the real one.
	Status string `bson:"status,omitempty" json:"status,omitempty"`

	SponsorshipRequired bool    `bson:"sponsorshipRequired" json:"sponsorshipRequired"`
	FundingGoal         float64 `bson:"fundingGoal,omitempty" json:"fundingGoal,omitempty"`
	CurrentFunding      float64 `bson:"currentFunding" json:"currentFunding"`
	SponsorCount        int     `bson:"sponsorCount" json:"sponsorCount"`

	MaxVolunteers int       `bson:"maxVolunteers,omitempty" json:"maxVolunteers,omitempty"`
	Images        []string  `bson:"images" json:"images"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// EventPatch carries the organizer-editable fields; nil means "leave as is".
// Funding counters are deliberately absent: they only move through
// sponsorship submissions.
type EventPatch struct {
	Title               *string
	Description         *string
	Location            *string
	EventAt             *time.Time
	Status              *EventStatus
	SponsorshipRequired *bool
	FundingGoal         *float64
	MaxVolunteers       *int
	Images              *[]string
}

func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil &&
		p.EventAt == nil && p.Status == nil && p.SponsorshipRequired == nil &&
		p.FundingGoal == nil && p.MaxVolunteers == nil && p.Images == nil
}

// Apply copies the set fields onto ev.
func (p EventPatch) Apply(ev *Event) {
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Location != nil {
		ev.Location = *p.Location
	}
	if p.EventAt != nil {
		ev.EventAt = *p.EventAt
	}
	if p.Status != nil {
		ev.Status = string(*p.Status)
	}
	if p.SponsorshipRequired != nil {
		ev.SponsorshipRequired = *p.SponsorshipRequired
	}
	if p.FundingGoal != nil {
		ev.FundingGoal = *p.FundingGoal
	}
	if p.MaxVolunteers != nil {
		ev.MaxVolunteers = *p.MaxVolunteers
	}
	if p.Images != nil {
		ev.Images = append([]string(nil), (*p.Images)...)
	}
}
