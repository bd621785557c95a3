package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SponsorshipType string

const (
	SponsorshipFinancial SponsorshipType = "financial"
	SponsorshipInKind    SponsorshipType = "in_kind"
	SponsorshipBoth      SponsorshipType = "both"
)

func (t SponsorshipType) Valid() bool {
	switch t {
	case SponsorshipFinancial, SponsorshipInKind, SponsorshipBoth:
		return true
	}
	return false
}

type SponsorshipStatus string

const (
	SponsorshipPending   SponsorshipStatus = "pending"
	SponsorshipApproved  SponsorshipStatus = "approved"
	SponsorshipRejected  SponsorshipStatus = "rejected"
	SponsorshipCompleted SponsorshipStatus = "completed"
)

// CanTransitionTo reports whether an organizer may move a sponsorship from s
// to next. rejected and completed are terminal.
func (s SponsorshipStatus) CanTransitionTo(next SponsorshipStatus) bool {
	switch s {
	case SponsorshipPending:
		return next == SponsorshipApproved || next == SponsorshipRejected
	case SponsorshipApproved:
		return next == SponsorshipCompleted
	}
	return false
}

type Sponsorship struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID           primitive.ObjectID `bson:"eventId" json:"eventId"`
	SponsorID         primitive.ObjectID `bson:"sponsorId" json:"sponsorId"`
	Amount            float64            `bson:"amount" json:"amount"`
	SponsorshipType   SponsorshipType    `bson:"sponsorshipType" json:"sponsorshipType"`
	Status            SponsorshipStatus  `bson:"status" json:"status"`
	ContactEmail      string             `bson:"contactEmail" json:"contactEmail"`
	ContactPhone      string             `bson:"contactPhone" json:"contactPhone"`
	CompanyName       string             `bson:"companyName,omitempty" json:"companyName,omitempty"`
	Message           string             `bson:"message,omitempty" json:"message,omitempty"`
	InKindDescription string             `bson:"inKindDescription,omitempty" json:"inKindDescription,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
