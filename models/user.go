package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleVolunteer  Role = "volunteer"
	RoleOrganizer  Role = "organizer"
	RoleSponsor    Role = "sponsor"
	RoleCollector  Role = "collector"
	RoleResearcher Role = "researcher"
	RoleAdmin      Role = "admin"
)

// SelfServiceRoles are the roles a user may pick at registration.
var SelfServiceRoles = []Role{RoleVolunteer, RoleOrganizer, RoleSponsor, RoleCollector, RoleResearcher}

func (r Role) SelfService() bool {
	for _, s := range SelfServiceRoles {
		if r == s {
			return true
		}
	}
	return false
}

type NotificationSettings struct {
	EventReminders     bool `bson:"eventReminders" json:"eventReminders"`
	SponsorshipUpdates bool `bson:"sponsorshipUpdates" json:"sponsorshipUpdates"`
	NewEvents          bool `bson:"newEvents" json:"newEvents"`
	CheckInAlerts      bool `bson:"checkInAlerts" json:"checkInAlerts"`
}

// DefaultNotificationSettings is what a freshly registered user gets.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		EventReminders:     true,
		SponsorshipUpdates: true,
		NewEvents:          true,
		CheckInAlerts:      true,
	}
}

type Preferences struct {
	Currency      string               `bson:"currency,omitempty" json:"currency,omitempty"`
	Notifications NotificationSettings `bson:"notifications" json:"notifications"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	CompanyName  string             `bson:"companyName,omitempty" json:"companyName,omitempty"`
	Organization string             `bson:"organization,omitempty" json:"organization,omitempty"`
	Preferences  Preferences        `bson:"preferences" json:"preferences"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
