package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration is a volunteer's sign-up for one event.
type Registration struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID     primitive.ObjectID `bson:"eventId" json:"eventId"`
	VolunteerID primitive.ObjectID `bson:"volunteerId" json:"volunteerId"`
	CheckedIn   bool               `bson:"checkedIn" json:"checkedIn"`
	CheckedInAt *time.Time         `bson:"checkedInAt,omitempty" json:"checkedInAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
