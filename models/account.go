package models

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUnknownRole = errors.New("unknown role")

// Account is the caller seen through their role. Exactly one variant exists
// per role; switch on the concrete type instead of probing User fields.
type Account interface {
	UserID() primitive.ObjectID
	Role() Role
	sealed()
}

type accountBase struct {
	ID primitive.ObjectID
}

func (a accountBase) UserID() primitive.ObjectID { return a.ID }
func (accountBase) sealed()                      {}

type Volunteer struct {
	accountBase
	Name string
}

type Organizer struct {
	accountBase
	Organization string
}

type Sponsor struct {
	accountBase
	CompanyName string
}

type Collector struct {
	accountBase
}

type Researcher struct {
	accountBase
	Institution string
}

type Admin struct {
	accountBase
}

func (Volunteer) Role() Role  { return RoleVolunteer }
func (Organizer) Role() Role  { return RoleOrganizer }
func (Sponsor) Role() Role    { return RoleSponsor }
func (Collector) Role() Role  { return RoleCollector }
func (Researcher) Role() Role { return RoleResearcher }
func (Admin) Role() Role      { return RoleAdmin }

// NewAccount builds the variant for role without loading the full user.
func NewAccount(id primitive.ObjectID, role Role) (Account, error) {
	return AccountFor(&User{ID: id, Role: role})
}

func AccountFor(u *User) (Account, error) {
	base := accountBase{ID: u.ID}
	switch u.Role {
	case RoleVolunteer:
		return Volunteer{accountBase: base, Name: u.Name}, nil
	case RoleOrganizer:
		return Organizer{accountBase: base, Organization: u.Organization}, nil
	case RoleSponsor:
		return Sponsor{accountBase: base, CompanyName: u.CompanyName}, nil
	case RoleCollector:
		return Collector{accountBase: base}, nil
	case RoleResearcher:
		return Researcher{accountBase: base, Institution: u.Organization}, nil
	case RoleAdmin:
		return Admin{accountBase: base}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRole, u.Role)
}

// HomePath is where the app lands an account after sign-in.
func HomePath(a Account) string {
	switch a.(type) {
	case Volunteer:
		return "/volunteer/events"
	case Organizer:
		return "/organizer/dashboard"
	case Sponsor:
		return "/sponsor/dashboard"
	case Collector:
		return "/collector/collections"
	case Researcher:
		return "/researcher/reports"
	case Admin:
		return "/admin"
	}
	return "/login"
}

// Owns reports whether a may manage an event organized by organizerID.
func Owns(a Account, organizerID primitive.ObjectID) bool {
	switch a.(type) {
	case Admin:
		return true
	case Organizer:
		return a.UserID() == organizerID
	}
	return false
}
