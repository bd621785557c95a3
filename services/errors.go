package services

import "errors"

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrSponsorshipNotFound = errors.New("sponsorship not found")
	ErrNotEligible         = errors.New("event is not accepting sponsorships")
	ErrForbidden           = errors.New("access denied")
	ErrInvalidTransition   = errors.New("sponsorship status change not allowed")
)

var (
	ErrRegistrationClosed  = errors.New("event is not accepting registrations")
	ErrEventFull           = errors.New("event has no volunteer spots left")
	ErrAlreadyRegistered   = errors.New("already registered for this event")
	ErrInvalidCheckInToken = errors.New("check-in code does not match a registration for this event")
	ErrAlreadyCheckedIn    = errors.New("volunteer already checked in")
)
