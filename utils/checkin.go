package utils

import (
	"errors"
	"strings"
)

const checkInPrefix = "vol-reg"

var ErrInvalidCheckInToken = errors.New("invalid check-in token")

// CheckInToken is what a volunteer's QR code encodes:
// vol-reg:<eventId>:<registrationId>:<userId>.
type CheckInToken struct {
	EventID        string
	RegistrationID string
	UserID         string
}

func (t CheckInToken) String() string {
	return strings.Join([]string{checkInPrefix, t.EventID, t.RegistrationID, t.UserID}, ":")
}

func ParseCheckInToken(raw string) (CheckInToken, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 4 || parts[0] != checkInPrefix {
		return CheckInToken{}, ErrInvalidCheckInToken
	}
	for _, p := range parts[1:] {
		if p == "" {
			return CheckInToken{}, ErrInvalidCheckInToken
		}
	}
	return CheckInToken{EventID: parts[1], RegistrationID: parts[2], UserID: parts[3]}, nil
}
