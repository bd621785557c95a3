package rules

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/phillip/cleanup-sponsorship-go/models"
)

type ErrorKind string

const (
	KindInvalidType          ErrorKind = "InvalidType"
	KindInvalidAmount        ErrorKind = "InvalidAmount"
	KindAmountTypeConflict   ErrorKind = "AmountTypeConflict"
	KindMissingDescription   ErrorKind = "MissingDescription"
	KindMissingEmail         ErrorKind = "MissingEmail"
	KindInvalidPhone         ErrorKind = "InvalidPhone"
	KindTermsNotAccepted     ErrorKind = "TermsNotAccepted"
	KindDuplicateSponsorship ErrorKind = "DuplicateSponsorship"
)

var kindMessages = map[ErrorKind]string{
	KindInvalidType:          "sponsorship type must be financial, in_kind or both",
	KindInvalidAmount:        "amount must be a positive number within the pledge limit",
	KindAmountTypeConflict:   "in-kind sponsorships cannot carry an amount; use type both",
	KindMissingDescription:   "describe the in-kind support you are offering",
	KindMissingEmail:         "contact email is required",
	KindInvalidPhone:         "contact phone must be an international number",
	KindTermsNotAccepted:     "sponsorship terms must be accepted",
	KindDuplicateSponsorship: "you have already sponsored this event",
}

// ValidationError is a refused sponsorship submission. It is a value, not a
// fault: callers report Kind back to the sponsor.
type ValidationError struct {
	Kind ErrorKind
}

func (e *ValidationError) Error() string {
	if msg, ok := kindMessages[e.Kind]; ok {
		return msg
	}
	return string(e.Kind)
}

// Is matches any ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	return errors.As(target, &other) && other.Kind == e.Kind
}

var ErrDuplicateSponsorship error = &ValidationError{Kind: KindDuplicateSponsorship}

// KindOf extracts the ErrorKind from err, if it carries one.
func KindOf(err error) (ErrorKind, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return "", false
}

type SponsorshipForm struct {
	Amount            string                 `json:"amount"`
	SponsorshipType   models.SponsorshipType `json:"sponsorshipType"`
	InKindDescription string                 `json:"inKindDescription"`
	ContactEmail      string                 `json:"contactEmail"`
	ContactPhone      string                 `json:"contactPhone"`
	CompanyName       string                 `json:"companyName"`
	Message           string                 `json:"message"`
	TermsAccepted     bool                   `json:"termsAccepted"`
}

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)

// MaxAmount is the largest pledge, in base currency, a single form may carry.
const MaxAmount = 1e12

// ValidateSponsorship runs the submission checks in order and returns the
// first failure, or nil.
func ValidateSponsorship(f SponsorshipForm) error {
	if !f.SponsorshipType.Valid() {
		return &ValidationError{Kind: KindInvalidType}
	}

	amount, amountOK := parseAmount(f.Amount)
	switch f.SponsorshipType {
	case models.SponsorshipFinancial, models.SponsorshipBoth:
		if !amountOK || amount <= 0 || amount > MaxAmount {
			return &ValidationError{Kind: KindInvalidAmount}
		}
	case models.SponsorshipInKind:
		if !amountOK || amount < 0 {
			return &ValidationError{Kind: KindInvalidAmount}
		}
		if amount > 0 {
			return &ValidationError{Kind: KindAmountTypeConflict}
		}
		if strings.TrimSpace(f.InKindDescription) == "" {
			return &ValidationError{Kind: KindMissingDescription}
		}
	}

	if strings.TrimSpace(f.ContactEmail) == "" {
		return &ValidationError{Kind: KindMissingEmail}
	}
	if !phonePattern.MatchString(NormalizePhone(f.ContactPhone)) {
		return &ValidationError{Kind: KindInvalidPhone}
	}
	if !f.TermsAccepted {
		return &ValidationError{Kind: KindTermsNotAccepted}
	}
	return nil
}

// AmountValue is the parsed amount of a form that passed validation; in-kind
// forms are always 0.
func (f SponsorshipForm) AmountValue() float64 {
	if f.SponsorshipType == models.SponsorshipInKind {
		return 0
	}
	amount, ok := parseAmount(f.Amount)
	if !ok || amount < 0 {
		return 0
	}
	return amount
}

// NormalizePhone strips the separators people type into phone fields.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
}

// parseAmount treats an empty string as zero.
func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
