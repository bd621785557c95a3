// Package rules holds the event sponsorship business rules: status
// classification, sponsorship eligibility, funding progress, sponsorship form
// validation and currency display. Everything here is a pure function of its
// arguments and safe for concurrent use.
package rules

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dateLayouts are tried in order after RFC3339.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ToDate normalizes the date shapes found in event documents. It returns
// false for nil, zero, malformed or unrecognized input and never panics.
func ToDate(v any) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		t = *x
	case primitive.Timestamp:
		if x.T == 0 {
			return time.Time{}, false
		}
		t = time.Unix(int64(x.T), 0).UTC()
	case string:
		return parseDate(x)
	case *string:
		if x == nil {
			return time.Time{}, false
		}
		return parseDate(*x)
	case interface{ ToDate() time.Time }:
		t = x.ToDate()
	case interface{ Time() time.Time }:
		// primitive.DateTime
		t = x.Time()
	default:
		return time.Time{}, false
	}

	if t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
