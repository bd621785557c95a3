package utils

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/cleanup-sponsorship-go/models"
)

func TestCheckInToken_RoundTrip(t *testing.T) {
	tok := CheckInToken{EventID: "e1", RegistrationID: "r1", UserID: "u1"}
	assert.Equal(t, "vol-reg:e1:r1:u1", tok.String())

	parsed, err := ParseCheckInToken("  vol-reg:e1:r1:u1\n")
	require.NoError(t, err)
	assert.Equal(t, tok, parsed)
}

func TestParseCheckInToken_Invalid(t *testing.T) {
	for _, raw := range []string{"", "vol-reg:e1:r1", "vol-reg:e1:r1:u1:x", "org-reg:e1:r1:u1", "vol-reg::r1:u1"} {
		_, err := ParseCheckInToken(raw)
		assert.True(t, errors.Is(err, ErrInvalidCheckInToken), raw)
	}
}

func TestGenerateETag(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	etag := GenerateETag(id, at)
	assert.True(t, strings.HasPrefix(etag, `W/"`))
	assert.Len(t, etag, len(`W/""`)+16)
	assert.Equal(t, etag, GenerateETag(id, at))
	assert.NotEqual(t, etag, GenerateETag(id, at.Add(time.Nanosecond)))
	assert.NotEqual(t, etag, GenerateETag(primitive.NewObjectID(), at))

	usd := GenerateETag(id, at, "USD", "upcoming")
	assert.NotEqual(t, etag, usd)
	assert.Equal(t, usd, GenerateETag(id, at, "USD", "upcoming"))
	assert.NotEqual(t, usd, GenerateETag(id, at, "INR", "upcoming"))
	assert.NotEqual(t, usd, GenerateETag(id, at, "USD", "completed"))
	assert.NotEqual(t, GenerateETag(id, at, "ab", "c"), GenerateETag(id, at, "a", "bc"))
}

func TestExtractPublicID(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v1234567890/events/abc123.jpg": "events/abc123",
		"https://res.cloudinary.com/demo/image/upload/events/abc123.png":             "events/abc123",
		"https://res.cloudinary.com/demo/image/upload/v1/sample":                     "sample",
	}
	for in, want := range cases {
		got, err := ExtractPublicID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{
		"https://example.com/images/abc.jpg",
		"https://res.cloudinary.com/demo/image/upload",
		"https://res.cloudinary.com/demo/image/upload/v123",
	} {
		_, err := ExtractPublicID(bad)
		assert.Error(t, err, bad)
	}
}

func testMailer(url string) *Mailer {
	return &Mailer{
		APIURL: url,
		APIKey: "Zoho-enczapikey test",
		From:   "noreply@cleanup.example",
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestMailer_SponsorshipSubmitted(t *testing.T) {
	var got emailRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	organizer := &models.User{
		Name:  "Ravi",
		Email: "ravi@example.com",
		Preferences: models.Preferences{
			Currency:      "USD",
			Notifications: models.DefaultNotificationSettings(),
		},
	}
	ev := &models.Event{ID: primitive.NewObjectID(), Title: "Lake <Day>"}
	sp := &models.Sponsorship{Amount: 10000, SponsorshipType: models.SponsorshipFinancial, CompanyName: "GreenCo"}

	testMailer(srv.URL).SponsorshipSubmitted(context.Background(), organizer, ev, sp)

	assert.Equal(t, "Zoho-enczapikey test", auth)
	require.Len(t, got.To, 1)
	assert.Equal(t, "ravi@example.com", got.To[0].Email.Address)
	assert.Equal(t, "New sponsorship for Lake <Day>", got.Subject)
	assert.Contains(t, got.HtmlBody, "$120")
	assert.Contains(t, got.HtmlBody, "Lake &lt;Day&gt;")
}

func TestMailer_RespectsPreferences(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	organizer := &models.User{Email: "ravi@example.com"}
	testMailer(srv.URL).SponsorshipSubmitted(context.Background(), organizer, &models.Event{}, &models.Sponsorship{})
	assert.Zero(t, calls)
}

func TestMailer_SendEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	assert.Error(t, testMailer(srv.URL).SendEmail(context.Background(), "a@b.example", "A", "s", "b"))
	assert.Error(t, (&Mailer{}).SendEmail(context.Background(), "a@b.example", "A", "s", "b"))

	var nilMailer *Mailer
	assert.False(t, nilMailer.Enabled())
}
