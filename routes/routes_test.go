package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/phillip/cleanup-sponsorship-go/config"
	"github.com/phillip/cleanup-sponsorship-go/ratelimit"
	"github.com/phillip/cleanup-sponsorship-go/services"
	"github.com/phillip/cleanup-sponsorship-go/store"
)

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *store.Memory
	now    time.Time
}

func newTestServer(t *testing.T, limiter ratelimit.Limiter) *testServer {
	t.Helper()
	st := store.NewMemory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := &testServer{t: t, store: st, now: fixedNow}
	clock := func() time.Time { return s.now }
	if limiter == nil {
		limiter = ratelimit.Disabled()
	}

	cfg := &config.Config{
		Settings: config.Settings{
			JWTSecret:   "test-secret",
			JWTTTL:      30 * 24 * time.Hour,
			CORSOrigins: []string{"*"},
		},
		Store:         st,
		Sponsorships:  services.NewSponsorships(st, nil, log, clock),
		Registrations: services.NewRegistrations(st, log, clock),
		Limiter:       limiter,
		Log:           log,
		Now:           clock,
	}
	s.router = NewRouter(cfg)
	return s
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

// conditionalGet repeats a GET with If-None-Match and returns the status.
func (s *testServer) conditionalGet(path, token, etag string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(name, role string) string {
	s.t.Helper()
	w, out := s.do(http.MethodPost, "/auth/register", "", gin.H{
		"name":        name,
		"email":       name + "@example.com",
		"password":    "correct horse",
		"role":        role,
		"companyName": name + " Ltd",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return out["token"].(string)
}

func (s *testServer) createEvent(token string, body gin.H) string {
	s.t.Helper()
	w, out := s.do(http.MethodPost, "/events", token, body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return out["id"].(string)
}

func sponsorshipBody(amount any) gin.H {
	return gin.H{
		"amount":          amount,
		"sponsorshipType": "financial",
		"contactEmail":    "csr@example.com",
		"contactPhone":    "+91 98765 43210",
		"termsAccepted":   true,
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)
	w, out := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", out["status"])

	w, _ = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("asha", "sponsor")

	w, out := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ASHA@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/sponsor/dashboard", out["homePath"])
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w, _ = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "asha@example.com", "password": "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/auth/register", "", gin.H{
		"name": "asha", "email": "asha@example.com", "password": "correct horse", "role": "sponsor",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/auth/register", "", gin.H{
		"name": "eve", "email": "eve@example.com", "password": "correct horse", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHomeAndPreferences(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.register("vik", "volunteer")

	w, out := s.do(http.MethodGet, "/me/home", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/volunteer/events", out["path"])

	w, _ = s.do(http.MethodPatch, "/me/preferences", token, gin.H{"currency": "CHF"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out = s.do(http.MethodPatch, "/me/preferences", token, gin.H{
		"currency":      "eur",
		"notifications": gin.H{"newEvents": false},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prefs := out["preferences"].(map[string]any)
	assert.Equal(t, "EUR", prefs["currency"])
	notifications := prefs["notifications"].(map[string]any)
	assert.Equal(t, false, notifications["newEvents"])
	assert.Equal(t, true, notifications["eventReminders"])
}

func TestSponsorshipFlow(t *testing.T) {
	s := newTestServer(t, nil)
	organizer := s.register("ravi", "organizer")
	sponsor := s.register("greenco", "sponsor")
	volunteer := s.register("vik", "volunteer")

	eventID := s.createEvent(organizer, gin.H{
		"title":               "Versova beach clean-up",
		"eventAt":             "2025-06-14",
		"sponsorshipRequired": true,
		"fundingGoal":         10000,
	})

	w, out := s.do(http.MethodGet, "/events/"+eventID, sponsor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["canSponsor"])
	assert.Equal(t, "upcoming", out["derivedStatus"])
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	assert.Equal(t, http.StatusNotModified, s.conditionalGet("/events/"+eventID, sponsor, etag).Code)

	// only sponsors may pledge
	w, _ = s.do(http.MethodPost, "/events/"+eventID+"/sponsorships", volunteer, sponsorshipBody("100"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, out = s.do(http.MethodPost, "/events/"+eventID+"/sponsorships", sponsor, sponsorshipBody("0"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "InvalidAmount", out["reason"])

	w, out = s.do(http.MethodPost, "/events/"+eventID+"/sponsorships", sponsor, sponsorshipBody(2500))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sponsorshipID := out["id"].(string)

	w, out = s.do(http.MethodPost, "/events/"+eventID+"/sponsorships", sponsor, sponsorshipBody(500))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DuplicateSponsorship", out["reason"])

	w, out = s.do(http.MethodGet, "/events/"+eventID+"?currency=USD", sponsor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2500.0, out["currentFunding"])
	assert.Equal(t, 1.0, out["sponsorCount"])
	assert.Equal(t, "USD", out["currency"])
	assert.Equal(t, "$30", out["currentFundingFormatted"])
	progress := out["progress"].(map[string]any)
	assert.Equal(t, 25.0, progress["percentage"])
	assert.Equal(t, true, progress["hasValidGoal"])

	w, _ = s.do(http.MethodGet, "/events/"+eventID+"/sponsorships", sponsor, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodGet, "/events/"+eventID+"/sponsorships", organizer, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPatch, "/sponsorships/"+sponsorshipID+"/status", organizer, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w, out = s.do(http.MethodPatch, "/sponsorships/"+sponsorshipID+"/status", organizer, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "approved", out["sponsorship"].(map[string]any)["status"])

	w, out = s.do(http.MethodGet, "/sponsorships/report?currency=INR", sponsor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2500.0, out["totalPledged"])
	assert.Equal(t, "₹2,500", out["totalFormatted"])

	w, _ = s.do(http.MethodDelete, "/events/"+eventID, organizer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSponsorship_IneligibleEvent(t *testing.T) {
	s := newTestServer(t, nil)
	organizer := s.register("ravi", "organizer")
	sponsor := s.register("greenco", "sponsor")

	pastID := s.createEvent(organizer, gin.H{
		"title":               "Last week's drive",
		"eventAt":             "2025-06-01",
		"sponsorshipRequired": true,
	})
	w, _ := s.do(http.MethodPost, "/events/"+pastID+"/sponsorships", sponsor, sponsorshipBody("1000"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/events/not-an-id/sponsorships", sponsor, sponsorshipBody("1000"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/events/"+"6650f1a2b3c4d5e6f7a8b9c0"+"/sponsorships", sponsor, sponsorshipBody("1000"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEvents_Filters(t *testing.T) {
	s := newTestServer(t, nil)
	organizer := s.register("ravi", "organizer")
	sponsor := s.register("greenco", "sponsor")

	s.createEvent(organizer, gin.H{"title": "Open for sponsors", "eventAt": "2025-07-01", "sponsorshipRequired": true})
	s.createEvent(organizer, gin.H{"title": "Volunteers only", "eventAt": "2025-07-02"})
	s.createEvent(organizer, gin.H{"title": "Already happened", "eventAt": "2025-05-01", "sponsorshipRequired": true})

	list := func(query string) []map[string]any {
		w, _ := s.do(http.MethodGet, "/events"+query, sponsor, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out
	}

	assert.Len(t, list(""), 3)
	sponsorable := list("?sponsorable=true")
	require.Len(t, sponsorable, 1)
	assert.Equal(t, "Open for sponsors", sponsorable[0]["title"])
	assert.Len(t, list("?status=completed"), 1)
	assert.Len(t, list("?q=volunteer"), 1)

	w, _ := s.do(http.MethodGet, "/events?status=bogus", sponsor, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventUpdateAndDelete(t *testing.T) {
	s := newTestServer(t, nil)
	organizer := s.register("ravi", "organizer")
	other := s.register("meera", "organizer")

	id := s.createEvent(organizer, gin.H{"title": "Park sweep", "eventAt": "2025-07-01"})

	w, _ := s.do(http.MethodPatch, "/events/"+id, other, gin.H{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPatch, "/events/"+id, organizer, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPatch, "/events/"+id, organizer, gin.H{"eventAt": "someday"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out := s.do(http.MethodPatch, "/events/"+id, organizer, gin.H{"status": "Cancelled", "fundingGoal": 5000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ev := out["event"].(map[string]any)
	assert.Equal(t, "cancelled", ev["derivedStatus"])
	assert.Equal(t, false, ev["canSponsor"])

	w, _ = s.do(http.MethodDelete, "/events/"+id, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodDelete, "/events/"+id, organizer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/events/"+id, organizer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistrationAndCheckIn(t *testing.T) {
	s := newTestServer(t, nil)
	organizer := s.register("ravi", "organizer")
	volunteer := s.register("vik", "volunteer")
	id := s.createEvent(organizer, gin.H{"title": "Lake day", "eventAt": "2025-06-20", "maxVolunteers": 10})

	w, out := s.do(http.MethodPost, "/events/"+id+"/registrations", volunteer, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := out["checkInToken"].(string)

	w, _ = s.do(http.MethodPost, "/events/"+id+"/registrations", volunteer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/events/"+id+"/checkin", organizer, gin.H{"token": "vol-reg:x:y:z"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/events/"+id+"/checkin", organizer, gin.H{"token": token})
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, "/events/"+id+"/checkin", organizer, gin.H{"token": token})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, out = s.do(http.MethodGet, "/events/"+id+"/registrations", organizer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, out["total"])
	assert.Equal(t, 1.0, out["checkedIn"])
}

func TestSponsorshipRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter := ratelimit.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:", 1, time.Minute)
	t.Cleanup(func() { limiter.Close() })

	s := newTestServer(t, limiter)
	organizer := s.register("ravi", "organizer")
	sponsor := s.register("greenco", "sponsor")
	first := s.createEvent(organizer, gin.H{"title": "One", "eventAt": "2025-07-01", "sponsorshipRequired": true})
	second := s.createEvent(organizer, gin.H{"title": "Two", "eventAt": "2025-07-02", "sponsorshipRequired": true})

	w, _ := s.do(http.MethodPost, "/events/"+first+"/sponsorships", sponsor, sponsorshipBody("100"))
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = s.do(http.MethodPost, "/events/"+second+"/sponsorships", sponsor, sponsorshipBody("100"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	mr.FastForward(2 * time.Minute)
	w, _ = s.do(http.MethodPost, "/events/"+second+"/sponsorships", sponsor, sponsorshipBody("100"))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestEventETag_TracksRepresentation(t *testing.T) {
	s := newTestServer(t, nil)
	organizer := s.register("ravi", "organizer")
	sponsor := s.register("greenco", "sponsor")
	eventID := s.createEvent(organizer, gin.H{
		"title":               "Juhu beach clean-up",
		"eventAt":             "2025-06-14",
		"sponsorshipRequired": true,
	})
	path := "/events/" + eventID

	w, _ := s.do(http.MethodGet, path+"?currency=INR", sponsor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	inr := w.Header().Get("ETag")
	assert.Equal(t, http.StatusNotModified, s.conditionalGet(path+"?currency=INR", sponsor, inr).Code)

	rec := s.conditionalGet(path+"?currency=USD", sponsor, inr)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, inr, rec.Header().Get("ETag"))

	// the event day passes without any write to the event
	s.now = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	rec = s.conditionalGet(path+"?currency=INR", sponsor, inr)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "completed", out["derivedStatus"])
	assert.Equal(t, false, out["canSponsor"])
}

func TestListEventsETag_TracksMembersAndFilters(t *testing.T) {
	s := newTestServer(t, nil)
	organizer := s.register("ravi", "organizer")

	older := s.createEvent(organizer, gin.H{"title": "Older sweep", "eventAt": "2025-07-01"})
	s.now = fixedNow.Add(time.Minute)
	s.createEvent(organizer, gin.H{"title": "Newer sweep", "eventAt": "2025-07-02"})

	w, _ := s.do(http.MethodGet, "/events", organizer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, http.StatusNotModified, s.conditionalGet("/events", organizer, etag).Code)

	assert.Equal(t, http.StatusOK, s.conditionalGet("/events?q=newer", organizer, etag).Code)

	w, _ = s.do(http.MethodDelete, "/events/"+older, organizer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec := s.conditionalGet("/events", organizer, etag)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestSponsorship_CompanyFromProfile(t *testing.T) {
	s := newTestServer(t, nil)
	organizer := s.register("ravi", "organizer")
	sponsor := s.register("greenco", "sponsor")
	eventID := s.createEvent(organizer, gin.H{"title": "Mangrove day", "eventAt": "2025-06-20", "sponsorshipRequired": true})

	w, out := s.do(http.MethodPost, "/events/"+eventID+"/sponsorships", sponsor, sponsorshipBody("1000"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "greenco Ltd", out["sponsorship"].(map[string]any)["companyName"])
}
