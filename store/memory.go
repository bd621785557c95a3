package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/cleanup-sponsorship-go/models"
)

type pairKey struct {
	a, b primitive.ObjectID
}

// Memory is an in-process Store. Every operation runs under one lock, which
// makes RecordSponsorship atomic the same way the Mongo transaction is.
type Memory struct {
	mu            sync.Mutex
	users         map[primitive.ObjectID]models.User
	emails        map[string]primitive.ObjectID
	events        map[primitive.ObjectID]models.Event
	sponsorships  map[primitive.ObjectID]models.Sponsorship
	sponsorPairs  map[pairKey]primitive.ObjectID
	registrations map[primitive.ObjectID]models.Registration
	volunteerRegs map[pairKey]primitive.ObjectID
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[primitive.ObjectID]models.User),
		emails:        make(map[string]primitive.ObjectID),
		events:        make(map[primitive.ObjectID]models.Event),
		sponsorships:  make(map[primitive.ObjectID]models.Sponsorship),
		sponsorPairs:  make(map[pairKey]primitive.ObjectID),
		registrations: make(map[primitive.ObjectID]models.Registration),
		volunteerRegs: make(map[pairKey]primitive.ObjectID),
	}
}

func ensureID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

// ---------------- USERS ----------------

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, taken := m.emails[email]; taken {
		return ErrDuplicate
	}
	ensureID(&u.ID)
	m.users[u.ID] = *u
	m.emails[email] = u.ID
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *Memory) UpdatePreferences(_ context.Context, id primitive.ObjectID, prefs models.Preferences, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Preferences = prefs
	u.UpdatedAt = at
	m.users[id] = u
	return nil
}

// ---------------- EVENTS ----------------

func (m *Memory) CreateEvent(_ context.Context, ev *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ensureID(&ev.ID)
	if _, exists := m.events[ev.ID]; exists {
		return ErrDuplicate
	}
	m.events[ev.ID] = *ev
	return nil
}

func (m *Memory) GetEvent(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ev, nil
}

func (m *Memory) ListEvents(_ context.Context, f EventFilter) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := strings.ToLower(f.Query)
	out := []models.Event{}
	for _, ev := range m.events {
		if f.OrganizerID != nil && ev.OrganizerID != *f.OrganizerID {
			continue
		}
		if f.SponsorshipRequired != nil && ev.SponsorshipRequired != *f.SponsorshipRequired {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(ev.Title), q) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateEvent(_ context.Context, id primitive.ObjectID, p models.EventPatch, at time.Time) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Apply(&ev)
	ev.UpdatedAt = at
	m.events[id] = ev
	return &ev, nil
}

func (m *Memory) DeleteEvent(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	for regID, r := range m.registrations {
		if r.EventID == id {
			delete(m.registrations, regID)
			delete(m.volunteerRegs, pairKey{r.EventID, r.VolunteerID})
		}
	}
	return nil
}

// ---------------- SPONSORSHIPS ----------------

func (m *Memory) HasSponsorship(_ context.Context, eventID, sponsorID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sponsorPairs[pairKey{eventID, sponsorID}]
	return ok, nil
}

func (m *Memory) RecordSponsorship(_ context.Context, sp *models.Sponsorship) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[sp.EventID]
	if !ok {
		return ErrNotFound
	}
	key := pairKey{sp.EventID, sp.SponsorID}
	if _, dup := m.sponsorPairs[key]; dup {
		return ErrDuplicate
	}

	ensureID(&sp.ID)
	m.sponsorships[sp.ID] = *sp
	m.sponsorPairs[key] = sp.ID

	if sp.Amount > 0 {
		ev.CurrentFunding += sp.Amount
	}
	ev.SponsorCount++
	ev.UpdatedAt = sp.CreatedAt
	m.events[ev.ID] = ev
	return nil
}

func (m *Memory) GetSponsorship(_ context.Context, id primitive.ObjectID) (*models.Sponsorship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sp, ok := m.sponsorships[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sp, nil
}

func (m *Memory) ListSponsorships(_ context.Context, f SponsorshipFilter) ([]models.Sponsorship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Sponsorship{}
	for _, sp := range m.sponsorships {
		if f.EventID != nil && sp.EventID != *f.EventID {
			continue
		}
		if f.SponsorID != nil && sp.SponsorID != *f.SponsorID {
			continue
		}
		if f.Status != "" && sp.Status != f.Status {
			continue
		}
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SetSponsorshipStatus(_ context.Context, id primitive.ObjectID, from, to models.SponsorshipStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sp, ok := m.sponsorships[id]
	if !ok {
		return ErrNotFound
	}
	if sp.Status != from {
		return ErrConflict
	}
	sp.Status = to
	sp.UpdatedAt = at
	m.sponsorships[id] = sp
	return nil
}

// ---------------- REGISTRATIONS ----------------

func (m *Memory) CreateRegistration(_ context.Context, r *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey{r.EventID, r.VolunteerID}
	if _, dup := m.volunteerRegs[key]; dup {
		return ErrDuplicate
	}
	ensureID(&r.ID)
	m.registrations[r.ID] = *r
	m.volunteerRegs[key] = r.ID
	return nil
}

func (m *Memory) GetRegistration(_ context.Context, id primitive.ObjectID) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.registrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Memory) ListRegistrations(_ context.Context, eventID primitive.ObjectID) ([]models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Registration{}
	for _, r := range m.registrations {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CountRegistrations(ctx context.Context, eventID primitive.ObjectID) (int, error) {
	regs, err := m.ListRegistrations(ctx, eventID)
	return len(regs), err
}

func (m *Memory) CheckIn(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.registrations[id]
	if !ok {
		return ErrNotFound
	}
	if r.CheckedIn {
		return ErrConflict
	}
	r.CheckedIn = true
	r.CheckedInAt = &at
	m.registrations[id] = r
	return nil
}
