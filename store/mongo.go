package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/cleanup-sponsorship-go/models"
)

const (
	colUsers         = "users"
	colEvents        = "events"
	colSponsorships  = "sponsorships"
	colRegistrations = "registrations"
)

// Mongo is the production Store. With transactions enabled (replica set
// required) a sponsorship insert and its event counter update commit
// together; without them the insert is still guarded by a unique index and
// the counters still move with $inc, so concurrent sponsors never lose
// updates.
type Mongo struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

var _ Store = (*Mongo)(nil)

func NewMongo(client *mongo.Client, dbName string, transactions bool) *Mongo {
	return &Mongo{
		client:       client,
		db:           client.Database(dbName),
		transactions: transactions,
	}
}

// EnsureIndexes creates the unique indexes the duplicate checks rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		colEvents: {
			{Keys: bson.D{{Key: "organizerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colSponsorships: {
			{Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "sponsorId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "sponsorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colRegistrations: {
			{Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "volunteerId", Value: 1}}, Options: unique},
		},
	}
	for col, idx := range specs {
		if _, err := m.db.Collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", col, err)
		}
	}
	return nil
}

func (m *Mongo) col(name string) *mongo.Collection {
	return m.db.Collection(name)
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter any) (*T, error) {
	var out T
	if err := col.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

// ---------------- USERS ----------------

func (m *Mongo) CreateUser(ctx context.Context, u *models.User) error {
	ensureID(&u.ID)
	u.Email = strings.ToLower(u.Email)
	if _, err := m.col(colUsers).InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *Mongo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, m.col(colUsers), bson.M{"_id": id})
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, m.col(colUsers), bson.M{"email": strings.ToLower(email)})
}

func (m *Mongo) UpdatePreferences(ctx context.Context, id primitive.ObjectID, prefs models.Preferences, at time.Time) error {
	res, err := m.col(colUsers).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"preferences": prefs, "updatedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------- EVENTS ----------------

func (m *Mongo) CreateEvent(ctx context.Context, ev *models.Event) error {
	ensureID(&ev.ID)
	if _, err := m.col(colEvents).InsertOne(ctx, ev); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (m *Mongo) GetEvent(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	return findOne[models.Event](ctx, m.col(colEvents), bson.M{"_id": id})
}

func (m *Mongo) ListEvents(ctx context.Context, f EventFilter) ([]models.Event, error) {
	filter := bson.M{}
	if f.OrganizerID != nil {
		filter["organizerId"] = *f.OrganizerID
	}
	if f.SponsorshipRequired != nil {
		filter["sponsorshipRequired"] = *f.SponsorshipRequired
	}
	if f.Query != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(f.Query), "$options": "i"}
	}
	events, err := findAll[models.Event](ctx, m.col(colEvents), filter, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func eventPatchSet(p models.EventPatch, at time.Time) bson.M {
	set := bson.M{"updatedAt": at}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.EventAt != nil {
		set["eventAt"] = *p.EventAt
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	if p.SponsorshipRequired != nil {
		set["sponsorshipRequired"] = *p.SponsorshipRequired
	}
	if p.FundingGoal != nil {
		set["fundingGoal"] = *p.FundingGoal
	}
	if p.MaxVolunteers != nil {
		set["maxVolunteers"] = *p.MaxVolunteers
	}
	if p.Images != nil {
		set["images"] = *p.Images
	}
	return set
}

func (m *Mongo) UpdateEvent(ctx context.Context, id primitive.ObjectID, p models.EventPatch, at time.Time) (*models.Event, error) {
	var updated models.Event
	err := m.col(colEvents).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": eventPatchSet(p, at)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return &updated, nil
}

func (m *Mongo) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col(colEvents).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	if _, err := m.col(colRegistrations).DeleteMany(ctx, bson.M{"eventId": id}); err != nil {
		return fmt.Errorf("delete event registrations: %w", err)
	}
	return nil
}

// ---------------- SPONSORSHIPS ----------------

func (m *Mongo) HasSponsorship(ctx context.Context, eventID, sponsorID primitive.ObjectID) (bool, error) {
	n, err := m.col(colSponsorships).CountDocuments(ctx,
		bson.M{"eventId": eventID, "sponsorId": sponsorID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("count sponsorships: %w", err)
	}
	return n > 0, nil
}

func (m *Mongo) RecordSponsorship(ctx context.Context, sp *models.Sponsorship) error {
	ensureID(&sp.ID)
	if !m.transactions {
		return insertThenIncrement(ctx,
			func(ctx context.Context) error { return m.insertSponsorship(ctx, sp) },
			func(ctx context.Context) error { return m.incrementFunding(ctx, sp) },
			func(ctx context.Context) error {
				_, err := m.col(colSponsorships).DeleteOne(ctx, bson.M{"_id": sp.ID})
				return err
			},
		)
	}

	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := m.insertSponsorship(sc, sp); err != nil {
			return nil, err
		}
		return nil, m.incrementFunding(sc, sp)
	})
	return err
}

const compensateTimeout = 5 * time.Second

// insertThenIncrement performs the two sponsorship writes without a
// transaction. If the insert succeeded but the increment did not, the
// inserted document is removed so the sponsor can retry.
func insertThenIncrement(ctx context.Context, insert, increment, remove func(context.Context) error) error {
	if err := insert(ctx); err != nil {
		return err
	}
	err := increment(ctx)
	if err == nil {
		return nil
	}

	// ctx may be the reason increment failed
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()
	if delErr := remove(cleanupCtx); delErr != nil {
		return errors.Join(err, fmt.Errorf("remove orphaned sponsorship: %w", delErr))
	}
	return err
}

func (m *Mongo) insertSponsorship(ctx context.Context, sp *models.Sponsorship) error {
	if _, err := m.col(colSponsorships).InsertOne(ctx, sp); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert sponsorship: %w", err)
	}
	return nil
}

func (m *Mongo) incrementFunding(ctx context.Context, sp *models.Sponsorship) error {
	inc := bson.M{"sponsorCount": 1}
	if sp.Amount > 0 {
		inc["currentFunding"] = sp.Amount
	}
	res, err := m.col(colEvents).UpdateOne(ctx,
		bson.M{"_id": sp.EventID},
		bson.M{"$inc": inc, "$set": bson.M{"updatedAt": sp.CreatedAt}},
	)
	if err != nil {
		return fmt.Errorf("increment event funding: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) GetSponsorship(ctx context.Context, id primitive.ObjectID) (*models.Sponsorship, error) {
	return findOne[models.Sponsorship](ctx, m.col(colSponsorships), bson.M{"_id": id})
}

func (m *Mongo) ListSponsorships(ctx context.Context, f SponsorshipFilter) ([]models.Sponsorship, error) {
	filter := bson.M{}
	if f.EventID != nil {
		filter["eventId"] = *f.EventID
	}
	if f.SponsorID != nil {
		filter["sponsorId"] = *f.SponsorID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	out, err := findAll[models.Sponsorship](ctx, m.col(colSponsorships), filter, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("list sponsorships: %w", err)
	}
	return out, nil
}

func (m *Mongo) SetSponsorshipStatus(ctx context.Context, id primitive.ObjectID, from, to models.SponsorshipStatus, at time.Time) error {
	res, err := m.col(colSponsorships).UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("update sponsorship status: %w", err)
	}
	if res.MatchedCount == 0 {
		return m.missingOrConflict(ctx, colSponsorships, id)
	}
	return nil
}

// ---------------- REGISTRATIONS ----------------

func (m *Mongo) CreateRegistration(ctx context.Context, r *models.Registration) error {
	ensureID(&r.ID)
	if _, err := m.col(colRegistrations).InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (m *Mongo) GetRegistration(ctx context.Context, id primitive.ObjectID) (*models.Registration, error) {
	return findOne[models.Registration](ctx, m.col(colRegistrations), bson.M{"_id": id})
}

func (m *Mongo) ListRegistrations(ctx context.Context, eventID primitive.ObjectID) ([]models.Registration, error) {
	out, err := findAll[models.Registration](ctx, m.col(colRegistrations),
		bson.M{"eventId": eventID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

func (m *Mongo) CountRegistrations(ctx context.Context, eventID primitive.ObjectID) (int, error) {
	n, err := m.col(colRegistrations).CountDocuments(ctx, bson.M{"eventId": eventID})
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return int(n), nil
}

func (m *Mongo) CheckIn(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := m.col(colRegistrations).UpdateOne(ctx,
		bson.M{"_id": id, "checkedIn": false},
		bson.M{"$set": bson.M{"checkedIn": true, "checkedInAt": at}},
	)
	if err != nil {
		return fmt.Errorf("check in: %w", err)
	}
	if res.MatchedCount == 0 {
		return m.missingOrConflict(ctx, colRegistrations, id)
	}
	return nil
}

func (m *Mongo) missingOrConflict(ctx context.Context, col string, id primitive.ObjectID) error {
	n, err := m.col(col).CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}
