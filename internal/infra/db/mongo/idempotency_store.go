package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"luxrent/internal/app/middleware"
)

const idempotencyCollection = "app_idempotency"

// IdempotencyStore keeps replayable command results keyed by the client's
// Idempotency-Key. A TTL index reaps old records; Reserve also replaces
// records past the TTL that the reaper has not removed yet.
type IdempotencyStore struct {
	col *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	col := db.Collection(idempotencyCollection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	})
	if err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col, ttl: ttl, now: time.Now}, nil
}

// Reserve inserts an in-flight record for the key. The unique _id makes the
// insert the point where concurrent requests are ordered. An expired record or
// a reservation past its lease is replaced in place.
func (s *IdempotencyStore) Reserve(ctx context.Context, rec middleware.IdempotencyRecord) (middleware.IdempotencyRecord, bool, error) {
	now := s.now().UTC()
	doc := newIdempotencyDocument(rec, now)
	_, err := s.col.InsertOne(ctx, doc)
	if err == nil {
		return rec, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return middleware.IdempotencyRecord{}, false, err
	}
	res, err := s.col.ReplaceOne(ctx, staleFilter(rec.Key, now, s.ttl), doc)
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	if res.MatchedCount == 1 {
		return rec, true, nil
	}
	var held idempotencyDocument
	err = s.col.FindOne(ctx, bson.M{"_id": rec.Key}).Decode(&held)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Released between the insert and the lookup; the next attempt wins it.
		return middleware.IdempotencyRecord{Key: rec.Key, Command: rec.Command, Fingerprint: rec.Fingerprint, InFlight: true}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return held.toRecord(), false, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, rec middleware.IdempotencyRecord) error {
	rec.InFlight = false
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": rec.Key}, newIdempotencyDocument(rec, s.now().UTC()), options.Replace().SetUpsert(true))
	return err
}

// Release drops an unfinished reservation. Completed records stay.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": key, "in_flight": true})
	return err
}

// staleFilter matches a record for key that no longer holds it: past the
// TTL, or still in flight after the reservation lease.
func staleFilter(key string, now time.Time, ttl time.Duration) bson.M {
	return bson.M{
		"_id": key,
		"$or": bson.A{
			bson.M{"created_at": bson.M{"$lte": now.Add(-ttl)}},
			bson.M{"in_flight": true, "created_at": bson.M{"$lte": now.Add(-middleware.ReservationLease)}},
		},
	}
}

type idempotencyDocument struct {
	Key         string    `bson:"_id"`
	Command     string    `bson:"command"`
	Fingerprint string    `bson:"fingerprint,omitempty"`
	Payload     []byte    `bson:"payload,omitempty"`
	InFlight    bool      `bson:"in_flight"`
	OccurredAt  time.Time `bson:"occurred_at"`
	CreatedAt   time.Time `bson:"created_at"`
}

func newIdempotencyDocument(rec middleware.IdempotencyRecord, now time.Time) idempotencyDocument {
	return idempotencyDocument{
		Key:         rec.Key,
		Command:     rec.Command,
		Fingerprint: rec.Fingerprint,
		Payload:     rec.Payload,
		InFlight:    rec.InFlight,
		OccurredAt:  rec.OccurredAt,
		CreatedAt:   now,
	}
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		Key:         d.Key,
		Command:     d.Command,
		Fingerprint: d.Fingerprint,
		Payload:     d.Payload,
		InFlight:    d.InFlight,
		OccurredAt:  d.OccurredAt,
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
