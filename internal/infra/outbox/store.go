package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "luxrent/internal/app/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"

	// claimLease is how long a claim holds before another worker may take
	// the record over, e.g. after the first worker crashed mid-publish.
	claimLease = time.Minute
	// sentRetention keeps published records around for inspection.
	sentRetention = 72 * time.Hour
)

// Store keeps outbox records in Mongo. Add joins the session carried by ctx,
// so records commit together with the aggregates that produced them.
type Store struct {
	col *mongo.Collection
	now func() time.Time
}

func NewStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	col := db.Collection("app_outbox")
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		{Keys: bson.D{{Key: "sent_at", Value: 1}}, Options: options.Index().
			SetExpireAfterSeconds(int32(sentRetention.Seconds())).
			SetPartialFilterExpression(bson.M{"state": stateSent})},
	})
	if err != nil {
		return nil, err
	}
	return &Store{col: col, now: time.Now}, nil
}

type eventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers,omitempty"`
	State       string            `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	ClaimedBy   string            `bson:"claimed_by,omitempty"`
	SentAt      *time.Time        `bson:"sent_at,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
	CreatedAt   time.Time         `bson:"created_at"`
}

func newEventDocument(rec appoutbox.EventRecord, now time.Time) eventDocument {
	return eventDocument{
		ID:          rec.ID,
		Name:        rec.Name,
		Payload:     rec.Payload,
		OccurredAt:  rec.OccurredAt,
		Aggregate:   rec.Aggregate,
		Headers:     rec.Headers,
		State:       stateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
}

func (d eventDocument) message() *Message {
	return &Message{
		ID:         d.ID,
		Name:       d.Name,
		Payload:    d.Payload,
		OccurredAt: d.OccurredAt,
		Aggregate:  d.Aggregate,
		Headers:    d.Headers,
		Attempts:   d.Attempts,
	}
}

func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	_, err := s.col.InsertOne(ctx, newEventDocument(record, s.now().UTC()))
	return err
}

// Flush is a no-op: the worker polls.
func (s *Store) Flush(context.Context) error { return nil }

// claimFilter matches records due for publishing: new or failed ones whose
// retry time has come, and claims whose lease ran out.
func claimFilter(now time.Time) bson.M {
	return bson.M{
		"state":           bson.M{"$in": bson.A{stateNew, stateFailed, stateClaimed}},
		"next_attempt_at": bson.M{"$lte": now},
	}
}

// Claim takes the oldest due record. Claiming pushes next_attempt_at one lease
// ahead, which is what expires the claim.
func (s *Store) Claim(ctx context.Context, workerID string) (*Message, error) {
	now := s.now().UTC()
	update := bson.M{"$set": bson.M{
		"state":           stateClaimed,
		"claimed_by":      workerID,
		"next_attempt_at": now.Add(claimLease),
	}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}, {Key: "created_at", Value: 1}})
	var doc eventDocument
	err := s.col.FindOneAndUpdate(ctx, claimFilter(now), update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.message(), nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": stateSent, "sent_at": s.now().UTC()}})
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"state": stateFailed, "next_attempt_at": next, "last_error": errMsg},
		"$inc": bson.M{"attempts": 1},
	})
	return err
}

var (
	_ appoutbox.Outbox = (*Store)(nil)
	_ Source           = (*Store)(nil)
)
