package inbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collection = "app_inbox"
	// retention is how long a handled event id is remembered. Redeliveries
	// older than this are processed again.
	retention = 14 * 24 * time.Hour
)

// Store remembers which events a consumer group has handled. Each record's
// _id is "<consumer>/<event id>", so the primary key enforces uniqueness.
type Store struct {
	col      *mongo.Collection
	consumer string
}

func NewStore(ctx context.Context, db *mongo.Database, consumer string) (*Store, error) {
	col := db.Collection(collection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "received_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())),
	})
	if err != nil {
		return nil, err
	}
	return &Store{col: col, consumer: consumer}, nil
}

type entry struct {
	ID         string    `bson:"_id"`
	Consumer   string    `bson:"consumer"`
	EventID    string    `bson:"event_id"`
	ReceivedAt time.Time `bson:"received_at"`
}

func (s *Store) id(eventID string) string { return s.consumer + "/" + eventID }

// Seen claims eventID for this consumer and reports whether an earlier
// delivery already claimed it.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := s.col.InsertOne(ctx, entry{
		ID:         s.id(eventID),
		Consumer:   s.consumer,
		EventID:    eventID,
		ReceivedAt: time.Now().UTC(),
	})
	switch {
	case err == nil:
		return false, nil
	case mongo.IsDuplicateKeyError(err):
		return true, nil
	default:
		return false, err
	}
}

// Forget releases the claim so the next delivery is handled again.
func (s *Store) Forget(ctx context.Context, eventID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": s.id(eventID)})
	return err
}
