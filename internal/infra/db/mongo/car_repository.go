package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"luxrent/internal/app/uow"
	"luxrent/internal/domain/availability"
	domaincars "luxrent/internal/domain/cars"
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/dateonly"
	"luxrent/internal/domain/shared/money"
)

var ErrConcurrentUpdate = fmt.Errorf("mongo: %w", uow.ErrConcurrentUpdate)

// CarRepository reads the car catalog collection. Documents are written by
// the catalog admin, so prices and dates are decoded leniently.
type CarRepository struct {
	col *mongo.Collection
}

func NewCarRepository(db *mongo.Database) *CarRepository {
	return &CarRepository{col: db.Collection("cars")}
}

func (r *CarRepository) ByID(ctx context.Context, id domaincars.CarID) (*domaincars.Car, error) {
	var doc carDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincars.ErrCarNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

// Save writes pricing and the unavailable dates back, guarded by version.
// Catalog fields this service does not own are left untouched.
func (r *CarRepository) Save(ctx context.Context, car *domaincars.Car) error {
	filter := bson.M{"_id": string(car.ID)}
	if car.Version > 0 {
		filter["version"] = car.Version
	} else {
		filter["version"] = bson.M{"$in": bson.A{nil, int64(0)}}
	}
	next := car.Version + 1
	blocks := make([]blockDocument, 0, len(car.Blocked()))
	for _, b := range car.Blocked() {
		blocks = append(blocks, blockDocument{From: b.From.String(), To: b.To.String(), Reference: b.Reference})
	}
	update := bson.M{"$set": bson.M{
		"brand": car.Brand,
		"model": car.Model,
		"pricing": bson.M{
			"daily":   car.Pricing.Daily.Int64(),
			"weekly":  car.Pricing.Weekly.Int64(),
			"monthly": car.Pricing.Monthly.Int64(),
		},
		"unavailableDates": blocks,
		"version":          next,
		"updatedAt":        time.Now().UTC(),
	}}
	res, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	car.Version = next
	return nil
}

type carDocument struct {
	ID      string `bson:"_id"`
	Brand   string `bson:"brand"`
	Model   string `bson:"model"`
	Pricing struct {
		Daily   any `bson:"daily"`
		Weekly  any `bson:"weekly"`
		Monthly any `bson:"monthly"`
	} `bson:"pricing"`
	UnavailableDates []struct {
		From      any    `bson:"from"`
		To        any    `bson:"to"`
		Reference string `bson:"reference"`
	} `bson:"unavailableDates"`
	Version int64 `bson:"version"`
}

type blockDocument struct {
	From      string `bson:"from"`
	To        string `bson:"to"`
	Reference string `bson:"reference,omitempty"`
}

func (d carDocument) toAggregate() (*domaincars.Car, error) {
	blocks := make([]availability.BlockedRange, 0, len(d.UnavailableDates))
	for i, u := range d.UnavailableDates {
		from, err := decodeDate(u.From)
		if err != nil {
			return nil, fmt.Errorf("car %s: unavailableDates[%d].from: %w", d.ID, i, err)
		}
		to, err := decodeDate(u.To)
		if err != nil {
			return nil, fmt.Errorf("car %s: unavailableDates[%d].to: %w", d.ID, i, err)
		}
		blocks = append(blocks, availability.BlockedRange{From: from, To: to, Reference: u.Reference})
	}
	car, err := domaincars.NewCar(domaincars.CreateParams{
		ID:    domaincars.CarID(d.ID),
		Brand: d.Brand,
		Model: d.Model,
		Pricing: pricing.RateSchedule{
			Daily:   money.Coerce(d.Pricing.Daily),
			Weekly:  money.Coerce(d.Pricing.Weekly),
			Monthly: money.Coerce(d.Pricing.Monthly),
		},
		Unavailable: blocks,
	})
	if err != nil {
		return nil, err
	}
	car.Version = d.Version
	return car, nil
}

// decodeDate accepts ISO strings (date or date-time) and BSON dates. Stored
// instants are read in UTC, which is how the catalog writes calendar days.
func decodeDate(v any) (dateonly.Date, error) {
	switch t := v.(type) {
	case string:
		return dateonly.Parse(t)
	case primitive.DateTime:
		return dateonly.FromTime(t.Time(), time.UTC), nil
	case time.Time:
		return dateonly.FromTime(t, time.UTC), nil
	case nil:
		return dateonly.Date{}, dateonly.ErrInvalidDate
	default:
		return dateonly.Date{}, fmt.Errorf("%w: unsupported type %T", dateonly.ErrInvalidDate, v)
	}
}

var _ domaincars.Repository = (*CarRepository)(nil)
