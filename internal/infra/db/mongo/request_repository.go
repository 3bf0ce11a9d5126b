package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "luxrent/internal/domain/booking"
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/daterange"
	"luxrent/internal/domain/shared/dateonly"
	"luxrent/internal/domain/shared/money"
)

type RequestRepository struct {
	col *mongo.Collection
}

func NewRequestRepository(ctx context.Context, db *mongo.Database) (*RequestRepository, error) {
	col := db.Collection("booking_requests")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "start", Value: 1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &RequestRepository{col: col}, nil
}

func (r *RequestRepository) ByID(ctx context.Context, id domainbooking.RequestID) (*domainbooking.Request, error) {
	var doc requestDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrRequestNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *RequestRepository) Save(ctx context.Context, req *domainbooking.Request) error {
	doc := newRequestDocument(req)
	filter := bson.M{"_id": doc.ID, "version": req.Version}
	doc.Version = req.Version + 1
	update := bson.M{"$set": doc}
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
	req.Version = doc.Version
	return nil
}

func (r *RequestRepository) ListPending(ctx context.Context) ([]*domainbooking.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"status": string(domainbooking.StatusPending)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*domainbooking.Request, 0)
	for cur.Next(ctx) {
		var doc requestDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		req, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, cur.Err()
}

type requestDocument struct {
	ID        string           `bson:"_id"`
	CarID     string           `bson:"car_id"`
	Start     string           `bson:"start"`
	End       string           `bson:"end"`
	Days      int              `bson:"days"`
	Tier      string           `bson:"tier"`
	Total     int64            `bson:"total_price"`
	Customer  customerDocument `bson:"customer"`
	Message   string           `bson:"message,omitempty"`
	Status    string           `bson:"status"`
	Reason    string           `bson:"reason,omitempty"`
	CreatedAt time.Time        `bson:"created_at"`
	UpdatedAt time.Time        `bson:"updated_at"`
	Version   int64            `bson:"version"`
}

type customerDocument struct {
	Name  string `bson:"name"`
	Email string `bson:"email,omitempty"`
	Phone string `bson:"phone,omitempty"`
}

func newRequestDocument(r *domainbooking.Request) requestDocument {
	return requestDocument{
		ID:        string(r.ID),
		CarID:     r.CarID,
		Start:     r.Range.Start.String(),
		End:       r.Range.End.String(),
		Days:      r.Days,
		Tier:      string(r.Tier),
		Total:     r.Total.Int64(),
		Customer:  customerDocument{Name: r.Customer.Name, Email: r.Customer.Email, Phone: r.Customer.Phone},
		Message:   r.Message,
		Status:    string(r.Status),
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		Version:   r.Version,
	}
}

func (d requestDocument) toAggregate() (*domainbooking.Request, error) {
	start, err := dateonly.Parse(d.Start)
	if err != nil {
		return nil, err
	}
	end, err := dateonly.Parse(d.End)
	if err != nil {
		return nil, err
	}
	return &domainbooking.Request{
		ID:        domainbooking.RequestID(d.ID),
		CarID:     d.CarID,
		Range:     daterange.DateRange{Start: start, End: end},
		Days:      d.Days,
		Tier:      pricing.Tier(d.Tier),
		Total:     money.Money(d.Total),
		Customer:  domainbooking.Customer{Name: d.Customer.Name, Email: d.Customer.Email, Phone: d.Customer.Phone},
		Message:   d.Message,
		Status:    domainbooking.Status(d.Status),
		Reason:    d.Reason,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
		Version:   d.Version,
	}, nil
}

var _ domainbooking.Repository = (*RequestRepository)(nil)
