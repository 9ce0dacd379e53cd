package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const appointmentsCounter = "appointments"

// MongoRepository stores appointments in a MongoDB collection. Integer ids come
// from an atomically incremented document in the counters collection.
type MongoRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
	now        func() time.Time
}

// NewMongoRepository wires the collections and makes sure the due-item index exists.
func NewMongoRepository(ctx context.Context, db *mongo.Database) (*MongoRepository, error) {
	r := &MongoRepository{
		collection: db.Collection("appointments"),
		counters:   db.Collection("counters"),
		now:        time.Now,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "time", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create status/time index: %w", err)
	}
	return r, nil
}

func (r *MongoRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": appointmentsCounter},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate appointment id: %w", err)
	}
	return counter.Seq, nil
}

func (r *MongoRepository) Create(ctx context.Context, in NewAppointment) (int64, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return 0, err
	}
	a := Appointment{
		ID:            id,
		Subject:       in.Subject,
		ScheduledTime: in.ScheduledTime,
		Contact:       in.Contact,
		Status:        StatusPending,
		CreatedAt:     r.now(),
	}
	if _, err := r.collection.InsertOne(ctx, a); err != nil {
		return 0, fmt.Errorf("insert appointment: %w", err)
	}
	return id, nil
}

func (r *MongoRepository) ListActive(ctx context.Context, filter ContactFilter) ([]Appointment, error) {
	q := bson.M{"status": bson.M{"$ne": StatusCancelled}}
	if !filter.Empty() {
		var or bson.A
		if filter.Email != "" {
			or = append(or, bson.M{"contact_email": filter.Email})
		}
		if filter.Phone != "" {
			or = append(or, bson.M{"contact_phone": filter.Phone})
		}
		q["$or"] = or
	}
	opts := options.Find().SetSort(bson.D{{Key: "time", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, q, opts)
}

func (r *MongoRepository) ListPending(ctx context.Context) ([]Appointment, error) {
	return r.find(ctx, bson.M{"status": StatusPending})
}

func (r *MongoRepository) find(ctx context.Context, q bson.M, opts ...*options.FindOptions) ([]Appointment, error) {
	cursor, err := r.collection.Find(ctx, q, opts...)
	if err != nil {
		return nil, fmt.Errorf("find appointments: %w", err)
	}
	var out []Appointment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	return out, nil
}

func (r *MongoRepository) MarkSent(ctx context.Context, id int64) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": StatusPending},
		bson.M{"$set": bson.M{"status": StatusSent}},
	)
	if err != nil {
		return false, fmt.Errorf("mark appointment %d sent: %w", id, err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoRepository) Cancel(ctx context.Context, id int64) (*Appointment, error) {
	var prev Appointment
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": StatusCancelled}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&prev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cancel appointment %d: %w", id, err)
	}
	return &prev, nil
}

func (r *MongoRepository) Update(ctx context.Context, id int64, subject string, at time.Time) error {
	res, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"subject": subject,
		"time":    at,
		"status":  StatusPending,
	}})
	if err != nil {
		return fmt.Errorf("update appointment %d: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, nil)
}
