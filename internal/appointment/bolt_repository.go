package appointment

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

var appointmentsBucket = []byte("appointments")

// BoltRepository keeps appointments in an embedded bbolt file. Keys are the
// big-endian id taken from the bucket sequence, so ids are never reused.
type BoltRepository struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewBoltRepository creates the appointments bucket if it does not exist.
func NewBoltRepository(db *bbolt.DB) (*BoltRepository, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(appointmentsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create appointments bucket: %w", err)
	}
	return &BoltRepository{db: db, now: time.Now}, nil
}

// Create stores a pending appointment under the next bucket sequence.
func (r *BoltRepository) Create(_ context.Context, in NewAppointment) (int64, error) {
	var id int64
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(appointmentsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = int64(seq)
		return put(b, &Appointment{
			ID:            id,
			Subject:       in.Subject,
			ScheduledTime: in.ScheduledTime,
			Contact:       in.Contact,
			Status:        StatusPending,
			CreatedAt:     r.now(),
		})
	})
	if err != nil {
		return 0, fmt.Errorf("insert appointment: %w", err)
	}
	return id, nil
}

// ListActive scans the bucket and sorts matches by scheduled time.
func (r *BoltRepository) ListActive(_ context.Context, filter ContactFilter) ([]Appointment, error) {
	out, err := r.scan(func(a *Appointment) bool {
		return a.Status != StatusCancelled && filter.Matches(a.Contact)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out, nil
}

// ListPending returns pending appointments in key order.
func (r *BoltRepository) ListPending(_ context.Context) ([]Appointment, error) {
	return r.scan(func(a *Appointment) bool { return a.Status == StatusPending })
}

// MarkSent moves a pending appointment to sent inside one write transaction.
func (r *BoltRepository) MarkSent(_ context.Context, id int64) (bool, error) {
	var moved bool
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(appointmentsBucket)
		a, err := get(b, id)
		if err != nil || a == nil || a.Status != StatusPending {
			return err
		}
		a.Status = StatusSent
		if err := put(b, a); err != nil {
			return err
		}
		moved = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

// Cancel marks the appointment cancelled and returns the stored record as it
// was before.
func (r *BoltRepository) Cancel(_ context.Context, id int64) (*Appointment, error) {
	var prev Appointment
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(appointmentsBucket)
		a, err := get(b, id)
		if err != nil {
			return err
		}
		if a == nil {
			return ErrNotFound
		}
		prev = *a
		a.Status = StatusCancelled
		return put(b, a)
	})
	if err != nil {
		return nil, err
	}
	return &prev, nil
}

// Update overwrites subject and time and puts the appointment back to pending.
func (r *BoltRepository) Update(_ context.Context, id int64, subject string, at time.Time) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(appointmentsBucket)
		a, err := get(b, id)
		if err != nil {
			return err
		}
		if a == nil {
			return ErrNotFound
		}
		a.Subject = subject
		a.ScheduledTime = at
		a.Status = StatusPending
		return put(b, a)
	})
}

// Ping checks that the appointments bucket is readable.
func (r *BoltRepository) Ping(_ context.Context) error {
	return r.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(appointmentsBucket) == nil {
			return fmt.Errorf("bucket %s missing", appointmentsBucket)
		}
		return nil
	})
}

func (r *BoltRepository) scan(keep func(*Appointment) bool) ([]Appointment, error) {
	var out []Appointment
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(appointmentsBucket).ForEach(func(_, v []byte) error {
			var a Appointment
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			if keep(&a) {
				out = append(out, a)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("scan appointments: %w", err)
	}
	return out, nil
}

func key(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func get(b *bbolt.Bucket, id int64) (*Appointment, error) {
	v := b.Get(key(id))
	if v == nil {
		return nil, nil
	}
	var a Appointment
	if err := json.Unmarshal(v, &a); err != nil {
		return nil, fmt.Errorf("decode appointment %d: %w", id, err)
	}
	return &a, nil
}

func put(b *bbolt.Bucket, a *Appointment) error {
	v, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode appointment %d: %w", a.ID, err)
	}
	return b.Put(key(a.ID), v)
}
