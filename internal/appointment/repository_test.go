package appointment

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"AppointmentReminder/internal/config"
)

func TestBoltRepository(t *testing.T) {
	testRepository(t, newBoltRepo(t))
}

func TestMongoRepository(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	client, db, err := config.ConnectMongo(ctx, uri, "reminder_test_"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	repo, err := NewMongoRepository(ctx, db)
	if err != nil {
		t.Fatalf("new mongo repository: %v", err)
	}
	testRepository(t, repo)
}

func TestPostgresRepository(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := config.ConnectPostgres(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	repo, err := NewPostgresRepository(ctx, pool)
	if err != nil {
		t.Fatalf("new postgres repository: %v", err)
	}
	testRepository(t, repo)
}

// testRepository exercises behaviour every backend must share. Contacts are
// unique per run so shared databases do not interfere.
func testRepository(t *testing.T, repo Repository) {
	ctx := context.Background()
	email := "user-" + uuid.NewString()[:8] + "@example.com"
	phone := "+1555" + uuid.NewString()[:7]
	at := time.Now().Add(time.Hour).Truncate(time.Second)

	create := func(t *testing.T, subject string, when time.Time, c Contact) int64 {
		t.Helper()
		id, err := repo.Create(ctx, NewAppointment{Subject: subject, ScheduledTime: when, Contact: c})
		if err != nil {
			t.Fatalf("create %q: %v", subject, err)
		}
		return id
	}
	find := func(list []Appointment, id int64) *Appointment {
		for i := range list {
			if list[i].ID == id {
				return &list[i]
			}
		}
		return nil
	}

	t.Run("ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})

	t.Run("ids increase and records start pending", func(t *testing.T) {
		c := Contact{Email: email, EmailEnabled: true}
		first := create(t, "first", at, c)
		second := create(t, "second", at, c)
		if second <= first {
			t.Fatalf("ids not increasing: %d then %d", first, second)
		}
		pending, err := repo.ListPending(ctx)
		if err != nil {
			t.Fatalf("list pending: %v", err)
		}
		got := find(pending, first)
		if got == nil {
			t.Fatalf("appointment %d missing from pending list", first)
		}
		if got.Status != StatusPending || got.Subject != "first" || got.Email != email || !got.EmailEnabled {
			t.Fatalf("unexpected record: %+v", got)
		}
		if !got.ScheduledTime.Equal(at) {
			t.Fatalf("time round trip: got %v want %v", got.ScheduledTime, at)
		}
	})

	t.Run("list active filters by contact and orders by time", func(t *testing.T) {
		phoneOnly := Contact{Phone: phone, SMSEnabled: true}
		late := create(t, "late", at.Add(2*time.Hour), phoneOnly)
		early := create(t, "early", at.Add(-30*time.Minute), phoneOnly)

		list, err := repo.ListActive(ctx, ContactFilter{Phone: phone})
		if err != nil {
			t.Fatalf("list active: %v", err)
		}
		if len(list) != 2 || list[0].ID != early || list[1].ID != late {
			t.Fatalf("want [%d %d] in time order, got %+v", early, late, list)
		}

		both, err := repo.ListActive(ctx, ContactFilter{Email: email, Phone: phone})
		if err != nil {
			t.Fatalf("list active: %v", err)
		}
		if len(both) < 4 {
			t.Fatalf("email OR phone filter returned %d records, want at least 4", len(both))
		}
		for i := 1; i < len(both); i++ {
			if both[i].ScheduledTime.Before(both[i-1].ScheduledTime) {
				t.Fatalf("records out of order at %d", i)
			}
		}
	})

	t.Run("mark sent only moves pending records", func(t *testing.T) {
		c := Contact{Email: "sent-" + email}
		id := create(t, "to send", at, c)
		moved, err := repo.MarkSent(ctx, id)
		if err != nil || !moved {
			t.Fatalf("mark sent: moved=%v err=%v", moved, err)
		}
		list, _ := repo.ListActive(ctx, ContactFilter{Email: c.Email})
		if got := find(list, id); got == nil || got.Status != StatusSent {
			t.Fatalf("want sent record, got %+v", got)
		}
		if moved, err := repo.MarkSent(ctx, id); err != nil || moved {
			t.Fatalf("second mark sent: moved=%v err=%v", moved, err)
		}

		cancelled := create(t, "cancelled first", at, c)
		if _, err := repo.Cancel(ctx, cancelled); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if moved, err := repo.MarkSent(ctx, cancelled); err != nil || moved {
			t.Fatalf("mark sent on cancelled: moved=%v err=%v", moved, err)
		}
		list, _ = repo.ListActive(ctx, ContactFilter{Email: c.Email})
		if find(list, cancelled) != nil {
			t.Fatal("cancelled appointment came back after MarkSent")
		}

		if moved, err := repo.MarkSent(ctx, 1<<40); err != nil || moved {
			t.Fatalf("mark sent on missing id: moved=%v err=%v", moved, err)
		}
	})

	t.Run("cancel a sent appointment", func(t *testing.T) {
		c := Contact{Email: "cancel-sent-" + email, EmailEnabled: true}
		id := create(t, "already reminded", at, c)
		if _, err := repo.MarkSent(ctx, id); err != nil {
			t.Fatalf("mark sent: %v", err)
		}
		prev, err := repo.Cancel(ctx, id)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if prev.Status != StatusSent || prev.Email != c.Email {
			t.Fatalf("unexpected previous record: %+v", prev)
		}
		list, _ := repo.ListActive(ctx, ContactFilter{Email: c.Email})
		if find(list, id) != nil {
			t.Fatal("cancelled record still listed")
		}
	})

	t.Run("cancel returns previous record and hides it", func(t *testing.T) {
		c := Contact{Email: "cancel-" + email, EmailEnabled: true}
		id := create(t, "to cancel", at, c)
		prev, err := repo.Cancel(ctx, id)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if prev.Status != StatusPending || prev.Subject != "to cancel" || prev.Email != c.Email {
			t.Fatalf("unexpected previous record: %+v", prev)
		}
		list, _ := repo.ListActive(ctx, ContactFilter{Email: c.Email})
		if len(list) != 0 {
			t.Fatalf("cancelled record still listed: %+v", list)
		}
		pending, _ := repo.ListPending(ctx)
		if find(pending, id) != nil {
			t.Fatal("cancelled record still pending")
		}

		again, err := repo.Cancel(ctx, id)
		if err != nil {
			t.Fatalf("second cancel: %v", err)
		}
		if again.Status != StatusCancelled {
			t.Fatalf("second cancel previous status = %s", again.Status)
		}

		if _, err := repo.Cancel(ctx, 1<<40); !errors.Is(err, ErrNotFound) {
			t.Fatalf("cancel missing: want ErrNotFound, got %v", err)
		}
	})

	t.Run("update resets to pending", func(t *testing.T) {
		c := Contact{Email: "update-" + email}
		id := create(t, "old", at, c)
		if _, err := repo.MarkSent(ctx, id); err != nil {
			t.Fatalf("mark sent: %v", err)
		}
		later := at.Add(24 * time.Hour)
		if err := repo.Update(ctx, id, "new", later); err != nil {
			t.Fatalf("update: %v", err)
		}
		list, _ := repo.ListActive(ctx, ContactFilter{Email: c.Email})
		got := find(list, id)
		if got == nil || got.Subject != "new" || got.Status != StatusPending || !got.ScheduledTime.Equal(later) {
			t.Fatalf("unexpected updated record: %+v", got)
		}

		cancelled := create(t, "cancelled", at, c)
		if _, err := repo.Cancel(ctx, cancelled); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if err := repo.Update(ctx, cancelled, "revived", later); err != nil {
			t.Fatalf("update cancelled: %v", err)
		}
		pending, _ := repo.ListPending(ctx)
		got = find(pending, cancelled)
		if got == nil || got.Subject != "revived" || !got.ScheduledTime.Equal(later) {
			t.Fatalf("cancelled appointment not back to pending: %+v", got)
		}

		if err := repo.Update(ctx, 1<<40, "x", later); !errors.Is(err, ErrNotFound) {
			t.Fatalf("update missing: want ErrNotFound, got %v", err)
		}
	})
}
