package appointment

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"AppointmentReminder/internal/config"
	"AppointmentReminder/internal/notify"
	"AppointmentReminder/internal/timeparse"
)

var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local)

type sentMessage struct {
	Channel string
	To      string
	Subject string
	Body    string
}

type fakeNotifier struct {
	mu           sync.Mutex
	sent         []sentMessage
	smsSimulated bool
	failEmail    bool
	onSend       func()
}

func (f *fakeNotifier) SendEmail(_ context.Context, to, subject, body string) notify.Outcome {
	f.record(sentMessage{Channel: "email", To: to, Subject: subject, Body: body})
	if f.failEmail {
		return notify.Failed
	}
	return notify.Delivered
}

func (f *fakeNotifier) SendSMS(_ context.Context, to, body string) notify.Outcome {
	f.record(sentMessage{Channel: "sms", To: to, Body: body})
	if f.smsSimulated {
		return notify.Simulated
	}
	return notify.Delivered
}

func (f *fakeNotifier) SMSSimulated() bool { return f.smsSimulated }

func (f *fakeNotifier) record(m sentMessage) {
	if f.onSend != nil {
		f.onSend()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeNotifier) count(channel string) int {
	n := 0
	for _, m := range f.messages() {
		if m.Channel == channel {
			n++
		}
	}
	return n
}

// fixedResolver resolves every non-empty text to at, except "garbage".
func fixedResolver(at time.Time) timeparse.Resolver {
	return timeparse.ResolverFunc(func(text string, _ time.Time) (time.Time, bool) {
		if text == "" || text == "garbage" {
			return time.Time{}, false
		}
		return at, true
	})
}

func newBoltRepo(t *testing.T) *BoltRepository {
	t.Helper()
	db, err := config.OpenBolt(filepath.Join(t.TempDir(), "appointments.db"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo, err := NewBoltRepository(db)
	if err != nil {
		t.Fatalf("new bolt repository: %v", err)
	}
	return repo
}

func newTestService(repo Repository, n Notifier, r timeparse.Resolver) *Service {
	s := NewService(repo, n, r, zap.NewNop())
	s.now = func() time.Time { return testNow }
	return s
}
