package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"AppointmentReminder/internal/notify"
	"AppointmentReminder/internal/timeparse"
)

// Notifier is the delivery side the service and scheduler depend on.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) notify.Outcome
	SendSMS(ctx context.Context, to, body string) notify.Outcome
	SMSSimulated() bool
}

// BookingRequest is a raw booking as received from a client.
type BookingRequest struct {
	Structured bool
	Subject    string
	DateText   string
	Message    string
	Contact    Contact
}

// Booking is a booking whose subject and time have been resolved. A zero At
// means no time could be resolved.
type Booking struct {
	Structured bool
	Subject    string
	DateText   string
	At         time.Time
	Contact    Contact
}

// BookingResult reports what Book did.
type BookingResult struct {
	ID            int64 // zero when nothing was stored
	Delay         time.Duration
	ScheduledTime time.Time // zero for immediate bookings
	Notifications []string
}

// Immediate reports whether the booking was handled as "send now".
func (r *BookingResult) Immediate() bool { return r.ScheduledTime.IsZero() }

// Service coordinates store writes with confirmation and cancellation notices.
type Service struct {
	repo     Repository
	notifier Notifier
	resolver timeparse.Resolver
	now      func() time.Time
	log      *zap.Logger
}

func NewService(repo Repository, notifier Notifier, resolver timeparse.Resolver, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		resolver: resolver,
		now:      time.Now,
		log:      log.Named("appointments"),
	}
}

// Resolve turns a raw request into a Booking. Structured requests resolve
// their date text; free-text requests resolve the whole message and use it as
// the subject.
func (s *Service) Resolve(req BookingRequest) Booking {
	b := Booking{Structured: req.Structured, Contact: req.Contact}
	text := req.Message
	if req.Structured {
		b.Subject = req.Subject
		b.DateText = req.DateText
		text = req.DateText
	} else {
		b.Subject = req.Message
	}
	if at, ok := s.resolver.Resolve(text, s.now()); ok {
		b.At = at
	}
	return b
}

// Schedule resolves and books req.
func (s *Service) Schedule(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	return s.Book(ctx, s.Resolve(req))
}

// Book stores b when its time lies in the future, then sends a confirmation to
// every enabled channel. A missing or past time skips storage and is treated
// as an immediate booking.
func (s *Service) Book(ctx context.Context, b Booking) (*BookingResult, error) {
	now := s.now()
	res := &BookingResult{Notifications: []string{}}

	if !b.At.IsZero() && b.At.After(now) {
		id, err := s.repo.Create(ctx, NewAppointment{
			Subject:       b.Subject,
			ScheduledTime: b.At,
			Contact:       b.Contact,
		})
		if err != nil {
			return nil, fmt.Errorf("store appointment: %w", err)
		}
		res.ID = id
		res.Delay = b.At.Sub(now)
		res.ScheduledTime = b.At
		s.log.Info("appointment booked",
			zap.Int64("id", id),
			zap.String("subject", b.Subject),
			zap.Time("scheduled_time", b.At),
		)
	} else if b.At.IsZero() {
		s.log.Info("no date detected, sending immediately", zap.String("subject", b.Subject))
	} else {
		s.log.Info("detected date is in the past, sending immediately",
			zap.String("subject", b.Subject), zap.Time("resolved", b.At))
	}

	msg := confirmationMessage(b)
	if b.Contact.WantsEmail() {
		s.notifier.SendEmail(ctx, b.Contact.Email, msg.EmailSubject, msg.EmailBody)
		res.Notifications = append(res.Notifications, "email")
	}
	if b.Contact.WantsSMS() {
		s.notifier.SendSMS(ctx, b.Contact.Phone, msg.SMSBody)
		res.Notifications = append(res.Notifications, "sms")
	}
	if s.notifier.SMSSimulated() {
		res.Notifications = append(res.Notifications, "sms_simulated")
	}
	return res, nil
}

// List returns active appointments, optionally narrowed to one contact.
func (s *Service) List(ctx context.Context, filter ContactFilter) ([]Appointment, error) {
	return s.repo.ListActive(ctx, filter)
}

// Cancel soft-deletes the appointment and notifies its contact. It returns
// ErrNotFound for unknown ids.
func (s *Service) Cancel(ctx context.Context, id int64) (*Appointment, error) {
	prev, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("appointment cancelled", zap.Int64("id", id), zap.String("previous_status", string(prev.Status)))

	msg := cancellationMessage(*prev)
	if prev.WantsEmail() {
		s.notifier.SendEmail(ctx, prev.Email, msg.EmailSubject, msg.EmailBody)
	}
	if prev.WantsSMS() {
		s.notifier.SendSMS(ctx, prev.Phone, msg.SMSBody)
	}
	return prev, nil
}

// Update reschedules an appointment. dateText must resolve to a time, else
// ErrInvalidTime is returned and the store is not touched.
func (s *Service) Update(ctx context.Context, id int64, subject, dateText string) (time.Time, error) {
	at, ok := s.resolver.Resolve(dateText, s.now())
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, dateText)
	}
	subject = strings.TrimSpace(subject)
	if err := s.repo.Update(ctx, id, subject, at); err != nil {
		if !errors.Is(err, ErrNotFound) {
			err = fmt.Errorf("update appointment %d: %w", id, err)
		}
		return time.Time{}, err
	}
	s.log.Info("appointment updated", zap.Int64("id", id), zap.Time("scheduled_time", at))
	return at, nil
}

// Ping reports store health.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
