package appointment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"AppointmentReminder/internal/config"
)

// Scheduler periodically scans the store for due appointments, sends their
// reminders and marks them sent.
type Scheduler struct {
	repo     Repository
	notifier Notifier
	interval time.Duration
	workers  int
	now      func() time.Time
	log      *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a new scheduler for appointment reminders.
func NewScheduler(repo Repository, notifier Notifier, cfg config.SchedulerConfig, log *zap.Logger) *Scheduler {
	return &Scheduler{
		repo:     repo,
		notifier: notifier,
		interval: cfg.PollInterval,
		workers:  cfg.Workers,
		now:      time.Now,
		log:      log.Named("scheduler"),
	}
}

// StartScheduler runs the polling loop in a background goroutine for the
// lifetime of the fx app.
func (s *Scheduler) StartScheduler(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			s.done = make(chan struct{})
			go func() {
				defer close(s.done)
				s.Run(ctx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.log.Info("stopping appointment scheduler")
			s.cancel()
			select {
			case <-s.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

// Run polls until ctx is cancelled. The first pass starts immediately; every
// later pass starts one interval after the previous one finished. A failing
// pass is logged and never ends the loop.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("starting appointment scheduler", zap.Duration("interval", s.interval), zap.Int("workers", s.workers))
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		sent, err := s.RunOnce(ctx)
		if err != nil {
			s.log.Error("scheduler pass failed", zap.Error(err))
		}
		if sent > 0 {
			s.log.Info("reminders dispatched", zap.Int("count", sent))
		}
		timer.Reset(s.interval)
	}
}

// RunOnce performs a single pass and returns how many appointments were
// marked sent. Errors from individual appointments are combined; one bad
// appointment does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) (sent int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = multierr.Append(err, fmt.Errorf("scheduler pass panicked: %v", r))
		}
	}()

	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch pending appointments: %w", err)
	}

	now := s.now()
	var (
		mu   sync.Mutex
		errs error
		g    errgroup.Group
	)
	g.SetLimit(max(s.workers, 1))

	for _, a := range pending {
		if !a.Due(now) {
			continue
		}
		a := a
		g.Go(func() error {
			moved, derr := s.deliver(ctx, a)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case derr != nil:
				errs = multierr.Append(errs, derr)
			case moved:
				sent++
			}
			return nil
		})
	}
	_ = g.Wait()
	return sent, errs
}

// deliver sends the reminder on every enabled channel, then marks the
// appointment sent. Channel failures are already logged by the notifier and
// do not block the transition. moved is false when the appointment left the
// pending state (for example a concurrent cancel) before it could be marked.
func (s *Scheduler) deliver(ctx context.Context, a Appointment) (moved bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			moved, err = false, fmt.Errorf("appointment %d: panic during delivery: %v", a.ID, r)
		}
	}()

	s.log.Info("triggering appointment", zap.Int64("id", a.ID), zap.String("subject", a.Subject))
	msg := reminderMessage(a)
	var failed []string
	if a.WantsEmail() && !s.notifier.SendEmail(ctx, a.Email, msg.EmailSubject, msg.EmailBody).OK() {
		failed = append(failed, "email")
	}
	if a.WantsSMS() && !s.notifier.SendSMS(ctx, a.Phone, msg.SMSBody).OK() {
		failed = append(failed, "sms")
	}
	if len(failed) > 0 {
		s.log.Warn("reminder not delivered on every channel",
			zap.Int64("id", a.ID), zap.Strings("failed_channels", failed))
	}

	moved, err = s.repo.MarkSent(ctx, a.ID)
	if err != nil {
		return false, fmt.Errorf("appointment %d: %w", a.ID, err)
	}
	if !moved {
		s.log.Info("appointment no longer pending, left unchanged", zap.Int64("id", a.ID))
	}
	return moved, nil
}
