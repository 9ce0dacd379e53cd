// Package notify delivers appointment messages over email and SMS. Delivery is
// best effort: failures are logged and reported as an Outcome, never returned
// as errors to the caller.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"AppointmentReminder/internal/config"
)

// Outcome is the result of one delivery attempt.
type Outcome int

const (
	Delivered Outcome = iota
	Simulated
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Simulated:
		return "simulated"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// OK reports whether the attempt counts as a success. Dry-run simulation does.
func (o Outcome) OK() bool { return o != Failed }

// EmailSender is a transport that can deliver one email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender is a transport that can deliver one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Dispatcher wraps the email and SMS transports. A nil transport means the
// channel runs in dry-run mode.
type Dispatcher struct {
	email   EmailSender
	sms     SMSSender
	timeout time.Duration
	log     *zap.Logger
}

// New builds a Dispatcher from explicit transports. Pass nil for a channel to
// simulate it.
func New(email EmailSender, sms SMSSender, timeout time.Duration, log *zap.Logger) *Dispatcher {
	return &Dispatcher{email: email, sms: sms, timeout: timeout, log: log.Named("notify")}
}

// NewFromConfig picks real transports for every channel whose credentials are
// present and leaves the rest in dry-run mode.
func NewFromConfig(emailCfg config.EmailConfig, smsCfg config.SMSConfig, sched config.SchedulerConfig, log *zap.Logger) *Dispatcher {
	var email EmailSender
	if !emailCfg.DryRun() {
		switch emailCfg.Provider {
		case config.EmailProviderResend:
			email = NewResendSender(emailCfg.ResendAPIKey, emailCfg.FromAddress())
		default:
			email = NewSMTPSender(emailCfg.SMTPHost, emailCfg.SMTPPort, emailCfg.Sender, emailCfg.Password, emailCfg.FromAddress())
		}
	}
	var sms SMSSender
	if !smsCfg.DryRun() {
		sms = NewTwilioSender(smsCfg.AccountSID, smsCfg.AuthToken, smsCfg.FromNumber)
	}

	d := New(email, sms, sched.DispatchTimeout, log)
	d.log.Info("dispatcher configured",
		zap.String("email_provider", emailCfg.Provider),
		zap.Bool("email_simulated", d.EmailSimulated()),
		zap.Bool("sms_simulated", d.SMSSimulated()),
	)
	return d
}

// SMSSimulated reports whether the SMS channel is in dry-run mode.
func (d *Dispatcher) SMSSimulated() bool { return d.sms == nil }

// EmailSimulated reports whether the email channel is in dry-run mode.
func (d *Dispatcher) EmailSimulated() bool { return d.email == nil }

// SendEmail attempts to deliver one email.
func (d *Dispatcher) SendEmail(ctx context.Context, to, subject, body string) Outcome {
	log := d.log.With(
		zap.String("channel", "email"),
		zap.String("to", to),
		zap.String("attempt_id", uuid.NewString()),
	)
	if d.email == nil {
		log.Info("email simulated", zap.Bool("simulated", true), zap.String("subject", subject))
		return Simulated
	}
	return d.attempt(ctx, log, func(ctx context.Context) error {
		return d.email.SendEmail(ctx, to, subject, body)
	})
}

// SendSMS attempts to deliver one text message.
func (d *Dispatcher) SendSMS(ctx context.Context, to, body string) Outcome {
	log := d.log.With(
		zap.String("channel", "sms"),
		zap.String("to", to),
		zap.String("attempt_id", uuid.NewString()),
	)
	if d.sms == nil {
		log.Info("sms simulated", zap.Bool("simulated", true))
		return Simulated
	}
	return d.attempt(ctx, log, func(ctx context.Context) error {
		return d.sms.SendSMS(ctx, to, body)
	})
}

func (d *Dispatcher) attempt(ctx context.Context, log *zap.Logger, send func(context.Context) error) Outcome {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := send(ctx); err != nil {
		log.Warn("delivery failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return Failed
	}
	log.Info("delivered", zap.Duration("elapsed", time.Since(start)))
	return Delivered
}

// runWithContext runs a blocking call that has no context support and gives up
// waiting once ctx is done. The call itself keeps running in the background.
func runWithContext(ctx context.Context, call func() error) error {
	errc := make(chan error, 1)
	go func() { errc <- call() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
