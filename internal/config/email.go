package config

import (
	"fmt"
	"strings"
)

const (
	EmailProviderSMTP   = "smtp"
	EmailProviderResend = "resend"
)

// EmailConfig holds credentials for the email channel. Missing or placeholder
// credentials put the channel in dry-run mode.
type EmailConfig struct {
	Provider     string `env:"EMAIL_PROVIDER" envDefault:"smtp"`
	Sender       string `env:"EMAIL_SENDER"`
	Password     string `env:"EMAIL_PASSWORD"`
	SMTPHost     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"465"`
	ResendAPIKey string `env:"RESEND_API_KEY"`
	From         string `env:"FROM_EMAIL"`
}

func (c EmailConfig) Validate() error {
	switch c.Provider {
	case EmailProviderSMTP, EmailProviderResend:
		return nil
	}
	return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Provider)
}

// DryRun reports whether emails should only be simulated.
func (c EmailConfig) DryRun() bool {
	if c.Provider == EmailProviderResend {
		return IsPlaceholder(c.ResendAPIKey) || IsPlaceholder(c.FromAddress())
	}
	return IsPlaceholder(c.Sender) || IsPlaceholder(c.Password)
}

// FromAddress is the envelope sender, falling back to the SMTP login.
func (c EmailConfig) FromAddress() string {
	if c.From != "" {
		return c.From
	}
	return c.Sender
}

// SMSConfig holds Twilio credentials for the SMS channel.
type SMSConfig struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `env:"TWILIO_PHONE_NUMBER"`
}

// DryRun reports whether text messages should only be simulated.
func (c SMSConfig) DryRun() bool {
	return IsPlaceholder(c.AccountSID) || IsPlaceholder(c.AuthToken)
}

// IsPlaceholder treats empty values and template values copied from a sample
// .env file ("your_account_sid", "changeme") as unset.
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == "changeme" {
		return true
	}
	return strings.Contains(v, "your_") || strings.Contains(v, "your-")
}
