package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

// Config is the full process configuration, read once from the environment at startup.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	Scheduler SchedulerConfig
	Email     EmailConfig
	SMS       SMSConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port           string   `env:"PORT" envDefault:"5000"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS" envDefault:"2"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"5"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json or console
}

// SchedulerConfig controls the due-appointment polling loop.
type SchedulerConfig struct {
	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
	Workers         int           `env:"SCHEDULER_WORKERS" envDefault:"4"`
	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"15s"`
}

// Sections splits Config so each component can depend on only the part it reads.
type Sections struct {
	fx.Out

	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	Scheduler SchedulerConfig
	Email     EmailConfig
	SMS       SMSConfig
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Scheduler.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Scheduler.PollInterval)
	}
	if c.Scheduler.Workers < 1 {
		return fmt.Errorf("SCHEDULER_WORKERS must be at least 1, got %d", c.Scheduler.Workers)
	}
	if c.Scheduler.DispatchTimeout <= 0 {
		return fmt.Errorf("DISPATCH_TIMEOUT must be positive, got %s", c.Scheduler.DispatchTimeout)
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	return c.Email.Validate()
}

// Provide exposes every section of cfg to the fx graph.
func Provide(cfg *Config) Sections {
	return Sections{
		Server:    cfg.Server,
		Log:       cfg.Log,
		Store:     cfg.Store,
		Scheduler: cfg.Scheduler,
		Email:     cfg.Email,
		SMS:       cfg.SMS,
	}
}
