package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/launchfoundry/appstack/pkg/logger"
)

// Environment is the declared shape of process-supplied secrets and
// connection settings. Unknown variables are ignored; missing optional
// fields take the documented defaults.
type Environment struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   int    `env:"PORT" envDefault:"8080"`

	AuthSecret  string `env:"AUTH_SECRET"`
	AuthBaseURL string `env:"AUTH_BASE_URL"`

	DatabaseURL string `env:"DATABASE_URL"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	ExternalAPIKey string `env:"EXTERNAL_API_KEY"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`
	MonitoringDSN  string `env:"MONITORING_DSN"`
	CacheURL       string `env:"CACHE_URL"`
}

// Tier returns the validated deployment tier. An unrecognised APP_ENV value
// falls back to development.
func (e Environment) Tier() Tier {
	if tier, ok := ParseTier(e.AppEnv); ok {
		return tier
	}
	return TierDevelopment
}

const minAuthSecretLength = 32

// LoadEnvironment parses the process environment against the declared shape.
// In development a validation failure is swallowed and an all-defaults
// environment is returned so local setups are never blocked; in any other
// tier the failure is fatal.
func LoadEnvironment() (Environment, error) {
	return loadEnvironment(env.Parse)
}

func loadEnvironment(parse func(any) error) (Environment, error) {
	var e Environment
	if err := parse(&e); err != nil {
		// APP_ENV may still have been populated before the failing field;
		// only non-development tiers treat the failure as fatal.
		if e.Tier() == TierDevelopment {
			return defaultEnvironment(), nil
		}
		return Environment{}, fmt.Errorf("parse environment: %w", err)
	}
	if _, ok := ParseTier(e.AppEnv); !ok {
		e.AppEnv = string(TierDevelopment)
	}
	return e, nil
}

func defaultEnvironment() Environment {
	return Environment{
		AppEnv:   string(TierDevelopment),
		Port:     8080,
		SMTPPort: 587,
	}
}

// ValidateProduction runs the production-only checks. A missing or short
// auth secret is fatal; a missing database binding is only a warning since
// the scaffold can serve from the in-memory store.
func ValidateProduction(e Environment, hasDatabase bool, log *logger.Logger) error {
	if e.Tier() != TierProduction {
		return nil
	}
	if len(e.AuthSecret) < minAuthSecretLength {
		return fmt.Errorf("production requires AUTH_SECRET of at least %d characters", minAuthSecretLength)
	}
	if !hasDatabase && log != nil {
		log.Warn("DATABASE_URL not set; production is running on the in-memory store")
	}
	return nil
}
