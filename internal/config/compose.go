package config

import (
	"fmt"
	"maps"

	"github.com/launchfoundry/appstack/pkg/logger"
)

// OAuthProvider holds client credentials for one provider. Only providers
// with a client ID present in the environment appear in the composed config.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
}

// SMTPConfig is present only when an SMTP host was supplied.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// AuthConfig combines environment secrets with the tier's auth behavior.
type AuthConfig struct {
	Secret  string
	BaseURL string
	AuthSettings
}

// ExternalConfig carries passthrough secrets for outer layers. The core
// never dereferences these.
type ExternalConfig struct {
	APIKey        string
	WebhookSecret string
	MonitoringDSN string
	CacheURL      string
}

// Config is the composed, read-only configuration handed to services.
// Behavior groups come verbatim from the tier's SettingsBundle; secret and
// connection groups come from the Environment.
type Config struct {
	App       AppSettings
	Database  DatabaseSettings
	Auth      AuthConfig
	Features  map[string]bool
	RateLimit RateLimitSettings
	Logging   LoggingSettings
	Email     EmailSettings
	Perf      PerfSettings
	Security  SecuritySettings
	OpenAPI   OpenAPISettings

	Port        int
	DatabaseURL string
	OAuth       map[string]OAuthProvider
	SMTP        *SMTPConfig
	External    ExternalConfig
}

// Tier returns the tier the config was composed for.
func (c Config) Tier() Tier {
	return c.App.Environment
}

// Compose merges a validated Environment with its tier's settings bundle.
// Behavior is controlled purely by tier selection; no behavior field is
// ever derived from the environment.
func Compose(e Environment, log *logger.Logger) (Config, error) {
	return ComposeWithOverrides(e, Overrides{}, log)
}

// ComposeWithOverrides additionally applies a settings override set before
// the environment's secret groups are filled in.
func ComposeWithOverrides(e Environment, o Overrides, log *logger.Logger) (Config, error) {
	tier := e.Tier()
	bundle := MergeSettings(SettingsForTier(tier), o)

	if err := ValidateProduction(e, e.DatabaseURL != "", log); err != nil {
		return Config{}, fmt.Errorf("compose config: %w", err)
	}

	// The maps are cloned so mutating a composed config cannot reach back
	// into the package-level bundles.
	email := bundle.Email
	email.Templates = maps.Clone(email.Templates)

	cfg := Config{
		App:       bundle.App,
		Database:  bundle.Database,
		Features:  maps.Clone(bundle.Features),
		RateLimit: bundle.RateLimit,
		Logging:   bundle.Logging,
		Email:     email,
		Perf:      bundle.Perf,
		Security:  bundle.Security,
		OpenAPI:   bundle.OpenAPI,

		Port:        e.Port,
		DatabaseURL: e.DatabaseURL,
		External: ExternalConfig{
			APIKey:        e.ExternalAPIKey,
			WebhookSecret: e.WebhookSecret,
			MonitoringDSN: e.MonitoringDSN,
			CacheURL:      e.CacheURL,
		},
	}

	cfg.Auth = AuthConfig{
		Secret:       e.AuthSecret,
		BaseURL:      e.AuthBaseURL,
		AuthSettings: bundle.Auth,
	}
	if cfg.Auth.BaseURL == "" {
		cfg.Auth.BaseURL = bundle.App.BaseURL
	}

	oauth := make(map[string]OAuthProvider)
	if e.GoogleClientID != "" {
		oauth["google"] = OAuthProvider{ClientID: e.GoogleClientID, ClientSecret: e.GoogleClientSecret}
	}
	if e.GitHubClientID != "" {
		oauth["github"] = OAuthProvider{ClientID: e.GitHubClientID, ClientSecret: e.GitHubClientSecret}
	}
	if len(oauth) > 0 {
		cfg.OAuth = oauth
	}

	if e.SMTPHost != "" {
		from := e.SMTPFrom
		if from == "" {
			from = bundle.Email.FromAddress
		}
		cfg.SMTP = &SMTPConfig{
			Host:     e.SMTPHost,
			Port:     e.SMTPPort,
			User:     e.SMTPUser,
			Password: e.SMTPPassword,
			From:     from,
		}
	}

	return cfg, nil
}

// ComposeFromProcess loads the process environment and composes it.
func ComposeFromProcess(log *logger.Logger) (Config, error) {
	e, err := LoadEnvironment()
	if err != nil {
		return Config{}, err
	}
	return Compose(e, log)
}
