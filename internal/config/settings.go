// Package config loads process environment, selects the per-tier settings
// bundle and composes both into the single Config consumed by the rest of
// the application.
package config

import "time"

// Tier identifies a deployment environment.
type Tier string

const (
	TierDevelopment Tier = "development"
	TierStaging     Tier = "staging"
	TierProduction  Tier = "production"
)

// ParseTier validates a tier name. Unknown names are rejected so an invalid
// tier can never select a settings bundle.
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierDevelopment, TierStaging, TierProduction:
		return Tier(s), true
	}
	return "", false
}

// AppSettings identifies the application.
type AppSettings struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment Tier   `yaml:"environment"`
	BaseURL     string `yaml:"base_url"`
	Debug       bool   `yaml:"debug"`
}

// DatabaseSettings holds connection-pool behavior. Connection secrets live in
// the Environment, never here.
type DatabaseSettings struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	BusyTimeout     time.Duration `yaml:"busy_timeout"`
	LogQueries      bool          `yaml:"log_queries"`
}

// AuthSettings holds session behavior. The signing secret comes from the
// Environment.
type AuthSettings struct {
	SessionTTL         time.Duration `yaml:"session_ttl"`
	RefreshTTL         time.Duration `yaml:"refresh_ttl"`
	BcryptCost         int           `yaml:"bcrypt_cost"`
	MaxSessionsPerUser int           `yaml:"max_sessions_per_user"`
}

// RateLimitSettings controls the request rate limiter.
type RateLimitSettings struct {
	Enabled        bool          `yaml:"enabled"`
	RequestsPerSec int           `yaml:"requests_per_sec"`
	Burst          int           `yaml:"burst"`
	Window         time.Duration `yaml:"window"`
}

// LoggingSettings controls log verbosity and shape.
type LoggingSettings struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	LogRequests    bool   `yaml:"log_requests"`
	LogSlowQueries bool   `yaml:"log_slow_queries"`
}

// EmailTemplate is a subject/body pair rendered by the mailer.
type EmailTemplate struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// EmailSettings holds outbound mail behavior. SMTP credentials come from the
// Environment.
type EmailSettings struct {
	FromAddress string                   `yaml:"from_address"`
	Templates   map[string]EmailTemplate `yaml:"templates"`
}

// PerfSettings holds performance knobs.
type PerfSettings struct {
	Compression        bool          `yaml:"compression"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	IdleTimeout        time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
}

// SecuritySettings holds CORS and cookie behavior.
type SecuritySettings struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	TrustedProxies []string `yaml:"trusted_proxies"`
	SecureCookies  bool     `yaml:"secure_cookies"`
	CSRFProtection bool     `yaml:"csrf_protection"`
}

// OpenAPIContact and OpenAPILicense are the nested metadata sub-groups of
// the API documentation settings.
type OpenAPIContact struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	URL   string `yaml:"url"`
}

type OpenAPILicense struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// OpenAPISettings describes the served API documentation.
type OpenAPISettings struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Contact     OpenAPIContact `yaml:"contact"`
	License     OpenAPILicense `yaml:"license"`
	Servers     []string       `yaml:"servers"`
	Tags        []string       `yaml:"tags"`
}

// SettingsBundle is the full set of behavioral knobs for one tier. Bundles
// are static: behavior is controlled purely by tier selection so that
// local, staging and production semantics are reproducible from the tier
// name alone.
type SettingsBundle struct {
	App       AppSettings       `yaml:"app"`
	Database  DatabaseSettings  `yaml:"database"`
	Auth      AuthSettings      `yaml:"auth"`
	Features  map[string]bool   `yaml:"features"`
	RateLimit RateLimitSettings `yaml:"rate_limit"`
	Logging   LoggingSettings   `yaml:"logging"`
	Email     EmailSettings     `yaml:"email"`
	Perf      PerfSettings      `yaml:"perf"`
	Security  SecuritySettings  `yaml:"security"`
	OpenAPI   OpenAPISettings   `yaml:"openapi"`
}

var developmentSettings = SettingsBundle{
	App: AppSettings{
		Name:        "appstack",
		Version:     "0.1.0",
		Environment: TierDevelopment,
		BaseURL:     "http://localhost:8080",
		Debug:       true,
	},
	Database: DatabaseSettings{
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		BusyTimeout:     5 * time.Second,
		LogQueries:      true,
	},
	Auth: AuthSettings{
		SessionTTL:         24 * time.Hour,
		RefreshTTL:         7 * 24 * time.Hour,
		BcryptCost:         4,
		MaxSessionsPerUser: 10,
	},
	Features: map[string]bool{
		"new-dashboard":    true,
		"beta-api":         true,
		"email-digest":     false,
		"maintenance-mode": false,
	},
	RateLimit: RateLimitSettings{
		Enabled:        false,
		RequestsPerSec: 100,
		Burst:          200,
		Window:         time.Minute,
	},
	Logging: LoggingSettings{
		Level:          "debug",
		Format:         "text",
		LogRequests:    true,
		LogSlowQueries: true,
	},
	Email: EmailSettings{
		FromAddress: "dev@localhost",
		Templates:   defaultEmailTemplates(),
	},
	Perf: PerfSettings{
		Compression:        false,
		CacheTTL:           time.Minute,
		SlowQueryThreshold: 200 * time.Millisecond,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        2 * time.Minute,
		ShutdownTimeout:    10 * time.Second,
	},
	Security: SecuritySettings{
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		TrustedProxies: nil,
		SecureCookies:  false,
		CSRFProtection: false,
	},
	OpenAPI: defaultOpenAPI("Appstack API (dev)"),
}

var stagingSettings = SettingsBundle{
	App: AppSettings{
		Name:        "appstack",
		Version:     "0.1.0",
		Environment: TierStaging,
		BaseURL:     "https://staging.appstack.example",
		Debug:       false,
	},
	Database: DatabaseSettings{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
		LogQueries:      false,
	},
	Auth: AuthSettings{
		SessionTTL:         12 * time.Hour,
		RefreshTTL:         3 * 24 * time.Hour,
		BcryptCost:         10,
		MaxSessionsPerUser: 5,
	},
	Features: map[string]bool{
		"new-dashboard":    true,
		"beta-api":         true,
		"email-digest":     true,
		"maintenance-mode": false,
	},
	RateLimit: RateLimitSettings{
		Enabled:        true,
		RequestsPerSec: 50,
		Burst:          100,
		Window:         time.Minute,
	},
	Logging: LoggingSettings{
		Level:          "info",
		Format:         "json",
		LogRequests:    true,
		LogSlowQueries: true,
	},
	Email: EmailSettings{
		FromAddress: "no-reply@staging.appstack.example",
		Templates:   defaultEmailTemplates(),
	},
	Perf: PerfSettings{
		Compression:        true,
		CacheTTL:           5 * time.Minute,
		SlowQueryThreshold: 100 * time.Millisecond,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        time.Minute,
		ShutdownTimeout:    20 * time.Second,
	},
	Security: SecuritySettings{
		AllowedOrigins: []string{"https://staging.appstack.example"},
		TrustedProxies: []string{"10.0.0.0/8"},
		SecureCookies:  true,
		CSRFProtection: true,
	},
	OpenAPI: defaultOpenAPI("Appstack API (staging)"),
}

var productionSettings = SettingsBundle{
	App: AppSettings{
		Name:        "appstack",
		Version:     "0.1.0",
		Environment: TierProduction,
		BaseURL:     "https://appstack.example",
		Debug:       false,
	},
	Database: DatabaseSettings{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     10 * time.Second,
		LogQueries:      false,
	},
	Auth: AuthSettings{
		SessionTTL:         4 * time.Hour,
		RefreshTTL:         24 * time.Hour,
		BcryptCost:         12,
		MaxSessionsPerUser: 3,
	},
	Features: map[string]bool{
		"new-dashboard":    true,
		"beta-api":         false,
		"email-digest":     true,
		"maintenance-mode": false,
	},
	RateLimit: RateLimitSettings{
		Enabled:        true,
		RequestsPerSec: 20,
		Burst:          40,
		Window:         time.Minute,
	},
	Logging: LoggingSettings{
		Level:          "warn",
		Format:         "json",
		LogRequests:    false,
		LogSlowQueries: true,
	},
	Email: EmailSettings{
		FromAddress: "no-reply@appstack.example",
		Templates:   defaultEmailTemplates(),
	},
	Perf: PerfSettings{
		Compression:        true,
		CacheTTL:           15 * time.Minute,
		SlowQueryThreshold: 50 * time.Millisecond,
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        time.Minute,
		ShutdownTimeout:    30 * time.Second,
	},
	Security: SecuritySettings{
		AllowedOrigins: []string{"https://appstack.example"},
		TrustedProxies: []string{"10.0.0.0/8"},
		SecureCookies:  true,
		CSRFProtection: true,
	},
	OpenAPI: defaultOpenAPI("Appstack API"),
}

func defaultEmailTemplates() map[string]EmailTemplate {
	return map[string]EmailTemplate{
		"welcome": {
			Subject: "Welcome to {{.AppName}}",
			Body:    "Hi {{.Name}}, your account is ready.",
		},
		"password-reset": {
			Subject: "Reset your password",
			Body:    "Hi {{.Name}}, use this link to reset your password: {{.Link}}",
		},
		"notification": {
			Subject: "{{.Title}}",
			Body:    "{{.Body}}",
		},
	}
}

func defaultOpenAPI(title string) OpenAPISettings {
	return OpenAPISettings{
		Title:       title,
		Description: "CRUD scaffold API: users, posts, notifications",
		Contact:     OpenAPIContact{Name: "Appstack", Email: "team@appstack.example"},
		License:     OpenAPILicense{Name: "MIT", URL: "https://opensource.org/licenses/MIT"},
		Servers:     []string{"/v1"},
		Tags:        []string{"auth", "users", "posts", "notifications"},
	}
}

// SettingsForTier returns the static bundle for a tier. Callers hold a value
// copy; the package-level bundles are never mutated.
func SettingsForTier(tier Tier) SettingsBundle {
	switch tier {
	case TierProduction:
		return productionSettings
	case TierStaging:
		return stagingSettings
	default:
		return developmentSettings
	}
}
