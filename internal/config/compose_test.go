package config

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestComposeBehaviorGroupsMatchBundle(t *testing.T) {
	secret := strings.Repeat("s", 40)
	for _, tier := range []Tier{TierDevelopment, TierStaging, TierProduction} {
		env := Environment{AppEnv: string(tier), Port: 8080, AuthSecret: secret, DatabaseURL: "file:app.db"}
		cfg, err := Compose(env, nil)
		if err != nil {
			t.Fatalf("compose %s: %v", tier, err)
		}

		bundle := SettingsForTier(tier)
		if !reflect.DeepEqual(cfg.App, bundle.App) {
			t.Fatalf("%s: app group diverged from bundle", tier)
		}
		if !reflect.DeepEqual(cfg.Database, bundle.Database) {
			t.Fatalf("%s: database group diverged from bundle", tier)
		}
		if !reflect.DeepEqual(cfg.RateLimit, bundle.RateLimit) {
			t.Fatalf("%s: rate limit group diverged from bundle", tier)
		}
		if !reflect.DeepEqual(cfg.Logging, bundle.Logging) {
			t.Fatalf("%s: logging group diverged from bundle", tier)
		}
		if !reflect.DeepEqual(cfg.Security, bundle.Security) {
			t.Fatalf("%s: security group diverged from bundle", tier)
		}
		if !reflect.DeepEqual(cfg.Auth.AuthSettings, bundle.Auth) {
			t.Fatalf("%s: auth behavior diverged from bundle", tier)
		}
		if cfg.Tier() != tier {
			t.Fatalf("%s: composed tier %s", tier, cfg.Tier())
		}
	}
}

func TestComposeProductionRequiresSecret(t *testing.T) {
	env := Environment{AppEnv: string(TierProduction), DatabaseURL: "file:app.db"}
	if _, err := Compose(env, nil); err == nil {
		t.Fatal("expected error for missing production auth secret")
	}

	env.AuthSecret = "too-short"
	if _, err := Compose(env, nil); err == nil {
		t.Fatal("expected error for short production auth secret")
	}

	env.AuthSecret = strings.Repeat("k", 32)
	if _, err := Compose(env, nil); err != nil {
		t.Fatalf("valid secret should compose: %v", err)
	}
}

func TestComposeSecretGroupsFromEnvironment(t *testing.T) {
	env := Environment{
		AppEnv:             string(TierStaging),
		AuthSecret:         "staging-secret",
		AuthBaseURL:        "https://auth.example",
		GoogleClientID:     "gid",
		GoogleClientSecret: "gsecret",
		SMTPHost:           "smtp.example",
		SMTPPort:           2525,
		ExternalAPIKey:     "api-key",
		CacheURL:           "redis://cache:6379",
	}
	cfg, err := Compose(env, nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	if cfg.Auth.Secret != "staging-secret" || cfg.Auth.BaseURL != "https://auth.example" {
		t.Fatalf("auth secrets not copied: %+v", cfg.Auth)
	}
	google, ok := cfg.OAuth["google"]
	if !ok || google.ClientSecret != "gsecret" {
		t.Fatalf("google oauth missing: %+v", cfg.OAuth)
	}
	if _, ok := cfg.OAuth["github"]; ok {
		t.Fatal("github oauth should be absent without a client id")
	}
	if cfg.SMTP == nil || cfg.SMTP.Port != 2525 {
		t.Fatalf("smtp block missing: %+v", cfg.SMTP)
	}
	if cfg.External.APIKey != "api-key" || cfg.External.CacheURL != "redis://cache:6379" {
		t.Fatalf("external passthrough missing: %+v", cfg.External)
	}
}

func TestComposeOmitsSMTPWithoutHost(t *testing.T) {
	cfg, err := Compose(Environment{AppEnv: string(TierDevelopment)}, nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if cfg.SMTP != nil {
		t.Fatal("smtp block should be nil without a host")
	}
	if cfg.Auth.BaseURL != cfg.App.BaseURL {
		t.Fatalf("auth base url should fall back to the app base url, got %q", cfg.Auth.BaseURL)
	}
}

func TestComposeDoesNotAliasBundleMaps(t *testing.T) {
	cfg, err := Compose(Environment{AppEnv: string(TierDevelopment)}, nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	cfg.Features["injected-flag"] = true
	cfg.Email.Templates["welcome"] = EmailTemplate{Subject: "hijacked", Body: "x"}

	fresh := SettingsForTier(TierDevelopment)
	if _, ok := fresh.Features["injected-flag"]; ok {
		t.Fatal("mutating composed features must not reach the tier bundle")
	}
	if fresh.Email.Templates["welcome"].Subject == "hijacked" {
		t.Fatal("mutating composed templates must not reach the tier bundle")
	}

	second, err := Compose(Environment{AppEnv: string(TierDevelopment)}, nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if _, ok := second.Features["injected-flag"]; ok {
		t.Fatal("a later compose must not see earlier mutations")
	}
}

func TestLoadEnvironmentDevelopmentSwallowsFailure(t *testing.T) {
	parse := func(any) error { return errors.New("PORT is not an int") }
	env, err := loadEnvironment(parse)
	if err != nil {
		t.Fatalf("development parse failure should be swallowed: %v", err)
	}
	if env.Tier() != TierDevelopment || env.Port != 8080 {
		t.Fatalf("expected all-defaults environment, got %+v", env)
	}
}

func TestLoadEnvironmentNonDevelopmentFailureIsFatal(t *testing.T) {
	parse := func(v any) error {
		v.(*Environment).AppEnv = string(TierStaging)
		return errors.New("AUTH_SECRET missing")
	}
	if _, err := loadEnvironment(parse); err == nil {
		t.Fatal("staging parse failure must be fatal")
	}
}

func TestLoadEnvironmentUnknownTierDefaultsToDevelopment(t *testing.T) {
	parse := func(v any) error {
		e := v.(*Environment)
		e.AppEnv = "qa"
		e.Port = 9000
		return nil
	}
	env, err := loadEnvironment(parse)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if env.Tier() != TierDevelopment {
		t.Fatalf("unknown tier should collapse to development, got %s", env.Tier())
	}
}
