package app

import (
	"context"
	"testing"

	"github.com/launchfoundry/appstack/internal/app/storage/memory"
	"github.com/launchfoundry/appstack/internal/config"
	"github.com/launchfoundry/appstack/internal/container"
	"github.com/launchfoundry/appstack/pkg/logger"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Compose(config.Environment{AppEnv: "development", Port: 8080}, logger.NewDefault("app-test"))
	if err != nil {
		t.Fatalf("compose config: %v", err)
	}
	return cfg
}

func TestNewDefaultsToMemoryStores(t *testing.T) {
	application, err := New(devConfig(t), Stores{}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// All services come up against the in-memory store.
	u, err := application.Users.Register(context.Background(), "boot@example.com", "Boot", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	got, err := application.Users.WithIdentity(ptr(u.Identity())).Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Email != "boot@example.com" {
		t.Errorf("email = %q, want boot@example.com", got.Email)
	}
}

func TestNewRegistersContainerTokens(t *testing.T) {
	application, err := New(devConfig(t), Stores{Users: memory.New()}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, token := range []string{
		container.TokenConfig,
		container.TokenLogger,
		container.TokenFlags,
		container.TokenAuth,
		container.TokenUsers,
		container.TokenPosts,
		container.TokenNotifications,
	} {
		if !application.Container.Has(token) {
			t.Errorf("container missing token %s", token)
		}
	}
	if application.Container.Has(container.TokenDB) {
		t.Error("db token should not be registered without a database")
	}
}

func TestNewSeedsFlagEvaluator(t *testing.T) {
	cfg := devConfig(t)
	application, err := New(cfg, Stores{}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for key, enabled := range cfg.Features {
		if got := application.Flags.IsEnabled(key, nil); got != enabled {
			t.Errorf("flag %s = %v, want %v", key, got, enabled)
		}
	}
}

func ptr[T any](v T) *T { return &v }
