package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMergeSettingsReplacesGroupsWholesale(t *testing.T) {
	base := SettingsForTier(TierDevelopment)
	override := RateLimitSettings{Enabled: true, RequestsPerSec: 5, Burst: 10, Window: time.Minute}

	merged := MergeSettings(base, Overrides{RateLimit: &override})
	if merged.RateLimit != override {
		t.Fatalf("rate limit group not replaced: %+v", merged.RateLimit)
	}
	if merged.Logging != base.Logging {
		t.Fatal("untouched groups must not change")
	}
}

func TestMergeSettingsFeaturesExtend(t *testing.T) {
	base := SettingsForTier(TierDevelopment)
	merged := MergeSettings(base, Overrides{Features: map[string]bool{
		"beta-api":  false,
		"dark-mode": true,
	}})

	if merged.Features["beta-api"] {
		t.Fatal("override should win for beta-api")
	}
	if !merged.Features["dark-mode"] {
		t.Fatal("new feature key should be added")
	}
	if !merged.Features["new-dashboard"] {
		t.Fatal("existing keys must survive the merge")
	}
	if !base.Features["beta-api"] {
		t.Fatal("base bundle must not be mutated")
	}
}

func TestMergeSettingsEmailTemplatesMergeDeep(t *testing.T) {
	base := SettingsForTier(TierStaging)
	merged := MergeSettings(base, Overrides{Email: &EmailOverrides{
		Templates: map[string]EmailTemplate{
			"welcome": {Subject: "Hello!", Body: "Custom welcome"},
		},
	}})

	if merged.Email.Templates["welcome"].Subject != "Hello!" {
		t.Fatal("welcome template not overridden")
	}
	if _, ok := merged.Email.Templates["password-reset"]; !ok {
		t.Fatal("sibling templates must not be dropped")
	}
	if merged.Email.FromAddress != base.Email.FromAddress {
		t.Fatal("from address should be untouched when empty in override")
	}
}

func TestMergeSettingsOpenAPIContactKeepsSiblings(t *testing.T) {
	base := SettingsForTier(TierProduction)
	merged := MergeSettings(base, Overrides{OpenAPI: &OpenAPIOverrides{
		Title:   "Custom API",
		Contact: &OpenAPIContact{Name: "Ops", Email: "ops@example.com"},
	}})

	if merged.OpenAPI.Title != "Custom API" {
		t.Fatal("title not overridden")
	}
	if merged.OpenAPI.Contact.Name != "Ops" {
		t.Fatal("contact not overridden")
	}
	if merged.OpenAPI.License != base.OpenAPI.License {
		t.Fatal("license sub-group must survive a contact-only override")
	}
	if len(merged.OpenAPI.Servers) != len(base.OpenAPI.Servers) {
		t.Fatal("servers must survive when absent from the override")
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	data := []byte("features:\n  beta-api: false\nemail:\n  from_address: override@example.com\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write overrides: %v", err)
	}

	o, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("load overrides: %v", err)
	}
	if o.Features["beta-api"] {
		t.Fatal("parsed override should disable beta-api")
	}
	if o.Email == nil || o.Email.FromAddress != "override@example.com" {
		t.Fatalf("email override missing: %+v", o.Email)
	}

	if _, err := LoadOverrides(filepath.Join(dir, "absent.yaml")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
}
