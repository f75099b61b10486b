package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides is a partially-populated bundle applied on top of a tier's
// static settings. Groups left at their zero value are ignored.
type Overrides struct {
	App       *AppSettings       `yaml:"app"`
	Database  *DatabaseSettings  `yaml:"database"`
	Auth      *AuthSettings      `yaml:"auth"`
	Features  map[string]bool    `yaml:"features"`
	RateLimit *RateLimitSettings `yaml:"rate_limit"`
	Logging   *LoggingSettings   `yaml:"logging"`
	Email     *EmailOverrides    `yaml:"email"`
	Perf      *PerfSettings      `yaml:"perf"`
	Security  *SecuritySettings  `yaml:"security"`
	OpenAPI   *OpenAPIOverrides  `yaml:"openapi"`
}

// EmailOverrides merges one level deeper than the other groups: individual
// templates can be replaced without dropping the rest of the template map.
type EmailOverrides struct {
	FromAddress string                   `yaml:"from_address"`
	Templates   map[string]EmailTemplate `yaml:"templates"`
}

// OpenAPIOverrides likewise handles the nested metadata sub-groups
// explicitly so a partial contact or license block keeps sibling fields.
type OpenAPIOverrides struct {
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Contact     *OpenAPIContact `yaml:"contact"`
	License     *OpenAPILicense `yaml:"license"`
	Servers     []string        `yaml:"servers"`
	Tags        []string        `yaml:"tags"`
}

// LoadOverrides reads an overrides file. A missing path is not an error.
func LoadOverrides(path string) (Overrides, error) {
	var o Overrides
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return o, nil
		}
		return o, fmt.Errorf("read overrides: %w", err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Overrides{}, fmt.Errorf("parse overrides: %w", err)
	}
	return o, nil
}

// MergeSettings applies overrides to a base bundle, group by group. The
// merge is shallow per group: a present group replaces the base group
// wholesale, except for the email templates and OpenAPI metadata sub-groups
// which are merged one level deeper.
func MergeSettings(base SettingsBundle, o Overrides) SettingsBundle {
	merged := base

	if o.App != nil {
		merged.App = *o.App
	}
	if o.Database != nil {
		merged.Database = *o.Database
	}
	if o.Auth != nil {
		merged.Auth = *o.Auth
	}
	if len(o.Features) > 0 {
		features := make(map[string]bool, len(base.Features)+len(o.Features))
		for k, v := range base.Features {
			features[k] = v
		}
		for k, v := range o.Features {
			features[k] = v
		}
		merged.Features = features
	}
	if o.RateLimit != nil {
		merged.RateLimit = *o.RateLimit
	}
	if o.Logging != nil {
		merged.Logging = *o.Logging
	}
	if o.Email != nil {
		merged.Email = mergeEmail(base.Email, *o.Email)
	}
	if o.Perf != nil {
		merged.Perf = *o.Perf
	}
	if o.Security != nil {
		merged.Security = *o.Security
	}
	if o.OpenAPI != nil {
		merged.OpenAPI = mergeOpenAPI(base.OpenAPI, *o.OpenAPI)
	}

	return merged
}

func mergeEmail(base EmailSettings, o EmailOverrides) EmailSettings {
	merged := base
	if o.FromAddress != "" {
		merged.FromAddress = o.FromAddress
	}
	if len(o.Templates) > 0 {
		templates := make(map[string]EmailTemplate, len(base.Templates)+len(o.Templates))
		for k, v := range base.Templates {
			templates[k] = v
		}
		for k, v := range o.Templates {
			templates[k] = v
		}
		merged.Templates = templates
	}
	return merged
}

func mergeOpenAPI(base OpenAPISettings, o OpenAPIOverrides) OpenAPISettings {
	merged := base
	if o.Title != "" {
		merged.Title = o.Title
	}
	if o.Description != "" {
		merged.Description = o.Description
	}
	if o.Contact != nil {
		merged.Contact = *o.Contact
	}
	if o.License != nil {
		merged.License = *o.License
	}
	if len(o.Servers) > 0 {
		merged.Servers = append([]string(nil), o.Servers...)
	}
	if len(o.Tags) > 0 {
		merged.Tags = append([]string(nil), o.Tags...)
	}
	return merged
}
