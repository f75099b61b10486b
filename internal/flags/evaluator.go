// Package flags implements the in-process feature flag evaluator. Flags are
// seeded from the tier's default toggles at startup and can be changed at
// runtime; nothing is persisted.
package flags

import (
	"strings"
	"sync"

	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/config"
)

// Attribute names an identity field a rule matches against.
type Attribute string

const (
	AttrID          Attribute = "id"
	AttrEmail       Attribute = "email"
	AttrRole        Attribute = "role"
	AttrEmailDomain Attribute = "email_domain"
)

// Operator is the comparison a rule applies.
type Operator string

const (
	OpEquals     Operator = "equals"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
	OpIn         Operator = "in"
)

// UserRule matches an identity attribute against a value. Rules are the
// explicit allow-list of a flag: the first matching rule enables the flag
// regardless of any rollout percentage.
type UserRule struct {
	Attribute Attribute `json:"attribute"`
	Operator  Operator  `json:"operator"`
	Value     string    `json:"value,omitempty"`
	Values    []string  `json:"values,omitempty"`
}

// Flag is a named capability toggle.
type Flag struct {
	Key               string        `json:"key"`
	Enabled           bool          `json:"enabled"`
	RolloutPercentage *int          `json:"rollout_percentage,omitempty"`
	Environments      []config.Tier `json:"environments,omitempty"`
	UserRules         []UserRule    `json:"user_rules,omitempty"`
}

// Evaluator decides whether flags are enabled for a given identity.
type Evaluator struct {
	mu    sync.RWMutex
	tier  config.Tier
	flags map[string]Flag
}

// New creates an evaluator for a tier, seeded from the tier's default
// feature toggles.
func New(tier config.Tier, defaults map[string]bool) *Evaluator {
	e := &Evaluator{tier: tier, flags: make(map[string]Flag, len(defaults))}
	for key, enabled := range defaults {
		e.flags[key] = Flag{Key: key, Enabled: enabled}
	}
	return e
}

// SetFlag adds or replaces a flag definition.
func (e *Evaluator) SetFlag(f Flag) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flags[f.Key] = f
}

// RemoveFlag deletes a flag. Unknown keys evaluate to disabled afterwards.
func (e *Evaluator) RemoveFlag(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.flags, key)
}

// Get returns a flag definition.
func (e *Evaluator) Get(key string) (Flag, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	f, ok := e.flags[key]
	return f, ok
}

// Snapshot returns a copy of all flag definitions, for the admin listing.
func (e *Evaluator) Snapshot() []Flag {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Flag, 0, len(e.flags))
	for _, f := range e.flags {
		out = append(out, f)
	}
	return out
}

// IsEnabled decides a flag for an optional identity. The first decisive rule
// wins: unknown key, global kill switch, environment allow-list, identity
// rules (match enables; no match falls through), percentage rollout, then
// the flag's own enabled state.
func (e *Evaluator) IsEnabled(key string, identity *user.Identity) bool {
	e.mu.RLock()
	flag, ok := e.flags[key]
	tier := e.tier
	e.mu.RUnlock()

	if !ok {
		return false
	}
	if !flag.Enabled {
		return false
	}
	if len(flag.Environments) > 0 && !containsTier(flag.Environments, tier) {
		return false
	}
	if identity != nil && len(flag.UserRules) > 0 {
		for _, rule := range flag.UserRules {
			if rule.matches(*identity) {
				return true
			}
		}
		// Rules exist but none matched: fall through to the rollout.
	}
	if flag.RolloutPercentage != nil {
		return inRollout(key, identity, *flag.RolloutPercentage)
	}
	return flag.Enabled
}

func containsTier(tiers []config.Tier, tier config.Tier) bool {
	for _, t := range tiers {
		if t == tier {
			return true
		}
	}
	return false
}

func (r UserRule) matches(identity user.Identity) bool {
	var subject string
	switch r.Attribute {
	case AttrID:
		subject = identity.ID
	case AttrEmail:
		subject = identity.Email
	case AttrRole:
		subject = identity.Role
	case AttrEmailDomain:
		subject = identity.EmailDomain()
	default:
		return false
	}

	switch r.Operator {
	case OpEquals:
		return subject == r.Value
	case OpContains:
		return strings.Contains(subject, r.Value)
	case OpStartsWith:
		return strings.HasPrefix(subject, r.Value)
	case OpEndsWith:
		return strings.HasSuffix(subject, r.Value)
	case OpIn:
		for _, v := range r.Values {
			if subject == v {
				return true
			}
		}
		return false
	}
	return false
}

// inRollout buckets an identity into the first `percentage` of 100 slots
// using a rolling character hash of "key:id". The hash is a pure function
// of its inputs so the same identity gets the same decision on every
// request without any persisted assignment.
func inRollout(key string, identity *user.Identity, percentage int) bool {
	if percentage <= 0 {
		return false
	}
	if percentage >= 100 {
		return true
	}

	subject := "anonymous"
	if identity != nil && identity.ID != "" {
		subject = identity.ID
	}

	var h uint32
	for _, ch := range key + ":" + subject {
		h = h*31 + uint32(ch)
	}
	return int(h%100) < percentage
}
