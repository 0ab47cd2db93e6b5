package domain

import "time"

// GrantKind classifies how long an authorization lasts.
type GrantKind string

const (
	GrantKindLifetime GrantKind = "lifetime"
	GrantKindTemp     GrantKind = "temp"
	GrantKindMonthly  GrantKind = "monthly"
	GrantKindYearly   GrantKind = "yearly"
)

// Grant is a single authorization record. ExpiresAt carries the raw
// ISO-8601 timestamp exactly as the identity provider stored it; it is
// ignored for lifetime grants and required for every other kind.
type Grant struct {
	Kind      GrantKind `json:"type"`
	ExpiresAt *string   `json:"expired_at"`
}

// PackageGrant authorizes every workflow bundled in a package.
type PackageGrant struct {
	Grant
	PackageID string `json:"id"`
}

// DirectGrant authorizes a single workflow.
type DirectGrant struct {
	Grant
	WorkflowID string `json:"id"`
}

// EntitlementDocument is the per-user grant set delivered by the identity
// provider. BasicAccess gates everything else. Treated as immutable input.
type EntitlementDocument struct {
	BasicAccess Grant          `json:"basic_access"`
	Packages    []PackageGrant `json:"packages"`
	Workflows   []DirectGrant  `json:"workflows"`
}

// Lifetime reports whether the grant never expires.
func (g Grant) Lifetime() bool {
	return g.Kind == GrantKindLifetime
}

// ValidAt decides whether the grant is active at the given instant.
// A non-lifetime grant with an absent or unparseable expiry fails closed.
func (g Grant) ValidAt(now time.Time) bool {
	if g.Lifetime() {
		return true
	}
	if g.ExpiresAt == nil || *g.ExpiresAt == "" {
		return false
	}
	expiry, err := time.Parse(time.RFC3339, *g.ExpiresAt)
	if err != nil {
		return false
	}
	return now.Before(expiry)
}
