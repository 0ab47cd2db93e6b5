package entitlement

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/mionax/starfusion-manager/internal/domain"
)

// Source records which grant path authorized a workflow.
type Source string

const (
	SourcePackage Source = "package"
	SourceDirect  Source = "direct"
)

// Entry is the effective grant for one workflow.
type Entry struct {
	Source    Source           `json:"source"`
	PackageID string           `json:"package_id,omitempty"`
	Kind      domain.GrantKind `json:"type"`
	ExpiresAt *string          `json:"expired_at"`
}

// Entitlements is the resolved workflow id to effective grant mapping for
// one user. Iteration order is insertion order: package grants in document
// order first, then direct grants. Built once per resolution and never
// mutated afterwards.
type Entitlements struct {
	order   []string
	entries map[string]Entry
}

// NewEntitlements returns an empty mapping.
func NewEntitlements() *Entitlements {
	return &Entitlements{entries: make(map[string]Entry)}
}

func (e *Entitlements) insert(workflowID string, entry Entry) {
	if _, ok := e.entries[workflowID]; !ok {
		e.order = append(e.order, workflowID)
	}
	e.entries[workflowID] = entry
}

// IsAuthorized reports whether the user holds an effective grant for the
// workflow.
func (e *Entitlements) IsAuthorized(workflowID string) bool {
	_, ok := e.entries[workflowID]
	return ok
}

// Get returns the effective grant for a workflow.
func (e *Entitlements) Get(workflowID string) (Entry, bool) {
	entry, ok := e.entries[workflowID]
	return entry, ok
}

// Expiry returns the expiry timestamp of the effective grant, or nil for a
// lifetime grant or an unauthorized workflow.
func (e *Entitlements) Expiry(workflowID string) *string {
	entry, ok := e.entries[workflowID]
	if !ok || entry.Kind == domain.GrantKindLifetime {
		return nil
	}
	return entry.ExpiresAt
}

// WorkflowIDs returns the authorized workflow ids in insertion order.
func (e *Entitlements) WorkflowIDs() []string {
	ids := make([]string, len(e.order))
	copy(ids, e.order)
	return ids
}

// Len returns the number of authorized workflows.
func (e *Entitlements) Len() int {
	return len(e.entries)
}

// Details returns a copy of the full mapping keyed by workflow id.
func (e *Entitlements) Details() map[string]Entry {
	details := make(map[string]Entry, len(e.entries))
	for id, entry := range e.entries {
		details[id] = entry
	}
	return details
}

type entitlementsJSON struct {
	Order   []string         `json:"order"`
	Entries map[string]Entry `json:"entries"`
}

// MarshalJSON keeps the insertion order alongside the entries so resolved
// mappings survive a round trip through the cache.
func (e *Entitlements) MarshalJSON() ([]byte, error) {
	return json.Marshal(entitlementsJSON{Order: e.order, Entries: e.entries})
}

// UnmarshalJSON restores a mapping serialized by MarshalJSON.
func (e *Entitlements) UnmarshalJSON(raw []byte) error {
	var decoded entitlementsJSON
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	e.order = decoded.Order
	e.entries = decoded.Entries
	if e.entries == nil {
		e.entries = make(map[string]Entry)
	}
	return nil
}

// Resolver merges a user's grant records into the authoritative
// per-workflow authorization mapping.
type Resolver struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewResolver builds a resolver evaluating grants against UTC wall time.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Resolve computes the effective entitlement mapping for one document.
//
// Basic access is a master switch: when it is invalid nothing else is
// considered and the result is empty. Package grants are applied in
// document order with insert-if-absent semantics, so the first package to
// grant a workflow wins. Direct grants follow; a direct lifetime grant
// upgrades a weaker package grant, every other conflict leaves the
// existing entry untouched. Invalid grants are skipped, never fatal.
func (r *Resolver) Resolve(doc domain.EntitlementDocument, catalog Catalog) *Entitlements {
	result := NewEntitlements()
	now := r.now()

	if !doc.BasicAccess.ValidAt(now) {
		r.logger.Debug("basic access expired or invalid, no workflows authorized")
		return result
	}

	for _, pkg := range doc.Packages {
		if pkg.PackageID == "" {
			continue
		}
		if !pkg.ValidAt(now) {
			r.logger.Debug("skipping invalid package grant", zap.String("package_id", pkg.PackageID))
			continue
		}
		for _, workflowID := range catalog.Workflows(pkg.PackageID) {
			if result.IsAuthorized(workflowID) {
				continue
			}
			result.insert(workflowID, Entry{
				Source:    SourcePackage,
				PackageID: pkg.PackageID,
				Kind:      pkg.Kind,
				ExpiresAt: pkg.ExpiresAt,
			})
		}
	}

	for _, direct := range doc.Workflows {
		if direct.WorkflowID == "" {
			continue
		}
		if !direct.ValidAt(now) {
			r.logger.Debug("skipping invalid direct grant", zap.String("workflow_id", direct.WorkflowID))
			continue
		}
		existing, ok := result.Get(direct.WorkflowID)
		if ok {
			// A direct lifetime grant replaces a weaker package grant.
			// Direct grants never downgrade.
			if direct.Kind == domain.GrantKindLifetime && existing.Kind != domain.GrantKindLifetime {
				result.insert(direct.WorkflowID, Entry{
					Source:    SourceDirect,
					Kind:      direct.Kind,
					ExpiresAt: direct.ExpiresAt,
				})
			}
			continue
		}
		result.insert(direct.WorkflowID, Entry{
			Source:    SourceDirect,
			Kind:      direct.Kind,
			ExpiresAt: direct.ExpiresAt,
		})
	}

	return result
}
