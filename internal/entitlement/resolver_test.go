package entitlement

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mionax/starfusion-manager/internal/domain"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestResolver() *Resolver {
	r := NewResolver(zap.NewNop())
	r.now = func() time.Time { return testNow }
	return r
}

func strPtr(s string) *string { return &s }

func futureExpiry() *string { return strPtr("2025-06-16T12:00:00Z") }
func pastExpiry() *string   { return strPtr("2025-06-15T11:00:00Z") }

func validBasicAccess() domain.Grant {
	return domain.Grant{Kind: domain.GrantKindTemp, ExpiresAt: futureExpiry()}
}

func TestResolveExpiredBasicAccessBlocksEverything(t *testing.T) {
	doc := domain.EntitlementDocument{
		BasicAccess: domain.Grant{Kind: domain.GrantKindTemp, ExpiresAt: pastExpiry()},
		Packages: []domain.PackageGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, PackageID: "P1"},
		},
		Workflows: []domain.DirectGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, WorkflowID: "wfA"},
		},
	}
	catalog := Catalog{"P1": {"wfA", "wfB"}}

	got := newTestResolver().Resolve(doc, catalog)
	if got.Len() != 0 {
		t.Fatalf("expected empty mapping, got %d entries", got.Len())
	}
}

func TestResolvePackageThenDirectUpgrade(t *testing.T) {
	doc := domain.EntitlementDocument{
		BasicAccess: validBasicAccess(),
		Packages: []domain.PackageGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, PackageID: "P1"},
		},
		Workflows: []domain.DirectGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, WorkflowID: "wfB"},
		},
	}
	catalog := Catalog{"P1": {"wfA", "wfB"}}

	got := newTestResolver().Resolve(doc, catalog)

	wfA, ok := got.Get("wfA")
	if !ok || wfA.Source != SourcePackage || wfA.PackageID != "P1" || wfA.Kind != domain.GrantKindLifetime {
		t.Fatalf("wfA = %+v, ok=%v, want package/lifetime via P1", wfA, ok)
	}
	// Package grant for wfB is lifetime already, so the direct lifetime
	// grant does not replace it.
	wfB, ok := got.Get("wfB")
	if !ok || wfB.Source != SourcePackage {
		t.Fatalf("wfB = %+v, ok=%v, want package entry retained", wfB, ok)
	}
	if got.IsAuthorized("wfC") {
		t.Fatalf("wfC should not be authorized")
	}
}

func TestResolveDirectLifetimeUpgradesTemporaryPackageGrant(t *testing.T) {
	doc := domain.EntitlementDocument{
		BasicAccess: validBasicAccess(),
		Packages: []domain.PackageGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindMonthly, ExpiresAt: futureExpiry()}, PackageID: "P1"},
		},
		Workflows: []domain.DirectGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, WorkflowID: "wfB"},
		},
	}
	catalog := Catalog{"P1": {"wfA", "wfB"}}

	got := newTestResolver().Resolve(doc, catalog)

	wfB, _ := got.Get("wfB")
	if wfB.Source != SourceDirect || wfB.Kind != domain.GrantKindLifetime {
		t.Fatalf("wfB = %+v, want direct/lifetime upgrade", wfB)
	}
	if wfB.PackageID != "" {
		t.Fatalf("upgraded entry should not carry a package id, got %q", wfB.PackageID)
	}
	wfA, _ := got.Get("wfA")
	if wfA.Source != SourcePackage || wfA.Kind != domain.GrantKindMonthly {
		t.Fatalf("wfA = %+v, want untouched package grant", wfA)
	}
}

func TestResolveDirectTemporaryNeverDowngrades(t *testing.T) {
	doc := domain.EntitlementDocument{
		BasicAccess: validBasicAccess(),
		Packages: []domain.PackageGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindMonthly, ExpiresAt: futureExpiry()}, PackageID: "P1"},
		},
		Workflows: []domain.DirectGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindTemp, ExpiresAt: futureExpiry()}, WorkflowID: "wfA"},
		},
	}
	catalog := Catalog{"P1": {"wfA"}}

	got := newTestResolver().Resolve(doc, catalog)

	wfA, _ := got.Get("wfA")
	if wfA.Source != SourcePackage || wfA.Kind != domain.GrantKindMonthly {
		t.Fatalf("wfA = %+v, want package entry to win over direct temp", wfA)
	}
}

func TestResolveFirstPackageWinsOnOverlap(t *testing.T) {
	doc := domain.EntitlementDocument{
		BasicAccess: validBasicAccess(),
		Packages: []domain.PackageGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindMonthly, ExpiresAt: futureExpiry()}, PackageID: "P1"},
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, PackageID: "P2"},
		},
	}
	catalog := Catalog{"P1": {"wfA"}, "P2": {"wfA", "wfB"}}

	got := newTestResolver().Resolve(doc, catalog)

	wfA, _ := got.Get("wfA")
	if wfA.PackageID != "P1" || wfA.Kind != domain.GrantKindMonthly {
		t.Fatalf("wfA = %+v, want earlier package P1 to win", wfA)
	}
	wfB, _ := got.Get("wfB")
	if wfB.PackageID != "P2" {
		t.Fatalf("wfB = %+v, want granted via P2", wfB)
	}
}

func TestResolveSkipsInvalidAndAnonymousGrants(t *testing.T) {
	doc := domain.EntitlementDocument{
		BasicAccess: validBasicAccess(),
		Packages: []domain.PackageGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindMonthly, ExpiresAt: pastExpiry()}, PackageID: "P1"},
			{Grant: domain.Grant{Kind: domain.GrantKindMonthly}, PackageID: "P2"},
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, PackageID: ""},
		},
		Workflows: []domain.DirectGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindTemp, ExpiresAt: strPtr("garbage")}, WorkflowID: "wfX"},
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, WorkflowID: ""},
		},
	}
	catalog := Catalog{"P1": {"wfA"}, "P2": {"wfB"}}

	got := newTestResolver().Resolve(doc, catalog)
	if got.Len() != 0 {
		t.Fatalf("expected no entries, got %v", got.WorkflowIDs())
	}
}

func TestResolveMissingPackageInCatalogIsNonFatal(t *testing.T) {
	doc := domain.EntitlementDocument{
		BasicAccess: validBasicAccess(),
		Packages: []domain.PackageGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, PackageID: "unknown"},
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, PackageID: "P1"},
		},
	}
	catalog := Catalog{"P1": {"wfA"}}

	got := newTestResolver().Resolve(doc, catalog)
	if !reflect.DeepEqual(got.WorkflowIDs(), []string{"wfA"}) {
		t.Fatalf("WorkflowIDs() = %v, want [wfA]", got.WorkflowIDs())
	}
}

func TestResolveInsertionOrderAndIdempotence(t *testing.T) {
	doc := domain.EntitlementDocument{
		BasicAccess: validBasicAccess(),
		Packages: []domain.PackageGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, PackageID: "P2"},
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, PackageID: "P1"},
		},
		Workflows: []domain.DirectGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindTemp, ExpiresAt: futureExpiry()}, WorkflowID: "wfZ"},
		},
	}
	catalog := Catalog{"P1": {"wfA"}, "P2": {"wfB", "wfC"}}

	resolver := newTestResolver()
	first := resolver.Resolve(doc, catalog)
	second := resolver.Resolve(doc, catalog)

	want := []string{"wfB", "wfC", "wfA", "wfZ"}
	if !reflect.DeepEqual(first.WorkflowIDs(), want) {
		t.Fatalf("WorkflowIDs() = %v, want %v", first.WorkflowIDs(), want)
	}
	if !reflect.DeepEqual(first.WorkflowIDs(), second.WorkflowIDs()) {
		t.Fatalf("second resolution differs: %v vs %v", first.WorkflowIDs(), second.WorkflowIDs())
	}
	if !reflect.DeepEqual(first.Details(), second.Details()) {
		t.Fatalf("details differ between identical resolutions")
	}
}

func TestEntitlementsExpiry(t *testing.T) {
	doc := domain.EntitlementDocument{
		BasicAccess: validBasicAccess(),
		Workflows: []domain.DirectGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, WorkflowID: "forever"},
			{Grant: domain.Grant{Kind: domain.GrantKindMonthly, ExpiresAt: futureExpiry()}, WorkflowID: "rented"},
		},
	}

	got := newTestResolver().Resolve(doc, Catalog{})

	if exp := got.Expiry("forever"); exp != nil {
		t.Fatalf("Expiry(forever) = %v, want nil", *exp)
	}
	if exp := got.Expiry("rented"); exp == nil || *exp != *futureExpiry() {
		t.Fatalf("Expiry(rented) = %v, want %s", exp, *futureExpiry())
	}
	if exp := got.Expiry("missing"); exp != nil {
		t.Fatalf("Expiry(missing) = %v, want nil", *exp)
	}
}

func TestEntitlementsJSONRoundTrip(t *testing.T) {
	doc := domain.EntitlementDocument{
		BasicAccess: validBasicAccess(),
		Packages: []domain.PackageGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, PackageID: "P1"},
		},
		Workflows: []domain.DirectGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindMonthly, ExpiresAt: futureExpiry()}, WorkflowID: "wfZ"},
		},
	}
	original := newTestResolver().Resolve(doc, Catalog{"P1": {"wfA"}})

	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored := NewEntitlements()
	if err := json.Unmarshal(raw, restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(original.WorkflowIDs(), restored.WorkflowIDs()) {
		t.Fatalf("order lost: %v vs %v", original.WorkflowIDs(), restored.WorkflowIDs())
	}
	if !reflect.DeepEqual(original.Details(), restored.Details()) {
		t.Fatalf("entries lost in round trip")
	}
}
