package domain

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestGrantValidAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		grant Grant
		want  bool
	}{
		{"lifetime without expiry", Grant{Kind: GrantKindLifetime}, true},
		{"lifetime ignores past expiry", Grant{Kind: GrantKindLifetime, ExpiresAt: strPtr("2020-01-01T00:00:00Z")}, true},
		{"temp in the future", Grant{Kind: GrantKindTemp, ExpiresAt: strPtr("2025-06-16T12:00:00Z")}, true},
		{"monthly in the past", Grant{Kind: GrantKindMonthly, ExpiresAt: strPtr("2025-06-15T11:00:00Z")}, false},
		{"temp without expiry", Grant{Kind: GrantKindTemp}, false},
		{"temp with empty expiry", Grant{Kind: GrantKindTemp, ExpiresAt: strPtr("")}, false},
		{"temp with garbage expiry", Grant{Kind: GrantKindTemp, ExpiresAt: strPtr("next tuesday")}, false},
		{"yearly with fractional seconds", Grant{Kind: GrantKindYearly, ExpiresAt: strPtr("2025-06-30T23:59:59.000Z")}, true},
		{"expiry equal to now", Grant{Kind: GrantKindTemp, ExpiresAt: strPtr("2025-06-15T12:00:00Z")}, false},
		{"unknown kind without expiry", Grant{Kind: GrantKind("weekly")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.grant.ValidAt(now); got != tt.want {
				t.Fatalf("ValidAt() = %v, want %v", got, tt.want)
			}
		})
	}
}
