package entitlement

import (
	"encoding/json"

	"github.com/mionax/starfusion-manager/internal/domain"
)

// ParseDocument decodes a raw entitlement document. Malformed input
// degrades to the empty document (invalid basic access, no grants) so the
// resolver always receives something it can work with.
func ParseDocument(raw []byte) domain.EntitlementDocument {
	var doc domain.EntitlementDocument
	if len(raw) == 0 {
		return domain.EntitlementDocument{}
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.EntitlementDocument{}
	}
	return doc
}
