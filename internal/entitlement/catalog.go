package entitlement

import (
	"encoding/json"
	"os"

	"go.uber.org/zap"
)

// Catalog maps a package id to the ordered list of workflow ids it bundles.
// Loaded once at startup and read-only afterwards.
type Catalog map[string][]string

// Workflows returns the workflows bundled in a package. An unknown package
// id resolves to an empty list.
func (c Catalog) Workflows(packageID string) []string {
	if c == nil {
		return nil
	}
	return c[packageID]
}

type catalogPackage struct {
	Workflows []string `json:"workflows"`
}

// LoadCatalog reads the package catalog file. A missing or malformed file
// yields an empty catalog; package lookups then simply find nothing.
func LoadCatalog(path string, logger *zap.Logger) Catalog {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("package catalog not loaded", zap.String("path", path), zap.Error(err))
		return Catalog{}
	}

	var packages map[string]catalogPackage
	if err := json.Unmarshal(raw, &packages); err != nil {
		logger.Error("package catalog malformed", zap.String("path", path), zap.Error(err))
		return Catalog{}
	}

	catalog := make(Catalog, len(packages))
	for id, pkg := range packages {
		catalog[id] = pkg.Workflows
	}
	logger.Info("package catalog loaded", zap.String("path", path), zap.Int("packages", len(catalog)))
	return catalog
}
