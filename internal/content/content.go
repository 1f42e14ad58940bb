// Package content embeds the stock escape-room catalog.
package content

import (
	_ "embed"
	"fmt"

	"escape-room-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// DefaultCatalogID names the embedded catalog.
const DefaultCatalogID = "default"

// Default decodes the embedded catalog.
func Default() (domain.Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Parse decodes a catalog from YAML.
func Parse(data []byte) (domain.Catalog, error) {
	var catalog domain.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return domain.Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	return catalog, nil
}
