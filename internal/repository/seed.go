package repository

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"storefront-service/internal/entity"
)

//go:embed seed/catalog.yaml
var defaultCatalog []byte

// Seed is the catalog loaded at startup.
type Seed struct {
	Categories []entity.Category `yaml:"categories"`
	Products   []entity.Product  `yaml:"products"`
}

// LoadSeed reads the catalog seed from path, or the embedded catalog when path is empty.
func LoadSeed(path string) (Seed, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Seed{}, fmt.Errorf("read catalog seed: %w", err)
		}
		data = b
	}
	return ParseSeed(data)
}

// ParseSeed decodes and checks a YAML catalog.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("decode catalog seed: %w", err)
	}

	categories := make(map[int]bool, len(seed.Categories))
	slugs := make(map[string]bool, len(seed.Categories))
	for _, c := range seed.Categories {
		if slugs[c.Slug] {
			return Seed{}, fmt.Errorf("duplicate category slug %q", c.Slug)
		}
		if categories[c.ID] {
			return Seed{}, fmt.Errorf("duplicate category id %d", c.ID)
		}
		slugs[c.Slug] = true
		categories[c.ID] = true
	}

	productSlugs := make(map[string]bool, len(seed.Products))
	productIDs := make(map[int]bool, len(seed.Products))
	for _, p := range seed.Products {
		switch {
		case p.Price <= 0:
			return Seed{}, fmt.Errorf("product %q: price must be positive", p.Slug)
		case p.Quantity < 0:
			return Seed{}, fmt.Errorf("product %q: quantity must not be negative", p.Slug)
		case !categories[p.CategoryID]:
			return Seed{}, fmt.Errorf("product %q: unknown category %d", p.Slug, p.CategoryID)
		case !p.City.Valid():
			return Seed{}, fmt.Errorf("product %q: unknown city %q", p.Slug, p.City)
		case productSlugs[p.Slug]:
			return Seed{}, fmt.Errorf("duplicate product slug %q", p.Slug)
		case productIDs[p.ID]:
			return Seed{}, fmt.Errorf("duplicate product id %d", p.ID)
		}
		productSlugs[p.Slug] = true
		productIDs[p.ID] = true
	}
	return seed, nil
}
