package recipe

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Recipe is one catalog entry
type Recipe struct {
	Name        string   `yaml:"name" json:"name"`
	Ingredients []string `yaml:"ingredients" json:"ingredients"`
	Steps       []string `yaml:"steps" json:"steps"`
}

// Catalog is the in-memory recipe database, keyed by normalized dish name
type Catalog struct {
	recipes map[string]Recipe
}

// LoadCatalog parses the embedded catalog
func LoadCatalog() (*Catalog, error) {
	var doc struct {
		Recipes []Recipe `yaml:"recipes"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse recipe catalog: %w", err)
	}
	if len(doc.Recipes) == 0 {
		return nil, fmt.Errorf("recipe catalog is empty")
	}

	catalog := &Catalog{recipes: make(map[string]Recipe, len(doc.Recipes))}
	for _, r := range doc.Recipes {
		catalog.recipes[normalize(r.Name)] = r
	}
	return catalog, nil
}

// Lookup finds a recipe by dish name, case-insensitively
func (c *Catalog) Lookup(name string) (Recipe, bool) {
	r, ok := c.recipes[normalize(name)]
	return r, ok
}

// Names returns all known dish names, sorted
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.recipes))
	for _, r := range c.recipes {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
