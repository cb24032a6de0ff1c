// Package crowd loads the static persona catalog and generates the N
// personas a batched crowd vote fans out across.
package crowd

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultCatalogYAML []byte

// template is one archetype entry within a category.
type template struct {
	Name string `yaml:"name"`
}

type catalogDoc map[string][]template

// Persona is one generated crowd voter.
type Persona struct {
	VoterID   string
	Name      string
	Archetype string
}

// categoryOrder fixes the order in which flatten builds the 20-entry
// catalog: the category order is fixed (political, professional, demographic,
// stakeholder) so cycling i%20 is deterministic across runs.
var categoryOrder = []string{"political", "professional", "demographic", "stakeholder"}

func flatten(doc catalogDoc) ([]Persona, error) {
	var flat []Persona
	for _, category := range categoryOrder {
		entries, ok := doc[category]
		if !ok {
			return nil, fmt.Errorf("persona catalog missing category %q", category)
		}
		for _, t := range entries {
			flat = append(flat, Persona{Name: t.Name, Archetype: category})
		}
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("persona catalog is empty")
	}
	return flat, nil
}

// LoadCatalog returns the flattened archetype list, preferring the file at
// PERSONA_CATALOG_PATH if set and readable, falling back to the embedded
// default on any read or parse error.
func LoadCatalog(log *logrus.Logger) []Persona {
	if log == nil {
		log = logrus.New()
	}
	data := defaultCatalogYAML
	if path := os.Getenv("PERSONA_CATALOG_PATH"); path != "" {
		if custom, err := os.ReadFile(path); err == nil {
			data = custom
		} else {
			log.WithError(err).WithField("path", path).Warn("failed to load custom persona catalog, using embedded default")
		}
	}

	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		log.WithError(err).Warn("failed to parse persona catalog, using embedded default")
		if err := yaml.Unmarshal(defaultCatalogYAML, &doc); err != nil {
			panic(fmt.Sprintf("embedded persona catalog is invalid: %v", err))
		}
	}

	flat, err := flatten(doc)
	if err != nil {
		log.WithError(err).Warn("persona catalog malformed, using embedded default")
		var fallback catalogDoc
		_ = yaml.Unmarshal(defaultCatalogYAML, &fallback)
		flat, _ = flatten(fallback)
	}
	return flat
}

// Generate produces n personas by cycling the flattened catalog, matching
// the "v_%03d" id scheme and a "<name> #<cycle>" disambiguator once a
// template has been used more than once.
func Generate(catalog []Persona, n int) []Persona {
	out := make([]Persona, 0, n)
	size := len(catalog)
	for i := 0; i < n; i++ {
		t := catalog[i%size]
		cycle := i/size + 1
		name := t.Name
		if cycle > 1 {
			name = fmt.Sprintf("%s #%d", t.Name, cycle)
		}
		out = append(out, Persona{
			VoterID:   fmt.Sprintf("v_%03d", i+1),
			Name:      name,
			Archetype: t.Archetype,
		})
	}
	return out
}
