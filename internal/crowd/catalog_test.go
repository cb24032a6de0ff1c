package crowd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plswearpants/AI-debate/internal/crowd"
)

func TestLoadCatalogReturnsTwentyArchetypes(t *testing.T) {
	catalog := crowd.LoadCatalog(nil)
	assert.Len(t, catalog, 20)

	counts := map[string]int{}
	for _, p := range catalog {
		counts[p.Archetype]++
	}
	for _, category := range []string{"political", "professional", "demographic", "stakeholder"} {
		assert.Equal(t, 5, counts[category], "category %s", category)
	}
}

func TestLoadCatalogFallsBackOnUnreadableOverride(t *testing.T) {
	t.Setenv("PERSONA_CATALOG_PATH", filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	catalog := crowd.LoadCatalog(nil)
	assert.Len(t, catalog, 20)
}

func TestLoadCatalogFallsBackOnMalformedOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("political:\n  - name: Only One\n"), 0o644))
	t.Setenv("PERSONA_CATALOG_PATH", path)

	catalog := crowd.LoadCatalog(nil)
	assert.Len(t, catalog, 20) // missing categories -> falls back to embedded default
}

func TestLoadCatalogHonorsValidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	custom := `
political:
  - name: A
professional:
  - name: B
demographic:
  - name: C
stakeholder:
  - name: D
`
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))
	t.Setenv("PERSONA_CATALOG_PATH", path)

	catalog := crowd.LoadCatalog(nil)
	require.Len(t, catalog, 4)
	assert.Equal(t, "A", catalog[0].Name)
}

func TestGenerateAssignsSequentialVoterIDs(t *testing.T) {
	catalog := crowd.LoadCatalog(nil)
	personas := crowd.Generate(catalog, 5)
	require.Len(t, personas, 5)
	for i, p := range personas {
		assert.Equal(t, catalog[i].Name, p.Name)
		assert.Equal(t, catalog[i].Archetype, p.Archetype)
	}
	assert.Equal(t, "v_001", personas[0].VoterID)
	assert.Equal(t, "v_005", personas[4].VoterID)
}

func TestGenerateCyclesPastCatalogSizeWithDisambiguator(t *testing.T) {
	catalog := crowd.LoadCatalog(nil)
	personas := crowd.Generate(catalog, 25)
	require.Len(t, personas, 25)

	first := personas[0]
	wrapped := personas[20]
	assert.Equal(t, first.Archetype, wrapped.Archetype)
	assert.Contains(t, wrapped.Name, "#2")
	assert.Equal(t, "v_021", wrapped.VoterID)
}
