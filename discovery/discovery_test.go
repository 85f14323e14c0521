package discovery

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/getpup/seeder"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rolesSQL = `-- +seed Up
INSERT INTO roles (name) VALUES ('admin');

-- +seed Down
DELETE FROM roles WHERE name = 'admin';
`

type noopUnit struct{ name string }

func (noopUnit) Apply(context.Context, seeder.Execer) error   { return nil }
func (noopUnit) Reverse(context.Context, seeder.Execer) error { return nil }

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func newTestDiscovery(t *testing.T) (*Discovery, afero.Fs, *Registry) {
	t.Helper()
	fs := afero.NewMemMapFs()
	registry := NewRegistry()
	return New(Config{Fs: fs, Registry: registry}), fs, registry
}

func TestEnvironmentPaths(t *testing.T) {
	assert.Equal(t, []string{
		filepath.Join("seeders", "all"),
		filepath.Join("seeders", "staging"),
	}, EnvironmentPaths("seeders", "staging"))
}

func TestNameOf(t *testing.T) {
	tests := map[string]string{
		"seeders/all/20240101000000_roles.sql":      "20240101000000_roles",
		"20240101000000_users.go":                   "20240101000000_users",
		"/abs/path/staging/20240101000000_demo.sql": "20240101000000_demo",
		"seeders/all/20240101000000_no_extension":   "20240101000000_no_extension",
	}

	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, NameOf(path))
		})
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	d := New(Config{})

	assert.NotNil(t, d.fs)
	assert.Same(t, DefaultRegistry, d.registry)
}

func TestScan_MergesSortsAndDeduplicates(t *testing.T) {
	d, fs, _ := newTestDiscovery(t)
	writeFile(t, fs, "seeders/all/20240103000000_c.sql", rolesSQL)
	writeFile(t, fs, "seeders/all/20240101000000_a.sql", rolesSQL)
	writeFile(t, fs, "seeders/staging/20240102000000_b.sql", rolesSQL)
	writeFile(t, fs, "seeders/staging/20240101000000_a.sql", rolesSQL)

	catalog, err := d.Scan(EnvironmentPaths("seeders", "staging"))

	require.NoError(t, err)
	assert.Equal(t, []string{"20240101000000_a", "20240102000000_b", "20240103000000_c"}, catalog.IDs())
}

func TestScan_MissingDirectoriesContributeNothing(t *testing.T) {
	d, fs, _ := newTestDiscovery(t)
	writeFile(t, fs, "seeders/all/20240101000000_a.sql", rolesSQL)

	catalog, err := d.Scan(EnvironmentPaths("seeders", "production"))
	require.NoError(t, err)
	assert.Equal(t, []string{"20240101000000_a"}, catalog.IDs())

	catalog, err = d.Scan([]string{"nowhere"})
	require.NoError(t, err)
	assert.Empty(t, catalog.IDs())
}

func TestScan_SkipsUnrecognisedFiles(t *testing.T) {
	d, fs, _ := newTestDiscovery(t)
	writeFile(t, fs, "seeders/all/20240101000000_a.sql", rolesSQL)
	writeFile(t, fs, "seeders/all/20240101000000_a_test.go", "package all")
	writeFile(t, fs, "seeders/all/README.md", "docs")
	writeFile(t, fs, "seeders/all/.hidden.sql", rolesSQL)
	writeFile(t, fs, "seeders/all/nested/20240102000000_b.sql", rolesSQL)

	catalog, err := d.Scan([]string{"seeders/all"})

	require.NoError(t, err)
	assert.Equal(t, []string{"20240101000000_a"}, catalog.IDs())
}

func TestScan_IncludesRegisteredUnitsOfScannedGroup(t *testing.T) {
	d, fs, registry := newTestDiscovery(t)
	writeFile(t, fs, "seeders/all/20240102000000_b.sql", rolesSQL)
	require.NoError(t, registry.RegisterIn("all", "20240101000000_a", func() seeder.Unit { return noopUnit{} }))
	require.NoError(t, registry.RegisterIn("production", "20240103000000_c", func() seeder.Unit { return noopUnit{} }))

	catalog, err := d.Scan(EnvironmentPaths("seeders", "staging"))

	require.NoError(t, err)
	assert.Equal(t, []string{"20240101000000_a", "20240102000000_b"}, catalog.IDs())
}

func TestResolve_PrefersRegistry(t *testing.T) {
	d, fs, registry := newTestDiscovery(t)
	writeFile(t, fs, "seeders/all/20240101000000_a.go", "package all")
	require.NoError(t, registry.RegisterIn("all", "20240101000000_a", func() seeder.Unit { return noopUnit{name: "compiled"} }))

	catalog, err := d.Scan([]string{"seeders/all"})
	require.NoError(t, err)

	unit, err := catalog.Resolve("20240101000000_a")
	require.NoError(t, err)
	assert.Equal(t, noopUnit{name: "compiled"}, unit)
}

func TestResolve_ParsesSQLFile(t *testing.T) {
	d, fs, _ := newTestDiscovery(t)
	writeFile(t, fs, "seeders/all/20240101000000_roles.sql", rolesSQL)

	catalog, err := d.Scan([]string{"seeders/all"})
	require.NoError(t, err)

	unit, err := catalog.Resolve("20240101000000_roles")
	require.NoError(t, err)

	sqlUnit, ok := unit.(*SQLUnit)
	require.True(t, ok)
	assert.Equal(t, []string{"INSERT INTO roles (name) VALUES ('admin');"}, sqlUnit.Up)
	assert.Equal(t, []string{"DELETE FROM roles WHERE name = 'admin';"}, sqlUnit.Down)
}

func TestResolve_FirstPathShadowsLater(t *testing.T) {
	d, fs, _ := newTestDiscovery(t)
	writeFile(t, fs, "seeders/all/20240101000000_a.sql", "-- +seed Up\nSELECT 'all';\n")
	writeFile(t, fs, "seeders/staging/20240101000000_a.sql", "-- +seed Up\nSELECT 'staging';\n")

	catalog, err := d.Scan(EnvironmentPaths("seeders", "staging"))
	require.NoError(t, err)

	unit, err := catalog.Resolve("20240101000000_a")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 'all';"}, unit.(*SQLUnit).Up)
}

func TestResolve_UnknownSeed(t *testing.T) {
	d, _, _ := newTestDiscovery(t)
	catalog, err := d.Scan([]string{"seeders/all"})
	require.NoError(t, err)

	_, err = catalog.Resolve("20240101000000_missing")

	assert.ErrorIs(t, err, seeder.ErrUnitNotFound)
	assert.ErrorContains(t, err, "20240101000000_missing")
}

func TestResolve_UnregisteredGoFile(t *testing.T) {
	d, fs, _ := newTestDiscovery(t)
	writeFile(t, fs, "seeders/all/20240101000000_a.go", "package all")

	catalog, err := d.Scan([]string{"seeders/all"})
	require.NoError(t, err)

	_, err = catalog.Resolve("20240101000000_a")
	assert.ErrorIs(t, err, seeder.ErrUnitNotFound)
	assert.ErrorContains(t, err, "not registered")
}

func TestResolve_CatalogIsUnaffectedByLaterScans(t *testing.T) {
	d, fs, _ := newTestDiscovery(t)
	writeFile(t, fs, "seeders/staging/20240101000000_a.sql", "-- +seed Up\nSELECT 'staging';\n")
	writeFile(t, fs, "seeders/production/20240101000000_a.sql", "-- +seed Up\nSELECT 'production';\n")
	writeFile(t, fs, "seeders/staging/20240102000000_b.sql", rolesSQL)

	staging, err := d.Scan([]string{"seeders/staging"})
	require.NoError(t, err)
	production, err := d.Scan([]string{"seeders/production"})
	require.NoError(t, err)

	unit, err := staging.Resolve("20240101000000_a")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 'staging';"}, unit.(*SQLUnit).Up)

	_, err = staging.Resolve("20240102000000_b")
	assert.NoError(t, err)

	unit, err = production.Resolve("20240101000000_a")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 'production';"}, unit.(*SQLUnit).Up)

	_, err = production.Resolve("20240102000000_b")
	assert.ErrorIs(t, err, seeder.ErrUnitNotFound)
}

func TestScan_IDsReturnsCopy(t *testing.T) {
	d, fs, _ := newTestDiscovery(t)
	writeFile(t, fs, "seeders/all/20240101000000_a.sql", rolesSQL)

	catalog, err := d.Scan([]string{"seeders/all"})
	require.NoError(t, err)

	ids := catalog.IDs()
	ids[0] = "changed"
	assert.Equal(t, []string{"20240101000000_a"}, catalog.IDs())
}

func TestResolve_InvalidSQLFile(t *testing.T) {
	d, fs, _ := newTestDiscovery(t)
	writeFile(t, fs, "seeders/all/20240101000000_a.sql", "INSERT INTO roles VALUES (1);\n")

	catalog, err := d.Scan([]string{"seeders/all"})
	require.NoError(t, err)

	_, err = catalog.Resolve("20240101000000_a")
	require.Error(t, err)
	assert.False(t, errors.Is(err, seeder.ErrUnitNotFound))
	assert.ErrorContains(t, err, "failed to parse seed file")
}

func TestNameOf_NormalizesToNFC(t *testing.T) {
	decomposed := "seeders/all/20240101000000_cafe\u0301.sql"

	assert.Equal(t, "20240101000000_caf\u00e9", NameOf(decomposed))
}
