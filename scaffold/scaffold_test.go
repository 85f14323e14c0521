package scaffold

import (
	"strings"
	"testing"
	"time"

	"github.com/getpup/seeder"
	"github.com/getpup/seeder/discovery"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

func newTestCreator() (*Creator, afero.Fs) {
	fs := afero.NewMemMapFs()
	return &Creator{Fs: fs, Now: fixedNow}, fs
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestCreate_SQLStub(t *testing.T) {
	creator, fs := newTestCreator()

	path, err := creator.Create("demo_users", "seeders/staging", KindSQL)
	require.NoError(t, err)
	assert.Equal(t, "seeders/staging/20240102030405_demo_users.sql", path)

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "demo_users_sql", content)
}

func TestCreate_GoStub(t *testing.T) {
	creator, fs := newTestCreator()

	path, err := creator.Create("demo_users", "seeders/staging", KindGo)
	require.NoError(t, err)
	assert.Equal(t, "seeders/staging/20240102030405_demo_users.go", path)

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "demo_users_go", content)
}

func TestCreate_SQLStubParses(t *testing.T) {
	creator, fs := newTestCreator()

	path, err := creator.Create("roles", "seeders/all", KindSQL)
	require.NoError(t, err)

	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()

	unit, err := discovery.ParseSQL(f)
	require.NoError(t, err)
	assert.Empty(t, unit.Up)
	assert.Empty(t, unit.Down)
}

func TestCreate_IsDiscovered(t *testing.T) {
	creator, fs := newTestCreator()

	_, err := creator.Create("roles", "seeders/all", KindSQL)
	require.NoError(t, err)

	ids, err := discovery.New(discovery.Config{Fs: fs, Registry: discovery.NewRegistry()}).
		Scan(discovery.EnvironmentPaths("seeders", "staging"))
	require.NoError(t, err)
	assert.Equal(t, []string{"20240102030405_roles"}, ids)
}

func TestCreate_RejectsDuplicateName(t *testing.T) {
	creator, fs := newTestCreator()
	require.NoError(t, afero.WriteFile(fs, "seeders/all/20230101000000_roles.go", []byte("package all"), 0o644))

	_, err := creator.Create("roles", "seeders/all", KindSQL)

	assert.ErrorIs(t, err, seeder.ErrDuplicateSeed)
	assert.ErrorContains(t, err, "20230101000000_roles.go")
}

func TestCreate_AllowsSameNameInOtherDirectory(t *testing.T) {
	creator, fs := newTestCreator()
	require.NoError(t, afero.WriteFile(fs, "seeders/all/20230101000000_roles.sql", []byte("-- +seed Up\n"), 0o644))

	_, err := creator.Create("roles", "seeders/staging", KindSQL)

	assert.NoError(t, err)
}

func TestCreate_RejectsInvalidNames(t *testing.T) {
	creator, _ := newTestCreator()

	for _, name := range []string{"", "Roles", "1roles", "demo-users", "demo users", "../escape"} {
		t.Run(name, func(t *testing.T) {
			_, err := creator.Create(name, "seeders/all", KindSQL)
			assert.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestCreate_UnsupportedKind(t *testing.T) {
	creator, _ := newTestCreator()

	_, err := creator.Create("roles", "seeders/all", Kind("php"))

	assert.ErrorContains(t, err, `unsupported seed kind "php"`)
}

func TestCreate_DefaultsToCurrentTime(t *testing.T) {
	fs := afero.NewMemMapFs()
	creator := &Creator{Fs: fs}
	before := time.Now().UTC().Format(TimestampLayout)

	path, err := creator.Create("roles", "seeders/all", KindSQL)
	require.NoError(t, err)

	prefix := strings.TrimPrefix(path, "seeders/all/")[:len(TimestampLayout)]
	assert.GreaterOrEqual(t, prefix, before)
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{"sql": KindSQL, ".sql": KindSQL, "": KindSQL, "go": KindGo, "GO": KindGo}
	for input, want := range tests {
		got, err := ParseKind(input)
		require.NoError(t, err)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseKind("php")
	assert.Error(t, err)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "rolesSeed", typeName("roles"))
	assert.Equal(t, "demoUsersSeed", typeName("demo_users"))
	assert.Equal(t, "v2SettingsSeed", typeName("v2_settings"))
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "staging", packageName("staging"))
	assert.Equal(t, "all", packageName("all"))
	assert.Equal(t, "qaeu", packageName("qa-eu"))
	assert.Equal(t, "seeders2024", packageName("2024"))
}
