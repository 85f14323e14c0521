package discovery

import (
	"testing"

	"github.com/getpup/seeder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	registry := NewRegistry()
	calls := 0
	require.NoError(t, registry.RegisterIn("all", "20240101000000_a", func() seeder.Unit {
		calls++
		return noopUnit{name: "a"}
	}))

	unit, ok := registry.Lookup("20240101000000_a")
	require.True(t, ok)
	assert.Equal(t, noopUnit{name: "a"}, unit)

	_, _ = registry.Lookup("20240101000000_a")
	assert.Equal(t, 2, calls, "each lookup builds a fresh unit")

	_, ok = registry.Lookup("20240101000000_b")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	factory := func() seeder.Unit { return noopUnit{} }
	require.NoError(t, registry.RegisterIn("all", "20240101000000_a", factory))

	err := registry.RegisterIn("staging", "20240101000000_a", factory)

	assert.ErrorIs(t, err, seeder.ErrDuplicateSeed)
}

func TestRegistry_RejectsInvalidRegistrations(t *testing.T) {
	registry := NewRegistry()

	assert.Error(t, registry.RegisterIn("all", "", func() seeder.Unit { return noopUnit{} }))
	assert.Error(t, registry.RegisterIn("all", "20240101000000_a", nil))
}

func TestRegistry_RegisterUsesCallerDirectory(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register("20240101000000_a", func() seeder.Unit { return noopUnit{} }))

	assert.Equal(t, []string{"20240101000000_a"}, registry.Group("discovery"))
}

func TestRegistry_GroupIsSorted(t *testing.T) {
	registry := NewRegistry()
	factory := func() seeder.Unit { return noopUnit{} }
	require.NoError(t, registry.RegisterIn("all", "20240102000000_b", factory))
	require.NoError(t, registry.RegisterIn("all", "20240101000000_a", factory))
	require.NoError(t, registry.RegisterIn("staging", "20240103000000_c", factory))

	assert.Equal(t, []string{"20240101000000_a", "20240102000000_b"}, registry.Group("all"))
	assert.Empty(t, registry.Group("production"))
}

func TestMustRegister_PanicsOnDuplicate(t *testing.T) {
	id := "20000101000000_must_register_duplicate"
	factory := func() seeder.Unit { return noopUnit{} }
	MustRegister(id, factory)

	assert.Panics(t, func() { MustRegister(id, factory) })
}

func TestRegistry_NormalizesIdentifiers(t *testing.T) {
	const (
		composed   = "20240101000000_caf\u00e9"
		decomposed = "20240101000000_cafe\u0301"
	)

	r := NewRegistry()
	require.NoError(t, r.RegisterIn("all", decomposed, func() seeder.Unit { return nil }))

	_, ok := r.Lookup(composed)
	assert.True(t, ok)

	err := r.RegisterIn("all", composed, func() seeder.Unit { return nil })
	assert.ErrorIs(t, err, seeder.ErrDuplicateSeed)
	assert.Equal(t, []string{composed}, r.Group("all"))
}
