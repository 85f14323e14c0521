package memory

import (
	"context"
	"testing"

	"github.com/getpup/seeder/store"
	"github.com/getpup/seeder/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.LedgerStore {
		return NewInstalled()
	})
}

func TestNew_NotInstalled(t *testing.T) {
	s := New()
	ctx := context.Background()

	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Create(ctx))

	exists, err = s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLog_RejectsZeroBatch(t *testing.T) {
	s := NewInstalled()

	err := s.Log(context.Background(), "20240101000000_a", "staging", 0)
	assert.ErrorIs(t, err, store.ErrInvalidBatch)
}

func TestApplied_SortedAscending(t *testing.T) {
	s := NewInstalled()
	ctx := context.Background()

	require.NoError(t, s.Log(ctx, "c", "staging", 1))
	require.NoError(t, s.Log(ctx, "a", "staging", 1))
	require.NoError(t, s.Log(ctx, "b", "staging", 2))

	applied, err := s.Applied(ctx, "staging")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, applied)
}
