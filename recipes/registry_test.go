package recipes

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry_Rebuild(t *testing.T) {
	reg, err := NewRegistry(samplePaths(), zap.NewNop())
	require.NoError(t, err)
	first := reg.Load()
	assert.Equal(t, 3, first.Len())

	require.NoError(t, reg.Rebuild(samplePaths()[:1]))
	assert.Equal(t, 1, reg.Load().Len())
	assert.Equal(t, 3, first.Len(), "old index must stay intact")
}

func TestRegistry_RejectedRebuildKeepsIndex(t *testing.T) {
	reg, err := NewRegistry(samplePaths(), nil)
	require.NoError(t, err)
	before := reg.Load()

	err = reg.Rebuild(nil)
	assert.ErrorIs(t, err, ErrNoRecipes)
	assert.Same(t, before, reg.Load())
}

func TestNewRegistry_Empty(t *testing.T) {
	_, err := NewRegistry(nil, nil)
	assert.ErrorIs(t, err, ErrNoRecipes)
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	reg, err := NewRegistry(samplePaths(), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				idx := reg.Load()
				_ = idx.GroupsExcludingOutput(empSword)
				_ = idx.GroupsMatchingInput(sword)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, reg.Rebuild(samplePaths()))
	}
	wg.Wait()
}
