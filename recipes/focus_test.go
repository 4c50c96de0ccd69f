package recipes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farrelathalla/anvil-upgrades/item"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Input ")
	require.NoError(t, err)
	assert.Equal(t, ModeInput, m)

	m, err = ParseMode("output")
	require.NoError(t, err)
	assert.Equal(t, ModeOutput, m)
	assert.Equal(t, "output", m.String())

	_, err = ParseMode("catalyst")
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	paths := samplePaths()
	idx := mustIndex(t, paths)

	t.Run("input focus", func(t *testing.T) {
		got := idx.Lookup(Focus{Mode: ModeInput, Item: pick})
		assert.Equal(t, []Group{{Key: empowered, Paths: []UpgradePath{paths[2]}}}, got)
	})

	t.Run("input focus on an upgrade item", func(t *testing.T) {
		got := idx.Lookup(Focus{Mode: ModeInput, Item: speed})
		assert.Equal(t, []Group{{Key: speed, Paths: []UpgradePath{paths[1]}}}, got)
		assert.Empty(t, idx.Lookup(Focus{Mode: ModeInput, Item: unknownKey}))
	})

	t.Run("output focus drops emptied groups", func(t *testing.T) {
		got := idx.Lookup(Focus{Mode: ModeOutput, Item: spdSword})
		require.Len(t, got, 1)
		assert.Equal(t, empowered, got[0].Key)
	})

	t.Run("output focus falls back to upgrade key", func(t *testing.T) {
		a, b := item.Of("t:a", 0), item.Of("t:b", 0)
		only := UpgradePath{Input: a, Upgrade: b, Output: b}
		got := mustIndex(t, []UpgradePath{only}).Lookup(Focus{Mode: ModeOutput, Item: b})
		assert.Equal(t, []Group{{Key: b, Paths: []UpgradePath{only}}}, got)
	})

	t.Run("unknown mode", func(t *testing.T) {
		assert.Empty(t, idx.Lookup(Focus{Mode: Mode(7), Item: sword}))
	})
}
