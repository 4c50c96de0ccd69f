package recipes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farrelathalla/anvil-upgrades/item"
)

func TestNewAnvilEntry_CarriesAllInputs(t *testing.T) {
	idx := mustIndex(t, samplePaths())
	g, _ := idx.Group(empowered)

	e := NewAnvilEntry(g)
	assert.Equal(t, []item.Identity{sword, pick}, e.Inputs)
	assert.Equal(t, []item.Identity{empowered, empowered}, e.Upgrades)
	assert.Equal(t, []item.Identity{empSword, empPick}, e.Outputs)
}

func TestEntries_SkipsEmptyGroups(t *testing.T) {
	idx := mustIndex(t, samplePaths())

	entries := Entries(idx.GroupsExcludingOutput(spdSword))
	assert.Len(t, entries, 1)
	assert.Len(t, Entries(nil), 0)
}
