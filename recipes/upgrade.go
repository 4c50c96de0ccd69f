// Package recipes indexes upgrade recipes by the item that performs the
// upgrade and answers the lookups a recipe viewer needs.
package recipes

import (
	"fmt"

	"github.com/farrelathalla/anvil-upgrades/item"
)

// UpgradePath is one valid combination: Input combined with Upgrade
// yields Output.
type UpgradePath struct {
	Input   item.Identity `json:"input"`
	Upgrade item.Identity `json:"upgrade"`
	Output  item.Identity `json:"output"`
}

func (p UpgradePath) canonical() (UpgradePath, error) {
	var err error
	if p.Input, err = p.Input.Canonical(); err != nil {
		return UpgradePath{}, fmt.Errorf("input: %w", err)
	}
	if p.Upgrade, err = p.Upgrade.Canonical(); err != nil {
		return UpgradePath{}, fmt.Errorf("upgrade: %w", err)
	}
	if p.Output, err = p.Output.Canonical(); err != nil {
		return UpgradePath{}, fmt.Errorf("output: %w", err)
	}
	return p, nil
}

// Group is the set of paths sharing one upgrade item, in source order.
type Group struct {
	Key   item.Identity `json:"key"`
	Paths []UpgradePath `json:"paths"`
}

// Empty reports whether the group has no paths left.
func (g Group) Empty() bool {
	return len(g.Paths) == 0
}

func (g Group) clone() Group {
	paths := make([]UpgradePath, len(g.Paths))
	copy(paths, g.Paths)
	return Group{Key: g.Key, Paths: paths}
}

// groupByUpgrade partitions paths by upgrade identity, keeping first-seen
// key order and source order within each group.
func groupByUpgrade(paths []UpgradePath) ([]Group, map[item.Identity]int) {
	groups := []Group{}
	pos := make(map[item.Identity]int)
	for _, p := range paths {
		i, ok := pos[p.Upgrade]
		if !ok {
			i = len(groups)
			pos[p.Upgrade] = i
			groups = append(groups, Group{Key: p.Upgrade})
		}
		groups[i].Paths = append(groups[i].Paths, p)
	}
	return groups, pos
}

func cloneGroups(groups []Group) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g.clone()
	}
	return out
}
