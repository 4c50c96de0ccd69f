package recipes

import (
	"fmt"

	"github.com/farrelathalla/anvil-upgrades/item"
)

// Index groups a fixed set of upgrade paths by upgrade item. It is built
// once and never modified, so concurrent readers need no locking. Every
// query returns fresh slices; callers may modify what they get back.
type Index struct {
	paths  []UpgradePath
	groups []Group
	pos    map[item.Identity]int
}

// NewIndex builds an index over paths. An empty record set is a
// configuration mistake and fails with a *ConfigurationError wrapping
// ErrNoRecipes.
func NewIndex(paths []UpgradePath) (*Index, error) {
	if len(paths) == 0 {
		return nil, &ConfigurationError{Err: ErrNoRecipes}
	}
	own := make([]UpgradePath, len(paths))
	for i, p := range paths {
		c, err := p.canonical()
		if err != nil {
			return nil, &ConfigurationError{Err: fmt.Errorf("path %d: %w", i, err)}
		}
		own[i] = c
	}

	groups, pos := groupByUpgrade(own)
	return &Index{paths: own, groups: groups, pos: pos}, nil
}

// Len returns the number of indexed paths.
func (x *Index) Len() int {
	return len(x.paths)
}

// Paths returns every indexed path in source order.
func (x *Index) Paths() []UpgradePath {
	out := make([]UpgradePath, len(x.paths))
	copy(out, x.paths)
	return out
}

// Group returns the group keyed by upgrade, if any.
func (x *Index) Group(upgrade item.Identity) (Group, bool) {
	upgrade = canonicalTarget(upgrade)
	i, ok := x.pos[upgrade]
	if !ok {
		return Group{}, false
	}
	return x.groups[i].clone(), true
}

// AllGroups returns every group in first-seen order.
func (x *Index) AllGroups() []Group {
	return cloneGroups(x.groups)
}

// GroupsMatchingInput returns the paths whose input is target, grouped the
// same way the index is. No match yields an empty slice.
func (x *Index) GroupsMatchingInput(target item.Identity) []Group {
	target = canonicalTarget(target)
	var matched []UpgradePath
	for _, p := range x.paths {
		if p.Input == target {
			matched = append(matched, p)
		}
	}
	groups, _ := groupByUpgrade(matched)
	return groups
}

// GroupsExcludingOutput returns all groups with the paths producing target
// removed. Groups emptied by the removal stay in the result. When every
// group ends up empty, target itself is looked up as an upgrade key in the
// unfiltered index and that single group is returned instead, or nothing.
func (x *Index) GroupsExcludingOutput(target item.Identity) []Group {
	target = canonicalTarget(target)
	out := make([]Group, len(x.groups))
	remaining := 0
	for i, g := range x.groups {
		kept := make([]UpgradePath, 0, len(g.Paths))
		for _, p := range g.Paths {
			if p.Output != target {
				kept = append(kept, p)
			}
		}
		remaining += len(kept)
		out[i] = Group{Key: g.Key, Paths: kept}
	}
	if remaining > 0 {
		return out
	}

	if g, ok := x.Group(target); ok {
		return []Group{g}
	}
	return []Group{}
}

// canonicalTarget normalises a query identity. A tag that cannot be
// decoded matches nothing canonical, so it is used as given.
func canonicalTarget(id item.Identity) item.Identity {
	if c, err := id.Canonical(); err == nil {
		return c
	}
	return id
}
