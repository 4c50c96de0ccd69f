package recipes

import "github.com/farrelathalla/anvil-upgrades/item"

// AnvilEntry is what an anvil-style recipe view shows for one group: the
// left slot cycles through Inputs, the right through Upgrades, and the
// result through Outputs. The three lists are index-aligned.
type AnvilEntry struct {
	Inputs   []item.Identity `json:"inputs"`
	Upgrades []item.Identity `json:"upgrades"`
	Outputs  []item.Identity `json:"outputs"`
}

// NewAnvilEntry lays a group out for display, carrying every input rather
// than only the first.
func NewAnvilEntry(g Group) AnvilEntry {
	e := AnvilEntry{
		Inputs:   make([]item.Identity, len(g.Paths)),
		Upgrades: make([]item.Identity, len(g.Paths)),
		Outputs:  make([]item.Identity, len(g.Paths)),
	}
	for i, p := range g.Paths {
		e.Inputs[i] = p.Input
		e.Upgrades[i] = p.Upgrade
		e.Outputs[i] = p.Output
	}
	return e
}

// Entries builds one entry per non-empty group.
func Entries(groups []Group) []AnvilEntry {
	out := make([]AnvilEntry, 0, len(groups))
	for _, g := range groups {
		if g.Empty() {
			continue
		}
		out = append(out, NewAnvilEntry(g))
	}
	return out
}
