package recipes

import (
	"fmt"
	"strings"

	"github.com/farrelathalla/anvil-upgrades/item"
)

// Mode says which side of a recipe the focus item is looked up on.
type Mode int

const (
	// ModeInput finds recipes that consume the focus item.
	ModeInput Mode = iota
	// ModeOutput finds recipes that produce something other than the focus item.
	ModeOutput
)

func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeOutput:
		return "output"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "input" or "output".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "input":
		return ModeInput, nil
	case "output":
		return ModeOutput, nil
	}
	return 0, fmt.Errorf("unknown focus mode %q", s)
}

// Focus is the item a viewer is currently inspecting.
type Focus struct {
	Mode Mode
	Item item.Identity
}

// Lookup answers a viewer focus. Empty groups are dropped since there is
// nothing to display for them. An input focus on an upgrade item matches
// no input, so it shows the recipes that upgrade item takes part in.
func (x *Index) Lookup(f Focus) []Group {
	var groups []Group
	switch f.Mode {
	case ModeInput:
		groups = x.GroupsMatchingInput(f.Item)
		if len(groups) == 0 {
			if g, ok := x.Group(f.Item); ok {
				groups = []Group{g}
			}
		}
	case ModeOutput:
		groups = x.GroupsExcludingOutput(f.Item)
	default:
		return []Group{}
	}
	return NonEmpty(groups)
}

// NonEmpty filters out groups without paths.
func NonEmpty(groups []Group) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if !g.Empty() {
			out = append(out, g)
		}
	}
	return out
}
