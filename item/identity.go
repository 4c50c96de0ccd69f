// Package item defines the identity of an item as seen by the recipe index.
//
// Two stacks describe the same item when their type, variant and tag data
// match, no matter which record they came from. Identity is a plain
// comparable struct so it can be used directly as a map key.
package item

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrEmptyType is returned when an identity has no item type.
var ErrEmptyType = errors.New("item type is empty")

// Identity is the (type, variant, tag) triple that decides item equality.
//
// Build identities with New, Parse or Of. A literal Identity carrying a
// hand-written Tag is not canonical and will not equal the same item built
// through New; Canonical repairs one.
type Identity struct {
	Type    string
	Variant int
	// Tag is the canonical JSON encoding of the tag compound, "" for none.
	Tag string
}

// New builds an Identity, canonicalising tag so that equal compounds
// produce equal identities. A nil tag means "no tag"; an empty map is a
// distinct, present-but-empty tag.
func New(typ string, variant int, tag map[string]any) (Identity, error) {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return Identity{}, ErrEmptyType
	}
	id := Identity{Type: typ, Variant: variant}
	if tag != nil {
		// encoding/json writes map keys in sorted order
		b, err := json.Marshal(canonicalValue(tag))
		if err != nil {
			return Identity{}, fmt.Errorf("encode tag for %s: %w", typ, err)
		}
		id.Tag = string(b)
	}
	return id, nil
}

// canonicalValue copies a decoded tag tree, rewriting every number so
// that 1, 1.0 and 1e0 encode the same way.
func canonicalValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = canonicalValue(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = canonicalValue(e)
		}
		return out
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return json.Number(strconv.FormatInt(i, 10))
		}
		f, err := v.Float64()
		if err != nil {
			return v
		}
		return canonicalFloat(f)
	case float64:
		return canonicalFloat(v)
	case float32:
		return canonicalFloat(float64(v))
	}
	return v
}

func canonicalFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		// left for json.Marshal to reject
		return f
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return json.Number(strconv.FormatInt(int64(f), 10))
	}
	return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
}

// MustNew is New for static tables and tests.
func MustNew(typ string, variant int, tag map[string]any) Identity {
	id, err := New(typ, variant, tag)
	if err != nil {
		panic(err)
	}
	return id
}

// Of returns an untagged identity.
func Of(typ string, variant int) Identity {
	return Identity{Type: typ, Variant: variant}
}

// HasTag reports whether the identity carries tag data.
func (id Identity) HasTag() bool {
	return id.Tag != ""
}

// Canonical re-encodes the tag of an Identity that was not built by New,
// e.g. a struct literal.
func (id Identity) Canonical() (Identity, error) {
	if id.Tag == "" {
		return id, nil
	}
	tag, err := decodeTag(id.Tag)
	if err != nil {
		return Identity{}, fmt.Errorf("canonicalise %s: %w", id.Type, err)
	}
	return New(id.Type, id.Variant, tag)
}

// IsZero reports whether id is the zero Identity.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// Hash returns a 64-bit hash over all identity fields.
func (id Identity) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(id.Type)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(strconv.Itoa(id.Variant))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(id.Tag)
	return d.Sum64()
}

// String renders the text form type[@variant][tag].
func (id Identity) String() string {
	var sb strings.Builder
	sb.WriteString(id.Type)
	if id.Variant != 0 {
		sb.WriteByte('@')
		sb.WriteString(strconv.Itoa(id.Variant))
	}
	sb.WriteString(id.Tag)
	return sb.String()
}

// Parse reads the text form produced by String, e.g.
// "enderio:dark_steel_sword@0{\"energy\":1}".
func Parse(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	rest, tagText := s, ""
	if i := strings.IndexByte(s, '{'); i >= 0 {
		rest, tagText = s[:i], s[i:]
	}

	typ, variant := rest, 0
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		v, err := strconv.Atoi(rest[i+1:])
		if err != nil {
			return Identity{}, fmt.Errorf("parse variant of %q: %w", s, err)
		}
		typ, variant = rest[:i], v
	}

	var tag map[string]any
	if tagText != "" {
		var err error
		if tag, err = decodeTag(tagText); err != nil {
			return Identity{}, fmt.Errorf("parse tag of %q: %w", s, err)
		}
	}

	id, err := New(typ, variant, tag)
	if err != nil {
		return Identity{}, fmt.Errorf("parse %q: %w", s, err)
	}
	return id, nil
}

// decodeTag reads one JSON object, keeping numbers as json.Number.
func decodeTag(text string) (map[string]any, error) {
	var tag map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	if err := dec.Decode(&tag); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data")
	}
	if tag == nil {
		tag = map[string]any{}
	}
	return tag, nil
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
