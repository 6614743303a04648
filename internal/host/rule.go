// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package host

import (
	"context"
	"io"
	"strings"

	"grimm.is/ebtset/internal/match"
)

// Slot pairs a match with the extension that owns it.
type Slot struct {
	Extension match.Extension
	Match     *match.Match
}

type slot struct {
	ext   match.Extension
	match *match.Match
	flags uint32
}

// Rule is a parsed rule: one match slot per extension used, in the order
// the extensions first appeared.
type Rule struct {
	match.Entry
	slots []*slot
}

func (r *Rule) slotFor(ext match.Extension) *slot {
	for _, s := range r.slots {
		if s.ext.Name() == ext.Name() {
			return s
		}
	}
	s := &slot{ext: ext, match: match.NewMatch(ext)}
	r.slots = append(r.slots, s)
	r.Matches = append(r.Matches, s.match)
	return s
}

// Match returns the slot for the named extension.
func (r *Rule) Match(name string) (*match.Match, bool) {
	for _, s := range r.slots {
		if s.ext.Name() == name {
			return s.match, true
		}
	}
	return nil, false
}

// Print writes every match of the rule in order.
func (r *Rule) Print(ctx context.Context, w io.Writer) error {
	for _, s := range r.slots {
		if err := s.ext.Print(ctx, w, &r.Entry, s.match); err != nil {
			return err
		}
	}
	return nil
}

// Lines prints each match on its own, without the trailing separator.
func (r *Rule) Lines(ctx context.Context) ([]string, error) {
	lines := make([]string, 0, len(r.slots))
	for _, s := range r.slots {
		var sb strings.Builder
		if err := s.ext.Print(ctx, &sb, &r.Entry, s.match); err != nil {
			return nil, err
		}
		lines = append(lines, strings.TrimSuffix(sb.String(), " "))
	}
	return lines, nil
}

// Slots returns the extension and slot of every match, in order.
func (r *Rule) Slots() []Slot {
	out := make([]Slot, 0, len(r.slots))
	for _, s := range r.slots {
		out = append(out, Slot{Extension: s.ext, Match: s.match})
	}
	return out
}

// String prints the rule, resolving set names without a deadline.
func (r *Rule) String() string {
	var sb strings.Builder
	if err := r.Print(context.Background(), &sb); err != nil {
		return "<" + err.Error() + ">"
	}
	return sb.String()
}

// Equal reports whether both rules carry the same matches. Matches are
// paired by extension name, so their order does not matter.
func (r *Rule) Equal(o *Rule) bool {
	if len(r.slots) != len(o.slots) {
		return false
	}
	for _, s := range r.slots {
		m, ok := o.Match(s.ext.Name())
		if !ok || !s.ext.Compare(s.match, m) {
			return false
		}
	}
	return true
}
