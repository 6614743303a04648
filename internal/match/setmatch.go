// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package match

import (
	"context"
	"fmt"
	"io"

	"grimm.is/ebtset/internal/logging"
	"grimm.is/ebtset/internal/sets"
)

// Resolver maps set names to registry indices and back.
// *sets.Client implements it.
type Resolver interface {
	ResolveByName(ctx context.Context, name string, family sets.Family) (sets.Index, error)
	ResolveByID(ctx context.Context, idx sets.Index) (string, error)
}

// Direction selects the packet field an address set is tested against.
type Direction int

const (
	Source Direction = iota
	Destination
)

func (d Direction) String() string {
	if d == Destination {
		return "dst"
	}
	return "src"
}

// Option codes shared by the set matches.
const (
	codeMatchSet          = '1'
	codeDeprecatedSet     = '2'
	codeReturnNomatch     = '3'
	codeUpdateCounters    = '4'
	codePacketsEQ         = '5'
	codePacketsLT         = '6'
	codePacketsGT         = '7'
	codeBytesEQ           = '8'
	codeBytesLT           = '9'
	codeBytesGT           = '0'
	codeUpdateSubcounters = 'a'
)

// SetMatch tests packet membership in a kernel set. One implementation
// serves the source and destination address variants and the domain-set
// variant; they differ in names, the registry queried and whether the
// "field one" flag is set on the reference.
type SetMatch struct {
	name     string
	revision uint8
	option   string
	alias    string
	fieldOne bool
	help     string

	resolver Resolver
	family   sets.Family
	logger   *logging.Logger
}

const setHelp = `set match options:
 [!] --%s name [--return-nomatch]
   [! --update-counters] [! --update-subcounters]
   [[!] --packets-eq value | --packets-lt value | --packets-gt value
   [[!] --bytes-eq value | --bytes-lt value | --bytes-gt value
		 'name' is the set name from to match.
`

const domainSetHelp = `set match options:
 [!] --match-dset name [--return-nomatch]
   [! --update-counters] [! --update-subcounters]
   [[!] --packets-eq value | --packets-lt value | --packets-gt value
   [[!] --bytes-eq value | --bytes-lt value | --bytes-gt value
		 'name' is the domain set name to match.
`

// NewSetMatch creates the address set match for dir ("set-src" or
// "set-dst"). Names are resolved with family as the expected address family.
func NewSetMatch(dir Direction, resolver Resolver, family sets.Family, logger *logging.Logger) *SetMatch {
	option := "match-set-" + dir.String()
	return &SetMatch{
		name:     "set-" + dir.String(),
		revision: 4,
		option:   option,
		alias:    "set-" + dir.String(),
		fieldOne: dir == Source,
		help:     fmt.Sprintf(setHelp, option),
		resolver: resolver,
		family:   family,
		logger:   componentLogger(logger, "match"),
	}
}

// NewDomainSetMatch creates the "dset" match.
func NewDomainSetMatch(resolver Resolver, family sets.Family, logger *logging.Logger) *SetMatch {
	return &SetMatch{
		name:     "dset",
		revision: 0,
		option:   "match-dset",
		alias:    "dset",
		help:     domainSetHelp,
		resolver: resolver,
		family:   family,
		logger:   componentLogger(logger, "match"),
	}
}

func componentLogger(l *logging.Logger, component string) *logging.Logger {
	if l == nil {
		return logging.WithComponent(component)
	}
	return l.WithComponent(component)
}

func (s *SetMatch) Name() string    { return s.name }
func (s *SetMatch) Revision() uint8 { return s.revision }
func (s *SetMatch) Size() int       { return DescriptorSize }

func (s *SetMatch) Options() []OptionSpec {
	return []OptionSpec{
		{Name: s.option, HasArg: true, Code: codeMatchSet},
		{Name: s.alias, HasArg: true, Code: codeDeprecatedSet},
		{Name: "return-nomatch", Code: codeReturnNomatch},
		{Name: "update-counters", Code: codeUpdateCounters},
		{Name: "packets-eq", HasArg: true, Code: codePacketsEQ},
		{Name: "packets-lt", HasArg: true, Code: codePacketsLT},
		{Name: "packets-gt", HasArg: true, Code: codePacketsGT},
		{Name: "bytes-eq", HasArg: true, Code: codeBytesEQ},
		{Name: "bytes-lt", HasArg: true, Code: codeBytesLT},
		{Name: "bytes-gt", HasArg: true, Code: codeBytesGT},
		{Name: "update-subcounters", Code: codeUpdateSubcounters},
	}
}

func (s *SetMatch) Help(w io.Writer) {
	io.WriteString(w, s.help)
}

func (s *SetMatch) Init(m *Match) {
	m.Data = make([]byte, DescriptorSize)
}

// Parse applies one option to the descriptor in call.Match. The slot is
// only written back when the option is accepted.
func (s *SetMatch) Parse(ctx context.Context, call *ParseCall) (bool, error) {
	var d Descriptor
	if err := d.UnmarshalBinary(call.Match.Data); err != nil {
		return true, err
	}

	switch call.Code {
	case codeUpdateSubcounters:
		if call.Inverted {
			d.Flags |= SkipSubcounterUpdate
		}
	case codeBytesGT:
		if err := d.Bytes.Apply(Bytes, CounterGT, call.Inverted, call.Arg); err != nil {
			return true, err
		}
	case codeBytesLT:
		if err := d.Bytes.Apply(Bytes, CounterLT, call.Inverted, call.Arg); err != nil {
			return true, err
		}
	case codeBytesEQ:
		if err := d.Bytes.Apply(Bytes, CounterEQ, call.Inverted, call.Arg); err != nil {
			return true, err
		}
	case codePacketsGT:
		if err := d.Packets.Apply(Packets, CounterGT, call.Inverted, call.Arg); err != nil {
			return true, err
		}
	case codePacketsLT:
		if err := d.Packets.Apply(Packets, CounterLT, call.Inverted, call.Arg); err != nil {
			return true, err
		}
	case codePacketsEQ:
		if err := d.Packets.Apply(Packets, CounterEQ, call.Inverted, call.Arg); err != nil {
			return true, err
		}
	case codeUpdateCounters:
		if call.Inverted {
			d.Flags |= SkipCounterUpdate
		}
	case codeReturnNomatch:
		if call.Inverted {
			return true, usageError(ErrUnexpectedInversion, "--return-nomatch flag cannot be inverted")
		}
		d.Flags |= ReturnNomatch
	case codeDeprecatedSet:
		s.logger.Notice(fmt.Sprintf("--%s option deprecated, please use --%s", s.alias, s.option))
		fallthrough
	case codeMatchSet:
		if err := s.bind(ctx, &d, call); err != nil {
			return true, err
		}
	default:
		return false, nil
	}

	data, err := d.MarshalBinary()
	if err != nil {
		return true, err
	}
	copy(call.Match.Data, data)
	return true, nil
}

// bind resolves the set named by the option argument into the reference.
func (s *SetMatch) bind(ctx context.Context, d *Descriptor, call *ParseCall) error {
	if d.SetRef.Bound() {
		return usageError(ErrDuplicateSetReference, "--%s can be specified only once", s.option)
	}
	if len(call.Arg) > sets.MaxNameLen-1 {
		return usageError(ErrNameTooLong, "setname `%s' too long, max %d characters.", call.Arg, sets.MaxNameLen-1)
	}

	idx, err := s.resolver.ResolveByName(ctx, call.Arg, s.family)
	if err != nil {
		return err
	}

	d.SetRef.Index = uint16(idx)
	d.SetRef.Dim = 1
	if call.Inverted {
		d.SetRef.Flags |= InvMatch
	}
	if s.fieldOne {
		d.SetRef.Flags |= DimOneSrc
	}
	if call.Flags != nil {
		*call.Flags = 1
	}

	s.logger.Debug("bound set", "match", s.name, "set", call.Arg, "index", idx)
	return nil
}

// FinalCheck rejects rules that use set options without naming the set.
func (s *SetMatch) FinalCheck(_ *Entry, m *Match, _ string, _, _ uint32) error {
	var d Descriptor
	if err := d.UnmarshalBinary(m.Data); err != nil {
		return err
	}
	if !d.SetRef.Bound() {
		return usageError(ErrSetNotSpecified, "--%s must be specified", s.option)
	}
	return nil
}

// Print writes the options that reproduce m followed by a separating space.
func (s *SetMatch) Print(ctx context.Context, w io.Writer, _ *Entry, m *Match) error {
	var d Descriptor
	if err := d.UnmarshalBinary(m.Data); err != nil {
		return err
	}

	name, err := s.resolver.ResolveByID(ctx, sets.Index(d.SetRef.Index))
	if err != nil {
		return err
	}

	inv := ""
	if d.SetRef.Flags&InvMatch != 0 {
		inv = " !"
	}
	if _, err := fmt.Fprintf(w, "--%s%s %s", s.option, inv, name); err != nil {
		return err
	}
	if d.Flags&ReturnNomatch != 0 {
		io.WriteString(w, " return-nomatch")
	}
	if d.Flags&SkipCounterUpdate != 0 {
		io.WriteString(w, " ! update-counters")
	}
	if d.Flags&SkipSubcounterUpdate != 0 {
		io.WriteString(w, " ! update-subcounters")
	}
	if err := d.Packets.Print(w, Packets); err != nil {
		return err
	}
	if err := d.Bytes.Print(w, Bytes); err != nil {
		return err
	}
	_, err = io.WriteString(w, " ")
	return err
}

// Compare reports whether two slots match the same packets.
func (s *SetMatch) Compare(a, b *Match) bool {
	var da, db Descriptor
	if da.UnmarshalBinary(a.Data) != nil || db.UnmarshalBinary(b.Data) != nil {
		return false
	}
	return da.Equal(&db)
}
