// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package match

import (
	"fmt"
	"io"
	"strconv"
)

// CounterOp is the comparison a Counter applies.
type CounterOp uint8

const (
	CounterNone CounterOp = iota
	CounterEQ
	CounterNE
	CounterLT
	CounterGT
)

func (op CounterOp) String() string {
	switch op {
	case CounterNone:
		return "none"
	case CounterEQ:
		return "eq"
	case CounterNE:
		return "ne"
	case CounterLT:
		return "lt"
	case CounterGT:
		return "gt"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// CounterKind names the counter a filter tests.
type CounterKind string

const (
	Packets CounterKind = "packets"
	Bytes   CounterKind = "bytes"
)

func (k CounterKind) label() string {
	if k == Bytes {
		return "Byte"
	}
	return "Packet"
}

// Counter is one comparison against a per-match counter.
// Its layout is the on-wire layout: value, op, 7 bytes of padding.
type Counter struct {
	Value uint64
	Op    CounterOp
	_     [7]uint8
}

// Apply sets the comparison from an option token. op is the operator the
// option spells (EQ, LT or GT); inverted EQ becomes NE. A counter accepts
// exactly one operator.
func (c *Counter) Apply(kind CounterKind, op CounterOp, inverted bool, raw string) error {
	if c.Op != CounterNone {
		return usageError(ErrDuplicateOperator, "only one of the --%s-[eq|lt|gt] is allowed", kind)
	}

	switch op {
	case CounterEQ:
		if inverted {
			op = CounterNE
		}
	case CounterLT, CounterGT:
		if inverted {
			return usageError(ErrInvertedOperatorNotAllowed, "--%s-%s option cannot be inverted", kind, op)
		}
	default:
		return usageError(ErrUnknownOption, "no --%s-%s option", kind, op)
	}

	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return usageError(ErrInvalidValue, "%s counter '%s' invalid", kind.label(), raw)
	}

	c.Op = op
	c.Value = value
	return nil
}

// Print writes the option that reproduces c, with a leading space.
// A counter without an operator prints nothing.
func (c Counter) Print(w io.Writer, kind CounterKind) error {
	var err error
	switch c.Op {
	case CounterEQ:
		_, err = fmt.Fprintf(w, " %s-eq %d", kind, c.Value)
	case CounterNE:
		_, err = fmt.Fprintf(w, " ! %s-eq %d", kind, c.Value)
	case CounterLT:
		_, err = fmt.Fprintf(w, " %s-lt %d", kind, c.Value)
	case CounterGT:
		_, err = fmt.Fprintf(w, " %s-gt %d", kind, c.Value)
	}
	return err
}

// Equal compares operator and value.
func (c Counter) Equal(o Counter) bool {
	return c.Op == o.Op && c.Value == o.Value
}
