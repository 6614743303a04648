// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package match

import (
	"github.com/josharian/native"
	"gvisor.dev/gvisor/pkg/binary"

	"grimm.is/ebtset/internal/errors"
)

// Set reference flags.
const (
	InvMatch  uint8 = 0x01
	DimOneSrc uint8 = 0x02
)

// Descriptor flags.
const (
	SkipCounterUpdate    uint32 = 0x08
	SkipSubcounterUpdate uint32 = 0x10
	ReturnNomatch        uint32 = 0x80
)

// SetRef identifies the kernel set a match tests against.
type SetRef struct {
	Index uint16
	Dim   uint8
	Flags uint8
}

// Bound reports whether a set has been resolved into the reference.
func (r SetRef) Bound() bool {
	return r.Dim != 0
}

// Descriptor is the data a set match carries inside a rule. The field
// order and padding follow the kernel's struct so the encoding can be
// handed to it unchanged.
type Descriptor struct {
	SetRef  SetRef
	_       [4]uint8
	Packets Counter
	Bytes   Counter
	Flags   uint32
	_       [4]uint8
}

// DescriptorSize is the encoded size of a Descriptor.
var DescriptorSize = int(binary.Size(Descriptor{}))

// MarshalBinary encodes d in native byte order.
func (d *Descriptor) MarshalBinary() ([]byte, error) {
	return binary.Marshal(make([]byte, 0, DescriptorSize), native.Endian, d), nil
}

// UnmarshalBinary decodes d. data must be exactly DescriptorSize bytes.
func (d *Descriptor) UnmarshalBinary(data []byte) error {
	if len(data) != DescriptorSize {
		err := errors.Errorf(errors.KindInternal, "match data is %d bytes, want %d", len(data), DescriptorSize)
		return errors.Mark(err, errMalformedSlot)
	}
	*d = Descriptor{}
	binary.Unmarshal(data, native.Endian, d)
	return nil
}

// Equal reports whether two descriptors match the same packets. The set is
// compared by index only.
func (d *Descriptor) Equal(o *Descriptor) bool {
	return d.Flags == o.Flags &&
		d.SetRef == o.SetRef &&
		d.Packets.Equal(o.Packets) &&
		d.Bytes.Equal(o.Bytes)
}
