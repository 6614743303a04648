// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sets

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/josharian/native"
	"gvisor.dev/gvisor/pkg/binary"
)

// MaxNameLen is the size of the name field in registry requests,
// including the terminating NUL.
const MaxNameLen = 32

// Index is the numeric handle the registry assigns to a set.
type Index uint16

// InvalidIndex is returned by the registry for names it does not know.
const InvalidIndex Index = 65535

// Family is a netfilter protocol family (NFPROTO_*).
type Family uint8

const (
	FamilyUnspec Family = 0
	FamilyIPv4   Family = 2
	FamilyIPv6   Family = 10
)

func (f Family) String() string {
	switch f {
	case FamilyUnspec:
		return "unspec"
	case FamilyIPv4:
		return "IPv4"
	case FamilyIPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("family %d", uint8(f))
	}
}

// familyName names a family as carried on the wire, where it is 32 bits wide.
func familyName(v uint32) string {
	if v > 0xff {
		return fmt.Sprintf("family %d", v)
	}
	return Family(v).String()
}

// ParseFamily accepts "ipv4", "ipv6", "unspec" and "inet"/"inet6" aliases.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ipv4", "inet", "4":
		return FamilyIPv4, nil
	case "ipv6", "inet6", "6":
		return FamilyIPv6, nil
	case "unspec", "any", "":
		return FamilyUnspec, nil
	}
	return 0, fmt.Errorf("unknown address family %q", s)
}

// Op is a registry request opcode.
type Op uint32

const (
	OpGetByName       Op = 6
	OpGetByIndex      Op = 7
	OpGetByNameFamily Op = 8
	OpVersion         Op = 0x100
)

func (o Op) String() string {
	switch o {
	case OpVersion:
		return "version"
	case OpGetByName:
		return "get_byname"
	case OpGetByIndex:
		return "get_byindex"
	case OpGetByNameFamily:
		return "get_byname_family"
	default:
		return fmt.Sprintf("op_%#x", uint32(o))
	}
}

const (
	solIP       = 0
	soIPSet     = 83
	soDomainSet = 84
)

// Protocol describes one kernel set registry reachable over getsockopt.
// The address-set and domain-set registries share the request layout and
// differ only in the socket option and the wording of their messages.
type Protocol struct {
	// Name labels metrics and logs.
	Name string
	// Label is the registry name used in error messages.
	Label string
	// Module is the kernel module reported when the version query fails.
	Module string
	// Level and Option select the getsockopt.
	Level  int
	Option int
}

var (
	// IPSet is the kernel ipset registry (SO_IP_SET).
	IPSet = Protocol{
		Name:   "ipset",
		Label:  "ipset",
		Module: "xt_set",
		Level:  solIP,
		Option: soIPSet,
	}

	// DomainSet is the domain-name set registry (SO_DOMAIN_SET).
	DomainSet = Protocol{
		Name:   "dset",
		Label:  "dset",
		Module: "xt_set",
		Level:  solIP,
		Option: soDomainSet,
	}
)

type reqVersion struct {
	Op      uint32
	Version uint32
}

// reqGetSet carries either a NUL-terminated name or a leading index in Set.
type reqGetSet struct {
	Op      uint32
	Version uint32
	Set     [MaxNameLen]byte
}

type reqGetSetFamily struct {
	Op      uint32
	Version uint32
	Family  uint32
	Set     [MaxNameLen]byte
}

var (
	sizeVersion      = int(binary.Size(reqVersion{}))
	sizeGetSet       = int(binary.Size(reqGetSet{}))
	sizeGetSetFamily = int(binary.Size(reqGetSetFamily{}))
)

func encode(v any) []byte {
	return binary.Marshal(nil, native.Endian, v)
}

// decode fills v from buf. buf must be exactly binary.Size(v) long.
func decode(buf []byte, v any) {
	binary.Unmarshal(buf, native.Endian, v)
}

func putName(dst *[MaxNameLen]byte, name string) {
	*dst = [MaxNameLen]byte{}
	copy(dst[:MaxNameLen-1], name)
}

func getName(src [MaxNameLen]byte) string {
	if i := bytes.IndexByte(src[:], 0); i >= 0 {
		return string(src[:i])
	}
	return string(src[:])
}

func putIndex(dst *[MaxNameLen]byte, idx Index) {
	*dst = [MaxNameLen]byte{}
	native.Endian.PutUint16(dst[:2], uint16(idx))
}

func getIndex(src [MaxNameLen]byte) Index {
	return Index(native.Endian.Uint16(src[:2]))
}
