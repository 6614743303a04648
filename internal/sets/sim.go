// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sets

import (
	"fmt"
	"sort"
	"sync"

	"github.com/josharian/native"
	"golang.org/x/sys/unix"

	"grimm.is/ebtset/internal/kernel"
)

// SimVersion is the protocol version a SimRegistry reports.
const SimVersion = 7

// SimSet is one set held by a SimRegistry.
type SimSet struct {
	Name   string
	Index  Index
	Family Family
}

// SimRegistry is an in-memory set registry speaking the getsockopt
// protocol. It implements kernel.Opener so a Client can be pointed at it.
type SimRegistry struct {
	*kernel.SimOpener

	proto Protocol

	mu       sync.Mutex
	sets     map[string]SimSet
	names    map[Index]string
	requests []Op

	// Legacy rejects family-aware lookups with EBADMSG like registries
	// that predate them.
	Legacy bool
	// Unloaded fails every request as if the kernel module were absent.
	Unloaded bool
	// ShortReply reports four bytes less than the request size on
	// lookups. Version queries are answered in full.
	ShortReply bool
	// Block, if non-nil, stalls every request until it is closed.
	Block chan struct{}
}

// NewSimRegistry creates an empty registry for proto.
func NewSimRegistry(proto Protocol) *SimRegistry {
	r := &SimRegistry{
		proto: proto,
		sets:  make(map[string]SimSet),
		names: make(map[Index]string),
	}
	r.SimOpener = kernel.NewSimOpener(r.handle)
	return r
}

// Add registers a set.
func (r *SimRegistry) Add(name string, idx Index, family Family) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case name == "":
		return fmt.Errorf("empty set name")
	case len(name) > MaxNameLen-1:
		return fmt.Errorf("set name %q exceeds %d characters", name, MaxNameLen-1)
	case idx == InvalidIndex:
		return fmt.Errorf("set %q: index %d is reserved", name, idx)
	}
	if _, ok := r.sets[name]; ok {
		return fmt.Errorf("set %q already exists", name)
	}
	if other, ok := r.names[idx]; ok {
		return fmt.Errorf("set %q: index %d already used by %q", name, idx, other)
	}

	r.sets[name] = SimSet{Name: name, Index: idx, Family: family}
	r.names[idx] = name
	return nil
}

// Sets returns the registered sets ordered by index.
func (r *SimRegistry) Sets() []SimSet {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SimSet, 0, len(r.sets))
	for _, s := range r.sets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Requests returns the opcodes received so far, in order.
func (r *SimRegistry) Requests() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.requests...)
}

func (r *SimRegistry) handle(_, level, name int, buf []byte) (int, error) {
	if level != r.proto.Level || name != r.proto.Option {
		return 0, unix.ENOPROTOOPT
	}
	if len(buf) < sizeVersion {
		return 0, unix.EINVAL
	}

	r.mu.Lock()
	block := r.Block
	r.mu.Unlock()
	if block != nil {
		<-block
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	op := Op(native.Endian.Uint32(buf[0:4]))
	r.requests = append(r.requests, op)

	if r.Unloaded {
		return 0, unix.ENOPROTOOPT
	}

	var reply []byte
	switch op {
	case OpVersion:
		if len(buf) != sizeVersion {
			return 0, unix.EINVAL
		}
		reply = encode(&reqVersion{Op: uint32(op), Version: SimVersion})

	case OpGetByName:
		if len(buf) != sizeGetSet {
			return 0, unix.EINVAL
		}
		var req reqGetSet
		decode(buf, &req)
		if req.Version != SimVersion {
			return 0, unix.EPROTO
		}
		idx := InvalidIndex
		if s, ok := r.sets[getName(req.Set)]; ok {
			idx = s.Index
		}
		putIndex(&req.Set, idx)
		reply = encode(&req)

	case OpGetByNameFamily:
		if r.Legacy {
			return 0, unix.EBADMSG
		}
		if len(buf) != sizeGetSetFamily {
			return 0, unix.EINVAL
		}
		var req reqGetSetFamily
		decode(buf, &req)
		if req.Version != SimVersion {
			return 0, unix.EPROTO
		}
		idx := InvalidIndex
		if s, ok := r.sets[getName(req.Set)]; ok {
			idx = s.Index
			req.Family = uint32(s.Family)
		}
		putIndex(&req.Set, idx)
		reply = encode(&req)

	case OpGetByIndex:
		if len(buf) != sizeGetSet {
			return 0, unix.EINVAL
		}
		var req reqGetSet
		decode(buf, &req)
		if req.Version != SimVersion {
			return 0, unix.EPROTO
		}
		putName(&req.Set, r.names[getIndex(req.Set)])
		reply = encode(&req)

	default:
		return 0, unix.EBADMSG
	}

	n := copy(buf, reply)
	if r.ShortReply && op != OpVersion {
		n -= 4
	}
	return n, nil
}
