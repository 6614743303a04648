// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package kernel

import (
	"sync"

	"golang.org/x/sys/unix"
)

// SockoptHandler answers one getsockopt call. channel identifies the socket
// the call was made on (1 for the first socket opened, and so on).
type SockoptHandler func(channel, level, name int, buf []byte) (int, error)

// SimOpener hands out in-memory channels backed by a handler.
// It keeps track of every socket it opened so tests can check that none leak.
type SimOpener struct {
	mu      sync.Mutex
	handler SockoptHandler
	opened  int
	closed  int

	// FailOpen makes Open fail as socket(2) would without CAP_NET_RAW.
	FailOpen bool
}

// NewSimOpener creates a simulated opener.
func NewSimOpener(handler SockoptHandler) *SimOpener {
	return &SimOpener{handler: handler}
}

// Open implements Opener.
func (s *SimOpener) Open() (Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailOpen {
		return nil, unix.EPERM
	}
	s.opened++
	return &simChannel{owner: s, id: s.opened}, nil
}

// Opened returns the number of sockets opened so far.
func (s *SimOpener) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Closed returns the number of sockets closed so far.
func (s *SimOpener) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Live returns the number of sockets currently open.
func (s *SimOpener) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened - s.closed
}

type simChannel struct {
	owner  *SimOpener
	id     int
	closed bool
}

func (c *simChannel) Getsockopt(level, name int, buf []byte) (int, error) {
	c.owner.mu.Lock()
	closed := c.closed
	handler := c.owner.handler
	c.owner.mu.Unlock()

	if closed {
		return 0, unix.EBADF
	}
	if handler == nil {
		return 0, unix.ENOPROTOOPT
	}
	return handler(c.id, level, name, buf)
}

func (c *simChannel) Close() error {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()

	if !c.closed {
		c.closed = true
		c.owner.closed++
	}
	return nil
}
