// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package kernel

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// LinuxOpener opens raw IPv4 sockets, the transport the ip_set and
// domain set modules accept their sockopt requests on.
type LinuxOpener struct{}

// NewLinuxOpener creates a Linux channel opener.
func NewLinuxOpener() *LinuxOpener {
	return &LinuxOpener{}
}

// Open creates a close-on-exec raw socket.
func (LinuxOpener) Open() (Channel, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.IPPROTO_RAW)
	if err != nil {
		return nil, err
	}
	return &rawChannel{fd: fd}, nil
}

type rawChannel struct {
	fd   int
	once sync.Once
	err  error
}

// Getsockopt implements Channel.Getsockopt.
func (c *rawChannel) Getsockopt(level, name int, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, unix.EINVAL
	}
	size := uint32(len(buf))
	_, _, errno := unix.Syscall6(
		unix.SYS_GETSOCKOPT,
		uintptr(c.fd),
		uintptr(level),
		uintptr(name),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
		0)
	if errno != 0 {
		return int(size), errno
	}
	return int(size), nil
}

// Close implements Channel.Close.
func (c *rawChannel) Close() error {
	c.once.Do(func() {
		c.err = unix.Close(c.fd)
	})
	return c.err
}
