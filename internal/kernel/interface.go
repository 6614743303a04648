// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package kernel provides the control channel used to talk to kernel-resident
// set registries. On Linux it wraps a raw IPv4 socket and getsockopt.
// SimOpener provides an in-memory channel for tests and dry runs.
package kernel

// Channel is one open control socket.
// Callers own it exclusively and must Close it on every path.
type Channel interface {
	// Getsockopt issues getsockopt(level, name) with buf as the in/out
	// payload. It returns the length the kernel reported back, which may
	// differ from len(buf). Failures are returned as unix.Errno values.
	Getsockopt(level, name int, buf []byte) (int, error)

	// Close releases the socket. It is safe to call more than once.
	Close() error
}

// Opener creates control channels.
type Opener interface {
	Open() (Channel, error)
}
