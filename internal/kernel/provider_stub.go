// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux
// +build !linux

package kernel

import "golang.org/x/sys/unix"

// LinuxOpener is unavailable on this platform; Open always fails.
type LinuxOpener struct{}

// NewLinuxOpener creates a Linux channel opener.
func NewLinuxOpener() *LinuxOpener {
	return &LinuxOpener{}
}

// Open implements Opener.
func (LinuxOpener) Open() (Channel, error) {
	return nil, unix.EAFNOSUPPORT
}
