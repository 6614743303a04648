// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"grimm.is/ebtset/internal/testutil"
)

func TestLinuxOpener_CloseOnExec(t *testing.T) {
	testutil.RequireVM(t)

	ch, err := NewLinuxOpener().Open()
	require.NoError(t, err)
	defer ch.Close()

	raw := ch.(*rawChannel)
	flags, err := unix.FcntlInt(uintptr(raw.fd), unix.F_GETFD, 0)
	require.NoError(t, err)
	require.NotZero(t, flags&unix.FD_CLOEXEC, "socket must be close-on-exec")

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close(), "second close must be a no-op")
}

func TestRawChannel_EmptyBuffer(t *testing.T) {
	c := &rawChannel{fd: -1}
	_, err := c.Getsockopt(unix.SOL_IP, 83, nil)
	require.ErrorIs(t, err, unix.EINVAL)
}
