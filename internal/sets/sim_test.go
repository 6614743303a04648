// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSimRegistryAdd(t *testing.T) {
	reg := NewSimRegistry(IPSet)
	require.NoError(t, reg.Add("b", 2, FamilyIPv4))
	require.NoError(t, reg.Add("a", 1, FamilyIPv6))

	assert.Error(t, reg.Add("a", 5, FamilyIPv4), "duplicate name")
	assert.Error(t, reg.Add("c", 1, FamilyIPv4), "duplicate index")
	assert.Error(t, reg.Add("d", InvalidIndex, FamilyIPv4), "reserved index")
	assert.Error(t, reg.Add("", 4, FamilyIPv4), "empty name")

	assert.Equal(t, []SimSet{
		{Name: "a", Index: 1, Family: FamilyIPv6},
		{Name: "b", Index: 2, Family: FamilyIPv4},
	}, reg.Sets())

	list, err := reg.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sim:ipset", list[0].Type)
}

func TestSimRegistryRejectsBadRequests(t *testing.T) {
	reg := NewSimRegistry(IPSet)
	ch, err := reg.Open()
	require.NoError(t, err)
	defer ch.Close()

	_, err = ch.Getsockopt(IPSet.Level, DomainSet.Option, make([]byte, 8))
	assert.ErrorIs(t, err, unix.ENOPROTOOPT)

	_, err = ch.Getsockopt(IPSet.Level, IPSet.Option, make([]byte, 4))
	assert.ErrorIs(t, err, unix.EINVAL)

	unknown := encode(&reqVersion{Op: 99})
	_, err = ch.Getsockopt(IPSet.Level, IPSet.Option, unknown)
	assert.ErrorIs(t, err, unix.EBADMSG)

	stale := encode(&reqGetSet{Op: uint32(OpGetByName), Version: SimVersion + 1})
	_, err = ch.Getsockopt(IPSet.Level, IPSet.Option, stale)
	assert.ErrorIs(t, err, unix.EPROTO)
}
