// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sets

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/ebtset/internal/errors"
	"grimm.is/ebtset/internal/kernel"
	"grimm.is/ebtset/internal/metrics"
)

func newTestRegistry(t *testing.T) *SimRegistry {
	t.Helper()
	reg := NewSimRegistry(IPSet)
	require.NoError(t, reg.Add("webservers", 7, FamilyIPv4))
	require.NoError(t, reg.Add("anyhosts", 3, FamilyUnspec))
	require.NoError(t, reg.Add("v6hosts", 9, FamilyIPv6))
	return reg
}

func TestResolveByName(t *testing.T) {
	reg := newTestRegistry(t)
	c := NewClient(IPSet, reg)

	idx, err := c.ResolveByName(context.Background(), "webservers", FamilyIPv4)
	require.NoError(t, err)
	assert.Equal(t, Index(7), idx)
	assert.Equal(t, []Op{OpVersion, OpGetByNameFamily}, reg.Requests())
	assert.Equal(t, 1, reg.Opened())
	assert.Equal(t, 0, reg.Live())

	idx, err = c.ResolveByName(context.Background(), "anyhosts", FamilyIPv4)
	require.NoError(t, err, "unspecified family is accepted")
	assert.Equal(t, Index(3), idx)
}

func TestResolveByNameFamilyMismatch(t *testing.T) {
	reg := newTestRegistry(t)
	c := NewClient(IPSet, reg)

	idx, err := c.ResolveByName(context.Background(), "v6hosts", FamilyIPv4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFamilyMismatch))
	assert.Equal(t, InvalidIndex, idx)
	assert.Equal(t, "The protocol family of set v6hosts is IPv6, which is not applicable.", err.Error())
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
	assert.Equal(t, 0, reg.Live())
}

func TestResolveByNameWideFamily(t *testing.T) {
	opener := kernel.NewSimOpener(func(_, _, _ int, buf []byte) (int, error) {
		if len(buf) == sizeVersion {
			return copy(buf, encode(&reqVersion{Op: uint32(OpVersion), Version: SimVersion})), nil
		}
		var req reqGetSetFamily
		decode(buf, &req)
		putIndex(&req.Set, 7)
		req.Family = 0x100 | uint32(FamilyIPv4)
		return copy(buf, encode(&req)), nil
	})
	c := NewClient(IPSet, opener)

	idx, err := c.ResolveByName(context.Background(), "webservers", FamilyIPv4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFamilyMismatch))
	assert.Equal(t, InvalidIndex, idx)
	assert.Equal(t, "The protocol family of set webservers is family 258, which is not applicable.", err.Error())
	assert.Equal(t, 0, opener.Live())
}

func TestResolveByNameNotFound(t *testing.T) {
	reg := newTestRegistry(t)
	c := NewClient(IPSet, reg)

	_, err := c.ResolveByName(context.Background(), "missing", FamilyIPv4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Set missing doesn't exist.", err.Error())
	assert.Equal(t, "missing", errors.GetAttributes(err)["set"])
}

func TestResolveByNameLegacyFallback(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Legacy = true
	m := metrics.New()
	c := NewClient(IPSet, reg, WithMetrics(m))

	idx, err := c.ResolveByName(context.Background(), "webservers", FamilyIPv4)
	require.NoError(t, err)
	assert.Equal(t, Index(7), idx)

	// One version query, the rejected family lookup, then exactly one
	// name-only retry on a second socket.
	assert.Equal(t, []Op{OpVersion, OpGetByNameFamily, OpGetByName}, reg.Requests())
	assert.Equal(t, 2, reg.Opened())
	assert.Equal(t, 0, reg.Live())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryFallbacks.WithLabelValues("ipset")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryRequests.WithLabelValues("ipset", "get_byname_family", metrics.ResultUnsupported)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionsOpen.WithLabelValues("ipset")))
}

func TestResolveByNameLegacyNotFound(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Legacy = true
	c := NewClient(IPSet, reg)

	_, err := c.ResolveByName(context.Background(), "missing", FamilyIPv4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, []Op{OpVersion, OpGetByNameFamily, OpGetByName}, reg.Requests())
	assert.Equal(t, 2, reg.Opened())
	assert.Equal(t, 0, reg.Live())
}

func TestResolveByNameLegacySkipsFamilyCheck(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Legacy = true
	c := NewClient(IPSet, reg)

	idx, err := c.ResolveByName(context.Background(), "v6hosts", FamilyIPv4)
	require.NoError(t, err, "name-only replies carry no family")
	assert.Equal(t, Index(9), idx)
}

func TestResolveModuleNotLoaded(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Unloaded = true
	c := NewClient(IPSet, reg)

	_, err := c.ResolveByName(context.Background(), "webservers", FamilyIPv4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChannelUnavailable))
	assert.Contains(t, err.Error(), "Kernel module xt_set is not loaded in.")
	assert.Equal(t, []Op{OpVersion}, reg.Requests())
	assert.Equal(t, 0, reg.Live())
}

func TestResolveShortReply(t *testing.T) {
	reg := newTestRegistry(t)
	reg.ShortReply = true
	c := NewClient(IPSet, reg)

	_, err := c.ResolveByName(context.Background(), "webservers", FamilyIPv4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProtocolMismatch))
	assert.Equal(t, "Incorrect return size from kernel during ipset lookup, (want 44, got 40)", err.Error())
	assert.Equal(t, errors.KindProtocol, errors.GetKind(err))

	_, err = c.ResolveByID(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(want 40, got 36)")
	assert.Equal(t, 0, reg.Live())
}

func TestResolveOpenFailure(t *testing.T) {
	reg := newTestRegistry(t)
	reg.FailOpen = true
	c := NewClient(IPSet, reg)

	_, err := c.ResolveByName(context.Background(), "webservers", FamilyIPv4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChannelUnavailable))
	assert.Contains(t, err.Error(), "Can't open socket to ipset.")
	assert.Empty(t, reg.Requests())
}

func TestResolveNameTooLong(t *testing.T) {
	reg := newTestRegistry(t)
	c := NewClient(IPSet, reg)

	name := strings.Repeat("n", MaxNameLen)
	_, err := c.ResolveByName(context.Background(), name, FamilyIPv4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNameTooLong))
	assert.Equal(t, "setname `"+name+"' too long, max 31 characters.", err.Error())
	assert.Equal(t, 0, reg.Opened(), "validation happens before any socket is opened")
}

func TestResolveByID(t *testing.T) {
	reg := newTestRegistry(t)
	c := NewClient(IPSet, reg)

	name, err := c.ResolveByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "webservers", name)
	assert.Equal(t, []Op{OpVersion, OpGetByIndex}, reg.Requests())

	_, err = c.ResolveByID(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Set with index 42 in kernel doesn't exist.", err.Error())
	assert.Equal(t, 0, reg.Live())
}

func TestResolveTimeout(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Block = make(chan struct{})

	m := metrics.New()
	c := NewClient(IPSet, reg, WithTimeout(20*time.Millisecond), WithMetrics(m))

	_, err := c.ResolveByName(context.Background(), "webservers", FamilyIPv4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChannelUnavailable))
	assert.Equal(t, errors.KindTimeout, errors.GetKind(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryRequests.WithLabelValues("ipset", "version", metrics.ResultTimeout)))

	assert.Equal(t, 1, reg.Live(), "socket stays open while the call is pending")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsOpen.WithLabelValues("ipset")))

	close(reg.Block)
	assert.Eventually(t, func() bool { return reg.Live() == 0 }, time.Second, time.Millisecond,
		"socket is closed once the pending call returns")
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.SessionsOpen.WithLabelValues("ipset")) == 0
	}, time.Second, time.Millisecond)
}

func TestResolveTimeoutDoesNotShareDescriptor(t *testing.T) {
	reg := newTestRegistry(t)
	block := make(chan struct{})
	defer close(block)
	reg.Block = block

	c := NewClient(IPSet, reg, WithTimeout(20*time.Millisecond))
	_, err := c.ResolveByName(context.Background(), "webservers", FamilyIPv4)
	require.Error(t, err)

	// The next lookup gets a fresh socket while the first one is still held.
	reg.mu.Lock()
	reg.Block = nil
	reg.mu.Unlock()

	name, err := c.ResolveByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "webservers", name)
	assert.Equal(t, 2, reg.Opened())
	assert.Equal(t, 1, reg.Live())
}

func TestResolveContextCanceled(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(IPSet, reg, WithTimeout(0))
	_, err := c.ResolveByID(ctx, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChannelUnavailable))

	close(reg.Block)
	assert.Eventually(t, func() bool { return reg.Live() == 0 }, time.Second, time.Millisecond)
}

func TestDomainSetProtocol(t *testing.T) {
	reg := NewSimRegistry(DomainSet)
	require.NoError(t, reg.Add("ads", 3, FamilyUnspec))

	c := NewClient(DomainSet, reg)
	idx, err := c.ResolveByName(context.Background(), "ads", FamilyIPv4)
	require.NoError(t, err)
	assert.Equal(t, Index(3), idx)

	// An ipset client cannot talk to the domain registry.
	_, err = NewClient(IPSet, reg).ResolveByName(context.Background(), "ads", FamilyIPv4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChannelUnavailable))

	_, err = c.ResolveByName(context.Background(), "nope", FamilyIPv4)
	require.Error(t, err)
	assert.Equal(t, "Set nope doesn't exist.", err.Error())
}

func TestDomainSetMessages(t *testing.T) {
	reg := NewSimRegistry(DomainSet)
	reg.ShortReply = true
	require.NoError(t, reg.Add("ads", 3, FamilyUnspec))

	_, err := NewClient(DomainSet, reg).ResolveByID(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "during dset lookup")
}
