// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package sets resolves kernel set names to registry indices and back over
// the getsockopt control protocol shared by the ipset and domain-set
// registries.
package sets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"grimm.is/ebtset/internal/errors"
	"grimm.is/ebtset/internal/kernel"
	"grimm.is/ebtset/internal/logging"
	"grimm.is/ebtset/internal/metrics"
)

// DefaultTimeout bounds a single getsockopt round-trip.
const DefaultTimeout = 5 * time.Second

// Client talks to one set registry. Every call opens its own socket and
// closes it before returning, so a Client is safe for concurrent use.
type Client struct {
	proto   Protocol
	opener  kernel.Opener
	logger  *logging.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for session tracing.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds each round-trip. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMetrics records request outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for proto using opener for sockets.
func NewClient(proto Protocol, opener kernel.Opener, opts ...Option) *Client {
	c := &Client{
		proto:   proto,
		opener:  opener,
		logger:  logging.WithComponent("sets"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("protocol", proto.Name)
	return c
}

// Protocol returns the registry this client talks to.
func (c *Client) Protocol() Protocol {
	return c.proto
}

// ResolveByName looks up name and returns its index. A set is accepted if
// its family is family or unspecified. Registries that predate the
// family-aware lookup are retried with the name-only request on a new socket.
func (c *Client) ResolveByName(ctx context.Context, name string, family Family) (Index, error) {
	if len(name) > MaxNameLen-1 {
		return InvalidIndex, errors.Mark(errors.Errorf(errors.KindUsage,
			"setname `%s' too long, max %d characters.", name, MaxNameLen-1), ErrNameTooLong)
	}

	s, err := c.open(ctx)
	if err != nil {
		return InvalidIndex, err
	}

	req := reqGetSetFamily{
		Op:      uint32(OpGetByNameFamily),
		Version: s.version,
		Family:  uint32(family),
	}
	putName(&req.Set, name)
	buf := encode(&req)

	n, err := s.roundTrip(ctx, OpGetByNameFamily, buf)
	if errors.Is(err, unix.EBADMSG) {
		version := s.version
		s.close()
		c.metrics.Fallback(c.proto.Name)
		c.logger.Debug("family-aware lookup unsupported, retrying by name", "set", name, "session", s.id)
		return c.resolveByNameOnly(ctx, name, version)
	}
	s.close()
	if err != nil {
		return InvalidIndex, c.commError(err)
	}
	if n != sizeGetSetFamily {
		return InvalidIndex, c.sizeError(sizeGetSetFamily, n)
	}

	var reply reqGetSetFamily
	decode(buf, &reply)

	idx := getIndex(reply.Set)
	if idx == InvalidIndex {
		return InvalidIndex, c.notFound(name)
	}
	if reply.Family != uint32(family) && reply.Family != uint32(FamilyUnspec) {
		err := errors.Errorf(errors.KindValidation,
			"The protocol family of set %s is %s, which is not applicable.", name, familyName(reply.Family))
		err = errors.Attr(err, "set", name)
		return InvalidIndex, errors.Mark(err, ErrFamilyMismatch)
	}

	c.logger.Debug("resolved set", "set", name, "index", idx, "family", familyName(reply.Family))
	return idx, nil
}

// resolveByNameOnly issues the legacy name lookup. It reuses version
// rather than negotiating again.
func (c *Client) resolveByNameOnly(ctx context.Context, name string, version uint32) (Index, error) {
	s, err := c.dial()
	if err != nil {
		return InvalidIndex, err
	}
	s.version = version

	req := reqGetSet{
		Op:      uint32(OpGetByName),
		Version: version,
	}
	putName(&req.Set, name)
	buf := encode(&req)

	n, err := s.roundTrip(ctx, OpGetByName, buf)
	s.close()
	if err != nil {
		return InvalidIndex, c.commError(err)
	}
	if n != sizeGetSet {
		return InvalidIndex, c.sizeError(sizeGetSet, n)
	}

	var reply reqGetSet
	decode(buf, &reply)

	idx := getIndex(reply.Set)
	if idx == InvalidIndex {
		return InvalidIndex, c.notFound(name)
	}

	c.logger.Debug("resolved set by name only", "set", name, "index", idx)
	return idx, nil
}

// ResolveByID returns the name of the set registered at idx.
func (c *Client) ResolveByID(ctx context.Context, idx Index) (string, error) {
	s, err := c.open(ctx)
	if err != nil {
		return "", err
	}

	req := reqGetSet{
		Op:      uint32(OpGetByIndex),
		Version: s.version,
	}
	putIndex(&req.Set, idx)
	buf := encode(&req)

	n, err := s.roundTrip(ctx, OpGetByIndex, buf)
	s.close()
	if err != nil {
		return "", c.commError(err)
	}
	if n != sizeGetSet {
		return "", c.sizeError(sizeGetSet, n)
	}

	var reply reqGetSet
	decode(buf, &reply)

	name := getName(reply.Set)
	if name == "" {
		err := errors.Errorf(errors.KindNotFound, "Set with index %d in kernel doesn't exist.", idx)
		err = errors.Attr(err, "index", idx)
		return "", errors.Mark(err, ErrNotFound)
	}
	return name, nil
}

func (c *Client) notFound(name string) error {
	err := errors.Errorf(errors.KindNotFound, "Set %s doesn't exist.", name)
	err = errors.Attr(err, "set", name)
	return errors.Mark(err, ErrNotFound)
}

func (c *Client) commError(err error) error {
	if errors.Is(err, ErrChannelUnavailable) {
		return err
	}
	var errno unix.Errno
	code := 0
	if errors.As(err, &errno) {
		code = int(errno)
	}
	wrapped := errors.Wrapf(err, errors.KindUnavailable,
		"Problem when communicating with %s, errno=%d.", c.proto.Label, code)
	return errors.Mark(wrapped, ErrChannelUnavailable)
}

func (c *Client) sizeError(want, got int) error {
	err := errors.Errorf(errors.KindProtocol,
		"Incorrect return size from kernel during %s lookup, (want %d, got %d)", c.proto.Label, want, got)
	return errors.Mark(err, ErrProtocolMismatch)
}

// session is one open control socket plus the version negotiated on it.
type session struct {
	c       *Client
	ch      kernel.Channel
	id      string
	version uint32
	closed  bool
}

// dial opens a socket without negotiating.
func (c *Client) dial() (*session, error) {
	ch, err := c.opener.Open()
	if err != nil {
		wrapped := errors.Wrapf(err, errors.KindUnavailable, "Can't open socket to %s.", c.proto.Label)
		return nil, errors.Mark(wrapped, ErrChannelUnavailable)
	}
	c.metrics.SessionOpened(c.proto.Name)
	return &session{c: c, ch: ch, id: uuid.NewString()}, nil
}

// open dials and negotiates the protocol version. The socket is closed
// if negotiation fails.
func (c *Client) open(ctx context.Context) (*session, error) {
	s, err := c.dial()
	if err != nil {
		return nil, err
	}

	buf := encode(&reqVersion{Op: uint32(OpVersion)})
	n, err := s.roundTrip(ctx, OpVersion, buf)
	if err == nil && n != sizeVersion {
		err = unix.EPROTO
	}
	if err != nil {
		s.close()
		if errors.Is(err, ErrChannelUnavailable) {
			return nil, err
		}
		wrapped := errors.Wrapf(err, errors.KindUnavailable, "Kernel module %s is not loaded in.", c.proto.Module)
		return nil, errors.Mark(wrapped, ErrChannelUnavailable)
	}

	var reply reqVersion
	decode(buf, &reply)
	s.version = reply.Version

	c.logger.Debug("registry session open", "session", s.id, "version", s.version)
	return s, nil
}

type sockoptResult struct {
	n   int
	err error
}

// roundTrip runs one getsockopt bounded by ctx and the client timeout.
// On expiry the session is given up and buf must not be read. The socket
// itself stays open until the pending call returns, so its descriptor
// cannot be reused by another socket while the call is in flight.
func (s *session) roundTrip(ctx context.Context, op Op, buf []byte) (int, error) {
	if s.c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.c.timeout)
		defer cancel()
	}

	done := make(chan sockoptResult, 1)
	go func() {
		n, err := s.ch.Getsockopt(s.c.proto.Level, s.c.proto.Option, buf)
		done <- sockoptResult{n: n, err: err}
	}()

	select {
	case res := <-done:
		s.c.metrics.Request(s.c.proto.Name, op.String(), requestResult(buf, res))
		return res.n, res.err
	case <-ctx.Done():
		s.closed = true
		go func() {
			<-done
			s.release()
		}()
		s.c.metrics.Request(s.c.proto.Name, op.String(), metrics.ResultTimeout)
		s.c.logger.Warn("registry request timed out", "session", s.id, "op", op.String())
		wrapped := errors.Wrapf(ctx.Err(), errors.KindTimeout, "%s %s request timed out", s.c.proto.Label, op)
		return 0, errors.Mark(wrapped, ErrChannelUnavailable)
	}
}

func requestResult(buf []byte, res sockoptResult) string {
	switch {
	case errors.Is(res.err, unix.EBADMSG):
		return metrics.ResultUnsupported
	case res.err != nil:
		return metrics.ResultError
	case res.n != len(buf):
		return metrics.ResultShort
	default:
		return metrics.ResultOK
	}
}

func (s *session) close() {
	if s.closed {
		return
	}
	s.closed = true
	s.release()
}

func (s *session) release() {
	if err := s.ch.Close(); err != nil {
		s.c.logger.Debug("closing registry socket", "session", s.id, "error", err)
	}
	s.c.metrics.SessionClosed(s.c.proto.Name)
}
