// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sets

import "grimm.is/ebtset/internal/errors"

// Failures surfaced by Client. Match them with errors.Is; the error text
// carries the human-readable detail.
var (
	// ErrChannelUnavailable: the control socket could not be opened, the
	// version query failed, or a round-trip failed or timed out.
	ErrChannelUnavailable = errors.Sentinel("set registry unavailable")
	// ErrProtocolMismatch: the reply size did not match the request layout.
	ErrProtocolMismatch = errors.Sentinel("set registry protocol mismatch")
	// ErrNotFound: no set with that name or index.
	ErrNotFound = errors.Sentinel("set not found")
	// ErrFamilyMismatch: the set exists but holds another address family.
	ErrFamilyMismatch = errors.Sentinel("set family mismatch")
	// ErrNameTooLong: the name does not fit the request.
	ErrNameTooLong = errors.Sentinel("set name too long")
)
