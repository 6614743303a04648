// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package host

import "grimm.is/ebtset/internal/errors"

var (
	// ErrMissingArgument: an option that takes an argument ended the rule.
	ErrMissingArgument = errors.Sentinel("missing option argument")
	// ErrUnknownMatch: -m named an extension that is not registered.
	ErrUnknownMatch = errors.Sentinel("unknown match")
)

func usageError(sentinel error, format string, args ...any) error {
	return errors.Mark(errors.Errorf(errors.KindUsage, format, args...), sentinel)
}
