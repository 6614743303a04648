// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package match

import (
	"grimm.is/ebtset/internal/errors"
	"grimm.is/ebtset/internal/sets"
)

// Option parsing failures. All of them are usage errors.
var (
	ErrInvalidValue               = errors.Sentinel("invalid counter value")
	ErrInvertedOperatorNotAllowed = errors.Sentinel("operator cannot be inverted")
	ErrDuplicateOperator          = errors.Sentinel("duplicate counter operator")
	ErrDuplicateSetReference      = errors.Sentinel("set specified more than once")
	ErrNameTooLong                = errors.Sentinel("set name too long")
	ErrUnexpectedInversion        = errors.Sentinel("unexpected inversion")
	ErrUnknownOption              = errors.Sentinel("unknown option")
	ErrSetNotSpecified            = errors.Sentinel("set not specified")
	ErrCommentTooLong             = errors.Sentinel("comment too long")
	ErrDuplicateOption            = errors.Sentinel("option used more than once")
	errMalformedSlot              = errors.Sentinel("malformed match slot")
)

// Error classes reported by Classify.
const (
	ClassUsage          = "usage"
	ClassProtocol       = "protocol"
	ClassNotFound       = "not_found"
	ClassFamilyMismatch = "family_mismatch"
	ClassInternal       = "internal"
)

func usageError(sentinel error, format string, args ...any) error {
	return errors.Mark(errors.Errorf(errors.KindUsage, format, args...), sentinel)
}

// Classify maps an error from parsing or printing a rule to its class.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, sets.ErrFamilyMismatch) {
		return ClassFamilyMismatch
	}
	switch errors.GetKind(err) {
	case errors.KindUsage:
		return ClassUsage
	case errors.KindUnavailable, errors.KindProtocol, errors.KindTimeout:
		return ClassProtocol
	case errors.KindNotFound:
		return ClassNotFound
	case errors.KindValidation:
		return ClassFamilyMismatch
	default:
		return ClassInternal
	}
}
