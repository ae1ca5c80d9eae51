// Package errors provides error handling for gistub.
//
// It re-exports github.com/cockroachdb/errors so that every package wraps,
// annotates and inspects errors the same way:
//
//	if err := activate(); err != nil {
//	    return errors.Wrapf(err, "activate %s", name)
//	}
//
//	return errors.WithHint(err, "check the snapshot directory")
//
// Typed domain errors (ActivationError, BuildError, CycleError) live in the
// packages that raise them and are matched with As.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef

	WithSecondaryError = crdb.WithSecondaryError
)

// User-facing hints and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Markers and assertions
var (
	Mark               = crdb.Mark
	AssertionFailedf   = crdb.AssertionFailedf
	IsAssertionFailure = crdb.IsAssertionFailure
)
