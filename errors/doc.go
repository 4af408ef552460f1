// Package errors provides standardized error handling patterns for PlotStream components.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, retryable), Invalid (bad input, non-retryable), and
// Fatal (unrecoverable, stop processing).
//
// The curve handler uses the classes to decide what to recover from: per-entry
// extraction failures inside a snapshot are Invalid and skipped, remote filter
// push failures are Transient and logged, and bootstrap failures are Fatal and
// leave the handler permanently inert.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "FilterRegistry", "addSignal", "push membership")
//	errors.WrapInvalid(err, "PathValueExtractor", "Extract", "vector query")
//	errors.WrapFatal(err, "CurveHandler", "bootstrap", "filter creation")
//
// The generic Wrap() function adds context without setting a class.
//
// # Standard Error Variables
//
// Pre-defined variables cover the common conditions; use them instead of
// inline errors.New so callers can match with errors.Is:
//
//	if len(managers) == 0 {
//	    return errors.ErrNoManagers
//	}
//
// Classification is preserved through wrapping chains and integrates with
// errors.Is, errors.As, and %w verbs. Context errors (context.DeadlineExceeded,
// context.Canceled) classify as Transient.
//
// All operations are thread-safe; error variables are immutable.
package errors
