// Package errors provides standardized error handling for the operations backend.
//
// # Overview
//
// The package combines two ideas: a small set of standard sentinel errors for
// the platform's failure taxonomy, and a three-class classification system
// (Transient, Invalid, Fatal) that lets callers make retry decisions without
// string matching.
//
// The taxonomy sentinels map directly onto the behavior clients observe:
//
//   - ErrUnauthenticated: bad or missing bearer token at connect; the
//     connection attempt is terminated before any session state exists.
//   - ErrForbidden: the actor's role does not permit a group join or a job
//     status transition. State is never mutated.
//   - ErrIllegalTransition: the requested job status edge is not defined.
//   - ErrValidation: a malformed control message or request payload.
//
// # Wrapping
//
// All error wrapping follows the format "component.method: action failed: %w"
// so logs parse consistently across the platform:
//
//	return errors.Wrap(err, "Gateway", "Publish", "encode envelope")
//
// WrapTransient, WrapInvalid, and WrapFatal additionally attach a class that
// survives the wrapping chain and is visible through errors.As.
//
// # Classification
//
// IsTransient, IsInvalid, and IsFatal inspect classified errors first and fall
// back to known sentinel and context errors. Unknown errors default to
// transient so retry loops err on the side of another attempt.
//
// All operations are thread-safe; sentinel variables are immutable.
package errors
