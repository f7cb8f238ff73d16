package stagedit

import "errors"

// Sentinel errors for session operations.
var (
	// ErrNotInitialized indicates the engine was used before its required
	// external dependencies were supplied (e.g. Submit without a Backend).
	// This is a programmer error; the session panics at call time.
	ErrNotInitialized = errors.New("stagedit: engine not initialized")

	// ErrInvalidConfig indicates a session was constructed with neither a
	// view nor a model. The constructor panics.
	ErrInvalidConfig = errors.New("stagedit: neither view nor model configured")

	// ErrCommitFailed wraps a transaction commit rejection. It is recovered
	// locally: stored in the session's save-error slot with the overlay
	// preserved so the user can retry.
	ErrCommitFailed = errors.New("stagedit: commit failed")

	// ErrUnsupportedField indicates a target field exposes neither a replace
	// nor a set operation. Non-fatal: the field's edit is dropped and the
	// rest of the commit proceeds.
	ErrUnsupportedField = errors.New("stagedit: field supports neither replace nor set")

	// ErrSessionClosed indicates an operation on a torn-down session.
	ErrSessionClosed = errors.New("stagedit: session closed")
)

// State-codec sentinel errors.
var (
	ErrDecryptFailed    = errors.New("stagedit: state decryption failed")
	ErrSignatureInvalid = errors.New("stagedit: state signature verification failed")
	ErrInvalidFormat    = errors.New("stagedit: invalid state format")
)

// IsCommitFailed checks if err is a commit rejection.
func IsCommitFailed(err error) bool {
	return errors.Is(err, ErrCommitFailed)
}

// IsDecodingError checks if err is a state decryption, signature, or format error.
func IsDecodingError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) ||
		errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrInvalidFormat)
}
