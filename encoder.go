package stagedit

import (
	"errors"

	"github.com/pthm/stagedit/lib/encoding"
)

// Encoder is an alias for encoding.Encoder for convenience.
type Encoder = encoding.Encoder

// NewEncoder creates a new state encoder with the given key.
func NewEncoder(key []byte) (*Encoder, error) {
	return encoding.NewEncoder(key)
}

// ExportState encodes the session's staged-but-uncommitted edits so they
// can ride in rendered markup and survive a server round trip. sensitive
// selects encryption over signing.
func (s *Session) ExportState(enc *Encoder, sensitive bool) (string, error) {
	return enc.Encode(s.Overlay().Map(), sensitive)
}

// RestoreState stages the edits carried in an exported state string on top
// of the current overlay. Entries that match the live view are dropped by
// the same rule as SetField, so restoring stale state never creates no-op
// overlay entries.
func (s *Session) RestoreState(enc *Encoder, encoded string, sensitive bool) error {
	if encoded == "" {
		return nil
	}
	entries, err := enc.Decode(encoded, sensitive)
	if err != nil {
		return wrapEncodingError(err)
	}
	for path, v := range entries {
		s.SetField(path, v)
	}
	return nil
}

// wrapEncodingError wraps encoding package errors with stagedit sentinels.
func wrapEncodingError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, encoding.ErrInvalidFormat) {
		return ErrInvalidFormat
	}
	if errors.Is(err, encoding.ErrSignatureInvalid) {
		return ErrSignatureInvalid
	}
	if errors.Is(err, encoding.ErrDecryptFailed) {
		return ErrDecryptFailed
	}
	return err
}
