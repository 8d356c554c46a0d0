package classifier

import (
	"errors"
	"fmt"
)

// invalidImageError signals an upload that cannot be decoded as an image.
type invalidImageError struct{ err error }

func (e invalidImageError) Error() string { return "invalid image: " + e.err.Error() }
func (e invalidImageError) Unwrap() error { return e.err }

// ErrInvalidImage wraps a decode failure.
func ErrInvalidImage(err error) error { return invalidImageError{err: err} }

// IsInvalidImage reports whether err indicates an undecodable image.
func IsInvalidImage(err error) bool {
	var e invalidImageError
	return errors.As(err, &e)
}

// configurationError signals a structural mismatch between the encoder, the
// text embeddings, the head, and the report table. It is fatal at startup.
type configurationError struct{ msg string }

func (e configurationError) Error() string { return "classifier configuration: " + e.msg }

func errConfiguration(format string, a ...any) error {
	return configurationError{msg: fmt.Sprintf(format, a...)}
}

// IsConfigurationError reports whether err is a structural configuration mismatch.
func IsConfigurationError(err error) bool {
	var e configurationError
	return errors.As(err, &e)
}
