package msgpack

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType  = errors.New("msgpack: unsupported type")
	ErrInvalidPointer   = errors.New("msgpack: decode target must be a non-nil pointer")
	ErrOverflow         = errors.New("msgpack: integer overflow")
	ErrUnexpectedMarker = errors.New("msgpack: unexpected marker")
	ErrExtMismatch      = errors.New("msgpack: extension payload type does not match the target")
)

// EncodingError represents an error raised by the encoder itself, as
// opposed to a failure of the underlying writer, which is returned as is.
type EncodingError struct {
	Type   string
	Reason string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("msgpack encoding error for %s: %s: %v", e.Type, e.Reason, e.Err)
	}
	return fmt.Sprintf("msgpack encoding error for %s: %s", e.Type, e.Reason)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// DecodingError represents an error raised by the decoder itself, as
// opposed to a failure of the underlying reader, which is returned as is.
type DecodingError struct {
	Type   string
	Reason string
	Err    error
}

func (d *DecodingError) Error() string {
	if d.Err != nil {
		return fmt.Sprintf("msgpack decoding error for %s: %s: %v", d.Type, d.Reason, d.Err)
	}
	return fmt.Sprintf("msgpack decoding error for %s: %s", d.Type, d.Reason)
}

func (d *DecodingError) Unwrap() error {
	return d.Err
}
