package wire

import "errors"

var (
	ErrTooLarge      = errors.New("msgpack: length exceeds the 32-bit wire limit")
	ErrNotExt        = errors.New("msgpack: marker is not an extension marker")
	ErrInvalidMarker = errors.New("msgpack: invalid marker")
)
