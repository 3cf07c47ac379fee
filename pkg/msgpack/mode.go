package msgpack

import (
	"reflect"

	"github.com/Volkalex28/msgpack-go/internal/wire"
)

// HumanReadableConfig makes Encoder.IsHumanReadable and
// Decoder.IsHumanReadable return true. Types with two renderings
// (time.Time, big.Int, text marshalers) then pick the legible one.
type HumanReadableConfig[C Config] struct {
	inner C
}

// HumanReadable returns a config that reports human-readable mode and
// inherits every other behavior from inner.
func HumanReadable[C Config](inner C) HumanReadableConfig[C] {
	return HumanReadableConfig[C]{inner: inner}
}

func (c HumanReadableConfig[C]) String() string { return "HumanReadable(" + c.inner.String() + ")" }

func (c HumanReadableConfig[C]) writeStructLen(e *Encoder, n int) error {
	return c.inner.writeStructLen(e, n)
}

func (c HumanReadableConfig[C]) writeStructField(e *Encoder, key string, v reflect.Value) error {
	return c.inner.writeStructField(e, key, v)
}

func (c HumanReadableConfig[C]) writeVariantIdent(e *Encoder, index uint32, name string) error {
	return c.inner.writeVariantIdent(e, index, name)
}

func (c HumanReadableConfig[C]) isHumanReadable() bool { return true }

func (c HumanReadableConfig[C]) writeExt(e *Encoder, v reflect.Value) (bool, error) {
	return c.inner.writeExt(e, v)
}

func (c HumanReadableConfig[C]) tryReadExt(d *Decoder, m wire.Marker, want reflect.Type) (any, bool, error) {
	return c.inner.tryReadExt(d, m, want)
}

// BinaryConfig makes Encoder.IsHumanReadable and Decoder.IsHumanReadable
// return false.
type BinaryConfig[C Config] struct {
	inner C
}

// Binary returns a config that reports compact mode and inherits every
// other behavior from inner.
func Binary[C Config](inner C) BinaryConfig[C] {
	return BinaryConfig[C]{inner: inner}
}

func (c BinaryConfig[C]) String() string { return "Binary(" + c.inner.String() + ")" }

func (c BinaryConfig[C]) writeStructLen(e *Encoder, n int) error {
	return c.inner.writeStructLen(e, n)
}

func (c BinaryConfig[C]) writeStructField(e *Encoder, key string, v reflect.Value) error {
	return c.inner.writeStructField(e, key, v)
}

func (c BinaryConfig[C]) writeVariantIdent(e *Encoder, index uint32, name string) error {
	return c.inner.writeVariantIdent(e, index, name)
}

func (c BinaryConfig[C]) isHumanReadable() bool { return false }

func (c BinaryConfig[C]) writeExt(e *Encoder, v reflect.Value) (bool, error) {
	return c.inner.writeExt(e, v)
}

func (c BinaryConfig[C]) tryReadExt(d *Decoder, m wire.Marker, want reflect.Type) (any, bool, error) {
	return c.inner.tryReadExt(d, m, want)
}
