package msgpack

import (
	"reflect"

	"github.com/Volkalex28/msgpack-go/internal/wire"
)

// StructMapConfig writes records as maps keyed by field name.
//
// MessagePack does not say how records are serialized. The default writes
// them as a tuple, since only the length is encoded; wrap a config in
// StructMap when the bytes must be readable without the Go type, or when
// the peer matches fields by name.
type StructMapConfig[C Config] struct {
	inner C
}

// StructMap returns a config that writes records as maps and inherits every
// other behavior from inner.
func StructMap[C Config](inner C) StructMapConfig[C] {
	return StructMapConfig[C]{inner: inner}
}

func (c StructMapConfig[C]) String() string { return "StructMap(" + c.inner.String() + ")" }

func (c StructMapConfig[C]) writeStructLen(e *Encoder, n int) error {
	return e.w.WriteMapLen(n)
}

func (c StructMapConfig[C]) writeStructField(e *Encoder, key string, v reflect.Value) error {
	if err := e.w.WriteString(key); err != nil {
		return err
	}
	return e.encodeValue(v)
}

func (c StructMapConfig[C]) writeVariantIdent(e *Encoder, index uint32, name string) error {
	return c.inner.writeVariantIdent(e, index, name)
}

func (c StructMapConfig[C]) isHumanReadable() bool { return c.inner.isHumanReadable() }

func (c StructMapConfig[C]) writeExt(e *Encoder, v reflect.Value) (bool, error) {
	return c.inner.writeExt(e, v)
}

func (c StructMapConfig[C]) tryReadExt(d *Decoder, m wire.Marker, want reflect.Type) (any, bool, error) {
	return c.inner.tryReadExt(d, m, want)
}

// StructTupleConfig writes records as arrays without field names. It
// restores the compact shape underneath an outer config that changed it.
type StructTupleConfig[C Config] struct {
	inner C
}

// StructTuple returns a config that writes records as tuples and inherits
// every other behavior from inner.
func StructTuple[C Config](inner C) StructTupleConfig[C] {
	return StructTupleConfig[C]{inner: inner}
}

func (c StructTupleConfig[C]) String() string { return "StructTuple(" + c.inner.String() + ")" }

func (c StructTupleConfig[C]) writeStructLen(e *Encoder, n int) error {
	return e.w.WriteArrayLen(n)
}

func (c StructTupleConfig[C]) writeStructField(e *Encoder, _ string, v reflect.Value) error {
	return e.encodeValue(v)
}

func (c StructTupleConfig[C]) writeVariantIdent(e *Encoder, index uint32, name string) error {
	return c.inner.writeVariantIdent(e, index, name)
}

func (c StructTupleConfig[C]) isHumanReadable() bool { return c.inner.isHumanReadable() }

func (c StructTupleConfig[C]) writeExt(e *Encoder, v reflect.Value) (bool, error) {
	return c.inner.writeExt(e, v)
}

func (c StructTupleConfig[C]) tryReadExt(d *Decoder, m wire.Marker, want reflect.Type) (any, bool, error) {
	return c.inner.tryReadExt(d, m, want)
}
