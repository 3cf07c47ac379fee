package msgpack

import (
	"reflect"

	"github.com/Volkalex28/msgpack-go/internal/wire"
)

// Variant represents one case of a tagged union.
// Index follows declaration order of the union's cases; Name is the case
// name. Which of the two reaches the wire is decided by the Config. Value
// is nil for unit variants.
//
// A unit variant is written as its tag alone. A variant with a payload is
// written as a one-entry map from tag to payload.
type Variant struct {
	Index uint32
	Name  string
	Value any
}

// NewUnitVariant returns a variant without payload.
func NewUnitVariant(index uint32, name string) Variant {
	return Variant{Index: index, Name: name}
}

// NewVariant returns a variant carrying value.
func NewVariant(index uint32, name string, value any) Variant {
	return Variant{Index: index, Name: name, Value: value}
}

// IsUnit reports whether v carries no payload.
func (v Variant) IsUnit() bool {
	return v.Value == nil
}

// VariantIndexConfig writes union tags as the variant index instead of the
// name. Decoders accept either form, so peers may switch independently.
type VariantIndexConfig[C Config] struct {
	inner C
}

// VariantIndex returns a config that writes union tags as integers and
// inherits every other behavior from inner.
func VariantIndex[C Config](inner C) VariantIndexConfig[C] {
	return VariantIndexConfig[C]{inner: inner}
}

func (c VariantIndexConfig[C]) String() string { return "VariantIndex(" + c.inner.String() + ")" }

func (c VariantIndexConfig[C]) writeStructLen(e *Encoder, n int) error {
	return c.inner.writeStructLen(e, n)
}

func (c VariantIndexConfig[C]) writeStructField(e *Encoder, key string, v reflect.Value) error {
	return c.inner.writeStructField(e, key, v)
}

func (c VariantIndexConfig[C]) writeVariantIdent(e *Encoder, index uint32, _ string) error {
	return e.w.WriteUint(uint64(index))
}

func (c VariantIndexConfig[C]) isHumanReadable() bool { return c.inner.isHumanReadable() }

func (c VariantIndexConfig[C]) writeExt(e *Encoder, v reflect.Value) (bool, error) {
	return c.inner.writeExt(e, v)
}

func (c VariantIndexConfig[C]) tryReadExt(d *Decoder, m wire.Marker, want reflect.Type) (any, bool, error) {
	return c.inner.tryReadExt(d, m, want)
}
