package msgpack

import (
	"fmt"
	"reflect"

	"github.com/Volkalex28/msgpack-go/internal/wire"
)

// Config dictates how the Encoder renders record boundaries, union tags and
// extension values, and what the Decoder reports for IsHumanReadable.
//
// Config is a closed interface: its hooks are unexported, so only the types
// in this package implement it. Callers compose the provided configs and
// hand the result to NewEncoder or NewDecoder. Keeping the hooks private
// lets the hook set change without breaking code that only holds a Config.
//
// Every Config is an immutable value. Copying one is cheap and safe, and a
// single value may be shared by any number of concurrent encoders.
type Config interface {
	fmt.Stringer
	hooks
}

// hooks is the real contract. A decorator answers the hooks it cares about
// and forwards the rest to its inner config unchanged.
type hooks interface {
	// writeStructLen opens a record of n fields. It is called once per
	// record, before any field.
	writeStructLen(e *Encoder, n int) error

	// writeStructField writes one field. It is called exactly n times per
	// record, in declaration order.
	writeStructField(e *Encoder, key string, v reflect.Value) error

	// writeVariantIdent writes the discriminator of a tagged union value,
	// before its payload.
	writeVariantIdent(e *Encoder, index uint32, name string) error

	// isHumanReadable picks between the legible and the compact rendering
	// of types that have both.
	isHumanReadable() bool

	// writeExt gets the first chance at any extension envelope. It reports
	// false when the config does not claim v; the encoder then renders v
	// through its ordinary path.
	writeExt(e *Encoder, v reflect.Value) (handled bool, err error)

	// tryReadExt is consulted when the decoder meets extension marker m.
	// want is the envelope type the caller decodes into, or nil when any
	// value may appear. It reports false, without consuming input, when the
	// config does not claim m for want. A claimed marker whose payload does
	// not parse is an error.
	tryReadExt(d *Decoder, m wire.Marker, want reflect.Type) (ext any, handled bool, err error)
}

// DefaultConfig is the base configuration:
//   - records are written as arrays, without field names
//   - union tags are written as the variant name
//   - IsHumanReadable is false
//   - extension envelopes are not intercepted
//
// This is the most compact representation.
type DefaultConfig struct{}

var _ Config = DefaultConfig{}

func (DefaultConfig) String() string { return "Default" }

func (DefaultConfig) writeStructLen(e *Encoder, n int) error {
	return e.w.WriteArrayLen(n)
}

func (DefaultConfig) writeStructField(e *Encoder, _ string, v reflect.Value) error {
	return e.encodeValue(v)
}

func (DefaultConfig) writeVariantIdent(e *Encoder, _ uint32, name string) error {
	return e.w.WriteString(name)
}

func (DefaultConfig) isHumanReadable() bool { return false }

func (DefaultConfig) writeExt(*Encoder, reflect.Value) (bool, error) {
	return false, nil
}

func (DefaultConfig) tryReadExt(*Decoder, wire.Marker, reflect.Type) (any, bool, error) {
	return nil, false, nil
}
