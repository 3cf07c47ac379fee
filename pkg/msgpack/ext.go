package msgpack

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/Volkalex28/msgpack-go/internal/wire"
)

// Ext is an extension envelope: a small application-defined type tag and a
// payload of type P. Under an ExtConfig for the same P it is written with
// one of the eight extension markers; under any other config it is written
// like an ordinary two-field record.
type Ext[P any] struct {
	Type int8 `msgpack:"type"`
	Data P    `msgpack:"data"`
}

func (Ext[P]) extEnvelope() {}

// extEnvelope marks the values the encoder offers to Config.writeExt.
type extEnvelope interface {
	extEnvelope()
}

var extEnvelopeType = reflect.TypeOf((*extEnvelope)(nil)).Elem()

// RawBytes is an extension payload that is its own binary form.
type RawBytes []byte

// MarshalBinary returns b unchanged.
func (b RawBytes) MarshalBinary() ([]byte, error) {
	return []byte(b), nil
}

// UnmarshalBinary stores a copy of p.
func (b *RawBytes) UnmarshalBinary(p []byte) error {
	*b = append((*b)[:0], p...)
	return nil
}

// RawExt is an extension value with an uninterpreted payload. The decoder
// produces it for extension markers no config claims.
type RawExt = Ext[RawBytes]

// ExtPayload is satisfied by *P when P converts to and from the payload
// bytes of an extension value.
type ExtPayload[P any] interface {
	*P
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// ExtConfig intercepts extension envelopes whose payload type is P.
//
// On encode, an Ext[P] is written as a native extension value: the payload
// comes from P's MarshalBinary and the smallest fitting marker is chosen.
// Other values, including envelopes of a different payload type, go to the
// inner config.
//
// On decode into an Ext[P] or into an untyped value, an extension marker is
// claimed and its payload is handed to P's UnmarshalBinary; a payload P
// rejects is a decode error. Targets of another envelope type, and markers
// outside the extension family, are left to the inner config without
// consuming input. Stacked ExtConfigs therefore each decode their own
// payload type, and the outermost one wins for untyped targets.
type ExtConfig[C Config, P any, PP ExtPayload[P]] struct {
	inner C
}

// WithExt returns a config that intercepts Ext[P] and inherits every other
// behavior from inner. Only P needs to be spelled out:
//
//	cfg := msgpack.WithExt[msgpack.RawBytes](msgpack.StructMap(msgpack.DefaultConfig{}))
func WithExt[P any, PP ExtPayload[P], C Config](inner C) ExtConfig[C, P, PP] {
	return ExtConfig[C, P, PP]{inner: inner}
}

func (c ExtConfig[C, P, PP]) String() string {
	return fmt.Sprintf("Ext[%s](%s)", reflect.TypeOf((*P)(nil)).Elem(), c.inner.String())
}

func (c ExtConfig[C, P, PP]) writeStructLen(e *Encoder, n int) error {
	return c.inner.writeStructLen(e, n)
}

func (c ExtConfig[C, P, PP]) writeStructField(e *Encoder, key string, v reflect.Value) error {
	return c.inner.writeStructField(e, key, v)
}

func (c ExtConfig[C, P, PP]) writeVariantIdent(e *Encoder, index uint32, name string) error {
	return c.inner.writeVariantIdent(e, index, name)
}

func (c ExtConfig[C, P, PP]) isHumanReadable() bool { return c.inner.isHumanReadable() }

func (c ExtConfig[C, P, PP]) writeExt(e *Encoder, v reflect.Value) (bool, error) {
	if v.Type() != reflect.TypeOf(Ext[P]{}) {
		return c.inner.writeExt(e, v)
	}
	env := v.Interface().(Ext[P])
	payload, err := PP(&env.Data).MarshalBinary()
	if err != nil {
		return true, &EncodingError{Type: v.Type().String(), Reason: "marshal extension payload", Err: err}
	}
	return true, e.w.WriteExt(env.Type, payload)
}

func (c ExtConfig[C, P, PP]) tryReadExt(d *Decoder, m wire.Marker, want reflect.Type) (any, bool, error) {
	if !m.IsExt() || (want != nil && want != reflect.TypeOf(Ext[P]{})) {
		return c.inner.tryReadExt(d, m, want)
	}
	typ, payload, err := d.r.ReadExt()
	if err != nil {
		return nil, true, err
	}
	var data P
	if err := PP(&data).UnmarshalBinary(payload); err != nil {
		return nil, true, &DecodingError{Type: reflect.TypeOf(Ext[P]{}).String(), Reason: "unmarshal extension payload", Err: err}
	}
	return Ext[P]{Type: typ, Data: data}, true, nil
}
