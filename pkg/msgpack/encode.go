package msgpack

import (
	"cmp"
	"encoding"
	"fmt"
	"io"
	"math/big"
	"reflect"
	"slices"
	"time"

	"github.com/Volkalex28/msgpack-go/internal/wire"
)

// CustomEncoder lets a type bypass reflection and write itself. The
// Encoder's public methods route record and union shapes through the
// active Config, so a custom encoding still honors it.
type CustomEncoder interface {
	EncodeMsgpack(e *Encoder) error
}

var (
	customEncoderType   = reflect.TypeOf((*CustomEncoder)(nil)).Elem()
	binaryMarshalerType = reflect.TypeOf((*encoding.BinaryMarshaler)(nil)).Elem()
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	variantType         = reflect.TypeOf(Variant{})
	timeType            = reflect.TypeOf(time.Time{})
	bigIntType          = reflect.TypeOf(big.Int{})
)

// Encoder walks Go values and writes them as MessagePack, consulting its
// Config for record shape, union tags, extension values and the
// human-readable flag. An Encoder owns its writer and is not safe for
// concurrent use; the Config it holds may be shared freely.
type Encoder struct {
	w   *wire.Writer
	cfg Config
}

// NewEncoder returns an Encoder writing to w. A nil cfg means DefaultConfig.
func NewEncoder(w io.Writer, cfg Config) *Encoder {
	if cfg == nil {
		cfg = DefaultConfig{}
	}
	return &Encoder{w: wire.NewWriter(w), cfg: cfg}
}

// Config returns the config the Encoder consults.
func (e *Encoder) Config() Config {
	return e.cfg
}

// IsHumanReadable reports whether types with two renderings should use the
// legible one.
func (e *Encoder) IsHumanReadable() bool {
	return e.cfg.isHumanReadable()
}

// BytesWritten returns the number of bytes accepted by the underlying writer.
func (e *Encoder) BytesWritten() int {
	return e.w.BytesWritten()
}

// Encode writes v.
func (e *Encoder) Encode(v any) error {
	return e.encodeValue(reflect.ValueOf(v))
}

// EncodeStructLen opens a record of n fields in the shape the Config
// chooses. It must be followed by exactly n calls to EncodeStructField.
func (e *Encoder) EncodeStructLen(n int) error {
	return e.cfg.writeStructLen(e, n)
}

// EncodeStructField writes one record field in the shape the Config
// chooses.
func (e *Encoder) EncodeStructField(key string, v any) error {
	return e.cfg.writeStructField(e, key, reflect.ValueOf(v))
}

// EncodeVariant writes the tag of a tagged union value as the Config
// chooses. For a variant with a payload, open a one-entry map first and
// write the payload after the tag.
func (e *Encoder) EncodeVariant(index uint32, name string) error {
	return e.cfg.writeVariantIdent(e, index, name)
}

// EncodeArrayLen writes the header of an array with n elements.
func (e *Encoder) EncodeArrayLen(n int) error {
	return e.w.WriteArrayLen(n)
}

// EncodeMapLen writes the header of a map with n key/value pairs.
func (e *Encoder) EncodeMapLen(n int) error {
	return e.w.WriteMapLen(n)
}

// EncodeNil writes nil.
func (e *Encoder) EncodeNil() error {
	return e.w.WriteNil()
}

func (e *Encoder) encodeValue(v reflect.Value) error {
	if !v.IsValid() {
		return e.w.WriteNil()
	}
	t := v.Type()

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return e.w.WriteNil()
		}
		if t.Implements(customEncoderType) {
			return v.Interface().(CustomEncoder).EncodeMsgpack(e)
		}
		return e.encodeValue(v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			return e.w.WriteNil()
		}
		return e.encodeValue(v.Elem())
	}

	if t.Implements(extEnvelopeType) {
		handled, err := e.cfg.writeExt(e, v)
		if handled || err != nil {
			return err
		}
	}

	if c, ok := methodTarget(v, customEncoderType); ok {
		return c.(CustomEncoder).EncodeMsgpack(e)
	}

	switch t {
	case variantType:
		return e.encodeVariant(v.Interface().(Variant))
	case timeType:
		return e.encodeTime(v.Interface().(time.Time))
	case bigIntType:
		var n *big.Int
		if v.CanAddr() {
			n = v.Addr().Interface().(*big.Int)
		} else {
			tmp := v.Interface().(big.Int)
			n = &tmp
		}
		return e.encodeBigInt(n)
	}

	text, isText := methodTarget(v, textMarshalerType)
	if isText && e.cfg.isHumanReadable() {
		return e.encodeText(t, text.(encoding.TextMarshaler))
	}
	if bin, ok := methodTarget(v, binaryMarshalerType); ok {
		b, err := bin.(encoding.BinaryMarshaler).MarshalBinary()
		if err != nil {
			return &EncodingError{Type: t.String(), Reason: "MarshalBinary", Err: err}
		}
		return e.w.WriteBytes(b)
	}
	if isText {
		return e.encodeText(t, text.(encoding.TextMarshaler))
	}

	switch v.Kind() {
	case reflect.Bool:
		return e.w.WriteBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.w.WriteInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.w.WriteUint(v.Uint())
	case reflect.Float32:
		return e.w.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		return e.w.WriteFloat64(v.Float())
	case reflect.String:
		return e.w.WriteString(v.String())
	case reflect.Slice:
		if v.IsNil() {
			return e.w.WriteNil()
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return e.w.WriteBytes(v.Bytes())
		}
		return e.encodeSeq(v)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return e.w.WriteBytes(b)
		}
		return e.encodeSeq(v)
	case reflect.Map:
		if v.IsNil() {
			return e.w.WriteNil()
		}
		return e.encodeMap(v)
	case reflect.Struct:
		return e.encodeStruct(v)
	}
	return &EncodingError{Type: t.String(), Reason: "no MessagePack representation", Err: ErrUnsupportedType}
}

func (e *Encoder) encodeSeq(v reflect.Value) error {
	n := v.Len()
	if err := e.w.WriteArrayLen(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := e.encodeValue(v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// encodeMap writes map entries sorted by key so equal maps encode to
// equal bytes.
func (e *Encoder) encodeMap(v reflect.Value) error {
	keys := v.MapKeys()
	slices.SortFunc(keys, compareKeys)
	if err := e.w.WriteMapLen(len(keys)); err != nil {
		return err
	}
	for _, k := range keys {
		if err := e.encodeValue(k); err != nil {
			return err
		}
		if err := e.encodeValue(v.MapIndex(k)); err != nil {
			return err
		}
	}
	return nil
}

func compareKeys(a, b reflect.Value) int {
	if a.Kind() == reflect.Interface {
		a = a.Elem()
	}
	if b.Kind() == reflect.Interface {
		b = b.Elem()
	}
	if a.Kind() == b.Kind() {
		switch a.Kind() {
		case reflect.String:
			return cmp.Compare(a.String(), b.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return cmp.Compare(a.Int(), b.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return cmp.Compare(a.Uint(), b.Uint())
		case reflect.Float32, reflect.Float64:
			return cmp.Compare(a.Float(), b.Float())
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func (e *Encoder) encodeStruct(v reflect.Value) error {
	fields := structFields(v.Type())
	if err := e.cfg.writeStructLen(e, len(fields)); err != nil {
		return err
	}
	for _, f := range fields {
		if err := e.cfg.writeStructField(e, f.name, v.Field(f.index)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeVariant(v Variant) error {
	if v.IsUnit() {
		return e.cfg.writeVariantIdent(e, v.Index, v.Name)
	}
	if err := e.w.WriteMapLen(1); err != nil {
		return err
	}
	if err := e.cfg.writeVariantIdent(e, v.Index, v.Name); err != nil {
		return err
	}
	return e.Encode(v.Value)
}

// encodeTime writes RFC 3339 text in human-readable mode and a
// [unix seconds, nanoseconds] pair otherwise.
func (e *Encoder) encodeTime(t time.Time) error {
	if e.cfg.isHumanReadable() {
		return e.w.WriteString(t.Format(time.RFC3339Nano))
	}
	if err := e.w.WriteArrayLen(2); err != nil {
		return err
	}
	if err := e.w.WriteInt(t.Unix()); err != nil {
		return err
	}
	return e.w.WriteUint(uint64(t.Nanosecond()))
}

const (
	bigIntPositive byte = 0
	bigIntNegative byte = 1
)

// encodeBigInt writes decimal text in human-readable mode and a bin of
// sign byte followed by the big-endian magnitude otherwise.
func (e *Encoder) encodeBigInt(n *big.Int) error {
	if e.cfg.isHumanReadable() {
		return e.w.WriteString(n.String())
	}
	sign := bigIntPositive
	if n.Sign() < 0 {
		sign = bigIntNegative
	}
	return e.w.WriteBytes(append([]byte{sign}, n.Bytes()...))
}

func (e *Encoder) encodeText(t reflect.Type, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return &EncodingError{Type: t.String(), Reason: "MarshalText", Err: err}
	}
	return e.w.WriteString(string(text))
}

// methodTarget returns v, or its address when only the pointer type has
// the methods, as a value implementing iface.
func methodTarget(v reflect.Value, iface reflect.Type) (any, bool) {
	if v.Type().Implements(iface) {
		return v.Interface(), true
	}
	if v.CanAddr() && reflect.PointerTo(v.Type()).Implements(iface) {
		return v.Addr().Interface(), true
	}
	return nil, false
}
