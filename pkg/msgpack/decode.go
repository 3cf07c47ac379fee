package msgpack

import (
	"encoding"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"time"

	"github.com/Volkalex28/msgpack-go/internal/wire"
)

// Marker classifies the leading byte of an encoded value.
type Marker = wire.Marker

// CustomDecoder lets a type bypass reflection and read itself.
type CustomDecoder interface {
	DecodeMsgpack(d *Decoder) error
}

// allocLimit caps how many elements a container is sized for before they
// arrive. Longer containers grow as their elements decode, so a length
// header is never trusted beyond the input behind it.
const allocLimit = 1 << 12

var (
	customDecoderType     = reflect.TypeOf((*CustomDecoder)(nil)).Elem()
	binaryUnmarshalerType = reflect.TypeOf((*encoding.BinaryUnmarshaler)(nil)).Elem()
	textUnmarshalerType   = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Decoder reads MessagePack values into Go values. Decoding is driven by
// the markers on the wire: a record arrives as an array (matched to fields
// by position) or as a map (matched by name) depending on what the encoder's
// Config chose. The Decoder's own Config answers IsHumanReadable and gets
// the first chance at every extension marker.
type Decoder struct {
	r   *wire.Reader
	cfg Config
}

// NewDecoder returns a Decoder reading from r. A nil cfg means DefaultConfig.
func NewDecoder(r io.Reader, cfg Config) *Decoder {
	if cfg == nil {
		cfg = DefaultConfig{}
	}
	return &Decoder{r: wire.NewReader(r), cfg: cfg}
}

// Config returns the config the Decoder consults.
func (d *Decoder) Config() Config {
	return d.cfg
}

// IsHumanReadable reports whether the Config asks for legible renderings.
func (d *Decoder) IsHumanReadable() bool {
	return d.cfg.isHumanReadable()
}

// BytesRead returns the number of bytes consumed so far.
func (d *Decoder) BytesRead() int {
	return d.r.BytesRead()
}

// PeekMarker classifies the next value without consuming it.
func (d *Decoder) PeekMarker() (Marker, error) {
	return d.r.PeekMarker()
}

// Decode reads the next value into the value pointed to by v.
func (d *Decoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrInvalidPointer
	}
	return d.decodeValue(rv.Elem())
}

// DecodeInterface reads the next value into its natural Go type.
func (d *Decoder) DecodeInterface() (any, error) {
	return d.decodeInterface()
}

// DecodeArrayLen reads an array header. A nil value yields -1.
func (d *Decoder) DecodeArrayLen() (int, error) {
	return d.r.ReadArrayLen()
}

// DecodeMapLen reads a map header. A nil value yields -1.
func (d *Decoder) DecodeMapLen() (int, error) {
	return d.r.ReadMapLen()
}

// Skip consumes the next value.
func (d *Decoder) Skip() error {
	return d.r.Skip()
}

func unexpected(t reflect.Type, m wire.Marker) error {
	return &DecodingError{Type: t.String(), Reason: fmt.Sprintf("cannot decode %s", m), Err: ErrUnexpectedMarker}
}

func (d *Decoder) decodeValue(v reflect.Value) error {
	t := v.Type()
	m, err := d.r.PeekMarker()
	if err != nil {
		return err
	}

	if v.CanAddr() && reflect.PointerTo(t).Implements(customDecoderType) {
		return v.Addr().Interface().(CustomDecoder).DecodeMsgpack(d)
	}

	switch v.Kind() {
	case reflect.Pointer:
		if m == wire.Nil {
			v.SetZero()
			return d.r.ReadNil()
		}
		if v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		return d.decodeValue(v.Elem())
	case reflect.Interface:
		if m == wire.Nil {
			v.SetZero()
			return d.r.ReadNil()
		}
		if !v.IsNil() && v.Elem().Kind() == reflect.Pointer && !v.Elem().IsNil() {
			return d.decodeValue(v.Elem().Elem())
		}
		x, err := d.decodeInterface()
		if err != nil {
			return err
		}
		xv := reflect.ValueOf(x)
		if !xv.Type().AssignableTo(t) {
			return &DecodingError{Type: t.String(), Reason: fmt.Sprintf("decoded %s does not implement it", xv.Type()), Err: ErrUnsupportedType}
		}
		v.Set(xv)
		return nil
	}

	if t.Implements(extEnvelopeType) && m.IsExt() {
		return d.decodeExtInto(v, m)
	}

	switch t {
	case variantType:
		return d.decodeVariant(v, m)
	case timeType:
		return d.decodeTime(v, m)
	case bigIntType:
		return d.decodeBigInt(v, m)
	}

	ptr := reflect.PointerTo(t)
	if m.IsBin() && ptr.Implements(binaryUnmarshalerType) {
		b, err := d.r.ReadBytes()
		if err != nil {
			return err
		}
		if err := v.Addr().Interface().(encoding.BinaryUnmarshaler).UnmarshalBinary(b); err != nil {
			return &DecodingError{Type: t.String(), Reason: "UnmarshalBinary", Err: err}
		}
		return nil
	}
	if m.IsStr() && ptr.Implements(textUnmarshalerType) {
		s, err := d.r.ReadString()
		if err != nil {
			return err
		}
		if err := v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return &DecodingError{Type: t.String(), Reason: "UnmarshalText", Err: err}
		}
		return nil
	}

	if m == wire.Nil {
		v.SetZero()
		return d.r.ReadNil()
	}

	switch v.Kind() {
	case reflect.Bool:
		if !m.IsBool() {
			return unexpected(t, m)
		}
		b, err := d.r.ReadBool()
		if err != nil {
			return err
		}
		v.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := d.readInt(t, m)
		if err != nil {
			return err
		}
		if v.OverflowInt(n) {
			return &DecodingError{Type: t.String(), Reason: fmt.Sprintf("%d out of range", n), Err: ErrOverflow}
		}
		v.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := d.readUint(t, m)
		if err != nil {
			return err
		}
		if v.OverflowUint(n) {
			return &DecodingError{Type: t.String(), Reason: fmt.Sprintf("%d out of range", n), Err: ErrOverflow}
		}
		v.SetUint(n)
		return nil
	case reflect.Float32, reflect.Float64:
		if !m.IsFloat() && !m.IsInt() {
			return unexpected(t, m)
		}
		f, err := d.r.ReadFloat64()
		if err != nil {
			return err
		}
		v.SetFloat(f)
		return nil
	case reflect.String:
		s, err := d.readText(t, m)
		if err != nil {
			return err
		}
		v.SetString(s)
		return nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && (m.IsBin() || m.IsStr()) {
			b, err := d.readBinary(t, m)
			if err != nil {
				return err
			}
			v.SetBytes(b)
			return nil
		}
		return d.decodeSlice(v, m)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 && (m.IsBin() || m.IsStr()) {
			b, err := d.readBinary(t, m)
			if err != nil {
				return err
			}
			reflect.Copy(v, reflect.ValueOf(b))
			return nil
		}
		return d.decodeArray(v, m)
	case reflect.Map:
		return d.decodeMap(v, m)
	case reflect.Struct:
		return d.decodeStruct(v, m)
	}
	return &DecodingError{Type: t.String(), Reason: "no MessagePack representation", Err: ErrUnsupportedType}
}

func (d *Decoder) readInt(t reflect.Type, m wire.Marker) (int64, error) {
	switch {
	case m.IsUnsigned():
		u, err := d.r.ReadUint()
		if err != nil {
			return 0, err
		}
		if u > math.MaxInt64 {
			return 0, &DecodingError{Type: t.String(), Reason: fmt.Sprintf("%d out of range", u), Err: ErrOverflow}
		}
		return int64(u), nil
	case m.IsInt():
		return d.r.ReadInt()
	}
	return 0, unexpected(t, m)
}

func (d *Decoder) readUint(t reflect.Type, m wire.Marker) (uint64, error) {
	switch {
	case m.IsUnsigned():
		return d.r.ReadUint()
	case m.IsInt():
		n, err := d.r.ReadInt()
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, &DecodingError{Type: t.String(), Reason: fmt.Sprintf("%d out of range", n), Err: ErrOverflow}
		}
		return uint64(n), nil
	}
	return 0, unexpected(t, m)
}

func (d *Decoder) readText(t reflect.Type, m wire.Marker) (string, error) {
	switch {
	case m.IsStr():
		return d.r.ReadString()
	case m.IsBin():
		b, err := d.r.ReadBytes()
		return string(b), err
	}
	return "", unexpected(t, m)
}

func (d *Decoder) readBinary(t reflect.Type, m wire.Marker) ([]byte, error) {
	switch {
	case m.IsBin():
		return d.r.ReadBytes()
	case m.IsStr():
		s, err := d.r.ReadString()
		return []byte(s), err
	}
	return nil, unexpected(t, m)
}

func (d *Decoder) decodeSlice(v reflect.Value, m wire.Marker) error {
	t := v.Type()
	if !m.IsArray() {
		return unexpected(t, m)
	}
	n, err := d.r.ReadArrayLen()
	if err != nil {
		return err
	}
	s := reflect.MakeSlice(t, 0, min(n, allocLimit))
	zero := reflect.Zero(t.Elem())
	for i := 0; i < n; i++ {
		s = reflect.Append(s, zero)
		if err := d.decodeValue(s.Index(i)); err != nil {
			return err
		}
	}
	v.Set(s)
	return nil
}

// decodeArray fills a fixed-size array. Surplus wire elements are skipped
// and missing ones leave the zero value.
func (d *Decoder) decodeArray(v reflect.Value, m wire.Marker) error {
	if !m.IsArray() {
		return unexpected(v.Type(), m)
	}
	n, err := d.r.ReadArrayLen()
	if err != nil {
		return err
	}
	v.SetZero()
	for i := 0; i < n; i++ {
		if i >= v.Len() {
			if err := d.r.Skip(); err != nil {
				return err
			}
			continue
		}
		if err := d.decodeValue(v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeMap(v reflect.Value, m wire.Marker) error {
	t := v.Type()
	if !m.IsMap() {
		return unexpected(t, m)
	}
	n, err := d.r.ReadMapLen()
	if err != nil {
		return err
	}
	if v.IsNil() {
		v.Set(reflect.MakeMapWithSize(t, min(n, allocLimit)))
	}
	for i := 0; i < n; i++ {
		key := reflect.New(t.Key()).Elem()
		if err := d.decodeValue(key); err != nil {
			return err
		}
		elem := reflect.New(t.Elem()).Elem()
		if err := d.decodeValue(elem); err != nil {
			return err
		}
		v.SetMapIndex(key, elem)
	}
	return nil
}

// decodeStruct accepts both record shapes: an array assigns fields in
// declaration order, a map assigns them by name. Unknown names and surplus
// elements are skipped.
func (d *Decoder) decodeStruct(v reflect.Value, m wire.Marker) error {
	fields := structFields(v.Type())
	switch {
	case m.IsArray():
		n, err := d.r.ReadArrayLen()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if i >= len(fields) {
				if err := d.r.Skip(); err != nil {
					return err
				}
				continue
			}
			if err := d.decodeValue(v.Field(fields[i].index)); err != nil {
				return err
			}
		}
		return nil
	case m.IsMap():
		n, err := d.r.ReadMapLen()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			km, err := d.r.PeekMarker()
			if err != nil {
				return err
			}
			if !km.IsStr() {
				if err := d.r.Skip(); err != nil {
					return err
				}
				if err := d.r.Skip(); err != nil {
					return err
				}
				continue
			}
			name, err := d.r.ReadString()
			if err != nil {
				return err
			}
			f, ok := lookupField(fields, name)
			if !ok {
				if err := d.r.Skip(); err != nil {
					return err
				}
				continue
			}
			if err := d.decodeValue(v.Field(f.index)); err != nil {
				return err
			}
		}
		return nil
	}
	return unexpected(v.Type(), m)
}

// decodeExtInto handles an extension marker met while decoding into an
// Ext[Q] target. The config layer for Q, if any, claims the marker; an
// unclaimed marker is read raw and its payload handed to Q.
func (d *Decoder) decodeExtInto(v reflect.Value, m wire.Marker) error {
	t := v.Type()
	x, handled, err := d.cfg.tryReadExt(d, m, t)
	if err != nil {
		return err
	}
	if handled {
		v.Set(reflect.ValueOf(x))
		return nil
	}

	typ, payload, err := d.r.ReadExt()
	if err != nil {
		return err
	}
	v.Field(0).SetInt(int64(typ))
	data := v.Field(1)
	if u, ok := data.Addr().Interface().(encoding.BinaryUnmarshaler); ok {
		if err := u.UnmarshalBinary(payload); err != nil {
			return &DecodingError{Type: t.String(), Reason: "unmarshal extension payload", Err: err}
		}
		return nil
	}
	if data.Kind() == reflect.Slice && data.Type().Elem().Kind() == reflect.Uint8 {
		data.SetBytes(payload)
		return nil
	}
	log().Debug().
		Str("marker", m.String()).
		Str("config", d.cfg.String()).
		Str("target", t.String()).
		Msg("extension payload type mismatch")
	return &DecodingError{Type: t.String(), Reason: fmt.Sprintf("%s has no binary form", data.Type()), Err: ErrExtMismatch}
}

func (d *Decoder) readVariantTag(out *Variant) error {
	m, err := d.r.PeekMarker()
	if err != nil {
		return err
	}
	switch {
	case m.IsStr():
		out.Name, err = d.r.ReadString()
		return err
	case m.IsInt():
		idx, err := d.readUint(variantType, m)
		if err != nil {
			return err
		}
		if idx > math.MaxUint32 {
			return &DecodingError{Type: variantType.String(), Reason: fmt.Sprintf("index %d out of range", idx), Err: ErrOverflow}
		}
		out.Index = uint32(idx)
		return nil
	}
	return unexpected(variantType, m)
}

// decodeVariant reads a unit variant (a bare tag) or a one-entry map from
// tag to payload. When the target already holds a non-nil pointer in
// Value, the payload is decoded into it; otherwise Value receives the
// payload's natural Go type.
func (d *Decoder) decodeVariant(v reflect.Value, m wire.Marker) error {
	prev := v.Interface().(Variant)
	var out Variant
	if !m.IsMap() {
		if err := d.readVariantTag(&out); err != nil {
			return err
		}
		v.Set(reflect.ValueOf(out))
		return nil
	}

	n, err := d.r.ReadMapLen()
	if err != nil {
		return err
	}
	if n != 1 {
		return &DecodingError{Type: variantType.String(), Reason: fmt.Sprintf("variant map has %d entries, want 1", n), Err: ErrUnexpectedMarker}
	}
	if err := d.readVariantTag(&out); err != nil {
		return err
	}
	if target := reflect.ValueOf(prev.Value); target.Kind() == reflect.Pointer && !target.IsNil() {
		if err := d.decodeValue(target.Elem()); err != nil {
			return err
		}
		out.Value = prev.Value
	} else {
		if out.Value, err = d.decodeInterface(); err != nil {
			return err
		}
	}
	v.Set(reflect.ValueOf(out))
	return nil
}

func (d *Decoder) decodeTime(v reflect.Value, m wire.Marker) error {
	switch {
	case m.IsStr():
		s, err := d.r.ReadString()
		if err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return &DecodingError{Type: timeType.String(), Reason: "parse RFC 3339", Err: err}
		}
		v.Set(reflect.ValueOf(t))
		return nil
	case m.IsArray():
		n, err := d.r.ReadArrayLen()
		if err != nil {
			return err
		}
		if n != 2 {
			return &DecodingError{Type: timeType.String(), Reason: fmt.Sprintf("time array has %d elements, want 2", n), Err: ErrUnexpectedMarker}
		}
		sec, err := d.r.ReadInt()
		if err != nil {
			return err
		}
		nsec, err := d.r.ReadInt()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(time.Unix(sec, nsec).UTC()))
		return nil
	}
	return unexpected(timeType, m)
}

func (d *Decoder) decodeBigInt(v reflect.Value, m wire.Marker) error {
	n := v.Addr().Interface().(*big.Int)
	switch {
	case m.IsStr():
		s, err := d.r.ReadString()
		if err != nil {
			return err
		}
		if _, ok := n.SetString(s, 10); !ok {
			return &DecodingError{Type: bigIntType.String(), Reason: fmt.Sprintf("invalid decimal %q", s), Err: ErrUnexpectedMarker}
		}
		return nil
	case m.IsBin():
		b, err := d.r.ReadBytes()
		if err != nil {
			return err
		}
		if len(b) == 0 {
			return &DecodingError{Type: bigIntType.String(), Reason: "empty magnitude", Err: ErrUnexpectedMarker}
		}
		n.SetBytes(b[1:])
		if b[0] == bigIntNegative {
			n.Neg(n)
		}
		return nil
	case m.IsUnsigned():
		u, err := d.r.ReadUint()
		if err != nil {
			return err
		}
		n.SetUint64(u)
		return nil
	case m.IsInt():
		i, err := d.r.ReadInt()
		if err != nil {
			return err
		}
		n.SetInt64(i)
		return nil
	}
	return unexpected(bigIntType, m)
}

func (d *Decoder) decodeInterface() (any, error) {
	m, err := d.r.PeekMarker()
	if err != nil {
		return nil, err
	}
	if m.IsExt() {
		x, handled, err := d.cfg.tryReadExt(d, m, nil)
		if err != nil {
			return nil, err
		}
		if handled {
			return x, nil
		}
		log().Debug().
			Str("marker", m.String()).
			Str("config", d.cfg.String()).
			Msg("extension marker not claimed, decoding as RawExt")
		typ, payload, err := d.r.ReadExt()
		if err != nil {
			return nil, err
		}
		return RawExt{Type: typ, Data: payload}, nil
	}

	switch {
	case m.IsNil():
		return nil, d.r.ReadNil()
	case m.IsBool():
		return d.r.ReadBool()
	case m.IsUnsigned():
		return d.r.ReadUint()
	case m.IsInt():
		return d.r.ReadInt()
	case m == wire.Float32:
		return d.r.ReadFloat32()
	case m == wire.Float64:
		return d.r.ReadFloat64()
	case m.IsStr():
		return d.r.ReadString()
	case m.IsBin():
		return d.r.ReadBytes()
	case m.IsArray():
		n, err := d.r.ReadArrayLen()
		if err != nil {
			return nil, err
		}
		items := make([]any, 0, min(n, allocLimit))
		for i := 0; i < n; i++ {
			item, err := d.decodeInterface()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case m.IsMap():
		return d.decodeMapInterface()
	}
	return nil, &DecodingError{Type: "interface {}", Reason: fmt.Sprintf("cannot decode %s", m), Err: ErrUnexpectedMarker}
}

// decodeMapInterface produces map[string]any when every key is a string
// and map[any]any otherwise. Bin keys become strings so they stay
// hashable.
func (d *Decoder) decodeMapInterface() (any, error) {
	n, err := d.r.ReadMapLen()
	if err != nil {
		return nil, err
	}
	keys := make([]any, 0, min(n, allocLimit))
	values := make([]any, 0, min(n, allocLimit))
	allStrings := true
	for i := 0; i < n; i++ {
		k, err := d.decodeInterface()
		if err != nil {
			return nil, err
		}
		if b, ok := k.([]byte); ok {
			k = string(b)
		}
		if k != nil && !reflect.TypeOf(k).Comparable() {
			return nil, &DecodingError{Type: "map[interface {}]interface {}", Reason: fmt.Sprintf("unhashable key of type %T", k), Err: ErrUnsupportedType}
		}
		if _, ok := k.(string); !ok {
			allStrings = false
		}
		val, err := d.decodeInterface()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		values = append(values, val)
	}
	if allStrings {
		out := make(map[string]any, len(keys))
		for i, k := range keys {
			out[k.(string)] = values[i]
		}
		return out, nil
	}
	out := make(map[any]any, len(keys))
	for i, k := range keys {
		out[k] = values[i]
	}
	return out, nil
}
