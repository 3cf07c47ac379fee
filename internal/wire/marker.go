package wire

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Marker classifies the leading byte of an encoded MessagePack value.
// Fixed-size families (positive/negative fixint, fixmap, fixarray, fixstr)
// collapse to a single Marker; the length or value carried in the low bits
// is not part of the classification.
type Marker uint8

const (
	Reserved Marker = iota
	Nil
	False
	True
	PosFixInt
	NegFixInt
	Uint8
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	FixStr
	Str8
	Str16
	Str32
	Bin8
	Bin16
	Bin32
	FixArray
	Array16
	Array32
	FixMap
	Map16
	Map32
	FixExt1
	FixExt2
	FixExt4
	FixExt8
	FixExt16
	Ext8
	Ext16
	Ext32
)

// MarkerOf classifies the first byte of an encoded value.
func MarkerOf(c byte) Marker {
	switch {
	case c <= msgpcode.PosFixedNumHigh:
		return PosFixInt
	case c >= msgpcode.NegFixedNumLow:
		return NegFixInt
	case c >= msgpcode.FixedMapLow && c <= msgpcode.FixedMapHigh:
		return FixMap
	case c >= msgpcode.FixedArrayLow && c <= msgpcode.FixedArrayHigh:
		return FixArray
	case c >= msgpcode.FixedStrLow && c <= msgpcode.FixedStrHigh:
		return FixStr
	}

	switch c {
	case msgpcode.Nil:
		return Nil
	case msgpcode.False:
		return False
	case msgpcode.True:
		return True
	case msgpcode.Uint8:
		return Uint8
	case msgpcode.Uint16:
		return Uint16
	case msgpcode.Uint32:
		return Uint32
	case msgpcode.Uint64:
		return Uint64
	case msgpcode.Int8:
		return Int8
	case msgpcode.Int16:
		return Int16
	case msgpcode.Int32:
		return Int32
	case msgpcode.Int64:
		return Int64
	case msgpcode.Float:
		return Float32
	case msgpcode.Double:
		return Float64
	case msgpcode.Str8:
		return Str8
	case msgpcode.Str16:
		return Str16
	case msgpcode.Str32:
		return Str32
	case msgpcode.Bin8:
		return Bin8
	case msgpcode.Bin16:
		return Bin16
	case msgpcode.Bin32:
		return Bin32
	case msgpcode.Array16:
		return Array16
	case msgpcode.Array32:
		return Array32
	case msgpcode.Map16:
		return Map16
	case msgpcode.Map32:
		return Map32
	case msgpcode.FixExt1:
		return FixExt1
	case msgpcode.FixExt2:
		return FixExt2
	case msgpcode.FixExt4:
		return FixExt4
	case msgpcode.FixExt8:
		return FixExt8
	case msgpcode.FixExt16:
		return FixExt16
	case msgpcode.Ext8:
		return Ext8
	case msgpcode.Ext16:
		return Ext16
	case msgpcode.Ext32:
		return Ext32
	}
	// 0xc1 is the only byte the format never assigns.
	return Reserved
}

// IsExt reports whether m belongs to the extension family: the five
// fixed-size FixExt markers and the three length-prefixed Ext markers.
func (m Marker) IsExt() bool {
	return m >= FixExt1 && m <= Ext32
}

func (m Marker) IsArray() bool { return m == FixArray || m == Array16 || m == Array32 }

func (m Marker) IsMap() bool { return m == FixMap || m == Map16 || m == Map32 }

func (m Marker) IsStr() bool { return m >= FixStr && m <= Str32 }

func (m Marker) IsBin() bool { return m >= Bin8 && m <= Bin32 }

func (m Marker) IsNil() bool { return m == Nil }

func (m Marker) IsBool() bool { return m == False || m == True }

func (m Marker) IsFloat() bool { return m == Float32 || m == Float64 }

// IsInt reports whether m carries an integer of either signedness.
func (m Marker) IsInt() bool { return m >= PosFixInt && m <= Int64 }

// IsUnsigned reports whether m carries an integer that was written through
// one of the unsigned markers. A positive fixint counts as signed because
// encoders emit it for small values of either signedness.
func (m Marker) IsUnsigned() bool { return m >= Uint8 && m <= Uint64 }

var markerNames = [...]string{
	Reserved:  "Reserved",
	Nil:       "Nil",
	False:     "False",
	True:      "True",
	PosFixInt: "PosFixInt",
	NegFixInt: "NegFixInt",
	Uint8:     "Uint8",
	Uint16:    "Uint16",
	Uint32:    "Uint32",
	Uint64:    "Uint64",
	Int8:      "Int8",
	Int16:     "Int16",
	Int32:     "Int32",
	Int64:     "Int64",
	Float32:   "Float32",
	Float64:   "Float64",
	FixStr:    "FixStr",
	Str8:      "Str8",
	Str16:     "Str16",
	Str32:     "Str32",
	Bin8:      "Bin8",
	Bin16:     "Bin16",
	Bin32:     "Bin32",
	FixArray:  "FixArray",
	Array16:   "Array16",
	Array32:   "Array32",
	FixMap:    "FixMap",
	Map16:     "Map16",
	Map32:     "Map32",
	FixExt1:   "FixExt1",
	FixExt2:   "FixExt2",
	FixExt4:   "FixExt4",
	FixExt8:   "FixExt8",
	FixExt16:  "FixExt16",
	Ext8:      "Ext8",
	Ext16:     "Ext16",
	Ext32:     "Ext32",
}

// String converts a Marker to a human-readable name.
// Useful for diagnostics, pretty-printing and error messages.
func (m Marker) String() string {
	if int(m) < len(markerNames) {
		return markerNames[m]
	}
	return fmt.Sprintf("UnknownMarker(%d)", uint8(m))
}
