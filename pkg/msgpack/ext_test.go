package msgpack

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Volkalex28/msgpack-go/internal/wire"
)

// stamp is a fixed four-byte extension payload.
type stamp uint32

func (s stamp) MarshalBinary() ([]byte, error) {
	return binary.BigEndian.AppendUint32(nil, uint32(s)), nil
}

func (s *stamp) UnmarshalBinary(p []byte) error {
	if len(p) != 4 {
		return fmt.Errorf("stamp: want 4 bytes, got %d", len(p))
	}
	*s = stamp(binary.BigEndian.Uint32(p))
	return nil
}

var errRefused = errors.New("refused")

type refusing struct{}

func (refusing) MarshalBinary() ([]byte, error) { return nil, errRefused }
func (*refusing) UnmarshalBinary([]byte) error { return errRefused }

func TestExtRoundTrip(t *testing.T) {
	cfg := WithExt[RawBytes](DefaultConfig{})
	in := RawExt{Type: 5, Data: RawBytes{1, 2, 3, 4}}

	var buf bytes.Buffer
	e := NewEncoder(&buf, cfg)
	handled, err := cfg.writeExt(e, valueOf(in))
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []byte{0xd6, 0x05, 1, 2, 3, 4}, buf.Bytes())

	d := NewDecoder(bytes.NewReader(buf.Bytes()), cfg)
	m, err := d.PeekMarker()
	require.NoError(t, err)
	assert.Equal(t, wire.FixExt4, m)

	got, handled, err := cfg.tryReadExt(d, m, reflect.TypeOf(in))
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, in, got)
	assert.Equal(t, buf.Len(), d.BytesRead())
}

func TestExtMarkerSizes(t *testing.T) {
	cfg := WithExt[RawBytes](DefaultConfig{})

	tests := []struct {
		size int
		want wire.Marker
	}{
		{1, wire.FixExt1},
		{2, wire.FixExt2},
		{3, wire.Ext8},
		{4, wire.FixExt4},
		{8, wire.FixExt8},
		{16, wire.FixExt16},
		{0, wire.Ext8},
		{300, wire.Ext16},
		{70000, wire.Ext32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d bytes", tt.size), func(t *testing.T) {
			in := RawExt{Type: -3, Data: bytes.Repeat([]byte{0xab}, tt.size)}

			b, err := MarshalWith(cfg, in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, wire.MarkerOf(b[0]))

			var out RawExt
			require.NoError(t, UnmarshalWith(cfg, b, &out))
			assert.Equal(t, in.Type, out.Type)
			assert.Equal(t, []byte(in.Data), []byte(out.Data))
		})
	}
}

func TestExtIgnoresNonExtMarker(t *testing.T) {
	cfg := WithExt[RawBytes](StructMap(DefaultConfig{}))

	b, err := Marshal("plain")
	require.NoError(t, err)

	d := NewDecoder(bytes.NewReader(b), cfg)
	m, err := d.PeekMarker()
	require.NoError(t, err)
	assert.True(t, m.IsStr())

	got, handled, err := cfg.tryReadExt(d, m, nil)
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Nil(t, got)
	assert.Equal(t, 0, d.BytesRead())

	var s string
	require.NoError(t, d.Decode(&s))
	assert.Equal(t, "plain", s)
}

func TestDefaultConfigExtHooksAreNoOps(t *testing.T) {
	in := RawExt{Type: 5, Data: RawBytes{1, 2, 3, 4}}

	var buf bytes.Buffer
	e := NewEncoder(&buf, DefaultConfig{})
	handled, err := DefaultConfig{}.writeExt(e, valueOf(in))
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Zero(t, e.BytesWritten())

	// The envelope falls through to the ordinary record encoding.
	b, err := Marshal(in)
	require.NoError(t, err)
	want, err := Marshal([]any{int8(5), []byte{1, 2, 3, 4}})
	require.NoError(t, err)
	assert.Equal(t, want, b)

	extBytes, err := MarshalWith(WithExt[RawBytes](DefaultConfig{}), in)
	require.NoError(t, err)

	for _, v := range [][]byte{b, extBytes, {0xc0}, {0xa1, 'x'}, {0x2a}} {
		d := NewDecoder(bytes.NewReader(v), DefaultConfig{})
		m, err := d.PeekMarker()
		require.NoError(t, err)

		got, handled, err := DefaultConfig{}.tryReadExt(d, m, nil)
		require.NoError(t, err)
		assert.False(t, handled, "marker %s", m)
		assert.Nil(t, got)
		assert.Equal(t, 0, d.BytesRead())
	}
}

func TestUnclaimedExtDecodesRaw(t *testing.T) {
	in := RawExt{Type: 9, Data: RawBytes{7, 7, 7}}
	b, err := MarshalWith(WithExt[RawBytes](DefaultConfig{}), in)
	require.NoError(t, err)

	var generic any
	require.NoError(t, Unmarshal(b, &generic))
	assert.Equal(t, in, generic)

	var typed RawExt
	require.NoError(t, Unmarshal(b, &typed))
	assert.Equal(t, in, typed)
}

func TestExtTypedPayload(t *testing.T) {
	cfg := WithExt[stamp](StructMap(DefaultConfig{}))

	type event struct {
		Name string     `msgpack:"name"`
		At   Ext[stamp] `msgpack:"at"`
	}
	in := event{Name: "boot", At: Ext[stamp]{Type: 1, Data: 0x01020304}}

	b, err := MarshalWith(cfg, in)
	require.NoError(t, err)
	assert.Contains(t, string(b), string([]byte{0xd6, 0x01, 1, 2, 3, 4}))

	var out event
	require.NoError(t, UnmarshalWith(cfg, b, &out))
	assert.Equal(t, in, out)

	var generic map[string]any
	require.NoError(t, UnmarshalWith(cfg, b, &generic))
	assert.Equal(t, Ext[stamp]{Type: 1, Data: 0x01020304}, generic["at"])
}

func TestStackedExtConfigs(t *testing.T) {
	cfg := WithExt[stamp](WithExt[RawBytes](DefaultConfig{}))

	raw := RawExt{Type: 2, Data: RawBytes{9, 9}}
	b, err := MarshalWith(cfg, raw)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xd5, 0x02, 9, 9}, b)

	var gotRaw RawExt
	require.NoError(t, UnmarshalWith(cfg, b, &gotRaw))
	assert.Equal(t, raw, gotRaw)

	st := Ext[stamp]{Type: 3, Data: 1}
	b, err = MarshalWith(cfg, st)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xd6, 0x03, 0, 0, 0, 1}, b)

	var gotStamp Ext[stamp]
	require.NoError(t, UnmarshalWith(cfg, b, &gotStamp))
	assert.Equal(t, st, gotStamp)

	type both struct {
		Raw   RawExt     `msgpack:"raw"`
		Stamp Ext[stamp] `msgpack:"stamp"`
	}
	in := both{Raw: raw, Stamp: st}
	b, err = MarshalWith(cfg, in)
	require.NoError(t, err)
	var out both
	require.NoError(t, UnmarshalWith(cfg, b, &out))
	assert.Equal(t, in, out)
}

func TestExtLayerPassesOtherEnvelopeTypes(t *testing.T) {
	cfg := WithExt[stamp](DefaultConfig{})
	b, err := MarshalWith(WithExt[RawBytes](DefaultConfig{}), RawExt{Type: 2, Data: RawBytes{9, 9}})
	require.NoError(t, err)

	d := NewDecoder(bytes.NewReader(b), cfg)
	m, err := d.PeekMarker()
	require.NoError(t, err)

	got, handled, err := cfg.tryReadExt(d, m, reflect.TypeOf(RawExt{}))
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Nil(t, got)
	assert.Equal(t, 0, d.BytesRead())

	var out RawExt
	require.NoError(t, d.Decode(&out))
	assert.Equal(t, RawExt{Type: 2, Data: RawBytes{9, 9}}, out)
}

func TestExtMismatchedPayloadType(t *testing.T) {
	t.Run("payload rejected", func(t *testing.T) {
		b, err := MarshalWith(WithExt[RawBytes](DefaultConfig{}), RawExt{Type: 1, Data: RawBytes{1, 2, 3}})
		require.NoError(t, err)

		var out any
		err = UnmarshalWith(WithExt[stamp](DefaultConfig{}), b, &out)
		require.Error(t, err)
		var decErr *DecodingError
		assert.ErrorAs(t, err, &decErr)
	})

	t.Run("target payload has no binary form", func(t *testing.T) {
		b, err := MarshalWith(WithExt[stamp](DefaultConfig{}), Ext[stamp]{Type: 1, Data: 42})
		require.NoError(t, err)

		var out Ext[int]
		err = UnmarshalWith(WithExt[stamp](DefaultConfig{}), b, &out)
		assert.ErrorIs(t, err, ErrExtMismatch)
	})

	t.Run("unmatched envelope delegates on encode", func(t *testing.T) {
		b, err := MarshalWith(WithExt[stamp](DefaultConfig{}), RawExt{Type: 1, Data: RawBytes{5}})
		require.NoError(t, err)
		assert.Equal(t, wire.FixArray, wire.MarkerOf(b[0]))
	})
}

func TestExtPayloadErrors(t *testing.T) {
	cfg := WithExt[refusing](DefaultConfig{})

	_, err := MarshalWith(cfg, Ext[refusing]{Type: 1})
	assert.ErrorIs(t, err, errRefused)
	var encErr *EncodingError
	assert.ErrorAs(t, err, &encErr)

	b, err := MarshalWith(WithExt[RawBytes](DefaultConfig{}), RawExt{Type: 1, Data: RawBytes{1}})
	require.NoError(t, err)

	d := NewDecoder(bytes.NewReader(b), cfg)
	m, err := d.PeekMarker()
	require.NoError(t, err)
	_, handled, err := cfg.tryReadExt(d, m, nil)
	assert.True(t, handled)
	assert.ErrorIs(t, err, errRefused)
}

func TestExtTruncatedPayload(t *testing.T) {
	cfg := WithExt[RawBytes](DefaultConfig{})

	d := NewDecoder(bytes.NewReader([]byte{0xd6, 0x01, 1, 2}), cfg)
	m, err := d.PeekMarker()
	require.NoError(t, err)

	_, handled, err := cfg.tryReadExt(d, m, nil)
	assert.True(t, handled)
	assert.Error(t, err)
}
