package msgpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructMapEncoding(t *testing.T) {
	cfg := StructMap(DefaultConfig{})

	b, err := MarshalWith(cfg, pair{A: 1, B: 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x82, 0xa1, 'a', 0x01, 0xa1, 'b', 0x02}, b)

	var got pair
	require.NoError(t, UnmarshalWith(cfg, b, &got))
	assert.Equal(t, pair{A: 1, B: 2}, got)

	var generic any
	require.NoError(t, UnmarshalWith(cfg, b, &generic))
	assert.Equal(t, map[string]any{"a": int64(1), "b": int64(2)}, generic)
}

func TestStructTupleEncoding(t *testing.T) {
	for _, cfg := range []Config{DefaultConfig{}, StructTuple(DefaultConfig{})} {
		t.Run(cfg.String(), func(t *testing.T) {
			b, err := MarshalWith(cfg, pair{A: 1, B: 2})
			require.NoError(t, err)
			assert.Equal(t, []byte{0x92, 0x01, 0x02}, b)

			var got pair
			require.NoError(t, UnmarshalWith(cfg, b, &got))
			assert.Equal(t, pair{A: 1, B: 2}, got)

			var generic any
			require.NoError(t, UnmarshalWith(cfg, b, &generic))
			assert.Equal(t, []any{int64(1), int64(2)}, generic)
		})
	}
}

func TestOutermostShapeWins(t *testing.T) {
	mapBytes, err := MarshalWith(StructMap(DefaultConfig{}), pair{A: 1, B: 2})
	require.NoError(t, err)
	tupleBytes, err := MarshalWith(StructTuple(DefaultConfig{}), pair{A: 1, B: 2})
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  Config
		want []byte
	}{
		{"map over tuple", StructMap(StructTuple(DefaultConfig{})), mapBytes},
		{"tuple over map", StructTuple(StructMap(DefaultConfig{})), tupleBytes},
		{"map over mode over tuple", StructMap(HumanReadable(StructTuple(DefaultConfig{}))), mapBytes},
		{"ext over tuple over map", WithExt[RawBytes](StructTuple(StructMap(DefaultConfig{}))), tupleBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := MarshalWith(tt.cfg, pair{A: 1, B: 2})
			require.NoError(t, err)
			assert.Equal(t, tt.want, b)

			var got pair
			require.NoError(t, UnmarshalWith(tt.cfg, b, &got))
			assert.Equal(t, pair{A: 1, B: 2}, got)
		})
	}
}

func TestRecordRoundTrip(t *testing.T) {
	configs := []Config{
		DefaultConfig{},
		StructMap(DefaultConfig{}),
		StructTuple(StructMap(DefaultConfig{})),
		StructMap(HumanReadable(DefaultConfig{})),
		VariantIndex(StructMap(DefaultConfig{})),
		WithExt[RawBytes](StructMap(DefaultConfig{})),
	}

	for _, cfg := range configs {
		t.Run(cfg.String(), func(t *testing.T) {
			in := sampleInventory()
			in.Skip = "dropped"

			b, err := MarshalWith(cfg, in)
			require.NoError(t, err)

			var out inventory
			require.NoError(t, UnmarshalWith(cfg, b, &out))

			in.Skip = ""
			assert.Equal(t, in, out)
		})
	}
}

func TestTupleDecodingIsPositional(t *testing.T) {
	type swapped struct {
		B int `msgpack:"b"`
		A int `msgpack:"a"`
	}

	b, err := MarshalWith(StructTuple(DefaultConfig{}), pair{A: 1, B: 2})
	require.NoError(t, err)

	var got swapped
	require.NoError(t, Unmarshal(b, &got))
	assert.Equal(t, swapped{B: 1, A: 2}, got)

	b, err = MarshalWith(StructMap(DefaultConfig{}), pair{A: 1, B: 2})
	require.NoError(t, err)

	got = swapped{}
	require.NoError(t, Unmarshal(b, &got))
	assert.Equal(t, swapped{B: 2, A: 1}, got)
}

func TestStructDecodingSkipsUnknown(t *testing.T) {
	type wide struct {
		A     int    `msgpack:"a"`
		B     int    `msgpack:"b"`
		Extra string `msgpack:"extra"`
		More  []int  `msgpack:"more"`
	}
	in := wide{A: 1, B: 2, Extra: "x", More: []int{3, 4}}

	t.Run("map", func(t *testing.T) {
		b, err := MarshalWith(StructMap(DefaultConfig{}), in)
		require.NoError(t, err)

		var got pair
		require.NoError(t, Unmarshal(b, &got))
		assert.Equal(t, pair{A: 1, B: 2}, got)
	})

	t.Run("tuple", func(t *testing.T) {
		b, err := Marshal(in)
		require.NoError(t, err)

		var got pair
		require.NoError(t, Unmarshal(b, &got))
		assert.Equal(t, pair{A: 1, B: 2}, got)

		var mismatched struct {
			A int
			B int
			C int
		}
		err = Unmarshal(b, &mismatched)
		assert.ErrorIs(t, err, ErrUnexpectedMarker)
	})
}

type point struct {
	X, Y int
}

func (p point) EncodeMsgpack(e *Encoder) error {
	if err := e.EncodeStructLen(2); err != nil {
		return err
	}
	if err := e.EncodeStructField("x", p.X); err != nil {
		return err
	}
	return e.EncodeStructField("y", p.Y)
}

func TestCustomEncoderHonorsShape(t *testing.T) {
	type plainPoint struct {
		X int `msgpack:"x"`
		Y int `msgpack:"y"`
	}

	b, err := MarshalWith(StructMap(DefaultConfig{}), point{X: 3, Y: 4})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x82, 0xa1, 'x', 0x03, 0xa1, 'y', 0x04}, b)

	var got plainPoint
	require.NoError(t, Unmarshal(b, &got))
	assert.Equal(t, plainPoint{X: 3, Y: 4}, got)

	b, err = Marshal(point{X: 3, Y: 4})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x92, 0x03, 0x04}, b)
}
