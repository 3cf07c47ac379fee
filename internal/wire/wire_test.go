package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSink = errors.New("sink failed")

// limitWriter accepts n bytes and then fails.
type limitWriter struct {
	n int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		k := w.n
		w.n = 0
		return k, errSink
	}
	w.n -= len(p)
	return len(p), nil
}

func TestWriterPrimitives(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteNil())
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteInt(-1))
	require.NoError(t, w.WriteUint(200))
	require.NoError(t, w.WriteString("ab"))
	require.NoError(t, w.WriteBytes(nil))
	require.NoError(t, w.WriteArrayLen(3))
	require.NoError(t, w.WriteMapLen(1))
	require.NoError(t, w.WriteExt(7, []byte{1, 2}))

	want := []byte{
		0xc0,
		0xc3,
		0xff,
		0xcc, 200,
		0xa2, 'a', 'b',
		0xc4, 0x00,
		0x93,
		0x81,
		0xd5, 0x07, 1, 2,
	}
	assert.Equal(t, want, buf.Bytes())
	assert.Equal(t, len(want), w.BytesWritten())
}

func TestWriterKeepsFirstError(t *testing.T) {
	w := NewWriter(&limitWriter{n: 1})

	require.NoError(t, w.WriteNil())
	assert.Equal(t, errSink, w.WriteString("hello"))
	assert.Equal(t, errSink, w.WriteBool(false))
	assert.Equal(t, 1, w.BytesWritten())
}

func TestWriterRejectsNegativeLength(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	assert.ErrorIs(t, w.WriteArrayLen(-1), ErrTooLarge)
	assert.ErrorIs(t, w.WriteNil(), ErrTooLarge)
}

func TestReaderPeekDoesNotConsume(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xa2, 'h', 'i', 0x05}))

	m, err := r.PeekMarker()
	require.NoError(t, err)
	assert.Equal(t, FixStr, m)
	assert.Equal(t, 0, r.BytesRead())

	m, err = r.PeekMarker()
	require.NoError(t, err)
	assert.Equal(t, FixStr, m)

	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
	assert.Equal(t, 3, r.BytesRead())

	n, err := r.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, 4, r.BytesRead())
}

func TestReaderWrapsPlainReader(t *testing.T) {
	src := io.MultiReader(bytes.NewReader([]byte{0xd4, 0x03}), bytes.NewReader([]byte{0x2a, 0xc3}))
	r := NewReader(src)

	typ, payload, err := r.ReadExt()
	require.NoError(t, err)
	assert.Equal(t, int8(3), typ)
	assert.Equal(t, []byte{0x2a}, payload)
	assert.Equal(t, 3, r.BytesRead())

	b, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)
	assert.Equal(t, 4, r.BytesRead())
}

func TestReaderExtOnNonExtMarker(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xa1, 'x'}))

	_, _, err := r.ReadExt()
	assert.ErrorIs(t, err, ErrNotExt)
	assert.Equal(t, 0, r.BytesRead())

	// The error is sticky.
	_, err = r.ReadString()
	assert.ErrorIs(t, err, ErrNotExt)
}

func TestReaderReservedByte(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xc1}))

	_, err := r.PeekMarker()
	assert.ErrorIs(t, err, ErrInvalidMarker)
	_, err = r.ReadInt()
	assert.ErrorIs(t, err, ErrInvalidMarker)
}

func TestReadRawShortInput(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"ext32 header only", []byte{0xc9, 0x7f, 0xff, 0xff, 0xff, 0x01}},
		{"ext32 spanning chunks", append([]byte{0xc9, 0x00, 0x02, 0x00, 0x00, 0x01}, make([]byte, RawChunk+1)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(tt.in))
			_, payload, err := r.ReadExt()
			assert.Error(t, err)
			assert.Nil(t, payload)
			assert.LessOrEqual(t, r.BytesRead(), len(tt.in))
		})
	}
}

func TestReadRawAcrossChunks(t *testing.T) {
	payload := bytes.Repeat([]byte{0x5a}, 2*RawChunk+3)
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteExt(4, payload))

	r := NewReader(bytes.NewReader(buf.Bytes()))
	typ, got, err := r.ReadExt()
	require.NoError(t, err)
	assert.Equal(t, int8(4), typ)
	assert.Equal(t, payload, got)
	assert.Equal(t, buf.Len(), r.BytesRead())
}

func TestReaderLengths(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteArrayLen(2))
	require.NoError(t, w.WriteMapLen(0))
	require.NoError(t, w.WriteNil())
	require.NoError(t, w.WriteNil())

	r := NewReader(&buf)
	n, err := r.ReadArrayLen()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.ReadMapLen()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = r.ReadArrayLen()
	require.NoError(t, err)
	assert.Equal(t, -1, n)

	require.NoError(t, r.Skip())
	_, err = r.PeekCode()
	assert.ErrorIs(t, err, io.EOF)
}
