package wire

import (
	"bufio"
	"fmt"
	"io"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// RawChunk bounds how much ReadRaw allocates ahead of the input it has
// actually read.
const RawChunk = 1 << 16

// byteScanner is what the msgpack decoder reads from without adding its own
// buffering. Keeping the buffering on our side of the counter makes
// BytesRead exact, including the unread that follows a peek.
type byteScanner interface {
	io.Reader
	io.ByteScanner
}

type countingReader struct {
	r byteScanner
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func (c *countingReader) UnreadByte() error {
	err := c.r.UnreadByte()
	if err == nil {
		c.n--
	}
	return err
}

// Reader decodes MessagePack primitives from an io.Reader.
// It keeps track of bytes consumed and of the first error.
type Reader struct {
	cr  *countingReader
	dec *msgpack.Decoder
	err error
}

// NewReader creates a Reader on top of r. Readers that already implement
// io.ByteScanner (bytes.Reader, bufio.Reader) are used directly; anything
// else is wrapped in a bufio.Reader.
func NewReader(r io.Reader) *Reader {
	bs, ok := r.(byteScanner)
	if !ok {
		bs = bufio.NewReader(r)
	}
	cr := &countingReader{r: bs}
	return &Reader{cr: cr, dec: msgpack.NewDecoder(cr)}
}

// BytesRead returns the number of bytes consumed so far. A peek does not
// count.
func (r *Reader) BytesRead() int {
	return r.cr.n
}

func (r *Reader) recordError(err error) error {
	if err != nil && r.err == nil {
		r.err = err
	}
	return err
}

// PeekCode returns the next marker byte without consuming it.
func (r *Reader) PeekCode() (byte, error) {
	if r.err != nil {
		return 0, r.err
	}
	c, err := r.dec.PeekCode()
	return c, r.recordError(err)
}

// PeekMarker classifies the next value without consuming it. The reserved
// byte 0xc1 is an error.
func (r *Reader) PeekMarker() (Marker, error) {
	c, err := r.PeekCode()
	if err != nil {
		return Reserved, err
	}
	m := MarkerOf(c)
	if m == Reserved {
		return m, r.recordError(fmt.Errorf("%w 0x%02x", ErrInvalidMarker, c))
	}
	return m, nil
}

func (r *Reader) ReadNil() error {
	if r.err != nil {
		return r.err
	}
	return r.recordError(r.dec.DecodeNil())
}

func (r *Reader) ReadBool() (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	v, err := r.dec.DecodeBool()
	return v, r.recordError(err)
}

// ReadInt reads an integer of any width or signedness as int64.
func (r *Reader) ReadInt() (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	v, err := r.dec.DecodeInt64()
	return v, r.recordError(err)
}

// ReadUint reads an integer of any width or signedness as uint64.
func (r *Reader) ReadUint() (uint64, error) {
	if r.err != nil {
		return 0, r.err
	}
	v, err := r.dec.DecodeUint64()
	return v, r.recordError(err)
}

func (r *Reader) ReadFloat32() (float32, error) {
	if r.err != nil {
		return 0, r.err
	}
	v, err := r.dec.DecodeFloat32()
	return v, r.recordError(err)
}

func (r *Reader) ReadFloat64() (float64, error) {
	if r.err != nil {
		return 0, r.err
	}
	v, err := r.dec.DecodeFloat64()
	return v, r.recordError(err)
}

func (r *Reader) ReadString() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	v, err := r.dec.DecodeString()
	return v, r.recordError(err)
}

func (r *Reader) ReadBytes() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	v, err := r.dec.DecodeBytes()
	return v, r.recordError(err)
}

// ReadArrayLen reads an array header. A nil value yields -1.
func (r *Reader) ReadArrayLen() (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.dec.DecodeArrayLen()
	return n, r.recordError(err)
}

// ReadMapLen reads a map header. A nil value yields -1.
func (r *Reader) ReadMapLen() (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.dec.DecodeMapLen()
	return n, r.recordError(err)
}

// ReadExtHeader reads the marker, length and type tag of an extension
// value. The payload is left for ReadRaw.
func (r *Reader) ReadExtHeader() (typ int8, n int, err error) {
	if r.err != nil {
		return 0, 0, r.err
	}
	m, err := r.PeekMarker()
	if err != nil {
		return 0, 0, err
	}
	if !m.IsExt() {
		return 0, 0, r.recordError(fmt.Errorf("%w: got %s", ErrNotExt, m))
	}
	typ, n, err = r.dec.DecodeExtHeader()
	return typ, n, r.recordError(err)
}

// ReadExt reads a complete extension value.
func (r *Reader) ReadExt() (int8, []byte, error) {
	typ, n, err := r.ReadExtHeader()
	if err != nil {
		return 0, nil, err
	}
	payload, err := r.ReadRaw(n)
	if err != nil {
		return 0, nil, err
	}
	return typ, payload, nil
}

// ReadRaw reads exactly n bytes. The buffer grows in chunks of at most
// RawChunk bytes as input arrives, so a length header larger than the input
// fails with an EOF error instead of an allocation of that size.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if n < 0 {
		return nil, r.recordError(ErrTooLarge)
	}
	p := make([]byte, 0, min(n, RawChunk))
	for len(p) < n {
		chunk := min(n-len(p), RawChunk)
		p = slices.Grow(p, chunk)
		if err := r.dec.ReadFull(p[len(p) : len(p)+chunk]); err != nil {
			return nil, r.recordError(err)
		}
		p = p[:len(p)+chunk]
	}
	return p, nil
}

// Skip consumes the next value, whatever its shape.
func (r *Reader) Skip() error {
	if r.err != nil {
		return r.err
	}
	return r.recordError(r.dec.Skip())
}
