package wire

import (
	"io"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// countingWriter tracks how many bytes reached the underlying sink. It also
// satisfies the byte/string writer interface the msgpack encoder looks for,
// so the encoder writes straight through without an intermediate buffer and
// raw payload bytes written by Writer.WriteRaw stay in order.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

func (c *countingWriter) WriteByte(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

func (c *countingWriter) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

// Writer encodes MessagePack primitives onto an io.Writer.
// Every method returns the error of its own write, and the first error is
// kept so later calls become no-ops that report it again. Sink errors are
// returned unchanged.
type Writer struct {
	cw  *countingWriter
	enc *msgpack.Encoder
	err error // first error encountered during writing
}

// NewWriter creates a Writer on top of w. A bytes.Buffer is the common sink.
func NewWriter(w io.Writer) *Writer {
	cw := &countingWriter{w: w}
	return &Writer{cw: cw, enc: msgpack.NewEncoder(cw)}
}

// BytesWritten returns the number of bytes accepted by the underlying writer.
func (w *Writer) BytesWritten() int {
	return w.cw.n
}

func (w *Writer) do(fn func() error) error {
	if w.err != nil {
		return w.err
	}
	if err := fn(); err != nil {
		w.err = err
		return err
	}
	return nil
}

func checkLen(n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return ErrTooLarge
	}
	return nil
}

func (w *Writer) WriteNil() error {
	return w.do(w.enc.EncodeNil)
}

func (w *Writer) WriteBool(v bool) error {
	return w.do(func() error { return w.enc.EncodeBool(v) })
}

// WriteInt writes v using the smallest integer marker that holds it.
func (w *Writer) WriteInt(v int64) error {
	return w.do(func() error { return w.enc.EncodeInt(v) })
}

// WriteUint writes v using the smallest integer marker that holds it.
func (w *Writer) WriteUint(v uint64) error {
	return w.do(func() error { return w.enc.EncodeUint(v) })
}

func (w *Writer) WriteFloat32(v float32) error {
	return w.do(func() error { return w.enc.EncodeFloat32(v) })
}

func (w *Writer) WriteFloat64(v float64) error {
	return w.do(func() error { return w.enc.EncodeFloat64(v) })
}

func (w *Writer) WriteString(v string) error {
	if err := checkLen(len(v)); err != nil {
		return w.do(func() error { return err })
	}
	return w.do(func() error { return w.enc.EncodeString(v) })
}

// WriteBytes writes v as a bin value. A nil slice is written as an empty
// bin rather than nil; callers that want nil write it explicitly.
func (w *Writer) WriteBytes(v []byte) error {
	if err := checkLen(len(v)); err != nil {
		return w.do(func() error { return err })
	}
	if v == nil {
		v = []byte{}
	}
	return w.do(func() error { return w.enc.EncodeBytes(v) })
}

// WriteArrayLen writes the header of an array with n elements.
func (w *Writer) WriteArrayLen(n int) error {
	if err := checkLen(n); err != nil {
		return w.do(func() error { return err })
	}
	return w.do(func() error { return w.enc.EncodeArrayLen(n) })
}

// WriteMapLen writes the header of a map with n key/value pairs.
func (w *Writer) WriteMapLen(n int) error {
	if err := checkLen(n); err != nil {
		return w.do(func() error { return err })
	}
	return w.do(func() error { return w.enc.EncodeMapLen(n) })
}

// WriteExtHeader writes the marker, length and type tag of an extension
// value. Payloads of 1, 2, 4, 8 and 16 bytes get a FixExt marker; other
// sizes use Ext8/16/32.
func (w *Writer) WriteExtHeader(typ int8, n int) error {
	if err := checkLen(n); err != nil {
		return w.do(func() error { return err })
	}
	return w.do(func() error { return w.enc.EncodeExtHeader(typ, n) })
}

// WriteExt writes a complete extension value: header then payload.
func (w *Writer) WriteExt(typ int8, payload []byte) error {
	if err := w.WriteExtHeader(typ, len(payload)); err != nil {
		return err
	}
	return w.WriteRaw(payload)
}

// WriteRaw writes p verbatim. It is used for extension payloads and for
// values that are already encoded.
func (w *Writer) WriteRaw(p []byte) error {
	return w.do(func() error {
		_, err := w.cw.Write(p)
		return err
	})
}
