// Package compress wraps encoded msgpack streams in an optional frame
// compressor.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm identifies a frame compressor.
type Algorithm uint8

const (
	None Algorithm = iota
	Zstd
	Brotli
	LZ4
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case Brotli:
		return "brotli"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// Parse maps a flag value to an Algorithm. The empty string means None.
func Parse(name string) (Algorithm, error) {
	switch name {
	case "", "none":
		return None, nil
	case "zstd":
		return Zstd, nil
	case "brotli":
		return Brotli, nil
	case "lz4":
		return LZ4, nil
	default:
		return None, fmt.Errorf("unknown compression: %q", name)
	}
}

// Names lists the accepted flag values.
func Names() []string {
	return []string{None.String(), Zstd.String(), Brotli.String(), LZ4.String()}
}

// Compress returns data framed by a. For None the input is returned as is.
func Compress(data []byte, a Algorithm) ([]byte, error) {
	if a == None {
		return data, nil
	}

	var buf bytes.Buffer
	var w io.WriteCloser
	switch a {
	case Zstd:
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		w = zw
	case Brotli:
		w = brotli.NewWriter(&buf)
	case LZ4:
		w = lz4.NewWriter(&buf)
	default:
		return nil, fmt.Errorf("unsupported compression: %s", a)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("%s compress: %w", a, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s compress: %w", a, err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte, a Algorithm) ([]byte, error) {
	switch a {
	case None:
		return data, nil
	case Zstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		return readAll(zr, a)
	case Brotli:
		return readAll(brotli.NewReader(bytes.NewReader(data)), a)
	case LZ4:
		return readAll(lz4.NewReader(bytes.NewReader(data)), a)
	default:
		return nil, fmt.Errorf("unsupported compression: %s", a)
	}
}

func readAll(r io.Reader, a Algorithm) ([]byte, error) {
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", a, err)
	}
	return out, nil
}
