package main

import (
	"bytes"
	"fmt"

	"github.com/Volkalex28/msgpack-go/internal/compress"
	"github.com/Volkalex28/msgpack-go/internal/wire"
)

func runMarkers(s streams, args []string) error {
	var (
		hexMode     bool
		compression string
	)
	fs := newFlagSet(s, "markers")
	fs.BoolVarP(&hexMode, "hex", "x", false, "treat input as hex text")
	fs.StringVar(&compression, "compress", "none", "frame compression: none, zstd, brotli or lz4")
	if err := fs.Parse(args); err != nil {
		return err
	}
	algorithm, err := compress.Parse(compression)
	if err != nil {
		return err
	}

	data, rest, err := readInput(fs.Args(), s.in, hexMode)
	if err != nil {
		return err
	}
	if err := noExtraArgs("markers", rest); err != nil {
		return err
	}
	data, err = compress.Decompress(data, algorithm)
	if err != nil {
		return err
	}

	r := wire.NewReader(bytes.NewReader(data))
	for r.BytesRead() < len(data) {
		offset := r.BytesRead()
		m, err := r.PeekMarker()
		if err != nil {
			return fmt.Errorf("offset %d: %w", offset, err)
		}
		if err := r.Skip(); err != nil {
			return fmt.Errorf("offset %d: %s: %w", offset, m, err)
		}
		fmt.Fprintf(s.out, "%d\t%s\t%d\n", offset, m, r.BytesRead()-offset)
	}
	return nil
}
