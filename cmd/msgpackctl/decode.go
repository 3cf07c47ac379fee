package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Volkalex28/msgpack-go/internal/compress"
	"github.com/Volkalex28/msgpack-go/internal/logging"
	"github.com/Volkalex28/msgpack-go/pkg/msgpack"
)

func runDecode(s streams, args []string) error {
	var (
		flags   codecFlags
		compact bool
		slurp   bool
	)
	fs := newFlagSet(s, "decode")
	flags.register(fs, "treat input as hex text")
	fs.BoolVarP(&compact, "compact", "c", false, "compact output (no indentation)")
	fs.BoolVarP(&slurp, "slurp", "s", false, "read a sequence of values as a JSON array")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := flags.config()
	if err != nil {
		return err
	}
	algorithm, err := flags.algorithm()
	if err != nil {
		return err
	}

	data, rest, err := readInput(fs.Args(), s.in, flags.hex)
	if err != nil {
		return err
	}
	if err := noExtraArgs("decode", rest); err != nil {
		return err
	}
	data, err = compress.Decompress(data, algorithm)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty input: expected MessagePack data")
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data), cfg)
	if !slurp {
		v, err := dec.DecodeInterface()
		if err != nil {
			return fmt.Errorf("decode msgpack: %w", err)
		}
		if dec.BytesRead() < len(data) {
			log := logging.Logger()
			log.Warn().
				Int("offset", dec.BytesRead()).
				Int("size", len(data)).
				Msg("ignoring trailing data; use --slurp to decode a sequence")
		}
		return writeJSON(s.out, normalizeValue(v), compact)
	}

	var items []any
	for dec.BytesRead() < len(data) {
		v, err := dec.DecodeInterface()
		if err != nil {
			return fmt.Errorf("decode msgpack sequence item %d: %w", len(items), err)
		}
		items = append(items, normalizeValue(v))
	}
	return writeJSON(s.out, items, compact)
}

// normalizeValue converts decoded values into types encoding/json can
// write: maps with non-string keys get their keys formatted, and raw
// extension values become {"type", "data"} objects.
func normalizeValue(v any) any {
	switch value := v.(type) {
	case map[any]any:
		result := make(map[string]any, len(value))
		for key, element := range value {
			result[fmt.Sprint(key)] = normalizeValue(element)
		}
		return result
	case map[string]any:
		for key, element := range value {
			value[key] = normalizeValue(element)
		}
		return value
	case []any:
		for index, element := range value {
			value[index] = normalizeValue(element)
		}
		return value
	case msgpack.RawExt:
		return map[string]any{"type": value.Type, "data": []byte(value.Data)}
	default:
		return v
	}
}

func writeJSON(w io.Writer, value any, compact bool) error {
	var output []byte
	var err error
	if compact {
		output, err = json.Marshal(value)
	} else {
		output, err = json.MarshalIndent(value, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(output))
	return err
}
