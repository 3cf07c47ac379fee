package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/Volkalex28/msgpack-go/internal/compress"
	"github.com/Volkalex28/msgpack-go/internal/logging"
	"github.com/Volkalex28/msgpack-go/pkg/msgpack"
)

func runEncode(s streams, args []string) error {
	var (
		flags  codecFlags
		from   string
		digest bool
	)
	fs := newFlagSet(s, "encode")
	flags.register(fs, "write the result as hex text")
	fs.StringVarP(&from, "from", "f", "json", "input format: json, yaml or cbor")
	fs.BoolVar(&digest, "digest", false, "print the BLAKE3 digest of the output to stderr")
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

	data, rest, err := readInput(fs.Args(), s.in, false)
	if err != nil {
		return err
	}
	if err := noExtraArgs("encode", rest); err != nil {
		return err
	}

	value, err := parseInput(data, from)
	if err != nil {
		return err
	}

	encoded, err := msgpack.MarshalWith(cfg, value)
	if err != nil {
		return fmt.Errorf("encode msgpack: %w", err)
	}
	output, err := compress.Compress(encoded, algorithm)
	if err != nil {
		return err
	}

	log := logging.Logger()

	log.Debug().
		Str("config", cfg.String()).
		Str("from", from).
		Int("encoded", len(encoded)).
		Int("output", len(output)).
		Stringer("compression", algorithm).
		Msg("encoded input")

	if digest {
		sum := blake3.Sum256(output)
		fmt.Fprintf(s.err, "blake3:%x\n", sum)
	}

	if flags.hex {
		_, err = fmt.Fprintln(s.out, hex.EncodeToString(output))
		return err
	}
	_, err = s.out.Write(output)
	return err
}

// parseInput decodes data in the named format into plain Go values the
// msgpack encoder understands.
func parseInput(data []byte, format string) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty input")
	}

	switch strings.ToLower(format) {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, errors.New("decode JSON: trailing data after the first value")
		}
		return normalizeJSON(v), nil
	case "yaml", "yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
		return v, nil
	case "cbor":
		var v any
		if err := cbor.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode CBOR: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// normalizeJSON turns json.Number into the narrowest Go number that holds
// it, so integers are written as msgpack integers rather than floats.
func normalizeJSON(v any) any {
	switch value := v.(type) {
	case json.Number:
		if i, err := value.Int64(); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(value.String(), 10, 64); err == nil {
			return u
		}
		f, _ := value.Float64()
		return f
	case map[string]any:
		for key, element := range value {
			value[key] = normalizeJSON(element)
		}
		return value
	case []any:
		for index, element := range value {
			value[index] = normalizeJSON(element)
		}
		return value
	default:
		return v
	}
}
