// Package profile loads named msgpack config chains from TOML or YAML
// files so tools can pick an encoding policy without recompiling.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Volkalex28/msgpack-go/pkg/msgpack"
)

// Layer names accepted in a profile.
const (
	LayerStructMap     = "struct_map"
	LayerStructTuple   = "struct_tuple"
	LayerHumanReadable = "human_readable"
	LayerBinary        = "binary"
	LayerVariantIndex  = "variant_index"
	LayerExtRaw        = "ext_raw"
)

var layers = map[string]func(msgpack.Config) msgpack.Config{
	LayerStructMap:     func(c msgpack.Config) msgpack.Config { return msgpack.StructMap(c) },
	LayerStructTuple:   func(c msgpack.Config) msgpack.Config { return msgpack.StructTuple(c) },
	LayerHumanReadable: func(c msgpack.Config) msgpack.Config { return msgpack.HumanReadable(c) },
	LayerBinary:        func(c msgpack.Config) msgpack.Config { return msgpack.Binary(c) },
	LayerVariantIndex:  func(c msgpack.Config) msgpack.Config { return msgpack.VariantIndex(c) },
	LayerExtRaw:        func(c msgpack.Config) msgpack.Config { return msgpack.WithExt[msgpack.RawBytes](c) },
}

var (
	ErrUnknownLayer  = errors.New("profile: unknown layer")
	ErrUnknownFormat = errors.New("profile: unsupported file extension")
)

// Profile describes a config chain. Layers are listed innermost first and
// wrap DefaultConfig in that order, so the last layer is the outermost.
type Profile struct {
	Name   string   `toml:"name" yaml:"name"`
	Layers []string `toml:"layers" yaml:"layers"`
}

// Load reads a profile from path. The format follows the file extension:
// .toml, .yaml or .yml.
func Load(path string) (Profile, error) {
	var p Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &p); err != nil {
			return Profile{}, fmt.Errorf("profile parse failed (%s): %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Profile{}, fmt.Errorf("profile load failed (%s): %w", path, err)
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Profile{}, fmt.Errorf("profile parse failed (%s): %w", path, err)
		}
	default:
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}

	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	p.normalize()
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// New returns a validated profile from layer names given in code or on a
// command line.
func New(name string, names ...string) (Profile, error) {
	p := Profile{Name: name, Layers: names}
	p.normalize()
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p *Profile) normalize() {
	for i, l := range p.Layers {
		p.Layers[i] = strings.ToLower(strings.TrimSpace(l))
	}
}

// Validate reports the first layer name that is not known.
func (p Profile) Validate() error {
	for i, l := range p.Layers {
		if _, ok := layers[l]; !ok {
			return fmt.Errorf("layer[%d] %q: %w", i, l, ErrUnknownLayer)
		}
	}
	return nil
}

// Build folds the layers over DefaultConfig. A profile with no layers
// yields DefaultConfig.
func (p Profile) Build() (msgpack.Config, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var cfg msgpack.Config = msgpack.DefaultConfig{}
	for _, l := range p.Layers {
		cfg = layers[l](cfg)
	}
	return cfg, nil
}

// Extend returns a copy of p with more layers wrapped outside the existing
// ones.
func (p Profile) Extend(names ...string) (Profile, error) {
	out := Profile{Name: p.Name, Layers: append(append([]string(nil), p.Layers...), names...)}
	out.normalize()
	if err := out.Validate(); err != nil {
		return Profile{}, err
	}
	return out, nil
}

// Layers lists the accepted layer names.
func Layers() []string {
	return []string{LayerStructMap, LayerStructTuple, LayerHumanReadable, LayerBinary, LayerVariantIndex, LayerExtRaw}
}
