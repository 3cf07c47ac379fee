package main

import (
	"github.com/spf13/pflag"

	"github.com/Volkalex28/msgpack-go/internal/compress"
	"github.com/Volkalex28/msgpack-go/internal/profile"
	"github.com/Volkalex28/msgpack-go/pkg/msgpack"
)

// codecFlags are shared by encode and decode.
type codecFlags struct {
	profilePath string
	layers      []string
	compression string
	hex         bool
}

func (f *codecFlags) register(fs *pflag.FlagSet, hexUsage string) {
	fs.StringVarP(&f.profilePath, "profile", "p", "", "profile file (.toml, .yaml or .yml) describing the config chain")
	fs.StringArrayVarP(&f.layers, "layer", "l", nil, "config layer to wrap outside the profile; repeatable, innermost first")
	fs.StringVar(&f.compression, "compress", "none", "frame compression: none, zstd, brotli or lz4")
	fs.BoolVarP(&f.hex, "hex", "x", false, hexUsage)
}

// config resolves the profile file and the --layer flags into one chain.
// The flags wrap outside the layers listed in the file.
func (f *codecFlags) config() (msgpack.Config, error) {
	p := profile.Profile{Name: "flags"}
	if f.profilePath != "" {
		loaded, err := profile.Load(f.profilePath)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	p, err := p.Extend(f.layers...)
	if err != nil {
		return nil, err
	}
	return p.Build()
}

func (f *codecFlags) algorithm() (compress.Algorithm, error) {
	return compress.Parse(f.compression)
}
