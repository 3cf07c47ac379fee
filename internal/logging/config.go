// Package logging configures the zerolog logger shared by msgpackctl and
// the msgpack package.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Volkalex28/msgpack-go/pkg/msgpack"
)

const (
	EnvLogLevel     = "MSGPACK_LOG_LEVEL"
	EnvLogTimestamp = "MSGPACK_LOG_TIMESTAMP"
	EnvLogNoColor   = "MSGPACK_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the resolved logger setup.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

var (
	configureOnce sync.Once
	logger        atomic.Pointer[zerolog.Logger]
)

func init() {
	nop := zerolog.Nop()
	logger.Store(&nop)
}

// ConfigureRuntime sets up the runtime profile on stderr.
func ConfigureRuntime() zerolog.Logger {
	return Configure(ProfileRuntime, os.Stderr)
}

// ConfigureTests sets up the verbose test profile with output discarded.
func ConfigureTests() zerolog.Logger {
	return Configure(ProfileTest, io.Discard)
}

// Configure builds the process logger on first use and hands it to the
// msgpack package. Later calls return the logger built by the first one.
func Configure(profile Profile, out io.Writer) zerolog.Logger {
	configureOnce.Do(func() {
		cfg := defaultConfig(profile)
		applyEnvOverrides(&cfg)
		l := New(cfg, out)
		logger.Store(&l)
		msgpack.SetLogger(l)
	})
	return *logger.Load()
}

// Logger returns the configured logger, or a no-op logger before Configure.
func Logger() zerolog.Logger {
	return *logger.Load()
}

// New returns a console logger for cfg writing to out.
func New(cfg Config, out io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	ctx := zerolog.New(output).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func defaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel, Timestamp: false, NoColor: true}
	default:
		return Config{Level: zerolog.InfoLevel, Timestamp: true}
	}
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
