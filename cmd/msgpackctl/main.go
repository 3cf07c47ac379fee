// msgpackctl converts between JSON, YAML or CBOR and MessagePack under a
// configurable encoding policy, and lists the wire markers of encoded data.
//
// Usage:
//
//	msgpackctl encode [flags] [file]
//	msgpackctl decode [flags] [file]
//	msgpackctl markers [flags] [file]
//
// Input is read from the trailing file argument when it names a regular
// file, and from stdin otherwise.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/Volkalex28/msgpack-go/internal/logging"
)

// streams are the process I/O a command runs against.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

type command struct {
	name    string
	summary string
	run     func(s streams, args []string) error
}

var commands = []command{
	{"encode", "encode JSON, YAML or CBOR as MessagePack", runEncode},
	{"decode", "decode MessagePack to JSON", runDecode},
	{"markers", "list the marker of each top-level value", runMarkers},
}

func main() {
	logging.ConfigureRuntime()

	s := streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}
	if err := run(s, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log := logging.Logger()
		log.Error().Err(err).Msg("msgpackctl failed")
		os.Exit(1)
	}
}

func run(s streams, args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(s.err)
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(s, args[1:])
		}
	}
	printUsage(s.err)
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: msgpackctl <command> [flags] [file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
}

func newFlagSet(s streams, name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("msgpackctl "+name, pflag.ContinueOnError)
	fs.SetOutput(s.err)
	return fs
}
