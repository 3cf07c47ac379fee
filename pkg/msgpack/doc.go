// Package msgpack encodes Go values as MessagePack under a composable
// encoding policy.
//
// A Config decides how record boundaries, tagged union tags and extension
// values reach the wire, and whether types with two renderings use the
// legible one. Configs are built by wrapping DefaultConfig in decorators;
// the outermost decorator that overrides a hook wins:
//
//	cfg := msgpack.StructMap(msgpack.HumanReadable(msgpack.DefaultConfig{}))
//	b, err := msgpack.MarshalWith(cfg, v)
//
// Decoding follows the markers on the wire, so a value encoded as a map is
// read back by field name and a value encoded as a tuple by position, under
// any Config. The decoder's Config matters for extension markers and for
// IsHumanReadable as seen by CustomDecoder implementations.
package msgpack
