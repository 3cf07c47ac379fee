package msgpack

import (
	"bytes"

	"github.com/Volkalex28/msgpack-go/internal/bufpool"
)

// initialBufferSize is the capacity Marshal asks the pool for. Most values
// fit; larger ones grow the buffer and return it to a larger class.
const initialBufferSize = 256

var bufferPool = bufpool.New(bufpool.DefaultConfig())

// Marshal encodes v under DefaultConfig.
func Marshal(v any) ([]byte, error) {
	return MarshalWith(DefaultConfig{}, v)
}

// MarshalWith encodes v under cfg. The returned slice is owned by the
// caller.
func MarshalWith(cfg Config, v any) ([]byte, error) {
	buf := bytes.NewBuffer(bufferPool.Get(initialBufferSize))
	defer func() { bufferPool.Put(buf.Bytes()) }()

	if err := NewEncoder(buf, cfg).Encode(v); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Unmarshal decodes data into the value pointed to by v under
// DefaultConfig.
func Unmarshal(data []byte, v any) error {
	return UnmarshalWith(DefaultConfig{}, data, v)
}

// UnmarshalWith decodes data into the value pointed to by v under cfg.
// Trailing bytes after the first value are ignored.
func UnmarshalWith(cfg Config, data []byte, v any) error {
	return NewDecoder(bytes.NewReader(data), cfg).Decode(v)
}

// PoolStats reports the Marshal buffer pool counters.
func PoolStats() bufpool.Stats {
	return bufferPool.Stats()
}
