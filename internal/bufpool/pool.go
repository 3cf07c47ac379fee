// Package bufpool recycles encode buffers in a handful of size classes.
package bufpool

import (
	"sync"
	"sync/atomic"
)

// Config holds the size classes of a Pool.
type Config struct {
	// Sizes are the capacities of the pooled buffers, ascending.
	Sizes []int
	// MaxSize caps what Put accepts; larger buffers are dropped.
	MaxSize int
}

// DefaultConfig returns the size classes used by the msgpack Marshal path.
func DefaultConfig() Config {
	return Config{
		Sizes:   []int{64, 256, 1024, 4096, 16384, 65536},
		MaxSize: 1024 * 1024, // 1MB
	}
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Hits   uint64 // Get served from a size class
	Misses uint64 // a size class had to allocate
	Reuses uint64 // Put accepted a buffer
}

// Pool is a set of sync.Pools keyed by buffer capacity.
type Pool struct {
	pools   map[int]*sync.Pool
	sizes   []int
	maxSize int

	hits   atomic.Uint64
	misses atomic.Uint64
	reuses atomic.Uint64
}

// New creates a Pool with the given size classes.
func New(cfg Config) *Pool {
	p := &Pool{
		pools:   make(map[int]*sync.Pool, len(cfg.Sizes)),
		sizes:   cfg.Sizes,
		maxSize: cfg.MaxSize,
	}
	for _, size := range cfg.Sizes {
		size := size
		p.pools[size] = &sync.Pool{
			New: func() any {
				p.misses.Add(1)
				return make([]byte, 0, size)
			},
		}
	}
	return p
}

// Get returns an empty buffer with capacity of at least size.
func (p *Pool) Get(size int) []byte {
	class := p.classFor(size)
	if class == -1 {
		return make([]byte, 0, size)
	}
	buf := p.pools[class].Get().([]byte)
	p.hits.Add(1)
	return buf[:0]
}

// Put hands buf back to the pool. The buffer lands in the largest class
// its capacity can serve, so a later Get never receives a buffer smaller
// than it asked for.
func (p *Pool) Put(buf []byte) {
	capacity := cap(buf)
	if capacity > p.maxSize {
		return
	}
	class := -1
	for _, size := range p.sizes {
		if size <= capacity {
			class = size
		}
	}
	if class == -1 {
		return
	}
	clear(buf[:capacity])
	p.pools[class].Put(buf[:0])
	p.reuses.Add(1)
}

// classFor finds the smallest size class that fits size.
func (p *Pool) classFor(size int) int {
	for _, class := range p.sizes {
		if size <= class {
			return class
		}
	}
	return -1
}

// Stats returns the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Hits:   p.hits.Load(),
		Misses: p.misses.Load(),
		Reuses: p.reuses.Load(),
	}
}
