package multibox

import (
	"fmt"
	"sync"
)

// bufferPool holds a set of named float32 buffer pools used for
// per-call decode scratch so concurrent callers do not contend on
// allocations
type bufferPool struct {
	mu    sync.Mutex
	pools map[string]*bufferEntry
}

// bufferEntry defines a single buffer
type bufferEntry struct {
	pool    sync.Pool
	maxSize int
}

// newBufferPool returns an empty bufferPool
func newBufferPool() *bufferPool {
	return &bufferPool{
		pools: make(map[string]*bufferEntry),
	}
}

// create registers a new pool under 'name' that will produce buffers
// up to maxSize
func (b *bufferPool) create(name string, maxSize int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := &bufferEntry{maxSize: maxSize}

	entry.pool.New = func() any {
		return make([]float32, maxSize)
	}

	b.pools[name] = entry
}

// get returns a zeroed []float32 slice of length 'size' from the named
// pool.  If size > maxSize it allocates a new slice of exactly size.
// Panics if the pool name is unknown.
func (b *bufferPool) get(name string, size int) []float32 {
	b.mu.Lock()
	entry, ok := b.pools[name]
	b.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("buffer pool %q not registered", name))
	}

	buf := entry.pool.Get().([]float32)

	if cap(buf) < size {
		return make([]float32, size)
	}

	buf = buf[:size]

	for i := range buf {
		buf[i] = 0
	}

	return buf
}

// put returns a buffer back into it's named pool.  You must only call
// put on a buffer you previously got via get with the same name.
func (b *bufferPool) put(name string, buf []float32) {
	b.mu.Lock()
	entry, ok := b.pools[name]
	b.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("buffer pool %q not registered", name))
	}

	if cap(buf) < entry.maxSize {
		return
	}

	// restore to full capacity so it matches entry.New next time
	entry.pool.Put(buf[:entry.maxSize])
}
