package preprocess

import (
	"sync"
)

// Pool is a simple resizer pool so concurrent data loading workers can
// share a fixed set of Resizers, which hold scratch Mats and cannot be
// used from several goroutines at once
type Pool struct {
	// pool of resizers
	resizers chan *Resizer
	// size of pool
	size  int
	close sync.Once
}

// NewPool creates a new resizer pool of the given size
func NewPool(size, srcWidth, srcHeight, inputSize int, mean [3]float32) *Pool {

	p := &Pool{
		resizers: make(chan *Resizer, size),
		size:     size,
	}

	for i := 0; i < size; i++ {
		p.Return(NewResizer(srcWidth, srcHeight, inputSize, mean))
	}

	return p
}

// Get a resizer from the pool, blocking until one is free
func (p *Pool) Get() *Resizer {
	return <-p.resizers
}

// Return a resizer to the pool
func (p *Pool) Return(r *Resizer) {
	select {
	case p.resizers <- r:
	default:
		// pool is full or closed
	}
}

// Close the pool and all resizers in it
func (p *Pool) Close() {
	p.close.Do(func() {
		// close channel
		close(p.resizers)

		// close all resizers
		for next := range p.resizers {
			_ = next.Close()
		}
	})
}
