package multibox

import (
	"fmt"
	"runtime"
	"sync"
)

// GroundTruth is the annotation set of one image: corner form boxes and
// their 1:1 class labels in the range 1..NumClasses
type GroundTruth struct {
	Boxes  []float32
	Labels []int
}

// Target is the encoded training target of one image
type Target struct {
	// Loc holds 4 offset values per anchor
	Loc []float32
	// Labels holds the per-anchor class, 0 meaning background
	Labels []int
}

// EncodeBatch encodes all samples concurrently across NumCPU workers.
// Samples are independent, each worker touches only its own rows and
// the shared read-only lattice, so no locking is needed.  Result order
// matches the input order.
func (c *Coder) EncodeBatch(samples []GroundTruth) ([]Target, error) {

	targets := make([]Target, len(samples))

	numWorkers := runtime.NumCPU()
	if numWorkers > len(samples) {
		numWorkers = len(samples)
	}

	if numWorkers <= 1 {
		for i, s := range samples {
			loc, labels, err := c.Encode(s.Boxes, s.Labels)
			if err != nil {
				return nil, fmt.Errorf("sample %d: %w", i, err)
			}
			targets[i] = Target{Loc: loc, Labels: labels}
		}
		return targets, nil
	}

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	errs := make([]error, numWorkers)

	// each worker handles samples i = w, w+numWorkers, w+2*numWorkers
	for w := 0; w < numWorkers; w++ {
		go func(w int) {
			defer wg.Done()

			for i := w; i < len(samples); i += numWorkers {

				loc, labels, err := c.Encode(samples[i].Boxes, samples[i].Labels)

				if err != nil {
					if errs[w] == nil {
						errs[w] = fmt.Errorf("sample %d: %w", i, err)
					}
					continue
				}

				targets[i] = Target{Loc: loc, Labels: labels}
			}
		}(w)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return targets, nil
}
