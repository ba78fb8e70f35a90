package stream

import (
	"fmt"
	"sync"

	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// UnderrunError reports a read of more samples than the producer has
// delivered so far. The consumer loop treats it as "try again", unlike
// every other acquisition failure.
type UnderrunError struct {
	Filled int
	Needed int
}

func (e UnderrunError) Error() string {
	return fmt.Sprintf("ring holds %d of the %d samples needed", e.Filled, e.Needed)
}

// Ring is a fixed-capacity circular sample buffer shared between one
// producer appending samples and one reader taking windows off the
// head. Readers always receive copies, so inference can run on a
// window while the producer keeps appending.
type Ring struct {
	mu       sync.Mutex
	channels int
	capacity int

	// samples is channel-major: samples[c][i] is the i-th slot of
	// channel c.
	samples [][]float64
	head    int
	filled  int
}

// NewRing allocates a ring holding capacity samples of channels values
// each.
func NewRing(channels, capacity int) *Ring {
	samples := make([][]float64, channels)
	for c := range samples {
		samples[c] = make([]float64, capacity)
	}
	return &Ring{channels: channels, capacity: capacity, samples: samples}
}

// Append writes one multichannel sample at the head, overwriting the
// oldest slot once the ring is full.
func (r *Ring) Append(sample []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(sample) != r.channels {
		return errors.Errorf("sample has %d channels, ring holds %d", len(sample), r.channels)
	}
	for c, v := range sample {
		r.samples[c][r.head] = v
	}
	r.head = (r.head + 1) % r.capacity
	if r.filled < r.capacity {
		r.filled++
	}
	return nil
}

// Last copies out the n most recent samples, channel-major, oldest
// first. It fails until the producer has filled n slots.
func (r *Ring) Last(n int) ([][]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n > r.capacity {
		return nil, errors.Errorf("window of %d samples does not fit a ring of %d", n, r.capacity)
	}
	if n > r.filled {
		return nil, UnderrunError{Filled: r.filled, Needed: n}
	}
	start := (r.head - n + r.capacity) % r.capacity
	out := make([][]float64, r.channels)
	for c := range out {
		out[c] = make([]float64, n)
		for i := 0; i < n; i++ {
			out[c][i] = r.samples[c][(start+i)%r.capacity]
		}
	}
	return out, nil
}

// Filled reports how many samples the ring currently holds.
func (r *Ring) Filled() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filled
}
