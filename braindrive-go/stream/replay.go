package stream

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/braindrive/braindrive/braindrive-go/signal"
	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// Replay feeds recorded epochs through a ring at acquisition cadence,
// standing in for a live amplifier. It is a Source: the consumer side
// reads windows off the ring while Run pushes one sample per sampling
// period on the producer side.
type Replay struct {
	ring *Ring
	fs   float64

	epochs []signal.Epoch

	mu    sync.Mutex
	label string
	alive bool

	sleep func(time.Duration)
}

// NewReplay builds a replay source over epochs. The ring holds
// bufferSeconds of signal; every epoch must share the sampling rate
// and channel count of the first.
func NewReplay(epochs []signal.Epoch, bufferSeconds float64) (*Replay, error) {
	if len(epochs) == 0 {
		return nil, errors.Errorf("replay needs at least one epoch")
	}
	fs := epochs[0].Fs
	channels := len(epochs[0].Data)
	if fs <= 0 || channels == 0 {
		return nil, errors.Errorf("first epoch has no usable signal")
	}
	for i, e := range epochs {
		if e.Fs != fs || len(e.Data) != channels {
			return nil, errors.Errorf("epoch %d does not match the first epoch's shape", i)
		}
	}
	capacity := int(math.Round(bufferSeconds * fs))
	if capacity <= 0 {
		return nil, errors.Errorf("buffer of %f seconds is too short at %f Hz", bufferSeconds, fs)
	}
	return &Replay{
		ring:   NewRing(channels, capacity),
		fs:     fs,
		epochs: epochs,
		alive:  true,
		sleep:  time.Sleep,
	}, nil
}

// Run pushes the epochs into the ring one sample per period. It
// returns once every epoch has been replayed or ctx is cancelled, and
// marks the source dead either way.
func (r *Replay) Run(ctx context.Context) error {
	defer func() {
		r.mu.Lock()
		r.alive = false
		r.mu.Unlock()
	}()

	period := time.Duration(float64(time.Second) / r.fs)
	for _, epoch := range r.epochs {
		r.mu.Lock()
		r.label = epoch.Label
		r.mu.Unlock()

		samples := len(epoch.Data[0])
		sample := make([]float64, len(epoch.Data))
		for i := 0; i < samples; i++ {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			for c := range epoch.Data {
				sample[c] = epoch.Data[c][i]
			}
			if err := r.ring.Append(sample); err != nil {
				return err
			}
			r.sleep(period)
		}
	}
	return nil
}

// Window returns the latest seconds of replayed signal and the label
// of the epoch currently being replayed.
func (r *Replay) Window(seconds float64) ([][]float64, string, error) {
	n := int(math.Round(seconds * r.fs))
	data, err := r.ring.Last(n)
	if err != nil {
		return nil, "", err
	}
	r.mu.Lock()
	label := r.label
	r.mu.Unlock()
	return data, label, nil
}

func (r *Replay) Fs() float64 {
	return r.fs
}

func (r *Replay) Alive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alive
}
