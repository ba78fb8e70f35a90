// Package stream runs trained models against live or replayed signal
// at acquisition cadence.
package stream

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/braindrive/braindrive/braindrive-go/classify"
	"github.com/braindrive/braindrive/braindrive-go/features"
	"github.com/braindrive/braindrive/braindrive-go/signal"
	"github.com/braindrive/braindrive/braindrive-golib/errors"
	"github.com/braindrive/braindrive/braindrive-golib/logging"
)

// State is the observable phase of the streaming loop.
type State int32

const (
	StateIdle State = iota
	StateAcquiring
	StateUnderrun
	StateInferring
	StateEmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateUnderrun:
		return "underrun"
	case StateInferring:
		return "inferring"
	case StateEmitted:
		return "emitted"
	default:
		return "unknown"
	}
}

// Source supplies windows of recent signal. Window returns the most
// recent seconds of data, channel-major, together with the ground
// truth label when the source knows it (replay does, live acquisition
// returns ""). It fails while too little signal has accumulated.
type Source interface {
	Window(seconds float64) ([][]float64, string, error)
	Fs() float64
	Alive() bool
}

// PredictionEvent is one emitted inference.
type PredictionEvent struct {
	Session uuid.UUID `json:"session"`
	Index   int       `json:"index"`
	Label   string    `json:"label"`
	// Truth is the replayed ground truth, empty during live runs.
	Truth string    `json:"truth,omitempty"`
	At    time.Time `json:"at"`
}

// Emitter consumes prediction events, e.g. to drive a vehicle or to
// publish telemetry.
type Emitter interface {
	Emit(PredictionEvent) error
}

// Streamer ties a frozen feature pipeline and a restored classifier to
// a signal source and paces inference at the source's sampling rate:
// each cycle acquires the latest window, infers, emits, then sleeps
// whatever remains of the sampling period. Slow cycles simply run
// back-to-back, they are never compensated for.
type Streamer struct {
	Source        Source
	Pipeline      *features.Pipeline
	Model         classify.Classifier
	WindowSeconds float64
	Emitters      []Emitter
	Log           *zap.Logger

	state   int32
	session uuid.UUID

	// test seams
	now   func() time.Time
	sleep func(time.Duration)
}

// NewStreamer validates the wiring and assigns the run a fresh session
// id.
func NewStreamer(source Source, pipeline *features.Pipeline, model classify.Classifier, windowSeconds float64, emitters ...Emitter) (*Streamer, error) {
	if source == nil || pipeline == nil || model == nil {
		return nil, errors.Errorf("streamer needs a source, a pipeline and a model")
	}
	if windowSeconds <= 0 {
		return nil, errors.Errorf("window length must be positive, got %f", windowSeconds)
	}
	if !pipeline.Fitted() {
		return nil, errors.Errorf("pipeline normalizes but carries no fitted statistics, restore them before streaming")
	}
	return &Streamer{
		Source:        source,
		Pipeline:      pipeline,
		Model:         model,
		WindowSeconds: windowSeconds,
		Emitters:      emitters,
		Log:           logging.Logger,
		session:       uuid.New(),
		now:           time.Now,
		sleep:         time.Sleep,
	}, nil
}

// Session identifies this run in emitted events.
func (s *Streamer) Session() uuid.UUID {
	return s.session
}

// State reports the current loop phase. Safe to call from other
// goroutines.
func (s *Streamer) State() State {
	return State(atomic.LoadInt32(&s.state))
}

func (s *Streamer) setState(state State) {
	atomic.StoreInt32(&s.state, int32(state))
}

// Run executes the inference loop until the source dies or ctx is
// cancelled. Cancellation is cooperative: an in-flight inference
// completes and its event is emitted before Run returns. Transient
// failures are logged and the loop moves on to the next cycle.
func (s *Streamer) Run(ctx context.Context) error {
	defer s.setState(StateIdle)

	period := time.Duration(float64(time.Second) / s.Source.Fs())
	index := 0
	for s.Source.Alive() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		start := s.now()
		s.setState(StateAcquiring)
		data, truth, err := s.Source.Window(s.WindowSeconds)
		if err != nil {
			var underrun UnderrunError
			if errors.As(err, &underrun) {
				// not enough signal yet: try again immediately,
				// the producer is the clock here
				s.setState(StateUnderrun)
				continue
			}
			s.Log.Warn("acquisition failed", zap.Int("index", index), zap.Error(err))
			continue
		}

		s.setState(StateInferring)
		label, err := s.infer(data)
		if err != nil {
			s.Log.Warn("inference failed", zap.Int("index", index), zap.Error(err))
		} else {
			event := PredictionEvent{
				Session: s.session,
				Index:   index,
				Label:   label,
				Truth:   truth,
				At:      s.now(),
			}
			for _, emitter := range s.Emitters {
				if err := emitter.Emit(event); err != nil {
					s.Log.Warn("emit failed", zap.Int("index", index), zap.Error(err))
				}
			}
			s.setState(StateEmitted)
			index++
		}

		if remaining := period - s.now().Sub(start); remaining > 0 {
			s.sleep(remaining)
		}
	}
	return nil
}

func (s *Streamer) infer(data [][]float64) (string, error) {
	window := signal.Window{Data: data}
	feature, err := s.Pipeline.TransformOne(window)
	if err != nil {
		return "", err
	}
	labels, err := s.Model.Predict([][]float64{feature})
	if err != nil {
		return "", err
	}
	return labels[0], nil
}
