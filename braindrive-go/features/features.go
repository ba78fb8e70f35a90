// Package features converts analysis windows into model-ready feature
// vectors through a configuration-selected transform chain.
//
// Fitting and transforming are strictly separated: any normalization
// statistics are computed from training windows only (FitTransform) and
// frozen for application to test or online windows (Transform). The same
// pipeline object serves the offline batch path and the online streaming
// path, so the two can never diverge.
package features

import (
	"fmt"

	"github.com/braindrive/braindrive/braindrive-go/signal"
	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// Kind enumerates the recognized transform kinds.
type Kind string

const (
	// Raw passes the window through unchanged (flattened), with optional
	// channel-wise standardization. For models that consume raw signal.
	Raw Kind = "raw"
	// TimeStats concatenates per-channel time-domain statistics:
	// waveform length, zero crossings, slope-sign changes and RMS.
	TimeStats Kind = "time_stats"
	// AvgBandPower is the average spectral power of a single band.
	AvgBandPower Kind = "avg_band_power"
	// MultiBandPower concatenates the average power of several bands.
	MultiBandPower Kind = "multi_band_power"
	// BandPowerRange is a bank of narrow adjacent bands swept between
	// FFTLow and FFTHigh.
	BandPowerRange Kind = "band_power_range"
	// Custom delegates to a caller-supplied transformer object.
	Custom Kind = "custom"
)

// microVolt rescales recorded volts to microvolts.
const microVolt = 1e6

// Band is an inclusive frequency band in Hz.
type Band struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Transformer is the capability a custom pipeline object must expose.
type Transformer interface {
	FitTransform(windows []signal.Window) ([][]float64, error)
	Transform(windows []signal.Window) ([][]float64, error)
}

// Config selects and parameterizes a feature pipeline. Construction-time
// validation means a bad configuration fails before any data is seen.
type Config struct {
	Kind Kind `yaml:"kind"`
	// Fs is the sampling rate of the windows, required by the spectral
	// kinds.
	Fs float64 `yaml:"fs"`
	// MicroVolts applies a volts-to-microvolts unit scaling before any
	// other transform.
	MicroVolts bool `yaml:"micro_volts"`
	// Normalize standardizes features with statistics fitted on the
	// training windows only.
	Normalize bool `yaml:"normalize"`

	FFTLow   float64 `yaml:"fft_low"`
	FFTHigh  float64 `yaml:"fft_high"`
	FFTStep  float64 `yaml:"fft_step"`
	FFTWidth float64 `yaml:"fft_width"`
	// Bands lists the (low, high) pairs for MultiBandPower.
	Bands []Band `yaml:"fft_ranges"`

	// Object carries the caller-supplied pipeline for the Custom kind.
	// It must satisfy Transformer.
	Object interface{} `yaml:"-"`
}

// UnknownFeatureTypeError reports an unrecognized transform kind.
type UnknownFeatureTypeError struct {
	Kind Kind
}

func (e UnknownFeatureTypeError) Error() string {
	return fmt.Sprintf("unknown feature type %q", e.Kind)
}

// MissingSamplingRateError reports a spectral transform configured
// without a sampling rate.
type MissingSamplingRateError struct {
	Kind Kind
}

func (e MissingSamplingRateError) Error() string {
	return fmt.Sprintf("feature type %q requires a sampling rate", e.Kind)
}

// InvalidPipelineObjectError reports a custom pipeline object that does
// not expose the required fit/transform capability.
type InvalidPipelineObjectError struct {
	Object interface{}
}

func (e InvalidPipelineObjectError) Error() string {
	return fmt.Sprintf("custom pipeline object %T does not implement FitTransform/Transform", e.Object)
}

// Pipeline is a configured transform chain. The zero value is not
// usable; construct with NewPipeline.
type Pipeline struct {
	cfg    Config
	bands  []Band
	custom Transformer

	fft *spectrum

	// fitted normalization state, nil until FitTransform
	scaler scaler
}

// NewPipeline validates cfg and builds the transform chain.
func NewPipeline(cfg Config) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg}

	switch cfg.Kind {
	case Raw, TimeStats:
	case AvgBandPower:
		if cfg.Fs <= 0 {
			return nil, MissingSamplingRateError{Kind: cfg.Kind}
		}
		if len(cfg.Bands) > 0 {
			return nil, errors.Errorf("feature type %q takes fft_low/fft_high, not fft_ranges", cfg.Kind)
		}
		p.bands = []Band{{Low: cfg.FFTLow, High: cfg.FFTHigh}}
	case MultiBandPower:
		if cfg.Fs <= 0 {
			return nil, MissingSamplingRateError{Kind: cfg.Kind}
		}
		if len(cfg.Bands) == 0 {
			return nil, errors.Errorf("feature type %q requires at least one band", cfg.Kind)
		}
		p.bands = cfg.Bands
	case BandPowerRange:
		if cfg.Fs <= 0 {
			return nil, MissingSamplingRateError{Kind: cfg.Kind}
		}
		if len(cfg.Bands) > 0 {
			return nil, errors.Errorf("feature type %q sweeps fft_low/fft_high, not fft_ranges", cfg.Kind)
		}
		bands, err := sweepBands(cfg.FFTLow, cfg.FFTHigh, cfg.FFTStep, cfg.FFTWidth)
		if err != nil {
			return nil, err
		}
		p.bands = bands
	case Custom:
		tr, ok := cfg.Object.(Transformer)
		if !ok {
			return nil, InvalidPipelineObjectError{Object: cfg.Object}
		}
		p.custom = tr
	default:
		return nil, UnknownFeatureTypeError{Kind: cfg.Kind}
	}

	for _, b := range p.bands {
		if b.High <= b.Low || b.Low < 0 {
			return nil, errors.Errorf("invalid frequency band [%v, %v]", b.Low, b.High)
		}
	}
	if len(p.bands) > 0 {
		p.fft = newSpectrum(cfg.Fs, p.bands)
	}
	return p, nil
}

// Kind returns the configured transform kind.
func (p *Pipeline) Kind() Kind { return p.cfg.Kind }

// FitTransform extracts features from training windows and fits any
// normalization statistics on them.
func (p *Pipeline) FitTransform(windows []signal.Window) ([][]float64, error) {
	if p.custom != nil {
		return p.custom.FitTransform(windows)
	}
	x, err := p.extractAll(windows)
	if err != nil {
		return nil, err
	}
	if p.cfg.Normalize {
		p.scaler = p.newScaler(windows)
		p.scaler.fit(x)
		for _, row := range x {
			p.scaler.apply(row)
		}
	}
	return x, nil
}

// Transform extracts features from test or online windows, applying
// frozen fit-time statistics. It never updates fitted state.
func (p *Pipeline) Transform(windows []signal.Window) ([][]float64, error) {
	if p.custom != nil {
		return p.custom.Transform(windows)
	}
	x, err := p.extractAll(windows)
	if err != nil {
		return nil, err
	}
	if p.cfg.Normalize {
		if p.scaler == nil {
			return nil, errors.Errorf("pipeline normalization requested before fitting")
		}
		for _, row := range x {
			p.scaler.apply(row)
		}
	}
	return x, nil
}

// FitState returns the frozen normalization statistics of a fitted
// pipeline so they can be persisted next to the model. It is nil when
// the pipeline does not normalize, has not been fitted, or delegates
// to a custom transformer.
func (p *Pipeline) FitState() *FitState {
	if p.scaler == nil {
		return nil
	}
	return p.scaler.state()
}

// RestoreFit installs statistics captured from an earlier fit, so
// Transform can run without ever seeing the training windows.
func (p *Pipeline) RestoreFit(st *FitState) error {
	if !p.cfg.Normalize {
		return errors.Errorf("pipeline does not normalize, nothing to restore")
	}
	if st == nil || len(st.Mean) == 0 || len(st.Mean) != len(st.Std) {
		return errors.Errorf("fitted statistics are missing or malformed")
	}
	if st.Channels > 0 {
		p.scaler = &channelScaler{channels: st.Channels, mean: st.Mean, std: st.Std}
	} else {
		p.scaler = &standardScaler{mean: st.Mean, std: st.Std}
	}
	return nil
}

// Fitted reports whether Transform can run: a normalizing pipeline
// needs fitted or restored statistics first.
func (p *Pipeline) Fitted() bool {
	return !p.cfg.Normalize || p.custom != nil || p.scaler != nil
}

// TransformOne is Transform for a single window, the shape used by the
// online inference loop.
func (p *Pipeline) TransformOne(w signal.Window) ([]float64, error) {
	x, err := p.Transform([]signal.Window{w})
	if err != nil {
		return nil, err
	}
	return x[0], nil
}

func (p *Pipeline) extractAll(windows []signal.Window) ([][]float64, error) {
	if len(windows) == 0 {
		return nil, errors.Errorf("no windows to transform")
	}
	out := make([][]float64, len(windows))
	for i, w := range windows {
		out[i] = p.extract(w)
	}
	return out, nil
}

// extract computes the feature vector of one window. The result always
// owns its memory; window data is never written through.
func (p *Pipeline) extract(w signal.Window) []float64 {
	scale := 1.0
	if p.cfg.MicroVolts {
		scale = microVolt
	}
	switch p.cfg.Kind {
	case Raw:
		out := make([]float64, 0, w.Channels()*w.Samples())
		for _, ch := range w.Data {
			for _, v := range ch {
				out = append(out, v*scale)
			}
		}
		return out
	case TimeStats:
		return timeStats(w.Data, scale)
	default:
		return p.fft.bandPowers(w.Data, scale)
	}
}

func (p *Pipeline) newScaler(windows []signal.Window) scaler {
	if p.cfg.Kind == Raw {
		// raw vectors keep channel structure; standardize channel-wise
		return &channelScaler{channels: windows[0].Channels()}
	}
	return &standardScaler{}
}

// sweepBands builds the adjacent narrow-band bank of BandPowerRange:
// a band of the given width starting every step Hz between low and high.
func sweepBands(low, high, step, width float64) ([]Band, error) {
	if step <= 0 || width <= 0 || high <= low {
		return nil, errors.Errorf("invalid band sweep fft_low=%v fft_high=%v fft_step=%v fft_width=%v", low, high, step, width)
	}
	var bands []Band
	for f := low; f+width <= high+1e-9; f += step {
		bands = append(bands, Band{Low: f, High: f + width})
	}
	if len(bands) == 0 {
		return nil, errors.Errorf("band sweep [%v, %v] narrower than fft_width %v", low, high, width)
	}
	return bands, nil
}
