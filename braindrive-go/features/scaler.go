package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// FitState is the frozen normalization statistics of a fitted
// pipeline, in a shape that survives a JSON round trip. Channels is
// zero for column-wise scaling and the channel count for channel-wise
// raw scaling.
type FitState struct {
	Mean     []float64 `json:"mean"`
	Std      []float64 `json:"std"`
	Channels int       `json:"channels,omitempty"`
}

// scaler standardizes feature vectors with statistics learned at fit
// time. Implementations must never update state inside apply: fitted
// statistics are frozen so test and online windows cannot leak into them.
type scaler interface {
	fit(x [][]float64)
	apply(row []float64)
	state() *FitState
}

// safeStd replaces a degenerate deviation with 1 so standardization
// never divides by zero. A single training window yields NaN from
// stat.MeanStdDev, a constant column yields 0.
func safeStd(std float64) float64 {
	if std == 0 || math.IsNaN(std) {
		return 1
	}
	return std
}

// standardScaler standardizes every feature column to zero mean and unit
// variance.
type standardScaler struct {
	mean []float64
	std  []float64
}

func (s *standardScaler) fit(x [][]float64) {
	cols := len(x[0])
	s.mean = make([]float64, cols)
	s.std = make([]float64, cols)
	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		s.mean[j] = mean
		s.std[j] = safeStd(std)
	}
}

func (s *standardScaler) apply(row []float64) {
	for j := range row {
		row[j] = (row[j] - s.mean[j]) / safeStd(s.std[j])
	}
}

func (s *standardScaler) state() *FitState {
	return &FitState{Mean: s.mean, Std: s.std}
}

// Mean exposes the fitted per-column means for inspection in tests.
func (s *standardScaler) Mean() []float64 { return s.mean }

// channelScaler standardizes a flattened raw window channel-wise: every
// sample of a channel shares that channel's mean and deviation, learned
// over all training windows.
type channelScaler struct {
	channels int
	mean     []float64
	std      []float64
}

func (s *channelScaler) fit(x [][]float64) {
	s.mean = make([]float64, s.channels)
	s.std = make([]float64, s.channels)
	samples := len(x[0]) / s.channels
	var block []float64
	for c := 0; c < s.channels; c++ {
		block = block[:0]
		for i := range x {
			block = append(block, x[i][c*samples:(c+1)*samples]...)
		}
		mean, std := stat.MeanStdDev(block, nil)
		s.mean[c] = mean
		s.std[c] = safeStd(std)
	}
}

func (s *channelScaler) apply(row []float64) {
	samples := len(row) / s.channels
	for c := 0; c < s.channels; c++ {
		std := safeStd(s.std[c])
		for i := c * samples; i < (c+1)*samples; i++ {
			row[i] = (row[i] - s.mean[c]) / std
		}
	}
}

func (s *channelScaler) state() *FitState {
	return &FitState{Mean: s.mean, Std: s.std, Channels: s.channels}
}
