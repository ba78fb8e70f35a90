package features

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// spectrum computes average band powers over the real FFT of each
// channel. The FFT plan is cached per window length, since all windows
// of one run share a length.
type spectrum struct {
	fs    float64
	bands []Band

	n   int
	fft *fourier.FFT
}

func newSpectrum(fs float64, bands []Band) *spectrum {
	return &spectrum{fs: fs, bands: bands}
}

// bandPowers concatenates, band-major, the average spectral power of
// every channel in every configured band.
func (s *spectrum) bandPowers(data [][]float64, scale float64) []float64 {
	out := make([]float64, 0, len(s.bands)*len(data))
	powers := make([][]float64, len(data))
	for c, ch := range data {
		powers[c] = s.powerSpectrum(ch, scale)
	}
	for _, band := range s.bands {
		for c := range data {
			out = append(out, s.avgPower(powers[c], band))
		}
	}
	return out
}

// powerSpectrum returns |X_k|^2 / n for the n/2+1 real-FFT coefficients.
func (s *spectrum) powerSpectrum(x []float64, scale float64) []float64 {
	n := len(x)
	if s.fft == nil || s.n != n {
		s.fft = fourier.NewFFT(n)
		s.n = n
	}
	seq := x
	if scale != 1 {
		seq = make([]float64, n)
		for i, v := range x {
			seq[i] = v * scale
		}
	}
	coeff := s.fft.Coefficients(nil, seq)
	power := make([]float64, len(coeff))
	for k, c := range coeff {
		re, im := real(c), imag(c)
		power[k] = (re*re + im*im) / float64(n)
	}
	return power
}

// avgPower averages the power of the bins falling inside band. A band
// narrower than the frequency resolution takes the single nearest bin
// rather than coming back empty.
func (s *spectrum) avgPower(power []float64, band Band) float64 {
	var sum float64
	var count int
	nearest := 0
	nearestDist := -1.0
	center := (band.Low + band.High) / 2

	for k := range power {
		hz := s.fft.Freq(k) * s.fs
		if hz >= band.Low && hz <= band.High {
			sum += power[k]
			count++
		}
		dist := hz - center
		if dist < 0 {
			dist = -dist
		}
		if nearestDist < 0 || dist < nearestDist {
			nearestDist = dist
			nearest = k
		}
	}
	if count == 0 {
		return power[nearest]
	}
	return sum / float64(count)
}

// BandPresets are the conventional EEG analysis bands, usable directly
// as pipeline configurations.
var BandPresets = map[string]Config{
	"theta":   {Kind: AvgBandPower, FFTLow: 4, FFTHigh: 7},
	"alpha":   {Kind: AvgBandPower, FFTLow: 7, FFTHigh: 14},
	"beta":    {Kind: AvgBandPower, FFTLow: 14, FFTHigh: 30},
	"gamma":   {Kind: AvgBandPower, FFTLow: 30, FFTHigh: 40},
	"range30": {Kind: BandPowerRange, FFTLow: 4, FFTHigh: 30, FFTStep: 2, FFTWidth: 2},
	"range40": {Kind: BandPowerRange, FFTLow: 2, FFTHigh: 40, FFTStep: 2, FFTWidth: 2},
}
