package features

import "math"

// timeStats computes the classic time-domain statistic set per channel
// and concatenates the results feature-major: all waveform lengths, then
// all zero-crossing counts, all slope-sign changes, all RMS values.
func timeStats(data [][]float64, scale float64) []float64 {
	channels := len(data)
	out := make([]float64, 0, 4*channels)
	for _, ch := range data {
		out = append(out, waveformLength(ch, scale))
	}
	for _, ch := range data {
		out = append(out, float64(zeroCrossings(ch)))
	}
	for _, ch := range data {
		out = append(out, float64(slopeSignChanges(ch)))
	}
	for _, ch := range data {
		out = append(out, rms(ch, scale))
	}
	return out
}

// waveformLength is the cumulative absolute first difference.
func waveformLength(x []float64, scale float64) float64 {
	var sum float64
	for i := 1; i < len(x); i++ {
		sum += math.Abs(x[i] - x[i-1])
	}
	return sum * scale
}

// zeroCrossings counts strict sign changes between consecutive samples.
// Unit scaling cannot change the count, so none is applied.
func zeroCrossings(x []float64) int {
	var n int
	for i := 1; i < len(x); i++ {
		if x[i]*x[i-1] < 0 {
			n++
		}
	}
	return n
}

// slopeSignChanges counts reversals of the first-difference sign.
func slopeSignChanges(x []float64) int {
	var n int
	for i := 1; i < len(x)-1; i++ {
		if (x[i]-x[i-1])*(x[i+1]-x[i]) < 0 {
			n++
		}
	}
	return n
}

func rms(x []float64, scale float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum/float64(len(x))) * scale
}
