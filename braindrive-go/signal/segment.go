package signal

import "math"

// Segmenter extracts fixed-length, possibly overlapping windows from a
// channels x time sample matrix. Length and Step are in seconds and are
// converted to sample counts against the sampling rate of the data.
//
// Step semantics:
//   - Step > 0: sliding windows, window i starts at sample i*step.
//   - Step == 0: degenerate whole-epoch mode, a single window of the
//     first Length seconds.
//   - Step < 0: rejected with InvalidParameterError.
type Segmenter struct {
	Length float64 // window length in seconds
	Step   float64 // window step in seconds
}

// NewSegmenter validates the parameters eagerly so misconfiguration fails
// at construction rather than mid-run.
func NewSegmenter(length, step float64) (Segmenter, error) {
	if length <= 0 {
		return Segmenter{}, InvalidParameterError{Param: "window_length", Value: length}
	}
	if step < 0 {
		return Segmenter{}, InvalidParameterError{Param: "window_step", Value: step}
	}
	return Segmenter{Length: length, Step: step}, nil
}

// Counts converts the second-denominated parameters to sample counts.
func (sg Segmenter) Counts(fs float64) (winLen, step int) {
	return int(math.Round(sg.Length * fs)), int(math.Round(sg.Step * fs))
}

// NumWindows returns the number of windows Slide would produce for
// samples-per-channel n, or 0 when no full window fits.
func (sg Segmenter) NumWindows(n int, fs float64) int {
	winLen, step := sg.Counts(fs)
	if step == 0 {
		if n < winLen {
			return 0
		}
		return 1
	}
	overlap := winLen - step
	if n <= overlap {
		return 0
	}
	return (n - overlap) / step
}

// Slide produces the ordered window sequence over data (channels x time).
//
// The returned windows alias the backing buffer: each channel slice of a
// window is a sub-slice of the corresponding channel of data. This is the
// zero-copy batch path; callers must treat window data as read-only.
func (sg Segmenter) Slide(data [][]float64, fs float64) ([]Window, error) {
	return sg.slide(data, fs, false)
}

// SlideCopy is Slide with every window's samples copied out of the backing
// buffer. It is the variant for rotating live buffers, whose contents may
// be overwritten by the producer after this call returns.
func (sg Segmenter) SlideCopy(data [][]float64, fs float64) ([]Window, error) {
	return sg.slide(data, fs, true)
}

func (sg Segmenter) slide(data [][]float64, fs float64, copyOut bool) ([]Window, error) {
	if sg.Length <= 0 {
		return nil, InvalidParameterError{Param: "window_length", Value: sg.Length}
	}
	if sg.Step < 0 {
		return nil, InvalidParameterError{Param: "window_step", Value: sg.Step}
	}

	n := 0
	if len(data) > 0 {
		n = len(data[0])
	}
	winLen, step := sg.Counts(fs)

	if step == 0 {
		if n < winLen {
			return nil, InsufficientDataError{Samples: n, WindowLen: winLen, Step: step}
		}
		return []Window{makeWindow(data, 0, winLen, copyOut)}, nil
	}

	overlap := winLen - step
	if n <= overlap || (n-overlap)/step <= 0 {
		return nil, InsufficientDataError{Samples: n, WindowLen: winLen, Step: step}
	}
	numWindows := (n - overlap) / step

	windows := make([]Window, 0, numWindows)
	for i := 0; i < numWindows; i++ {
		windows = append(windows, makeWindow(data, i*step, winLen, copyOut))
	}
	return windows, nil
}

// SlideEpochs windows every epoch of a collection, producing an
// epochs x windows sequence. Epochs must share a common duration so the
// per-epoch window count is identical; mixing epoch lengths in one call
// is a caller error and yields InvalidParameterError.
func (sg Segmenter) SlideEpochs(epochs []Epoch) ([][]Window, error) {
	out := make([][]Window, 0, len(epochs))
	perEpoch := -1
	for i, ep := range epochs {
		ws, err := sg.Slide(ep.Data, ep.Fs)
		if err != nil {
			return nil, err
		}
		if perEpoch >= 0 && len(ws) != perEpoch {
			return nil, InvalidParameterError{Param: "epoch_duration", Value: float64(ep.Samples())}
		}
		perEpoch = len(ws)
		for j := range ws {
			ws[j].Subject = ep.Subject
			ws[j].Epoch = i
		}
		out = append(out, ws)
	}
	return out, nil
}

func makeWindow(data [][]float64, start, winLen int, copyOut bool) Window {
	chans := make([][]float64, len(data))
	for c := range data {
		view := data[c][start : start+winLen]
		if copyOut {
			owned := make([]float64, winLen)
			copy(owned, view)
			view = owned
		}
		chans[c] = view
	}
	return Window{Start: start, Data: chans}
}
