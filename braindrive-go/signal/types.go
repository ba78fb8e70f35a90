// Package signal holds the sample-level data model for multichannel
// brain-signal recordings and the sliding-window segmenter that turns
// continuous or epoched data into fixed-length analysis frames.
package signal

// Recording is an ordered multichannel sample matrix (channels x time)
// with its sampling rate and an optional per-sample label stream.
// A Recording is immutable once constructed.
type Recording struct {
	// Data is laid out channels x time. All channels have equal length.
	Data [][]float64
	// Fs is the sampling rate in Hz.
	Fs float64
	// Labels optionally carries one label per sample (ground truth during
	// recording). Empty when no label stream was captured.
	Labels []string
}

// Samples returns the number of samples per channel.
func (r Recording) Samples() int {
	if len(r.Data) == 0 {
		return 0
	}
	return len(r.Data[0])
}

// Channels returns the number of channels.
func (r Recording) Channels() int { return len(r.Data) }

// Epoch is a labeled, task-onset aligned sub-interval of a Recording.
// Epochs are created by external segmentation and consumed read-only here.
type Epoch struct {
	Subject int
	Session int
	Label   string
	Fs      float64
	// Data is laid out channels x time.
	Data [][]float64
}

// Samples returns the number of samples per channel.
func (e Epoch) Samples() int {
	if len(e.Data) == 0 {
		return 0
	}
	return len(e.Data[0])
}

// Window is a fixed-length frame extracted from an epoch or a live buffer.
//
// In the offline batch path the channel slices alias the backing epoch
// buffer (no copy); the Window lifetime is tied to the backing array and
// the data must never be mutated through it. Windows handed out from a
// live buffer are always copies, because the producer may overwrite the
// buffer region before the consumer is done.
type Window struct {
	Subject int
	// Epoch identifies the source epoch within a windowing call.
	Epoch int
	// Start is the offset of the first sample within the source, in samples.
	Start int
	// Data is laid out channels x window length.
	Data [][]float64
}

// Samples returns the window length in samples.
func (w Window) Samples() int {
	if len(w.Data) == 0 {
		return 0
	}
	return len(w.Data[0])
}

// Channels returns the number of channels.
func (w Window) Channels() int { return len(w.Data) }
