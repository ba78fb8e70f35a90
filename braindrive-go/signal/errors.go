package signal

import "fmt"

// InsufficientDataError reports that no window can be formed from the
// available samples. The caller must supply more data or shrink the window.
type InsufficientDataError struct {
	Samples   int // samples available per channel
	WindowLen int // requested window length in samples
	Step      int // window step in samples
}

func (e InsufficientDataError) Error() string {
	return fmt.Sprintf("cannot form a %d-sample window (step %d) from %d samples", e.WindowLen, e.Step, e.Samples)
}

// InvalidParameterError reports a windowing parameter that is rejected
// before any computation, such as a negative step or non-positive length.
type InvalidParameterError struct {
	Param string
	Value float64
}

func (e InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid windowing parameter %s=%v", e.Param, e.Value)
}
