package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ramp builds a channels x samples matrix where sample j of channel c
// holds the value c*10000 + j, so window contents are easy to verify.
func ramp(channels, samples int) [][]float64 {
	data := make([][]float64, channels)
	for c := range data {
		data[c] = make([]float64, samples)
		for j := range data[c] {
			data[c][j] = float64(c*10000 + j)
		}
	}
	return data
}

func TestSlide_Sliding(t *testing.T) {
	// 3 channels, 1000 samples at 100 Hz, 2 s windows every 0.5 s.
	data := ramp(3, 1000)
	sg, err := NewSegmenter(2, 0.5)
	require.NoError(t, err)

	windows, err := sg.Slide(data, 100)
	require.NoError(t, err)
	require.Len(t, windows, 17)

	for i, w := range windows {
		assert.Equal(t, i*50, w.Start)
		assert.Equal(t, 3, w.Channels())
		assert.Equal(t, 200, w.Samples())
		for c := 0; c < 3; c++ {
			assert.Equal(t, data[c][i*50:i*50+200], w.Data[c])
		}
	}
	assert.Equal(t, data[0][0:200], windows[0].Data[0])
	assert.Equal(t, data[0][800:1000], windows[16].Data[0])
}

func TestSlide_AliasesBackingBuffer(t *testing.T) {
	data := ramp(2, 100)
	sg, err := NewSegmenter(0.5, 0.25)
	require.NoError(t, err)

	windows, err := sg.Slide(data, 100)
	require.NoError(t, err)
	require.NotEmpty(t, windows)

	// mutating the backing buffer must be visible through the window view
	data[0][0] = -1
	assert.Equal(t, -1.0, windows[0].Data[0][0])
	assert.Same(t, &data[0][25], &windows[1].Data[0][0])
}

func TestSlideCopy_OwnsItsSamples(t *testing.T) {
	data := ramp(2, 100)
	sg, err := NewSegmenter(0.5, 0.25)
	require.NoError(t, err)

	windows, err := sg.SlideCopy(data, 100)
	require.NoError(t, err)
	require.NotEmpty(t, windows)

	want := windows[0].Data[0][0]
	data[0][0] = -1
	assert.Equal(t, want, windows[0].Data[0][0], "copied window must not see producer overwrites")
}

func TestSlide_ZeroStep(t *testing.T) {
	data := ramp(2, 1000)
	sg, err := NewSegmenter(2, 0)
	require.NoError(t, err)

	windows, err := sg.Slide(data, 100)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 0, windows[0].Start)
	assert.Equal(t, data[0][:200], windows[0].Data[0])
	assert.Equal(t, data[1][:200], windows[0].Data[1])
}

func TestSlide_ParameterErrors(t *testing.T) {
	_, err := NewSegmenter(2, -0.5)
	var invalid InvalidParameterError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "window_step", invalid.Param)

	_, err = NewSegmenter(0, 0.5)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "window_length", invalid.Param)

	sg := Segmenter{Length: 1, Step: -1}
	_, err = sg.Slide(ramp(1, 500), 100)
	require.ErrorAs(t, err, &invalid)
}

func TestSlide_InsufficientData(t *testing.T) {
	sg, err := NewSegmenter(2, 0.5)
	require.NoError(t, err)

	// window longer than the data
	_, err = sg.Slide(ramp(3, 100), 100)
	var insufficient InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 100, insufficient.Samples)
	assert.Equal(t, 200, insufficient.WindowLen)

	// whole-epoch mode with short data
	sg, err = NewSegmenter(2, 0)
	require.NoError(t, err)
	_, err = sg.Slide(ramp(3, 100), 100)
	require.ErrorAs(t, err, &insufficient)
}

func TestNumWindows(t *testing.T) {
	sg := Segmenter{Length: 2, Step: 0.5}
	assert.Equal(t, 17, sg.NumWindows(1000, 100))
	assert.Equal(t, 0, sg.NumWindows(100, 100))

	whole := Segmenter{Length: 2, Step: 0}
	assert.Equal(t, 1, whole.NumWindows(1000, 100))
	assert.Equal(t, 0, whole.NumWindows(100, 100))
}

func TestSlideEpochs(t *testing.T) {
	epochs := []Epoch{
		{Subject: 1, Label: "left hand", Fs: 100, Data: ramp(2, 400)},
		{Subject: 1, Label: "rest", Fs: 100, Data: ramp(2, 400)},
		{Subject: 2, Label: "right hand", Fs: 100, Data: ramp(2, 400)},
	}
	sg, err := NewSegmenter(1, 0.5)
	require.NoError(t, err)

	windowed, err := sg.SlideEpochs(epochs)
	require.NoError(t, err)
	require.Len(t, windowed, 3)
	for i, ws := range windowed {
		assert.Len(t, ws, 7)
		for _, w := range ws {
			assert.Equal(t, epochs[i].Subject, w.Subject)
			assert.Equal(t, i, w.Epoch)
			assert.Equal(t, 100, w.Samples())
		}
	}
}

func TestSlideEpochs_MixedDurations(t *testing.T) {
	epochs := []Epoch{
		{Subject: 1, Fs: 100, Data: ramp(2, 400)},
		{Subject: 1, Fs: 100, Data: ramp(2, 300)},
	}
	sg, err := NewSegmenter(1, 0.5)
	require.NoError(t, err)

	_, err = sg.SlideEpochs(epochs)
	var invalid InvalidParameterError
	require.ErrorAs(t, err, &invalid)
}
