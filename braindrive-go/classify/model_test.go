package classify

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoBlobs returns linearly separable points around (0,0) and (10,10).
func twoBlobs(perClass int, seed int64) ([][]float64, []string) {
	rng := rand.New(rand.NewSource(seed))
	var x [][]float64
	var y []string
	for i := 0; i < perClass; i++ {
		x = append(x, []float64{rng.NormFloat64() * 0.5, rng.NormFloat64() * 0.5})
		y = append(y, "left")
	}
	for i := 0; i < perClass; i++ {
		x = append(x, []float64{10 + rng.NormFloat64()*0.5, 10 + rng.NormFloat64()*0.5})
		y = append(y, "right")
	}
	return x, y
}

func TestLDA_SeparatesBlobs(t *testing.T) {
	x, y := twoBlobs(20, 1)
	lda := NewLDA(Config{Type: TypeLDA})
	require.NoError(t, lda.Fit(x, y))

	pred, err := lda.Predict([][]float64{{-1, 0}, {11, 9}, {0.5, 0.5}, {10, 10}})
	require.NoError(t, err)
	assert.Equal(t, []string{"left", "right", "left", "right"}, pred)
}

func TestLDA_PredictBeforeFit(t *testing.T) {
	lda := NewLDA(Config{Type: TypeLDA})
	_, err := lda.Predict([][]float64{{0, 0}})
	require.Error(t, err)
}

func TestLDA_DimensionMismatch(t *testing.T) {
	x, y := twoBlobs(10, 2)
	lda := NewLDA(Config{Type: TypeLDA})
	require.NoError(t, lda.Fit(x, y))
	_, err := lda.Predict([][]float64{{1, 2, 3}})
	require.Error(t, err)
}

func TestForest_SeparatesBlobs(t *testing.T) {
	x, y := twoBlobs(20, 3)
	forest := NewForest(Config{Type: TypeForest, Trees: 20, Seed: 3})
	require.NoError(t, forest.Fit(x, y))

	pred, err := forest.Predict([][]float64{{0, 0}, {10, 10}, {-1, 1}, {9, 11}})
	require.NoError(t, err)
	assert.Equal(t, []string{"left", "right", "left", "right"}, pred)
}

func TestForest_DeterministicUnderSeed(t *testing.T) {
	x, y := twoBlobs(20, 4)
	probe := [][]float64{{5, 5}, {2, 7}, {8, 3}}

	var runs [][]string
	for i := 0; i < 2; i++ {
		forest := NewForest(Config{Type: TypeForest, Trees: 10, Seed: 42})
		require.NoError(t, forest.Fit(x, y))
		pred, err := forest.Predict(probe)
		require.NoError(t, err)
		runs = append(runs, pred)
	}
	assert.Equal(t, runs[0], runs[1])
}

func TestForest_SingleClass(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	y := []string{"rest", "rest", "rest"}
	forest := NewForest(Config{Type: TypeForest, Trees: 5, Seed: 1})
	require.NoError(t, forest.Fit(x, y))

	pred, err := forest.Predict([][]float64{{100, 100}})
	require.NoError(t, err)
	assert.Equal(t, []string{"rest"}, pred)
}

func TestVoting_SeparatesBlobs(t *testing.T) {
	x, y := twoBlobs(20, 5)
	voting, err := NewVoting(Config{Type: TypeVoting, Base: TypeLDA, Members: 3, Seed: 5})
	require.NoError(t, err)
	require.NoError(t, voting.Fit(x, y))
	require.Len(t, voting.Members, 3)

	pred, err := voting.Predict([][]float64{{0, 1}, {10, 9}})
	require.NoError(t, err)
	assert.Equal(t, []string{"left", "right"}, pred)
}

func TestVoting_RejectsNestedVoting(t *testing.T) {
	_, err := NewVoting(Config{Type: TypeVoting, Base: TypeVoting})
	require.Error(t, err)
}

func TestVoting_PredictBeforeFit(t *testing.T) {
	voting, err := NewVoting(Config{Type: TypeVoting})
	require.NoError(t, err)
	_, err = voting.Predict([][]float64{{0, 0}})
	require.Error(t, err)
}

func TestMarshalRoundTrip_Forest(t *testing.T) {
	x, y := twoBlobs(20, 6)
	forest := NewForest(Config{Type: TypeForest, Trees: 10, Seed: 6})
	require.NoError(t, forest.Fit(x, y))

	blob, err := MarshalClassifier(forest)
	require.NoError(t, err)

	restored, err := UnmarshalClassifier(blob)
	require.NoError(t, err)

	probe := [][]float64{{0, 0}, {10, 10}, {4, 4}, {6, 6}}
	want, err := forest.Predict(probe)
	require.NoError(t, err)
	got, err := restored.Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMarshalRoundTrip_LDA(t *testing.T) {
	x, y := twoBlobs(20, 7)
	lda := NewLDA(Config{Type: TypeLDA})
	require.NoError(t, lda.Fit(x, y))

	blob, err := MarshalClassifier(lda)
	require.NoError(t, err)
	restored, err := UnmarshalClassifier(blob)
	require.NoError(t, err)

	probe := [][]float64{{1, -1}, {9, 12}}
	want, err := lda.Predict(probe)
	require.NoError(t, err)
	got, err := restored.Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMarshalRoundTrip_Voting(t *testing.T) {
	x, y := twoBlobs(20, 8)
	voting, err := NewVoting(Config{Type: TypeVoting, Base: TypeForest, Members: 3, Trees: 5, Seed: 8})
	require.NoError(t, err)
	require.NoError(t, voting.Fit(x, y))

	blob, err := MarshalClassifier(voting)
	require.NoError(t, err)
	restored, err := UnmarshalClassifier(blob)
	require.NoError(t, err)

	probe := [][]float64{{0, 0}, {10, 10}}
	want, err := voting.Predict(probe)
	require.NoError(t, err)
	got, err := restored.Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUnmarshal_BadEnvelope(t *testing.T) {
	_, err := UnmarshalClassifier([]byte(`{"type":"svm","payload":{}}`))
	require.Error(t, err)
	_, err = UnmarshalClassifier([]byte(`not json`))
	require.Error(t, err)
}
