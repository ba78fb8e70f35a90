package modelstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braindrive/braindrive/braindrive-go/classify"
	"github.com/braindrive/braindrive/braindrive-go/features"
)

func openTestStore(t *testing.T) *Store {
	store, err := Open(filepath.Join(t.TempDir(), "models"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func fittedForest(t *testing.T) *classify.Forest {
	x := [][]float64{{0, 0}, {0, 1}, {1, 0}, {10, 10}, {10, 11}, {11, 10}}
	y := []string{"left", "left", "left", "right", "right", "right"}
	forest := classify.NewForest(classify.Config{Type: classify.TypeForest, Trees: 5, Seed: 1})
	require.NoError(t, forest.Fit(x, y))
	return forest
}

func TestStore_PutAndModel(t *testing.T) {
	store := openTestStore(t)
	forest := fittedForest(t)

	require.NoError(t, store.Put("3", forest, nil))

	restored, fit, err := store.Model("3")
	require.NoError(t, err)
	assert.Nil(t, fit)

	input := [][]float64{{0, 0}, {10, 10}}
	want, err := forest.Predict(input)
	require.NoError(t, err)
	got, err := restored.Predict(input)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_PutAndModelKeepsFitState(t *testing.T) {
	store := openTestStore(t)
	forest := fittedForest(t)

	fit := &features.FitState{Mean: []float64{0.5, -2}, Std: []float64{1.25, 3}}
	require.NoError(t, store.Put("3", forest, fit))

	_, restored, err := store.Model("3")
	require.NoError(t, err)
	assert.Equal(t, fit, restored)
}

func TestStore_ModelNotFound(t *testing.T) {
	store := openTestStore(t)
	_, _, err := store.Model("9")
	var notFound ModelNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "9", notFound.Subject)
}

func TestStore_Meta(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Meta()
	require.Error(t, err)

	meta := Meta{
		Database: "physionet-mi",
		Feature: features.Config{
			Kind:    features.AvgBandPower,
			Fs:      160,
			FFTLow:  7,
			FFTHigh: 14,
		},
		CreatedAt: time.Date(2021, 3, 4, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.PutMeta(meta))

	got, err := store.Meta()
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestStore_Subjects(t *testing.T) {
	store := openTestStore(t)
	forest := fittedForest(t)

	subjects, err := store.Subjects()
	require.NoError(t, err)
	assert.Empty(t, subjects)

	for _, subject := range []string{"2", "10", "1"} {
		require.NoError(t, store.Put(subject, forest, nil))
	}

	subjects, err = store.Subjects()
	require.NoError(t, err)
	// leveldb key order is lexicographic
	assert.Equal(t, []string{"1", "10", "2"}, subjects)
}
