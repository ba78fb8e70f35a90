package results

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog(t *testing.T) *Log {
	return OpenLog(filepath.Join(t.TempDir(), "results.csv"))
}

func TestLog_AppendAndReadBack(t *testing.T) {
	log := testLog(t)

	require.NoError(t, log.Append("1", []float64{0.75, 0.85}))
	require.NoError(t, log.Append("2", []float64{0.5}))

	rows, err := log.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "1", rows[0].Subject)
	assert.Equal(t, AccuracyList{0.75, 0.85}, rows[0].Accuracies)
	assert.InDelta(t, 0.8, rows[0].Avg, 1e-9)
	assert.InDelta(t, 0.05, rows[0].Std, 1e-9)

	assert.Equal(t, "2", rows[1].Subject)
	assert.InDelta(t, 0.5, rows[1].Avg, 1e-9)
	assert.Zero(t, rows[1].Std)
}

func TestLog_HeaderWrittenOnce(t *testing.T) {
	log := testLog(t)
	require.NoError(t, log.Append("1", []float64{1}))
	require.NoError(t, log.Append("2", []float64{0}))

	raw, err := ioutil.ReadFile(log.path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Subject,Accuracy list,Std of Avg. Acc,Avg. Acc", lines[0])
	assert.Equal(t, 1, strings.Count(string(raw), "Subject,"))
}

func TestLog_DoneTracksRecordedSubjects(t *testing.T) {
	log := testLog(t)

	done, err := log.Done()
	require.NoError(t, err)
	assert.Empty(t, done)

	require.NoError(t, log.Append("3", []float64{0.9}))
	require.NoError(t, log.Append("7", []float64{0.6}))

	done, err = log.Done()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"3": true, "7": true}, done)
}

func TestLog_Summary(t *testing.T) {
	log := testLog(t)

	summary, err := log.Summary()
	require.NoError(t, err)
	assert.Equal(t, "no results recorded", summary)

	require.NoError(t, log.Append("1", []float64{0.8}))
	require.NoError(t, log.Append("2", []float64{0.6}))

	summary, err = log.Summary()
	require.NoError(t, err)
	assert.Equal(t, "2 subjects, mean accuracy 0.7000", summary)
}

func TestLog_AppendRejectsEmpty(t *testing.T) {
	require.Error(t, testLog(t).Append("1", nil))
}

func TestAccuracyList_CSVRoundTrip(t *testing.T) {
	cell, err := AccuracyList{0.8125, 0.75}.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "0.8125,0.7500", cell)

	var list AccuracyList
	require.NoError(t, list.UnmarshalCSV(cell))
	assert.Equal(t, AccuracyList{0.8125, 0.75}, list)

	require.NoError(t, list.UnmarshalCSV(""))
	assert.Empty(t, list)

	require.Error(t, list.UnmarshalCSV("abc"))
}
