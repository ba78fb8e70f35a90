package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braindrive/braindrive/braindrive-go/signal"
)

// subjectData builds a subject with the given sessions, each carrying
// numWindows windows labeled after the subject so provenance is checkable.
func subjectData(id int, sessions, numWindows int) Subject {
	sub := Subject{ID: id}
	group := id * 1000
	for s := 0; s < sessions; s++ {
		session := Session{ID: s}
		for w := 0; w < numWindows; w++ {
			session.Windows = append(session.Windows, signal.Window{Subject: id, Start: w})
			session.Labels = append(session.Labels, label(id))
			session.Groups = append(session.Groups, group)
			group++
		}
		sub.Sessions = append(sub.Sessions, session)
	}
	return sub
}

func label(id int) string {
	if id%2 == 0 {
		return "left hand"
	}
	return "right hand"
}

func TestLeaveOneSubjectOut(t *testing.T) {
	subjects := []Subject{
		subjectData(3, 1, 4),
		subjectData(1, 1, 4),
		subjectData(2, 1, 4),
		subjectData(5, 1, 4),
		subjectData(4, 1, 4),
	}
	s, err := New(Config{Topology: LeaveOneSubjectOut})
	require.NoError(t, err)

	folds, err := s.Split(subjects)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	seen := map[int]int{}
	for k, fold := range folds {
		require.Len(t, fold.TestSubjects, 1)
		test := fold.TestSubjects[0]
		seen[test]++

		// deterministic ordering: fold k tests the k-th smallest subject id
		assert.Equal(t, k+1, test)

		assert.Len(t, fold.TestWindows, 4)
		assert.Len(t, fold.TrainWindows, 16)
		assert.Len(t, fold.TrainLabels, len(fold.TrainWindows))
		assert.Len(t, fold.TrainGroups, len(fold.TrainWindows))

		for _, w := range fold.TrainWindows {
			assert.NotEqual(t, test, w.Subject, "test subject leaked into training data")
		}
		for _, w := range fold.TestWindows {
			assert.Equal(t, test, w.Subject)
		}
	}

	// every subject is tested exactly once
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1, 4: 1, 5: 1}, seen)
}

func TestKBuckets(t *testing.T) {
	var subjects []Subject
	for id := 1; id <= 5; id++ {
		subjects = append(subjects, subjectData(id, 1, 2))
	}
	s, err := New(Config{Topology: LeaveOneSubjectOut, Folds: 2})
	require.NoError(t, err)

	folds, err := s.Split(subjects)
	require.NoError(t, err)
	require.Len(t, folds, 2)

	// contiguous buckets over sorted ids: {1,2,3} and {4,5}
	assert.Equal(t, []int{1, 2, 3}, folds[0].TestSubjects)
	assert.Equal(t, []int{4, 5}, folds[1].TestSubjects)

	for _, fold := range folds {
		test := map[int]bool{}
		for _, id := range fold.TestSubjects {
			test[id] = true
		}
		for _, w := range fold.TrainWindows {
			assert.False(t, test[w.Subject])
		}
	}
}

func TestKBuckets_TooManyFolds(t *testing.T) {
	subjects := []Subject{subjectData(1, 1, 2), subjectData(2, 1, 2)}
	s, err := New(Config{Folds: 2})
	require.NoError(t, err)
	_, err = s.Split(subjects)
	require.Error(t, err)
}

func TestShuffleIsSeededAndReproducible(t *testing.T) {
	var subjects []Subject
	for id := 1; id <= 8; id++ {
		subjects = append(subjects, subjectData(id, 1, 1))
	}

	order := func(seed int64) []int {
		s, err := New(Config{Folds: 4, Shuffle: true, Seed: seed})
		require.NoError(t, err)
		folds, err := s.Split(subjects)
		require.NoError(t, err)
		var ids []int
		for _, f := range folds {
			ids = append(ids, f.TestSubjects...)
		}
		return ids
	}

	assert.Equal(t, order(12), order(12), "same seed must give the same folds")
	assert.NotEqual(t, order(12), order(99), "different seeds should bucket differently")
}

func TestIndependentSessions(t *testing.T) {
	subjects := []Subject{
		subjectData(1, 3, 2),
		subjectData(2, 2, 2),
		subjectData(3, 1, 2), // single session, skipped
	}
	s, err := New(Config{Topology: IndependentSessions})
	require.NoError(t, err)

	folds, err := s.Split(subjects)
	require.NoError(t, err)
	require.Len(t, folds, 2)

	first := folds[0]
	assert.Equal(t, []int{1}, first.TestSubjects)
	assert.Len(t, first.TrainWindows, 4, "sessions 0 and 1 train")
	assert.Len(t, first.TestWindows, 2, "last session held out")

	// same subject on both sides, but sessions are disjoint
	trainGroups := map[int]bool{}
	for _, g := range first.TrainGroups {
		trainGroups[g] = true
	}
	for _, g := range first.TestGroups {
		assert.False(t, trainGroups[g], "held-out session leaked into training data")
	}
}

func TestIndependentSessions_NoEligibleSubjects(t *testing.T) {
	s, err := New(Config{Topology: IndependentSessions})
	require.NoError(t, err)
	_, err = s.Split([]Subject{subjectData(1, 1, 2)})
	require.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	_, err := New(Config{Topology: "sideways"})
	require.Error(t, err)

	_, err = New(Config{SessionPolicy: "hold_out_first"})
	require.Error(t, err)

	_, err = New(Config{Folds: -1})
	require.Error(t, err)
}
