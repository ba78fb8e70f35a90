// Package split builds leakage-free train/test partitions over
// per-subject windowed data. The splitter understands two experiment
// topologies: cross-subject validation, where no subject appears on both
// sides of a fold, and cross-session validation, where training and
// held-out sessions of the same subject never overlap.
package split

import (
	"math/rand"
	"sort"

	"github.com/braindrive/braindrive/braindrive-go/signal"
	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// Topology selects the fold-construction rule.
type Topology string

const (
	// LeaveOneSubjectOut holds out one subject (or one bucket of
	// subjects) per fold, training on everyone else.
	LeaveOneSubjectOut Topology = "leave_one_subject_out"
	// IndependentSessions trains and tests on disjoint sessions of the
	// same subject, one fold per eligible subject.
	IndependentSessions Topology = "independent_sessions"
)

// SessionPolicy fixes which sessions become the held-out set in the
// IndependentSessions topology. It is an explicit policy value rather
// than something inferred from data layout.
type SessionPolicy string

const (
	// HoldOutLastSession tests on the chronologically last session of
	// each subject and trains on all earlier ones.
	HoldOutLastSession SessionPolicy = "hold_out_last_session"
)

// Config parameterizes a Splitter.
type Config struct {
	Topology Topology `yaml:"topology"`
	// Folds optionally groups subjects into k buckets instead of one
	// fold per subject. Must be < the number of subjects; 0 selects one
	// fold per subject. Only meaningful for LeaveOneSubjectOut.
	Folds int `yaml:"folds"`
	// Shuffle permutes the (sorted) subject order before bucketing.
	// Without it buckets are contiguous over the sorted subject ids.
	Shuffle bool `yaml:"shuffle"`
	// Seed drives every random choice the splitter makes. Splits are
	// fully deterministic for a fixed subject ordering and seed.
	Seed int64 `yaml:"seed"`
	// SessionPolicy selects the held-out sessions for the
	// IndependentSessions topology. Defaults to HoldOutLastSession.
	SessionPolicy SessionPolicy `yaml:"session_policy"`
}

// Session is one recording session of a subject, already windowed.
// Windows and Labels run in lock-step; Groups ties each window to its
// source epoch so downstream balancing can keep epochs together.
type Session struct {
	ID      int
	Windows []signal.Window
	Labels  []string
	Groups  []int
}

// Subject is all recorded data of one subject, ordered by session.
type Subject struct {
	ID       int
	Sessions []Session
}

// Fold is one train/test partition. The windows, labels and groups of
// each side are concatenated in deterministic subject order.
type Fold struct {
	// TestSubjects identifies the fold: the subject (or subject set)
	// whose data forms the test side. Used to key persisted models.
	TestSubjects []int

	TrainWindows []signal.Window
	TrainLabels  []string
	TrainGroups  []int

	TestWindows []signal.Window
	TestLabels  []string
	TestGroups  []int
}

// Splitter yields folds over per-subject data. A Splitter is stateless
// and may be reused across datasets.
type Splitter struct {
	cfg Config
}

// New validates cfg and returns a Splitter.
func New(cfg Config) (*Splitter, error) {
	switch cfg.Topology {
	case "", LeaveOneSubjectOut, IndependentSessions:
	default:
		return nil, errors.Errorf("unknown split topology %q", cfg.Topology)
	}
	if cfg.Topology == "" {
		cfg.Topology = LeaveOneSubjectOut
	}
	if cfg.SessionPolicy == "" {
		cfg.SessionPolicy = HoldOutLastSession
	}
	if cfg.SessionPolicy != HoldOutLastSession {
		return nil, errors.Errorf("unknown session policy %q", cfg.SessionPolicy)
	}
	if cfg.Folds < 0 {
		return nil, errors.Errorf("fold count must be non-negative, got %d", cfg.Folds)
	}
	return &Splitter{cfg: cfg}, nil
}

// Split partitions subjects into folds according to the configured
// topology. Subject order within the result is deterministic: subjects
// are processed in ascending id order, optionally permuted by the
// configured seed.
func (s *Splitter) Split(subjects []Subject) ([]Fold, error) {
	if len(subjects) == 0 {
		return nil, errors.Errorf("no subjects to split")
	}
	ordered := orderSubjects(subjects)

	switch s.cfg.Topology {
	case IndependentSessions:
		return s.splitSessions(ordered)
	default:
		return s.splitSubjects(ordered)
	}
}

// splitSubjects implements leave-one-subject-out and its k-bucket
// generalization: each bucket in turn is the test set, everyone else the
// training set.
func (s *Splitter) splitSubjects(subjects []Subject) ([]Fold, error) {
	if s.cfg.Folds >= len(subjects) {
		return nil, errors.Errorf("fold count %d must be smaller than the %d subjects", s.cfg.Folds, len(subjects))
	}

	if s.cfg.Shuffle {
		rng := rand.New(rand.NewSource(s.cfg.Seed))
		rng.Shuffle(len(subjects), func(i, j int) {
			subjects[i], subjects[j] = subjects[j], subjects[i]
		})
	}

	buckets := bucketize(subjects, s.cfg.Folds)

	folds := make([]Fold, 0, len(buckets))
	for k, test := range buckets {
		fold := Fold{}
		for _, sub := range test {
			fold.TestSubjects = append(fold.TestSubjects, sub.ID)
			appendSubject(&fold.TestWindows, &fold.TestLabels, &fold.TestGroups, sub, nil)
		}
		for j, train := range buckets {
			if j == k {
				continue
			}
			for _, sub := range train {
				appendSubject(&fold.TrainWindows, &fold.TrainLabels, &fold.TrainGroups, sub, nil)
			}
		}
		folds = append(folds, fold)
	}
	return folds, nil
}

// splitSessions implements the cross-session topology: per subject, the
// held-out sessions selected by the session policy form the test set and
// the remaining sessions of the same subject form the training set.
// Subjects with fewer than two sessions cannot satisfy the disjointness
// invariant and are skipped.
func (s *Splitter) splitSessions(subjects []Subject) ([]Fold, error) {
	var folds []Fold
	for _, sub := range subjects {
		if len(sub.Sessions) < 2 {
			continue
		}
		// HoldOutLastSession is the only policy today.
		held := len(sub.Sessions) - 1

		fold := Fold{TestSubjects: []int{sub.ID}}
		appendSubject(&fold.TrainWindows, &fold.TrainLabels, &fold.TrainGroups, sub, func(i int) bool { return i != held })
		appendSubject(&fold.TestWindows, &fold.TestLabels, &fold.TestGroups, sub, func(i int) bool { return i == held })
		folds = append(folds, fold)
	}
	if len(folds) == 0 {
		return nil, errors.Errorf("no subject has the multiple sessions required by the %s topology", IndependentSessions)
	}
	return folds, nil
}

// orderSubjects returns a copy of subjects sorted by ascending id, each
// with its sessions sorted by ascending session id.
func orderSubjects(subjects []Subject) []Subject {
	ordered := append([]Subject(nil), subjects...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	for i := range ordered {
		sessions := append([]Session(nil), ordered[i].Sessions...)
		sort.Slice(sessions, func(a, b int) bool { return sessions[a].ID < sessions[b].ID })
		ordered[i].Sessions = sessions
	}
	return ordered
}

// bucketize chunks subjects into k buckets whose sizes differ by at most
// one. k == 0 produces one bucket per subject.
func bucketize(subjects []Subject, k int) [][]Subject {
	if k <= 0 {
		k = len(subjects)
	}
	buckets := make([][]Subject, 0, k)
	base := len(subjects) / k
	extra := len(subjects) % k
	at := 0
	for i := 0; i < k; i++ {
		size := base
		if i < extra {
			size++
		}
		buckets = append(buckets, subjects[at:at+size])
		at += size
	}
	return buckets
}

// appendSubject concatenates the selected sessions of sub onto the given
// windows/labels/groups triple, keeping the three in lock-step. A nil
// selector takes every session.
func appendSubject(windows *[]signal.Window, labels *[]string, groups *[]int, sub Subject, keep func(int) bool) {
	for i, session := range sub.Sessions {
		if keep != nil && !keep(i) {
			continue
		}
		*windows = append(*windows, session.Windows...)
		*labels = append(*labels, session.Labels...)
		*groups = append(*groups, session.Groups...)
	}
}
