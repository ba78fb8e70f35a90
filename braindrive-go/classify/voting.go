package classify

import (
	"math/rand"
	"sort"

	"github.com/braindrive/braindrive/braindrive-golib/errors"
	"github.com/braindrive/braindrive/braindrive-golib/workerpool"
)

const defaultMembers = 5

// Voting is a hard-majority ensemble. Each member is fitted on an
// independent balanced resample of the training set, so members see
// different draws from the majority classes while every member keeps
// all minority examples in play.
type Voting struct {
	Base    Type         `json:"base"`
	Members []Classifier `json:"-"`

	cfg Config
}

// NewVoting returns an untrained voting ensemble of cfg.Members base
// classifiers.
func NewVoting(cfg Config) (*Voting, error) {
	if cfg.Members <= 0 {
		cfg.Members = defaultMembers
	}
	if cfg.Base == "" {
		cfg.Base = TypeLDA
	}
	if cfg.Base == TypeVoting {
		return nil, errors.Errorf("voting ensemble can not nest voting members")
	}
	return &Voting{Base: cfg.Base, cfg: cfg}, nil
}

// Fit trains every member concurrently, each on its own balanced draw.
// The pool is bounded by the member count so a large ensemble does not
// serialize.
func (v *Voting) Fit(x [][]float64, y []string) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.Errorf("voting: need matching non-empty features and labels, got %d and %d", len(x), len(y))
	}

	members := make([]Classifier, v.cfg.Members)
	jobs := make([]workerpool.Job, v.cfg.Members)
	for i := range members {
		i := i
		memberCfg := v.cfg
		memberCfg.Type = v.Base
		memberCfg.Seed = v.cfg.Seed + int64(i)
		jobs[i] = func() error {
			member, err := New(memberCfg)
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(memberCfg.Seed))
			bx, by := resample(x, y, rng)
			if err := member.Fit(bx, by); err != nil {
				return errors.Wrapf(err, "fitting voting member %d", i)
			}
			members[i] = member
			return nil
		}
	}

	pool := workerpool.New(len(jobs))
	defer pool.Stop()
	pool.Add(jobs)
	if err := pool.Wait(); err != nil {
		return err
	}
	v.Members = members
	return nil
}

// Predict returns the majority label per row; ties break toward the
// lexicographically smallest label so repeated runs agree.
func (v *Voting) Predict(x [][]float64) ([]string, error) {
	if len(v.Members) == 0 {
		return nil, errors.Errorf("voting: predict before fit")
	}
	votes := make([]map[string]int, len(x))
	for i := range votes {
		votes[i] = map[string]int{}
	}
	for _, member := range v.Members {
		labels, err := member.Predict(x)
		if err != nil {
			return nil, err
		}
		for i, label := range labels {
			votes[i][label]++
		}
	}

	out := make([]string, len(x))
	for i, counts := range votes {
		var labels []string
		for label := range counts {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		best := labels[0]
		for _, label := range labels[1:] {
			if counts[label] > counts[best] {
				best = label
			}
		}
		out[i] = best
	}
	return out, nil
}

// resample draws a class-balanced subset: every class is downsampled to
// the minority class count, without replacement, using rng.
func resample(x [][]float64, y []string, rng *rand.Rand) ([][]float64, []string) {
	idx := balancedIndices(y, rng)
	bx := make([][]float64, len(idx))
	by := make([]string, len(idx))
	for i, j := range idx {
		bx[i] = x[j]
		by[i] = y[j]
	}
	return bx, by
}
