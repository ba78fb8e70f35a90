package classify

import (
	"math"
	"math/rand"

	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// Forest is a bagged ensemble of CART trees voting by majority.
type Forest struct {
	Classes []string `json:"classes"`
	Trees   []Tree   `json:"trees"`

	trees    int
	maxDepth int
	minLeaf  int
	weights  map[string]float64
	seed     int64
}

const (
	defaultTrees    = 50
	defaultMaxDepth = 12
	defaultMinLeaf  = 2
)

// NewForest creates an untrained forest with the given hyperparameters.
func NewForest(cfg Config) *Forest {
	f := &Forest{
		trees:    cfg.Trees,
		maxDepth: cfg.MaxDepth,
		minLeaf:  cfg.MinLeaf,
		weights:  cfg.ClassWeights,
		seed:     cfg.Seed,
	}
	if f.trees <= 0 {
		f.trees = defaultTrees
	}
	if f.maxDepth <= 0 {
		f.maxDepth = defaultMaxDepth
	}
	if f.minLeaf <= 0 {
		f.minLeaf = defaultMinLeaf
	}
	return f
}

// Fit grows the trees on bootstrap resamples of x. Per-class weights
// scale each example's contribution to split impurity and leaf majority.
func (f *Forest) Fit(x [][]float64, y []string) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.Errorf("training set has %d feature rows for %d labels", len(x), len(y))
	}
	f.Classes = classSet(y)
	index := classIndex(f.Classes)

	yi := make([]int, len(y))
	w := make([]float64, len(y))
	for i, label := range y {
		yi[i] = index[label]
		w[i] = 1
		if cw, ok := f.weights[label]; ok {
			w[i] = cw
		}
	}

	mtry := int(math.Sqrt(float64(len(x[0]))))
	if mtry < 1 {
		mtry = 1
	}

	rng := rand.New(rand.NewSource(f.seed))
	f.Trees = make([]Tree, 0, f.trees)
	for t := 0; t < f.trees; t++ {
		indices := make([]int, len(x))
		for i := range indices {
			indices[i] = rng.Intn(len(x))
		}
		b := &treeBuilder{
			maxDepth: f.maxDepth,
			minLeaf:  f.minLeaf,
			mtry:     mtry,
			classes:  len(f.Classes),
			rng:      rand.New(rand.NewSource(rng.Int63())),
			x:        x,
			y:        yi,
			w:        w,
		}
		f.Trees = append(f.Trees, *b.build(indices))
	}
	return nil
}

// Predict returns the majority-vote label for every feature row.
func (f *Forest) Predict(x [][]float64) ([]string, error) {
	if len(f.Trees) == 0 {
		return nil, errors.Errorf("forest has not been fitted")
	}
	out := make([]string, len(x))
	votes := make([]int, len(f.Classes))
	for i, row := range x {
		for c := range votes {
			votes[c] = 0
		}
		for t := range f.Trees {
			votes[f.Trees[t].ClassIndex(row)]++
		}
		best := 0
		for c := range votes {
			if votes[c] > votes[best] {
				best = c
			}
		}
		out[i] = f.Classes[best]
	}
	return out, nil
}
