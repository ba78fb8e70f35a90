package classify

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// LDA is a linear discriminant classifier with a pooled within-class
// covariance estimate. Per-class weights scale the class priors, which
// is how a dominant class (typically rest) is down-weighted.
type LDA struct {
	Classes []string    `json:"classes"`
	Weights [][]float64 `json:"weights"` // one discriminant row per class
	Bias    []float64   `json:"bias"`

	shrinkage    float64
	classWeights map[string]float64
}

const defaultShrinkage = 1e-4

// NewLDA creates an untrained discriminant with the given hyperparameters.
func NewLDA(cfg Config) *LDA {
	l := &LDA{
		shrinkage:    cfg.Shrinkage,
		classWeights: cfg.ClassWeights,
	}
	if l.shrinkage <= 0 {
		l.shrinkage = defaultShrinkage
	}
	return l
}

// Fit estimates class means, a pooled covariance and weighted priors.
func (l *LDA) Fit(x [][]float64, y []string) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.Errorf("training set has %d feature rows for %d labels", len(x), len(y))
	}
	l.Classes = classSet(y)
	index := classIndex(l.Classes)
	d := len(x[0])
	n := len(x)
	k := len(l.Classes)
	if n <= k {
		return errors.Errorf("%d examples cannot estimate %d class discriminants", n, k)
	}

	// class means
	means := make([][]float64, k)
	counts := make([]float64, k)
	for i := range means {
		means[i] = make([]float64, d)
	}
	for i, row := range x {
		c := index[y[i]]
		counts[c]++
		for j, v := range row {
			means[c][j] += v
		}
	}
	for c := range means {
		if counts[c] == 0 {
			return errors.Errorf("class %q has no examples", l.Classes[c])
		}
		for j := range means[c] {
			means[c][j] /= counts[c]
		}
	}

	// pooled within-class covariance with a diagonal shrinkage term to
	// keep the estimate invertible on small training sets
	cov := mat.NewDense(d, d, nil)
	diff := make([]float64, d)
	for i, row := range x {
		m := means[index[y[i]]]
		for j := range row {
			diff[j] = row[j] - m[j]
		}
		for a := 0; a < d; a++ {
			for bcol := 0; bcol < d; bcol++ {
				cov.Set(a, bcol, cov.At(a, bcol)+diff[a]*diff[bcol])
			}
		}
	}
	var trace float64
	for a := 0; a < d; a++ {
		trace += cov.At(a, a)
	}
	ridge := l.shrinkage * (trace/float64(d) + 1)
	for a := 0; a < d; a++ {
		for bcol := 0; bcol < d; bcol++ {
			v := cov.At(a, bcol) / float64(n-k)
			if a == bcol {
				v += ridge
			}
			cov.Set(a, bcol, v)
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(cov); err != nil {
		return errors.Wrapf(err, "pooled covariance is singular")
	}

	// weighted priors
	priors := make([]float64, k)
	var total float64
	for c := range priors {
		priors[c] = counts[c] / float64(n)
		if cw, ok := l.classWeights[l.Classes[c]]; ok {
			priors[c] *= cw
		}
		total += priors[c]
	}
	for c := range priors {
		priors[c] /= total
	}

	// discriminants: w_c = Sigma^-1 mu_c, b_c = -mu_c.w_c/2 + ln prior_c
	l.Weights = make([][]float64, k)
	l.Bias = make([]float64, k)
	mu := mat.NewVecDense(d, nil)
	var w mat.VecDense
	for c := range means {
		copy(mu.RawVector().Data, means[c])
		w.MulVec(&inv, mu)
		l.Weights[c] = make([]float64, d)
		for j := 0; j < d; j++ {
			l.Weights[c][j] = w.AtVec(j)
		}
		l.Bias[c] = -0.5*mat.Dot(mu, &w) + math.Log(priors[c])
	}
	return nil
}

// Predict assigns each feature row the class with the highest
// discriminant score.
func (l *LDA) Predict(x [][]float64) ([]string, error) {
	if len(l.Weights) == 0 {
		return nil, errors.Errorf("discriminant has not been fitted")
	}
	out := make([]string, len(x))
	for i, row := range x {
		if len(row) != len(l.Weights[0]) {
			return nil, errors.Errorf("feature vector length %d does not match fitted dimension %d", len(row), len(l.Weights[0]))
		}
		best, bestScore := 0, math.Inf(-1)
		for c := range l.Weights {
			score := l.Bias[c]
			for j, v := range row {
				score += l.Weights[c][j] * v
			}
			if score > bestScore {
				best, bestScore = c, score
			}
		}
		out[i] = l.Classes[best]
	}
	return out, nil
}
