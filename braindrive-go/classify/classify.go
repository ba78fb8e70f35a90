// Package classify trains and evaluates per-fold mental-task classifiers
// and validates that the chosen classifier can consume the chosen feature
// kind before any fitting starts.
package classify

import (
	"fmt"
	"sort"

	"github.com/braindrive/braindrive/braindrive-go/features"
	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// Type enumerates the available classifier families.
type Type string

const (
	// TypeLDA is a shallow linear discriminant over frequency-domain
	// feature vectors.
	TypeLDA Type = "lda"
	// TypeForest is a bagged decision-tree ensemble.
	TypeForest Type = "forest"
	// TypeVoting is a majority vote over independently fitted member
	// classifiers, each trained on a balanced resample.
	TypeVoting Type = "voting"
)

// Config carries caller-supplied hyperparameters for classifier
// construction.
type Config struct {
	Type Type `yaml:"type"`
	// ClassWeights scales the influence of individual classes, e.g.
	// {"rest": 0.25} to down-weight a dominant rest class.
	ClassWeights map[string]float64 `yaml:"class_weights"`
	// Seed drives every random choice during fitting.
	Seed int64 `yaml:"seed"`

	// Forest hyperparameters.
	Trees    int `yaml:"trees"`
	MaxDepth int `yaml:"max_depth"`
	MinLeaf  int `yaml:"min_leaf"`

	// LDA covariance shrinkage.
	Shrinkage float64 `yaml:"shrinkage"`

	// Voting ensemble size and member family.
	Members int  `yaml:"members"`
	Base    Type `yaml:"base"`
}

// Classifier is the fit/predict contract shared by every family and by
// models restored from the persisted store.
type Classifier interface {
	Fit(x [][]float64, y []string) error
	Predict(x [][]float64) ([]string, error)
}

// New constructs an untrained classifier from cfg.
func New(cfg Config) (Classifier, error) {
	switch cfg.Type {
	case TypeLDA:
		return NewLDA(cfg), nil
	case TypeForest:
		return NewForest(cfg), nil
	case TypeVoting:
		return NewVoting(cfg)
	default:
		return nil, errors.Errorf("unknown classifier type %q", cfg.Type)
	}
}

// IncompatibleFeatureClassifierError reports a feature-kind/classifier
// pairing rejected by the compatibility rule table.
type IncompatibleFeatureClassifierError struct {
	Classifier Type
	Feature    features.Kind
}

func (e IncompatibleFeatureClassifierError) Error() string {
	return fmt.Sprintf("feature %q and classifier %q can not be used together", e.Feature, e.Classifier)
}

// compatible is the fixed rule table of feature kinds each classifier
// family accepts. Raw windows are deliberately absent: none of the
// shallow families consumes unsummarized signal.
var compatible = map[Type][]features.Kind{
	TypeLDA:    {features.AvgBandPower, features.MultiBandPower, features.BandPowerRange},
	TypeVoting: {features.AvgBandPower, features.MultiBandPower, features.BandPowerRange},
	TypeForest: {features.AvgBandPower, features.MultiBandPower, features.BandPowerRange, features.TimeStats},
}

// ValidatePair checks the rule table once, before any training begins,
// so incompatible configurations fail fast instead of deep inside a fit.
func ValidatePair(classifier Type, feature features.Kind) error {
	if feature == features.Custom {
		// caller-supplied pipelines take responsibility for their output
		return nil
	}
	kinds, ok := compatible[classifier]
	if !ok {
		return errors.Errorf("unknown classifier type %q", classifier)
	}
	for _, k := range kinds {
		if k == feature {
			return nil
		}
	}
	return IncompatibleFeatureClassifierError{Classifier: classifier, Feature: feature}
}

// classSet returns the sorted distinct labels of y.
func classSet(y []string) []string {
	seen := map[string]bool{}
	var classes []string
	for _, label := range y {
		if !seen[label] {
			seen[label] = true
			classes = append(classes, label)
		}
	}
	sort.Strings(classes)
	return classes
}

func classIndex(classes []string) map[string]int {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return index
}
