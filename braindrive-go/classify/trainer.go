package classify

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/braindrive/braindrive/braindrive-go/features"
	"github.com/braindrive/braindrive/braindrive-go/split"
	"github.com/braindrive/braindrive/braindrive-golib/errors"
	"github.com/braindrive/braindrive/braindrive-golib/logging"
	"github.com/braindrive/braindrive/braindrive-golib/workerpool"
)

// ModelSink receives the fitted classifier of each fold, keyed by the
// fold's held-out subjects, together with the fold pipeline's frozen
// normalization statistics (nil when the pipeline does not normalize).
type ModelSink interface {
	Put(subject string, c Classifier, fit *features.FitState) error
}

// ResultSink receives the held-out accuracies of each fold as they
// become final.
type ResultSink interface {
	Append(subject string, accuracies []float64) error
}

// FoldResult pairs a fold's held-out evaluation with the classifier
// that produced it.
type FoldResult struct {
	// Subject identifies the held-out subjects, e.g. "3" or "3+7".
	Subject    string
	Evaluation Evaluation
	Classifier Classifier
	// Fit is the fold pipeline's frozen normalization state, nil
	// when the feature configuration does not normalize.
	Fit *features.FitState
}

// Trainer runs the full cross-validation protocol: split, fit a fresh
// feature pipeline per fold on training windows only, balance, fit the
// classifier, evaluate on the held-out windows, and hand the artifacts
// to the configured sinks.
type Trainer struct {
	Features   features.Config
	Classifier Config
	// Balance downsamples training classes to the minority count
	// before fitting.
	Balance bool
	Seed    int64
	// Parallelism bounds concurrent fold workers; zero means one
	// worker per fold.
	Parallelism int

	Log     *zap.Logger
	Results ResultSink
	Store   ModelSink
}

// CrossValidate executes every fold of the split. A failing fold is
// logged and reported but does not stop the remaining folds; results
// for the folds that completed are still delivered, in subject order.
func (t *Trainer) CrossValidate(subjects []split.Subject, splitCfg split.Config) ([]FoldResult, error) {
	if err := ValidatePair(t.Classifier.Type, t.Features.Kind); err != nil {
		return nil, err
	}

	splitter, err := split.New(splitCfg)
	if err != nil {
		return nil, err
	}
	folds, err := splitter.Split(subjects)
	if err != nil {
		return nil, err
	}

	log := t.Log
	if log == nil {
		log = logging.Logger
	}

	workers := t.Parallelism
	if workers <= 0 {
		workers = len(folds)
	}

	var mu sync.Mutex
	var results []FoldResult
	var foldErrs errors.Errors

	jobs := make([]workerpool.Job, len(folds))
	for i, fold := range folds {
		i, fold := i, fold
		jobs[i] = func() error {
			subject := subjectKey(fold.TestSubjects)
			res, err := t.runFold(fold, t.Seed+int64(i))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("fold failed", zap.String("subject", subject), zap.Error(err))
				foldErrs = errors.Append(foldErrs, errors.Wrapf(err, "subject %s", subject))
				return nil
			}
			log.Info("fold complete",
				zap.String("subject", subject),
				zap.Float64("accuracy", res.Evaluation.Accuracy))
			results = append(results, res)
			return nil
		}
	}

	pool := workerpool.New(workers)
	defer pool.Stop()
	pool.Add(jobs)
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(a, b int) bool {
		return subjectKeyLess(results[a].Subject, results[b].Subject)
	})

	for _, res := range results {
		if t.Store != nil {
			if err := t.Store.Put(res.Subject, res.Classifier, res.Fit); err != nil {
				return results, errors.Wrapf(err, "storing model for subject %s", res.Subject)
			}
		}
		if t.Results != nil {
			if err := t.Results.Append(res.Subject, []float64{res.Evaluation.Accuracy}); err != nil {
				return results, errors.Wrapf(err, "recording result for subject %s", res.Subject)
			}
		}
	}

	if foldErrs != nil {
		return results, foldErrs
	}
	return results, nil
}

func (t *Trainer) runFold(fold split.Fold, seed int64) (FoldResult, error) {
	pipeline, err := features.NewPipeline(t.Features)
	if err != nil {
		return FoldResult{}, err
	}

	trainX, err := pipeline.FitTransform(fold.TrainWindows)
	if err != nil {
		return FoldResult{}, errors.Wrapf(err, "extracting training features")
	}
	trainY := fold.TrainLabels
	if t.Balance {
		trainX, trainY, _ = Balance(trainX, trainY, fold.TrainGroups, seed)
	}

	cfg := t.Classifier
	cfg.Seed = seed
	clf, err := New(cfg)
	if err != nil {
		return FoldResult{}, err
	}
	if err := clf.Fit(trainX, trainY); err != nil {
		return FoldResult{}, errors.Wrapf(err, "fitting classifier")
	}

	testX, err := pipeline.Transform(fold.TestWindows)
	if err != nil {
		return FoldResult{}, errors.Wrapf(err, "extracting held-out features")
	}
	predicted, err := clf.Predict(testX)
	if err != nil {
		return FoldResult{}, errors.Wrapf(err, "predicting held-out windows")
	}
	eval, err := Evaluate(predicted, fold.TestLabels)
	if err != nil {
		return FoldResult{}, err
	}

	return FoldResult{
		Subject:    subjectKey(fold.TestSubjects),
		Evaluation: eval,
		Classifier: clf,
		Fit:        pipeline.FitState(),
	}, nil
}

func subjectKey(subjects []int) string {
	parts := make([]string, len(subjects))
	for i, s := range subjects {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, "+")
}

// subjectKeyLess orders fold keys by subject number, part by part, so
// subject 10 delivers after subject 2 in the result log.
func subjectKeyLess(a, b string) bool {
	as, bs := strings.Split(a, "+"), strings.Split(b, "+")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			if ai != bi {
				return ai < bi
			}
			continue
		}
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}
