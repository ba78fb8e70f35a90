package main

import (
	"fmt"
	"log"
	"time"

	arg "github.com/alexflint/go-arg"

	"github.com/braindrive/braindrive/braindrive-go/experiment"
	"github.com/braindrive/braindrive/braindrive-go/modelstore"
	"github.com/braindrive/braindrive/braindrive-go/results"
	"github.com/braindrive/braindrive/braindrive-go/signal"
)

func noErr(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// resumingSink skips subjects that an earlier, interrupted run already
// recorded, so restarting never duplicates result rows.
type resumingSink struct {
	log  *results.Log
	done map[string]bool
}

func (s resumingSink) Append(subject string, accuracies []float64) error {
	if s.done[subject] {
		log.Printf("subject %s already recorded, skipping", subject)
		return nil
	}
	return s.log.Append(subject, accuracies)
}

func main() {
	args := struct {
		Config string `arg:"positional,required" help:"experiment YAML"`
		Data   string `arg:"positional,required" help:"prepared epochs JSON"`
	}{}
	arg.MustParse(&args)

	cfg, err := experiment.Load(args.Config)
	noErr(err)

	dataset, err := experiment.LoadDataset(args.Data)
	noErr(err)
	if cfg.Database != "" && cfg.Database != dataset.Database {
		log.Fatal(fmt.Errorf("config expects database %q, data file holds %q", cfg.Database, dataset.Database))
	}

	segmenter, err := signal.NewSegmenter(cfg.Windowing.Length, cfg.Windowing.Step)
	noErr(err)
	subjects, err := dataset.Split(segmenter)
	noErr(err)

	trainer := cfg.Trainer()

	var resultLog *results.Log
	if cfg.ResultLog != "" {
		resultLog = results.OpenLog(cfg.ResultLog)
		done, err := resultLog.Done()
		noErr(err)
		trainer.Results = resumingSink{log: resultLog, done: done}
	}

	if cfg.ModelStore != "" {
		store, err := modelstore.Open(cfg.ModelStore)
		noErr(err)
		defer store.Close()
		noErr(store.PutMeta(modelstore.Meta{
			Database:  dataset.Database,
			Feature:   cfg.Feature,
			CreatedAt: time.Now(),
		}))
		trainer.Store = store
	}

	folds, err := trainer.CrossValidate(subjects, cfg.Split)
	if err != nil {
		// some subjects may still have completed; report before dying
		log.Printf("training finished with errors: %v", err)
	}
	for _, fold := range folds {
		fmt.Printf("subject %s\n%s\n", fold.Subject, fold.Evaluation)
	}

	if resultLog != nil {
		summary, err := resultLog.Summary()
		noErr(err)
		fmt.Println(summary)
	}
	if err != nil {
		log.Fatal(err)
	}
}
