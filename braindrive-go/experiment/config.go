// Package experiment loads experiment configuration and prepared
// epoch datasets, and wires them into the training and streaming
// components.
package experiment

import (
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/braindrive/braindrive/braindrive-go/classify"
	"github.com/braindrive/braindrive/braindrive-go/driver"
	"github.com/braindrive/braindrive/braindrive-go/features"
	"github.com/braindrive/braindrive/braindrive-go/signal"
	"github.com/braindrive/braindrive/braindrive-go/split"
	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// Windowing configures the sliding segmentation, in seconds.
type Windowing struct {
	Length float64 `yaml:"length"`
	Step   float64 `yaml:"step"`
}

// Config is one experiment: dataset, windowing, features, classifier
// and split topology, all explicit. The zero value is not runnable; a
// config comes from a YAML file, never from ambient globals.
type Config struct {
	// Database names the prepared dataset this run consumes.
	Database string `yaml:"database"`

	Windowing  Windowing       `yaml:"windowing"`
	Feature    features.Config `yaml:"feature"`
	Classifier classify.Config `yaml:"classifier"`
	Split      split.Config    `yaml:"split"`

	Balance     bool  `yaml:"balance"`
	Seed        int64 `yaml:"seed"`
	Parallelism int   `yaml:"parallelism"`

	ResultLog  string `yaml:"result_log"`
	ModelStore string `yaml:"model_store"`

	// Commands maps predicted labels to driver command names for the
	// online loop, e.g. left_hand: left.
	Commands map[string]string `yaml:"commands"`
}

// Load reads and validates a YAML experiment config.
func Load(path string) (Config, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "validating config %s", path)
	}
	return cfg, nil
}

// Validate constructs every configured component once, so a bad
// combination fails before any data is touched.
func (c Config) Validate() error {
	if _, err := signal.NewSegmenter(c.Windowing.Length, c.Windowing.Step); err != nil {
		return err
	}
	if _, err := features.NewPipeline(c.Feature); err != nil {
		return err
	}
	if _, err := classify.New(c.Classifier); err != nil {
		return err
	}
	if _, err := split.New(c.Split); err != nil {
		return err
	}
	if _, err := driver.ParseCommandMap(c.Commands); err != nil {
		return err
	}
	return classify.ValidatePair(c.Classifier.Type, c.Feature.Kind)
}

// Trainer builds the trainer this config describes. Sinks are attached
// by the caller.
func (c Config) Trainer() classify.Trainer {
	return classify.Trainer{
		Features:    c.Feature,
		Classifier:  c.Classifier,
		Balance:     c.Balance,
		Seed:        c.Seed,
		Parallelism: c.Parallelism,
	}
}
