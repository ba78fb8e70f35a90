// Package modelstore persists per-subject classifiers to a local
// leveldb database so the online loop can run without retraining.
package modelstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/braindrive/braindrive/braindrive-go/classify"
	"github.com/braindrive/braindrive/braindrive-go/features"
	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

const (
	metaKey     = "meta"
	modelPrefix = "model/"
)

// Meta records what the stored models were trained on. The feature
// configuration is persisted alongside the models so the online loop
// can rebuild an identical pipeline.
type Meta struct {
	Database  string          `json:"database"`
	Feature   features.Config `json:"feature"`
	CreatedAt time.Time       `json:"created_at"`
}

// ModelNotFoundError reports a lookup for a subject that has no
// persisted model.
type ModelNotFoundError struct {
	Subject string
}

func (e ModelNotFoundError) Error() string {
	return fmt.Sprintf("no trained model stored for subject %q", e.Subject)
}

// Store is a leveldb-backed model archive. One Store maps to one
// training run.
type Store struct {
	db *leveldb.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening model store at %s", path)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return errors.WithStack(s.db.Close())
}

// PutMeta writes the run metadata, replacing any previous value.
func (s *Store) PutMeta(meta Meta) error {
	blob, err := json.Marshal(meta)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WrapfOrNil(s.db.Put([]byte(metaKey), blob, nil), "writing store meta")
}

// Meta reads the run metadata.
func (s *Store) Meta() (Meta, error) {
	blob, err := s.db.Get([]byte(metaKey), nil)
	if err == leveldb.ErrNotFound {
		return Meta{}, errors.Errorf("store has no meta record")
	}
	if err != nil {
		return Meta{}, errors.Wrapf(err, "reading store meta")
	}
	var meta Meta
	if err := json.Unmarshal(blob, &meta); err != nil {
		return Meta{}, errors.Wrapf(err, "decoding store meta")
	}
	return meta, nil
}

// modelRecord is the stored shape of one subject's model: the
// serialized classifier plus the normalization statistics its feature
// pipeline was fitted with.
type modelRecord struct {
	Classifier json.RawMessage    `json:"classifier"`
	Fit        *features.FitState `json:"fit,omitempty"`
}

// Put persists the fitted classifier for a subject together with its
// pipeline's fitted normalization state, replacing any previous model
// under the same key. fit may be nil when the pipeline does not
// normalize.
func (s *Store) Put(subject string, c classify.Classifier, fit *features.FitState) error {
	clf, err := classify.MarshalClassifier(c)
	if err != nil {
		return errors.Wrapf(err, "serializing model for subject %s", subject)
	}
	blob, err := json.Marshal(modelRecord{Classifier: clf, Fit: fit})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WrapfOrNil(s.db.Put([]byte(modelPrefix+subject), blob, nil), "writing model for subject %s", subject)
}

// Model restores the classifier for a subject, ready for Predict,
// along with the fitted normalization state to install in the online
// pipeline. The state is nil for models trained without normalization.
func (s *Store) Model(subject string) (classify.Classifier, *features.FitState, error) {
	blob, err := s.db.Get([]byte(modelPrefix+subject), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil, ModelNotFoundError{Subject: subject}
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading model for subject %s", subject)
	}
	var record modelRecord
	if err := json.Unmarshal(blob, &record); err != nil {
		return nil, nil, errors.Wrapf(err, "decoding model for subject %s", subject)
	}
	c, err := classify.UnmarshalClassifier(record.Classifier)
	if err != nil {
		return nil, nil, err
	}
	return c, record.Fit, nil
}

// Subjects lists every subject with a persisted model, in key order.
func (s *Store) Subjects() ([]string, error) {
	var subjects []string
	iter := s.db.NewIterator(util.BytesPrefix([]byte(modelPrefix)), nil)
	defer iter.Release()
	for iter.Next() {
		subjects = append(subjects, string(iter.Key())[len(modelPrefix):])
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrapf(err, "iterating stored models")
	}
	return subjects, nil
}
