package experiment

import (
	"encoding/json"
	"os"

	"github.com/braindrive/braindrive/braindrive-go/signal"
	"github.com/braindrive/braindrive/braindrive-go/split"
	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// Dataset is a prepared epoch collection: vendor files have already
// been cut into labeled, equal-length epochs elsewhere. This boundary
// only reads the prepared JSON form.
type Dataset struct {
	Database string          `json:"database"`
	Fs       float64         `json:"fs"`
	Subjects []SubjectEpochs `json:"subjects"`
}

type SubjectEpochs struct {
	ID       int             `json:"id"`
	Sessions []SessionEpochs `json:"sessions"`
}

type SessionEpochs struct {
	ID     int           `json:"id"`
	Epochs []EpochRecord `json:"epochs"`
}

type EpochRecord struct {
	Label string `json:"label"`
	// Data is channel-major.
	Data [][]float64 `json:"data"`
}

// LoadDataset reads a prepared epoch file.
func LoadDataset(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, errors.Wrapf(err, "opening dataset %s", path)
	}
	defer f.Close()

	var ds Dataset
	if err := json.NewDecoder(f).Decode(&ds); err != nil {
		return Dataset{}, errors.Wrapf(err, "decoding dataset %s", path)
	}
	if ds.Fs <= 0 {
		return Dataset{}, errors.Errorf("dataset %s has no sampling rate", path)
	}
	if len(ds.Subjects) == 0 {
		return Dataset{}, errors.Errorf("dataset %s has no subjects", path)
	}
	return ds, nil
}

// SubjectEpochs flattens one subject's sessions into replayable
// epochs, or nil if the subject is absent.
func (d Dataset) SubjectEpochs(id int) []signal.Epoch {
	for _, sub := range d.Subjects {
		if sub.ID != id {
			continue
		}
		var epochs []signal.Epoch
		for _, sess := range sub.Sessions {
			for _, e := range sess.Epochs {
				epochs = append(epochs, signal.Epoch{
					Subject: sub.ID,
					Session: sess.ID,
					Label:   e.Label,
					Fs:      d.Fs,
					Data:    e.Data,
				})
			}
		}
		return epochs
	}
	return nil
}

// Split segments every epoch and assembles the per-subject structure
// the splitter consumes. Window labels repeat their epoch's label, and
// the group id ties each window back to its source epoch so balancing
// and leakage checks can reason about epochs.
func (d Dataset) Split(seg signal.Segmenter) ([]split.Subject, error) {
	subjects := make([]split.Subject, 0, len(d.Subjects))
	for _, sub := range d.Subjects {
		subject := split.Subject{ID: sub.ID}
		group := 0
		for _, sess := range sub.Sessions {
			epochs := make([]signal.Epoch, len(sess.Epochs))
			for i, e := range sess.Epochs {
				epochs[i] = signal.Epoch{
					Subject: sub.ID,
					Session: sess.ID,
					Label:   e.Label,
					Fs:      d.Fs,
					Data:    e.Data,
				}
			}
			windowed, err := seg.SlideEpochs(epochs)
			if err != nil {
				return nil, errors.Wrapf(err, "windowing subject %d session %d", sub.ID, sess.ID)
			}
			session := split.Session{ID: sess.ID}
			for i, ws := range windowed {
				for _, w := range ws {
					session.Windows = append(session.Windows, w)
					session.Labels = append(session.Labels, epochs[i].Label)
					session.Groups = append(session.Groups, group)
				}
				group++
			}
			subject.Sessions = append(subject.Sessions, session)
		}
		subjects = append(subjects, subject)
	}
	return subjects, nil
}
