// Package results keeps an append-only CSV log of per-subject
// cross-validation accuracies. The log survives interrupted runs: a
// restarted experiment can read back which subjects are already done
// and skip them.
package results

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"

	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// AccuracyList is a fold-accuracy series rendered as a single CSV
// cell, e.g. "0.8125,0.7500".
type AccuracyList []float64

func (a AccuracyList) MarshalCSV() (string, error) {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = strconv.FormatFloat(v, 'f', 4, 64)
	}
	return strings.Join(parts, ","), nil
}

func (a *AccuracyList) UnmarshalCSV(cell string) error {
	*a = nil
	if cell == "" {
		return nil
	}
	for _, part := range strings.Split(cell, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return errors.Wrapf(err, "parsing accuracy cell %q", cell)
		}
		*a = append(*a, v)
	}
	return nil
}

// Row is one subject's line in the result log.
type Row struct {
	Subject    string       `csv:"Subject"`
	Accuracies AccuracyList `csv:"Accuracy list"`
	Std        float64      `csv:"Std of Avg. Acc"`
	Avg        float64      `csv:"Avg. Acc"`
}

// Log appends result rows to a CSV file as folds finish.
type Log struct {
	mu   sync.Mutex
	path string
}

// OpenLog points a Log at path. The file is created on first append.
func OpenLog(path string) *Log {
	return &Log{path: path}
}

// Append records a subject's accuracies together with their mean and
// population standard deviation. The header is written once, when the
// file is empty.
func (l *Log) Append(subject string, accuracies []float64) error {
	if len(accuracies) == 0 {
		return errors.Errorf("no accuracies to record for subject %s", subject)
	}
	avg, err := stats.Mean(accuracies)
	if err != nil {
		return errors.WithStack(err)
	}
	std, err := stats.StandardDeviation(accuracies)
	if err != nil {
		return errors.WithStack(err)
	}
	row := Row{Subject: subject, Accuracies: accuracies, Std: std, Avg: avg}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "opening result log %s", l.path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.WithStack(err)
	}
	rows := []Row{row}
	if info.Size() == 0 {
		err = gocsv.Marshal(&rows, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(&rows, f)
	}
	return errors.WrapfOrNil(err, "appending to result log %s", l.path)
}

// Rows reads the whole log back. A missing file is an empty log.
func (l *Log) Rows() ([]Row, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening result log %s", l.path)
	}
	defer f.Close()

	var rows []Row
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, errors.Wrapf(err, "reading result log %s", l.path)
	}
	return rows, nil
}

// Done returns the set of subjects already present in the log.
func (l *Log) Done() (map[string]bool, error) {
	rows, err := l.Rows()
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(rows))
	for _, row := range rows {
		done[row.Subject] = true
	}
	return done, nil
}

// Summary renders the overall mean accuracy across all logged
// subjects.
func (l *Log) Summary() (string, error) {
	rows, err := l.Rows()
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "no results recorded", nil
	}
	avgs := make([]float64, len(rows))
	for i, row := range rows {
		avgs[i] = row.Avg
	}
	mean, err := stats.Mean(avgs)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return fmt.Sprintf("%d subjects, mean accuracy %.4f", len(rows), mean), nil
}
