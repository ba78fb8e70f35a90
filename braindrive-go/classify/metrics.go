package classify

import (
	"bytes"
	"fmt"

	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// ClassMetrics holds per-class precision, recall and F1 over a held-out
// fold, plus the number of true examples of the class.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation summarizes predictions against ground truth for one fold.
type Evaluation struct {
	Accuracy float64 `json:"accuracy"`
	// Classes orders the rows and columns of Confusion.
	Classes   []string                `json:"classes"`
	Confusion [][]int                 `json:"confusion"`
	Report    map[string]ClassMetrics `json:"report"`
}

// Evaluate compares predicted labels against truth. Classes present in
// either slice contribute a confusion row, so a classifier that never
// emits some true label still shows up with zero recall.
func Evaluate(predicted, truth []string) (Evaluation, error) {
	if len(predicted) != len(truth) || len(truth) == 0 {
		return Evaluation{}, errors.Errorf("evaluate: need matching non-empty predictions and truth, got %d and %d", len(predicted), len(truth))
	}

	classes := classSet(append(append([]string{}, truth...), predicted...))
	index := classIndex(classes)

	confusion := make([][]int, len(classes))
	for i := range confusion {
		confusion[i] = make([]int, len(classes))
	}
	correct := 0
	for i, p := range predicted {
		confusion[index[truth[i]]][index[p]]++
		if p == truth[i] {
			correct++
		}
	}

	report := make(map[string]ClassMetrics, len(classes))
	for c, label := range classes {
		tp := confusion[c][c]
		support, predictedAs := 0, 0
		for o := range classes {
			support += confusion[c][o]
			predictedAs += confusion[o][c]
		}
		m := ClassMetrics{Support: support}
		if predictedAs > 0 {
			m.Precision = float64(tp) / float64(predictedAs)
		}
		if support > 0 {
			m.Recall = float64(tp) / float64(support)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report[label] = m
	}

	return Evaluation{
		Accuracy:  float64(correct) / float64(len(truth)),
		Classes:   classes,
		Confusion: confusion,
		Report:    report,
	}, nil
}

// String renders a fixed-width report in class order.
func (e Evaluation) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "accuracy: %.4f\n", e.Accuracy)
	fmt.Fprintf(&buf, "%-16s %9s %9s %9s %9s\n", "class", "precision", "recall", "f1", "support")
	for _, label := range e.Classes {
		m := e.Report[label]
		fmt.Fprintf(&buf, "%-16s %9.4f %9.4f %9.4f %9d\n", label, m.Precision, m.Recall, m.F1, m.Support)
	}
	return buf.String()
}
