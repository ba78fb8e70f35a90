package classify

import (
	"math/rand"
	"sort"
)

// Balance downsamples every class to the minority class count and
// returns the kept rows in their original relative order. Labels and
// groups move in lock-step with the feature rows, so group-aware
// bookkeeping downstream stays valid. The draw is seeded: the same
// inputs and seed always keep the same rows.
func Balance(x [][]float64, y []string, groups []int, seed int64) ([][]float64, []string, []int) {
	rng := rand.New(rand.NewSource(seed))
	idx := balancedIndices(y, rng)

	bx := make([][]float64, len(idx))
	by := make([]string, len(idx))
	var bg []int
	if groups != nil {
		bg = make([]int, len(idx))
	}
	for i, j := range idx {
		bx[i] = x[j]
		by[i] = y[j]
		if groups != nil {
			bg[i] = groups[j]
		}
	}
	return bx, by, bg
}

// balancedIndices picks min-class-count rows per class at random and
// returns the union sorted ascending.
func balancedIndices(y []string, rng *rand.Rand) []int {
	byClass := map[string][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	minority := -1
	for _, rows := range byClass {
		if minority < 0 || len(rows) < minority {
			minority = len(rows)
		}
	}
	if minority <= 0 {
		return nil
	}

	// iterate classes in stable order so the rng stream is reproducible
	classes := make([]string, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Strings(classes)

	var keep []int
	for _, label := range classes {
		rows := byClass[label]
		shuffled := make([]int, len(rows))
		copy(shuffled, rows)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		keep = append(keep, shuffled[:minority]...)
	}
	sort.Ints(keep)
	return keep
}
