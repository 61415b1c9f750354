// Package folds partitions labelled rows into cross-validation folds.
package folds

import (
	"fmt"
	"sort"
)

// Split is one cross-validation fold. Fold numbers start at 1.
type Split struct {
	Fold  int
	Train []int
	Test  []int
}

// StratifiedKFold assigns every row to exactly one test fold so that each
// fold keeps the class proportions of the whole label vector. Rows are not
// shuffled: within a class, earlier rows land in earlier folds.
type StratifiedKFold struct {
	NSplits int
}

// Split returns NSplits folds over y. Classes are ordered by first
// appearance and rows are dealt to folds round-robin over the class-sorted
// label vector, which reproduces the allocation of scikit-learn's
// StratifiedKFold without shuffling.
func (k StratifiedKFold) Split(y []int) ([]Split, error) {
	if k.NSplits < 2 {
		return nil, fmt.Errorf("need at least 2 splits, got %d", k.NSplits)
	}
	if len(y) < k.NSplits {
		return nil, fmt.Errorf("cannot have %d splits with %d samples", k.NSplits, len(y))
	}

	// encode classes by order of first appearance
	classOf := make(map[int]int)
	encoded := make([]int, len(y))
	for i, label := range y {
		c, ok := classOf[label]
		if !ok {
			c = len(classOf)
			classOf[label] = c
		}
		encoded[i] = c
	}
	nClasses := len(classOf)

	counts := make([]int, nClasses)
	for _, c := range encoded {
		counts[c]++
	}
	if allBelow(counts, k.NSplits) {
		return nil, fmt.Errorf("%d splits is greater than the number of members in each class", k.NSplits)
	}

	ordered := append([]int(nil), encoded...)
	sort.Ints(ordered)

	// allocation[f][c] is how many rows of class c go to test fold f
	allocation := make([][]int, k.NSplits)
	for f := range allocation {
		allocation[f] = make([]int, nClasses)
		for i := f; i < len(ordered); i += k.NSplits {
			allocation[f][ordered[i]]++
		}
	}

	testFold := make([]int, len(y))
	next := make([]int, nClasses)
	remaining := make([]int, nClasses)
	for c := range remaining {
		remaining[c] = allocation[0][c]
	}
	for i, c := range encoded {
		for remaining[c] == 0 {
			next[c]++
			remaining[c] = allocation[next[c]][c]
		}
		testFold[i] = next[c]
		remaining[c]--
	}

	splits := make([]Split, k.NSplits)
	for f := range splits {
		splits[f].Fold = f + 1
	}
	for i, f := range testFold {
		for g := range splits {
			if g == f {
				splits[g].Test = append(splits[g].Test, i)
			} else {
				splits[g].Train = append(splits[g].Train, i)
			}
		}
	}
	return splits, nil
}

func allBelow(counts []int, n int) bool {
	for _, c := range counts {
		if c >= n {
			return false
		}
	}
	return true
}
