// Copyright 2025 hdscreen Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"sort"

	"github.com/hdscreen-io/hdscreen/base"
)

// Splitter splits a table into a training set and a test set.
type Splitter func(t *Table, seed int64) (train, test *Table)

// FoldSplitter splits a table into k pairs of training and validation folds.
type FoldSplitter func(t *Table, seed int64) (trainFolds, testFolds []*Table)

// NewStratifiedSplitter creates a splitter that samples the test set at the
// given ratio within each outcome stratum, so both partitions keep the class
// balance of the whole table. Strata are the levels of the raw outcome
// collapsed to negative/positive.
func NewStratifiedSplitter(testRatio float64) Splitter {
	return func(t *Table, seed int64) (*Table, *Table) {
		rng := base.NewRandomGenerator(seed)
		strata := outcomeStrata(t)
		trainIndex := make([]int, 0, t.NumRow())
		testIndex := make([]int, 0, t.NumRow())
		for _, stratum := range strata {
			perm := rng.Perm(len(stratum))
			testSize := int(float64(len(stratum)) * testRatio)
			for i, p := range perm {
				if i < testSize {
					testIndex = append(testIndex, stratum[p])
				} else {
					trainIndex = append(trainIndex, stratum[p])
				}
			}
		}
		// keep the original row order inside each partition
		sort.Ints(trainIndex)
		sort.Ints(testIndex)
		return t.SubSet(trainIndex), t.SubSet(testIndex)
	}
}

// outcomeStrata groups row indices by binary outcome. Rows with a missing
// outcome fall into the negative stratum: they are dropped later by
// preprocessing anyway.
func outcomeStrata(t *Table) [][]int {
	negative := make([]int, 0, t.NumRow())
	positive := make([]int, 0, t.NumRow())
	num, exist := t.Column(Outcome)
	if !exist {
		return [][]int{base.RangeInt(t.NumRow())}
	}
	for i := 0; i < t.NumRow(); i++ {
		if !num.IsMissing(i) && num.Level(i) != OutcomeNegative && num.Level(i) != "0" {
			positive = append(positive, i)
		} else {
			negative = append(negative, i)
		}
	}
	return [][]int{negative, positive}
}

// NewKFoldSplitter creates a k-fold splitter. Rows are assigned to folds by
// a seeded permutation; fold sizes differ by at most one row.
func NewKFoldSplitter(k int) FoldSplitter {
	return func(t *Table, seed int64) ([]*Table, []*Table) {
		trainFolds := make([]*Table, k)
		testFolds := make([]*Table, k)
		rng := base.NewRandomGenerator(seed)
		perm := rng.Perm(t.NumRow())
		foldSize := t.NumRow() / k
		begin, end := 0, 0
		for i := 0; i < k; i++ {
			end += foldSize
			if i < t.NumRow()%k {
				end++
			}
			testFolds[i] = t.SubSet(perm[begin:end])
			trainIndex := base.Concatenate(perm[0:begin], perm[end:t.NumRow()])
			trainFolds[i] = t.SubSet(trainIndex)
			begin = end
		}
		return trainFolds, testFolds
	}
}
