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

package model

import (
	"runtime"
	"sort"

	"github.com/c-bata/goptuna"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"

	"github.com/hdscreen-io/hdscreen/base"
	"github.com/hdscreen-io/hdscreen/base/parallel"
	"github.com/hdscreen-io/hdscreen/dataset"
)

// RandomForest is an ensemble of CART trees, each grown on a bootstrap
// resample with a random subset of predictors considered at every split.
// The predicted probability is the fraction of trees voting positive.
type RandomForest struct {
	BaseModel
	enc   *Encoding
	trees []*cartNode
}

// NewRandomForest creates a random forest restricted to the given predictors.
func NewRandomForest(predictors []string, params Params) *RandomForest {
	rf := new(RandomForest)
	rf.BaseModel = NewBaseModel(predictors, params)
	return rf
}

// Family returns RandomForestFamily.
func (rf *RandomForest) Family() Family {
	return RandomForestFamily
}

// Clear resets the model to the unfitted state.
func (rf *RandomForest) Clear() {
	rf.enc = nil
	rf.trees = nil
}

// Invalid reports whether the model has not been fitted.
func (rf *RandomForest) Invalid() bool {
	return rf.trees == nil
}

// SuggestParams draws hyper-parameters from a goptuna trial.
func (rf *RandomForest) SuggestParams(trial goptuna.Trial) Params {
	nTrees, _ := trial.SuggestStepInt(string(NTrees), 100, 500, 100)
	maxDepth, _ := trial.SuggestInt(string(MaxDepth), 4, 16)
	mtry, _ := trial.SuggestInt(string(Mtry), 1, len(rf.Predictors()))
	return Params{
		NTrees:   nTrees,
		MaxDepth: maxDepth,
		Mtry:     mtry,
	}
}

// GetParamsGrid returns the default grid for cross-validated tuning. mtry
// is the parameter that matters; the grid brackets the square root of the
// predictor count.
func (rf *RandomForest) GetParamsGrid() ParamsGrid {
	p := len(rf.Predictors())
	mtry := defaultMtry(p)
	candidates := []interface{}{mtry}
	if mtry > 1 {
		candidates = append([]interface{}{mtry - 1}, candidates...)
	}
	if mtry < p {
		candidates = append(candidates, mtry+1)
	}
	return ParamsGrid{Mtry: candidates}
}

func defaultMtry(p int) int {
	mtry := int(math32.Round(math32.Sqrt(float32(p))))
	if mtry < 1 {
		mtry = 1
	}
	return mtry
}

// Fit grows the ensemble. Trees are grown in parallel; each tree owns a
// random generator seeded from RandomState and its tree index, so results
// do not depend on scheduling.
func (rf *RandomForest) Fit(trainSet *dataset.Table, config *FitConfig) error {
	config = config.LoadDefaultIfNil()
	labels, err := dataset.Labels(trainSet)
	if err != nil {
		return errors.Trace(err)
	}
	if err = checkTwoClasses(labels); err != nil {
		return errors.Trace(err)
	}
	enc, err := NewEncoding(trainSet, rf.Predictors(), false)
	if err != nil {
		return errors.Trace(err)
	}
	x, err := enc.Encode(trainSet)
	if err != nil {
		return errors.Trace(err)
	}
	nTrees := rf.Params.GetInt(NTrees, 500)
	maxDepth := rf.Params.GetInt(MaxDepth, 16)
	minLeafSize := rf.Params.GetInt(MinLeafSize, 1)
	mtry := rf.Params.GetInt(Mtry, defaultMtry(enc.NumFeatures()))
	if mtry > enc.NumFeatures() {
		mtry = enc.NumFeatures()
	}
	seed := rf.Params.GetInt64(RandomState, 0)
	var bar *progressbar.ProgressBar
	if config.Verbose > 0 {
		bar = progressbar.Default(int64(nTrees), "fit random forest")
	}
	trees := make([]*cartNode, nTrees)
	err = parallel.Parallel(nTrees, config.Jobs, func(_, treeId int) error {
		rng := base.NewRandomGenerator(seed + int64(treeId))
		grower := &treeGrower{
			x:           x,
			labels:      labels,
			rng:         rng,
			maxDepth:    maxDepth,
			minLeafSize: minLeafSize,
			mtry:        mtry,
		}
		trees[treeId] = grower.grow(rng.Bootstrap(len(x)), 0)
		if bar != nil {
			_ = bar.Add(1)
		}
		return nil
	})
	if err != nil {
		return errors.Trace(err)
	}
	rf.enc = enc
	rf.trees = trees
	return nil
}

// PredictProba returns, per row, the fraction of trees voting positive.
func (rf *RandomForest) PredictProba(testSet *dataset.Table) ([]float32, error) {
	if rf.Invalid() {
		return nil, errors.New("model is not fitted")
	}
	x, err := rf.enc.Encode(testSet)
	if err != nil {
		return nil, errors.Trace(err)
	}
	probs := make([]float32, len(x))
	// rows are independent, so voting runs over row batches
	err = parallel.BatchParallel(len(x), runtime.NumCPU(), 64, func(_, begin, end int) error {
		for i := begin; i < end; i++ {
			votes := 0
			for _, tree := range rf.trees {
				if tree.predict(x[i]) {
					votes++
				}
			}
			probs[i] = float32(votes) / float32(len(rf.trees))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return probs, nil
}

// cartNode is one node of a CART tree. Leaves carry the majority vote.
type cartNode struct {
	feature   int
	threshold float32
	left      *cartNode
	right     *cartNode
	leaf      bool
	vote      bool
}

func (node *cartNode) predict(row []float32) bool {
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.vote
}

type treeGrower struct {
	x           [][]float32
	labels      []bool
	rng         base.RandomGenerator
	maxDepth    int
	minLeafSize int
	mtry        int
}

func (g *treeGrower) grow(rows []int, depth int) *cartNode {
	positive := 0
	for _, r := range rows {
		if g.labels[r] {
			positive++
		}
	}
	if depth >= g.maxDepth || positive == 0 || positive == len(rows) || len(rows) < 2*g.minLeafSize {
		return &cartNode{leaf: true, vote: 2*positive > len(rows)}
	}
	feature, threshold, ok := g.bestSplit(rows)
	if !ok {
		return &cartNode{leaf: true, vote: 2*positive > len(rows)}
	}
	var left, right []int
	for _, r := range rows {
		if g.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return &cartNode{
		feature:   feature,
		threshold: threshold,
		left:      g.grow(left, depth+1),
		right:     g.grow(right, depth+1),
	}
}

// bestSplit scans mtry randomly sampled features for the threshold with the
// lowest weighted Gini impurity.
func (g *treeGrower) bestSplit(rows []int) (int, float32, bool) {
	bestGini := math32.Inf(1)
	bestFeature, bestThreshold := -1, float32(0)
	total := len(rows)
	totalPositive := 0
	for _, r := range rows {
		if g.labels[r] {
			totalPositive++
		}
	}
	for _, feature := range g.rng.Sample(0, len(g.x[0]), g.mtry) {
		sorted := make([]int, len(rows))
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool {
			return g.x[sorted[i]][feature] < g.x[sorted[j]][feature]
		})
		leftCount, leftPositive := 0, 0
		for i := 0; i < total-1; i++ {
			leftCount++
			if g.labels[sorted[i]] {
				leftPositive++
			}
			value, next := g.x[sorted[i]][feature], g.x[sorted[i+1]][feature]
			if value == next {
				continue
			}
			if leftCount < g.minLeafSize || total-leftCount < g.minLeafSize {
				continue
			}
			gini := weightedGini(leftCount, leftPositive, total-leftCount, totalPositive-leftPositive)
			if gini < bestGini {
				bestGini = gini
				bestFeature = feature
				bestThreshold = (value + next) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func weightedGini(leftCount, leftPositive, rightCount, rightPositive int) float32 {
	total := float32(leftCount + rightCount)
	return float32(leftCount)/total*gini(leftCount, leftPositive) +
		float32(rightCount)/total*gini(rightCount, rightPositive)
}

func gini(count, positive int) float32 {
	p := float32(positive) / float32(count)
	return 2 * p * (1 - p)
}
