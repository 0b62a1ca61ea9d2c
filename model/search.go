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
	"fmt"
	"sort"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"modernc.org/sortutil"

	"github.com/hdscreen-io/hdscreen/base/log"
	"github.com/hdscreen-io/hdscreen/dataset"
)

// EvaluateClassification scores predicted probabilities against true labels:
// accuracy at the 0.5 cut plus the threshold-free AUC.
func EvaluateClassification(probs []float32, labels []bool) Score {
	var posPrediction, negPrediction []float32
	for i, p := range probs {
		if labels[i] {
			posPrediction = append(posPrediction, p)
		} else {
			negPrediction = append(negPrediction, p)
		}
	}
	return Score{
		Accuracy: accuracy(posPrediction, negPrediction),
		AUC:      auc(posPrediction, negPrediction),
	}
}

func accuracy(posPrediction, negPrediction []float32) float32 {
	if len(posPrediction)+len(negPrediction) == 0 {
		return 0
	}
	var correct float32
	for _, p := range posPrediction {
		if p >= 0.5 {
			correct++
		}
	}
	for _, p := range negPrediction {
		if p < 0.5 {
			correct++
		}
	}
	return correct / float32(len(posPrediction)+len(negPrediction))
}

func auc(posPrediction, negPrediction []float32) float32 {
	if len(posPrediction)*len(negPrediction) == 0 {
		return 0
	}
	sort.Sort(sortutil.Float32Slice(posPrediction))
	sort.Sort(sortutil.Float32Slice(negPrediction))
	var sum float32
	var nPos int
	for pPos := range posPrediction {
		// count negative samples with a smaller prediction than the current
		// positive sample
		for nPos < len(negPrediction) && negPrediction[nPos] < posPrediction[pPos] {
			nPos++
		}
		sum += float32(nPos)
	}
	return sum / float32(len(posPrediction)*len(negPrediction))
}

// MeanScore aggregates fold scores.
func MeanScore(scores []Score) Score {
	accuracies := lo.Map(scores, func(s Score, _ int) float64 { return float64(s.Accuracy) })
	aucs := lo.Map(scores, func(s Score, _ int) float64 { return float64(s.AUC) })
	return Score{
		Accuracy: float32(stat.Mean(accuracies, nil)),
		AUC:      float32(stat.Mean(aucs, nil)),
	}
}

// CrossValidate estimates out-of-sample performance by k-fold
// cross-validation inside the training set. The estimator is cleared and
// refitted per fold; the held-out test set is never touched.
func CrossValidate(estimator Classifier, trainSet *dataset.Table, folds int, seed int64, config *FitConfig) ([]Score, error) {
	if trainSet.NumRow() < folds {
		return nil, errors.Annotatef(dataset.ErrDegenerateData,
			"%d rows cannot fill %d folds", trainSet.NumRow(), folds)
	}
	splitter := dataset.NewKFoldSplitter(folds)
	trainFolds, testFolds := splitter(trainSet, seed)
	scores := make([]Score, folds)
	for i := 0; i < folds; i++ {
		estimator.Clear()
		if err := estimator.Fit(trainFolds[i], config); err != nil {
			return nil, errors.Trace(err)
		}
		probs, err := estimator.PredictProba(testFolds[i])
		if err != nil {
			return nil, errors.Trace(err)
		}
		labels, err := dataset.Labels(testFolds[i])
		if err != nil {
			return nil, errors.Trace(err)
		}
		scores[i] = EvaluateClassification(probs, labels)
	}
	return scores, nil
}

// ParamsSearchResult contains the return of a hyper-parameter search.
type ParamsSearchResult struct {
	BestScore  Score
	BestParams Params
	BestIndex  int
	Scores     []Score
	Params     []Params
}

// GridSearchCV finds the best hyper-parameters for a model by k-fold
// cross-validation over every combination in the grid. The estimator is
// left fitted with the best combination on the whole training set.
func GridSearchCV(estimator Classifier, trainSet *dataset.Table, paramGrid ParamsGrid,
	folds int, seed int64, config *FitConfig) (ParamsSearchResult, error) {
	paramGrid.Fill(estimator.GetParamsGrid())
	// Retrieve parameter names and length
	paramNames := make([]ParamName, 0, len(paramGrid))
	for paramName := range paramGrid {
		paramNames = append(paramNames, paramName)
	}
	sort.Slice(paramNames, func(i, j int) bool { return paramNames[i] < paramNames[j] })
	count := paramGrid.NumCombinations()
	// Construct DFS procedure
	results := ParamsSearchResult{
		Scores: make([]Score, 0, count),
		Params: make([]Params, 0, count),
	}
	progress := 0
	var searchErr error
	var dfs func(deep int, params Params)
	dfs = func(deep int, params Params) {
		if searchErr != nil {
			return
		}
		if deep == len(paramNames) {
			progress++
			log.Logger().Info(fmt.Sprintf("grid search %v/%v", progress, count),
				zap.Any("params", params))
			estimator.Clear()
			estimator.SetParams(estimator.GetParams().Overwrite(params))
			scores, err := CrossValidate(estimator, trainSet, folds, seed, config)
			if err != nil {
				searchErr = errors.Trace(err)
				return
			}
			score := MeanScore(scores)
			results.Scores = append(results.Scores, score)
			results.Params = append(results.Params, params.Copy())
			if len(results.Scores) == 1 || score.BetterThan(results.BestScore) {
				results.BestScore = score
				results.BestParams = params.Copy()
				results.BestIndex = len(results.Params) - 1
			}
		} else {
			paramName := paramNames[deep]
			for _, val := range paramGrid[paramName] {
				params[paramName] = val
				dfs(deep+1, params)
			}
		}
	}
	dfs(0, Params{})
	if searchErr != nil {
		return results, searchErr
	}
	// refit with the best combination on the whole training set
	estimator.Clear()
	estimator.SetParams(estimator.GetParams().Overwrite(results.BestParams))
	if err := estimator.Fit(trainSet, config); err != nil {
		return results, errors.Trace(err)
	}
	return results, nil
}
