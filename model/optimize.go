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
	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/juju/errors"
	"golang.org/x/exp/maps"

	"github.com/hdscreen-io/hdscreen/dataset"
)

// ModelCreator builds a fresh classifier.
type ModelCreator func() Classifier

// BestModel is the outcome of a model search.
type BestModel struct {
	Type   string
	Params Params
	Score  Score
}

// ModelSearch tunes classifier families and their hyper-parameters jointly
// with cross-validated scores as the objective.
type ModelSearch struct {
	modelCreators map[string]ModelCreator
	modelTypes    []string
	trainSet      *dataset.Table
	folds         int
	seed          int64
	config        *FitConfig
	result        BestModel
	found         bool
}

// NewModelSearch creates a model search over the given classifier creators.
func NewModelSearch(models map[string]ModelCreator, trainSet *dataset.Table,
	folds int, seed int64, config *FitConfig) *ModelSearch {
	modelTypes := maps.Keys(models)
	return &ModelSearch{
		modelCreators: models,
		modelTypes:    modelTypes,
		trainSet:      trainSet,
		folds:         folds,
		seed:          seed,
		config:        config,
	}
}

// Objective fits one suggested configuration and returns its mean
// cross-validated AUC.
func (ms *ModelSearch) Objective(trial goptuna.Trial) (float64, error) {
	if len(ms.modelCreators) == 0 {
		return 0, errors.New("no model to search")
	}
	modelType, err := trial.SuggestCategorical("Model", ms.modelTypes)
	if err != nil {
		return 0, errors.Trace(err)
	}
	m := ms.modelCreators[modelType]()
	m.SetParams(m.GetParams().Overwrite(m.SuggestParams(trial)))
	scores, err := CrossValidate(m, ms.trainSet, ms.folds, ms.seed, ms.config)
	if err != nil {
		return 0, errors.Trace(err)
	}
	score := MeanScore(scores)
	if !ms.found || score.BetterThan(ms.result.Score) {
		ms.result = BestModel{
			Type:   modelType,
			Params: m.GetParams(),
			Score:  score,
		}
		ms.found = true
	}
	return float64(score.AUC), nil
}

// Result returns the best configuration seen so far.
func (ms *ModelSearch) Result() BestModel {
	return ms.result
}

// Optimize runs the search for the given number of trials.
func (ms *ModelSearch) Optimize(numTrials int) (BestModel, error) {
	study, err := goptuna.CreateStudy("hdscreen",
		goptuna.StudyOptionSampler(tpe.NewSampler()),
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMaximize))
	if err != nil {
		return BestModel{}, errors.Trace(err)
	}
	if err = study.Optimize(ms.Objective, numTrials); err != nil {
		return BestModel{}, errors.Trace(err)
	}
	return ms.result, nil
}
