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

// Package hdscreen wires the screening pipeline end to end: load the
// clinical dataset, hold out a stratified test set, preprocess each
// partition on its own, fit the classifier variants, sweep decision
// thresholds on the test set and select the final (model, threshold) pair.
package hdscreen

import (
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/hdscreen-io/hdscreen/base/log"
	"github.com/hdscreen-io/hdscreen/base/parallel"
	"github.com/hdscreen-io/hdscreen/config"
	"github.com/hdscreen-io/hdscreen/dataset"
	"github.com/hdscreen-io/hdscreen/eval"
	"github.com/hdscreen-io/hdscreen/model"
)

// Variant is one classifier fitted over one predictor subset.
type Variant struct {
	Name       string
	Classifier model.Classifier
	CVScore    model.Score
	Probs      []float32
	Result     *eval.Result
}

// Complexity ranks the variant for the simplicity tie-break.
func (v *Variant) Complexity() eval.Complexity {
	return eval.Complexity{
		Family:        familyRank(v.Classifier.Family()),
		NumPredictors: len(v.Classifier.Predictors()),
	}
}

func familyRank(family model.Family) int {
	if family == model.LogisticRegressionFamily {
		return 0
	}
	return 1
}

// Report is the outcome of one pipeline run.
type Report struct {
	TrainRows int
	TestRows  int
	Variants  []*Variant
	Selected  eval.Candidate
}

// Variants builds the default classifier variants: each family fitted over
// the primary and the extended predictor subset.
func Variants(cfg *config.Config) []*Variant {
	params := model.Params{model.RandomState: cfg.Split.Seed}
	return []*Variant{
		{Name: "logit-primary", Classifier: model.NewLogisticRegression(cfg.Predictors.Primary, params.Copy())},
		{Name: "logit-extended", Classifier: model.NewLogisticRegression(cfg.Predictors.Extended, params.Copy())},
		{Name: "forest-primary", Classifier: model.NewRandomForest(cfg.Predictors.Primary, params.Copy())},
		{Name: "forest-extended", Classifier: model.NewRandomForest(cfg.Predictors.Extended, params.Copy())},
	}
}

// Run executes the whole pipeline and returns the report.
func Run(cfg *config.Config) (*Report, error) {
	raw, err := dataset.Load(cfg.Data.Path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// the raw table is partitioned before any preprocessing so that no
	// statistic of the test rows can leak into training
	split := dataset.NewStratifiedSplitter(cfg.Split.TestRatio)
	trainRaw, testRaw := split(raw, cfg.Split.Seed)
	trainSet, err := dataset.Preprocess(trainRaw)
	if err != nil {
		return nil, errors.Trace(err)
	}
	testSet, err := dataset.Preprocess(testRaw)
	if err != nil {
		return nil, errors.Trace(err)
	}
	testLabels, err := dataset.Labels(testSet)
	if err != nil {
		return nil, errors.Trace(err)
	}

	variants := Variants(cfg)
	fitConfig := cfg.Train.GetFitConfig()
	thresholds := eval.DefaultThresholds(cfg.Evaluate.ThresholdStep)
	// variants are independent: each owns its classifier and writes only its
	// own fields, so they train concurrently
	err = parallel.Parallel(len(variants), cfg.Train.Jobs, func(_, jobId int) error {
		v := variants[jobId]
		if err := fitVariant(v, trainSet, cfg, fitConfig); err != nil {
			return errors.Trace(err)
		}
		probs, err := v.Classifier.PredictProba(testSet)
		if err != nil {
			return errors.Trace(err)
		}
		v.Probs = probs
		result, err := eval.Evaluate(probs, testLabels, thresholds, cfg.Train.Jobs)
		if err != nil {
			return errors.Trace(err)
		}
		v.Result = result
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	results := make(map[string]*eval.Result, len(variants))
	complexity := make(map[string]eval.Complexity, len(variants))
	for _, v := range variants {
		results[v.Name] = v.Result
		complexity[v.Name] = v.Complexity()
	}

	selector := eval.NewSelector(cfg.Evaluate.MinSensitivity)
	selector.Epsilon = cfg.Evaluate.Epsilon
	selected, err := selector.Select(results, complexity)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("selected final model",
		zap.String("variant", selected.Model),
		zap.Float64("threshold", selected.Threshold),
		zap.Float64("sensitivity", selected.Metrics.Sensitivity),
		zap.Float64("specificity", selected.Metrics.Specificity),
		zap.Float64("accuracy", selected.Metrics.Accuracy))
	return &Report{
		TrainRows: trainSet.NumRow(),
		TestRows:  testSet.NumRow(),
		Variants:  variants,
		Selected:  selected,
	}, nil
}

// fitVariant tunes and fits one variant on the training set. Random forests
// tune mtry by cross-validated grid search; logistic regressions are
// cross-validated as they are and refitted on the whole training set.
func fitVariant(v *Variant, trainSet *dataset.Table, cfg *config.Config, fitConfig *model.FitConfig) error {
	switch m := v.Classifier.(type) {
	case *model.RandomForest:
		// an empty grid falls back to the model's default grid
		result, err := model.GridSearchCV(m, trainSet, model.ParamsGrid{},
			cfg.Split.Folds, cfg.Split.Seed, fitConfig)
		if err != nil {
			return errors.Trace(err)
		}
		v.CVScore = result.BestScore
	default:
		scores, err := model.CrossValidate(v.Classifier, trainSet,
			cfg.Split.Folds, cfg.Split.Seed, fitConfig)
		if err != nil {
			return errors.Trace(err)
		}
		v.CVScore = model.MeanScore(scores)
		v.Classifier.Clear()
		if err = v.Classifier.Fit(trainSet, fitConfig); err != nil {
			return errors.Trace(err)
		}
	}
	log.Logger().Info("fitted variant",
		append([]zap.Field{zap.String("variant", v.Name)}, v.CVScore.ZapFields()...)...)
	return nil
}

// Tune searches classifier families and hyper-parameters jointly on the
// training partition and returns the best configuration found.
func Tune(cfg *config.Config) (model.BestModel, error) {
	raw, err := dataset.Load(cfg.Data.Path)
	if err != nil {
		return model.BestModel{}, errors.Trace(err)
	}
	split := dataset.NewStratifiedSplitter(cfg.Split.TestRatio)
	trainRaw, _ := split(raw, cfg.Split.Seed)
	trainSet, err := dataset.Preprocess(trainRaw)
	if err != nil {
		return model.BestModel{}, errors.Trace(err)
	}
	creators := map[string]model.ModelCreator{
		"logit": func() model.Classifier {
			return model.NewLogisticRegression(cfg.Predictors.Extended,
				model.Params{model.RandomState: cfg.Split.Seed})
		},
		"forest": func() model.Classifier {
			return model.NewRandomForest(cfg.Predictors.Extended,
				model.Params{model.RandomState: cfg.Split.Seed})
		},
	}
	search := model.NewModelSearch(creators, trainSet,
		cfg.Split.Folds, cfg.Split.Seed, cfg.Train.GetFitConfig())
	best, err := search.Optimize(cfg.Tune.Trials)
	if err != nil {
		return model.BestModel{}, errors.Trace(err)
	}
	log.Logger().Info("tuned model",
		append([]zap.Field{zap.String("type", best.Type), zap.Any("params", best.Params)},
			best.Score.ZapFields()...)...)
	return best, nil
}

// Format renders the report: one summary row per variant, the threshold
// sweep of the selected variant and the final choice.
func (r *Report) Format(w io.Writer) {
	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Variant", "Predictors", "CV Accuracy", "CV AUC"})
	for _, v := range r.Variants {
		summary.Append([]string{
			v.Name,
			fmt.Sprintf("%d", len(v.Classifier.Predictors())),
			fmt.Sprintf("%.4f", v.CVScore.Accuracy),
			fmt.Sprintf("%.4f", v.CVScore.AUC),
		})
	}
	summary.Render()

	for _, v := range r.Variants {
		if v.Name != r.Selected.Model {
			continue
		}
		sweep := tablewriter.NewWriter(w)
		sweep.SetHeader([]string{"Threshold", "Sensitivity", "Specificity", "Accuracy"})
		for i, t := range v.Result.Thresholds {
			m := v.Result.Metrics[i]
			sweep.Append([]string{
				fmt.Sprintf("%.2f", t),
				fmt.Sprintf("%.4f", m.Sensitivity),
				fmt.Sprintf("%.4f", m.Specificity),
				fmt.Sprintf("%.4f", m.Accuracy),
			})
		}
		sweep.Render()
	}

	_, _ = fmt.Fprintf(w, "selected %s at threshold %.2f (sensitivity %.4f, specificity %.4f, accuracy %.4f)\n",
		r.Selected.Model, r.Selected.Threshold,
		r.Selected.Metrics.Sensitivity, r.Selected.Metrics.Specificity, r.Selected.Metrics.Accuracy)
}
