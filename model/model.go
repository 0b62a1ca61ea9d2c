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
	"go.uber.org/zap"

	"github.com/hdscreen-io/hdscreen/base"
	"github.com/hdscreen-io/hdscreen/dataset"
)

// Family identifies a classifier family.
type Family string

const (
	// LogisticRegressionFamily is a generalized linear model with logit link.
	LogisticRegressionFamily Family = "logistic_regression"
	// RandomForestFamily is an ensemble of bagged decision trees.
	RandomForestFamily Family = "random_forest"
)

// Classifier is a binary classifier predicting the probability of the
// positive class of the derived target.
type Classifier interface {
	// Family returns the classifier family.
	Family() Family
	// Predictors returns the predictor columns the model is restricted to.
	Predictors() []string
	// SetParams sets hyper-parameters.
	SetParams(params Params)
	// GetParams returns hyper-parameters.
	GetParams() Params
	// SuggestParams draws hyper-parameters from a goptuna trial.
	SuggestParams(trial goptuna.Trial) Params
	// GetParamsGrid returns the default grid for cross-validated tuning.
	GetParamsGrid() ParamsGrid
	// Clear resets the model to the unfitted state.
	Clear()
	// Invalid reports whether the model has not been fitted.
	Invalid() bool
	// Fit trains the model. The training set must contain the target column
	// and every predictor column.
	Fit(trainSet *dataset.Table, config *FitConfig) error
	// PredictProba returns one positive-class probability per row, in row
	// order. Columns the model was not trained on are ignored.
	PredictProba(testSet *dataset.Table) ([]float32, error)
}

// BaseModel hosts the fields shared by all classifiers.
type BaseModel struct {
	Params     Params
	predictors []string
	rng        base.RandomGenerator
}

// NewBaseModel creates a BaseModel restricted to the given predictors.
func NewBaseModel(predictors []string, params Params) BaseModel {
	model := BaseModel{predictors: predictors}
	model.SetParams(params)
	return model
}

// SetParams sets hyper-parameters and reseeds the model's random generator.
func (model *BaseModel) SetParams(params Params) {
	model.Params = params
	model.rng = base.NewRandomGenerator(model.Params.GetInt64(RandomState, 0))
}

// GetParams returns hyper-parameters.
func (model *BaseModel) GetParams() Params {
	return model.Params
}

// Predictors returns the predictor columns the model is restricted to.
func (model *BaseModel) Predictors() []string {
	return model.predictors
}

// FitConfig is the runtime configuration for fitting, distinct from
// hyper-parameters.
type FitConfig struct {
	Jobs    int
	Verbose int
}

// NewFitConfig creates the default fit configuration.
func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 0,
	}
}

// SetVerbose sets the logging period in epochs or trees. Zero disables
// progress reporting.
func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

// SetJobs sets the number of concurrent workers.
func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

// LoadDefaultIfNil returns the default configuration for a nil receiver.
func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

// Score summarizes one model's validation performance.
type Score struct {
	Accuracy float32
	AUC      float32
}

// ZapFields returns fields for structured logging.
func (score Score) ZapFields() []zap.Field {
	return []zap.Field{
		zap.Float32("Accuracy", score.Accuracy),
		zap.Float32("AUC", score.AUC),
	}
}

// BetterThan compares two scores, AUC first.
func (score Score) BetterThan(s Score) bool {
	if score.AUC != s.AUC {
		return score.AUC > s.AUC
	}
	return score.Accuracy > s.Accuracy
}
