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
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/hdscreen-io/hdscreen/base/floats"
	"github.com/hdscreen-io/hdscreen/base/log"
	"github.com/hdscreen-io/hdscreen/dataset"
)

// LogisticRegression is a generalized linear model with logit link, fit by
// maximum likelihood with full-batch gradient ascent on standardized
// features. No regularization.
type LogisticRegression struct {
	BaseModel
	enc     *Encoding
	weights []float32 // weights[0] is the intercept
	mean    []float32
	stdDev  []float32
}

// NewLogisticRegression creates a logistic regression restricted to the
// given predictors.
func NewLogisticRegression(predictors []string, params Params) *LogisticRegression {
	lr := new(LogisticRegression)
	lr.BaseModel = NewBaseModel(predictors, params)
	return lr
}

// Family returns LogisticRegressionFamily.
func (lr *LogisticRegression) Family() Family {
	return LogisticRegressionFamily
}

// Clear resets the model to the unfitted state.
func (lr *LogisticRegression) Clear() {
	lr.enc = nil
	lr.weights = nil
	lr.mean = nil
	lr.stdDev = nil
}

// Invalid reports whether the model has not been fitted.
func (lr *LogisticRegression) Invalid() bool {
	return lr.weights == nil
}

// SuggestParams draws hyper-parameters from a goptuna trial.
func (lr *LogisticRegression) SuggestParams(trial goptuna.Trial) Params {
	learningRate, _ := trial.SuggestLogFloat(string(Lr), 0.01, 1)
	nEpochs, _ := trial.SuggestStepInt(string(NEpochs), 100, 1000, 100)
	return Params{
		Lr:      float32(learningRate),
		NEpochs: nEpochs,
	}
}

// GetParamsGrid returns the default grid for cross-validated tuning.
func (lr *LogisticRegression) GetParamsGrid() ParamsGrid {
	return ParamsGrid{
		Lr:      []interface{}{0.1, 0.5, 1.0},
		NEpochs: []interface{}{400},
	}
}

// Fit estimates the coefficients by maximum likelihood.
func (lr *LogisticRegression) Fit(trainSet *dataset.Table, config *FitConfig) error {
	config = config.LoadDefaultIfNil()
	labels, err := dataset.Labels(trainSet)
	if err != nil {
		return errors.Trace(err)
	}
	if err = checkTwoClasses(labels); err != nil {
		return errors.Trace(err)
	}
	enc, err := NewEncoding(trainSet, lr.Predictors(), true)
	if err != nil {
		return errors.Trace(err)
	}
	x, err := enc.Encode(trainSet)
	if err != nil {
		return errors.Trace(err)
	}
	mean, stdDev := standardMoments(x)
	standardize(x, mean, stdDev)
	nEpochs := lr.Params.GetInt(NEpochs, 400)
	learningRate := lr.Params.GetFloat32(Lr, 0.5)
	n := float32(len(x))
	weights := make([]float32, enc.NumFeatures()+1)
	grad := make([]float32, len(weights))
	for epoch := 1; epoch <= nEpochs; epoch++ {
		floats.Zero(grad)
		logLikelihood := float32(0)
		for i, row := range x {
			p := sigmoid(weights[0] + floats.Dot(weights[1:], row))
			y := float32(0)
			if labels[i] {
				y = 1
			}
			d := y - p
			grad[0] += d
			floats.MulConstAddTo(row, d, grad[1:])
			if labels[i] {
				logLikelihood += math32.Log(p + 1e-10)
			} else {
				logLikelihood += math32.Log(1 - p + 1e-10)
			}
		}
		floats.MulConstAddTo(grad, learningRate/n, weights)
		if config.Verbose > 0 && epoch%config.Verbose == 0 {
			log.Logger().Debug("fit logistic regression",
				zap.Int("epoch", epoch),
				zap.Int("n_epochs", nEpochs),
				zap.Float32("log_likelihood", logLikelihood))
		}
	}
	lr.enc = enc
	lr.weights = weights
	lr.mean = mean
	lr.stdDev = stdDev
	return nil
}

// PredictProba returns one positive-class probability per row.
func (lr *LogisticRegression) PredictProba(testSet *dataset.Table) ([]float32, error) {
	if lr.Invalid() {
		return nil, errors.New("model is not fitted")
	}
	x, err := lr.enc.Encode(testSet)
	if err != nil {
		return nil, errors.Trace(err)
	}
	standardize(x, lr.mean, lr.stdDev)
	probs := make([]float32, len(x))
	for i, row := range x {
		probs[i] = sigmoid(lr.weights[0] + floats.Dot(lr.weights[1:], row))
	}
	return probs, nil
}

func sigmoid(z float32) float32 {
	return 1 / (1 + math32.Exp(-z))
}

// standardMoments returns the per-feature mean and standard deviation.
// Constant features get a standard deviation of 1.
func standardMoments(x [][]float32) (mean, stdDev []float32) {
	if len(x) == 0 {
		return nil, nil
	}
	width := len(x[0])
	mean = make([]float32, width)
	stdDev = make([]float32, width)
	n := float32(len(x))
	for _, row := range x {
		floats.Add(mean, row)
	}
	floats.MulConst(mean, 1/n)
	for _, row := range x {
		for j, v := range row {
			d := v - mean[j]
			stdDev[j] += d * d
		}
	}
	for j := range stdDev {
		stdDev[j] = math32.Sqrt(stdDev[j] / n)
		if stdDev[j] == 0 {
			stdDev[j] = 1
		}
	}
	return mean, stdDev
}

func standardize(x [][]float32, mean, stdDev []float32) {
	for _, row := range x {
		floats.SubTo(row, mean, row)
		for j := range row {
			row[j] /= stdDev[j]
		}
	}
}

// checkTwoClasses guards against fitting on a single-class sample.
func checkTwoClasses(labels []bool) error {
	if len(labels) == 0 {
		return errors.Annotate(dataset.ErrDegenerateData, "empty training set")
	}
	first := labels[0]
	for _, label := range labels {
		if label != first {
			return nil
		}
	}
	return errors.Annotate(dataset.ErrDegenerateData, "training rows carry a single class")
}
