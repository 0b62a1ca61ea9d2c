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

// Package eval sweeps decision thresholds over predicted probabilities and
// selects a final (model, threshold) pair from the resulting trade-offs.
package eval

import (
	"math"

	"github.com/juju/errors"

	"github.com/hdscreen-io/hdscreen/base/parallel"
)

// ConfusionMatrix counts agreement between predicted and actual labels at
// one threshold.
type ConfusionMatrix struct {
	TP, TN, FP, FN int
}

// Confusion builds the confusion matrix at a threshold. A row is predicted
// positive when its probability is greater than or equal to the threshold.
func Confusion(probs []float32, labels []bool, threshold float64) ConfusionMatrix {
	var cm ConfusionMatrix
	for i, p := range probs {
		predicted := float64(p) >= threshold
		switch {
		case predicted && labels[i]:
			cm.TP++
		case predicted && !labels[i]:
			cm.FP++
		case !predicted && labels[i]:
			cm.FN++
		default:
			cm.TN++
		}
	}
	return cm
}

// Sensitivity is the true positive rate. NaN when there is no actual
// positive: an undefined metric stays undefined instead of defaulting.
func (cm ConfusionMatrix) Sensitivity() float64 {
	if cm.TP+cm.FN == 0 {
		return math.NaN()
	}
	return float64(cm.TP) / float64(cm.TP+cm.FN)
}

// Specificity is the true negative rate. NaN when there is no actual
// negative.
func (cm ConfusionMatrix) Specificity() float64 {
	if cm.TN+cm.FP == 0 {
		return math.NaN()
	}
	return float64(cm.TN) / float64(cm.TN+cm.FP)
}

// Accuracy is the fraction of correctly predicted rows.
func (cm ConfusionMatrix) Accuracy() float64 {
	total := cm.TP + cm.TN + cm.FP + cm.FN
	if total == 0 {
		return math.NaN()
	}
	return float64(cm.TP+cm.TN) / float64(total)
}

// Metrics is the triple derived from one confusion matrix.
type Metrics struct {
	Sensitivity float64
	Specificity float64
	Accuracy    float64
}

// Result maps each swept threshold to its metrics. Thresholds and Metrics
// are parallel slices in sweep order. Never mutated after Evaluate returns.
type Result struct {
	Thresholds []float64
	Metrics    []Metrics
}

// At returns the metrics at a threshold.
func (r *Result) At(threshold float64) (Metrics, bool) {
	for i, t := range r.Thresholds {
		if t == threshold {
			return r.Metrics[i], true
		}
	}
	return Metrics{}, false
}

// DefaultThresholds builds the grid 0, step, 2*step, ..., 1.
func DefaultThresholds(step float64) []float64 {
	thresholds := make([]float64, 0, int(1/step)+1)
	for i := 0; ; i++ {
		t := float64(i) * step
		if t >= 1-1e-9 {
			break
		}
		thresholds = append(thresholds, t)
	}
	return append(thresholds, 1)
}

// Evaluate sweeps the thresholds over predicted probabilities and true
// labels. Thresholds are independent of each other, so the sweep fans out
// across jobs workers.
func Evaluate(probs []float32, labels []bool, thresholds []float64, jobs int) (*Result, error) {
	if len(probs) != len(labels) {
		return nil, errors.Errorf("%d probabilities but %d labels", len(probs), len(labels))
	}
	if len(probs) == 0 {
		return nil, errors.New("empty predictions")
	}
	result := &Result{
		Thresholds: thresholds,
		Metrics:    make([]Metrics, len(thresholds)),
	}
	err := parallel.Parallel(len(thresholds), jobs, func(_, jobId int) error {
		cm := Confusion(probs, labels, thresholds[jobId])
		result.Metrics[jobId] = Metrics{
			Sensitivity: cm.Sensitivity(),
			Specificity: cm.Specificity(),
			Accuracy:    cm.Accuracy(),
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return result, nil
}
