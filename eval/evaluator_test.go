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

package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfusion(t *testing.T) {
	probs := []float32{0.9, 0.4, 0.6, 0.1}
	labels := []bool{true, false, true, false}
	cm := Confusion(probs, labels, 0.5)
	assert.Equal(t, ConfusionMatrix{TP: 2, TN: 2, FP: 0, FN: 0}, cm)
	assert.Equal(t, 1.0, cm.Sensitivity())
	assert.Equal(t, 1.0, cm.Specificity())
	assert.Equal(t, 1.0, cm.Accuracy())

	cm = Confusion(probs, labels, 0.95)
	assert.Equal(t, ConfusionMatrix{TP: 0, TN: 2, FP: 0, FN: 2}, cm)
	assert.Equal(t, 0.0, cm.Sensitivity())
	assert.Equal(t, 1.0, cm.Specificity())
	assert.Equal(t, 0.5, cm.Accuracy())
}

func TestConfusionMatrix_Undefined(t *testing.T) {
	// no actual positive: sensitivity undefined, not defaulted
	cm := Confusion([]float32{0.2, 0.3}, []bool{false, false}, 0.5)
	assert.True(t, math.IsNaN(cm.Sensitivity()))
	assert.Equal(t, 1.0, cm.Specificity())
	// no actual negative: specificity undefined
	cm = Confusion([]float32{0.2, 0.3}, []bool{true, true}, 0.5)
	assert.True(t, math.IsNaN(cm.Specificity()))
	assert.Equal(t, 0.0, cm.Sensitivity())
}

func TestDefaultThresholds(t *testing.T) {
	thresholds := DefaultThresholds(0.05)
	assert.Len(t, thresholds, 21)
	assert.Equal(t, 0.0, thresholds[0])
	assert.Equal(t, 1.0, thresholds[20])
	assert.InDelta(t, 0.05, thresholds[1], 1e-9)
}

func TestEvaluate(t *testing.T) {
	probs := []float32{0.9, 0.4, 0.6, 0.1}
	labels := []bool{true, false, true, false}
	result, err := Evaluate(probs, labels, []float64{0.5, 0.95}, 2)
	require.NoError(t, err)
	m, ok := result.At(0.5)
	require.True(t, ok)
	assert.Equal(t, Metrics{Sensitivity: 1, Specificity: 1, Accuracy: 1}, m)
	m, ok = result.At(0.95)
	require.True(t, ok)
	assert.Equal(t, Metrics{Sensitivity: 0, Specificity: 1, Accuracy: 0.5}, m)
	_, ok = result.At(0.7)
	assert.False(t, ok)
}

func TestEvaluate_Bounds(t *testing.T) {
	probs := []float32{0.9, 0.4, 1.0, 0.1}
	labels := []bool{true, false, true, false}
	result, err := Evaluate(probs, labels, []float64{0, 1}, 1)
	require.NoError(t, err)
	// at threshold 0 every row is predicted positive
	m, _ := result.At(0)
	assert.Equal(t, 1.0, m.Sensitivity)
	assert.Equal(t, 0.0, m.Specificity)
	// at threshold 1, rows with probability exactly 1 still count positive
	m, _ = result.At(1)
	assert.Equal(t, 0.5, m.Sensitivity)
	assert.Equal(t, 1.0, m.Specificity)
}

func TestEvaluate_Monotonic(t *testing.T) {
	probs := []float32{0.05, 0.1, 0.33, 0.42, 0.42, 0.58, 0.61, 0.77, 0.89, 0.95}
	labels := []bool{false, false, true, false, true, false, true, true, false, true}
	result, err := Evaluate(probs, labels, DefaultThresholds(0.05), 4)
	require.NoError(t, err)
	for i := 1; i < len(result.Thresholds); i++ {
		assert.GreaterOrEqual(t, result.Metrics[i-1].Sensitivity, result.Metrics[i].Sensitivity)
		assert.LessOrEqual(t, result.Metrics[i-1].Specificity, result.Metrics[i].Specificity)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := Evaluate([]float32{0.5}, []bool{true, false}, []float64{0.5}, 1)
	assert.Error(t, err)
	_, err = Evaluate(nil, nil, []float64{0.5}, 1)
	assert.Error(t, err)
}
