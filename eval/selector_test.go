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

func singleResult(threshold, sens, spec, acc float64) *Result {
	return &Result{
		Thresholds: []float64{threshold},
		Metrics:    []Metrics{{Sensitivity: sens, Specificity: spec, Accuracy: acc}},
	}
}

func TestSelector_PrefersAccuracy(t *testing.T) {
	selector := NewSelector(0.8)
	results := map[string]*Result{
		"logit":  singleResult(0.5, 0.85, 0.80, 0.83),
		"forest": singleResult(0.5, 0.85, 0.80, 0.88),
	}
	complexity := map[string]Complexity{
		"logit":  {Family: 0, NumPredictors: 7},
		"forest": {Family: 1, NumPredictors: 7},
	}
	chosen, err := selector.Select(results, complexity)
	require.NoError(t, err)
	assert.Equal(t, "forest", chosen.Model)
	assert.Equal(t, 0.5, chosen.Threshold)
}

func TestSelector_SimplerWinsNearTie(t *testing.T) {
	selector := NewSelector(0.8)
	// identical metrics: the structurally simpler family must win
	results := map[string]*Result{
		"forest": singleResult(0.5, 0.8438, 0.81, 0.83),
		"logit":  singleResult(0.5, 0.8438, 0.81, 0.83),
	}
	complexity := map[string]Complexity{
		"logit":  {Family: 0, NumPredictors: 7},
		"forest": {Family: 1, NumPredictors: 7},
	}
	chosen, err := selector.Select(results, complexity)
	require.NoError(t, err)
	assert.Equal(t, "logit", chosen.Model)

	// same family: fewer predictors wins
	results = map[string]*Result{
		"logit-extended": singleResult(0.5, 0.8438, 0.81, 0.83),
		"logit-primary":  singleResult(0.5, 0.8438, 0.81, 0.83),
	}
	complexity = map[string]Complexity{
		"logit-primary":  {Family: 0, NumPredictors: 7},
		"logit-extended": {Family: 0, NumPredictors: 10},
	}
	chosen, err = selector.Select(results, complexity)
	require.NoError(t, err)
	assert.Equal(t, "logit-primary", chosen.Model)
}

func TestSelector_SoftSensitivityBar(t *testing.T) {
	// nobody clears 0.80: fall back to the best achievable sensitivity
	selector := NewSelector(0.8)
	results := map[string]*Result{
		"logit": {
			Thresholds: []float64{0.4, 0.6},
			Metrics: []Metrics{
				{Sensitivity: 0.75, Specificity: 0.70, Accuracy: 0.72},
				{Sensitivity: 0.60, Specificity: 0.90, Accuracy: 0.78},
			},
		},
	}
	complexity := map[string]Complexity{"logit": {Family: 0, NumPredictors: 7}}
	chosen, err := selector.Select(results, complexity)
	require.NoError(t, err)
	assert.Equal(t, 0.4, chosen.Threshold)
	assert.Equal(t, 0.75, chosen.Metrics.Sensitivity)
}

func TestSelector_IgnoresUndefinedMetrics(t *testing.T) {
	selector := NewSelector(0.8)
	results := map[string]*Result{
		"logit": {
			Thresholds: []float64{0.5, 1.0},
			Metrics: []Metrics{
				{Sensitivity: 0.9, Specificity: 0.8, Accuracy: 0.85},
				// no predicted positives at all and no actual positives in
				// some degenerate slice: NaN must never win
				{Sensitivity: math.NaN(), Specificity: 1.0, Accuracy: 0.95},
			},
		},
	}
	complexity := map[string]Complexity{"logit": {Family: 0, NumPredictors: 7}}
	chosen, err := selector.Select(results, complexity)
	require.NoError(t, err)
	assert.Equal(t, 0.5, chosen.Threshold)
}

func TestSelector_NoCandidate(t *testing.T) {
	selector := NewSelector(0.8)
	results := map[string]*Result{
		"logit": singleResult(0.5, math.NaN(), 1.0, math.NaN()),
	}
	complexity := map[string]Complexity{"logit": {Family: 0, NumPredictors: 7}}
	_, err := selector.Select(results, complexity)
	assert.Error(t, err)
}

func TestSelector_CustomPreference(t *testing.T) {
	selector := NewSelector(0)
	// a swapped-in rule that only maximizes specificity
	selector.Prefer = func(a, b Candidate) bool {
		return a.Metrics.Specificity > b.Metrics.Specificity
	}
	results := map[string]*Result{
		"logit":  singleResult(0.5, 0.9, 0.70, 0.9),
		"forest": singleResult(0.5, 0.5, 0.99, 0.6),
	}
	complexity := map[string]Complexity{
		"logit":  {Family: 0, NumPredictors: 7},
		"forest": {Family: 1, NumPredictors: 7},
	}
	chosen, err := selector.Select(results, complexity)
	require.NoError(t, err)
	assert.Equal(t, "forest", chosen.Model)
}

func TestSelector_DeterministicNearTies(t *testing.T) {
	// accuracies chained one near-tie apart: 0.83000 ~ 0.83008 ~ 0.83016
	// with epsilon 1e-4. A pairwise-difference comparison is not transitive
	// here, so the winner would depend on map iteration order.
	selector := NewSelector(0)
	results := map[string]*Result{
		"a-simple":  singleResult(0.5, 0.9, 0.8, 0.83000),
		"b-mid":     singleResult(0.5, 0.9, 0.8, 0.83008),
		"c-complex": singleResult(0.5, 0.9, 0.8, 0.83016),
	}
	complexity := map[string]Complexity{
		"a-simple":  {Family: 0, NumPredictors: 5},
		"b-mid":     {Family: 0, NumPredictors: 7},
		"c-complex": {Family: 1, NumPredictors: 10},
	}
	for i := 0; i < 200; i++ {
		chosen, err := selector.Select(results, complexity)
		require.NoError(t, err)
		assert.Equal(t, "c-complex", chosen.Model)
	}
	ranked, err := selector.Rank(results, complexity)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "c-complex", ranked[0].Model)
	assert.Equal(t, "b-mid", ranked[1].Model)
	assert.Equal(t, "a-simple", ranked[2].Model)
}

func TestSelector_Rank(t *testing.T) {
	selector := NewSelector(0.5)
	results := map[string]*Result{
		"logit":  singleResult(0.5, 0.9, 0.8, 0.85),
		"forest": singleResult(0.5, 0.9, 0.8, 0.80),
	}
	complexity := map[string]Complexity{
		"logit":  {Family: 0, NumPredictors: 7},
		"forest": {Family: 1, NumPredictors: 7},
	}
	ranked, err := selector.Rank(results, complexity)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "logit", ranked[0].Model)
	assert.Equal(t, "forest", ranked[1].Model)
}
