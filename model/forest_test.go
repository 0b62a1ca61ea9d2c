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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdscreen-io/hdscreen/base"
)

func TestRandomForest_Fit(t *testing.T) {
	table := classificationTable(t, 60)
	rf := NewRandomForest([]string{"thalach"}, Params{
		NTrees:      50,
		MaxDepth:    4,
		RandomState: int64(42),
	})
	assert.True(t, rf.Invalid())
	require.NoError(t, rf.Fit(table, NewFitConfig().SetJobs(4)))
	assert.False(t, rf.Invalid())
	probs, err := rf.PredictProba(table)
	require.NoError(t, err)
	require.Len(t, probs, 60)
	for i := 0; i <= 25; i++ {
		assert.Lessf(t, probs[i], float32(0.5), "row %d", i)
	}
	for i := 34; i < 60; i++ {
		assert.Greaterf(t, probs[i], float32(0.5), "row %d", i)
	}
	rf.Clear()
	assert.True(t, rf.Invalid())
	_, err = rf.PredictProba(table)
	assert.Error(t, err)
}

// Predictions must not depend on how tree jobs were scheduled.
func TestRandomForest_Deterministic(t *testing.T) {
	table := classificationTable(t, 40)
	params := Params{NTrees: 20, MaxDepth: 4, RandomState: int64(7)}
	first := NewRandomForest([]string{"thalach", "sex"}, params)
	require.NoError(t, first.Fit(table, NewFitConfig().SetJobs(1)))
	second := NewRandomForest([]string{"thalach", "sex"}, params)
	require.NoError(t, second.Fit(table, NewFitConfig().SetJobs(4)))
	firstProbs, err := first.PredictProba(table)
	require.NoError(t, err)
	secondProbs, err := second.PredictProba(table)
	require.NoError(t, err)
	assert.Equal(t, firstProbs, secondProbs)
}

// Voting runs over row batches; the result must match a single batch.
func TestRandomForest_PredictBatches(t *testing.T) {
	table := classificationTable(t, 200)
	rf := NewRandomForest([]string{"thalach"}, Params{
		NTrees:      20,
		MaxDepth:    4,
		RandomState: int64(7),
	})
	require.NoError(t, rf.Fit(table, NewFitConfig()))
	probs, err := rf.PredictProba(table)
	require.NoError(t, err)
	require.Len(t, probs, 200)
	head, err := rf.PredictProba(table.SubSet(base.RangeInt(64)))
	require.NoError(t, err)
	assert.Equal(t, probs[:64], head)
}

func TestRandomForest_GetParamsGrid(t *testing.T) {
	rf := NewRandomForest([]string{"age", "sex", "cp", "trestbps"}, nil)
	grid := rf.GetParamsGrid()
	assert.Equal(t, []interface{}{1, 2, 3}, grid[Mtry])
	single := NewRandomForest([]string{"age"}, nil)
	assert.Equal(t, []interface{}{1}, single.GetParamsGrid()[Mtry])
}

func TestDefaultMtry(t *testing.T) {
	assert.Equal(t, 1, defaultMtry(1))
	assert.Equal(t, 2, defaultMtry(4))
	assert.Equal(t, 3, defaultMtry(10))
}

func TestGini(t *testing.T) {
	assert.Zero(t, gini(10, 0))
	assert.Zero(t, gini(10, 10))
	assert.InDelta(t, 0.5, gini(10, 5), 1e-6)
	// a perfect split has zero weighted impurity
	assert.Zero(t, weightedGini(5, 0, 5, 5))
}
