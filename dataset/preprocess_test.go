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

package dataset

import (
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdscreen-io/hdscreen/base"
)

func TestPreprocess(t *testing.T) {
	raw, err := Read(strings.NewReader(testCSV()))
	require.NoError(t, err)
	table, err := Preprocess(raw)
	require.NoError(t, err)

	// slope, ca and thal are gone and never resurface
	for _, name := range droppedColumns {
		assert.False(t, table.Has(name), name)
	}
	// chol == 0 is treated as missing, so row 3 is dropped; row 4 only
	// misses cells in dropped columns and survives
	assert.Equal(t, 5, table.NumRow())
	chol, _ := table.Column("chol")
	for i := 0; i < chol.Len(); i++ {
		assert.NotEqual(t, float32(0), chol.Float(i))
	}
	// no missing cell remains
	assert.Equal(t, base.RangeInt(table.NumRow()), table.CompleteRows())
	// recoded levels
	sex, _ := table.Column("sex")
	assert.Equal(t, "male", sex.Level(0))
	assert.Equal(t, "female", sex.Level(2))
	cp, _ := table.Column("cp")
	assert.Equal(t, "typical angina", cp.Level(0))
	assert.Equal(t, "asymptomatic", cp.Level(1))
	// derived target
	labels, err := Labels(table)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false, false, true}, labels)
}

func TestPreprocess_Idempotent(t *testing.T) {
	raw, err := Read(strings.NewReader(testCSV()))
	require.NoError(t, err)
	once, err := Preprocess(raw)
	require.NoError(t, err)
	twice, err := Preprocess(once)
	require.NoError(t, err)
	assert.Equal(t, once.NumRow(), twice.NumRow())
	assert.Equal(t, once.Names(), twice.Names())
	onceLabels, err := Labels(once)
	require.NoError(t, err)
	twiceLabels, err := Labels(twice)
	require.NoError(t, err)
	assert.Equal(t, onceLabels, twiceLabels)
	for _, name := range once.Names() {
		a, _ := once.Column(name)
		b, _ := twice.Column(name)
		if a.Type == Categorical {
			for i := 0; i < a.Len(); i++ {
				assert.Equal(t, a.Level(i), b.Level(i))
			}
		} else {
			assert.Equal(t, a.Values, b.Values)
		}
	}
}

func TestPreprocess_TargetRoundTrip(t *testing.T) {
	raw, err := Read(strings.NewReader(testCSV()))
	require.NoError(t, err)
	table, err := Preprocess(raw)
	require.NoError(t, err)
	num, _ := table.Column(Outcome)
	heart, _ := table.Column(Target)
	for i := 0; i < table.NumRow(); i++ {
		assert.Equal(t, num.Level(i) != OutcomeNegative, heart.Level(i) == TargetPositive)
	}
}

func TestPreprocess_Degenerate(t *testing.T) {
	// every row misses chol
	row := "63,1,1,145,0,1,2,150,0,2.3,3,6,0,cleveland,0"
	raw, err := Read(strings.NewReader(testCSV(row)))
	require.NoError(t, err)
	_, err = Preprocess(raw)
	assert.ErrorIs(t, errors.Cause(err), ErrDegenerateData)
}
