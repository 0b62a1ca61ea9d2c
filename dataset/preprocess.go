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
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/hdscreen-io/hdscreen/base/log"
)

// Columns removed before modeling. slope, ca and thal come from invasive
// procedures and carry heavy missingness.
var droppedColumns = []string{"slope", "ca", "thal"}

// Target is the derived binary outcome column.
const Target = "heart"

// Outcome is the raw multi-class outcome column (degree of vessel narrowing).
const Outcome = "num"

// OutcomeNegative is the level of Outcome meaning no narrowing.
const OutcomeNegative = "v0"

const (
	// TargetPositive marks presence of heart disease.
	TargetPositive = "yes"
	// TargetNegative marks absence of heart disease.
	TargetNegative = "no"
)

// recodings maps raw categorical codes to labels. Cells already carrying a
// label are left untouched, which keeps Preprocess idempotent.
var recodings = map[string]map[string]string{
	"sex":     {"0": "female", "1": "male"},
	"fbs":     {"0": "false", "1": "true"},
	"exang":   {"0": "no", "1": "yes"},
	"cp":      {"1": "typical angina", "2": "atypical angina", "3": "non-anginal pain", "4": "asymptomatic"},
	"restecg": {"0": "normal", "1": "st-t abnormality", "2": "lv hypertrophy"},
	"num":     {"0": "v0", "1": "v1", "2": "v2", "3": "v3", "4": "v4"},
}

// Preprocess cleans a raw table for modeling. Steps, in order: drop the
// excluded columns, convert chol==0 sentinel cells to missing, drop rows
// with any missing cell, recode categorical columns, derive the binary
// target from num. The output carries no missing cell. ErrDegenerateData
// is returned when no row survives.
func Preprocess(raw *Table) (*Table, error) {
	t := raw.Drop(droppedColumns...)
	// chol records 0 where the measurement is absent
	if chol, exist := t.Column("chol"); exist {
		for i := 0; i < chol.Len(); i++ {
			if !chol.IsMissing(i) && chol.Float(i) == 0 {
				chol.SetMissing(i)
			}
		}
	}
	// complete cases only
	rows := t.CompleteRows()
	if len(rows) == 0 {
		return nil, errors.Annotate(ErrDegenerateData, "preprocessing dropped every row")
	}
	dropped := t.NumRow() - len(rows)
	t = t.SubSet(rows)
	// recode raw categorical codes to labels
	for name, mapping := range recodings {
		col, exist := t.Column(name)
		if !exist {
			continue
		}
		recodeLevels(col, mapping)
	}
	// derive the binary target
	num, exist := t.Column(Outcome)
	if !exist {
		return nil, errors.Annotatef(ErrSchema, "missing column %q", Outcome)
	}
	heart := NewCategoricalColumn(Target, t.NumRow())
	heart.Levels = []string{TargetNegative, TargetPositive}
	for i := 0; i < t.NumRow(); i++ {
		if num.Level(i) != OutcomeNegative {
			heart.SetLevel(i, TargetPositive)
		} else {
			heart.SetLevel(i, TargetNegative)
		}
	}
	if t.Has(Target) {
		t = t.Drop(Target)
	}
	if err := t.Add(heart); err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("preprocessed dataset",
		zap.Int("num_rows", t.NumRow()),
		zap.Int("dropped_rows", dropped))
	return t, nil
}

// recodeLevels renames levels in place. Unknown levels stay as they are, so
// already-recoded columns pass through unchanged.
func recodeLevels(col *Column, mapping map[string]string) {
	for j, level := range col.Levels {
		if label, exist := mapping[level]; exist {
			col.Levels[j] = label
		}
	}
}

// Labels extracts the binary target as booleans, true for the positive class.
func Labels(t *Table) ([]bool, error) {
	col, exist := t.Column(Target)
	if !exist {
		return nil, errors.Annotatef(ErrSchema, "missing column %q", Target)
	}
	labels := make([]bool, t.NumRow())
	for i := range labels {
		if col.IsMissing(i) {
			return nil, errors.Annotatef(ErrSchema, "column %q row %d is missing", Target, i)
		}
		labels[i] = col.Level(i) == TargetPositive
	}
	return labels, nil
}
