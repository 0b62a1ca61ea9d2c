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
	"github.com/juju/errors"

	"github.com/hdscreen-io/hdscreen/dataset"
)

// feature maps one model input to a table cell. A numeric feature carries
// the cell value; a dummy feature is 1 when the cell holds its level.
type feature struct {
	column string
	level  string
	dummy  bool
}

// Encoding translates table rows into dense feature vectors. It is frozen
// at training time so test rows encode against the training schema: levels
// unseen during training encode to all-zero dummies.
type Encoding struct {
	features []feature
}

// NewEncoding builds an encoding for the given predictors from a training
// table. Categorical predictors expand to one dummy per level; dropFirst
// leaves out the first level as reference, which keeps a design matrix with
// an intercept full rank.
func NewEncoding(t *dataset.Table, predictors []string, dropFirst bool) (*Encoding, error) {
	enc := &Encoding{}
	for _, name := range predictors {
		col, exist := t.Column(name)
		if !exist {
			return nil, errors.Errorf("predictor %q is not in the dataset", name)
		}
		switch col.Type {
		case dataset.Numeric:
			enc.features = append(enc.features, feature{column: name})
		case dataset.Categorical:
			levels := col.Levels
			if dropFirst && len(levels) > 1 {
				levels = levels[1:]
			}
			for _, level := range levels {
				enc.features = append(enc.features, feature{column: name, level: level, dummy: true})
			}
		}
	}
	if len(enc.features) == 0 {
		return nil, errors.New("empty predictor set")
	}
	return enc, nil
}

// NumFeatures returns the width of encoded vectors.
func (enc *Encoding) NumFeatures() int {
	return len(enc.features)
}

// Encode converts every row of a table into a feature vector. The table
// must contain every encoded column with no missing cell.
func (enc *Encoding) Encode(t *dataset.Table) ([][]float32, error) {
	columns := make([]*dataset.Column, len(enc.features))
	for j, f := range enc.features {
		col, exist := t.Column(f.column)
		if !exist {
			return nil, errors.Errorf("predictor %q is not in the dataset", f.column)
		}
		columns[j] = col
	}
	x := make([][]float32, t.NumRow())
	for i := range x {
		x[i] = make([]float32, len(enc.features))
		for j, f := range enc.features {
			col := columns[j]
			if col.IsMissing(i) {
				return nil, errors.Errorf("column %q row %d is missing, preprocess first", f.column, i)
			}
			if f.dummy {
				if col.Level(i) == f.level {
					x[i][j] = 1
				}
			} else {
				x[i][j] = col.Float(i)
			}
		}
	}
	return x, nil
}
