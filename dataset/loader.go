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
	"bufio"
	"io"
	"os"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/hdscreen-io/hdscreen/base/log"
)

// ErrSchema reports an input file whose shape or cell values do not match
// the expected schema.
var ErrSchema = errors.New("schema error")

// ErrDegenerateData reports a dataset that became unusable, e.g. every row
// was dropped by preprocessing or a fold carries a single outcome class.
var ErrDegenerateData = errors.New("degenerate data")

type columnSpec struct {
	name string
	typ  Type
}

// schema is the expected shape of hd.csv: one header row, one row per
// patient, raw (uncoded) values.
var schema = []columnSpec{
	{"age", Numeric},
	{"sex", Categorical},
	{"cp", Categorical},
	{"trestbps", Numeric},
	{"chol", Numeric},
	{"fbs", Categorical},
	{"restecg", Categorical},
	{"thalach", Numeric},
	{"exang", Categorical},
	{"oldpeak", Numeric},
	{"slope", Categorical},
	{"ca", Numeric},
	{"thal", Categorical},
	{"location", Categorical},
	{"num", Categorical},
}

// PredictorNames returns the columns usable as model predictors after
// preprocessing: every schema column except the dropped ones and the outcome.
func PredictorNames() []string {
	excluded := mapset.NewSet(droppedColumns...)
	excluded.Add(Outcome)
	names := make([]string, 0, len(schema))
	for _, spec := range schema {
		if !excluded.Contains(spec.name) {
			names = append(names, spec.name)
		}
	}
	return names
}

// Load reads a delimited clinical dataset from a file.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	t, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("loaded dataset",
		zap.String("path", path),
		zap.Int("num_rows", t.NumRow()),
		zap.Int("num_columns", t.NumColumn()))
	return t, nil
}

// Read parses a delimited clinical dataset into a typed table. Cells with
// the values "", "NA" or "?" are recorded as missing.
func Read(r io.Reader) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String))
	if df.Err != nil {
		return nil, errors.Annotate(ErrSchema, df.Err.Error())
	}
	names := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		names[name] = true
	}
	t := NewTable()
	for _, spec := range schema {
		if !names[spec.name] {
			return nil, errors.Annotatef(ErrSchema, "missing column %q", spec.name)
		}
		records := df.Col(spec.name).Records()
		col, err := parseColumn(spec, records)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if err = t.Add(col); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return t, nil
}

func parseColumn(spec columnSpec, records []string) (*Column, error) {
	switch spec.typ {
	case Numeric:
		col := NewNumericColumn(spec.name, len(records))
		for i, cell := range records {
			if isMissingCell(cell) {
				continue
			}
			v, err := strconv.ParseFloat(cell, 32)
			if err != nil {
				return nil, errors.Annotatef(ErrSchema,
					"column %q row %d: %q is not numeric", spec.name, i, cell)
			}
			col.SetFloat(i, float32(v))
		}
		return col, nil
	case Categorical:
		col := NewCategoricalColumn(spec.name, len(records))
		for i, cell := range records {
			if isMissingCell(cell) {
				continue
			}
			col.SetLevel(i, cell)
		}
		return col, nil
	}
	return nil, errors.Annotatef(ErrSchema, "column %q has unknown type", spec.name)
}

func isMissingCell(cell string) bool {
	// gota surfaces empty cells of string columns as "NaN"
	return cell == "" || cell == "NA" || cell == "NaN" || cell == "?"
}
