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
	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"

	"github.com/hdscreen-io/hdscreen/base"
)

// Type is the semantic type of a column.
type Type int

const (
	// Numeric columns hold real values.
	Numeric Type = iota
	// Categorical columns hold one of a fixed set of levels.
	Categorical
)

// Column is a single typed column. Missing cells are tracked by an explicit
// bitmask instead of in-band sentinel values.
type Column struct {
	Name   string
	Type   Type
	Values []float32 // numeric cells
	Levels []string  // categorical levels in first-seen order
	Codes  []int32   // categorical cells as indices into Levels
	miss   *bitset.BitSet
}

// NewNumericColumn creates a numeric column of n cells, all missing.
func NewNumericColumn(name string, n int) *Column {
	return &Column{
		Name:   name,
		Type:   Numeric,
		Values: make([]float32, n),
		miss:   bitset.New(uint(n)).SetAll(),
	}
}

// NewCategoricalColumn creates a categorical column of n cells, all missing.
func NewCategoricalColumn(name string, n int) *Column {
	return &Column{
		Name:  name,
		Type:  Categorical,
		Codes: make([]int32, n),
		miss:  bitset.New(uint(n)).SetAll(),
	}
}

// Len returns the number of cells.
func (c *Column) Len() int {
	if c.Type == Numeric {
		return len(c.Values)
	}
	return len(c.Codes)
}

// IsMissing reports whether cell i is missing.
func (c *Column) IsMissing(i int) bool {
	return c.miss.Test(uint(i))
}

// SetMissing marks cell i as missing.
func (c *Column) SetMissing(i int) {
	c.miss.Set(uint(i))
}

// CountMissing returns the number of missing cells.
func (c *Column) CountMissing() int {
	return int(c.miss.Count())
}

// SetFloat sets numeric cell i.
func (c *Column) SetFloat(i int, v float32) {
	c.Values[i] = v
	c.miss.Clear(uint(i))
}

// Float returns numeric cell i. The caller must check IsMissing first.
func (c *Column) Float(i int) float32 {
	return c.Values[i]
}

// SetLevel sets categorical cell i to the named level, interning the level
// on first use.
func (c *Column) SetLevel(i int, level string) {
	c.Codes[i] = c.levelCode(level)
	c.miss.Clear(uint(i))
}

// Level returns the level name of categorical cell i.
func (c *Column) Level(i int) string {
	return c.Levels[c.Codes[i]]
}

// LevelIndex returns the index of a level, or -1 if the column has never
// seen it.
func (c *Column) LevelIndex(level string) int {
	for j, l := range c.Levels {
		if l == level {
			return j
		}
	}
	return -1
}

func (c *Column) levelCode(level string) int32 {
	if j := c.LevelIndex(level); j >= 0 {
		return int32(j)
	}
	c.Levels = append(c.Levels, level)
	return int32(len(c.Levels) - 1)
}

// subset copies the given cells into a fresh column.
func (c *Column) subset(rows []int) *Column {
	var out *Column
	switch c.Type {
	case Numeric:
		out = NewNumericColumn(c.Name, len(rows))
		for i, r := range rows {
			if !c.IsMissing(r) {
				out.SetFloat(i, c.Values[r])
			}
		}
	case Categorical:
		out = NewCategoricalColumn(c.Name, len(rows))
		out.Levels = append(out.Levels, c.Levels...)
		for i, r := range rows {
			if !c.IsMissing(r) {
				out.Codes[i] = c.Codes[r]
				out.miss.Clear(uint(i))
			}
		}
	}
	return out
}

// Table is an ordered collection of rows sharing one schema.
type Table struct {
	columns []*Column
	index   map[string]int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add appends a column. The column must have the same length as existing
// columns and a unique name.
func (t *Table) Add(col *Column) error {
	if _, exist := t.index[col.Name]; exist {
		return errors.Errorf("duplicated column %q", col.Name)
	}
	if len(t.columns) > 0 && col.Len() != t.NumRow() {
		return errors.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), t.NumRow())
	}
	t.index[col.Name] = len(t.columns)
	t.columns = append(t.columns, col)
	return nil
}

// NumRow returns the number of rows.
func (t *Table) NumRow() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// NumColumn returns the number of columns.
func (t *Table) NumColumn() int {
	return len(t.columns)
}

// Names returns column names in schema order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// Has reports whether the table has the named column.
func (t *Table) Has(name string) bool {
	_, exist := t.index[name]
	return exist
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, exist := t.index[name]
	if !exist {
		return nil, false
	}
	return t.columns[i], true
}

// SubSet copies the given rows into a fresh table, preserving schema order.
func (t *Table) SubSet(rows []int) *Table {
	out := NewTable()
	for _, col := range t.columns {
		// Add cannot fail: names are unique and lengths are equal.
		_ = out.Add(col.subset(rows))
	}
	return out
}

// Drop copies the table without the named columns.
func (t *Table) Drop(names ...string) *Table {
	dropped := make(map[string]bool, len(names))
	for _, name := range names {
		dropped[name] = true
	}
	out := NewTable()
	for _, col := range t.columns {
		if !dropped[col.Name] {
			_ = out.Add(col.subset(base.RangeInt(col.Len())))
		}
	}
	return out
}

// CompleteRows returns indices of rows without a single missing cell.
func (t *Table) CompleteRows() []int {
	rows := make([]int, 0, t.NumRow())
	for i := 0; i < t.NumRow(); i++ {
		complete := true
		for _, col := range t.columns {
			if col.IsMissing(i) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}
	return rows
}
