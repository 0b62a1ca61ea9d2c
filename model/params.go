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
	"reflect"

	"go.uber.org/zap"

	"github.com/hdscreen-io/hdscreen/base/log"
)

/* ParamName */

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	Lr          ParamName = "Lr"          // learning rate
	NEpochs     ParamName = "NEpochs"     // number of epochs
	NTrees      ParamName = "NTrees"      // number of trees in a forest
	MaxDepth    ParamName = "MaxDepth"    // maximum tree depth
	MinLeafSize ParamName = "MinLeafSize" // minimum rows per leaf
	Mtry        ParamName = "Mtry"        // predictors sampled per split
	RandomState ParamName = "RandomState" // random state (seed)
)

// Params stores hyper-parameters for a model. It is a map between names and
// values. For example, hyper-parameters for a random forest are given by:
//
//	model.Params{
//		model.NTrees:   500,
//		model.MaxDepth: 16,
//		model.Mtry:     3,
//	}
type Params map[ParamName]interface{}

// Copy hyper-parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// Overwrite merges hyper-parameters into a copy of this set. Values in the
// argument win.
func (parameters Params) Overwrite(params Params) Params {
	merged := parameters.Copy()
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

// GetInt gets an integer parameter by name. Returns _default if it doesn't
// exist or the type doesn't match.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		default:
			log.Logger().Error("failed to get int parameter",
				zap.String("name", string(name)),
				zap.String("type", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetInt64 gets an int64 parameter by name. Returns _default if it doesn't
// exist or the type doesn't match. The type will be converted if given int.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			log.Logger().Error("failed to get int64 parameter",
				zap.String("name", string(name)),
				zap.String("type", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetFloat32 gets a float32 parameter by name. Returns _default if it
// doesn't exist or the type doesn't match.
func (parameters Params) GetFloat32(name ParamName, _default float32) float32 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float32:
			return val
		case float64:
			return float32(val)
		case int:
			return float32(val)
		default:
			log.Logger().Error("failed to get float32 parameter",
				zap.String("name", string(name)),
				zap.String("type", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

/* ParamsGrid */

// ParamsGrid contains candidate values for hyper-parameters.
type ParamsGrid map[ParamName][]interface{}

// NumCombinations returns the number of combinations in the grid.
func (grid ParamsGrid) NumCombinations() int {
	count := 1
	for _, values := range grid {
		count *= len(values)
	}
	return count
}

// Fill adds parameters from a default grid if they are absent.
func (grid ParamsGrid) Fill(_default ParamsGrid) {
	for param, values := range _default {
		if _, exist := grid[param]; !exist {
			grid[param] = values
		}
	}
}
