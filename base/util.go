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

package base

import (
	"go.uber.org/zap"

	"github.com/hdscreen-io/hdscreen/base/log"
)

// CheckPanic catches panics.
func CheckPanic() {
	if r := recover(); r != nil {
		log.Logger().Error("panic recovered", zap.Any("panic", r))
	}
}

// RangeInt generates a slice [0, ..., n-1].
func RangeInt(n int) []int {
	a := make([]int, n)
	for i := range a {
		a[i] = i
	}
	return a
}

// Concatenate merges slices of integers to one slice of integers.
func Concatenate(arrays ...[]int) []int {
	total := 0
	for _, arr := range arrays {
		total += len(arr)
	}
	ret := make([]int, 0, total)
	for _, arr := range arrays {
		ret = append(ret, arr...)
	}
	return ret
}
