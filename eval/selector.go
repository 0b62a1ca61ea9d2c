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
	"sort"

	"github.com/juju/errors"
	"golang.org/x/exp/maps"
)

// Complexity ranks a model for the simplicity tie-break: lower family and
// fewer predictors beat higher. Logistic regression ranks below random
// forest.
type Complexity struct {
	Family        int
	NumPredictors int
}

// Candidate is one (model, threshold) pair with its metrics.
type Candidate struct {
	Model     string
	Threshold float64
	Metrics   Metrics
}

// Preference orders two candidates; it returns true when a should be chosen
// over b. It is a standalone function so the tie-break policy can be swapped
// and tested on its own.
type Preference func(a, b Candidate) bool

// Selector picks a final (model, threshold) pair from evaluation results.
//
// MinSensitivity is a soft target: when no candidate clears it, the bar
// drops to the best achievable sensitivity instead of failing closed.
// Metric differences within Epsilon count as ties and fall through to the
// simplicity rule.
type Selector struct {
	MinSensitivity float64
	Epsilon        float64

	// Prefer overrides the default accuracy/specificity/simplicity order
	// when set.
	Prefer Preference
}

// NewSelector creates a selector with the default near-tie margin.
func NewSelector(minSensitivity float64) *Selector {
	return &Selector{
		MinSensitivity: minSensitivity,
		Epsilon:        1e-4,
	}
}

// Select applies the selection policy over every swept (model, threshold)
// pair. complexity must carry one entry per model in results.
func (s *Selector) Select(results map[string]*Result, complexity map[string]Complexity) (Candidate, error) {
	models := maps.Keys(results)
	sort.Strings(models)
	for _, name := range models {
		if _, exist := complexity[name]; !exist {
			return Candidate{}, errors.Errorf("no complexity rank for model %q", name)
		}
	}
	candidates := s.collect(results)
	if len(candidates) == 0 {
		return Candidate{}, errors.New("no candidate with defined metrics")
	}
	filtered := s.filterSensitivity(candidates)
	prefer := s.Prefer
	if prefer == nil {
		prefer = s.defaultPreference(complexity)
	}
	best := filtered[0]
	for _, c := range filtered[1:] {
		if prefer(c, best) {
			best = c
		}
	}
	return best, nil
}

// collect flattens results into candidates with defined metrics. The output
// is sorted by model name and threshold so selection never inherits the
// randomized map iteration order.
func (s *Selector) collect(results map[string]*Result) []Candidate {
	candidates := make([]Candidate, 0)
	for name, result := range results {
		for i, t := range result.Thresholds {
			m := result.Metrics[i]
			// undefined sensitivity or accuracy can never be preferred
			if math.IsNaN(m.Sensitivity) || math.IsNaN(m.Accuracy) {
				continue
			}
			candidates = append(candidates, Candidate{Model: name, Threshold: t, Metrics: m})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Model != candidates[j].Model {
			return candidates[i].Model < candidates[j].Model
		}
		return candidates[i].Threshold < candidates[j].Threshold
	})
	return candidates
}

// filterSensitivity keeps candidates at or above the sensitivity bar. When
// none clears it, the bar drops to the best achievable sensitivity, so the
// selector reports the best available trade-off instead of nothing.
func (s *Selector) filterSensitivity(candidates []Candidate) []Candidate {
	bar := s.MinSensitivity
	achievable := math.Inf(-1)
	for _, c := range candidates {
		if c.Metrics.Sensitivity > achievable {
			achievable = c.Metrics.Sensitivity
		}
	}
	if achievable < bar {
		bar = achievable
	}
	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Metrics.Sensitivity >= bar-s.Epsilon {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// defaultPreference orders by accuracy, then specificity, then the
// simplicity rule, with a deterministic final tie-break on model name and
// threshold. Metrics are compared through Epsilon-wide buckets rather than
// pairwise differences, which keeps the order transitive when near-ties
// chain across the margin.
func (s *Selector) defaultPreference(complexity map[string]Complexity) Preference {
	return func(a, b Candidate) bool {
		if ba, bb := s.bucket(a.Metrics.Accuracy), s.bucket(b.Metrics.Accuracy); ba != bb {
			return ba > bb
		}
		if ba, bb := s.bucket(a.Metrics.Specificity), s.bucket(b.Metrics.Specificity); ba != bb {
			return ba > bb
		}
		ca, cb := complexity[a.Model], complexity[b.Model]
		if ca.Family != cb.Family {
			return ca.Family < cb.Family
		}
		if ca.NumPredictors != cb.NumPredictors {
			return ca.NumPredictors < cb.NumPredictors
		}
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		return a.Threshold < b.Threshold
	}
}

// bucket quantizes a metric to its Epsilon-wide bucket index. Values in the
// same bucket count as tied.
func (s *Selector) bucket(v float64) float64 {
	v = finite(v)
	if s.Epsilon <= 0 || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v / s.Epsilon)
}

// finite maps NaN to negative infinity so an undefined metric never wins a
// comparison.
func finite(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}

// Rank returns every candidate in preference order, best first. It exposes
// the raw trade-offs behind a selection for reporting.
func (s *Selector) Rank(results map[string]*Result, complexity map[string]Complexity) ([]Candidate, error) {
	if _, err := s.Select(results, complexity); err != nil {
		return nil, errors.Trace(err)
	}
	filtered := s.filterSensitivity(s.collect(results))
	prefer := s.Prefer
	if prefer == nil {
		prefer = s.defaultPreference(complexity)
	}
	sort.SliceStable(filtered, func(i, j int) bool { return prefer(filtered[i], filtered[j]) })
	return filtered, nil
}
