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

package config

import (
	"github.com/juju/errors"
	"github.com/spf13/viper"

	"github.com/hdscreen-io/hdscreen/dataset"
	"github.com/hdscreen-io/hdscreen/model"
)

// Config is the configuration of the screening pipeline.
type Config struct {
	Data       DataConfig       `mapstructure:"data"`
	Split      SplitConfig      `mapstructure:"split"`
	Predictors PredictorsConfig `mapstructure:"predictors"`
	Train      TrainConfig      `mapstructure:"train"`
	Evaluate   EvaluateConfig   `mapstructure:"evaluate"`
	Tune       TuneConfig       `mapstructure:"tune"`
}

// DataConfig points at the input dataset.
type DataConfig struct {
	Path string `mapstructure:"path"`
}

// SplitConfig controls the train/test partition and cross-validation.
type SplitConfig struct {
	Seed      int64   `mapstructure:"seed"`
	TestRatio float64 `mapstructure:"test_ratio"`
	Folds     int     `mapstructure:"folds"`
}

// PredictorsConfig lists the predictor subsets fitted per model family.
type PredictorsConfig struct {
	Primary  []string `mapstructure:"primary"`
	Extended []string `mapstructure:"extended"`
}

// TrainConfig controls model fitting.
type TrainConfig struct {
	Jobs    int `mapstructure:"jobs"`
	Verbose int `mapstructure:"verbose"`
}

// EvaluateConfig controls the threshold sweep and the selection policy.
type EvaluateConfig struct {
	ThresholdStep  float64 `mapstructure:"threshold_step"`
	MinSensitivity float64 `mapstructure:"min_sensitivity"`
	Epsilon        float64 `mapstructure:"epsilon"`
}

// TuneConfig controls hyper-parameter search.
type TuneConfig struct {
	Trials int `mapstructure:"trials"`
}

// GetFitConfig creates a fit config from the train section.
func (c TrainConfig) GetFitConfig() *model.FitConfig {
	return model.NewFitConfig().
		SetJobs(c.Jobs).
		SetVerbose(c.Verbose)
}

// GetDefaultConfig returns a configuration with default values.
func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Path: "hd.csv",
		},
		Split: SplitConfig{
			Seed:      2025,
			TestRatio: 0.2,
			Folds:     5,
		},
		Predictors: PredictorsConfig{
			Primary: []string{"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg"},
			Extended: []string{"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg",
				"thalach", "exang", "oldpeak"},
		},
		Train: TrainConfig{
			Jobs:    1,
			Verbose: 100,
		},
		Evaluate: EvaluateConfig{
			ThresholdStep:  0.05,
			MinSensitivity: 0.6,
			Epsilon:        1e-4,
		},
		Tune: TuneConfig{
			Trials: 10,
		},
	}
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	// [data]
	viper.SetDefault("data.path", defaultConfig.Data.Path)
	// [split]
	viper.SetDefault("split.seed", defaultConfig.Split.Seed)
	viper.SetDefault("split.test_ratio", defaultConfig.Split.TestRatio)
	viper.SetDefault("split.folds", defaultConfig.Split.Folds)
	// [predictors]
	viper.SetDefault("predictors.primary", defaultConfig.Predictors.Primary)
	viper.SetDefault("predictors.extended", defaultConfig.Predictors.Extended)
	// [train]
	viper.SetDefault("train.jobs", defaultConfig.Train.Jobs)
	viper.SetDefault("train.verbose", defaultConfig.Train.Verbose)
	// [evaluate]
	viper.SetDefault("evaluate.threshold_step", defaultConfig.Evaluate.ThresholdStep)
	viper.SetDefault("evaluate.min_sensitivity", defaultConfig.Evaluate.MinSensitivity)
	viper.SetDefault("evaluate.epsilon", defaultConfig.Evaluate.Epsilon)
	// [tune]
	viper.SetDefault("tune.trials", defaultConfig.Tune.Trials)
}

type configBinding struct {
	key string
	env string
}

// LoadConfig loads and validates the configuration from a TOML file. Bound
// environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	setDefault()

	bindings := []configBinding{
		{"data.path", "HDSCREEN_DATA_PATH"},
		{"split.seed", "HDSCREEN_SPLIT_SEED"},
		{"split.folds", "HDSCREEN_SPLIT_FOLDS"},
		{"train.jobs", "HDSCREEN_TRAIN_JOBS"},
		{"tune.trials", "HDSCREEN_TUNE_TRIALS"},
	}
	for _, binding := range bindings {
		if err := viper.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}

	viper.SetConfigType("toml")
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Trace(err)
	}
	var conf Config
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	conf.validate()
	return &conf, nil
}

func (config *Config) validate() {
	validateNotEmpty("data.path", config.Data.Path)
	validateRatio("split.test_ratio", config.Split.TestRatio)
	validateAtLeast("split.folds", config.Split.Folds, 2)
	validateListNotEmpty("predictors.primary", config.Predictors.Primary)
	validateListNotEmpty("predictors.extended", config.Predictors.Extended)
	validateSubset("predictors.primary", config.Predictors.Primary, dataset.PredictorNames())
	validateSubset("predictors.extended", config.Predictors.Extended, dataset.PredictorNames())
	validatePositive("train.jobs", config.Train.Jobs)
	validateNotNegative("train.verbose", config.Train.Verbose)
	validateRatio("evaluate.threshold_step", config.Evaluate.ThresholdStep)
	validateUnitInterval("evaluate.min_sensitivity", config.Evaluate.MinSensitivity)
	validateUnitInterval("evaluate.epsilon", config.Evaluate.Epsilon)
	validatePositive("tune.trials", config.Tune.Trials)
}
