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
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestUnmarshal(t *testing.T) {
	data, err := os.ReadFile("config.toml.template")
	assert.NoError(t, err)
	viper.SetConfigType("toml")
	err = viper.ReadConfig(strings.NewReader(string(data)))
	assert.NoError(t, err)
	var config Config
	err = viper.Unmarshal(&config)
	assert.NoError(t, err)

	// [data]
	assert.Equal(t, "hd.csv", config.Data.Path)
	// [split]
	assert.Equal(t, int64(2025), config.Split.Seed)
	assert.Equal(t, 0.2, config.Split.TestRatio)
	assert.Equal(t, 5, config.Split.Folds)
	// [predictors]
	assert.Equal(t, []string{"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg"},
		config.Predictors.Primary)
	assert.Equal(t, []string{"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg",
		"thalach", "exang", "oldpeak"}, config.Predictors.Extended)
	// [train]
	assert.Equal(t, 1, config.Train.Jobs)
	assert.Equal(t, 100, config.Train.Verbose)
	// [evaluate]
	assert.Equal(t, 0.05, config.Evaluate.ThresholdStep)
	assert.Equal(t, 0.6, config.Evaluate.MinSensitivity)
	assert.Equal(t, 0.0001, config.Evaluate.Epsilon)
	// [tune]
	assert.Equal(t, 10, config.Tune.Trials)
}

func TestSetDefault(t *testing.T) {
	setDefault()
	viper.SetConfigType("toml")
	err := viper.ReadConfig(strings.NewReader(""))
	assert.NoError(t, err)
	var config Config
	err = viper.Unmarshal(&config)
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), &config)
}

type environmentVariable struct {
	key   string
	value string
}

func TestBindEnv(t *testing.T) {
	variables := []environmentVariable{
		{"HDSCREEN_DATA_PATH", "<data_path>"},
		{"HDSCREEN_SPLIT_SEED", "123"},
		{"HDSCREEN_SPLIT_FOLDS", "10"},
		{"HDSCREEN_TRAIN_JOBS", "4"},
		{"HDSCREEN_TUNE_TRIALS", "20"},
	}
	for _, variable := range variables {
		t.Setenv(variable.key, variable.value)
	}

	config, err := LoadConfig("config.toml.template")
	assert.NoError(t, err)
	assert.Equal(t, "<data_path>", config.Data.Path)
	assert.Equal(t, int64(123), config.Split.Seed)
	assert.Equal(t, 10, config.Split.Folds)
	assert.Equal(t, 4, config.Train.Jobs)
	assert.Equal(t, 20, config.Tune.Trials)

	// check default values
	assert.Equal(t, 0.2, config.Split.TestRatio)
}

func TestGetFitConfig(t *testing.T) {
	c := TrainConfig{Jobs: 4, Verbose: 50}
	fitConfig := c.GetFitConfig()
	assert.Equal(t, 4, fitConfig.Jobs)
	assert.Equal(t, 50, fitConfig.Verbose)
}
