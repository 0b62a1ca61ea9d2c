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
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hdscreen-io/hdscreen"
	"github.com/hdscreen-io/hdscreen/base/log"
	"github.com/hdscreen-io/hdscreen/cmd/version"
	"github.com/hdscreen-io/hdscreen/config"
)

var rootCommand = &cobra.Command{
	Use:   "hdscreen",
	Short: "Heart disease screening model selection pipeline.",
	Run: func(cmd *cobra.Command, args []string) {
		// Show version
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		conf := loadConfig(cmd)
		report, err := hdscreen.Run(conf)
		if err != nil {
			log.Logger().Fatal("failed to run pipeline", zap.Error(err))
		}
		report.Format(os.Stdout)
	},
}

var tuneCommand = &cobra.Command{
	Use:   "tune",
	Short: "Search classifier families and hyper-parameters on the training partition.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		best, err := hdscreen.Tune(conf)
		if err != nil {
			log.Logger().Fatal("failed to tune models", zap.Error(err))
		}
		fmt.Printf("best model: %s %v (accuracy %.4f, AUC %.4f)\n",
			best.Type, best.Params, best.Score.Accuracy, best.Score.AUC)
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print the version of hdscreen.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.BuildInfo())
	},
}

func loadConfig(cmd *cobra.Command) *config.Config {
	// setup logger
	debug, _ := cmd.Root().PersistentFlags().GetBool("debug")
	log.SetLogger(cmd.Root().PersistentFlags(), debug)

	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	return conf
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "config.toml", "configuration file path")
	rootCommand.PersistentFlags().BoolP("version", "v", false, "hdscreen version")
	rootCommand.AddCommand(tuneCommand)
	rootCommand.AddCommand(versionCommand)
}

func main() {
	defer log.CloseLogger()
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
