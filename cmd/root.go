/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/simread/InputParameters"
	"github.com/notargets/simread/snapshot"
	"github.com/notargets/simread/types"
)

var (
	cfgFile string
	logger  = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

const exampleInput = `
########################################
Title: "Dipole run"
nxtot: 256
nytot: 512
nlayers_radius: 4
nlayers_angle: 8
GridFile: grid
DataDir: .
Suffix: dat
########################################
`

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "simread",
	Short: "Reader for block decomposed 2D MHD simulation snapshots",
	Long: `
Decodes the binary grid and snapshot files written by a domain decomposed 2D
cylindrical MHD simulation, reassembling each per-process block into the global
(r, z) grid.

simread decode -I run.yaml`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(viper.GetBool("verbose"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.simread.yaml)")
	pf.StringP("input", "I", "", "YAML file for run parameters like:\n\t- nxtot, nytot\n\t- nlayers_radius, nlayers_angle")
	pf.StringP("dir", "D", "", "snapshot directory, overrides DataDir")
	pf.BoolP("verbose", "v", false, "debug logging")
	for _, name := range []string{"input", "dir", "verbose"} {
		if err := viper.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".simread")
	}
	viper.SetEnvPrefix("SIMREAD")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	snapshot.SetLogger(logger.With("pkg", "snapshot"))
}

// loadParameters reads the run parameter file named by --input and applies
// the command line overrides.
func loadParameters() (sp *InputParameters.SimParameters, err error) {
	var (
		data     []byte
		fileName = viper.GetString("input")
	)
	if len(fileName) == 0 {
		return nil, fmt.Errorf("%w: must supply a run parameters file (-I, --input), example:%s",
			types.ErrConfig, exampleInput)
	}
	if data, err = os.ReadFile(fileName); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrIO, err)
	}
	sp = InputParameters.NewSimParameters()
	if err = sp.Parse(data); err != nil {
		return nil, err
	}
	if dir := viper.GetString("dir"); dir != "" {
		sp.DataDir = dir
	}
	return sp, sp.Validate()
}
