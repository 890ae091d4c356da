// Copyright 2024 The Brokenfuse Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd wires cobra/viper flag parsing to the mount entrypoint.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dranikpg/brokenfuse/cfg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	bindErr      error
	unmarshalErr error

	MountConfig cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "brokenfuse [flags] mount_point",
	Short: "Mount a FUSE filesystem that injects configurable faults",
	Long: `brokenfuse mounts an in-memory (or pass-through) filesystem whose
behavior per inode is programmable through extended attributes:
inject delay, random errors, size caps, access heatmaps and quotas,
to exercise how applications react to filesystem misbehavior.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		mountPoint, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving mount point: %w", err)
		}
		MountConfig.MountPoint = mountPoint
		return runMount(&MountConfig)
	},
}

// Execute runs the root command, exiting the process on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file.")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			unmarshalErr = fmt.Errorf("reading config file: %w", err)
			return
		}
	}
	unmarshalErr = viper.Unmarshal(&MountConfig)
}
