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

// Package cfg defines the mount configuration and its CLI/viper binding.
package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully resolved configuration for a mount, after flags,
// environment variables and an optional config file have all been
// layered by viper.
type Config struct {
	MountPoint string `mapstructure:"mount-point"`

	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Debug   DebugConfig   `mapstructure:"debug"`
}

// StorageConfig selects the backend new files are created against.
type StorageConfig struct {
	// Backend is "ram" or "file".
	Backend string `mapstructure:"backend"`

	// Dir is the directory File-backend storage unlinks its backing
	// files from; ignored for the ram backend.
	Dir string `mapstructure:"dir"`
}

// LoggingConfig controls the process-wide logger.
type LoggingConfig struct {
	Severity string `mapstructure:"severity"`
	Format   string `mapstructure:"format"`
	FilePath string `mapstructure:"file-path"`
}

// DebugConfig gates diagnostics with a perf cost not worth paying by
// default.
type DebugConfig struct {
	// FuseDebug enables jacobsa/fuse's own debug log of every op.
	FuseDebug bool `mapstructure:"fuse-debug"`
}

// BindFlags registers every config field as a pflag and binds it into
// viper under the matching key, so file, env and flag sources all
// resolve through the same Config struct.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("mount-point", "m", "", "Directory to mount the filesystem at.")
	if err = viper.BindPFlag("mount-point", flagSet.Lookup("mount-point")); err != nil {
		return err
	}

	flagSet.String("storage-backend", "ram", `File storage backend: "ram" or "file".`)
	if err = viper.BindPFlag("storage.backend", flagSet.Lookup("storage-backend")); err != nil {
		return err
	}

	flagSet.String("storage-dir", "", "Backing directory for the file storage backend.")
	if err = viper.BindPFlag("storage.dir", flagSet.Lookup("storage-dir")); err != nil {
		return err
	}

	flagSet.String("log-severity", "INFO", "Minimum severity logged: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.String("log-format", "text", `Log line format: "text" or "json".`)
	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.String("log-file", "", "Path to log to instead of stderr. Rotated automatically.")
	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.Bool("fuse-debug", false, "Log every incoming FUSE op via jacobsa/fuse's own debug logging.")
	if err = viper.BindPFlag("debug.fuse-debug", flagSet.Lookup("fuse-debug")); err != nil {
		return err
	}

	return nil
}
