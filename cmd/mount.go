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

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dranikpg/brokenfuse/cfg"
	"github.com/dranikpg/brokenfuse/internal/dispatcher"
	"github.com/dranikpg/brokenfuse/internal/ftree"
	"github.com/dranikpg/brokenfuse/internal/logger"
	"github.com/dranikpg/brokenfuse/internal/storage"
	"github.com/dranikpg/brokenfuse/internal/telemetry"
	"github.com/google/uuid"
	"github.com/jacobsa/fuse"
	"golang.org/x/sys/unix"
)

// raiseFileLimit bumps the process's open-file soft limit toward its
// hard limit, the way a mount with many simultaneously open backing
// files needs. A failure to query or raise it is not fatal; the mount
// just runs with whatever the shell handed it.
func raiseFileLimit() {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		logger.Warnf("querying RLIMIT_NOFILE: %v", err)
		return
	}
	if rlimit.Cur >= rlimit.Max {
		return
	}
	want := rlimit
	want.Cur = rlimit.Max
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &want); err != nil {
		logger.Warnf("raising RLIMIT_NOFILE to %d: %v", want.Cur, err)
	}
}

// runMount builds the dispatcher and blocks serving the mount until it's
// unmounted or interrupted.
func runMount(config *cfg.Config) error {
	logger.SetFormat(config.Logging.Format)
	logger.SetSeverity(config.Logging.Severity)
	if config.Logging.FilePath != "" {
		if err := logger.InitFile(config.Logging.FilePath, logger.DefaultRotateConfig()); err != nil {
			return fmt.Errorf("init log file: %w", err)
		}
	}

	raiseFileLimit()

	factory, err := newStorageFactory(config.Storage)
	if err != nil {
		return fmt.Errorf("storage backend: %w", err)
	}

	telemetry.InstallProvider()
	metrics, err := telemetry.New()
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	sessionID := uuid.New().String()
	tree := ftree.New()
	fs := dispatcher.New(tree, factory, logger.Logger(), metrics)

	mountCfg := &fuse.MountConfig{
		FSName:               "brokenfuse",
		Subtype:              "brokenfuse",
		VolumeName:           "brokenfuse",
		EnableParallelDirOps: true,
	}
	if config.Debug.FuseDebug {
		mountCfg.DebugLogger = log.New(os.Stderr, "fuse_debug: ", 0)
	}

	logger.Infof("mounting brokenfuse session %s at %q", sessionID, config.MountPoint)
	mfs, err := fuse.Mount(config.MountPoint, fs, mountCfg)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Infof("unmounting brokenfuse at %q", config.MountPoint)
		if err := fuse.Unmount(config.MountPoint); err != nil {
			logger.Errorf("unmount: %v", err)
		}
	}()

	if err := mfs.Join(context.Background()); err != nil {
		return fmt.Errorf("serving fuse: %w", err)
	}
	return nil
}

func newStorageFactory(sc cfg.StorageConfig) (storage.Factory, error) {
	switch sc.Backend {
	case "", "ram":
		return storage.RamFactory{}, nil
	case "file":
		if sc.Dir == "" {
			return nil, fmt.Errorf("storage.dir is required for the file backend")
		}
		if err := os.MkdirAll(sc.Dir, 0o700); err != nil {
			return nil, err
		}
		f := storage.NewFileFactory(sc.Dir)
		return f, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
}
