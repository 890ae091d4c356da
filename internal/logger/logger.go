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

// Package logger provides the process-wide structured logger: severity
// levels below slog's own, text or JSON rendering, and optional rotation
// to a file on disk.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity names accepted by SetSeverity, matching the --log-severity
// CLI flag vocabulary.
const (
	SeverityTrace   = "TRACE"
	SeverityDebug   = "DEBUG"
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
	SeverityOff     = "OFF"
)

// Levels below slog.LevelDebug and above slog.LevelError so TRACE and OFF
// have somewhere to live on the same axis.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(12)
)

var levelNames = map[slog.Level]string{
	LevelTrace: SeverityTrace,
	LevelDebug: SeverityDebug,
	LevelInfo:  SeverityInfo,
	LevelWarn:  SeverityWarning,
	LevelError: SeverityError,
	LevelOff:   SeverityOff,
}

// RotateConfig controls on-disk log rotation when logging to a file.
type RotateConfig struct {
	MaxFileSizeMB  int
	BackupFileCount int
	Compress       bool
}

// DefaultRotateConfig mirrors common defaults: 512MB before rotation, 10
// backups kept, compressed.
func DefaultRotateConfig() RotateConfig {
	return RotateConfig{MaxFileSizeMB: 512, BackupFileCount: 10, Compress: true}
}

type loggerFactory struct {
	level  *slog.LevelVar
	format string
	out    io.Writer
	file   *lumberjack.Logger
}

var defaultFactory = &loggerFactory{
	level:  func() *slog.LevelVar { v := new(slog.LevelVar); v.Set(LevelInfo); return v }(),
	format: "text",
	out:    os.Stderr,
}

var defaultLogger = slog.New(defaultFactory.handler())

func (f *loggerFactory) handler() slog.Handler {
	opts := &slog.HandlerOptions{
		Level: f.level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				lvl, _ := a.Value.Any().(slog.Level)
				name, ok := levelNames[lvl]
				if !ok {
					name = lvl.String()
				}
				return slog.String("severity", name)
			case slog.TimeKey:
				return slog.String("time", a.Value.Time().Format(time.RFC3339Nano))
			}
			return a
		},
	}
	if f.format == "json" {
		return slog.NewJSONHandler(f.out, opts)
	}
	return slog.NewTextHandler(f.out, opts)
}

// SetFormat switches between "text" and "json" rendering. Anything other
// than "text" is treated as "json".
func SetFormat(format string) {
	if format != "text" {
		format = "json"
	}
	defaultFactory.format = format
	defaultLogger = slog.New(defaultFactory.handler())
}

// SetSeverity adjusts the minimum severity logged, without rebuilding the
// handler.
func SetSeverity(severity string) {
	defaultFactory.level.Set(parseSeverity(severity))
}

func parseSeverity(severity string) slog.Level {
	switch severity {
	case SeverityTrace:
		return LevelTrace
	case SeverityDebug:
		return LevelDebug
	case SeverityWarning:
		return LevelWarn
	case SeverityError:
		return LevelError
	case SeverityOff:
		return LevelOff
	default:
		return LevelInfo
	}
}

// InitFile redirects logging to a rotated file at path, replacing the
// default stderr writer.
func InitFile(path string, rotate RotateConfig) error {
	if rotate.MaxFileSizeMB == 0 {
		rotate = DefaultRotateConfig()
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotate.MaxFileSizeMB,
		MaxBackups: rotate.BackupFileCount,
		Compress:   rotate.Compress,
	}
	defaultFactory.file = file
	defaultFactory.out = file
	defaultLogger = slog.New(defaultFactory.handler())
	return nil
}

func log(ctx context.Context, level slog.Level, format string, args ...any) {
	if !defaultLogger.Enabled(ctx, level) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	defaultLogger.Log(ctx, level, msg)
}

func Tracef(format string, args ...any) { log(context.Background(), LevelTrace, format, args...) }
func Debugf(format string, args ...any) { log(context.Background(), LevelDebug, format, args...) }
func Infof(format string, args ...any)  { log(context.Background(), LevelInfo, format, args...) }
func Warnf(format string, args ...any)  { log(context.Background(), LevelWarn, format, args...) }
func Errorf(format string, args ...any) { log(context.Background(), LevelError, format, args...) }

// Logger returns the process-wide *slog.Logger, for components (like the
// dispatcher) that want a *slog.Logger value rather than the package
// funcs.
func Logger() *slog.Logger {
	return defaultLogger
}
