/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus an autosave of the
// positions edited so far.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "chartoverlay/internal/log"
	"chartoverlay/internal/position"
	"chartoverlay/internal/storage"
	"chartoverlay/internal/telemetry"
	"chartoverlay/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Target describes what to rescue. All fields are optional.
type Target struct {
	// PositionsFile decides where the report and the autosave go (its backups dir).
	PositionsFile string
	// Store returns the live store at panic time; nil or a nil result skips the autosave.
	Store func() *position.Store
	// Uploader receives the report when telemetry is opted in.
	Uploader *telemetry.Client
}

// Recover captures a panic, logs it with the stack, writes a crash report,
// autosaves the store and exits with code 2.
//
// Usage: defer crash.Recover(target)
func Recover(t *Target) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, report, err := writeReport(t, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if path, err := autosave(t); err != nil {
		l.Error("autosave positions failed", slog.Any("err", err))
	} else if path != "" {
		l.Info("positions autosaved", slog.String("path", path))
	}
	if t != nil && t.Uploader != nil {
		if err := t.Uploader.UploadCrash(context.Background(), report); err != nil {
			l.Debug("crash upload failed", slog.Any("err", err))
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

func reportDir(t *Target) string {
	if t == nil || t.PositionsFile == "" {
		return os.TempDir()
	}
	dir := filepath.Join(filepath.Dir(t.PositionsFile), storage.BackupsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.TempDir()
	}
	return dir
}

func writeReport(t *Target, panicVal any, stack []byte) (string, []byte, error) {
	path := filepath.Join(reportDir(t), fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Chart Overlay Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if t != nil && t.PositionsFile != "" {
		_, _ = fmt.Fprintf(&buf, "Positions: %s\n", t.PositionsFile)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, buf.Bytes(), err
	}
	return path, buf.Bytes(), nil
}

func autosave(t *Target) (string, error) {
	if t == nil || t.Store == nil || t.PositionsFile == "" {
		return "", nil
	}
	st := t.Store()
	if st == nil {
		return "", nil
	}
	data, err := st.Serialize()
	if err != nil {
		return "", err
	}
	return storage.AutosaveSnapshot(t.PositionsFile, data)
}
