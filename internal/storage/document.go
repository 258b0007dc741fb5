/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "chartoverlay/internal/log"
	"chartoverlay/internal/position"
)

const (
	BackupsDirName = "backups"
	backupStamp    = "20060102-150405.000"
)

// ReadDocument returns the validated bytes of the positions document at path.
// When the file is missing, unreadable or invalid, the newest backup is tried;
// source names the file that was actually used.
func ReadDocument(path string) (data []byte, source string, err error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "read").With(slog.String("path", path))
	data, err = readValid(path)
	if err == nil {
		return data, path, nil
	}
	bpath, berr := LatestBackup(path)
	if berr != nil {
		return nil, "", fmt.Errorf("read positions: %w; backup attempt: %v", err, berr)
	}
	data, berr = readValid(bpath)
	if berr != nil {
		return nil, "", fmt.Errorf("read positions: %w; backup %s: %v", err, filepath.Base(bpath), berr)
	}
	l.Warn("positions file unusable; using latest backup", slog.String("backup", bpath), slog.Any("err", err))
	return data, bpath, nil
}

func readValid(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(b); err != nil {
		return nil, err
	}
	return b, nil
}

// LoadStore reads the document at path (with backup fallback) into a store.
func LoadStore(path string) (*position.Store, error) {
	data, source, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	s, err := position.Load(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	return s, nil
}

// WriteDocument replaces the file at path with data. An existing file is first
// copied to backups/<name>.<stamp>.bak; the returned backup path is empty when
// there was nothing to back up.
func WriteDocument(path string, data []byte) (backup string, err error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("destination path is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create destination dir: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		name := filepath.Base(path)
		backup = filepath.Join(dir, BackupsDirName, fmt.Sprintf("%s.%s.bak", name, time.Now().Format(backupStamp)))
		if cerr := copyFile(path, backup); cerr != nil {
			return "", fmt.Errorf("backup current file: %w", cerr)
		}
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return backup, fmt.Errorf("write temp file: %w", werr)
	}
	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return backup, fmt.Errorf("replace file: %w", rerr)
	}
	return backup, nil
}

// AutosaveSnapshot writes data as a new backup of path without touching path
// itself. ReadDocument picks it up when the main file is unusable.
func AutosaveSnapshot(path string, data []byte) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("destination path is required")
	}
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("create backups dir: %w", err)
	}
	out := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), time.Now().Format(backupStamp)))
	if err := writeFileSync(out, data); err != nil {
		return "", fmt.Errorf("write autosave: %w", err)
	}
	return out, nil
}

// Backups lists the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // the stamp sorts lexicographically
	return out, nil
}

// LatestBackup returns the newest backup of path.
func LatestBackup(path string) (string, error) {
	all, err := Backups(path)
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return "", errors.New("no backups found")
	}
	return all[len(all)-1], nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, creating dst's directory.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
