/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"

	"chartoverlay/internal/storage"
)

// Tier names as they appear in logs, metrics and the journal.
const (
	TierNative    = "native"
	TierDownload  = "download"
	TierClipboard = "clipboard"
)

const defaultTarget = "positions.json"

// FileSaver is the host's native save capability: it asks the user for a
// destination and writes data there. It returns ErrCancelled when the prompt
// is dismissed and ErrUnavailable when the host cannot prompt.
type FileSaver interface {
	SaveFile(ctx context.Context, suggestedName string, data []byte) (location string, err error)
}

// NativeTier writes through a FileSaver. A nil Saver is reported as unavailable.
type NativeTier struct {
	Saver         FileSaver
	SuggestedName string
}

func (t NativeTier) Name() string { return TierNative }

func (t NativeTier) Save(ctx context.Context, data []byte) Result {
	if t.Saver == nil {
		return Result{Status: StatusUnavailable, Err: ErrUnavailable}
	}
	name := t.SuggestedName
	if name == "" {
		name = defaultTarget
	}
	return Classify(t.Saver.SaveFile(ctx, name, data))
}

func (t NativeTier) Message(location string) string {
	if location == "" {
		return "Positions saved to file!"
	}
	return fmt.Sprintf("Positions saved to %s!", location)
}

// PathSaver is a FileSaver that never prompts: it replaces Path atomically and
// keeps a timestamped backup of the previous file.
type PathSaver struct {
	Path string
}

func (s PathSaver) SaveFile(ctx context.Context, _ string, data []byte) (string, error) {
	if strings.TrimSpace(s.Path) == "" {
		return "", ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := storage.WriteDocument(s.Path, data); err != nil {
		return s.Path, err
	}
	return s.Path, nil
}

// DownloadTier drops a new file into Dir, never overwriting: a taken name
// gets a " (n)" suffix the way browsers number repeated downloads.
type DownloadTier struct {
	Dir      string
	FileName string // defaults to positions.json
	Target   string // the file the user should replace, shown in the message
}

func (t DownloadTier) Name() string { return TierDownload }

func (t DownloadTier) Save(ctx context.Context, data []byte) Result {
	if strings.TrimSpace(t.Dir) == "" {
		return Result{Status: StatusUnavailable, Err: ErrUnavailable}
	}
	if err := ctx.Err(); err != nil {
		return Result{Status: StatusFailed, Err: err}
	}
	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("create download dir: %w", err)}
	}
	name := t.FileName
	if name == "" {
		name = defaultTarget
	}
	path, err := createUnique(t.Dir, name, data)
	return Classify(path, err)
}

func (t DownloadTier) Message(location string) string {
	if location == "" {
		return fmt.Sprintf("Positions downloaded! Replace %s with this file.", targetOr(t.Target))
	}
	return fmt.Sprintf("Positions downloaded to %s! Replace %s with this file.", location, targetOr(t.Target))
}

func createUnique(dir, name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil {
			_ = os.Remove(path)
			return "", werr
		}
		return path, cerr
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

// Clipboard is a text clipboard capability.
type Clipboard interface {
	WriteText(text string) error
}

// ClipboardTier copies the document text. A nil Clipboard is unavailable.
type ClipboardTier struct {
	Clipboard Clipboard
	Target    string
}

func (t ClipboardTier) Name() string { return TierClipboard }

func (t ClipboardTier) Save(ctx context.Context, data []byte) Result {
	if t.Clipboard == nil {
		return Result{Status: StatusUnavailable, Err: ErrUnavailable}
	}
	if err := ctx.Err(); err != nil {
		return Result{Status: StatusFailed, Err: err}
	}
	return Classify("clipboard", t.Clipboard.WriteText(string(data)))
}

func (t ClipboardTier) Message(string) string {
	return fmt.Sprintf("Positions copied to clipboard! Paste into %s", targetOr(t.Target))
}

// SystemClipboard uses the operating system clipboard tools.
type SystemClipboard struct{}

func (SystemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	return clipboard.WriteAll(text)
}

func targetOr(s string) string {
	if strings.TrimSpace(s) == "" {
		return defaultTarget
	}
	return s
}
