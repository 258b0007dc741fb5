/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func useConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if body != "" {
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	t.Setenv(EnvConfigPath, path)
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	n := Defaults().Notify
	if n.ModeDuration() != 1500*time.Millisecond || n.SaveDuration() != 2*time.Second {
		t.Fatalf("unexpected notification durations: %v %v", n.ModeDuration(), n.SaveDuration())
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	useConfigFile(t, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Keys.ToggleDrag != "d" || cfg.Keys.Save != "s" {
		t.Fatalf("unexpected default keys: %+v", cfg.Keys)
	}
}

func TestLoadMergesFile(t *testing.T) {
	useConfigFile(t, `
general:
  positions_file: /tmp/layout/positions.json
keys:
  toggle_drag: M
notify:
  save_ms: 3000
journal:
  enabled: false
`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.PositionsFile != "/tmp/layout/positions.json" {
		t.Fatalf("positions file not merged: %q", cfg.General.PositionsFile)
	}
	if cfg.Keys.ToggleDrag != "m" || cfg.Keys.Save != "s" {
		t.Fatalf("keys not merged: %+v", cfg.Keys)
	}
	if cfg.Notify.SaveMs != 3000 || cfg.Notify.ModeMs != 1500 {
		t.Fatalf("notify not merged: %+v", cfg.Notify)
	}
	if cfg.Journal.Enabled {
		t.Fatalf("journal.enabled=false should be carried from file")
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	useConfigFile(t, `
keys:
  toggle_drag: s
  save: s
`)
	cfg, err := Load()
	if err == nil {
		t.Fatalf("expected validation error for clashing keys")
	}
	if !strings.Contains(err.Error(), "ToggleDrag") {
		t.Fatalf("error should name the failing field: %v", err)
	}
	if cfg.Keys.ToggleDrag != "d" {
		t.Fatalf("invalid file must fall back to defaults, got %+v", cfg.Keys)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	useConfigFile(t, "general:\n  positions_file: from-file.json\n")
	t.Setenv(EnvPositionsFile, "from-env.json")
	t.Setenv(EnvJournalEnabled, "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.PositionsFile != "from-env.json" {
		t.Fatalf("env override lost: %q", cfg.General.PositionsFile)
	}
	if cfg.Journal.Enabled {
		t.Fatalf("journal should be disabled by env")
	}
	if env, ok := EnvOverrideFor("general.positions_file"); !ok || env != EnvPositionsFile {
		t.Fatalf("EnvOverrideFor = %q,%v", env, ok)
	}
	if _, ok := EnvOverrideFor("keys.save"); ok {
		t.Fatalf("keys.save has no env override")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := useConfigFile(t, "")
	cfg := Defaults()
	cfg.Metrics.Addr = "127.0.0.1:9109"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Metrics.Addr != "127.0.0.1:9109" {
		t.Fatalf("metrics addr = %q", got.Metrics.Addr)
	}
}

func TestJournalPathFor(t *testing.T) {
	cfg := Defaults()
	got := cfg.JournalPathFor(filepath.Join("data", "positions.json"))
	want := filepath.Join("data", ".chartoverlay", "journal.sqlite")
	if got != want {
		t.Fatalf("JournalPathFor = %q, want %q", got, want)
	}
	cfg.Journal.Path = "/var/tmp/j.sqlite"
	if got := cfg.JournalPathFor("x.json"); got != "/var/tmp/j.sqlite" {
		t.Fatalf("explicit path ignored: %q", got)
	}
}

func TestTelemetryIsOptInAndValidated(t *testing.T) {
	d := Defaults()
	if d.Telemetry.OptIn || d.Telemetry.EventsURL != "" {
		t.Fatalf("telemetry must be off by default: %+v", d.Telemetry)
	}
	d.Telemetry.EventsURL = "not a url"
	if err := d.Validate(); err == nil {
		t.Fatalf("expected validation error for events_url")
	}

	useConfigFile(t, "")
	t.Setenv(EnvTelemetryOptIn, "yes")
	t.Setenv(EnvTelemetryURL, "https://example.invalid/events")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Telemetry.OptIn || cfg.Telemetry.EventsURL != "https://example.invalid/events" {
		t.Fatalf("env overrides lost: %+v", cfg.Telemetry)
	}
}
