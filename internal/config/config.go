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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied after the file.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	PositionsFile string `yaml:"positions_file" validate:"required"`
	SuggestedName string `yaml:"suggested_name" validate:"required,endswith=.json"`
	DownloadDir   string `yaml:"download_dir"`

	// WriteInPlace saves straight to PositionsFile (with backups) instead of asking for a destination.
	WriteInPlace bool `yaml:"write_in_place"`
}

// KeysConfig holds the two bindings the position editor exposes.
type KeysConfig struct {
	ToggleDrag string `yaml:"toggle_drag" validate:"required,len=1,nefield=Save"`
	Save       string `yaml:"save" validate:"required,len=1"`
}

type NotifyConfig struct {
	ModeMs int `yaml:"mode_ms" validate:"gt=0"`
	SaveMs int `yaml:"save_ms" validate:"gt=0"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty: next to the positions file
}

type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// TelemetryConfig is strictly opt-in; without URLs nothing is sent even when opted in.
type TelemetryConfig struct {
	OptIn     bool   `yaml:"opt_in"`
	EventsURL string `yaml:"events_url" validate:"omitempty,url"`
	CrashURL  string `yaml:"crash_url" validate:"omitempty,url"`
	TimeoutMs int    `yaml:"timeout_ms" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	General       GeneralConfig   `yaml:"general"`
	Keys          KeysConfig      `yaml:"keys"`
	Notify        NotifyConfig    `yaml:"notify"`
	Journal       JournalConfig   `yaml:"journal"`
	Metrics       MetricsConfig   `yaml:"metrics"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General: GeneralConfig{
			PositionsFile: filepath.Join("data", "positions.json"),
			SuggestedName: "positions.json",
			DownloadDir:   defaultDownloadDir(),
		},
		Keys:      KeysConfig{ToggleDrag: "d", Save: "s"},
		Notify:    NotifyConfig{ModeMs: 1500, SaveMs: 2000},
		Journal:   JournalConfig{Enabled: true},
		Telemetry: TelemetryConfig{TimeoutMs: 1500},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvPositionsFile  = "COV_POSITIONS_FILE"
	EnvDownloadDir    = "COV_DOWNLOAD_DIR"
	EnvWriteInPlace   = "COV_WRITE_IN_PLACE"
	EnvJournalEnabled = "COV_JOURNAL_ENABLED"
	EnvJournalPath    = "COV_JOURNAL_PATH"
	EnvMetricsAddr    = "COV_METRICS_ADDR"
	EnvTelemetryOptIn = "COV_TELEMETRY_OPT_IN"
	EnvTelemetryURL   = "COV_TELEMETRY_URL"
	EnvCrashUploadURL = "COV_CRASH_UPLOAD_URL"
	EnvLogLevel       = "COV_LOG_LEVEL"
	EnvLogFormat      = "COV_LOG_FORMAT"
	EnvLogSource      = "COV_LOG_SOURCE"
	EnvLogFile        = "COV_LOG_FILE"

	// EnvConfigPath points Load/Save at an explicit file instead of the per-user path.
	EnvConfigPath = "COV_CONFIG"
)

var validate = validator.New()

// ModeDuration is how long the drag-mode notification stays visible.
func (n NotifyConfig) ModeDuration() time.Duration { return time.Duration(n.ModeMs) * time.Millisecond }

// SaveDuration is how long a save confirmation stays visible.
func (n NotifyConfig) SaveDuration() time.Duration { return time.Duration(n.SaveMs) * time.Millisecond }

// JournalPathFor resolves the journal database location for a positions file.
func (c AppConfig) JournalPathFor(positionsFile string) string {
	if p := strings.TrimSpace(c.Journal.Path); p != "" {
		return p
	}
	return filepath.Join(filepath.Dir(positionsFile), ".chartoverlay", "journal.sqlite")
}

// Validate checks the struct tags and returns a readable error listing every failing field.
func (c AppConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "ChartOverlay")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ChartOverlay")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "chartoverlay")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Downloads")
}

// Load reads the user config file (if present), applies defaults and merges environment overrides.
// A file that fails validation is ignored in favor of defaults; the validation error is returned
// alongside the usable config so callers can log it.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var fileErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			fileErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			merged := cfg
			mergeInto(&merged, &fileCfg)
			if verr := merged.Validate(); verr != nil {
				fileErr = fmt.Errorf("%s: %w", path, verr)
			} else {
				cfg = merged
			}
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, fileErr
}

// Save writes the config YAML to the per-user path.
func Save(cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.TrimSpace(src.General.PositionsFile); v != "" {
		dst.General.PositionsFile = v
	}
	if v := strings.TrimSpace(src.General.SuggestedName); v != "" {
		dst.General.SuggestedName = v
	}
	if v := strings.TrimSpace(src.General.DownloadDir); v != "" {
		dst.General.DownloadDir = expandHome(v)
	}
	dst.General.WriteInPlace = src.General.WriteInPlace
	if v := strings.TrimSpace(src.Keys.ToggleDrag); v != "" {
		dst.Keys.ToggleDrag = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Keys.Save); v != "" {
		dst.Keys.Save = strings.ToLower(v)
	}
	if src.Notify.ModeMs != 0 {
		dst.Notify.ModeMs = src.Notify.ModeMs
	}
	if src.Notify.SaveMs != 0 {
		dst.Notify.SaveMs = src.Notify.SaveMs
	}
	// booleans: copy directly from the file so user preferences persist
	dst.Journal.Enabled = src.Journal.Enabled
	if v := strings.TrimSpace(src.Journal.Path); v != "" {
		dst.Journal.Path = expandHome(v)
	}
	if v := strings.TrimSpace(src.Metrics.Addr); v != "" {
		dst.Metrics.Addr = v
	}
	dst.Telemetry.OptIn = src.Telemetry.OptIn
	if v := strings.TrimSpace(src.Telemetry.EventsURL); v != "" {
		dst.Telemetry.EventsURL = v
	}
	if v := strings.TrimSpace(src.Telemetry.CrashURL); v != "" {
		dst.Telemetry.CrashURL = v
	}
	if src.Telemetry.TimeoutMs != 0 {
		dst.Telemetry.TimeoutMs = src.Telemetry.TimeoutMs
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvPositionsFile)); v != "" {
		cfg.General.PositionsFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDownloadDir)); v != "" {
		cfg.General.DownloadDir = expandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvWriteInPlace)); v != "" {
		cfg.General.WriteInPlace = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalEnabled)); v != "" {
		cfg.Journal.Enabled = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalPath)); v != "" {
		cfg.Journal.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMetricsAddr)); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.Telemetry.OptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryURL)); v != "" {
		cfg.Telemetry.EventsURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCrashUploadURL)); v != "" {
		cfg.Telemetry.CrashURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"general.positions_file": EnvPositionsFile,
		"general.download_dir":   EnvDownloadDir,
		"general.write_in_place": EnvWriteInPlace,
		"journal.enabled":        EnvJournalEnabled,
		"journal.path":           EnvJournalPath,
		"metrics.addr":           EnvMetricsAddr,
		"telemetry.opt_in":       EnvTelemetryOptIn,
		"telemetry.events_url":   EnvTelemetryURL,
		"telemetry.crash_url":    EnvCrashUploadURL,
		"logging.level":          EnvLogLevel,
		"logging.format":         EnvLogFormat,
		"logging.source":         EnvLogSource,
		"logging.file":           EnvLogFile,
	}[key]
	if env == "" || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
