/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package session owns the editing state of one overlay: the position store,
// the drag-mode flag, every registered controller and the save pipeline. It
// is created once per window and passed to whatever needs it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"chartoverlay/internal/annotation"
	"chartoverlay/internal/config"
	"chartoverlay/internal/dragmode"
	"chartoverlay/internal/gesture"
	applog "chartoverlay/internal/log"
	"chartoverlay/internal/metrics"
	"chartoverlay/internal/notify"
	"chartoverlay/internal/persist"
	"chartoverlay/internal/position"
	"chartoverlay/internal/storage"
	"chartoverlay/internal/telemetry"
	"chartoverlay/internal/vector"
)

// Options assembles a Session. Zero fields fall back to defaults.
type Options struct {
	Config   config.AppConfig
	Notifier notify.Notifier
	Metrics  *metrics.Registry
	Journal  persist.Recorder
	Events   *telemetry.Client
	Logger   *slog.Logger

	// Tiers replaces the tiers derived from Config and Host.
	Tiers []persist.Tier
	Host  Host
}

// Host lists the save capabilities of the embedding application.
type Host struct {
	Saver     persist.FileSaver // nil: the native tier is unavailable
	Clipboard persist.Clipboard // nil: the system clipboard
}

// Session is the dependency root for one overlay.
type Session struct {
	ID string

	cfg      config.AppConfig
	flag     *dragmode.Flag
	pipeline *persist.Pipeline
	notifier notify.Notifier
	metrics  *metrics.Registry
	events   *telemetry.Client
	log      *slog.Logger

	mu       sync.RWMutex
	store    *position.Store
	elements []gesture.Styler
}

// New creates a session with an absent store and drag mode off.
func New(opts Options) *Session {
	cfg := opts.Config
	if cfg.ConfigVersion == 0 {
		cfg = config.Defaults()
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("session")
	}
	s := &Session{
		ID:       uuid.NewString(),
		cfg:      cfg,
		flag:     &dragmode.Flag{},
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		events:   opts.Events,
	}
	s.log = l.With(slog.String("session", s.ID))
	tiers := opts.Tiers
	if tiers == nil {
		tiers = Tiers(cfg, opts.Host)
	}
	s.pipeline = &persist.Pipeline{
		Tiers:     tiers,
		Notifier:  opts.Notifier,
		Journal:   opts.Journal,
		Metrics:   opts.Metrics,
		NotifyFor: cfg.Notify.SaveDuration(),
	}
	s.flag.Subscribe(s.modeChanged)
	return s
}

// Tiers builds the save tiers in their fixed order: native file, download
// folder, clipboard. With general.write_in_place the native tier replaces the
// positions file directly instead of prompting.
func Tiers(cfg config.AppConfig, host Host) []persist.Tier {
	native := persist.NativeTier{Saver: host.Saver, SuggestedName: cfg.General.SuggestedName}
	if cfg.General.WriteInPlace {
		native.Saver = persist.PathSaver{Path: cfg.General.PositionsFile}
	}
	var clip persist.Clipboard = persist.SystemClipboard{}
	if host.Clipboard != nil {
		clip = host.Clipboard
	}
	return []persist.Tier{
		native,
		persist.DownloadTier{Dir: cfg.General.DownloadDir, FileName: cfg.General.SuggestedName, Target: cfg.General.PositionsFile},
		persist.ClipboardTier{Clipboard: clip, Target: cfg.General.PositionsFile},
	}
}

// Config returns the configuration the session was built with.
func (s *Session) Config() config.AppConfig { return s.cfg }

// Flag returns the drag-mode switch shared by every controller.
func (s *Session) Flag() *dragmode.Flag { return s.flag }

// Store returns the position store, or nil while it is absent.
func (s *Session) Store() *position.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Load replaces the store with the parsed document. A parse failure leaves
// the store absent and is logged as a warning; the error is returned for
// callers that want to report it.
func (s *Session) Load(data []byte) error {
	doc, skipped, err := position.Decode(data)
	if err != nil {
		s.setStore(nil)
		s.log.Warn("positions document unreadable; using built-in defaults", slog.Any("err", err))
		return err
	}
	for _, loc := range skipped {
		s.log.Warn("null position ignored; element uses its default", slog.String("panel", loc.Panel), slog.String("element", loc.Element))
	}
	st := position.FromDocument(doc)
	s.setStore(st)
	s.log.Info("positions loaded", slog.Int("entries", st.Len()))
	return nil
}

// LoadFile reads path through storage.ReadDocument, so an unreadable file
// falls back to its newest backup. A missing file is not a warning.
func (s *Session) LoadFile(path string) error {
	data, source, err := storage.ReadDocument(path)
	if err != nil {
		s.setStore(nil)
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Info("no positions file; using built-in defaults", slog.String("path", path))
		} else {
			s.log.Warn("positions file unreadable; using built-in defaults", slog.String("path", path), slog.Any("err", err))
		}
		return err
	}
	if source != path {
		s.log.Info("positions restored from backup", slog.String("backup", source))
	}
	return s.Load(data)
}

func (s *Session) setStore(st *position.Store) {
	s.mu.Lock()
	s.store = st
	s.mu.Unlock()
	if st != nil {
		s.metrics.SetStoreEntries(st.Len())
	} else {
		s.metrics.SetStoreEntries(0)
	}
}

// ensureStore returns the store, creating an empty one on first write.
func (s *Session) ensureStore() *position.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = position.NewStore()
		s.log.Debug("created empty position store")
	}
	return s.store
}

// Get implements position.Reader over a possibly absent store.
func (s *Session) Get(panelID, elementID string) (position.Descriptor, bool) {
	st := s.Store()
	if st == nil {
		return nil, false
	}
	return st.Get(panelID, elementID)
}

// Set implements position.Writer, creating the store when absent.
func (s *Session) Set(panelID, elementID string, d position.Descriptor) {
	st := s.ensureStore()
	st.Set(panelID, elementID, d)
	s.metrics.SetStoreEntries(st.Len())
}

func (s *Session) gestureOptions(extra []gesture.Option) []gesture.Option {
	base := []gesture.Option{
		gesture.WithLogger(applog.WithComponent("gesture").With(slog.String("session", s.ID))),
		gesture.WithMetrics(s.metrics),
	}
	return append(base, extra...)
}

func (s *Session) track(el gesture.Styler) {
	s.mu.Lock()
	s.elements = append(s.elements, el)
	s.mu.Unlock()
	el.SetAffordance(gesture.Idle(s.flag.Enabled()))
}

// RegisterCanvas attaches a canvas controller to node and places it from the
// store, or at def when the store has no translation for loc.
func (s *Session) RegisterCanvas(loc position.Location, node gesture.TranslateNode, def vector.Pt, opts ...gesture.Option) *gesture.Canvas {
	ctl := gesture.NewCanvas(loc, node, s.flag, s, s.gestureOptions(opts)...)
	ctl.Restore(s, def)
	s.track(ctl)
	return ctl
}

// RegisterBox attaches a box controller to el and applies the stored box, or def.
func (s *Session) RegisterBox(loc position.Location, el gesture.BoxElement, def position.Box, opts ...gesture.Option) *gesture.BoxDrag {
	ctl := gesture.NewBoxDrag(loc, el, s.flag, s, s.gestureOptions(opts)...)
	ctl.Restore(s, def)
	s.track(ctl)
	return ctl
}

// RegisterCallout attaches the label of c and places it from the stored
// label offset, or at def.
func (s *Session) RegisterCallout(c *annotation.Callout, def vector.Pt, opts ...gesture.Option) *gesture.Canvas {
	ctl := c.Attach(s.flag, s, s, def, s.gestureOptions(opts)...)
	s.track(ctl)
	return ctl
}

// ToggleDragMode flips drag mode and returns the new state.
func (s *Session) ToggleDragMode() bool { return s.flag.Toggle() }

func (s *Session) modeChanged(on bool) {
	s.mu.RLock()
	els := append([]gesture.Styler(nil), s.elements...)
	s.mu.RUnlock()
	a := gesture.Idle(on)
	for _, el := range els {
		el.SetAffordance(a)
	}
	s.metrics.RecordToggle(on)
	s.events.Event("drag_mode_toggled", map[string]any{"on": on})
	s.log.Info("drag mode changed", slog.Bool("on", on), slog.Int("elements", len(els)))
	if s.notifier != nil {
		s.notifier.Notify(notify.ModeMessage(on, s.cfg.Notify.ModeDuration()))
	}
}

// Save runs the pipeline on the current store. The document is serialized
// once at the start, so gestures made while a tier is pending are not part
// of this save.
func (s *Session) Save(ctx context.Context) (persist.Report, error) {
	ctx = applog.ContextWithSession(ctx, s.ID)
	rep, err := s.pipeline.Save(ctx, s.Store())
	if rep.Committed != nil {
		s.events.Event("positions_saved", map[string]any{"tier": rep.Committed.Tier})
	}
	return rep, err
}

// Action is what a key press did.
type Action uint8

const (
	ActionNone Action = iota
	ActionToggleDrag
	ActionSave
)

func (a Action) String() string {
	switch a {
	case ActionToggleDrag:
		return "toggle-drag"
	case ActionSave:
		return "save"
	default:
		return "none"
	}
}

// KeyAction maps a key to its action without performing it. Keys match
// case-insensitively.
func (s *Session) KeyAction(key rune) Action {
	switch {
	case matchKey(key, s.cfg.Keys.ToggleDrag):
		return ActionToggleDrag
	case matchKey(key, s.cfg.Keys.Save):
		return ActionSave
	default:
		return ActionNone
	}
}

func matchKey(key rune, binding string) bool {
	r := []rune(binding)
	return len(r) == 1 && unicode.ToLower(r[0]) == unicode.ToLower(key)
}

// HandleKey performs the action bound to key. Save runs synchronously; hosts
// with an event loop call KeyAction and run Save off the loop instead.
func (s *Session) HandleKey(ctx context.Context, key rune) (Action, error) {
	act := s.KeyAction(key)
	switch act {
	case ActionToggleDrag:
		s.ToggleDragMode()
	case ActionSave:
		_, err := s.Save(ctx)
		return act, err
	}
	return act, nil
}

// Binding describes one key for a help overlay.
type Binding struct {
	Key         string
	Description string
}

// Help lists the key bindings in display order.
func (s *Session) Help() []Binding {
	return []Binding{
		{Key: strings.ToUpper(s.cfg.Keys.ToggleDrag), Description: "Toggle drag mode to reposition labels and notes"},
		{Key: strings.ToUpper(s.cfg.Keys.Save), Description: fmt.Sprintf("Save positions (%s)", s.cfg.General.SuggestedName)},
	}
}
