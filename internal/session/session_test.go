/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chartoverlay/internal/annotation"
	"chartoverlay/internal/config"
	"chartoverlay/internal/gesture"
	"chartoverlay/internal/notify"
	"chartoverlay/internal/persist"
	"chartoverlay/internal/position"
	"chartoverlay/internal/vector"
)

type memTier struct {
	saved [][]byte
}

func (m *memTier) Name() string { return "memory" }

func (m *memTier) Save(_ context.Context, data []byte) persist.Result {
	m.saved = append(m.saved, data)
	return persist.Result{Status: persist.StatusOK, Location: "memory"}
}

func (m *memTier) Message(string) string { return "saved to memory" }

type noteBox struct {
	box        position.Box
	affordance gesture.Affordance
}

func (n *noteBox) ApplyBox(b position.Box)            { n.box = b }
func (n *noteBox) SetAffordance(a gesture.Affordance) { n.affordance = a }

func newTestSession(t *testing.T) (*Session, *memTier, *notify.Recorder) {
	t.Helper()
	tier := &memTier{}
	rec := &notify.Recorder{}
	return New(Options{Config: config.Defaults(), Tiers: []persist.Tier{tier}, Notifier: rec}), tier, rec
}

func TestLoadedTranslationDragScenario(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.Load([]byte(`{"panel1":{"worldAvgLabel":{"y":-10}}}`)))

	node := &gesture.PointNode{}
	ctl := s.RegisterCanvas(position.Location{Panel: "panel1", Element: "worldAvgLabel"}, node, vector.Pt{X: 3, Y: 3})
	assert.Equal(t, vector.Pt{X: 0, Y: -10}, node.P)

	s.ToggleDragMode()
	require.True(t, ctl.Begin(gesture.Event{}))
	require.True(t, ctl.Update(gesture.Event{DY: 15}))
	ctl.End()

	d, ok := s.Store().Get("panel1", "worldAvgLabel")
	require.True(t, ok)
	assert.Equal(t, position.Translation{X: 0, Y: 5}, d)
}

func TestAbsentStoreIsCreatedOnFirstWrite(t *testing.T) {
	s, _, _ := newTestSession(t)
	el := &noteBox{}
	def := position.Box{
		Vertical:   position.Axis{Edge: position.EdgeEnd, Offset: 10},
		Horizontal: position.Axis{Edge: position.EdgeEnd, Offset: 10},
	}
	ctl := s.RegisterBox(position.Location{Panel: "panel1", Element: "floatingNote"}, el, def)
	assert.Equal(t, def, el.box)
	assert.Nil(t, s.Store(), "registering must not create the store")

	s.ToggleDragMode()
	ctl.Begin(50, 50)
	ctl.Update(45, 45)
	ctl.End()

	require.NotNil(t, s.Store())
	d, ok := s.Store().Get("panel1", "floatingNote")
	require.True(t, ok)
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bottom":15,"right":15}`, string(raw))
}

func TestLoadFailureLeavesStoreAbsent(t *testing.T) {
	s, tier, _ := newTestSession(t)
	require.NoError(t, s.Load([]byte(`{"p":{"e":{"x":1,"y":1}}}`)))
	require.Error(t, s.Load([]byte(`{not json`)))
	assert.Nil(t, s.Store())

	rep, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Skipped)
	assert.Empty(t, tier.saved)
}

func TestNullElementFallsBackToDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"p":{"e":null,"f":{"x":1}}}`), 0o644))
	s, _, _ := newTestSession(t)
	require.NoError(t, s.LoadFile(path))
	require.NotNil(t, s.Store())
	assert.Equal(t, 1, s.Store().Len())

	kept := &gesture.PointNode{}
	s.RegisterCanvas(position.Location{Panel: "p", Element: "f"}, kept, vector.Pt{X: 9, Y: 9})
	assert.Equal(t, vector.Pt{X: 1}, kept.P)

	blank := &gesture.PointNode{}
	s.RegisterCanvas(position.Location{Panel: "p", Element: "e"}, blank, vector.Pt{X: 5, Y: -5})
	assert.Equal(t, vector.Pt{X: 5, Y: -5}, blank.P)
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	s, _, _ := newTestSession(t)
	err := s.LoadFile(filepath.Join(t.TempDir(), "positions.json"))
	require.Error(t, err)
	assert.Nil(t, s.Store())

	node := &gesture.PointNode{}
	s.RegisterCanvas(position.Location{Panel: "p", Element: "title"}, node, vector.Pt{X: 12, Y: -4})
	assert.Equal(t, vector.Pt{X: 12, Y: -4}, node.P)
}

func TestLoadFileReadsDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"p":{"note":{"top":4,"left":8}}}`), 0o644))
	s, _, _ := newTestSession(t)
	require.NoError(t, s.LoadFile(path))
	assert.Equal(t, 1, s.Store().Len())
}

func TestToggleBroadcastsAffordanceAndNotifies(t *testing.T) {
	s, _, rec := newTestSession(t)
	node := &gesture.PointNode{}
	box := &noteBox{}
	s.RegisterCanvas(position.Location{Panel: "p", Element: "a"}, node, vector.Pt{})
	s.RegisterBox(position.Location{Panel: "p", Element: "b"}, box, position.Box{})
	assert.Equal(t, gesture.Resting, node.Affordance)

	assert.True(t, s.ToggleDragMode())
	assert.Equal(t, gesture.Armed, node.Affordance)
	assert.Equal(t, gesture.Armed, box.affordance)
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "Drag Mode: ON", last.Text)
	assert.Equal(t, notify.ColorModeOn, last.Color)

	assert.False(t, s.ToggleDragMode())
	assert.Equal(t, gesture.Resting, box.affordance)
	last, _ = rec.Last()
	assert.Equal(t, "Drag Mode: OFF", last.Text)
}

func TestCalloutRegistrationStoresLabelOffset(t *testing.T) {
	s, _, _ := newTestSession(t)
	c := annotation.New(position.Location{Panel: "scatter", Element: "outlier"}, vector.Pt{X: 100, Y: 100}, "Outlier", nil)
	ctl := s.RegisterCallout(c, vector.Pt{X: 60, Y: -30})
	assert.Equal(t, vector.AlignStart, c.Geometry().Align)

	s.ToggleDragMode()
	ctl.Begin(gesture.Event{})
	ctl.Update(gesture.Event{DX: -120})
	ctl.End()

	d, ok := s.Store().Get("scatter", "outlier")
	require.True(t, ok)
	assert.Equal(t, position.LabelOffset{TextX: -60, TextY: -30}, d)
	assert.Equal(t, vector.AlignEnd, c.Geometry().Align)
}

func TestHandleKeyIsCaseInsensitive(t *testing.T) {
	s, tier, _ := newTestSession(t)
	ctx := context.Background()

	act, err := s.HandleKey(ctx, 'D')
	require.NoError(t, err)
	assert.Equal(t, ActionToggleDrag, act)
	assert.True(t, s.Flag().Enabled())

	s.Set("p", "e", position.Translation{X: 1, Y: 2})
	act, err = s.HandleKey(ctx, 's')
	require.NoError(t, err)
	assert.Equal(t, ActionSave, act)
	require.Len(t, tier.saved, 1)
	assert.JSONEq(t, `{"p":{"e":{"x":1,"y":2}}}`, string(tier.saved[0]))

	act, err = s.HandleKey(ctx, 'x')
	require.NoError(t, err)
	assert.Equal(t, ActionNone, act)
}

func TestHelpListsBothBindings(t *testing.T) {
	s, _, _ := newTestSession(t)
	help := s.Help()
	require.Len(t, help, 2)
	assert.Equal(t, "D", help[0].Key)
	assert.Equal(t, "S", help[1].Key)
}

func TestTiersFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.General.DownloadDir = "/tmp/dl"
	tiers := Tiers(cfg, Host{})
	require.Len(t, tiers, 3)
	assert.Equal(t, []string{persist.TierNative, persist.TierDownload, persist.TierClipboard},
		[]string{tiers[0].Name(), tiers[1].Name(), tiers[2].Name()})
	assert.Nil(t, tiers[0].(persist.NativeTier).Saver)

	cfg.General.WriteInPlace = true
	tiers = Tiers(cfg, Host{})
	assert.Equal(t, persist.PathSaver{Path: cfg.General.PositionsFile}, tiers[0].(persist.NativeTier).Saver)
}
