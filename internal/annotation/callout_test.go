/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chartoverlay/internal/dragmode"
	"chartoverlay/internal/gesture"
	"chartoverlay/internal/position"
	"chartoverlay/internal/vector"
)

type recordingView struct {
	frames     []vector.CalloutGeometry
	affordance gesture.Affordance
}

func (v *recordingView) Render(g vector.CalloutGeometry)    { v.frames = append(v.frames, g) }
func (v *recordingView) SetAffordance(a gesture.Affordance) { v.affordance = a }

func TestCallout_ResolvesOnLoadFromStoredOffset(t *testing.T) {
	store, err := position.Load([]byte(`{"panel3":{"annotation-usa":{"textX":-60,"textY":-30}}}`))
	require.NoError(t, err)
	view := &recordingView{}
	c := New(position.Location{Panel: "panel3", Element: "annotation-usa"}, vector.Pt{X: 100, Y: 100}, "USA", view)

	var flag dragmode.Flag
	c.Attach(&flag, store, store, vector.Pt{X: 60, Y: -30})

	require.Len(t, view.frames, 1)
	g := view.frames[0]
	assert.Equal(t, vector.AlignEnd, g.Align)
	assert.Equal(t, vector.Pt{X: -68, Y: -30}, g.LineEnd)
}

func TestCallout_DragAcrossAnchorFlipsAlignment(t *testing.T) {
	store := position.NewStore()
	view := &recordingView{}
	c := New(position.Location{Panel: "panel3", Element: "annotation-x"}, vector.Pt{X: 100, Y: 100}, "X", view)
	var flag dragmode.Flag
	flag.Set(true)
	ctl := c.Attach(&flag, store, store, vector.Pt{X: 60, Y: -30})
	assert.Equal(t, vector.Pt{X: 68, Y: -30}, c.Geometry().LineEnd)
	assert.Equal(t, vector.AlignStart, c.Geometry().Align)

	require.True(t, ctl.Begin(gesture.Event{}))
	assert.Equal(t, gesture.Grabbing, view.affordance)
	require.True(t, ctl.Update(gesture.Event{DX: -120}))
	ctl.End()

	assert.Equal(t, vector.AlignEnd, c.Geometry().Align)
	assert.Equal(t, vector.Pt{X: -68, Y: -30}, c.Geometry().LineEnd)
	d, ok := store.Get("panel3", "annotation-x")
	require.True(t, ok)
	assert.Equal(t, position.LabelOffset{TextX: -60, TextY: -30}, d)
	assert.Len(t, view.frames, 2)
}

func TestCallout_HeadlessWithoutView(t *testing.T) {
	c := New(position.Location{Panel: "p", Element: "a"}, vector.Pt{}, "", nil)
	c.SetOffset(vector.Pt{X: 1})
	c.SetAffordance(gesture.Armed)
	assert.Equal(t, vector.Pt{X: 9}, c.Geometry().LineEnd)
}
