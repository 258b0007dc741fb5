/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chartoverlay/internal/dragmode"
	"chartoverlay/internal/metrics"
	"chartoverlay/internal/position"
	"chartoverlay/internal/vector"
)

func enabledFlag() *dragmode.Flag {
	f := &dragmode.Flag{}
	f.Set(true)
	return f
}

func TestCanvas_StoredYScenario(t *testing.T) {
	store, err := position.Load([]byte(`{"panel1":{"worldAvgLabel":{"y":-10}}}`))
	require.NoError(t, err)

	node := &PointNode{}
	c := NewCanvas(position.Location{Panel: "panel1", Element: "worldAvgLabel"}, node, enabledFlag(), store)
	c.Restore(store, vector.Pt{})
	require.Equal(t, vector.Pt{Y: -10}, node.P)

	require.True(t, c.Begin(Event{}))
	require.True(t, c.Update(Event{DX: 0, DY: 15}))
	c.End()

	got, ok := store.Get("panel1", "worldAvgLabel")
	require.True(t, ok)
	assert.Equal(t, position.Translation{X: 0, Y: 5}, got)
	assert.Equal(t, Armed, node.Affordance)
}

func TestCanvas_FlagOffFreezesNodeAndStore(t *testing.T) {
	flag := enabledFlag()
	store := position.NewStore()
	node := &PointNode{P: vector.Pt{X: 3, Y: 4}}
	reg := metrics.NewRegistry()
	var callbacks int
	c := NewCanvas(position.Location{Panel: "p", Element: "legend"}, node, flag, store,
		WithMetrics(reg), OnUpdate(func(vector.Pt, Event) { callbacks++ }))

	require.True(t, c.Begin(Event{}))
	require.True(t, c.Update(Event{DX: 1, DY: 1}))
	assert.Equal(t, Grabbing, node.Affordance)

	flag.Set(false)
	assert.False(t, c.Update(Event{DX: 50, DY: 50}))
	assert.Equal(t, vector.Pt{X: 4, Y: 5}, node.P)
	d, _ := store.Get("p", "legend")
	assert.Equal(t, position.Translation{X: 4, Y: 5}, d)
	assert.Equal(t, 1, callbacks)

	c.End()
	assert.Equal(t, Resting, node.Affordance, "end restores the idle look even with drag mode off")
}

func TestCanvas_BeginIgnoredWhileOff(t *testing.T) {
	node := &PointNode{}
	c := NewCanvas(position.Location{Panel: "p", Element: "e"}, node, &dragmode.Flag{}, position.NewStore())
	assert.False(t, c.Begin(Event{}))
	assert.Equal(t, Affordance{}, node.Affordance)
}

func TestCanvas_MalformedTransformStartsAtOrigin(t *testing.T) {
	transform := "translate(oops"
	store := position.NewStore()
	c := NewCanvas(position.Location{Panel: "p", Element: "note"}, AttrNode{Transform: &transform}, enabledFlag(), store)

	require.True(t, c.Update(Event{DX: 2, DY: -3}))
	assert.Equal(t, "translate(2,-3)", transform)
	d, _ := store.Get("p", "note")
	assert.Equal(t, position.Translation{X: 2, Y: -3}, d)
}

func TestCanvas_RestoreIgnoresWrongShape(t *testing.T) {
	store := position.NewStore()
	store.Set("p", "e", position.Box{})
	node := &PointNode{}
	c := NewCanvas(position.Location{Panel: "p", Element: "e"}, node, enabledFlag(), store)
	got := c.Restore(store, vector.Pt{X: 7})
	assert.Equal(t, vector.Pt{X: 7}, got)
}

func TestCanvas_NoDriftProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("node offset equals stored translation after every update", prop.ForAll(
		func(deltas []float64, toggles []bool) bool {
			flag := enabledFlag()
			store := position.NewStore()
			node := &PointNode{}
			c := NewCanvas(position.Location{Panel: "p", Element: "e"}, node, flag, store)
			c.Begin(Event{})
			for i := 0; i+1 < len(deltas); i += 2 {
				if len(toggles) > 0 {
					flag.Set(toggles[(i/2)%len(toggles)])
				}
				before := node.P
				applied := c.Update(Event{DX: deltas[i], DY: deltas[i+1]})
				d, ok := store.Get("p", "e")
				if !applied {
					if node.P != before {
						return false
					}
					continue
				}
				if !ok || d != (position.Translation{X: node.P.X, Y: node.P.Y}) {
					return false
				}
			}
			c.End()
			return true
		},
		gen.SliceOf(gen.Float64Range(-500, 500)),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
