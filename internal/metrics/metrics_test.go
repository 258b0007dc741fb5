/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// counterValue sums a counter family for the metrics whose labels contain all of want.
func counterValue(t *testing.T, r *Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestRecordHelpers(t *testing.T) {
	r := NewRegistry()
	r.RecordGesture("canvas", "update", true)
	r.RecordGesture("canvas", "update", false)
	r.RecordGesture("canvas", "update", true)
	r.RecordToggle(true)
	r.RecordSaveAttempt("native", "failed", 3*time.Millisecond)
	r.RecordSaveAttempt("clipboard", "ok", time.Millisecond)
	r.SetStoreEntries(4)

	if got := counterValue(t, r, "chartoverlay_gesture_events_total", map[string]string{"outcome": "applied"}); got != 2 {
		t.Fatalf("applied gestures = %v", got)
	}
	if got := counterValue(t, r, "chartoverlay_drag_mode_toggles_total", map[string]string{"state": "on"}); got != 1 {
		t.Fatalf("toggles = %v", got)
	}
	if got := counterValue(t, r, "chartoverlay_save_attempts_total", map[string]string{"tier": "native", "status": "failed"}); got != 1 {
		t.Fatalf("native failures = %v", got)
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	r.RecordGesture("box", "begin", true)
	r.RecordToggle(false)
	r.RecordSaveAttempt("download", "ok", 0)
	r.SetStoreEntries(1)
	if r.GetPrometheusRegistry() != nil {
		t.Fatalf("nil registry should expose nothing")
	}
}

func TestHandlerServesExposition(t *testing.T) {
	r := NewRegistry()
	r.RecordToggle(false)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `chartoverlay_drag_mode_toggles_total{state="off"} 1`) {
		t.Fatalf("exposition missing toggle counter:\n%s", body)
	}
}

func TestServeExposesMetricsPath(t *testing.T) {
	r := NewRegistry()
	r.SetStoreEntries(3)
	addr, stop, err := r.Serve("127.0.0.1:0")
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	defer stop()

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "chartoverlay_store_entries 3") {
		t.Fatalf("exposition missing store gauge:\n%s", body)
	}
}
