/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package metrics exposes Prometheus counters for gestures, drag-mode toggles and saves.
// All Record* methods accept a nil *Registry so callers can run without metrics.
package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for gesture events.
const (
	OutcomeApplied = "applied"
	OutcomeIgnored = "ignored"
)

// Registry owns a private Prometheus registry and the collectors registered on it.
type Registry struct {
	registry *prometheus.Registry

	GestureEvents *prometheus.CounterVec
	DragToggles   *prometheus.CounterVec
	SaveAttempts  *prometheus.CounterVec
	SaveDuration  *prometheus.HistogramVec
	StoreEntries  prometheus.Gauge
}

// NewRegistry creates a registry with all collectors registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.GestureEvents = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartoverlay_gesture_events_total",
			Help: "Pointer gesture events by controller, phase and outcome",
		},
		[]string{"controller", "phase", "outcome"},
	)
	r.DragToggles = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartoverlay_drag_mode_toggles_total",
			Help: "Drag-mode toggles by resulting state",
		},
		[]string{"state"},
	)
	r.SaveAttempts = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartoverlay_save_attempts_total",
			Help: "Persistence tier attempts by tier and status",
		},
		[]string{"tier", "status"},
	)
	r.SaveDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chartoverlay_save_duration_seconds",
			Help:    "Time spent inside a persistence tier",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"tier"},
	)
	r.StoreEntries = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "chartoverlay_store_entries",
			Help: "Element descriptors held by the position store",
		},
	)
	return r
}

// GetPrometheusRegistry returns the underlying registry for gathering.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes Handler under /metrics on addr in the background. It returns
// the bound address, which differs from addr when addr uses port 0, and a
// stop function that shuts the server down.
func (r *Registry) Serve(addr string) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen metrics on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ln)
	}()
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		<-done
	}
	return ln.Addr().String(), stop, nil
}

// RecordGesture counts one gesture event.
func (r *Registry) RecordGesture(controller, phase string, applied bool) {
	if r == nil {
		return
	}
	outcome := OutcomeIgnored
	if applied {
		outcome = OutcomeApplied
	}
	r.GestureEvents.WithLabelValues(controller, phase, outcome).Inc()
}

// RecordToggle counts a drag-mode change.
func (r *Registry) RecordToggle(on bool) {
	if r == nil {
		return
	}
	state := "off"
	if on {
		state = "on"
	}
	r.DragToggles.WithLabelValues(state).Inc()
}

// RecordSaveAttempt counts one tier attempt and observes its duration.
func (r *Registry) RecordSaveAttempt(tier, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.SaveAttempts.WithLabelValues(tier, status).Inc()
	r.SaveDuration.WithLabelValues(tier).Observe(d.Seconds())
}

// SetStoreEntries reports the current number of stored descriptors.
func (r *Registry) SetStoreEntries(n int) {
	if r == nil {
		return
	}
	r.StoreEntries.Set(float64(n))
}
