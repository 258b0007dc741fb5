/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chartoverlay/internal/config"
)

func TestClient_EventAndUploadCrash(t *testing.T) {
	var mu sync.Mutex
	var events [][]byte
	var crashes [][]byte

	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		events = append(events, b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		crashes = append(crashes, b)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second})
	if !c.Enabled() {
		t.Fatalf("expected client to be enabled")
	}
	c.Event("drag_mode_toggled", map[string]any{"on": true})
	c.Close() // drains the queue

	mu.Lock()
	if len(events) != 1 {
		mu.Unlock()
		t.Fatalf("expected one event, got %d", len(events))
	}
	var m map[string]any
	if err := json.Unmarshal(events[0], &m); err != nil {
		mu.Unlock()
		t.Fatalf("bad event json: %v", err)
	}
	mu.Unlock()
	if m["name"] != "drag_mode_toggled" || m["on"] != true {
		t.Fatalf("unexpected payload: %v", m)
	}
	if _, ok := m["ts"].(string); !ok {
		t.Fatalf("missing ts field")
	}

	if err := c.UploadCrash(context.Background(), []byte("STACKTRACE")); err != nil {
		t.Fatalf("UploadCrash: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(crashes) != 1 || string(crashes[0]) != "STACKTRACE" {
		t.Fatalf("crash upload not received: %q", crashes)
	}
}

func TestClient_DisabledSendsNothing(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(Config{OptIn: false, EventsURL: srv.URL, CrashURL: srv.URL, Timeout: time.Second})
	c.Event("ignored", nil)
	if err := c.UploadCrash(context.Background(), []byte("ignored")); err != nil {
		t.Fatalf("disabled upload returned %v", err)
	}
	c.Close()

	c2 := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: time.Second})
	c2.Event("", nil)
	c2.Close()

	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	c.Event("x", nil)
	if err := c.UploadCrash(context.Background(), nil); err != nil {
		t.Fatalf("nil upload: %v", err)
	}
	c.Close()
}

func TestUploadCrashReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := New(Config{OptIn: true, CrashURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	if err := c.UploadCrash(context.Background(), []byte("oops")); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Telemetry.OptIn = true
	cfg.Telemetry.EventsURL = " https://example.org/events "
	cfg.Telemetry.TimeoutMs = 0
	got := FromAppConfig(cfg)
	if !got.OptIn || got.EventsURL != "https://example.org/events" || got.Timeout != 1500*time.Millisecond {
		t.Fatalf("unexpected config: %+v", got)
	}
}
