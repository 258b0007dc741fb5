/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in anonymous editor events (drag-mode toggles,
// which save tier committed) and crash reports. Events never carry positions,
// panel names or file paths.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"chartoverlay/internal/config"
	applog "chartoverlay/internal/log"
	"chartoverlay/internal/version"
)

// Config controls where events and crash reports go.
type Config struct {
	OptIn     bool
	EventsURL string
	CrashURL  string
	Timeout   time.Duration
}

// FromAppConfig extracts the telemetry settings.
func FromAppConfig(c config.AppConfig) Config {
	t := c.Telemetry
	cfg := Config{
		OptIn:     t.OptIn,
		EventsURL: strings.TrimSpace(t.EventsURL),
		CrashURL:  strings.TrimSpace(t.CrashURL),
		Timeout:   time.Duration(t.TimeoutMs) * time.Millisecond,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	return cfg
}

// Client queues events and posts them from one goroutine. A nil *Client is
// valid and sends nothing.
type Client struct {
	cfg  Config
	log  *slog.Logger
	http *http.Client

	q    chan map[string]any
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New starts a client. Call Close to stop it.
func New(cfg Config) *Client {
	c := &Client{
		cfg:  cfg,
		log:  applog.WithComponent("telemetry"),
		http: &http.Client{Timeout: cfg.Timeout},
		q:    make(chan map[string]any, 64),
		done: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

// Enabled reports whether events are sent at all.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event queues a named event with non-identifying properties. It never
// blocks: when the queue is full the event is dropped.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		payload[k] = v
	}
	select {
	case c.q <- payload:
	default:
		c.log.Debug("telemetry queue full; event dropped", slog.String("event", name))
	}
}

func (c *Client) loop() {
	defer c.wg.Done()
	for {
		select {
		case p := <-c.q:
			c.post(c.cfg.EventsURL, "application/json", p)
		case <-c.done:
			for {
				select {
				case p := <-c.q:
					c.post(c.cfg.EventsURL, "application/json", p)
				default:
					return
				}
			}
		}
	}
}

func (c *Client) post(url, contentType string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	if err := c.send(ctx, url, contentType, body); err != nil {
		c.log.Debug("telemetry send failed", slog.Any("err", err))
	}
}

func (c *Client) send(ctx context.Context, url, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry endpoint returned %s", resp.Status)
	}
	return nil
}

// UploadCrash posts a crash report and waits for the answer, since the
// process usually exits right after. It is a no-op unless opted in with a
// crash URL.
func (c *Client) UploadCrash(ctx context.Context, report []byte) error {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	return c.send(ctx, c.cfg.CrashURL, "text/plain; charset=utf-8", report)
}

// Close sends what is still queued and stops the client.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.done) })
	c.wg.Wait()
}
