/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package persist commits a serialized position store through an ordered list
// of tiers. Each tier reports an explicit status; the pipeline moves on only
// when a tier is unavailable or failed, and stops on success or cancellation.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chartoverlay/internal/journal"
	applog "chartoverlay/internal/log"
	"chartoverlay/internal/metrics"
	"chartoverlay/internal/notify"
	"chartoverlay/internal/position"
)

var (
	// ErrUnavailable is returned by a capability that the host does not provide.
	ErrUnavailable = errors.New("save capability unavailable")
	// ErrCancelled is returned when the user dismisses a save prompt.
	ErrCancelled = errors.New("save cancelled")
	// ErrAllTiersFailed is returned when no tier committed the document.
	ErrAllTiersFailed = errors.New("all save tiers failed")
)

// Status is the outcome of one tier attempt.
type Status uint8

const (
	StatusOK Status = iota
	StatusUnavailable
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnavailable:
		return "unavailable"
	case StatusCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// Result is what a tier reports back.
type Result struct {
	Status   Status
	Location string // where the document went, when known
	Err      error
}

// Classify maps a capability error to a Result status.
func Classify(location string, err error) Result {
	switch {
	case err == nil:
		return Result{Status: StatusOK, Location: location}
	case errors.Is(err, ErrCancelled):
		return Result{Status: StatusCancelled, Err: err}
	case errors.Is(err, ErrUnavailable):
		return Result{Status: StatusUnavailable, Err: err}
	default:
		return Result{Status: StatusFailed, Location: location, Err: err}
	}
}

// Tier is one save strategy.
type Tier interface {
	Name() string
	Save(ctx context.Context, data []byte) Result
	// Message is the confirmation shown after a successful Save.
	Message(location string) string
}

// Attempt records one executed tier.
type Attempt struct {
	Tier     string
	Result   Result
	Duration time.Duration
}

// Report summarizes one Save call.
type Report struct {
	Skipped   bool // no store to save
	Attempts  []Attempt
	Committed *Attempt // the successful attempt, if any
	Cancelled bool
	Message   string // confirmation shown to the user
	Bytes     int
}

// Recorder persists attempts; *journal.Journal satisfies it.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// Pipeline runs tiers in order. All fields except Tiers are optional.
type Pipeline struct {
	Tiers    []Tier
	Notifier notify.Notifier
	Journal  Recorder
	Metrics  *metrics.Registry
	Logger   *slog.Logger

	// NotifyFor is the confirmation display time; zero uses notify.DefaultSaveDuration.
	NotifyFor time.Duration
}

// Save serializes store and walks the tiers. A nil store is a no-op with a
// warning. Cancellation ends the walk without trying later tiers and is not an
// error. When every tier fails the error wraps ErrAllTiersFailed.
func (p *Pipeline) Save(ctx context.Context, store *position.Store) (Report, error) {
	l := p.logger(ctx)
	if store == nil {
		l.Warn("no positions to save")
		return Report{Skipped: true}, nil
	}
	data, err := store.Serialize()
	if err != nil {
		l.Error("serialize positions failed", slog.Any("err", err))
		p.notify(notify.ErrorMessage("Saving positions failed", p.duration()))
		return Report{}, err
	}
	rep := Report{Bytes: len(data)}
	digest := journal.Digest(data)

	var errs []error
	for _, t := range p.Tiers {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		start := time.Now()
		res := t.Save(ctx, data)
		att := Attempt{Tier: t.Name(), Result: res, Duration: time.Since(start)}
		rep.Attempts = append(rep.Attempts, att)
		p.Metrics.RecordSaveAttempt(att.Tier, res.Status.String(), att.Duration)
		p.record(ctx, l, att, data, digest)

		tl := l.With(slog.String("tier", att.Tier), slog.String("status", res.Status.String()))
		switch res.Status {
		case StatusOK:
			tl.Info("positions saved", slog.String("location", res.Location))
			rep.Committed = &rep.Attempts[len(rep.Attempts)-1]
			rep.Message = t.Message(res.Location)
			p.notify(notify.SaveMessage(rep.Message, p.duration()))
			return rep, nil
		case StatusCancelled:
			tl.Info("save cancelled by user")
			rep.Cancelled = true
			return rep, nil
		case StatusUnavailable:
			tl.Debug("tier unavailable")
		default:
			tl.Warn("tier failed", slog.Any("err", res.Err))
			errs = append(errs, fmt.Errorf("%s: %w", att.Tier, res.Err))
		}
	}
	if len(errs) == 0 {
		err = fmt.Errorf("%w: no tier available", ErrAllTiersFailed)
	} else {
		err = fmt.Errorf("%w: %w", ErrAllTiersFailed, errors.Join(errs...))
	}
	l.Error("positions not saved", slog.Any("err", err))
	p.notify(notify.ErrorMessage("Saving positions failed; see log", p.duration()))
	return rep, err
}

func (p *Pipeline) logger(ctx context.Context) *slog.Logger {
	l := p.Logger
	if l == nil {
		l = applog.WithComponent("persist")
	}
	l = applog.WithOperation(l, "save")
	if id, ok := applog.SessionFrom(ctx); ok {
		l = l.With(slog.String("session", id))
	}
	return l
}

func (p *Pipeline) duration() time.Duration {
	if p.NotifyFor > 0 {
		return p.NotifyFor
	}
	return notify.DefaultSaveDuration
}

func (p *Pipeline) notify(m notify.Message) {
	if p.Notifier != nil {
		p.Notifier.Notify(m)
	}
}

func (p *Pipeline) record(ctx context.Context, l *slog.Logger, att Attempt, data []byte, digest string) {
	if p.Journal == nil {
		return
	}
	e := journal.Entry{
		Tier:     att.Tier,
		Status:   att.Result.Status.String(),
		Location: att.Result.Location,
		Bytes:    len(data),
		SHA256:   digest,
	}
	if att.Result.Status == StatusOK {
		e.Payload = data
	}
	if id, ok := applog.SessionFrom(ctx); ok {
		e.Session = id
	}
	if att.Result.Err != nil {
		e.Error = att.Result.Err.Error()
	}
	if _, err := p.Journal.Record(ctx, e); err != nil {
		l.Warn("journal record failed", slog.Any("err", err))
	}
}
