//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"chartoverlay/internal/config"
	"chartoverlay/internal/crash"
	"chartoverlay/internal/export"
	"chartoverlay/internal/journal"
	applog "chartoverlay/internal/log"
	"chartoverlay/internal/metrics"
	"chartoverlay/internal/notify"
	"chartoverlay/internal/persist"
	"chartoverlay/internal/session"
	"chartoverlay/internal/telemetry"
	"chartoverlay/internal/version"
)

// saveTimeout bounds one save, including the time the native dialog is open.
const saveTimeout = 10 * time.Minute

// Run opens the overlay window for positionsFile, or for the configured file
// when it is empty, and blocks until the window closes.
func Run(positionsFile string) error {
	cfg, cfgErr := config.Load()
	if positionsFile != "" {
		cfg.General.PositionsFile = positionsFile
	}
	applog.Init(applog.FromConfig(cfg.Logging))
	l := applog.WithComponent("ui")
	if cfgErr != nil {
		l.Warn("config ignored; using defaults", slog.Any("err", cfgErr))
	}
	l.Info("starting UI", slog.String("positions", cfg.General.PositionsFile))

	reg := metrics.NewRegistry()
	if cfg.Metrics.Addr != "" {
		addr, stop, err := reg.Serve(cfg.Metrics.Addr)
		if err != nil {
			l.Warn("metrics endpoint disabled", slog.Any("err", err))
		} else {
			defer stop()
			l.Info("metrics endpoint listening", slog.String("addr", addr))
		}
	}

	events := telemetry.New(telemetry.FromAppConfig(cfg))
	defer events.Close()

	var rec persist.Recorder
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.JournalPathFor(cfg.General.PositionsFile))
		if err != nil {
			l.Warn("save journal disabled", slog.Any("err", err))
		} else {
			defer j.Close()
			rec = j
		}
	}

	fyneApp := app.NewWithID("io.chartoverlay")
	w := fyneApp.NewWindow("Chart Overlay")
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 900), chartW)
	winH := max(prefs.IntWithFallback("window.height", 560), chartH)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	t := newToast()
	sess := session.New(session.Options{
		Config:   cfg,
		Notifier: notify.Multi{notify.Log{L: l}, t},
		Metrics:  reg,
		Journal:  rec,
		Events:   events,
		Host: session.Host{
			Saver:     dialogSaver{win: w},
			Clipboard: appClipboard{app: fyneApp},
		},
	})
	defer crash.Recover(&crash.Target{PositionsFile: cfg.General.PositionsFile, Store: sess.Store, Uploader: events})

	_ = sess.LoadFile(cfg.General.PositionsFile)
	ov := newOverlay(sess, t)

	var saving atomic.Bool
	save := func() {
		if !saving.CompareAndSwap(false, true) {
			l.Info("save already in progress")
			return
		}
		go func() {
			defer saving.Store(false)
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()
			if _, err := sess.Save(ctx); err != nil {
				l.Warn("save failed", slog.Any("err", err))
			}
		}()
	}

	w.Canvas().SetOnTypedRune(func(r rune) {
		switch sess.KeyAction(r) {
		case session.ActionToggleDrag:
			sess.ToggleDragMode()
		case session.ActionSave:
			save()
		}
	})

	help := widget.NewLabel(helpText(sess.Help()))
	w.SetContent(container.NewBorder(nil, help, nil, nil, container.NewScroll(ov.root)))
	w.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File",
			fyne.NewMenuItem("Save Positions", save),
			fyne.NewMenuItem("Export Sheet (PDF)…", func() { exportSheet(w, sess, ".pdf") }),
			fyne.NewMenuItem("Export Diagram (PNG)…", func() { exportSheet(w, sess, ".png") }),
		),
		fyne.NewMenu("Edit",
			fyne.NewMenuItem("Toggle Drag Mode", func() { sess.ToggleDragMode() }),
		),
		fyne.NewMenu("About",
			fyne.NewMenuItem("About Chart Overlay", func() {
				exe, _ := os.Executable()
				info := fmt.Sprintf("Chart Overlay\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s\nPositions: %s",
					version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe, cfg.General.PositionsFile)
				dialog.ShowInformation("Installation Environment", info, w)
			}),
		),
	))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	w.ShowAndRun()
	return nil
}

// exportSheet asks for a destination and writes the PDF table or PNG diagram
// of the current store.
func exportSheet(w fyne.Window, sess *session.Session, ext string) {
	l := applog.WithOperation(applog.WithComponent("ui"), "export")
	save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if uc == nil {
			return
		}
		defer uc.Close()
		st := sess.Store()
		if ext == ".pdf" {
			err = export.WritePDF(uc, st, export.PDFOptions{Source: sess.Config().General.PositionsFile})
		} else {
			err = export.WritePNG(uc, st, export.PNGOptions{})
		}
		if err != nil {
			l.Error("export failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		l.Info("exported", slog.String("path", uc.URI().Path()))
	}, w)
	base := filepath.Base(sess.Config().General.PositionsFile)
	save.SetFileName(base[:len(base)-len(filepath.Ext(base))] + ext)
	save.SetFilter(fstorage.NewExtensionFileFilter([]string{ext}))
	save.Show()
}
