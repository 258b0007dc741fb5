/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"chartoverlay/internal/config"
	"chartoverlay/internal/crash"
	"chartoverlay/internal/export"
	"chartoverlay/internal/journal"
	applog "chartoverlay/internal/log"
	"chartoverlay/internal/persist"
	"chartoverlay/internal/position"
	"chartoverlay/internal/session"
	"chartoverlay/internal/storage"
	"chartoverlay/internal/tui"
	"chartoverlay/internal/ui"
	"chartoverlay/internal/version"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "Chart Overlay - position editor for chart annotations")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  chartoverlay version|-v|--version             Show version")
	fmt.Fprintln(w, "  chartoverlay validate [<file>]                Check a positions document against the schema")
	fmt.Fprintln(w, "  chartoverlay show [<file>]                    List every stored position")
	fmt.Fprintln(w, "  chartoverlay reset <panel> <element> [<file>] Drop one stored position (keeps a backup)")
	fmt.Fprintln(w, "  chartoverlay backups [<file>]                 List backups, newest last")
	fmt.Fprintln(w, "  chartoverlay export pdf|png <out> [<file>]    Write a review sheet")
	fmt.Fprintln(w, "  chartoverlay journal [<n>]                    Show the last n save attempts")
	fmt.Fprintln(w, "  chartoverlay restore <sha256> [<file>]        Write a journaled document back (keeps a backup)")
	fmt.Fprintln(w, "  chartoverlay config                           Print the effective configuration")
	fmt.Fprintln(w, "  chartoverlay ui [<file>]                      Launch the overlay (build with -tags fyne)")
	fmt.Fprintln(w, "  chartoverlay tui [<file>]                     Edit positions in the terminal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "<file> defaults to general.positions_file from the configuration.")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, cfgErr := config.Load()
	applog.Init(applog.FromConfig(cfg.Logging))
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config ignored; using defaults", slog.Any("err", cfgErr))
	}
	defer crash.Recover(&crash.Target{PositionsFile: cfg.General.PositionsFile})

	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage(stdout)
		return 0
	}
	fileArg := func(i int) string {
		if len(args) > i {
			return args[i]
		}
		return cfg.General.PositionsFile
	}
	fail := func(err error) int {
		l.Error(args[0]+" failed", slog.Any("err", err))
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	needArgs := func(n int, msg string) bool {
		if len(args) < n {
			fmt.Fprintln(stderr, msg)
			usage(stderr)
			return false
		}
		return true
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(stdout, "Chart Overlay")
		fmt.Fprintln(stdout, version.String())
		return 0
	case "validate":
		path := fileArg(1)
		data, err := os.ReadFile(path)
		if err != nil {
			return fail(err)
		}
		if err := storage.Validate(data); err != nil {
			return fail(fmt.Errorf("%s: %w", path, err))
		}
		s, err := position.Load(data)
		if err != nil {
			return fail(fmt.Errorf("%s: %w", path, err))
		}
		fmt.Fprintf(stdout, "%s: ok (%d panels, %d positions)\n", path, len(s.Panels()), s.Len())
		return 0
	case "show":
		path := fileArg(1)
		s, err := storage.LoadStore(path)
		if err != nil {
			return fail(err)
		}
		writeRows(stdout, export.Rows(s))
		return 0
	case "reset":
		if !needArgs(3, "reset requires <panel> and <element>") {
			return 2
		}
		path := fileArg(3)
		s, err := storage.LoadStore(path)
		if err != nil {
			return fail(err)
		}
		if _, ok := s.Get(args[1], args[2]); !ok {
			fmt.Fprintf(stdout, "%s/%s has no stored position\n", args[1], args[2])
			return 0
		}
		s.Delete(args[1], args[2])
		data, err := s.Serialize()
		if err != nil {
			return fail(err)
		}
		backup, err := storage.WriteDocument(path, data)
		if err != nil {
			return fail(err)
		}
		l.Info("position reset", slog.String("panel", args[1]), slog.String("element", args[2]), slog.String("backup", backup))
		if backup != "" {
			fmt.Fprintf(stdout, "Removed %s/%s; previous document kept at %s\n", args[1], args[2], backup)
		} else {
			fmt.Fprintf(stdout, "Removed %s/%s\n", args[1], args[2])
		}
		return 0
	case "backups":
		list, err := storage.Backups(fileArg(1))
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(stdout, "no backups")
			return 0
		}
		if err != nil {
			return fail(err)
		}
		for _, b := range list {
			fmt.Fprintln(stdout, b)
		}
		return 0
	case "export":
		if !needArgs(3, "export requires pdf|png and <out>") {
			return 2
		}
		path := fileArg(3)
		s, err := storage.LoadStore(path)
		if err != nil {
			return fail(err)
		}
		switch strings.ToLower(args[1]) {
		case "pdf":
			err = export.WritePDFFile(args[2], s, export.PDFOptions{Source: path})
		case "png":
			err = export.WritePNGFile(args[2], s, export.PNGOptions{})
		default:
			fmt.Fprintf(stderr, "unknown export format %q\n", args[1])
			return 2
		}
		if err != nil {
			return fail(err)
		}
		fmt.Fprintln(stdout, "Exported", args[2])
		return 0
	case "journal":
		n := 20
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v <= 0 {
				fmt.Fprintf(stderr, "invalid count %q\n", args[1])
				return 2
			}
			n = v
		}
		j, err := journal.Open(cfg.JournalPathFor(cfg.General.PositionsFile))
		if err != nil {
			return fail(err)
		}
		defer j.Close()
		entries, err := j.Recent(context.Background(), n)
		if err != nil {
			return fail(err)
		}
		writeJournal(stdout, entries)
		return 0
	case "restore":
		if !needArgs(2, "restore requires a document digest") {
			return 2
		}
		path := fileArg(2)
		j, err := journal.Open(cfg.JournalPathFor(path))
		if err != nil {
			return fail(err)
		}
		defer j.Close()
		data, err := j.Document(context.Background(), args[1])
		if err != nil {
			return fail(err)
		}
		if _, err := position.Load(data); err != nil {
			return fail(fmt.Errorf("journaled document: %w", err))
		}
		backup, err := storage.WriteDocument(path, data)
		if err != nil {
			return fail(err)
		}
		l.Info("document restored", slog.String("digest", args[1]), slog.String("path", path))
		if backup != "" {
			fmt.Fprintf(stdout, "Restored %s; previous document kept at %s\n", path, backup)
		} else {
			fmt.Fprintf(stdout, "Restored %s\n", path)
		}
		return 0
	case "config":
		path, _ := config.ConfigPath()
		fmt.Fprintf(stdout, "# %s\n", path)
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fail(err)
		}
		return 0
	case "tui":
		path := fileArg(1)
		cfg.General.PositionsFile = path
		opts := applog.FromConfig(cfg.Logging)
		opts.NoConsole = true
		applog.Init(opts)
		var rec persist.Recorder
		if cfg.Journal.Enabled {
			j, err := journal.Open(cfg.JournalPathFor(path))
			if err != nil {
				l.Warn("save journal disabled", slog.Any("err", err))
			} else {
				defer j.Close()
				rec = j
			}
		}
		notes := tui.NewNotifier()
		sess := session.New(session.Options{
			Config:   cfg,
			Notifier: notes,
			Journal:  rec,
			Host:     session.Host{Saver: persist.PathSaver{Path: path}},
		})
		_ = sess.LoadFile(path)
		if err := tui.Run(sess, notes); err != nil {
			return fail(err)
		}
		return 0
	case "ui":
		var path string
		if len(args) > 1 {
			path = args[1]
		}
		if err := ui.Run(path); err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		return 0
	}

	usage(stderr)
	return 2
}

func writeRows(w io.Writer, rows []export.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "no positions recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PANEL\tELEMENT\tSHAPE\tPLACEMENT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Panel, r.Element, r.Kind, r.Summary)
	}
	_ = tw.Flush()
}

func writeJournal(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no saves recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tTIER\tSTATUS\tBYTES\tSHA256\tLOCATION\tERROR")
	for _, e := range entries {
		sum := e.SHA256
		if len(sum) > 12 {
			sum = sum[:12]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n", e.At.Local().Format(time.DateTime), e.Tier, e.Status, e.Bytes, sum, e.Location, e.Error)
	}
	_ = tw.Flush()
}
