/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package journal keeps an SQLite log of save attempts so users can find where
// an export went. Documents of successful saves are kept snappy-compressed and
// deduplicated by digest, so a save that only reached the clipboard can still
// be restored. The journal is advisory: losing it never loses positions.
package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	applog "chartoverlay/internal/log"
	"chartoverlay/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// schemaVersion tracks the journal table layout.
	schemaVersion = 2
	// atLayout is fixed width so timestamps sort as text.
	atLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Entry is one recorded tier attempt.
type Entry struct {
	ID       string
	At       time.Time
	Session  string
	Tier     string
	Status   string
	Location string
	Bytes    int
	SHA256   string
	Error    string

	// Payload is the saved document. It is stored once per digest and only
	// for successful attempts; Recent does not return it.
	Payload []byte
}

// ErrNoDocument is returned by Document for a digest that was never stored.
var ErrNoDocument = errors.New("document not in journal")

// Journal is an open journal database.
type Journal struct {
	db   *sql.DB
	path string
}

// Digest returns the hex SHA-256 of data, as stored in Entry.SHA256.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Open creates or opens the journal at path with WAL enabled.
func Open(path string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("journal"), "open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("journal ready")
	return &Journal{db: db, path: path}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS saves (
			id        TEXT PRIMARY KEY,
			at        TEXT    NOT NULL,
			session   TEXT,
			tier      TEXT    NOT NULL,
			status    TEXT    NOT NULL,
			location  TEXT,
			bytes     INTEGER NOT NULL,
			sha256    TEXT,
			error     TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saves_at ON saves(at);`,
		`CREATE TABLE IF NOT EXISTS documents (
			sha256  TEXT PRIMARY KEY,
			data    BLOB NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET schema=?, app=?, updated_at=? WHERE id=1`, schemaVersion, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (j *Journal) Path() string { return j.path }

// Record appends e, assigning an ID and timestamp when missing. A payload is
// stored under its digest, which is computed when e.SHA256 is empty.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	if len(e.Payload) > 0 && e.SHA256 == "" {
		e.SHA256 = Digest(e.Payload)
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return e, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO saves (id, at, session, tier, status, location, bytes, sha256, error) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.At.UTC().Format(atLayout), e.Session, e.Tier, e.Status, e.Location, e.Bytes, e.SHA256, e.Error)
	if err != nil {
		return e, fmt.Errorf("insert save entry: %w", err)
	}
	if len(e.Payload) > 0 {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO documents (sha256, data) VALUES(?, ?)`, e.SHA256, snappy.Encode(nil, e.Payload)); err != nil {
			return e, fmt.Errorf("insert document: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return e, fmt.Errorf("commit: %w", err)
	}
	return e, nil
}

// Document returns the stored document with the given digest. A unique
// prefix of at least 8 characters is accepted.
func (j *Journal) Document(ctx context.Context, digest string) ([]byte, error) {
	digest = strings.ToLower(strings.TrimSpace(digest))
	if len(digest) < 8 {
		return nil, fmt.Errorf("digest %q: need at least 8 characters", digest)
	}
	rows, err := j.db.QueryContext(ctx, `SELECT sha256, data FROM documents WHERE sha256 LIKE ? LIMIT 2`, digest+"%")
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	defer rows.Close()
	var (
		found      string
		compressed []byte
		n          int
	)
	for rows.Next() {
		if err := rows.Scan(&found, &compressed); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch n {
	case 0:
		return nil, fmt.Errorf("%s: %w", digest, ErrNoDocument)
	case 2:
		return nil, fmt.Errorf("digest prefix %q is ambiguous", digest)
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", found, err)
	}
	if Digest(data) != found {
		return nil, fmt.Errorf("document %s: digest mismatch", found)
	}
	return data, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at, session, tier, status, location, bytes, sha256, error FROM saves ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query saves: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e                                  Entry
			at                                 string
			session, location, digest, errText sql.NullString
		)
		if err := rows.Scan(&e.ID, &at, &session, &e.Tier, &e.Status, &location, &e.Bytes, &digest, &errText); err != nil {
			return nil, fmt.Errorf("scan save entry: %w", err)
		}
		e.At, _ = time.Parse(atLayout, at)
		e.Session, e.Location, e.SHA256, e.Error = session.String, location.String, digest.String, errText.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
