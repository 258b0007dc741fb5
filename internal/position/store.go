/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package position

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Location addresses one element inside one panel.
type Location struct {
	Panel   string
	Element string
}

func (l Location) String() string { return l.Panel + "/" + l.Element }

// Writer is the narrow view of a store that gesture controllers write through.
type Writer interface {
	Set(panelID, elementID string, d Descriptor)
}

// Reader is the narrow view used to seed element placement.
type Reader interface {
	Get(panelID, elementID string) (Descriptor, bool)
}

// Document is the in-memory form of a positions document:
// panel id -> element id -> descriptor.
type Document map[string]map[string]Descriptor

func (d *Document) UnmarshalJSON(data []byte) error {
	doc, _, err := Decode(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// Decode parses a positions document. Elements whose value is null are left
// out and returned as skipped, sorted by location, so one blank entry does not
// discard the rest of the document.
func Decode(data []byte) (Document, []Location, error) {
	var panels map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &panels); err != nil {
		return nil, nil, fmt.Errorf("decode positions document: %w", err)
	}
	out := make(Document, len(panels))
	var skipped []Location
	for pid, elems := range panels {
		bucket := make(map[string]Descriptor, len(elems))
		for eid, raw := range elems {
			if isNull(raw) {
				skipped = append(skipped, Location{Panel: pid, Element: eid})
				continue
			}
			desc, err := DecodeDescriptor(raw)
			if err != nil {
				return nil, nil, fmt.Errorf("%s/%s: %w", pid, eid, err)
			}
			bucket[eid] = desc
		}
		out[pid] = bucket
	}
	sort.Slice(skipped, func(i, j int) bool {
		if skipped[i].Panel != skipped[j].Panel {
			return skipped[i].Panel < skipped[j].Panel
		}
		return skipped[i].Element < skipped[j].Element
	})
	return out, skipped, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// Store is the mutable position state of one session. Descriptors are value
// types and are replaced whole, so a reader never sees a partial write.
// The zero value is not usable; call NewStore or Load.
type Store struct {
	mu     sync.RWMutex
	panels Document
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{panels: Document{}} }

// FromDocument returns a store holding a deep copy of doc.
func FromDocument(doc Document) *Store {
	s := NewStore()
	s.Replace(doc)
	return s
}

// Load parses a positions document into a new store. Null elements are
// dropped; use Decode to learn which.
func Load(data []byte) (*Store, error) {
	doc, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc), nil
}

// Get returns the descriptor recorded for the location, if any.
func (s *Store) Get(panelID, elementID string) (Descriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.panels[panelID][elementID]
	return d, ok
}

// GetOr returns the recorded descriptor or def when the element has none.
func (s *Store) GetOr(panelID, elementID string, def Descriptor) Descriptor {
	if d, ok := s.Get(panelID, elementID); ok {
		return d
	}
	return def
}

// Set records d for the location, creating the panel bucket if needed.
func (s *Store) Set(panelID, elementID string, d Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.panels[panelID]
	if !ok {
		bucket = make(map[string]Descriptor)
		s.panels[panelID] = bucket
	}
	bucket[elementID] = d
}

// Delete removes the element entry and drops the panel bucket once empty.
func (s *Store) Delete(panelID, elementID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.panels[panelID]
	if !ok {
		return
	}
	delete(bucket, elementID)
	if len(bucket) == 0 {
		delete(s.panels, panelID)
	}
}

// Replace swaps the whole content for a copy of doc.
func (s *Store) Replace(doc Document) {
	cp := copyDocument(doc)
	s.mu.Lock()
	s.panels = cp
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current content.
func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyDocument(s.panels)
}

// Serialize renders the store as a pretty-printed JSON document with a
// trailing newline. Keys come out sorted.
func (s *Store) Serialize() ([]byte, error) {
	snap := s.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal positions: %w", err)
	}
	return append(data, '\n'), nil
}

// Panels lists panel ids in sorted order.
func (s *Store) Panels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.panels))
	for pid := range s.panels {
		out = append(out, pid)
	}
	sort.Strings(out)
	return out
}

// Elements lists the element ids of a panel in sorted order.
func (s *Store) Elements(panelID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.panels[panelID]
	out := make([]string, 0, len(bucket))
	for eid := range bucket {
		out = append(out, eid)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of recorded elements across all panels.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, bucket := range s.panels {
		n += len(bucket)
	}
	return n
}

// Equal reports whether both stores hold the same locations and descriptors.
// Empty panel buckets are ignored.
func Equal(a, b *Store) bool {
	da, db := a.Snapshot(), b.Snapshot()
	if countEntries(da) != countEntries(db) {
		return false
	}
	for pid, bucket := range da {
		for eid, d := range bucket {
			other, ok := db[pid][eid]
			if !ok || !EqualDescriptor(d, other) {
				return false
			}
		}
	}
	return true
}

func countEntries(doc Document) int {
	n := 0
	for _, bucket := range doc {
		n += len(bucket)
	}
	return n
}

func copyDocument(doc Document) Document {
	out := make(Document, len(doc))
	for pid, bucket := range doc {
		cp := make(map[string]Descriptor, len(bucket))
		for eid, d := range bucket {
			if r, ok := d.(Raw); ok {
				d = Raw{JSON: append(json.RawMessage(nil), r.JSON...)}
			}
			cp[eid] = d
		}
		out[pid] = cp
	}
	return out
}
