// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distance

import (
	"fmt"
	"io"
	"sync"

	"modernc.org/kv"

	"github.com/kortschak/hnsm/internal/store"
)

// spillBatch is the number of Set calls grouped into one kv
// transaction, matching the batching width used by the teacher's BLAST
// hit importer.
const spillBatch = 100

// Spill is an on-disk store of named sketches, backing the distance
// engine's list mode (RunList) when the merged per-file sketches are
// too many to hold in memory (spec §5 "the engine assumes target sketches fit in memory",
// relaxed here as an opt-in escape hatch).
type Spill struct {
	mu sync.Mutex // modernc.org/kv.DB is not safe for concurrent Get/Seek
	db *kv.DB
}

// CreateSpill creates a new spill database at path.
func CreateSpill(path string) (*Spill, error) {
	db, err := kv.Create(path, &kv.Options{Compare: store.ByFileThenName})
	if err != nil {
		return nil, fmt.Errorf("distance: spill: %w", err)
	}
	return &Spill{db: db}, nil
}

// Close closes the underlying database.
func (s *Spill) Close() error { return s.db.Close() }

// PutAll writes every sketch in sets, tagged under file, to the spill
// database in spillBatch-sized transactions.
func (s *Spill) PutAll(file string, sets []namedSketch) error {
	for i, ns := range sets {
		if i%spillBatch == 0 {
			if err := s.db.BeginTransaction(); err != nil {
				return err
			}
		}
		key := store.MarshalSketchKey(store.SketchKey{File: file, Name: ns.name})
		if err := s.db.Set(key, store.MarshalSketch(ns.set)); err != nil {
			return err
		}
		if i%spillBatch == spillBatch-1 || i == len(sets)-1 {
			if err := s.db.Commit(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get returns the sketch stored under (file, name).
func (s *Spill) Get(file, name string) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := store.MarshalSketchKey(store.SketchKey{File: file, Name: name})
	v, err := s.db.Get(nil, key)
	if err != nil {
		return nil, err
	}
	return store.UnmarshalSketch(v), nil
}

// Scan calls fn for every sketch stored under file, in name order,
// until fn returns false or the file's entries are exhausted.
func (s *Spill) Scan(file string, fn func(name string, set []uint64) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, _, err := s.db.Seek(store.MarshalSketchKey(store.SketchKey{File: file}))
	if err != nil {
		return err
	}
	for {
		k, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		key := store.UnmarshalSketchKey(k)
		if key.File != file {
			return nil
		}
		if !fn(key.Name, store.UnmarshalSketch(v)) {
			return nil
		}
	}
}
