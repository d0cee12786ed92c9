// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distance

import (
	"path/filepath"
	"testing"
)

func TestSpillPutGetScan(t *testing.T) {
	dir := t.TempDir()
	sp, err := CreateSpill(filepath.Join(dir, "spill.kv"))
	if err != nil {
		t.Fatalf("CreateSpill: %v", err)
	}
	defer sp.Close()

	sets := []namedSketch{
		{name: "alpha", set: []uint64{1, 2, 3}},
		{name: "beta", set: []uint64{4, 5}},
		{name: "gamma", set: []uint64{6}},
	}
	if err := sp.PutAll("targets.fa", sets); err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	got, err := sp.Get("targets.fa", "beta")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Errorf("Get(beta) = %v, want [4 5]", got)
	}

	seen := map[string][]uint64{}
	if err := sp.Scan("targets.fa", func(name string, set []uint64) bool {
		seen[name] = set
		return true
	}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("Scan visited %d entries, want 3: %v", len(seen), seen)
	}
	for _, ns := range sets {
		got, ok := seen[ns.name]
		if !ok {
			t.Errorf("Scan did not visit %q", ns.name)
			continue
		}
		if len(got) != len(ns.set) {
			t.Errorf("Scan(%q) = %v, want %v", ns.name, got, ns.set)
		}
	}
}

func TestSpillScanStopsAtOtherFile(t *testing.T) {
	dir := t.TempDir()
	sp, err := CreateSpill(filepath.Join(dir, "spill.kv"))
	if err != nil {
		t.Fatalf("CreateSpill: %v", err)
	}
	defer sp.Close()

	if err := sp.PutAll("a.fa", []namedSketch{{name: "x", set: []uint64{1}}}); err != nil {
		t.Fatalf("PutAll a: %v", err)
	}
	if err := sp.PutAll("b.fa", []namedSketch{{name: "y", set: []uint64{2}}}); err != nil {
		t.Fatalf("PutAll b: %v", err)
	}

	var names []string
	if err := sp.Scan("a.fa", func(name string, _ []uint64) bool {
		names = append(names, name)
		return true
	}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(names) != 1 || names[0] != "x" {
		t.Errorf("Scan(a.fa) = %v, want [x]", names)
	}
}
