// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seqcache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kortschak/hnsm/faidx"
)

func writeFasta(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func newTestExtractor(t *testing.T, content string, cache int) *Extractor {
	t.Helper()
	dir := t.TempDir()
	path := writeFasta(t, dir, "in.fa", content)
	idx, err := faidx.Build(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ex, err := NewExtractor(path, idx, cache)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	t.Cleanup(func() { ex.Close() })
	return ex
}

// testGenome is a single 400-base record, 60 bases per line with a
// short final line, matching the layout faidx expects.
var testGenome = buildGenome()

func buildGenome() string {
	var b strings.Builder
	b.WriteString(">k81_170 test contig\n")
	for i := 0; i < 6; i++ {
		b.WriteString(strings.Repeat("ACGT", 15))
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("ACGT", 10))
	b.WriteByte('\n')
	return b.String()
}

func TestParseRange(t *testing.T) {
	cases := []struct {
		expr string
		want Query
	}{
		{"k81_170", Query{Name: "k81_170", Strand: '+', Whole: true}},
		{"k81_170:304-323", Query{Name: "k81_170", Strand: '+', Start: 304, End: 323}},
		{"k81_170(-):1-20", Query{Name: "k81_170", Strand: '-', Start: 1, End: 20}},
		{"k81_170(+):5-5", Query{Name: "k81_170", Strand: '+', Start: 5, End: 5}},
	}
	for _, c := range cases {
		got, err := ParseRange(c.expr)
		if err != nil {
			t.Errorf("ParseRange(%q): %v", c.expr, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseRange(%q) = %+v, want %+v", c.expr, got, c.want)
		}
	}
}

func TestParseRangeErrors(t *testing.T) {
	bad := []string{"", ":1-10", "a:10-5", "a:0-10", "a(x):1-2", "a(+"}
	for _, expr := range bad {
		if _, err := ParseRange(expr); err == nil {
			t.Errorf("ParseRange(%q) succeeded, want error", expr)
		}
	}
}

func TestReverseComplement(t *testing.T) {
	got := ReverseComplement([]byte("ACGTN"))
	want := "NACGT"
	if string(got) != want {
		t.Errorf("ReverseComplement = %q, want %q", got, want)
	}
}

func TestExtractWholeAndRange(t *testing.T) {
	ex := newTestExtractor(t, testGenome, 16)

	header, seq, err := ex.Extract(Query{Name: "k81_170", Whole: true})
	if err != nil {
		t.Fatalf("Extract whole: %v", err)
	}
	if header != "k81_170" {
		t.Errorf("whole header = %q, want %q", header, "k81_170")
	}
	if len(seq) != 400 {
		t.Errorf("whole length = %d, want 400", len(seq))
	}

	q, err := ParseRange("k81_170:304-323")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	header, sub, err := ex.Extract(q)
	if err != nil {
		t.Fatalf("Extract range: %v", err)
	}
	if header != "k81_170:304-323" {
		t.Errorf("range header = %q, want %q", header, "k81_170:304-323")
	}
	if len(sub) != 20 {
		t.Fatalf("range length = %d, want 20", len(sub))
	}
	if string(sub) != string(seq[303:323]) {
		t.Errorf("range bytes mismatch: got %q want %q", sub, seq[303:323])
	}
}

func TestExtractReverseStrand(t *testing.T) {
	ex := newTestExtractor(t, testGenome, 16)

	q, err := ParseRange("k81_170(-):1-20")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	_, got, err := ex.Extract(q)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	fq, _ := ParseRange("k81_170:1-20")
	_, forward, err := ex.Extract(fq)
	if err != nil {
		t.Fatalf("Extract forward: %v", err)
	}
	want := ReverseComplement(forward)
	if string(got) != string(want) {
		t.Errorf("reverse-strand extract = %q, want %q", got, want)
	}
}

func TestExtractOutOfRange(t *testing.T) {
	ex := newTestExtractor(t, testGenome, 16)
	_, _, err := ex.Extract(Query{Name: "k81_170", Start: 1, End: 1000})
	if err == nil {
		t.Fatal("Extract did not reject an out-of-range end coordinate")
	}
	_, _, err = ex.Extract(Query{Name: "nope", Whole: true})
	if err == nil {
		t.Fatal("Extract did not reject an unknown name")
	}
}

func TestLRUEviction(t *testing.T) {
	const twoSeq = ">A\nACGTACGTAC\n>B\nTTTTGGGGCC\n"
	dir := t.TempDir()
	path := writeFasta(t, dir, "two.fa", twoSeq)
	idx, err := faidx.Build(strings.NewReader(twoSeq))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Capacity 1: touching A, B, A again must count as three materializations
	// (no cross-sequence hit survives the second insertion).
	ex1, err := NewExtractor(path, idx, 1)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	defer ex1.Close()

	for _, name := range []string{"A", "B", "A"} {
		if _, _, err := ex1.Extract(Query{Name: name, Whole: true}); err != nil {
			t.Fatalf("Extract(%s): %v", name, err)
		}
	}
	if ex1.lru.Len() != 1 {
		t.Errorf("capacity-1 LRU Len() = %d, want 1", ex1.lru.Len())
	}

	// Capacity 2: both A and B fit simultaneously.
	ex2, err := NewExtractor(path, idx, 2)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	defer ex2.Close()
	for _, name := range []string{"A", "B", "A"} {
		if _, _, err := ex2.Extract(Query{Name: name, Whole: true}); err != nil {
			t.Fatalf("Extract(%s): %v", name, err)
		}
	}
	if ex2.lru.Len() != 2 {
		t.Errorf("capacity-2 LRU Len() = %d, want 2", ex2.lru.Len())
	}
}
