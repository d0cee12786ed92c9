// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distance

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kortschak/hnsm/sketch"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const ecoliLike = ">IBPA_ECOLI\n" +
	"MRNFDLSPLYRSVIGDFFSNFFGEHSRRIPAVDMRAAGEAAAVDGKQYQIDLDVREFKPE\n" +
	"ELTVKVVDGYLVIEGKHEEREDDHGYISRHFVRKYALPKGYDAENVSSTLSNDGVLTIIA\n"

const nearlyIdentical = ">IBPA_ESCF3\n" +
	"MRNFDLSPLYRSVIGDFFSNFFGEHSRRIPAVDMRAAGEAAAVDGKQYQIDLDVREFKPE\n" +
	"ELTVKVVDGYLVIEGKHEEREDDHGYISRHFVRKYALPKGYDAENVSSTLSNDGVLTIIA\n"

const gappedVariant = ">IBPA_ECOLI_GA_LV_RK\n" +
	"MRNFDLSPLGASVIGDFFSNFFGEHSRRIPAVDMRAAGEAALVDGKQYQIDLDVRKFKPE\n" +
	"ELTVKVVDGYLVIEGKHEEREDDHGYISRHFVRKYALPKGYDAENVSSTLSNDGVLTIIA\n"

func proteinConfig() sketch.Params {
	return sketch.Params{K: 7, W: 1, Alphabet: sketch.Protein, Hasher: sketch.Rapid, Mode: sketch.ModHash}
}

func TestRunMergedSelfComparisonIsCanonical(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.fa", ecoliLike)

	e := NewEngine(Config{Sketch: proteinConfig()})
	var buf bytes.Buffer
	if err := e.RunMerged(path, path, &buf); err != nil {
		t.Fatalf("RunMerged: %v", err)
	}
	fields := strings.Split(strings.TrimSpace(buf.String()), "\t")
	if len(fields) != 9 {
		t.Fatalf("RunMerged output has %d fields, want 9: %q", len(fields), buf.String())
	}
	if fields[6] != "0.0000" {
		t.Errorf("self-comparison D = %s, want 0.0000", fields[6])
	}
	if fields[7] != "1.0000" {
		t.Errorf("self-comparison J = %s, want 1.0000", fields[7])
	}
}

func TestRunMergedNearIdenticalIsClose(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.fa", ecoliLike)
	b := writeFile(t, dir, "b.fa", nearlyIdentical)

	e := NewEngine(Config{Sketch: proteinConfig()})
	var buf bytes.Buffer
	if err := e.RunMerged(a, b, &buf); err != nil {
		t.Fatalf("RunMerged: %v", err)
	}
	fields := strings.Split(strings.TrimSpace(buf.String()), "\t")
	if fields[7] != "1.0000" {
		t.Errorf("identical-sequence J = %s, want 1.0000 (these differ only in name)", fields[7])
	}
}

func TestRunMergedDivergentIsFarther(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.fa", ecoliLike)
	c := writeFile(t, dir, "c.fa", gappedVariant)

	e := NewEngine(Config{Sketch: proteinConfig()})
	var bufClose, bufFar bytes.Buffer

	b := writeFile(t, dir, "b.fa", nearlyIdentical)
	if err := e.RunMerged(a, b, &bufClose); err != nil {
		t.Fatalf("RunMerged: %v", err)
	}
	if err := e.RunMerged(a, c, &bufFar); err != nil {
		t.Fatalf("RunMerged: %v", err)
	}

	closeFields := strings.Split(strings.TrimSpace(bufClose.String()), "\t")
	farFields := strings.Split(strings.TrimSpace(bufFar.String()), "\t")
	if farFields[6] <= closeFields[6] {
		t.Errorf("divergent-sequence D (%s) should exceed near-identical D (%s)", farFields[6], closeFields[6])
	}
}

func TestRunPairwiseOrderPreserved(t *testing.T) {
	dir := t.TempDir()
	multi := ">r1\nACGTACGTACGTACGTACGTACGTACGT\n>r2\nTTTTGGGGCCCCAAAATTTTGGGGCCCC\n>r3\nACGTACGTACGTACGTACGTACGTACGA\n"
	path := writeFile(t, dir, "q.fa", multi)

	p := sketch.Params{K: 11, W: 2, Alphabet: sketch.DNA, Hasher: sketch.Rapid, Mode: sketch.WindowMinimizer}
	e := NewEngine(Config{Sketch: p, Workers: 8})

	var buf bytes.Buffer
	if err := e.RunPairwise(context.Background(), path, path, &buf); err != nil {
		t.Fatalf("RunPairwise: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	wantPrefixes := []string{"r1\tr1", "r1\tr2", "r1\tr3", "r2\tr1", "r2\tr2", "r2\tr3", "r3\tr1", "r3\tr2", "r3\tr3"}
	if len(lines) != len(wantPrefixes) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(wantPrefixes), buf.String())
	}
	for i, want := range wantPrefixes {
		if !strings.HasPrefix(lines[i], want) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], want)
		}
	}
}

func TestRunMergedRejectsIncompatibleAlphabet(t *testing.T) {
	dir := t.TempDir()
	protein := writeFile(t, dir, "a.fa", ecoliLike)
	dna := writeFile(t, dir, "b.fa", ">chr1\nACGTACGTACGTACGTACGTACGTACGT\n")

	e := NewEngine(Config{Sketch: proteinConfig()})
	var buf bytes.Buffer
	err := e.RunMerged(protein, dna, &buf)
	if err != ErrIncompatibleAlphabet {
		t.Fatalf("RunMerged(protein, dna) = %v, want ErrIncompatibleAlphabet", err)
	}
}

func TestRunListRejectsIncompatibleAlphabet(t *testing.T) {
	dir := t.TempDir()
	protein := writeFile(t, dir, "a.fa", ecoliLike)
	dna := writeFile(t, dir, "b.fa", ">chr1\nACGTACGTACGTACGTACGTACGTACGT\n")

	listFile := writeFile(t, dir, "list.txt", protein+"\n"+dna+"\n")
	f, err := os.Open(listFile)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	e := NewEngine(Config{Sketch: proteinConfig(), List: true})
	var buf bytes.Buffer
	if err := e.RunList(context.Background(), f, &buf); !errors.Is(err, ErrIncompatibleAlphabet) {
		t.Fatalf("RunList(mixed alphabets) = %v, want ErrIncompatibleAlphabet", err)
	}
}

func TestRunListIncludesSelfPairs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.fa", ecoliLike)
	b := writeFile(t, dir, "b.fa", nearlyIdentical)

	listFile := writeFile(t, dir, "list.txt", a+"\n"+b+"\n")
	f, err := os.Open(listFile)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	e := NewEngine(Config{Sketch: proteinConfig(), List: true})
	var buf bytes.Buffer
	if err := e.RunList(context.Background(), f, &buf); err != nil {
		t.Fatalf("RunList: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("RunList produced %d lines, want 4 (2x2 ordered pairs): %q", len(lines), buf.String())
	}
}
