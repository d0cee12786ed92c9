// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vecsim

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestReadVectorsSkipsBlankAndComment(t *testing.T) {
	in := "# header\n\na\t1\t2\t3\nb\t4\t5\t6\n"
	vecs, err := ReadVectors(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadVectors: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
	if vecs[0].Name != "a" || vecs[1].Name != "b" {
		t.Errorf("names = %q, %q, want a, b", vecs[0].Name, vecs[1].Name)
	}
}

func TestReadVectorsRejectsNonFinite(t *testing.T) {
	_, err := ReadVectors(strings.NewReader("a\t1\tNaN\t3\n"))
	if err == nil {
		t.Fatal("ReadVectors accepted a NaN value")
	}
}

func TestRunDefaultExcludesSelfPairs(t *testing.T) {
	vecs := []Vector{
		{Name: "a", Values: []float32{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{Name: "b", Values: []float32{0, 1, 0, 0, 0, 0, 0, 0, 0, 0}},
	}
	e := NewEngine(Config{Mode: Euclidean})
	var buf bytes.Buffer
	if err := e.Run(context.Background(), vecs, &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (only a-b, no self pairs)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "a\tb\t") {
		t.Errorf("line = %q, want prefix %q", lines[0], "a\tb\t")
	}
}

func TestRunSelfPairsIncludesIdentity(t *testing.T) {
	vecs := []Vector{
		{Name: "a", Values: []float32{1, 2, 3}},
		{Name: "b", Values: []float32{4, 5, 6}},
	}
	e := NewEngine(Config{Mode: Euclidean, SelfPairs: true})
	var buf bytes.Buffer
	if err := e.Run(context.Background(), vecs, &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (a-a, a-b, b-b): %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "a\ta\t1.000000") {
		t.Errorf("self-pair line = %q, want similarity 1.0", lines[0])
	}
}

func TestRunThresholdFiltersPairs(t *testing.T) {
	vecs := []Vector{
		{Name: "a", Values: []float32{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{Name: "b", Values: []float32{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{Name: "c", Values: []float32{0, 0, 0, 0, 0, 0, 0, 0, 0, 1000}},
	}
	e := NewEngine(Config{Mode: CosineMode, Threshold: 0.99, HasThresh: true})
	var buf bytes.Buffer
	if err := e.Run(context.Background(), vecs, &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := strings.TrimSpace(buf.String())
	if out != "a\tb\t1.000000" {
		t.Errorf("thresholded output = %q, want only the a-b pair", out)
	}
}

func TestRunJaccardModeOverBinaryVectors(t *testing.T) {
	vecs := []Vector{
		{Name: "a", Values: []float32{1, 1, 0, 0}},
		{Name: "b", Values: []float32{1, 0, 1, 0}},
	}
	e := NewEngine(Config{Mode: JaccardMode})
	var buf bytes.Buffer
	if err := e.Run(context.Background(), vecs, &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := strings.TrimSpace(buf.String())
	want := "a\tb\t0.333333"
	if out != want {
		t.Errorf("Jaccard-mode output = %q, want %q", out, want)
	}
}
