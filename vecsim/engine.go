// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vecsim

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kortschak/hnsm/pipeline"
)

// Mode selects the similarity measure.
type Mode int

const (
	Euclidean Mode = iota
	CosineMode
	JaccardMode
)

// Config holds the parameters of a similarity run (spec §4.6).
type Config struct {
	Mode      Mode
	Bin       bool // threshold and pack into bit vectors before comparing
	Dis       bool // emit raw distance instead of similarity (Euclidean only)
	Threshold float64
	HasThresh bool // whether Threshold filtering applies
	SelfPairs bool
	Workers   int
}

// Engine runs all-pairs or threshold similarity over a set of named
// feature vectors loaded from TSV.
type Engine struct {
	cfg Config
}

// NewEngine returns an Engine configured by cfg.
func NewEngine(cfg Config) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{cfg: cfg}
}

// ReadVectors parses a TSV where column 1 is a name and the remaining
// columns are features (spec §4.6), in input order.
func ReadVectors(r io.Reader) ([]Vector, error) {
	var out []Vector
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("vecsim: malformed row: %q", line)
		}
		values := make([]float32, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("vecsim: %s: %w", fields[0], err)
			}
			values[i] = float32(v)
		}
		if err := CheckFinite(values); err != nil {
			return nil, fmt.Errorf("vecsim: %s: %w", fields[0], err)
		}
		out = append(out, Vector{Name: fields[0], Values: values})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("vecsim: %w", err)
	}
	return out, nil
}

// pair is one (i,j) index pair to compare, in producer order.
type pair struct{ i, j int }

// Run compares every pair of vecs according to e's configuration and
// writes "name1\tname2\tscore" TSV lines to w in pair order. Pairs are
// i<j unless SelfPairs is set, in which case i<=j.
func (e *Engine) Run(ctx context.Context, vecs []Vector, w io.Writer) error {
	var bins []BinVector
	if e.cfg.Mode == JaccardMode || e.cfg.Bin {
		bins = make([]BinVector, len(vecs))
		for i, v := range vecs {
			bins[i] = BinVector{Name: v.Name, Words: PackBinary(v.Values), Dim: len(v.Values)}
		}
	}

	var pairs []pair
	for i := range vecs {
		start := i + 1
		if e.cfg.SelfPairs {
			start = i
		}
		for j := start; j < len(vecs); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	bw := bufio.NewWriter(w)
	defer bw.Flush()

	idx := 0
	producer := func(yield func(unit any) bool) error {
		for idx < len(pairs) {
			if !yield(pairs[idx]) {
				break
			}
			idx++
		}
		return nil
	}

	worker := func(unit any) (any, error) {
		p := unit.(pair)
		score, err := e.score(vecs, bins, p.i, p.j)
		if err != nil {
			return "", err
		}
		if e.cfg.HasThresh && score < e.cfg.Threshold {
			return "", nil
		}
		return fmt.Sprintf("%s\t%s\t%.6f", vecs[p.i].Name, vecs[p.j].Name, score), nil
	}

	writer := func(_ uint64, value any) error {
		line := value.(string)
		if line == "" {
			return nil
		}
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		return bw.WriteByte('\n')
	}

	return pipeline.Run(ctx, producer, worker, e.cfg.Workers, writer)
}

func (e *Engine) score(vecs []Vector, bins []BinVector, i, j int) (float64, error) {
	switch e.cfg.Mode {
	case JaccardMode:
		return JaccardBits(bins[i].Words, bins[j].Words)
	case CosineMode:
		if e.cfg.Bin {
			return Cosine(asFloat(bins[i]), asFloat(bins[j]))
		}
		return Cosine(vecs[i].Values, vecs[j].Values)
	default:
		x, y := vecs[i].Values, vecs[j].Values
		if e.cfg.Bin {
			x, y = asFloat(bins[i]), asFloat(bins[j])
		}
		if e.cfg.Dis {
			if len(x) != len(y) {
				return 0, ErrDimensionMismatch
			}
			return EuclidDistance(x, y), nil
		}
		return Euclid(x, y)
	}
}

// asFloat expands a packed binary vector back to 0/1 float32s, for
// callers that request cosine or Euclidean similarity over thresholded
// vectors.
func asFloat(b BinVector) []float32 {
	out := make([]float32, b.Dim)
	for i := range out {
		if b.Words[i/64]&(1<<uint(i%64)) != 0 {
			out[i] = 1
		}
	}
	return out
}
