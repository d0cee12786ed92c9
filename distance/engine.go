// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distance

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kortschak/hnsm/internal/seqio"
	"github.com/kortschak/hnsm/pipeline"
	"github.com/kortschak/hnsm/sketch"
)

// Config holds the parameters of a distance run (spec §4.5, §6).
type Config struct {
	Sketch  sketch.Params
	Merge   bool // one union sketch per file, instead of per-record
	List    bool // read file paths from r and compare all ordered pairs
	Zero    bool // drop pairs with intersection 0
	Workers int

	// SpillPath, when non-empty, spills list-mode merged sketches to an
	// on-disk modernc.org/kv database instead of holding them all in
	// memory, for target sets too large for the default in-memory
	// array (spec §5 assumes in-memory targets; this is an opt-in
	// escape hatch).
	SpillPath string
}

// Engine runs pairwise, merged-file or list-mode distance comparisons
// over FASTA inputs, writing TSV to an io.Writer in input order.
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

// namedSketch is one sketched record or merged-file sketch, tagged
// with the name under which it is reported.
type namedSketch struct {
	name string
	set  []uint64
}

// nucleotideCodes holds the IUPAC nucleotide letters (upper and lower
// case), used by detectAlphabet to tell DNA/RNA content from protein.
var nucleotideCodes = [256]bool{}

func init() {
	for _, b := range []byte("ACGTURYKMSWBDHVNacgturykmswbdhvn") {
		nucleotideCodes[b] = true
	}
}

// detectAlphabet reports whether seq looks like nucleotide (composed
// solely of IUPAC nucleotide codes) or protein content, so the engine
// can reject a query/target pair drawn from incompatible alphabets at
// setup (spec §4.5's IncompatibleAlphabet) even though a single run
// shares one sketch.Params.Alphabet for both sides.
func detectAlphabet(seq []byte) sketch.Alphabet {
	for _, b := range seq {
		if !nucleotideCodes[b] {
			return sketch.Protein
		}
	}
	return sketch.DNA
}

// loadRecordSketches sketches every record in path individually,
// preserving file order. detected is the alphabet guessed from the
// first record's raw content; ok is false when path held no records,
// in which case detected is meaningless (an empty file is EmptySketch,
// not an alphabet mismatch).
func loadRecordSketches(path string, p sketch.Params) (recs []namedSketch, detected sketch.Alphabet, ok bool, err error) {
	r, err := seqio.Open(path)
	if err != nil {
		return nil, 0, false, fmt.Errorf("distance: %s: %w", path, err)
	}
	defer r.Close()

	var out []namedSketch
	sc := seqio.NewScanner(r)
	for sc.Next() {
		rec := sc.Seq()
		if !ok {
			detected = detectAlphabet(rec.Seq)
			ok = true
		}
		out = append(out, namedSketch{name: rec.Name, set: sketch.Sketch(rec.Seq, p)})
	}
	if err := sc.Err(); err != nil {
		return nil, 0, false, fmt.Errorf("distance: %s: %w", path, err)
	}
	return out, detected, ok, nil
}

// loadMergedSketch sketches every record in path and unions them into
// a single sketch named after the file's base name.
func loadMergedSketch(path string, p sketch.Params) (namedSketch, sketch.Alphabet, bool, error) {
	recs, detected, ok, err := loadRecordSketches(path, p)
	if err != nil {
		return namedSketch{}, 0, false, err
	}
	sets := make([][]uint64, len(recs))
	for i, r := range recs {
		sets[i] = r.set
	}
	name := path
	if path != "stdin" {
		name = filepath.Base(path)
	}
	return namedSketch{name: name, set: sketch.MergeSketches(sets...)}, detected, ok, nil
}

// RunPairwise compares every query record against every target record
// (spec §4.5 pairwise-record mode), writing "qname\ttname\tD\tJ\tC"
// lines to w in query order.
func (e *Engine) RunPairwise(ctx context.Context, queryPath, targetPath string, w io.Writer) error {
	targets, targetAlphabet, targetOK, err := loadRecordSketches(targetPath, e.cfg.Sketch)
	if err != nil {
		return err
	}

	r, err := seqio.Open(queryPath)
	if err != nil {
		return fmt.Errorf("distance: %s: %w", queryPath, err)
	}
	defer r.Close()
	sc := seqio.NewScanner(r)

	// Peek the first query record, which lets the setup-time
	// IncompatibleAlphabet check run before any pipeline unit is
	// produced, without losing that record: it is replayed as the
	// producer's first yield below.
	var firstQuery *seqio.Record
	if sc.Next() {
		rec := sc.Seq()
		firstQuery = &rec
		if targetOK && detectAlphabet(rec.Seq) != targetAlphabet {
			return ErrIncompatibleAlphabet
		}
	} else if err := sc.Err(); err != nil {
		return fmt.Errorf("distance: %s: %w", queryPath, err)
	}

	bw := bufio.NewWriter(w)
	defer bw.Flush()

	k := e.cfg.Sketch.K
	producer := func(yield func(unit any) bool) error {
		if firstQuery != nil {
			rec := *firstQuery
			firstQuery = nil
			ns := namedSketch{name: rec.Name, set: sketch.Sketch(rec.Seq, e.cfg.Sketch)}
			if !yield(ns) {
				return nil
			}
		}
		for sc.Next() {
			rec := sc.Seq()
			ns := namedSketch{name: rec.Name, set: sketch.Sketch(rec.Seq, e.cfg.Sketch)}
			if !yield(ns) {
				break
			}
		}
		return sc.Err()
	}

	worker := func(unit any) (any, error) {
		q := unit.(namedSketch)
		lines := make([]string, 0, len(targets))
		for _, t := range targets {
			s := Compare(q.set, t.set, k)
			if e.cfg.Zero && s.Intersection == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s\t%s\t%.4f\t%.4f\t%.4f", q.name, t.name, s.D, s.J, s.C))
		}
		return lines, nil
	}

	writer := func(_ uint64, value any) error {
		for _, line := range value.([]string) {
			if _, err := bw.WriteString(line); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		return nil
	}

	return pipeline.Run(ctx, producer, worker, e.cfg.Workers, writer)
}

// RunMerged compares the union sketch of queryPath against the union
// sketch of targetPath (spec §4.5 merged-file mode), writing
// "qfile\ttfile\t|A|\t|B|\tI\t|A∪B|\tD\tJ\tC" as a single line.
func (e *Engine) RunMerged(queryPath, targetPath string, w io.Writer) error {
	q, qAlphabet, qOK, err := loadMergedSketch(queryPath, e.cfg.Sketch)
	if err != nil {
		return err
	}
	t, tAlphabet, tOK, err := loadMergedSketch(targetPath, e.cfg.Sketch)
	if err != nil {
		return err
	}
	if qOK && tOK && qAlphabet != tAlphabet {
		return ErrIncompatibleAlphabet
	}
	s := Compare(q.set, t.set, e.cfg.Sketch.K)
	if e.cfg.Zero && s.Intersection == 0 {
		return nil
	}
	_, err = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%.4f\t%.4f\t%.4f\n",
		q.name, t.name, s.SizeA, s.SizeB, s.Intersection, s.Union, s.D, s.J, s.C)
	return err
}

// RunList reads file paths from r, one per line, builds a merged
// sketch per file, and compares every ordered pair including self
// pairs (spec §4.5 list mode), writing merged-file-style TSV rows in
// pair order to w.
func (e *Engine) RunList(ctx context.Context, r io.Reader, w io.Writer) error {
	var paths []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		p := strings.TrimSpace(sc.Text())
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("distance: list: %w", err)
	}

	names := make([]string, len(paths))
	sets := make([]namedSketch, len(paths))
	alphabets := make([]sketch.Alphabet, len(paths))
	alphabetKnown := make([]bool, len(paths))
	for i, p := range paths {
		ns, alphabet, ok, err := loadMergedSketch(p, e.cfg.Sketch)
		if err != nil {
			return err
		}
		names[i] = ns.name
		sets[i] = ns
		alphabets[i] = alphabet
		alphabetKnown[i] = ok
	}

	var spill *Spill
	if e.cfg.SpillPath != "" {
		s, err := CreateSpill(e.cfg.SpillPath)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.PutAll("", sets); err != nil {
			return err
		}
		spill = s
		sets = nil // allow the in-memory sketches to be collected; names survives
	}

	type pair struct{ i, j int }
	var pairs []pair
	for i := range names {
		for j := range names {
			pairs = append(pairs, pair{i, j})
		}
	}

	bw := bufio.NewWriter(w)
	defer bw.Flush()

	k := e.cfg.Sketch.K
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
	lookup := func(i int) (namedSketch, error) {
		if spill == nil {
			return sets[i], nil
		}
		set, err := spill.Get("", names[i])
		if err != nil {
			return namedSketch{}, err
		}
		return namedSketch{name: names[i], set: set}, nil
	}
	worker := func(unit any) (any, error) {
		pr := unit.(pair)
		if alphabetKnown[pr.i] && alphabetKnown[pr.j] && alphabets[pr.i] != alphabets[pr.j] {
			return "", ErrIncompatibleAlphabet
		}
		q, err := lookup(pr.i)
		if err != nil {
			return "", err
		}
		t, err := lookup(pr.j)
		if err != nil {
			return "", err
		}
		s := Compare(q.set, t.set, k)
		if e.cfg.Zero && s.Intersection == 0 {
			return "", nil
		}
		return fmt.Sprintf("%s\t%s\t%d\t%d\t%d\t%d\t%.4f\t%.4f\t%.4f",
			q.name, t.name, s.SizeA, s.SizeB, s.Intersection, s.Union, s.D, s.J, s.C), nil
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
