// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/kortschak/hnsm/bgzf"
	"github.com/kortschak/hnsm/faidx"
	"github.com/kortschak/hnsm/seqcache"
)

func runRange(args []string) int {
	fs := flagSet("range", "<input.fa[.gz]> [QUERY...] [-r rangefile] [--cache N]")
	rangeFile := fs.String("r", "", "file of range queries, one per line")
	cache := fs.Int("cache", 16, "LRU cache size in whole sequences")
	strict := fs.Bool("strict", false, "abort the whole run on the first bad query")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)
	queries := fs.Args()[1:]

	idx, err := loadOrBuildIndex(path)
	if err != nil {
		log.Print(err)
		return 2
	}

	ex, err := seqcache.NewExtractor(path, idx, *cache)
	if err != nil {
		log.Print(err)
		return 2
	}
	defer ex.Close()

	bw := bufio.NewWriter(os.Stdout)
	defer bw.Flush()

	fail := false
	emit := func(header string, seq []byte) {
		fmt.Fprintf(bw, ">%s\n", header)
		for i := 0; i < len(seq); i += 60 {
			end := i + 60
			if end > len(seq) {
				end = len(seq)
			}
			bw.Write(seq[i:end])
			bw.WriteByte('\n')
		}
	}

	for _, expr := range queries {
		q, err := seqcache.ParseRange(expr)
		if err != nil {
			log.Print(err)
			fail = true
			if *strict {
				return 1
			}
			continue
		}
		header, seq, err := ex.Extract(q)
		if err != nil {
			log.Print(err)
			fail = true
			if *strict {
				return 1
			}
			continue
		}
		emit(header, seq)
	}

	if *rangeFile != "" {
		f, err := os.Open(*rangeFile)
		if err != nil {
			log.Print(err)
			return 2
		}
		defer f.Close()
		for res := range ex.ExtractBatch(f) {
			if res.Err != nil {
				log.Print(res.Err)
				fail = true
				if *strict {
					return 1
				}
				continue
			}
			emit(res.Header, res.Seq)
		}
	}

	if fail {
		return 1
	}
	return 0
}

// locPath returns the conventional index path for a FASTA input.
func locPath(fastaPath string) string {
	return fastaPath + ".loc"
}

// loadOrBuildIndex loads the .loc index for path, building and
// persisting one if it does not already exist (spec §4.2).
func loadOrBuildIndex(path string) (*faidx.Index, error) {
	isBGZF, err := detectBGZF(path)
	if err != nil {
		return nil, err
	}

	if f, err := os.Open(locPath(path)); err == nil {
		defer f.Close()
		return faidx.Load(f, isBGZF)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var idx *faidx.Index
	if isBGZF {
		bg, err := bgzf.NewReader(f)
		if err != nil {
			return nil, err
		}
		idx, err = faidx.Build(bg)
		if err != nil {
			return nil, err
		}
	} else {
		idx, err = faidx.Build(f)
		if err != nil {
			return nil, err
		}
	}

	out, err := os.Create(locPath(path))
	if err != nil {
		return nil, err
	}
	defer out.Close()
	if _, err := idx.WriteTo(out); err != nil {
		return nil, err
	}
	return idx, nil
}

// detectBGZF reports whether path is framed as BGZF by inspecting its
// header, without consuming any of the range-extraction read path.
func detectBGZF(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	r, err := bgzf.NewReader(f)
	if err != nil {
		return false, err
	}
	defer r.Close()
	return r.IsRandomAccess(), nil
}
