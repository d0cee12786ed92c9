// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kortschak/hnsm/bgzf"
)

func runGz(args []string) int {
	fs := flagSet("gz", "<input> [-o out]")
	out := fs.String("o", "", "output path (default: <input>.gz)")
	level := fs.Int("level", -1, "compression level (-1 default, 0 none, 9 best)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	in := fs.Arg(0)

	outPath := *out
	if outPath == "" {
		outPath = in + ".gz"
	}

	src, err := os.Open(in)
	if err != nil {
		log.Print(err)
		return 2
	}
	defer src.Close()

	dst, err := os.Create(outPath)
	if err != nil {
		log.Print(err)
		return 2
	}
	defer dst.Close()

	bw := bufio.NewWriter(dst)
	w := bgzf.NewWriter(bw, *level)
	if _, err := io.Copy(w, src); err != nil {
		log.Print(err)
		return 2
	}
	if err := w.Close(); err != nil {
		log.Print(err)
		return 2
	}
	if err := bw.Flush(); err != nil {
		log.Print(err)
		return 2
	}

	idxPath := outPath + ".gzi"
	idx, err := os.Create(idxPath)
	if err != nil {
		log.Print(err)
		return 2
	}
	defer idx.Close()
	bwi := bufio.NewWriter(idx)
	for _, b := range w.Index() {
		fmt.Fprintf(bwi, "%d\t%d\n", b.Compressed, b.Uncompressed)
	}
	if err := bwi.Flush(); err != nil {
		log.Print(err)
		return 2
	}

	return 0
}
