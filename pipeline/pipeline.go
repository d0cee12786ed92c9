// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline provides a generic producer/worker/writer
// scaffolding: a single producer tags units with a monotonic id, a
// fixed pool of workers computes results concurrently, and a single
// writer restores strict id order before handing results onward.
package pipeline

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrWorkerFailed is wrapped around the first worker error seen by a
// run, which aborts the pipeline and is returned from Run.
var ErrWorkerFailed = errors.New("pipeline: worker failed")

// unit is one item of work tagged with its position in producer
// order.
type unit struct {
	id   uint64
	work any
}

// result is a computed unit, still tagged with its producer-assigned
// id so the writer can restore order.
type result struct {
	id    uint64
	value any
	err   error
}

// Producer yields units in order by calling yield for each one. It
// returns when input is exhausted, or propagates a read/parse error.
// yield reports false once the pipeline is shutting down, at which
// point the producer should stop as soon as practical.
type Producer func(yield func(unit any) bool) error

// Worker computes the result for a single unit of work. Worker is
// called concurrently from multiple goroutines and must not share
// mutable state across calls without its own synchronization.
type Worker func(unit any) (any, error)

// Writer consumes results strictly in producer order. It is called
// from a single goroutine, so it may safely hold exclusive access to
// an output stream.
type Writer func(id uint64, value any) error

// Run drives p through workers-many concurrent Worker invocations and
// delivers results to w in strict producer order (spec §4.7, §5).
//
// The producer and writer each run on their own goroutine; workers
// form a shared pool fed by a channel of capacity workers*2, giving
// bounded backpressure without serializing computation. The first
// error — from the producer, a worker, or the writer — cancels the
// run: remaining in-flight units are drained without being written,
// and Run returns that error (worker errors wrapped in
// ErrWorkerFailed).
func Run(ctx context.Context, p Producer, worker Worker, workers int, w Writer) error {
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan unit, workers*2)
	out := make(chan result, workers*2)

	producerErr := make(chan error, 1)
	go func() {
		defer close(in)
		var nextID uint64
		err := p(func(work any) bool {
			id := nextID
			nextID++
			select {
			case in <- unit{id: id, work: work}:
				return true
			case <-ctx.Done():
				return false
			}
		})
		producerErr <- err
	}()

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for u := range in {
				select {
				case <-ctx.Done():
					return
				default:
				}
				v, err := worker(u.work)
				select {
				case out <- result{id: u.id, value: v, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	var firstErr error
	pq := &resultHeap{}
	heap.Init(pq)
	var nextWant uint64
	for r := range out {
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: %w", ErrWorkerFailed, r.err)
			cancel()
		}
		heap.Push(pq, r)
		for pq.Len() > 0 && (*pq)[0].id == nextWant {
			top := heap.Pop(pq).(result)
			if firstErr == nil && top.err == nil {
				if err := w(top.id, top.value); err != nil {
					firstErr = err
					cancel()
				}
			}
			nextWant++
		}
	}

	if err := <-producerErr; err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// resultHeap is a min-heap of results ordered by id, used by the
// writer to buffer out-of-order completions until they can be emitted
// in strict producer order.
type resultHeap []result

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return h[i].id < h[j].id }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x any)        { *h = append(*h, x.(result)) }
func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
