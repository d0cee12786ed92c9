// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seqcache

import (
	"container/list"
	"sync"
)

// LRU is a fixed-capacity, least-recently-used cache of whole decoded
// sequences keyed by record name. A single mutex covers both the
// lookup map and the recency list, as the spec's concurrency model
// requires (§5): the critical section is a map lookup, a list splice
// and, on a miss, an insertion plus optional eviction — short enough
// that a plain Mutex, rather than a RWMutex, is adequate.
type LRU struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type entry struct {
	name string
	seq  []byte
}

// NewLRU returns an LRU cache holding at most capacity sequences.
// Capacity must be at least 1.
func NewLRU(capacity int) *LRU {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached sequence for name, if present, and marks it
// most-recently-used.
func (c *LRU) Get(name string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[name]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).seq, true
}

// Add inserts or refreshes the cached sequence for name, evicting the
// least-recently-used entry if capacity is exceeded.
func (c *LRU) Add(name string, seq []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[name]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*entry).seq = seq
		return
	}
	el := c.ll.PushFront(&entry{name: name, seq: seq})
	c.items[name] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).name)
		}
	}
}

// Len reports the number of sequences currently cached.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
