// Package dedupe tracks timeline digests so identical imports map to one match.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Index remembers which match was stored for a given timeline digest.
type Index interface {
	// SeenAndRecord atomically checks whether digest is known. If it is, the
	// match id recorded for it is returned with seen == true. Otherwise id is
	// recorded for digest and seen is false.
	SeenAndRecord(ctx context.Context, digest, id string) (existing string, seen bool)

	// Forget removes digest, e.g. when the match it pointed at was deleted or
	// could not be stored.
	Forget(ctx context.Context, digest string)

	Size() int64
}

// node is one entry in the insertion-ordered list.
type node struct {
	digest     string
	id         string
	prev, next *node
}

func (n *node) reset() {
	n.digest = ""
	n.id = ""
	n.prev = nil
	n.next = nil
}

// inMemoryIndex implements Index with a map and an insertion-ordered doubly
// linked list. head is the newest entry, tail the oldest.
type inMemoryIndex struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node
	tail     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryIndex creates a new in-memory digest index.
func NewInMemoryIndex(opts ...Option) Index {
	d := &inMemoryIndex{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.entries = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return d
}

func (d *inMemoryIndex) SeenAndRecord(_ context.Context, digest, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.entries[digest]; ok {
		return n.id, true
	}

	if d.maxSize > 0 && len(d.entries) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.digest = digest
	n.id = id
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.entries[digest] = n
	d.size.Add(1)
	return id, false
}

func (d *inMemoryIndex) Forget(_ context.Context, digest string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.entries[digest]; ok {
		d.unlink(n)
	}
}

// evictOldest drops the tail entry. Must be called with d.mu held.
func (d *inMemoryIndex) evictOldest() {
	if d.tail != nil {
		d.unlink(d.tail)
	}
}

// unlink removes n from the list and the map. Must be called with d.mu held.
func (d *inMemoryIndex) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	delete(d.entries, n.digest)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

func (d *inMemoryIndex) Size() int64 {
	return d.size.Load()
}
