package repository

import (
	"container/list"
	"sync"

	"github.com/okian/scoreline/internal/domain/timeline"
)

// timelineCache keeps the most recently used timelines by match ID. Stored
// timelines never change, so only Delete has to evict.
type timelineCache struct {
	mu      sync.Mutex
	max     int
	order   *list.List // front is most recent
	entries map[string]*list.Element
}

type cacheEntry struct {
	id string
	tl *timeline.Timeline
}

func newTimelineCache(n int) *timelineCache {
	return &timelineCache{
		max:     n,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (c *timelineCache) get(id string) (*timeline.Timeline, bool) {
	if c.max < 1 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).tl, true
}

func (c *timelineCache) add(id string, tl *timeline.Timeline) {
	if c.max < 1 || tl == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[id]; ok {
		el.Value.(*cacheEntry).tl = tl
		c.order.MoveToFront(el)
		return
	}
	c.entries[id] = c.order.PushFront(&cacheEntry{id: id, tl: tl})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).id)
	}
}

func (c *timelineCache) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[id]; ok {
		c.order.Remove(el)
		delete(c.entries, id)
	}
}

func (c *timelineCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
