package tts

import (
	"container/list"
	"sync"
)

// History keeps the most recent syntheses, newest first.
// Inserting into a full history evicts the oldest entry. Lookups never change
// the order: recency is insertion recency, not access recency.
type History struct {
	capacity int

	items   map[uint64]*list.Element
	entries *list.List

	mu sync.RWMutex

	stats HistoryStats
}

// HistoryStats reports history activity.
type HistoryStats struct {
	Capacity  int
	Len       int
	Inserts   int64
	Evictions int64
}

// NewHistory creates a history holding at most capacity entries.
// A capacity below one falls back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		capacity: capacity,
		items:    make(map[uint64]*list.Element),
		entries:  list.New(),
	}
}

// InsertFront adds entry as the newest element. If the history was full the
// oldest entry is removed and returned.
func (h *History) InsertFront(entry HistoryEntry) (evicted HistoryEntry, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// IDs stay pairwise distinct.
	if elem, exists := h.items[entry.ID]; exists {
		h.removeElement(elem)
	}

	h.items[entry.ID] = h.entries.PushFront(entry)
	h.stats.Inserts++

	if h.entries.Len() > h.capacity {
		evicted = h.evictOldest()
		return evicted, true
	}
	return HistoryEntry{}, false
}

// Get returns the entry with the given id.
func (h *History) Get(id uint64) (HistoryEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	elem, ok := h.items[id]
	if !ok {
		return HistoryEntry{}, false
	}
	return elem.Value.(HistoryEntry), true
}

// List returns the entries newest first. The returned slice is a copy.
func (h *History) List() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]HistoryEntry, 0, h.entries.Len())
	for e := h.entries.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(HistoryEntry))
	}
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entries.Len()
}

// Capacity returns the maximum number of entries.
func (h *History) Capacity() int {
	return h.capacity
}

// Clear removes all entries.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = make(map[uint64]*list.Element)
	h.entries.Init()
}

// Stats returns history statistics.
func (h *History) Stats() HistoryStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := h.stats
	stats.Capacity = h.capacity
	stats.Len = h.entries.Len()
	return stats
}

// evictOldest removes the tail. Caller must hold the lock.
func (h *History) evictOldest() HistoryEntry {
	elem := h.entries.Back()
	if elem == nil {
		return HistoryEntry{}
	}
	entry := h.removeElement(elem)
	h.stats.Evictions++
	return entry
}

// removeElement removes elem from both indexes. Caller must hold the lock.
func (h *History) removeElement(elem *list.Element) HistoryEntry {
	entry := h.entries.Remove(elem).(HistoryEntry)
	delete(h.items, entry.ID)
	return entry
}
