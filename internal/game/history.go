package game

import "sync"

// History is a fixed-capacity ring of past crash points. Oldest entries
// are evicted first. Append only happens from the engine loop; reads come
// from any goroutine.
type History struct {
	mu       sync.RWMutex
	entries  []HistoryEntry
	capacity int
	next     int
	size     int
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		entries:  make([]HistoryEntry, capacity),
		capacity: capacity,
	}
}

// Append records a completed round, evicting the oldest entry at capacity.
func (h *History) Append(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = entry
	h.next = (h.next + 1) % h.capacity
	if h.size < h.capacity {
		h.size++
	}
}

// Recent returns the last min(n, size) entries, most recent first. Each
// call produces a fresh slice; callers never share cursor state.
func (h *History) Recent(n int) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > h.size {
		n = h.size
	}
	if n <= 0 {
		return []HistoryEntry{}
	}

	out := make([]HistoryEntry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + h.capacity) % h.capacity
		out = append(out, h.entries[idx])
	}
	return out
}

func (h *History) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}
