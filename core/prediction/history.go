package prediction

// History is a capped list. When an append pushes it past its capacity only
// the newest trimTo entries are kept.
type History[T any] struct {
	items    []T
	capacity int
	trimTo   int
}

// NewHistory returns an empty history. trimTo is clamped to [1, capacity].
func NewHistory[T any](capacity, trimTo int) *History[T] {
	if capacity < 1 {
		capacity = 1
	}
	if trimTo < 1 || trimTo > capacity {
		trimTo = capacity
	}
	return &History[T]{capacity: capacity, trimTo: trimTo}
}

// Append adds entries and trims when over capacity.
func (h *History[T]) Append(v ...T) {
	h.items = append(h.items, v...)
	if len(h.items) > h.capacity {
		h.items = append([]T(nil), h.items[len(h.items)-h.trimTo:]...)
	}
}

func (h *History[T]) Len() int { return len(h.items) }

func (h *History[T]) Cap() int { return h.capacity }

// Items returns a copy of the entries, oldest first.
func (h *History[T]) Items() []T {
	return append([]T(nil), h.items...)
}

func (h *History[T]) Reset() { h.items = nil }
