// Package ring provides a fixed-capacity, concurrency-safe ring buffer.
package ring

import "sync"

// Buffer keeps the last size values. Push evicts the oldest value
// atomically once full.
type Buffer[T any] struct {
	mu     sync.RWMutex
	values []T
	size   int
	index  int
	filled bool
}

// New creates a buffer holding up to size values. size < 1 is treated as 1.
func New[T any](size int) *Buffer[T] {
	if size < 1 {
		size = 1
	}
	return &Buffer[T]{
		values: make([]T, size),
		size:   size,
	}
}

// Push appends v, evicting the oldest value when full.
func (r *Buffer[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[r.index] = v
	r.index = (r.index + 1) % r.size
	if r.index == 0 {
		r.filled = true
	}
}

// Len returns the number of stored values.
func (r *Buffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.len()
}

func (r *Buffer[T]) len() int {
	if r.filled {
		return r.size
	}
	return r.index
}

// Cap returns the capacity.
func (r *Buffer[T]) Cap() int {
	return r.size
}

// Values returns a copy of the stored values, oldest first.
func (r *Buffer[T]) Values() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]T, 0, r.len())
	if r.filled {
		result = append(result, r.values[r.index:]...)
	}
	result = append(result, r.values[:r.index]...)
	return result
}

// Recent returns up to limit values, newest first. limit <= 0 returns all.
func (r *Buffer[T]) Recent(limit int) []T {
	values := r.Values()
	if limit <= 0 || limit > len(values) {
		limit = len(values)
	}
	out := make([]T, limit)
	for i := 0; i < limit; i++ {
		out[i] = values[len(values)-1-i]
	}
	return out
}

// Last returns the newest value.
func (r *Buffer[T]) Last() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var zero T
	if r.len() == 0 {
		return zero, false
	}
	idx := (r.index - 1 + r.size) % r.size
	return r.values[idx], true
}
