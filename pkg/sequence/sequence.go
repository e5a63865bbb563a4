package sequence

import (
	"iter"
	"sort"
)

// Iterator is a lazy, chainable view over a sequence of T. Chained steps
// run only when the iterator is consumed.
type Iterator[T any] struct {
	seq iter.Seq[T]
}

// From creates an Iterator over a slice.
func From[T any](data []T) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for _, v := range data {
				if !yield(v) {
					return
				}
			}
		},
	}
}

// FromMap creates an Iterator over a map's values. Order is unspecified.
func FromMap[K comparable, V any](data map[K]V) *Iterator[V] {
	return &Iterator[V]{
		seq: func(yield func(V) bool) {
			for _, v := range data {
				if !yield(v) {
					return
				}
			}
		},
	}
}

// FromMapKeys creates an Iterator over a map's keys. Order is unspecified.
func FromMapKeys[K comparable, V any](data map[K]V) *Iterator[K] {
	return &Iterator[K]{
		seq: func(yield func(K) bool) {
			for k := range data {
				if !yield(k) {
					return
				}
			}
		},
	}
}

// FromChannel creates an Iterator that drains a channel until it closes.
func FromChannel[T any](ch <-chan T) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for v := range ch {
				if !yield(v) {
					return
				}
			}
		},
	}
}

// Seq returns the underlying sequence, for use with range-over-func.
func (i *Iterator[T]) Seq() iter.Seq[T] {
	return i.seq
}

// Collect exhausts the iterator into a slice.
func (i *Iterator[T]) Collect() []T {
	var out []T
	for v := range i.seq {
		out = append(out, v)
	}
	return out
}

// Filter keeps only elements the predicate accepts.
func (i *Iterator[T]) Filter(pred func(T) bool) *Iterator[T] {
	src := i.seq
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for v := range src {
				if pred(v) && !yield(v) {
					return
				}
			}
		},
	}
}

// Each applies an action to every element as it passes through.
func (i *Iterator[T]) Each(action func(T)) *Iterator[T] {
	src := i.seq
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for v := range src {
				action(v)
				if !yield(v) {
					return
				}
			}
		},
	}
}

// Count exhausts the iterator and returns the number of elements.
func (i *Iterator[T]) Count() int {
	n := 0
	for range i.seq {
		n++
	}
	return n
}

// Sorted collects, sorts with less, and returns an Iterator over the
// result.
func (i *Iterator[T]) Sorted(less func(a, b T) bool) *Iterator[T] {
	data := i.Collect()
	sort.Slice(data, func(a, b int) bool { return less(data[a], data[b]) })
	return From(data)
}
