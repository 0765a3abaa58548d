package xiter

import (
	"iter"
)

// Enumerate pairs every value of seq with its zero-based position.
func Enumerate[T any](seq iter.Seq[T]) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		idx := 0
		for v := range seq {
			if !yield(idx, v) {
				return
			}

			idx++
		}
	}
}

// Tee calls fn for every value of seq before passing it through.
func Tee[T any](seq iter.Seq[T], fn func(T)) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range seq {
			fn(v)
			if !yield(v) {
				return
			}
		}
	}
}
