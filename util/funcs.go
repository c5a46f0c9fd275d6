package util

import (
	"iter"
)

// Reverse iterates slice from its last element to its first
func Reverse[A any](slice []A) iter.Seq[A] {
	return func(yield func(A) bool) {
		for i := len(slice) - 1; i >= 0; i-- {
			if !yield(slice[i]) {
				return
			}
		}
	}
}

// Map applies f to every element of slice
func Map[A, B any](slice []A, f func(A) B) []B {
	if slice == nil {
		return nil
	}
	out := make([]B, len(slice))
	for i, a := range slice {
		out[i] = f(a)
	}
	return out
}
