package internal

import (
	"iter"
	"maps"
	"slices"
)

// Defines chains several define sequences; later sequences override
// earlier ones when collected with maps.Collect.
func Defines(seqs ...iter.Seq2[string, string]) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, seq := range seqs {
			for name, value := range seq {
				if !yield(name, value) {
					return // Stop if the consumer stops
				}
			}
		}
	}
}

// Sorted iterates over a define map in name order.
func Sorted(defs map[string]string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, name := range slices.Sorted(maps.Keys(defs)) {
			if !yield(name, defs[name]) {
				return
			}
		}
	}
}
