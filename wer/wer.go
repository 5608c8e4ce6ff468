// Package wer computes edit distances and word (or
// character) error rates between transcriptions.
package wer

import (
	"errors"

	"github.com/unixpickle/essentials"
)

// ErrEmptyReference is returned when an error rate is
// requested for an empty reference.
var ErrEmptyReference = errors.New("empty reference")

// EditDistance computes the Levenshtein distance between
// a reference and a hypothesis, using unit costs for
// insertions, deletions, and substitutions.
//
// It also returns the length of the reference.
func EditDistance[T comparable](ref, hyp []T) (distance, refLen int) {
	// Only two rows of the (len(ref)+1) x (len(hyp)+1)
	// table are needed at a time.
	prev := make([]int, len(hyp)+1)
	cur := make([]int, len(hyp)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ref); i++ {
		cur[0] = i
		for j := 1; j <= len(hyp); j++ {
			sub := prev[j-1]
			if ref[i-1] != hyp[j-1] {
				sub++
			}
			cur[j] = essentials.MinInt(sub, prev[j]+1, cur[j-1]+1)
		}
		prev, cur = cur, prev
	}
	return prev[len(hyp)], len(ref)
}

// WER computes distance / len(ref).
func WER[T comparable](ref, hyp []T) (float64, error) {
	dist, refLen := EditDistance(ref, hyp)
	if refLen == 0 {
		return 0, essentials.AddCtx("word error rate", ErrEmptyReference)
	}
	return float64(dist) / float64(refLen), nil
}

// An Accumulator computes a corpus-level error rate,
// which is the total edit distance divided by the total
// reference length.
//
// The zero value is an empty Accumulator.
type Accumulator struct {
	Distance  int
	RefLength int
	Count     int
}

// Add adds a pair to the accumulator and returns its
// edit distance.
func Add[T comparable](a *Accumulator, ref, hyp []T) int {
	dist, refLen := EditDistance(ref, hyp)
	a.Distance += dist
	a.RefLength += refLen
	a.Count++
	return dist
}

// Rate returns the corpus-level error rate.
func (a *Accumulator) Rate() (float64, error) {
	if a.RefLength == 0 {
		return 0, essentials.AddCtx("word error rate", ErrEmptyReference)
	}
	return float64(a.Distance) / float64(a.RefLength), nil
}
