package beam

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/speechrecog/anylas"
	"github.com/unixpickle/anyvec"
)

// A Reason indicates why a hypothesis stopped growing.
type Reason int

const (
	NotDone Reason = iota
	EOS
	MaxLength
)

func (r Reason) String() string {
	switch r {
	case NotDone:
		return "not done"
	case EOS:
		return "EOS"
	case MaxLength:
		return "max length"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// A Hypothesis is a candidate token sequence.
//
// Hypotheses are never modified once they are created.
// Extending a hypothesis creates a new one which shares
// nothing mutable with its parent.
type Hypothesis struct {
	// Tokens always starts with SOS.
	Tokens []int

	// Score is the sum of the log probabilities of every
	// token after SOS.
	Score float64

	// StepScores stores the log probability of each
	// token after SOS.
	StepScores []float64

	// FinalScore is the length-normalized ranking score.
	// It is only set on hypotheses returned by a search.
	FinalScore float64

	// State is the decoder state after the last token.
	State anylas.State

	// Attention stores the attention weights used to
	// produce each token after SOS.
	Attention []anyvec.Vector

	Reason Reason
}

func newRoot(sos int, state anylas.State) *Hypothesis {
	return &Hypothesis{Tokens: []int{sos}, State: state}
}

// Done returns true if the hypothesis has terminated.
func (h *Hypothesis) Done() bool {
	return h.Reason != NotDone
}

// Len returns the number of tokens after SOS.
func (h *Hypothesis) Len() int {
	return len(h.Tokens) - 1
}

// Last returns the most recent token.
func (h *Hypothesis) Last() int {
	return h.Tokens[len(h.Tokens)-1]
}

func (h *Hypothesis) extend(token int, logProb float64, res *anylas.StepResult,
	cfg *Config) *Hypothesis {
	n := len(h.Tokens)
	child := &Hypothesis{
		Tokens:     append(append(make([]int, 0, n+1), h.Tokens...), token),
		Score:      h.Score + logProb,
		StepScores: append(append(make([]float64, 0, n), h.StepScores...), logProb),
		State:      res.State,
		Attention:  append(append(make([]anyvec.Vector, 0, n), h.Attention...), res.Attention),
	}
	if token == cfg.EOS {
		child.Reason = EOS
	} else if child.Len() >= cfg.MaxLength {
		child.Reason = MaxLength
	}
	return child
}

// key identifies the token sequence h would have after
// appending next, or h's own sequence if next < 0.
func (h *Hypothesis) key(next int) string {
	var b strings.Builder
	for _, t := range h.Tokens {
		b.WriteString(strconv.Itoa(t))
		b.WriteByte(',')
	}
	if next >= 0 {
		b.WriteString(strconv.Itoa(next))
		b.WriteByte(',')
	}
	return b.String()
}

// withFinalScore returns a copy of h with FinalScore set.
// The copy shares its slices with h.
func (h *Hypothesis) withFinalScore(cfg *Config) *Hypothesis {
	res := *h
	res.FinalScore = cfg.Normalize(h.Score, h.Len())
	return &res
}
