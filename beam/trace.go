package beam

import (
	"fmt"
	"io"
	"os"

	"github.com/speechrecog/anylas/vocab"
	"github.com/unixpickle/anyvec"
)

// A Tracer prints step-by-step diagnostics for
// hypotheses.
type Tracer struct {
	// Writer to which traces are printed.
	// If nil, os.Stdout is used.
	Writer io.Writer

	// Vocab is used to print token strings.
	// If nil, token ids are printed.
	Vocab *vocab.Vocab

	ID string
}

// Trace prints one line per emitted token, including
// the log probability of the token and the position and
// weight of the largest attention weight.
func (t *Tracer) Trace(h *Hypothesis) {
	t.println(fmt.Sprintf("%d tokens, score %.4f, final %.4f, %v", h.Len(), h.Score,
		h.FinalScore, h.Reason))
	for i, token := range h.Tokens[1:] {
		line := fmt.Sprintf("step %d: %s logprob=%.4f", i+1, t.tokenName(token),
			h.StepScores[i])
		if i < len(h.Attention) && h.Attention[i] != nil && h.Attention[i].Len() > 0 {
			att := h.Attention[i]
			peak := anyvec.MaxIndex(att)
			weight := att.Creator().Float64(anyvec.Max(att))
			line += fmt.Sprintf(" attention=%d (%.3f)", peak, weight)
		}
		t.println(line)
	}
}

func (t *Tracer) tokenName(id int) string {
	if t.Vocab != nil {
		if s, err := t.Vocab.Token(id); err == nil {
			return fmt.Sprintf("%q", s)
		}
	}
	return fmt.Sprintf("#%d", id)
}

func (t *Tracer) println(line string) {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	if t.ID != "" {
		fmt.Fprintln(w, "Trace ("+t.ID+"):", line)
	} else {
		fmt.Fprintln(w, line)
	}
}
