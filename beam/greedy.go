package beam

import (
	"context"

	"github.com/speechrecog/anylas"
	"github.com/unixpickle/essentials"
)

// Greedy decodes by always choosing the most likely next
// token.
//
// Ties go to the lowest token id.
// The Width and Init fields of cfg are ignored.
func Greedy(ctx context.Context, d anylas.Decoder, state anylas.State, enc *anylas.Encoded,
	cfg Config) (*Hypothesis, error) {
	cfg.Width = 1
	if err := cfg.Validate(); err != nil {
		return nil, essentials.AddCtx("greedy search", err)
	}
	h := newRoot(cfg.SOS, state)
	for step := 1; !h.Done(); step++ {
		if err := ctx.Err(); err != nil {
			return nil, &StepError{Step: step, Hypothesis: -1, Err: err}
		}
		res, err := d.Step(h.Last(), h.State, enc)
		if err != nil {
			return nil, &StepError{Step: step, Hypothesis: 0, Err: err}
		}
		logProbs, err := stepDistribution(res.LogProbs, cfg.VocabSize)
		if err != nil {
			return nil, &StepError{Step: step, Hypothesis: 0, Err: err}
		}
		best := 0
		for i, x := range logProbs {
			if x > logProbs[best] {
				best = i
			}
		}
		h = h.extend(best, logProbs[best], res, &cfg)
	}
	return h.withFinalScore(&cfg), nil
}
