// Package beam decodes token sequences from an
// autoregressive decoder using beam search.
package beam

import (
	"context"
	"sort"

	"github.com/speechrecog/anylas"
	"github.com/unixpickle/essentials"
)

// A Searcher runs beam searches with a fixed Config.
//
// A Searcher holds no per-search state, so it may be
// used from multiple goroutines at once.
type Searcher struct {
	Config Config
}

// NewSearcher validates the config and creates a
// Searcher.
func NewSearcher(cfg Config) (*Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, essentials.AddCtx("new searcher", err)
	}
	return &Searcher{Config: cfg}, nil
}

// Decode finds likely token sequences for an encoded
// utterance.
//
// The result always contains Config.Width hypotheses,
// sorted by FinalScore from best to worst.
// Hypotheses with the same token sequence are only
// returned more than once if there are fewer than Width
// distinct sequences.
//
// Length normalization only affects the final ranking.
// Pruning between steps uses raw scores.
func (s *Searcher) Decode(ctx context.Context, d anylas.Decoder, state anylas.State,
	enc *anylas.Encoded) ([]*Hypothesis, error) {
	cfg := &s.Config
	if err := cfg.Validate(); err != nil {
		return nil, essentials.AddCtx("beam search", err)
	}

	beam := []*Hypothesis{newRoot(cfg.SOS, state)}
	if cfg.Init == Replicate {
		for len(beam) < cfg.Width {
			beam = append(beam, beam[0])
		}
	}

	for step := 1; step <= cfg.MaxLength && !allDone(beam); step++ {
		if err := ctx.Err(); err != nil {
			return nil, &StepError{Step: step, Hypothesis: -1, Err: err}
		}
		pool, results, err := s.expand(step, d, beam, enc)
		if err != nil {
			return nil, err
		}
		beam = s.prune(beam, pool, results)
	}

	return s.rank(beam), nil
}

// A candidate is an entry in the pool of possible
// hypotheses for the next step.
type candidate struct {
	Parent int

	// Token is -1 for done hypotheses which are carried
	// forward unchanged.
	Token int

	Score   float64
	LogProb float64
}

func (s *Searcher) expand(step int, d anylas.Decoder, beam []*Hypothesis,
	enc *anylas.Encoded) ([]*candidate, []*anylas.StepResult, error) {
	cfg := &s.Config
	results := make([]*anylas.StepResult, len(beam))
	var pool, carried []*candidate
	for i, h := range beam {
		if h.Done() {
			carried = append(carried, &candidate{Parent: i, Token: -1, Score: h.Score})
			continue
		}
		res, err := d.Step(h.Last(), h.State, enc)
		if err != nil {
			return nil, nil, &StepError{Step: step, Hypothesis: i, Err: err}
		}
		logProbs, err := stepDistribution(res.LogProbs, cfg.VocabSize)
		if err != nil {
			return nil, nil, &StepError{Step: step, Hypothesis: i, Err: err}
		}
		results[i] = res
		for token, lp := range logProbs {
			pool = append(pool, &candidate{
				Parent:  i,
				Token:   token,
				Score:   h.Score + lp,
				LogProb: lp,
			})
		}
	}
	return append(pool, carried...), results, nil
}

// prune selects the next beam from the candidate pool.
//
// Candidates which repeat an already selected token
// sequence are only used if there are not enough distinct
// candidates to fill the beam.
func (s *Searcher) prune(beam []*Hypothesis, pool []*candidate,
	results []*anylas.StepResult) []*Hypothesis {
	cfg := &s.Config
	sort.Stable(candidateSorter(pool))

	var selected, deferred []*candidate
	seen := map[string]bool{}
	for _, c := range pool {
		if len(selected) == cfg.Width {
			break
		}
		key := beam[c.Parent].key(c.Token)
		if seen[key] {
			deferred = append(deferred, c)
			continue
		}
		seen[key] = true
		selected = append(selected, c)
	}
	for i := 0; len(selected) < cfg.Width && i < len(deferred); i++ {
		selected = append(selected, deferred[i])
	}

	next := make([]*Hypothesis, len(selected))
	for i, c := range selected {
		parent := beam[c.Parent]
		if c.Token < 0 {
			next[i] = parent
		} else {
			next[i] = parent.extend(c.Token, c.LogProb, results[c.Parent], cfg)
		}
	}
	return next
}

// rank removes duplicate sequences and sorts by
// FinalScore.
// If there are too few distinct hypotheses, copies of the
// best ones are added until the beam is full.
func (s *Searcher) rank(beam []*Hypothesis) []*Hypothesis {
	cfg := &s.Config
	var distinct []*Hypothesis
	seen := map[string]bool{}
	for _, h := range beam {
		key := h.key(-1)
		if !seen[key] {
			seen[key] = true
			distinct = append(distinct, h.withFinalScore(cfg))
		}
	}
	sort.Stable(hypothesisSorter(distinct))

	res := make([]*Hypothesis, cfg.Width)
	for i := range res {
		res[i] = distinct[i%len(distinct)]
	}
	sort.Stable(hypothesisSorter(res))
	return res
}

func allDone(beam []*Hypothesis) bool {
	for _, h := range beam {
		if !h.Done() {
			return false
		}
	}
	return true
}

// A candidateSorter sorts candidates from most to least
// probable.
type candidateSorter []*candidate

func (c candidateSorter) Len() int {
	return len(c)
}

func (c candidateSorter) Swap(i, j int) {
	c[i], c[j] = c[j], c[i]
}

func (c candidateSorter) Less(i, j int) bool {
	return c[i].Score > c[j].Score
}

// A hypothesisSorter sorts hypotheses by FinalScore from
// best to worst.
type hypothesisSorter []*Hypothesis

func (h hypothesisSorter) Len() int {
	return len(h)
}

func (h hypothesisSorter) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h hypothesisSorter) Less(i, j int) bool {
	return h[i].FinalScore > h[j].FinalScore
}
