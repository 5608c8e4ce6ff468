package beam

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sync"

	"github.com/speechrecog/anylas"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

// funcDecoder is a Decoder whose state is the list of
// tokens fed to it so far.
type funcDecoder struct {
	// Dist computes a probability distribution given the
	// tokens after SOS (including the latest token) and
	// the encoded utterance.
	Dist func(prefix []int, enc *anylas.Encoded) []float64

	lock     sync.Mutex
	maxSteps int
	calls    int
}

func (f *funcDecoder) Start() anylas.State {
	return []int(nil)
}

func (f *funcDecoder) Step(token int, s anylas.State, enc *anylas.Encoded) (*anylas.StepResult,
	error) {
	prev := s.([]int)
	prefix := append(append([]int{}, prev...), token)

	f.lock.Lock()
	f.calls++
	if len(prefix) > f.maxSteps {
		f.maxSteps = len(prefix)
	}
	f.lock.Unlock()

	probs := f.Dist(prefix[1:], enc)
	logProbs := make([]float64, len(probs))
	for i, p := range probs {
		logProbs[i] = math.Log(p)
	}
	c := anyvec64.DefaultCreator{}
	attention := c.MakeVector(enc.Steps)
	if enc.Length > 0 {
		peak := len(prefix) % enc.Length
		attention.Slice(peak, peak+1).SetData([]float64{1})
	}
	return &anylas.StepResult{
		LogProbs:  anyvec.Make(c, logProbs),
		State:     prefix,
		Attention: attention,
	}, nil
}

// randomDist produces a fixed pseudo-random distribution
// for every prefix.
func randomDist(vocabSize int, seed int64) func([]int, *anylas.Encoded) []float64 {
	return func(prefix []int, enc *anylas.Encoded) []float64 {
		h := fnv.New64a()
		for _, t := range prefix {
			h.Write([]byte{byte(t), byte(t >> 8)})
		}
		h.Write([]byte{byte(enc.Length)})
		gen := rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
		res := make([]float64, vocabSize)
		var sum float64
		for i := range res {
			res[i] = math.Exp(gen.NormFloat64() * 2)
			sum += res[i]
		}
		for i := range res {
			res[i] /= sum
		}
		return res
	}
}

// fixedDist returns the same distribution for a given
// number of emitted tokens, using the last table entry
// for longer prefixes.
func fixedDist(table ...[]float64) func([]int, *anylas.Encoded) []float64 {
	return func(prefix []int, enc *anylas.Encoded) []float64 {
		idx := len(prefix)
		if idx >= len(table) {
			idx = len(table) - 1
		}
		return table[idx]
	}
}

func testEncoded(length, steps int) *anylas.Encoded {
	c := anyvec64.DefaultCreator{}
	return &anylas.Encoded{
		Data:   c.MakeVector(steps * 2),
		Steps:  steps,
		Dim:    2,
		Length: length,
	}
}
