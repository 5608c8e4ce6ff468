package beam

import (
	"fmt"
	"math"

	"github.com/speechrecog/anylas/vocab"
	"github.com/unixpickle/anyvec"
)

// stepDistribution extracts a log-probability vector as
// float64 values and checks that it is usable.
func stepDistribution(v anyvec.Vector, vocabSize int) ([]float64, error) {
	if v == nil || v.Len() != vocabSize {
		var n int
		if v != nil {
			n = v.Len()
		}
		return nil, fmt.Errorf("%w: distribution has %d entries but vocab size is %d",
			vocab.ErrVocabularyMismatch, n, vocabSize)
	}
	var res []float64
	switch d := v.Data().(type) {
	case []float64:
		res = d
	case []float32:
		res = make([]float64, len(d))
		for i, x := range d {
			res[i] = float64(x)
		}
	default:
		res = v.Creator().Float64Slice(d)
	}
	for i, x := range res {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: log probability of token %d is %f",
				ErrNumericalInstability, i, x)
		}
	}
	return res, nil
}
