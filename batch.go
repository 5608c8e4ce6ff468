package anylas

import (
	"fmt"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// A Batch is a padded batch of sequences.
//
// Data is a row-major Size x Steps x Dim tensor.
// Timesteps at or beyond an example's length are padding
// and are set to zero.
type Batch struct {
	Data    anyvec.Vector
	Size    int
	Steps   int
	Dim     int
	Lengths []int
}

// NewBatch pads the sequences and packs them into a
// Batch.
// Every vector must have exactly dim components.
func NewBatch(c anyvec.Creator, seqs [][]anyvec.Vector, dim int) (*Batch, error) {
	res := &Batch{Size: len(seqs), Dim: dim, Lengths: make([]int, len(seqs))}
	for i, seq := range seqs {
		res.Lengths[i] = len(seq)
		res.Steps = essentials.MaxInt(res.Steps, len(seq))
		for t, v := range seq {
			if v.Len() != dim {
				return nil, fmt.Errorf("%w: example %d timestep %d has %d features "+
					"(expected %d)", ErrShapeMismatch, i, t, v.Len(), dim)
			}
		}
	}
	var parts []anyvec.Vector
	for _, seq := range seqs {
		parts = append(parts, seq...)
		if pad := res.Steps - len(seq); pad > 0 && dim > 0 {
			parts = append(parts, c.MakeVector(pad*dim))
		}
	}
	if len(parts) == 0 {
		res.Data = c.MakeVector(0)
	} else {
		res.Data = c.Concat(parts...)
	}
	return res, nil
}

// Validate checks that the dimensions are consistent.
func (b *Batch) Validate() error {
	if b.Size != len(b.Lengths) {
		return fmt.Errorf("%w: %d lengths for batch of %d", ErrShapeMismatch,
			len(b.Lengths), b.Size)
	}
	if b.Data.Len() != b.Size*b.Steps*b.Dim {
		return fmt.Errorf("%w: data length %d is not %dx%dx%d", ErrShapeMismatch,
			b.Data.Len(), b.Size, b.Steps, b.Dim)
	}
	for i, l := range b.Lengths {
		if l < 0 || l > b.Steps {
			return fmt.Errorf("%w: example %d has length %d (max %d)", ErrShapeMismatch,
				i, l, b.Steps)
		}
	}
	return nil
}

// Example returns a view of the i-th example.
// The view shares memory with the batch.
func (b *Batch) Example(i int) *Encoded {
	size := b.Steps * b.Dim
	return &Encoded{
		Data:   b.Data.Slice(i*size, (i+1)*size),
		Steps:  b.Steps,
		Dim:    b.Dim,
		Length: b.Lengths[i],
	}
}

// Sequence returns the valid timesteps of the i-th
// example as separate vectors.
func (b *Batch) Sequence(i int) []anyvec.Vector {
	ex := b.Example(i)
	res := make([]anyvec.Vector, ex.Length)
	for t := range res {
		res[t] = ex.Row(t)
	}
	return res
}

// Encoded is a single padded sequence, such as one
// utterance of encoder output.
type Encoded struct {
	// Data is a row-major Steps x Dim matrix.
	Data anyvec.Vector

	Steps int
	Dim   int

	// Length is the number of valid timesteps.
	Length int
}

// Row returns the t-th timestep.
func (e *Encoded) Row(t int) anyvec.Vector {
	return e.Data.Slice(t*e.Dim, (t+1)*e.Dim)
}

// Valid returns the Length x Dim matrix of valid
// timesteps.
func (e *Encoded) Valid() anyvec.Vector {
	return e.Data.Slice(0, e.Length*e.Dim)
}

// Mask computes which timesteps of a padded batch are
// valid.
// The result has one row per length and padded columns.
func Mask(lengths []int, padded int) [][]bool {
	res := make([][]bool, len(lengths))
	for i, l := range lengths {
		res[i] = make([]bool, padded)
		for t := 0; t < l && t < padded; t++ {
			res[i][t] = true
		}
	}
	return res
}
