package anylas

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var a Attention
	serializer.RegisterTypedDeserializer(a.SerializerType(), DeserializeAttention)
}

// Attention implements additive attention.
//
// The compatibility of encoder row h and query s is
//
//     u . tanh(EncProj(h) + StateProj(s))
//
// and the weights are a softmax of the compatibilities
// over the valid encoder rows.
type Attention struct {
	EncProj   *anynet.FC
	StateProj *anynet.FC
	Score     *anydiff.Var
}

// DeserializeAttention deserializes an Attention.
func DeserializeAttention(d []byte) (*Attention, error) {
	var res Attention
	var score *anyvecsave.S
	if err := serializer.DeserializeAny(d, &res.EncProj, &res.StateProj, &score); err != nil {
		return nil, essentials.AddCtx("deserialize Attention", err)
	}
	res.Score = anydiff.NewVar(score.Vector)
	if res.EncProj.OutCount != res.StateProj.OutCount ||
		res.Score.Vector.Len() != res.EncProj.OutCount {
		return nil, essentials.AddCtx("deserialize Attention",
			fmt.Errorf("%w: inconsistent hidden sizes", ErrShapeMismatch))
	}
	return &res, nil
}

// NewAttention creates a randomized Attention.
func NewAttention(c anyvec.Creator, encDim, stateDim, hidden int) *Attention {
	res := &Attention{
		EncProj:   anynet.NewFC(c, encDim, hidden),
		StateProj: anynet.NewFC(c, stateDim, hidden),
		Score:     anydiff.NewVar(c.MakeVector(hidden)),
	}
	anyvec.Rand(res.Score.Vector, anyvec.Normal, nil)
	return res
}

// Attend computes the attention weights for a query and
// the resulting context vector.
//
// There is one weight per timestep of enc, and the
// weights of padded timesteps are exactly zero.
// If enc has no valid timesteps, the context and the
// weights are all zero.
func (a *Attention) Attend(enc *Encoded, query anyvec.Vector) (context,
	weights anyvec.Vector) {
	if enc.Dim != a.EncProj.InCount || query.Len() != a.StateProj.InCount {
		panic(fmt.Sprintf("attention expects %d-dim rows and %d-dim queries, got %d and %d",
			a.EncProj.InCount, a.StateProj.InCount, enc.Dim, query.Len()))
	}
	c := query.Creator()
	if enc.Length == 0 {
		return c.MakeVector(enc.Dim), c.MakeVector(enc.Steps)
	}

	valid := enc.Valid()
	keys := a.EncProj.Apply(anydiff.NewConst(valid), enc.Length).Output().Copy()
	anyvec.AddRepeated(keys, a.StateProj.Apply(anydiff.NewConst(query), 1).Output())
	anyvec.Tanh(keys)
	keyMat := &anyvec.Matrix{Data: keys, Rows: enc.Length, Cols: a.Score.Vector.Len()}
	probs := keyMat.Apply(a.Score.Vector)
	anyvec.LogSoftmax(probs, 0)
	anyvec.Exp(probs)

	validMat := &anyvec.Matrix{Data: valid, Rows: enc.Length, Cols: enc.Dim}
	probMat := &anyvec.Matrix{Data: probs, Rows: enc.Length, Cols: 1}
	ctxMat := &anyvec.Matrix{Data: c.MakeVector(enc.Dim), Rows: enc.Dim, Cols: 1}
	ctxMat.Product(true, false, c.MakeNumeric(1), validMat, probMat, c.MakeNumeric(0))

	if pad := enc.Steps - enc.Length; pad > 0 {
		weights = c.Concat(probs, c.MakeVector(pad))
	} else {
		weights = probs
	}
	return ctxMat.Data, weights
}

// Parameters returns the parameters of the projections
// and the score vector.
func (a *Attention) Parameters() []*anydiff.Var {
	return append(anynet.AllParameters(a.EncProj, a.StateProj), a.Score)
}

// SerializerType returns the unique ID used to serialize
// an Attention with the serializer package.
func (a *Attention) SerializerType() string {
	return "github.com/speechrecog/anylas.Attention"
}

// Serialize serializes the Attention.
func (a *Attention) Serialize() ([]byte, error) {
	return serializer.SerializeAny(a.EncProj, a.StateProj,
		&anyvecsave.S{Vector: a.Score.Vector})
}
