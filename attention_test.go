package anylas

import (
	"math"
	"testing"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestAttentionWeights(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	attn := NewAttention(c, 3, 4, 5)

	enc := &Encoded{Data: c.MakeVector(6 * 3), Steps: 6, Dim: 3, Length: 4}
	anyvec.Rand(enc.Data, anyvec.Normal, nil)
	query := c.MakeVector(4)
	anyvec.Rand(query, anyvec.Normal, nil)

	context, weights := attn.Attend(enc, query)
	if weights.Len() != 6 || context.Len() != 3 {
		t.Fatalf("bad lengths: weights %d, context %d", weights.Len(), context.Len())
	}
	w := weights.Data().([]float64)
	var sum float64
	for i, x := range w {
		if i >= enc.Length {
			if x != 0 {
				t.Errorf("padded weight %d should be zero but got %f", i, x)
			}
			continue
		}
		if x <= 0 || x > 1 {
			t.Errorf("weight %d out of range: %f", i, x)
		}
		sum += x
	}
	if math.Abs(sum-1) > 1e-8 {
		t.Errorf("weights should sum to 1 but got %f", sum)
	}

	expected := make([]float64, 3)
	data := enc.Data.Data().([]float64)
	for i := 0; i < enc.Length; i++ {
		for j := range expected {
			expected[j] += w[i] * data[i*3+j]
		}
	}
	for i, x := range context.Data().([]float64) {
		if math.Abs(x-expected[i]) > 1e-8 {
			t.Errorf("context %d: expected %f but got %f", i, expected[i], x)
		}
	}
}

func TestAttentionPaddingInvariance(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	attn := NewAttention(c, 2, 3, 4)
	query := c.MakeVector(3)
	anyvec.Rand(query, anyvec.Normal, nil)

	short := &Encoded{Data: c.MakeVector(2 * 2), Steps: 2, Dim: 2, Length: 2}
	anyvec.Rand(short.Data, anyvec.Normal, nil)
	long := &Encoded{Data: c.MakeVector(5 * 2), Steps: 5, Dim: 2, Length: 2}
	long.Data.Slice(0, 4).Set(short.Data)
	anyvec.Rand(long.Data.Slice(4, 10), anyvec.Normal, nil)

	ctx1, w1 := attn.Attend(short, query)
	ctx2, w2 := attn.Attend(long, query)
	for i, x := range ctx1.Data().([]float64) {
		if math.Abs(x-ctx2.Data().([]float64)[i]) > 1e-10 {
			t.Fatal("padding changed the context vector")
		}
	}
	for i, x := range w1.Data().([]float64) {
		if math.Abs(x-w2.Data().([]float64)[i]) > 1e-10 {
			t.Fatal("padding changed the attention weights")
		}
	}
}

func TestAttentionEmpty(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	attn := NewAttention(c, 2, 3, 4)
	enc := &Encoded{Data: c.MakeVector(3 * 2), Steps: 3, Dim: 2}
	context, weights := attn.Attend(enc, c.MakeVector(3))
	if anyvec.AbsSum(context) != 0.0 || anyvec.AbsSum(weights) != 0.0 {
		t.Error("expected all zeros")
	}
	if weights.Len() != 3 || context.Len() != 2 {
		t.Error("bad lengths")
	}
}
