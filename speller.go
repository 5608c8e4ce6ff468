package anylas

import (
	"fmt"

	"github.com/speechrecog/anylas/vocab"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyrnn"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var s Speller
	serializer.RegisterTypedDeserializer(s.SerializerType(), DeserializeSpeller)
}

// A Speller is an attention-based LSTM decoder.
//
// At every step, the LSTM is fed a one-hot vector of the
// previous token alongside the previous context vector.
// Its output is used as the attention query, and the
// output projection sees both the LSTM output and the new
// context.
type Speller struct {
	VocabSize int
	EncDim    int

	Block     anyrnn.Block
	Attention *Attention

	// Output maps [h, context] to log probabilities.
	Output anynet.Net
}

// SpellerState is the State of a Speller.
type SpellerState struct {
	RNN     anyrnn.State
	Context anyvec.Vector
}

// NewSpeller creates a randomized Speller.
func NewSpeller(c anyvec.Creator, vocabSize, encDim, units, attnSize int) *Speller {
	return &Speller{
		VocabSize: vocabSize,
		EncDim:    encDim,
		Block:     anyrnn.NewLSTM(c, vocabSize+encDim, units),
		Attention: NewAttention(c, encDim, units, attnSize),
		Output: anynet.Net{
			anynet.NewFC(c, units+encDim, vocabSize),
			anynet.LogSoftmax,
		},
	}
}

// DeserializeSpeller deserializes a Speller.
func DeserializeSpeller(d []byte) (*Speller, error) {
	var res Speller
	err := serializer.DeserializeAny(d, &res.VocabSize, &res.EncDim, &res.Block,
		&res.Attention, &res.Output)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Speller", err)
	}
	return &res, nil
}

// Start returns the initial state, which has a zero
// context vector.
func (s *Speller) Start() State {
	return &SpellerState{
		RNN:     s.Block.Start(1),
		Context: s.creator().MakeVector(s.EncDim),
	}
}

// Step runs the decoder for one token.
func (s *Speller) Step(token int, state State, enc *Encoded) (*StepResult, error) {
	if token < 0 || token >= s.VocabSize {
		return nil, fmt.Errorf("%w: token %d not in [0, %d)", vocab.ErrVocabularyMismatch,
			token, s.VocabSize)
	}
	ss, ok := state.(*SpellerState)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected state type %T", ErrShapeMismatch, state)
	}
	if enc.Dim != s.EncDim {
		return nil, fmt.Errorf("%w: encoded dim %d (expected %d)", ErrShapeMismatch,
			enc.Dim, s.EncDim)
	}
	c := ss.Context.Creator()
	in := c.Concat(anyvec.OneHot(c, s.VocabSize, token), ss.Context)
	res := s.Block.Step(ss.RNN, in)
	context, weights := s.Attention.Attend(enc, res.Output())
	joined := anydiff.NewConst(c.Concat(res.Output(), context))
	return &StepResult{
		LogProbs:  s.Output.Apply(joined, 1).Output(),
		State:     &SpellerState{RNN: res.State(), Context: context},
		Attention: weights,
	}, nil
}

// Parameters returns all of the Speller's parameters.
func (s *Speller) Parameters() []*anydiff.Var {
	return anynet.AllParameters(s.Block, s.Attention, s.Output)
}

// SerializerType returns the unique ID used to serialize
// a Speller with the serializer package.
func (s *Speller) SerializerType() string {
	return "github.com/speechrecog/anylas.Speller"
}

// Serialize serializes the Speller.
func (s *Speller) Serialize() ([]byte, error) {
	return serializer.SerializeAny(s.VocabSize, s.EncDim, s.Block, s.Attention, s.Output)
}

func (s *Speller) creator() anyvec.Creator {
	return s.Attention.Score.Vector.Creator()
}
