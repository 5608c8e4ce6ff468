// Package anylas implements a Listen, Attend and Spell
// speech recognizer.
//
// A Listener encodes padded acoustic features into a
// shorter sequence of high-level features.
// A Speller then emits one token at a time, attending
// over the encoded sequence at every step.
// Sub-package beam turns a Speller into a transcription.
package anylas

import (
	"errors"

	"github.com/unixpickle/anyvec"
)

// ErrShapeMismatch is returned when a batch, state, or
// encoded sequence does not have the dimensions which a
// network was built for.
var ErrShapeMismatch = errors.New("shape mismatch")

// A State is an opaque decoder state.
//
// States are never modified after they are created, so a
// single State may be shared by many hypotheses.
type State interface{}

// A StepResult is the output of one decoder step.
type StepResult struct {
	// LogProbs is a log-probability distribution over the
	// vocabulary.
	LogProbs anyvec.Vector

	// State is the state after the step.
	State State

	// Attention contains one weight per encoder timestep,
	// including padded timesteps (which get zero weight).
	Attention anyvec.Vector
}

// An Encoder maps a padded batch of feature sequences to
// a padded batch of encoded sequences.
// The output lengths may be shorter than the input
// lengths.
type Encoder interface {
	Encode(features *Batch) (*Batch, error)
}

// A Decoder predicts the next token given the previous
// token, the previous state, and an encoded utterance.
//
// Step must not modify s or enc.
// Implementations must be safe to call concurrently.
type Decoder interface {
	Start() State
	Step(token int, s State, enc *Encoded) (*StepResult, error)
}
