package beam

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidVocabulary    = errors.New("invalid vocabulary")
	ErrNumericalInstability = errors.New("numerical instability")
)

// A StepError is returned when a search fails in the
// middle of decoding.
type StepError struct {
	// Step is the 1-based index of the decoding step.
	Step int

	// Hypothesis is the index of the hypothesis in the
	// beam, or -1 if the failure was not specific to one
	// hypothesis.
	Hypothesis int

	Err error
}

func (s *StepError) Error() string {
	if s.Hypothesis < 0 {
		return fmt.Sprintf("step %d: %v", s.Step, s.Err)
	}
	return fmt.Sprintf("step %d, hypothesis %d: %v", s.Step, s.Hypothesis, s.Err)
}

// Unwrap returns the underlying error.
func (s *StepError) Unwrap() error {
	return s.Err
}
