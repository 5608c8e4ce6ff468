package beam

import (
	"fmt"
	"math"
)

// Init determines how the beam is seeded.
type Init int

const (
	// Replicate starts with Width identical hypotheses.
	Replicate Init = iota

	// SingleSeed starts with one hypothesis and lets the
	// first expansion fill the beam.
	SingleSeed
)

// String returns "replicate" or "single".
func (i Init) String() string {
	switch i {
	case Replicate:
		return "replicate"
	case SingleSeed:
		return "single"
	default:
		return fmt.Sprintf("Init(%d)", int(i))
	}
}

// ParseInit is the inverse of Init.String.
func ParseInit(s string) (Init, error) {
	switch s {
	case "replicate":
		return Replicate, nil
	case "single":
		return SingleSeed, nil
	default:
		return 0, fmt.Errorf("%w: unknown beam init %q", ErrInvalidConfiguration, s)
	}
}

// Config configures a search.
type Config struct {
	// Width is the number of hypotheses kept per step.
	Width int

	// MaxLength is the maximum number of tokens emitted
	// after SOS, including EOS.
	// A search never runs more than MaxLength steps.
	MaxLength int

	// Alpha is the length normalization exponent.
	// Zero ranks hypotheses by raw log-likelihood.
	Alpha float64

	VocabSize int
	SOS       int
	EOS       int

	Init Init
}

// DefaultConfig creates a Config with the default width,
// maximum length, and length normalization.
func DefaultConfig(vocabSize, sos, eos int) Config {
	return Config{
		Width:     4,
		MaxLength: 200,
		Alpha:     1,
		VocabSize: vocabSize,
		SOS:       sos,
		EOS:       eos,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.VocabSize <= 0 {
		return fmt.Errorf("%w: vocab size %d", ErrInvalidVocabulary, c.VocabSize)
	}
	if c.Width <= 0 {
		return fmt.Errorf("%w: beam width %d", ErrInvalidConfiguration, c.Width)
	}
	if c.MaxLength <= 0 {
		return fmt.Errorf("%w: max length %d", ErrInvalidConfiguration, c.MaxLength)
	}
	if c.SOS < 0 || c.SOS >= c.VocabSize || c.EOS < 0 || c.EOS >= c.VocabSize {
		return fmt.Errorf("%w: SOS %d and EOS %d must be in [0, %d)",
			ErrInvalidConfiguration, c.SOS, c.EOS, c.VocabSize)
	}
	if math.IsNaN(c.Alpha) || math.IsInf(c.Alpha, 0) {
		return fmt.Errorf("%w: length alpha %f", ErrInvalidConfiguration, c.Alpha)
	}
	if c.Init != Replicate && c.Init != SingleSeed {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, c.Init)
	}
	return nil
}

// Normalize computes the ranking score of a sequence
// with the given raw score and number of emitted tokens.
//
// The result is score / length^Alpha.
// A zero length yields the raw score.
func (c *Config) Normalize(score float64, length int) float64 {
	if length == 0 || c.Alpha == 0 {
		return score
	}
	return score / math.Pow(float64(length), c.Alpha)
}
