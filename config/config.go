// Package config loads decoding options from YAML files.
package config

import (
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/speechrecog/anylas/beam"
	"github.com/speechrecog/anylas/vocab"
)

// Config holds decoding options.
//
// Fields which are absent from a file keep the values
// set by Default.
type Config struct {
	BeamWidth   int     `yaml:"beam_width"`
	MaxLength   int     `yaml:"max_length"`
	LengthAlpha float64 `yaml:"length_alpha"`
	Init        string  `yaml:"init"`
	Unit        string  `yaml:"unit"`

	// Workers is the number of utterances decoded at once.
	// Zero means one per CPU.
	Workers int `yaml:"workers"`

	// TopK is the number of hypotheses printed per
	// utterance. Zero prints the whole beam.
	TopK int `yaml:"top_k"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BeamWidth:   4,
		MaxLength:   200,
		LengthAlpha: 1,
		Init:        beam.Replicate.String(),
		Unit:        vocab.Char.String(),
		Workers:     1,
	}
}

// Load reads a configuration file on top of the
// defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML on top of the defaults and
// validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every field.
func (c *Config) Validate() error {
	if c.BeamWidth <= 0 {
		return fmt.Errorf("%w: beam_width %d", beam.ErrInvalidConfiguration, c.BeamWidth)
	}
	if c.MaxLength <= 0 {
		return fmt.Errorf("%w: max_length %d", beam.ErrInvalidConfiguration, c.MaxLength)
	}
	if math.IsNaN(c.LengthAlpha) || math.IsInf(c.LengthAlpha, 0) {
		return fmt.Errorf("%w: length_alpha %f", beam.ErrInvalidConfiguration,
			c.LengthAlpha)
	}
	if _, err := beam.ParseInit(c.Init); err != nil {
		return err
	}
	if _, err := c.UnitValue(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", beam.ErrInvalidConfiguration, c.Workers)
	}
	if c.TopK < 0 {
		return fmt.Errorf("%w: top_k %d", beam.ErrInvalidConfiguration, c.TopK)
	}
	return nil
}

// UnitValue parses the Unit field.
func (c *Config) UnitValue() (vocab.Unit, error) {
	u, err := vocab.ParseUnit(c.Unit)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", beam.ErrInvalidConfiguration, err)
	}
	return u, nil
}

// SearchConfig creates a beam search configuration for a
// vocabulary.
func (c *Config) SearchConfig(v *vocab.Vocab) (beam.Config, error) {
	if v.SOS() < 0 || v.EOS() < 0 {
		return beam.Config{}, fmt.Errorf("%w: vocabulary needs %s and %s",
			beam.ErrInvalidVocabulary, vocab.SOSToken, vocab.EOSToken)
	}
	seed, err := beam.ParseInit(c.Init)
	if err != nil {
		return beam.Config{}, err
	}
	res := beam.DefaultConfig(v.Len(), v.SOS(), v.EOS())
	res.Width = c.BeamWidth
	res.MaxLength = c.MaxLength
	res.Alpha = c.LengthAlpha
	res.Init = seed
	return res, res.Validate()
}

// Top returns the number of hypotheses to report out of
// a beam of the given size.
func (c *Config) Top(beamSize int) int {
	if c.TopK == 0 || c.TopK > beamSize {
		return beamSize
	}
	return c.TopK
}
