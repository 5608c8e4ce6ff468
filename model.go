package anylas

import (
	"errors"
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var m Model
	serializer.RegisterTypedDeserializer(m.SerializerType(), DeserializeModel)
}

// ModelConfig describes the sizes of a Model.
type ModelConfig struct {
	FeatureDim    int
	ListenerUnits int
	PyramidLayers int
	ListenerOut   int
	SpellerUnits  int
	AttentionSize int
	VocabSize     int
}

// Validate checks that every size is positive.
func (m *ModelConfig) Validate() error {
	sizes := []struct {
		Name  string
		Value int
	}{
		{"feature dim", m.FeatureDim},
		{"listener units", m.ListenerUnits},
		{"listener output", m.ListenerOut},
		{"speller units", m.SpellerUnits},
		{"attention size", m.AttentionSize},
		{"vocab size", m.VocabSize},
	}
	for _, s := range sizes {
		if s.Value <= 0 {
			return fmt.Errorf("%s must be positive (got %d)", s.Name, s.Value)
		}
	}
	if m.PyramidLayers < 0 {
		return errors.New("pyramid layers must not be negative")
	}
	return nil
}

// A Model is a complete Listen, Attend and Spell network.
type Model struct {
	Listener *Listener
	Speller  *Speller
}

// NewModel creates a randomized Model.
func NewModel(c anyvec.Creator, cfg ModelConfig) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, essentials.AddCtx("new model", err)
	}
	return &Model{
		Listener: NewListener(c, cfg.FeatureDim, cfg.ListenerUnits, cfg.ListenerOut,
			cfg.PyramidLayers),
		Speller: NewSpeller(c, cfg.VocabSize, cfg.ListenerOut, cfg.SpellerUnits,
			cfg.AttentionSize),
	}, nil
}

// DeserializeModel deserializes a Model.
func DeserializeModel(d []byte) (*Model, error) {
	var res Model
	if err := serializer.DeserializeAny(d, &res.Listener, &res.Speller); err != nil {
		return nil, essentials.AddCtx("deserialize Model", err)
	}
	if res.Listener.OutDim != res.Speller.EncDim {
		return nil, essentials.AddCtx("deserialize Model",
			fmt.Errorf("%w: listener emits %d features but speller reads %d",
				ErrShapeMismatch, res.Listener.OutDim, res.Speller.EncDim))
	}
	return &res, nil
}

// LoadModel reads a Model which was saved with Save.
func LoadModel(path string) (*Model, error) {
	var res *Model
	if err := serializer.LoadAny(path, &res); err != nil {
		return nil, essentials.AddCtx("load model", err)
	}
	return res, nil
}

// Save writes the Model to a file.
func (m *Model) Save(path string) error {
	return serializer.SaveAny(path, m)
}

// Encode encodes features with the Listener.
func (m *Model) Encode(features *Batch) (*Batch, error) {
	return m.Listener.Encode(features)
}

// Start returns the Speller's initial state.
func (m *Model) Start() State {
	return m.Speller.Start()
}

// Step runs one Speller step.
func (m *Model) Step(token int, s State, enc *Encoded) (*StepResult, error) {
	return m.Speller.Step(token, s, enc)
}

// Parameters returns the parameters of both networks.
func (m *Model) Parameters() []*anydiff.Var {
	return anynet.AllParameters(m.Listener, m.Speller)
}

// SerializerType returns the unique ID used to serialize
// a Model with the serializer package.
func (m *Model) SerializerType() string {
	return "github.com/speechrecog/anylas.Model"
}

// Serialize serializes the Model.
func (m *Model) Serialize() ([]byte, error) {
	return serializer.SerializeAny(m.Listener, m.Speller)
}
