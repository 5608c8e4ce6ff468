package anylas

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anyseq"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyrnn"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var l Listener
	serializer.RegisterTypedDeserializer(l.SerializerType(), DeserializeListener)
	var p PyramidLayer
	serializer.RegisterTypedDeserializer(p.SerializerType(), DeserializePyramidLayer)
}

// A Listener is a pyramidal bidirectional LSTM encoder.
//
// Every pyramid layer halves the number of timesteps by
// concatenating pairs of adjacent outputs.
type Listener struct {
	FeatureDim int
	OutDim     int

	Input   *anyrnn.Bidir
	InProj  anynet.Net
	Pyramid []*PyramidLayer
}

// A PyramidLayer is one halving stage of a Listener.
type PyramidLayer struct {
	Bidir *anyrnn.Bidir

	// Proj maps concatenated pairs of Bidir outputs to the
	// layer's output size.
	Proj anynet.Net
}

// NewListener creates a randomized Listener.
//
// The units argument is the state size of each
// direction's LSTM, and hidden is the output size of
// every projection.
func NewListener(c anyvec.Creator, featureDim, units, hidden, pyramid int) *Listener {
	res := &Listener{
		FeatureDim: featureDim,
		OutDim:     hidden,
		Input:      newBidir(c, featureDim, units),
		InProj: anynet.Net{
			anynet.NewFC(c, 2*units, hidden),
			anynet.Tanh,
		},
	}
	for i := 0; i < pyramid; i++ {
		res.Pyramid = append(res.Pyramid, &PyramidLayer{
			Bidir: newBidir(c, hidden, units),
			Proj: anynet.Net{
				anynet.NewFC(c, 4*units, hidden),
				anynet.Tanh,
			},
		})
	}
	return res
}

func newBidir(c anyvec.Creator, in, units int) *anyrnn.Bidir {
	return &anyrnn.Bidir{
		Forward:  anyrnn.NewLSTM(c, in, units),
		Backward: anyrnn.NewLSTM(c, in, units),
		Mixer:    anynet.ConcatMixer{},
	}
}

// DeserializeListener deserializes a Listener.
func DeserializeListener(d []byte) (*Listener, error) {
	var res Listener
	var layers []serializer.Serializer
	err := serializer.DeserializeAny(d, &res.FeatureDim, &res.OutDim, &res.Input,
		&res.InProj, &layers)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Listener", err)
	}
	for _, x := range layers {
		layer, ok := x.(*PyramidLayer)
		if !ok {
			return nil, fmt.Errorf("deserialize Listener: not a PyramidLayer: %T", x)
		}
		res.Pyramid = append(res.Pyramid, layer)
	}
	return &res, nil
}

// DeserializePyramidLayer deserializes a PyramidLayer.
func DeserializePyramidLayer(d []byte) (*PyramidLayer, error) {
	var res PyramidLayer
	if err := serializer.DeserializeAny(d, &res.Bidir, &res.Proj); err != nil {
		return nil, essentials.AddCtx("deserialize PyramidLayer", err)
	}
	return &res, nil
}

// ReducedLength computes the number of encoded timesteps
// for an input of the given length.
func (l *Listener) ReducedLength(length int) int {
	for range l.Pyramid {
		length = (length + length%2) / 2
	}
	return length
}

// Encode encodes a batch of features.
func (l *Listener) Encode(features *Batch) (*Batch, error) {
	if err := features.Validate(); err != nil {
		return nil, essentials.AddCtx("encode", err)
	}
	if features.Dim != l.FeatureDim {
		return nil, essentials.AddCtx("encode", fmt.Errorf("%w: feature dim %d "+
			"(expected %d)", ErrShapeMismatch, features.Dim, l.FeatureDim))
	}
	c := features.Data.Creator()
	seqs := make([][]anyvec.Vector, features.Size)
	var nonEmpty bool
	for i := range seqs {
		seqs[i] = features.Sequence(i)
		nonEmpty = nonEmpty || len(seqs[i]) > 0
	}
	if nonEmpty {
		out := anyseq.Map(l.Input.Apply(anyseq.ConstSeqList(c, seqs)), l.InProj.Apply)
		seqs = separate(out, len(seqs))
		for _, layer := range l.Pyramid {
			seqs = layer.apply(c, seqs)
		}
	}
	return NewBatch(c, seqs, l.OutDim)
}

// Parameters returns all of the Listener's parameters.
func (l *Listener) Parameters() []*anydiff.Var {
	res := anynet.AllParameters(l.Input, l.InProj)
	for _, layer := range l.Pyramid {
		res = append(res, anynet.AllParameters(layer.Bidir, layer.Proj)...)
	}
	return res
}

// SerializerType returns the unique ID used to serialize
// a Listener with the serializer package.
func (l *Listener) SerializerType() string {
	return "github.com/speechrecog/anylas.Listener"
}

// Serialize serializes the Listener.
func (l *Listener) Serialize() ([]byte, error) {
	layers := make([]serializer.Serializer, len(l.Pyramid))
	for i, x := range l.Pyramid {
		layers[i] = x
	}
	return serializer.SerializeAny(l.FeatureDim, l.OutDim, l.Input, l.InProj, layers)
}

// SerializerType returns the unique ID used to serialize
// a PyramidLayer with the serializer package.
func (p *PyramidLayer) SerializerType() string {
	return "github.com/speechrecog/anylas.PyramidLayer"
}

// Serialize serializes the PyramidLayer.
func (p *PyramidLayer) Serialize() ([]byte, error) {
	return serializer.SerializeAny(p.Bidir, p.Proj)
}

func (p *PyramidLayer) apply(c anyvec.Creator, seqs [][]anyvec.Vector) [][]anyvec.Vector {
	mixed := separate(p.Bidir.Apply(anyseq.ConstSeqList(c, seqs)), len(seqs))
	for i, seq := range mixed {
		mixed[i] = pairTimesteps(c, seq)
	}
	return separate(anyseq.Map(anyseq.ConstSeqList(c, mixed), p.Proj.Apply), len(seqs))
}

// pairTimesteps concatenates adjacent timesteps, padding
// odd-length sequences with a zero timestep.
func pairTimesteps(c anyvec.Creator, seq []anyvec.Vector) []anyvec.Vector {
	if len(seq)%2 == 1 {
		seq = append(seq, c.MakeVector(seq[0].Len()))
	}
	res := make([]anyvec.Vector, len(seq)/2)
	for i := range res {
		res[i] = c.Concat(seq[2*i], seq[2*i+1])
	}
	return res
}

func separate(s anyseq.Seq, n int) [][]anyvec.Vector {
	res := anyseq.SeparateSeqs(s.Output())
	for len(res) < n {
		res = append(res, nil)
	}
	return res
}
