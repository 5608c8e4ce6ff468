// Package dataset stores utterances, which are feature
// sequences paired with transcripts, in msgpack files.
package dataset

import (
	"crypto/md5"
	"errors"
	"fmt"
	"os"

	"github.com/speechrecog/anylas"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/vmihailenco/msgpack/v5"
)

// Version is the current file format version.
const Version = 1

var ErrMalformed = errors.New("malformed dataset")

// An Utterance is one spoken example.
type Utterance struct {
	ID string `msgpack:"id"`

	// Features has one row per frame.
	Features [][]float64 `msgpack:"features"`

	Transcript string `msgpack:"transcript"`
}

type header struct {
	Version    int `msgpack:"version"`
	FeatureDim int `msgpack:"feature_dim"`
}

type file struct {
	Header     header       `msgpack:"header"`
	Utterances []*Utterance `msgpack:"utterances"`
}

// A List is an ordered set of utterances which all have
// the same feature dimension.
type List struct {
	FeatureDim int
	Utterances []*Utterance
}

// NewList creates a List and checks that every frame has
// featureDim features.
func NewList(featureDim int, utts []*Utterance) (*List, error) {
	if featureDim <= 0 {
		return nil, fmt.Errorf("%w: feature dim %d", ErrMalformed, featureDim)
	}
	for _, u := range utts {
		for i, frame := range u.Features {
			if len(frame) != featureDim {
				return nil, fmt.Errorf("%w: utterance %q frame %d has %d features "+
					"(expected %d)", ErrMalformed, u.ID, i, len(frame), featureDim)
			}
		}
	}
	return &List{FeatureDim: featureDim, Utterances: utts}, nil
}

// LoadFile reads a List from a msgpack file.
func LoadFile(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, essentials.AddCtx("load dataset", err)
	}
	var f file
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, essentials.AddCtx("load dataset",
			fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if f.Header.Version != Version {
		return nil, essentials.AddCtx("load dataset",
			fmt.Errorf("%w: unsupported version %d", ErrMalformed, f.Header.Version))
	}
	res, err := NewList(f.Header.FeatureDim, f.Utterances)
	if err != nil {
		return nil, essentials.AddCtx("load dataset", err)
	}
	return res, nil
}

// SaveFile writes the List to a msgpack file.
func (l *List) SaveFile(path string) error {
	data, err := msgpack.Marshal(&file{
		Header:     header{Version: Version, FeatureDim: l.FeatureDim},
		Utterances: l.Utterances,
	})
	if err != nil {
		return essentials.AddCtx("save dataset", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return essentials.AddCtx("save dataset", err)
	}
	return nil
}

// Len returns the number of utterances.
func (l *List) Len() int {
	return len(l.Utterances)
}

// Swap swaps two utterances.
func (l *List) Swap(i, j int) {
	l.Utterances[i], l.Utterances[j] = l.Utterances[j], l.Utterances[i]
}

// Slice copies a sub-slice of the list.
func (l *List) Slice(i, j int) anysgd.SampleList {
	return &List{
		FeatureDim: l.FeatureDim,
		Utterances: append([]*Utterance{}, l.Utterances[i:j]...),
	}
}

// Hash hashes the ID of an utterance, making the List
// an anysgd.Hasher.
func (l *List) Hash(i int) []byte {
	sum := md5.Sum([]byte(l.Utterances[i].ID))
	return sum[:]
}

// Split deterministically partitions the List by
// utterance ID, putting roughly the given fraction of
// utterances in the first List.
// The receiver may be re-ordered.
func (l *List) Split(ratio float64) (left, right *List) {
	a, b := anysgd.HashSplit(l, ratio)
	return a.(*List), b.(*List)
}

// Transcripts returns every transcript, in order.
func (l *List) Transcripts() []string {
	res := make([]string, len(l.Utterances))
	for i, u := range l.Utterances {
		res[i] = u.Transcript
	}
	return res
}

// Batch creates a padded feature batch from the
// utterances at the given indices.
func (l *List) Batch(c anyvec.Creator, indices []int) (*anylas.Batch, error) {
	seqs := make([][]anyvec.Vector, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(l.Utterances) {
			return nil, fmt.Errorf("utterance index %d out of range [0, %d)", idx,
				len(l.Utterances))
		}
		for _, frame := range l.Utterances[idx].Features {
			seqs[i] = append(seqs[i], anyvec.Make(c, frame))
		}
	}
	return anylas.NewBatch(c, seqs, l.FeatureDim)
}
