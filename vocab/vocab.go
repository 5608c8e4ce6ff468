// Package vocab maps between token identifiers and token
// strings for character and subword transcriptions.
package vocab

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var v Vocab
	serializer.RegisterTypedDeserializer(v.SerializerType(), DeserializeVocab)
}

// These are the conventional names of the reserved
// tokens.
const (
	PadToken   = "<PAD>"
	SOSToken   = "<SOS>"
	EOSToken   = "<EOS>"
	SpaceToken = "<SPACE>"
)

// WordBoundary is the suffix which terminates a word in
// subword transcriptions.
const WordBoundary = "</w>"

var (
	ErrEmptyVocabulary    = errors.New("empty vocabulary")
	ErrMalformed          = errors.New("malformed vocabulary")
	ErrVocabularyMismatch = errors.New("vocabulary mismatch")
)

// DefaultSpecials returns the reserved tokens, in the
// order in which they are usually assigned ids.
func DefaultSpecials() []string {
	return []string{PadToken, SOSToken, EOSToken, SpaceToken}
}

// A Vocab is a bijection between the ids [0, Len()) and
// a set of token strings.
//
// A Vocab is immutable once built, so it may be shared
// between goroutines.
type Vocab struct {
	tokens []string
	ids    map[string]int

	pad   int
	sos   int
	eos   int
	space int
}

// Build creates a Vocab.
//
// The special tokens are assigned ids first, in order.
// Then every unit in the corpus which was not yet seen is
// assigned the next id.
// The result only depends on the order of the inputs.
func Build(specials []string, corpus []string) (*Vocab, error) {
	if len(specials) == 0 && len(corpus) == 0 {
		return nil, essentials.AddCtx("build vocab", ErrEmptyVocabulary)
	}
	res := &Vocab{ids: map[string]int{}}
	for _, s := range specials {
		if _, ok := res.ids[s]; ok {
			return nil, essentials.AddCtx("build vocab",
				fmt.Errorf("%w: repeated special token %q", ErrMalformed, s))
		}
		res.add(s)
	}
	for _, unit := range corpus {
		if _, ok := res.ids[unit]; !ok {
			res.add(unit)
		}
	}
	res.assignRoles()
	return res, nil
}

func newVocabTokens(tokens []string) (*Vocab, error) {
	res := &Vocab{ids: map[string]int{}}
	for _, t := range tokens {
		if _, ok := res.ids[t]; ok {
			return nil, fmt.Errorf("%w: repeated token %q", ErrMalformed, t)
		}
		res.add(t)
	}
	if len(res.tokens) == 0 {
		return nil, ErrEmptyVocabulary
	}
	res.assignRoles()
	return res, nil
}

func (v *Vocab) add(token string) {
	v.ids[token] = len(v.tokens)
	v.tokens = append(v.tokens, token)
}

func (v *Vocab) assignRoles() {
	lookup := func(t string) int {
		if id, ok := v.ids[t]; ok {
			return id
		}
		return -1
	}
	v.pad = lookup(PadToken)
	v.sos = lookup(SOSToken)
	v.eos = lookup(EOSToken)
	v.space = lookup(SpaceToken)
}

// Len returns the number of tokens.
func (v *Vocab) Len() int {
	return len(v.tokens)
}

// Token returns the string for a token id.
func (v *Vocab) Token(id int) (string, error) {
	if id < 0 || id >= len(v.tokens) {
		return "", fmt.Errorf("%w: token id %d not in [0, %d)", ErrVocabularyMismatch,
			id, len(v.tokens))
	}
	return v.tokens[id], nil
}

// ID returns the id for a token string.
func (v *Vocab) ID(token string) (int, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Tokens returns a copy of every token, ordered by id.
func (v *Vocab) Tokens() []string {
	return append([]string{}, v.tokens...)
}

// Encode converts units to token ids.
func (v *Vocab) Encode(units []string) ([]int, error) {
	res := make([]int, len(units))
	for i, u := range units {
		id, ok := v.ids[u]
		if !ok {
			return nil, fmt.Errorf("%w: unknown unit %q", ErrVocabularyMismatch, u)
		}
		res[i] = id
	}
	return res, nil
}

// PAD returns the id of the padding token, or -1.
func (v *Vocab) PAD() int {
	return v.pad
}

// SOS returns the id of the start token, or -1.
func (v *Vocab) SOS() int {
	return v.sos
}

// EOS returns the id of the end token, or -1.
func (v *Vocab) EOS() int {
	return v.eos
}

// Space returns the id of the word-boundary space token,
// or -1.
func (v *Vocab) Space() int {
	return v.space
}

// CharUnits splits a transcript into character units.
// Every run of whitespace becomes a single SpaceToken, and
// leading or trailing whitespace is dropped.
func CharUnits(text string) []string {
	var res []string
	for i, word := range strings.Fields(text) {
		if i > 0 {
			res = append(res, SpaceToken)
		}
		for len(word) > 0 {
			r, size := utf8.DecodeRuneInString(word)
			if r == utf8.RuneError && size == 1 {
				res = append(res, word[:1])
			} else {
				res = append(res, string(r))
			}
			word = word[size:]
		}
	}
	return res
}

// SubwordUnits splits a transcript which has already been
// segmented into whitespace-separated subword pieces.
func SubwordUnits(text string) []string {
	return strings.FieldsFunc(text, unicode.IsSpace)
}

// SerializerType returns the unique ID used to serialize
// a Vocab with the serializer package.
func (v *Vocab) SerializerType() string {
	return "github.com/speechrecog/anylas/vocab.Vocab"
}

// Serialize serializes the Vocab.
//
// Tokens are stored as one joined string plus the byte
// length of each token, so arbitrary token strings
// survive the round trip.
func (v *Vocab) Serialize() ([]byte, error) {
	lens := make([]int, len(v.tokens))
	for i, t := range v.tokens {
		lens[i] = len(t)
	}
	return serializer.SerializeAny(lens, strings.Join(v.tokens, ""))
}

// DeserializeVocab deserializes a Vocab.
func DeserializeVocab(d []byte) (*Vocab, error) {
	var lens []int
	var joined string
	if err := serializer.DeserializeAny(d, &lens, &joined); err != nil {
		return nil, essentials.AddCtx("deserialize Vocab", err)
	}
	tokens := make([]string, len(lens))
	var offset int
	for i, l := range lens {
		if l < 0 || offset+l > len(joined) {
			return nil, essentials.AddCtx("deserialize Vocab",
				fmt.Errorf("%w: token lengths exceed data", ErrMalformed))
		}
		tokens[i] = joined[offset : offset+l]
		offset += l
	}
	if offset != len(joined) {
		return nil, essentials.AddCtx("deserialize Vocab",
			fmt.Errorf("%w: trailing token data", ErrMalformed))
	}
	res, err := newVocabTokens(tokens)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Vocab", err)
	}
	return res, nil
}

// Save writes the Vocab to a file.
func (v *Vocab) Save(path string) error {
	return serializer.SaveAny(path, v)
}

// Load reads a Vocab which was written with Save.
func Load(path string) (*Vocab, error) {
	var res *Vocab
	if err := serializer.LoadAny(path, &res); err != nil {
		return nil, essentials.AddCtx("load vocab", err)
	}
	return res, nil
}
