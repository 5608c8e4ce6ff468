package vocab

import (
	"fmt"
	"strings"
)

// A Unit determines how token strings are joined into
// text.
type Unit int

const (
	// Char units are single characters, with words
	// separated by SpaceToken.
	Char Unit = iota

	// Subword units are word pieces, where the last piece
	// of every word ends with WordBoundary.
	Subword
)

// ParseUnit parses "char" or "subword".
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "char":
		return Char, nil
	case "subword":
		return Subword, nil
	default:
		return 0, fmt.Errorf("unknown unit: %q", s)
	}
}

// String returns the name accepted by ParseUnit.
func (u Unit) String() string {
	switch u {
	case Char:
		return "char"
	case Subword:
		return "subword"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// TrimEOS truncates ids at the first EOS token.
// Trimming an already trimmed sequence returns it
// unchanged.
func TrimEOS(ids []int, v *Vocab) []int {
	for i, id := range ids {
		if id == v.eos {
			return ids[:i]
		}
	}
	return ids
}

// Render converts token ids to human-readable text.
//
// Everything from the first EOS onwards is dropped, as
// are PAD and SOS tokens.
// Word boundaries are turned into spaces, and runs of
// whitespace are collapsed.
// Ids outside of the vocabulary are skipped.
func Render(ids []int, v *Vocab, unit Unit) string {
	var buf strings.Builder
	for _, id := range TrimEOS(ids, v) {
		if id == v.pad || id == v.sos || id < 0 || id >= len(v.tokens) {
			continue
		}
		tok := v.tokens[id]
		switch unit {
		case Char:
			if id == v.space {
				tok = " "
			}
		case Subword:
			if strings.HasSuffix(tok, WordBoundary) {
				tok = strings.TrimSuffix(tok, WordBoundary) + " "
			}
		default:
			panic(fmt.Sprintf("unknown unit: %d", unit))
		}
		buf.WriteString(tok)
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}
