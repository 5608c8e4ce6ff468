package vocab

import (
	"reflect"
	"testing"
)

func TestRenderChar(t *testing.T) {
	v, err := Build(DefaultSpecials(), CharUnits("hi yo"))
	if err != nil {
		t.Fatal(err)
	}
	ids, err := v.Encode([]string{SOSToken, "h", "i", SpaceToken, SpaceToken, "y", "o",
		EOSToken, "h", "i"})
	if err != nil {
		t.Fatal(err)
	}
	if actual := Render(ids, v, Char); actual != "hi yo" {
		t.Errorf("unexpected rendering: %q", actual)
	}

	noEOS := ids[:7]
	if actual := Render(noEOS, v, Char); actual != "hi yo" {
		t.Errorf("unexpected rendering without EOS: %q", actual)
	}

	padding := []int{v.PAD(), v.PAD(), v.PAD()}
	if actual := Render(padding, v, Char); actual != "" {
		t.Errorf("expected empty rendering but got %q", actual)
	}
	if actual := Render(nil, v, Char); actual != "" {
		t.Errorf("expected empty rendering but got %q", actual)
	}
}

func TestRenderSubword(t *testing.T) {
	v, err := Build(DefaultSpecials(), SubwordUnits("he llo</w> wor ld</w>"))
	if err != nil {
		t.Fatal(err)
	}
	ids, err := v.Encode(SubwordUnits("he llo</w> wor ld</w>"))
	if err != nil {
		t.Fatal(err)
	}
	ids = append(ids, v.EOS(), v.PAD())
	if actual := Render(ids, v, Subword); actual != "hello world" {
		t.Errorf("unexpected rendering: %q", actual)
	}
}

func TestTrimEOS(t *testing.T) {
	v, err := Build(DefaultSpecials(), []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	a, _ := v.ID("a")
	b, _ := v.ID("b")
	seqs := [][]int{
		{v.SOS(), a, b, v.EOS(), a},
		{v.SOS(), a, b},
		{v.EOS()},
		{},
	}
	for _, seq := range seqs {
		trimmed := TrimEOS(seq, v)
		if again := TrimEOS(trimmed, v); !reflect.DeepEqual(again, trimmed) {
			t.Errorf("trim of %v is not idempotent: %v then %v", seq, trimmed, again)
		}
		for _, unit := range []Unit{Char, Subword} {
			if Render(trimmed, v, unit) != Render(seq, v, unit) {
				t.Errorf("rendering %v changed after trimming", seq)
			}
		}
	}
}

func TestParseUnit(t *testing.T) {
	for _, u := range []Unit{Char, Subword} {
		parsed, err := ParseUnit(u.String())
		if err != nil {
			t.Fatal(err)
		}
		if parsed != u {
			t.Errorf("expected %v but got %v", u, parsed)
		}
	}
	if _, err := ParseUnit("word"); err == nil {
		t.Error("expected error")
	}
}
