package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/vmihailenco/msgpack/v5"
)

func testList(t *testing.T) *List {
	l, err := NewList(2, []*Utterance{
		{ID: "a", Features: [][]float64{{1, 2}, {3, 4}, {5, 6}}, Transcript: "hi there"},
		{ID: "b", Features: [][]float64{{-1, 0.5}}, Transcript: "yo"},
		{ID: "c", Transcript: ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestSaveLoad(t *testing.T) {
	l := testList(t)
	path := filepath.Join(t.TempDir(), "data.msgpack")
	if err := l.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	l1, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if l1.FeatureDim != l.FeatureDim || len(l1.Utterances) != len(l.Utterances) {
		t.Fatalf("bad list: %+v", l1)
	}
	for i, u := range l.Utterances {
		u1 := l1.Utterances[i]
		if u.ID != u1.ID || u.Transcript != u1.Transcript {
			t.Errorf("utterance %d: expected %+v but got %+v", i, u, u1)
		}
		if len(u.Features) != len(u1.Features) {
			t.Errorf("utterance %d: frame count changed", i)
		}
		for j, frame := range u.Features {
			if !reflect.DeepEqual(frame, u1.Features[j]) {
				t.Errorf("utterance %d frame %d: expected %v but got %v", i, j, frame,
					u1.Features[j])
			}
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}

	garbage := filepath.Join(dir, "garbage")
	if err := os.WriteFile(garbage, []byte{0xc1, 0x00}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(garbage); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed but got %v", err)
	}

	wrongVersion := filepath.Join(dir, "version")
	data, err := msgpack.Marshal(&file{Header: header{Version: 99, FeatureDim: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(wrongVersion, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(wrongVersion); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed but got %v", err)
	}

	if _, err := NewList(3, []*Utterance{{Features: [][]float64{{1, 2}}}}); !errors.Is(err,
		ErrMalformed) {
		t.Errorf("expected ErrMalformed but got %v", err)
	}
}

func TestListBatch(t *testing.T) {
	l := testList(t)
	b, err := l.Batch(anyvec64.DefaultCreator{}, []int{1, 0, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(b.Lengths, []int{1, 3, 0}) || b.Steps != 3 || b.Dim != 2 {
		t.Fatalf("bad batch shape: %v, %d steps, dim %d", b.Lengths, b.Steps, b.Dim)
	}
	expected := []float64{-1, 0.5, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 0, 0, 0, 0, 0, 0}
	if actual := b.Data.Data().([]float64); !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %v but got %v", expected, actual)
	}
	if _, err := l.Batch(anyvec64.DefaultCreator{}, []int{3}); err == nil {
		t.Error("expected out of range error")
	}
}

func TestListSampleList(t *testing.T) {
	var list anysgd.SampleList = testList(t)
	list.Swap(0, 2)
	sliced := list.Slice(1, 3).(*List)
	if sliced.Len() != 2 || sliced.Utterances[1].ID != "a" {
		t.Errorf("bad slice: %v", sliced.Transcripts())
	}
	if !reflect.DeepEqual(list.(*List).Transcripts(), []string{"", "yo", "hi there"}) {
		t.Errorf("bad transcripts: %v", list.(*List).Transcripts())
	}
}

func TestListSplit(t *testing.T) {
	var utts []*Utterance
	for i := 0; i < 200; i++ {
		utts = append(utts, &Utterance{ID: fmt.Sprintf("utt%d", i)})
	}
	l, err := NewList(1, utts)
	if err != nil {
		t.Fatal(err)
	}
	left, right := l.Split(0.25)
	if left.Len()+right.Len() != 200 {
		t.Fatalf("split lost utterances: %d + %d", left.Len(), right.Len())
	}
	if left.Len() < 20 || left.Len() > 80 {
		t.Errorf("unbalanced split: %d of 200", left.Len())
	}

	l1, _ := NewList(1, append([]*Utterance{}, utts...))
	left1, _ := l1.Split(0.25)
	ids := map[string]bool{}
	for _, u := range left.Utterances {
		ids[u.ID] = true
	}
	for _, u := range left1.Utterances {
		if !ids[u.ID] {
			t.Fatal("split is not deterministic")
		}
	}
}
