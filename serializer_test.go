package anylas

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/serializer"
)

func TestAttentionSerialize(t *testing.T) {
	attn := NewAttention(anyvec64.DefaultCreator{}, 3, 4, 5)
	data, err := serializer.SerializeAny(attn)
	if err != nil {
		t.Fatal(err)
	}
	var newAttn *Attention
	if err := serializer.DeserializeAny(data, &newAttn); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(attn, newAttn) {
		t.Fatal("incorrect result")
	}
}

func TestModelSerialize(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model, err := NewModel(c, ModelConfig{
		FeatureDim:    3,
		ListenerUnits: 4,
		PyramidLayers: 1,
		ListenerOut:   5,
		SpellerUnits:  6,
		AttentionSize: 2,
		VocabSize:     7,
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model")
	if err := model.Save(path); err != nil {
		t.Fatal(err)
	}
	model1, err := LoadModel(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(model1.Listener.Pyramid) != 1 {
		t.Fatalf("expected 1 pyramid layer but got %d", len(model1.Listener.Pyramid))
	}
	if len(model.Parameters()) != len(model1.Parameters()) {
		t.Fatal("parameter count changed")
	}
	for i, p := range model.Parameters() {
		if !reflect.DeepEqual(p.Vector.Data(), model1.Parameters()[i].Vector.Data()) {
			t.Fatalf("parameter %d changed", i)
		}
	}

	features := randomBatch(c, []int{3, 5}, 3)
	enc, err := model.Encode(features)
	if err != nil {
		t.Fatal(err)
	}
	enc1, err := model1.Encode(features)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(enc.Data.Data(), enc1.Data.Data()) {
		t.Fatal("encoder output changed")
	}
	res, err := model.Step(1, model.Start(), enc.Example(1))
	if err != nil {
		t.Fatal(err)
	}
	res1, err := model1.Step(1, model1.Start(), enc1.Example(1))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.LogProbs.Data(), res1.LogProbs.Data()) {
		t.Fatal("decoder output changed")
	}
}

func TestModelConfigValidate(t *testing.T) {
	cfg := ModelConfig{FeatureDim: 1, ListenerUnits: 1, ListenerOut: 1, SpellerUnits: 1,
		AttentionSize: 1, VocabSize: 0}
	if _, err := NewModel(anyvec64.DefaultCreator{}, cfg); err == nil {
		t.Error("expected error for empty vocabulary")
	}
	cfg.VocabSize = 3
	cfg.PyramidLayers = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative pyramid")
	}
}
