package beam

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/speechrecog/anylas/vocab"
)

func TestTracer(t *testing.T) {
	d := &funcDecoder{Dist: fixedDist(
		[]float64{0.05, 0.05, 0.1, 0.8},
		[]float64{0.05, 0.9, 0.03, 0.02},
	)}
	h, err := Greedy(context.Background(), d, d.Start(), testEncoded(3, 4),
		testConfig(4, 1, 5))
	if err != nil {
		t.Fatal(err)
	}

	v, err := vocab.Build([]string{vocab.SOSToken, vocab.EOSToken}, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	tracer := &Tracer{Writer: &buf, Vocab: v, ID: "test"}
	tracer.Trace(h)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines but got %d: %q", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "Trace (test): ") {
			t.Errorf("missing prefix: %q", line)
		}
	}
	if !strings.Contains(lines[0], "2 tokens") || !strings.Contains(lines[0], "EOS") {
		t.Errorf("bad summary: %q", lines[0])
	}
	if !strings.Contains(lines[1], `"b"`) || !strings.Contains(lines[1], "attention=1 (1.000)") {
		t.Errorf("bad first step: %q", lines[1])
	}
	if !strings.Contains(lines[2], `"<EOS>"`) {
		t.Errorf("bad second step: %q", lines[2])
	}

	buf.Reset()
	(&Tracer{Writer: &buf}).Trace(h)
	if !strings.Contains(buf.String(), "#3") {
		t.Errorf("expected token ids without a vocabulary: %q", buf.String())
	}
}
