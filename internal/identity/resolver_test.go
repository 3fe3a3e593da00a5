package identity

import (
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"copcam-go/internal/models"
)

// fakeIndex is a canned 1-NN index
type fakeIndex struct {
	label string
	dist  float64
	err   error
	added []string
}

func (f *fakeIndex) Search(embedding []float32) (string, float64, error) {
	return f.label, f.dist, f.err
}

func (f *fakeIndex) Add(label string, embedding []float32) error {
	f.added = append(f.added, label)
	return nil
}

func embedding512() []float32 {
	return make([]float32, 512)
}

func TestResolveThresholdBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		dist      float64
		threshold float64
		want      string
	}{
		{"below threshold matches", 0.2, 0.4, "ayush"},
		{"exactly at threshold is Unknown", 0.4, 0.4, models.UnknownLabel},
		{"above threshold is Unknown", 0.75, 0.4, models.UnknownLabel},
		{"loose threshold regime", 0.75, 0.8, "ayush"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := &fakeIndex{label: "ayush-front", dist: tt.dist}
			r := NewResolver(idx, 512, zerolog.Nop())

			label, dist := r.Resolve(embedding512(), tt.threshold)
			if label != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, label)
			}
			if dist != tt.dist {
				t.Fatalf("expected distance %f, got %f", tt.dist, dist)
			}
		})
	}
}

func TestResolveStripsVariantSuffix(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{label: "kanika-side2", dist: 0.1}
	r := NewResolver(idx, 512, zerolog.Nop())

	label, _ := r.Resolve(embedding512(), 0.4)
	if label != "kanika" {
		t.Fatalf("expected variant suffix stripped, got %q", label)
	}
}

func TestResolveRejectsMalformedEmbedding(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{label: "ayush", dist: 0.0}
	r := NewResolver(idx, 512, zerolog.Nop())

	for _, emb := range [][]float32{nil, make([]float32, 128), make([]float32, 513)} {
		label, dist := r.Resolve(emb, 0.4)
		if label != models.UnknownLabel {
			t.Fatalf("expected Unknown for %d-length embedding, got %q", len(emb), label)
		}
		if !math.IsInf(dist, 1) {
			t.Fatalf("expected +Inf distance, got %f", dist)
		}
	}
}

func TestResolveDegradesOnGalleryError(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{err: fmt.Errorf("index offline")}
	r := NewResolver(idx, 512, zerolog.Nop())

	label, dist := r.Resolve(embedding512(), 0.4)
	if label != models.UnknownLabel {
		t.Fatalf("expected Unknown on gallery error, got %q", label)
	}
	if !math.IsInf(dist, 1) {
		t.Fatalf("expected +Inf distance, got %f", dist)
	}
}

func TestResolveEchoBackIsOptIn(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{label: "ayush-front", dist: 0.1}
	r := NewResolver(idx, 512, zerolog.Nop())
	r.Resolve(embedding512(), 0.4)
	if len(idx.added) != 0 {
		t.Fatal("echo-back must be off by default")
	}

	idx2 := &fakeIndex{label: "ayush-front", dist: 0.1}
	r2 := NewResolver(idx2, 512, zerolog.Nop(), WithEchoBack(0.25))
	r2.Resolve(embedding512(), 0.4)
	if len(idx2.added) != 1 || idx2.added[0] != "ayush-front" {
		t.Fatalf("expected one echo-back insert of the matched label, got %v", idx2.added)
	}

	// Matches above the echo threshold are not echoed
	idx3 := &fakeIndex{label: "ayush-front", dist: 0.3}
	r3 := NewResolver(idx3, 512, zerolog.Nop(), WithEchoBack(0.25))
	r3.Resolve(embedding512(), 0.4)
	if len(idx3.added) != 0 {
		t.Fatal("expected no echo-back above the echo threshold")
	}
}
