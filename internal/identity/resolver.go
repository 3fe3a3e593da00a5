package identity

import (
	"math"
	"strings"

	"github.com/rs/zerolog"

	"copcam-go/internal/models"
)

// Searcher is the nearest-neighbor capability the resolver queries.
// Implemented by gallery.Index; any cosine-distance 1-NN index conforms.
type Searcher interface {
	Search(embedding []float32) (label string, distance float64, err error)
	Add(label string, embedding []float32) error
}

// Resolver turns a face embedding into a textual identity.
//
// A match requires the nearest gallery distance to be strictly below the
// caller's threshold; a distance equal to the threshold is Unknown.
// Gallery failures and malformed embeddings degrade to Unknown instead of
// propagating, so one bad frame never takes down the processing loop.
type Resolver struct {
	index Searcher
	dim   int
	log   zerolog.Logger

	// Optional: echo high-confidence matches back into the gallery.
	// Off by default; the gallery is read-only during resolution.
	echoBack      bool
	echoThreshold float64
}

// Option configures a Resolver
type Option func(*Resolver)

// WithEchoBack enables appending matched embeddings back into the gallery
// when the match distance is below the given threshold.
func WithEchoBack(threshold float64) Option {
	return func(r *Resolver) {
		r.echoBack = true
		r.echoThreshold = threshold
	}
}

// NewResolver creates a resolver over the given index for dim-sized embeddings
func NewResolver(index Searcher, dim int, log zerolog.Logger, opts ...Option) *Resolver {
	r := &Resolver{index: index, dim: dim, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the identity for an embedding together with the nearest
// cosine distance. Non-conforming input yields (Unknown, +Inf) without
// touching the gallery.
func (r *Resolver) Resolve(embedding []float32, threshold float64) (string, float64) {
	if len(embedding) != r.dim {
		return models.UnknownLabel, math.Inf(1)
	}

	label, dist, err := r.index.Search(embedding)
	if err != nil {
		r.log.Warn().Err(err).Msg("Gallery query failed, treating as Unknown")
		return models.UnknownLabel, math.Inf(1)
	}

	if dist >= threshold {
		return models.UnknownLabel, dist
	}

	if r.echoBack && dist < r.echoThreshold {
		if err := r.index.Add(label, embedding); err != nil {
			r.log.Warn().Err(err).Str("label", label).Msg("Echo-back insert failed")
		}
	}

	return displayName(label), dist
}

// displayName strips the variant suffix from a composite "name-variant"
// gallery label; only the name portion is the resolved identity.
func displayName(label string) string {
	name, _, _ := strings.Cut(label, "-")
	if name == "" {
		return label
	}
	return name
}
