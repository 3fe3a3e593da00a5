package gallery

// Embedding gallery index for face re-identification.
//
// The index holds labeled 512-dimensional reference embeddings and answers
// single-nearest-neighbor queries under cosine distance (lower = more
// similar). Vectors are L2-normalized on insertion so the distance reduces
// to 1 - dot(a, b).
//
// Labels may be composite "name-variant" strings; the variant suffix is
// metadata for distinguishing reference photos of the same person and is
// stripped by the identity resolver, not here.

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// Entry is one labeled reference embedding
type Entry struct {
	Label     string    `json:"label"`
	Embedding []float32 `json:"embedding"`
}

// Index is an in-memory K-NN index over fixed-dimension embeddings
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []Entry
	path    string
}

// NewIndex creates an empty index for vectors of the given dimension
func NewIndex(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension: %d", dim)
	}
	return &Index{dim: dim}, nil
}

// LoadIndex reads a gallery file from disk. A missing file yields an empty
// index bound to the path, so ingestion can create it.
func LoadIndex(path string, dim int) (*Index, error) {
	idx, err := NewIndex(dim)
	if err != nil {
		return nil, err
	}
	idx.path = path

	data, err := os.ReadFile(filepath.Clean(path))
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load gallery (%s): %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unable to parse gallery: %w", err)
	}
	for i := range entries {
		if len(entries[i].Embedding) != dim {
			return nil, fmt.Errorf("gallery entry %q has %d dimensions (expected %d)",
				entries[i].Label, len(entries[i].Embedding), dim)
		}
		normalize(entries[i].Embedding)
	}
	idx.entries = entries
	return idx, nil
}

// Dim returns the vector dimension the index accepts
func (idx *Index) Dim() int { return idx.dim }

// Len returns the number of stored entries
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Labels returns the distinct labels currently stored
func (idx *Index) Labels() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	seen := make(map[string]bool, len(idx.entries))
	labels := make([]string, 0, len(idx.entries))
	for _, e := range idx.entries {
		if !seen[e.Label] {
			seen[e.Label] = true
			labels = append(labels, e.Label)
		}
	}
	return labels
}

// Add appends a labeled embedding. The vector is copied and normalized.
func (idx *Index) Add(label string, embedding []float32) error {
	if label == "" {
		return fmt.Errorf("empty label")
	}
	if len(embedding) != idx.dim {
		return fmt.Errorf("embedding has %d dimensions (expected %d)", len(embedding), idx.dim)
	}

	vec := make([]float32, idx.dim)
	copy(vec, embedding)
	normalize(vec)

	idx.mu.Lock()
	idx.entries = append(idx.entries, Entry{Label: label, Embedding: vec})
	idx.mu.Unlock()
	return nil
}

// Search returns the closest entry's label and its cosine distance.
// An empty index is a query error, not a zero-distance match.
func (idx *Index) Search(embedding []float32) (string, float64, error) {
	if len(embedding) != idx.dim {
		return "", 0, fmt.Errorf("query has %d dimensions (expected %d)", len(embedding), idx.dim)
	}

	query := make([]float32, idx.dim)
	copy(query, embedding)
	normalize(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 {
		return "", 0, fmt.Errorf("gallery is empty")
	}

	bestLabel := ""
	bestDist := math.Inf(1)
	for _, e := range idx.entries {
		d := cosineDistance(query, e.Embedding)
		if d < bestDist {
			bestDist = d
			bestLabel = e.Label
		}
	}
	return bestLabel, bestDist, nil
}

// Save writes the gallery back to its file, creating parent directories
func (idx *Index) Save() error {
	if idx.path == "" {
		return fmt.Errorf("index has no backing file")
	}

	idx.mu.RLock()
	data, err := json.MarshalIndent(idx.entries, "", "  ")
	idx.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal gallery: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(idx.path), 0o755); err != nil {
		return fmt.Errorf("failed to create gallery directory: %w", err)
	}
	if err := os.WriteFile(idx.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write gallery: %w", err)
	}
	return nil
}

func cosineDistance(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return 1 - dot
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
