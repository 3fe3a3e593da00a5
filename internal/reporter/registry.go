package reporter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"copcam-go/internal/models"
)

// Registry owns the name to person-ID mapping and the person-of-interest
// list. Membership in the POI list is the sole authority for category
// assignment; the gallery never decides category.
type Registry struct {
	mu       sync.Mutex
	poi      map[string]string // lowercase name -> crime description
	ids      map[string]string // lowercase name -> person ID
	counters map[models.Category]int
}

// NewRegistry creates a registry over a POI map of name -> crime
// description (description may be empty).
func NewRegistry(poi map[string]string) *Registry {
	normalized := make(map[string]string, len(poi))
	for name, crime := range poi {
		normalized[normalizeName(name)] = crime
	}
	return &Registry{
		poi:      normalized,
		ids:      make(map[string]string),
		counters: make(map[models.Category]int),
	}
}

// LoadPOI reads a person-of-interest file: one entry per line, either
// "name" or "name,crime description". Blank lines and #-comments are
// skipped. A missing file is an error so the caller can decide whether
// an empty POI list is acceptable.
func LoadPOI(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open POI list: %w", err)
	}
	defer f.Close()

	poi := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, crime, _ := strings.Cut(line, ",")
		poi[strings.TrimSpace(name)] = strings.TrimSpace(crime)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read POI list: %w", err)
	}
	return poi, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CategoryFor returns B for persons of interest, A otherwise
func (r *Registry) CategoryFor(name string) models.Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.categoryForLocked(name)
}

func (r *Registry) categoryForLocked(name string) models.Category {
	if _, ok := r.poi[normalizeName(name)]; ok {
		return models.CategoryCriminal
	}
	return models.CategoryPolice
}

// CrimeFor returns the POI crime description for name, empty if none
func (r *Registry) CrimeFor(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.poi[normalizeName(name)]
}

// Assign returns the person ID and category for a name, allocating the
// next ID in the category's namespace on first sighting. The existing
// mapping is always consulted first; a name never gets two IDs.
func (r *Registry) Assign(name string) (id string, category models.Category, isNew bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeName(name)
	category = r.categoryForLocked(name)
	if existing, ok := r.ids[key]; ok {
		return existing, category, false
	}

	r.counters[category]++
	id = fmt.Sprintf("%s%03d", idPrefix(category), r.counters[category])
	r.ids[key] = id
	return id, category, true
}

// Lookup returns the person ID previously assigned to name, if any
func (r *Registry) Lookup(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.ids[normalizeName(name)]
	return id, ok
}

func idPrefix(category models.Category) string {
	if category == models.CategoryCriminal {
		return "CRIM_"
	}
	return "POLICE_"
}
