package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"copcam-go/internal/models"
)

// PersonDB is the durable person database behind the reporting path.
// Every mutation is followed by a synchronous full rewrite of the JSON
// file; the mutex is the single-writer serialization point.
type PersonDB struct {
	mu      sync.Mutex
	path    string
	records map[string]*models.PersonRecord
}

// LoadPersonDB reads the database at path. A missing file yields an
// empty database; a malformed file is an error.
func LoadPersonDB(path string) (*PersonDB, error) {
	db := &PersonDB{
		path:    path,
		records: make(map[string]*models.PersonRecord),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return db, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read person database: %w", err)
	}
	if err := json.Unmarshal(data, &db.records); err != nil {
		return nil, fmt.Errorf("failed to parse person database %s: %w", path, err)
	}
	return db, nil
}

// AddPerson inserts a record keyed by its person ID. An existing record
// is left untouched so first-sighting data is never clobbered.
func (db *PersonDB) AddPerson(rec models.PersonRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.records[rec.PersonID]; ok {
		return nil
	}
	stored := rec
	db.records[rec.PersonID] = &stored
	return db.saveLocked()
}

// UpdateLastSeen moves last_seen to ts. first_seen is set only if the
// record has never been sighted, and is never overwritten after that.
func (db *PersonDB) UpdateLastSeen(personID, ts string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec, ok := db.records[personID]
	if !ok {
		return fmt.Errorf("person %s not found", personID)
	}
	if rec.FirstSeen == "" {
		rec.FirstSeen = ts
	}
	rec.LastSeen = ts
	return db.saveLocked()
}

// Get returns a copy of the record for personID
func (db *PersonDB) Get(personID string) (models.PersonRecord, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec, ok := db.records[personID]
	if !ok {
		return models.PersonRecord{}, false
	}
	return *rec, true
}

// Criminals returns copies of all category-B records keyed by person ID
func (db *PersonDB) Criminals() map[string]models.PersonRecord {
	return db.byCategory(models.CategoryCriminal)
}

// Police returns copies of all category-A records keyed by person ID
func (db *PersonDB) Police() map[string]models.PersonRecord {
	return db.byCategory(models.CategoryPolice)
}

func (db *PersonDB) byCategory(category models.Category) map[string]models.PersonRecord {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make(map[string]models.PersonRecord)
	for id, rec := range db.records {
		if rec.Category == category {
			out[id] = *rec
		}
	}
	return out
}

// Len returns the number of records
func (db *PersonDB) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.records)
}

func (db *PersonDB) saveLocked() error {
	if dir := filepath.Dir(db.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create person database directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(db.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode person database: %w", err)
	}
	if err := os.WriteFile(db.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write person database: %w", err)
	}
	return nil
}
