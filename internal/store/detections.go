package store

import (
	"sync"
	"time"

	"copcam-go/internal/models"
)

// PersonLookup resolves a person ID to its database record
type PersonLookup interface {
	Get(personID string) (models.PersonRecord, bool)
}

// DetectionStore keeps the detection events received this run, in
// arrival order with monotonic IDs. Events are enriched against the
// person database at insert time so retrieval and broadcast see the
// same shape.
type DetectionStore struct {
	mu      sync.Mutex
	nextID  int
	events  []models.DetectionEvent
	persons PersonLookup
}

// NewDetectionStore creates an empty store. persons may be nil when no
// person database is available; events then carry only ingested fields.
func NewDetectionStore(persons PersonLookup) *DetectionStore {
	return &DetectionStore{nextID: 1, persons: persons}
}

// Add converts an ingestion payload into a stored event, assigning the
// next event ID and defaulting a missing timestamp to the current time.
func (s *DetectionStore) Add(in models.DetectionCreate) models.DetectionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	event := models.DetectionEvent{
		ID:          s.nextID,
		Detected:    in.Detected,
		Category:    in.Category,
		CameraID:    in.CameraID,
		Timestamp:   in.Timestamp,
		Coords:      in.Coords,
		PersonID:    in.PersonID,
		PersonName:  in.PersonName,
		PersonImage: in.PersonImage,
		Crime:       in.Crime,
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	s.enrich(&event)

	s.nextID++
	s.events = append(s.events, event)
	return event
}

// enrich fills person fields from the database when person_id resolves.
// Ingested values win over database values when both are present.
func (s *DetectionStore) enrich(event *models.DetectionEvent) {
	if s.persons == nil || event.PersonID == "" {
		return
	}
	rec, ok := s.persons.Get(event.PersonID)
	if !ok {
		return
	}
	if event.PersonName == "" {
		event.PersonName = rec.Name
	}
	if event.PersonImage == "" {
		event.PersonImage = rec.ImagePath
	}
	if event.Crime == "" {
		event.Crime = rec.Crime
	}
}

// All returns the stored events in arrival order
func (s *DetectionStore) All() []models.DetectionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.DetectionEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of stored events
func (s *DetectionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
