package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"copcam-go/internal/models"
)

// Snapshot gives the reporter access to the frame evidence behind a
// stabilized sighting without a dependency on the vision stack.
type Snapshot interface {
	// SaveFace persists the padded face crop for a person and returns
	// the stored image path.
	SaveFace(personID, cameraID string) (string, error)
	// FaceEmbedding returns the reference embedding for the sighting,
	// nil if none was captured.
	FaceEmbedding() []float32
}

// Broadcaster pushes a serialized detection event to live subscribers
type Broadcaster interface {
	Broadcast(data []byte)
}

// AlertPublisher fans a category-B alert out to the messaging layer
type AlertPublisher interface {
	PublishAlert(ctx context.Context, data []byte) error
}

// Sighting is one stabilized (track, identity) observation handed to
// the reporter by the pipeline.
type Sighting struct {
	Label               string
	CameraID            string
	GlobalTime          float64
	FrameID             int
	TrackID             int
	BBox                models.BBox
	Confidence          float64
	DetectionConfidence *float64
}

// Reporter converts stabilized sightings into canonical detection
// records, owning the person-ID lifecycle and the first-seen/last-seen
// bookkeeping. Category B triggers an immediate broadcast and an alert
// publish; category A is recorded only.
type Reporter struct {
	registry      *Registry
	db            *PersonDB
	embeddingsDir string
	broadcaster   Broadcaster
	alerts        AlertPublisher
	log           zerolog.Logger
	now           func() time.Time

	mu        sync.Mutex
	criminals map[string]models.CriminalMeta
}

// Option configures optional reporter behavior
type Option func(*Reporter)

// WithBroadcaster attaches the live dashboard hub
func WithBroadcaster(b Broadcaster) Option {
	return func(r *Reporter) { r.broadcaster = b }
}

// WithAlertPublisher attaches the messaging alert path
func WithAlertPublisher(p AlertPublisher) Option {
	return func(r *Reporter) { r.alerts = p }
}

// WithClock overrides the wall clock, for tests
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

// New creates a reporter. embeddingsDir receives one reference-embedding
// file per newly identified person; empty disables embedding persistence.
func New(registry *Registry, db *PersonDB, embeddingsDir string, log zerolog.Logger, opts ...Option) *Reporter {
	r := &Reporter{
		registry:      registry,
		db:            db,
		embeddingsDir: embeddingsDir,
		log:           log,
		now:           time.Now,
		criminals:     make(map[string]models.CriminalMeta),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report assigns or looks up the person ID for a stabilized sighting,
// performs the first-seen and last-seen side effects, and emits one
// detection record. Called once per frame once a track's label is
// stabilized; downstream consumers debounce if they only want
// transitions.
func (r *Reporter) Report(s Sighting, snap Snapshot) (models.Detection, error) {
	personID, category, isNew := r.registry.Assign(s.Label)

	det := models.Detection{
		PersonID:            personID,
		Category:            category,
		CameraID:            s.CameraID,
		Timestamp:           s.GlobalTime,
		FrameID:             s.FrameID,
		TrackID:             s.TrackID,
		BBox:                s.BBox,
		Confidence:          s.Confidence,
		DetectionConfidence: s.DetectionConfidence,
	}

	if isNew {
		r.recordFirstSighting(personID, category, s, snap)
	}

	seenAt := r.now().UTC().Format(time.RFC3339)
	if err := r.db.UpdateLastSeen(personID, seenAt); err != nil {
		return det, fmt.Errorf("failed to update last seen for %s: %w", personID, err)
	}

	// The stored image path is permanent: set on first sighting, reused after
	if rec, ok := r.db.Get(personID); ok {
		det.FaceImagePath = rec.ImagePath
	}

	if category == models.CategoryCriminal {
		r.publishAlert(det, s)
	}
	return det, nil
}

func (r *Reporter) recordFirstSighting(personID string, category models.Category, s Sighting, snap Snapshot) {
	imagePath := ""
	if snap != nil {
		path, err := snap.SaveFace(personID, s.CameraID)
		if err != nil {
			r.log.Warn().Err(err).Str("person_id", personID).Msg("Failed to save face crop")
		} else {
			imagePath = path
		}
		if emb := snap.FaceEmbedding(); emb != nil && r.embeddingsDir != "" {
			if err := r.saveEmbedding(personID, emb); err != nil {
				r.log.Warn().Err(err).Str("person_id", personID).Msg("Failed to save reference embedding")
			}
		}
	}

	crime := r.crimeLabel(s.Label, category)
	if err := r.db.AddPerson(models.PersonRecord{
		PersonID:  personID,
		Name:      s.Label,
		Category:  category,
		ImagePath: imagePath,
		Crime:     crime,
	}); err != nil {
		r.log.Error().Err(err).Str("person_id", personID).Msg("Failed to add person record")
	}

	if category == models.CategoryCriminal {
		r.mu.Lock()
		r.criminals[personID] = models.CriminalMeta{
			Name:            s.Label,
			Crime:           crime,
			FirstSeenCamera: s.CameraID,
			FirstSeenTime:   s.GlobalTime,
			FaceImage:       imagePath,
		}
		r.mu.Unlock()
	}

	r.log.Info().
		Str("person_id", personID).
		Str("name", s.Label).
		Str("category", string(category)).
		Str("camera_id", s.CameraID).
		Msg("New person identified")
}

// crimeLabel resolves the crime descriptor stored with a person:
// the POI list entry for category B, "Unknown" when the list gives
// none, "N/A" for category A.
func (r *Reporter) crimeLabel(name string, category models.Category) string {
	if category != models.CategoryCriminal {
		return "N/A"
	}
	if crime := r.registry.CrimeFor(name); crime != "" {
		return crime
	}
	return "Unknown"
}

func (r *Reporter) publishAlert(det models.Detection, s Sighting) {
	rec, _ := r.db.Get(det.PersonID)
	event := models.DetectionEvent{
		Detected:    true,
		Category:    det.Category,
		CameraID:    det.CameraID,
		Timestamp:   r.now().UTC().Format(time.RFC3339),
		PersonID:    det.PersonID,
		PersonName:  rec.Name,
		PersonImage: rec.ImagePath,
		Crime:       rec.Crime,
	}
	if cam, ok := models.CameraByID(models.DefaultCameras(), det.CameraID); ok {
		event.Coords = cam.Coords
	}

	data, err := event.ToJSON()
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encode detection event")
		return
	}
	if r.broadcaster != nil {
		r.broadcaster.Broadcast(data)
	}
	if r.alerts != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.alerts.PublishAlert(ctx, data); err != nil {
			r.log.Warn().Err(err).Str("person_id", det.PersonID).Msg("Failed to publish alert")
		}
	}
}

// Criminals returns the category-B metadata accumulated this run,
// keyed by person ID. The batch processor persists it as criminals.json.
func (r *Reporter) Criminals() map[string]models.CriminalMeta {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]models.CriminalMeta, len(r.criminals))
	for id, meta := range r.criminals {
		out[id] = meta
	}
	return out
}

type embeddingFile struct {
	PersonID  string    `json:"person_id"`
	Embedding []float32 `json:"embedding"`
}

func (r *Reporter) saveEmbedding(personID string, embedding []float32) error {
	if err := os.MkdirAll(r.embeddingsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create embeddings directory: %w", err)
	}
	data, err := json.Marshal(embeddingFile{PersonID: personID, Embedding: embedding})
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}
	path := filepath.Join(r.embeddingsDir, personID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write embedding: %w", err)
	}
	return nil
}
