package reporter

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"copcam-go/internal/models"
)

type fakeSnapshot struct {
	saved     []string
	embedding []float32
}

func (f *fakeSnapshot) SaveFace(personID, cameraID string) (string, error) {
	path := filepath.Join("faces", personID+"_"+cameraID+".jpg")
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeSnapshot) FaceEmbedding() []float32 { return f.embedding }

type fakeBroadcaster struct {
	events [][]byte
}

func (f *fakeBroadcaster) Broadcast(data []byte) { f.events = append(f.events, data) }

type fakeAlerts struct {
	published int
}

func (f *fakeAlerts) PublishAlert(_ context.Context, _ []byte) error {
	f.published++
	return nil
}

func newTestReporter(t *testing.T, poi map[string]string) (*Reporter, *fakeBroadcaster, *fakeAlerts) {
	t.Helper()
	db, err := LoadPersonDB(filepath.Join(t.TempDir(), "face_database.json"))
	if err != nil {
		t.Fatal(err)
	}
	b := &fakeBroadcaster{}
	a := &fakeAlerts{}
	clock := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	r := New(NewRegistry(poi), db, "", zerolog.Nop(),
		WithBroadcaster(b),
		WithAlertPublisher(a),
		WithClock(func() time.Time {
			clock = clock.Add(10 * time.Second)
			return clock
		}))
	return r, b, a
}

func TestReporterCategoryBBroadcastsCategoryADoesNot(t *testing.T) {
	t.Parallel()

	r, b, a := newTestReporter(t, map[string]string{"ayush": "armed robbery"})

	det, err := r.Report(Sighting{
		Label: "ayush", CameraID: "cam_01", GlobalTime: 12.5,
		FrameID: 375, TrackID: 2, BBox: models.BBox{10, 20, 60, 100}, Confidence: 0.2,
	}, &fakeSnapshot{})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if det.PersonID != "CRIM_001" || det.Category != models.CategoryCriminal {
		t.Fatalf("expected CRIM_001/B, got %s/%s", det.PersonID, det.Category)
	}
	if len(b.events) != 1 {
		t.Fatalf("category B must broadcast, got %d events", len(b.events))
	}
	if a.published != 1 {
		t.Fatalf("category B must publish an alert, got %d", a.published)
	}

	var ev models.DetectionEvent
	if err := json.Unmarshal(b.events[0], &ev); err != nil {
		t.Fatalf("broadcast payload not a detection event: %v", err)
	}
	if !ev.Detected || ev.PersonName != "ayush" || ev.Crime != "armed robbery" {
		t.Fatalf("broadcast event not enriched: %+v", ev)
	}
	if ev.Coords.Lat == 0 {
		t.Fatalf("expected camera coords resolved, got %+v", ev.Coords)
	}

	// Authorized personnel are recorded but never alerted
	det, err = r.Report(Sighting{Label: "officer_khan", CameraID: "cam_02", GlobalTime: 13.0}, &fakeSnapshot{})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if det.PersonID != "POLICE_001" {
		t.Fatalf("expected POLICE_001, got %s", det.PersonID)
	}
	if len(b.events) != 1 || a.published != 1 {
		t.Fatalf("category A must not broadcast or alert (events=%d alerts=%d)", len(b.events), a.published)
	}
}

func TestReporterFirstSightingSideEffectsHappenOnce(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestReporter(t, map[string]string{"ayush": "theft"})
	snap := &fakeSnapshot{embedding: []float32{1, 0, 0}}

	first, err := r.Report(Sighting{Label: "ayush", CameraID: "cam_01", GlobalTime: 5.0}, snap)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Report(Sighting{Label: "ayush", CameraID: "cam_03", GlobalTime: 15.0}, snap)
	if err != nil {
		t.Fatal(err)
	}

	if len(snap.saved) != 1 {
		t.Fatalf("face crop must be saved exactly once, got %d saves", len(snap.saved))
	}
	if second.PersonID != first.PersonID {
		t.Fatalf("person ID changed between sightings: %s then %s", first.PersonID, second.PersonID)
	}
	if second.FaceImagePath != first.FaceImagePath {
		t.Fatalf("image path must stay at the first-seen crop, got %s then %s", first.FaceImagePath, second.FaceImagePath)
	}

	rec, ok := r.db.Get(first.PersonID)
	if !ok {
		t.Fatal("expected person record")
	}
	if rec.FirstSeen == "" || rec.LastSeen == "" || rec.FirstSeen == rec.LastSeen {
		t.Fatalf("expected first_seen < last_seen after second sighting, got %q / %q", rec.FirstSeen, rec.LastSeen)
	}

	meta := r.Criminals()
	m, ok := meta[first.PersonID]
	if !ok {
		t.Fatal("expected criminal metadata recorded")
	}
	if m.FirstSeenCamera != "cam_01" || m.FirstSeenTime != 5.0 {
		t.Fatalf("first-seen metadata wrong: %+v", m)
	}
}

func TestReporterCrimeDefaults(t *testing.T) {
	t.Parallel()

	// POI entry without a crime description defaults to "Unknown";
	// authorized personnel carry "N/A".
	r, _, _ := newTestReporter(t, map[string]string{"ayush": ""})

	det, err := r.Report(Sighting{Label: "ayush", CameraID: "cam_01", GlobalTime: 1.0}, &fakeSnapshot{})
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := r.db.Get(det.PersonID)
	if !ok {
		t.Fatal("expected person record")
	}
	if rec.Crime != "Unknown" {
		t.Fatalf("expected crime %q, got %q", "Unknown", rec.Crime)
	}
	if meta := r.Criminals()[det.PersonID]; meta.Crime != "Unknown" {
		t.Fatalf("expected criminal metadata crime %q, got %q", "Unknown", meta.Crime)
	}

	det, err = r.Report(Sighting{Label: "officer_khan", CameraID: "cam_02", GlobalTime: 2.0}, &fakeSnapshot{})
	if err != nil {
		t.Fatal(err)
	}
	rec, ok = r.db.Get(det.PersonID)
	if !ok {
		t.Fatal("expected person record")
	}
	if rec.Crime != "N/A" {
		t.Fatalf("expected crime %q, got %q", "N/A", rec.Crime)
	}
}

func TestReporterSavesReferenceEmbedding(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db, err := LoadPersonDB(filepath.Join(dir, "face_database.json"))
	if err != nil {
		t.Fatal(err)
	}
	r := New(NewRegistry(map[string]string{"ayush": ""}), db, filepath.Join(dir, "embeddings"), zerolog.Nop())

	if _, err := r.Report(Sighting{Label: "ayush", CameraID: "cam_01", GlobalTime: 1.0},
		&fakeSnapshot{embedding: []float32{0.5, 0.5}}); err != nil {
		t.Fatal(err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "embeddings", "CRIM_001.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one embedding file, got %v (err=%v)", matches, err)
	}
}
