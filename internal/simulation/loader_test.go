package simulation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"copcam-go/internal/models"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeTestData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeJSON(t, filepath.Join(dir, "timeline.json"), []models.TimelineEvent{
		{GlobalTime: 1.0, CameraID: "cam_01", PersonID: "CRIM_001", FrameID: 30},
		{GlobalTime: 3.0, CameraID: "cam_02", PersonID: "POLICE_001", FrameID: 15},
	})
	writeJSON(t, filepath.Join(dir, "detections", "CAM_01.json"), []models.Detection{
		{PersonID: "CRIM_001", Category: models.CategoryCriminal, CameraID: "cam_01", Timestamp: 0.97, FrameID: 29},
		{PersonID: "CRIM_001", Category: models.CategoryCriminal, CameraID: "cam_01", Timestamp: 1.03, FrameID: 31},
		{PersonID: "CRIM_001", Category: models.CategoryCriminal, CameraID: "cam_01", Timestamp: 5.0, FrameID: 150},
	})
	writeJSON(t, filepath.Join(dir, "detections", "cam_02.json"), []models.Detection{
		{PersonID: "POLICE_001", Category: models.CategoryPolice, CameraID: "cam_02", Timestamp: 3.0, FrameID: 15},
	})
	writeJSON(t, filepath.Join(dir, "criminals.json"), map[string]models.CriminalMeta{
		"CRIM_001": {Name: "ayush", Crime: "theft", FirstSeenCamera: "cam_01", FirstSeenTime: 0.97},
	})
	return dir
}

func TestLoadReadsAllArtifacts(t *testing.T) {
	t.Parallel()

	data, err := Load(writeTestData(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(data.Timeline) != 2 {
		t.Fatalf("expected 2 timeline events, got %d", len(data.Timeline))
	}
	// Camera keys are normalized to lowercase regardless of file spelling
	if len(data.Detections["cam_01"]) != 3 || len(data.Detections["cam_02"]) != 1 {
		t.Fatalf("detections not keyed by lowercase camera ID: %v", len(data.Detections))
	}
	if data.Criminals["CRIM_001"].Name != "ayush" {
		t.Fatalf("criminals metadata missing: %+v", data.Criminals)
	}
}

func TestLoadFailsWithoutTimeline(t *testing.T) {
	t.Parallel()

	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing timeline")
	}
}

func TestFindDetectionNearestTimestamp(t *testing.T) {
	t.Parallel()

	data, err := Load(writeTestData(t))
	if err != nil {
		t.Fatal(err)
	}

	// 1.03 is nearer to 1.02 than 0.97 is
	det, ok := data.FindDetection("cam_01", "CRIM_001", 1.02)
	if !ok {
		t.Fatal("expected a match")
	}
	if det.FrameID != 31 {
		t.Fatalf("expected nearest detection (frame 31), got frame %d", det.FrameID)
	}

	// Camera lookup tolerates uppercase spellings
	if _, ok := data.FindDetection("CAM_01", "CRIM_001", 1.0); !ok {
		t.Fatal("expected case-insensitive camera lookup")
	}

	// Wrong person on the right camera never matches
	if _, ok := data.FindDetection("cam_01", "POLICE_001", 1.0); ok {
		t.Fatal("expected no match for a person the camera never saw")
	}
}
