package simulation

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"copcam-go/internal/models"
)

// Data is the offline artifact set produced by the batch processor:
// the merged timeline, the per-camera detection records, and the
// category-B metadata. Immutable once loaded.
type Data struct {
	Timeline   []models.TimelineEvent
	Detections map[string][]models.Detection
	Criminals  map[string]models.CriminalMeta
}

// Load reads the simulation artifacts under dataDir. A missing or empty
// timeline is an error; the caller disables simulation mode on failure.
// Camera IDs are normalized to lowercase because the artifacts
// historically mix cam_01 and CAM_01 spellings.
func Load(dataDir string) (*Data, error) {
	d := &Data{
		Detections: make(map[string][]models.Detection),
		Criminals:  make(map[string]models.CriminalMeta),
	}

	timelinePath := filepath.Join(dataDir, "timeline.json")
	raw, err := os.ReadFile(timelinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read timeline: %w", err)
	}
	if err := json.Unmarshal(raw, &d.Timeline); err != nil {
		return nil, fmt.Errorf("failed to parse timeline %s: %w", timelinePath, err)
	}
	if len(d.Timeline) == 0 {
		return nil, fmt.Errorf("timeline %s is empty", timelinePath)
	}

	detectionsDir := filepath.Join(dataDir, "detections")
	entries, err := os.ReadDir(detectionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read detections directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(detectionsDir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read detections file: %w", err)
		}
		var dets []models.Detection
		if err := json.Unmarshal(raw, &dets); err != nil {
			return nil, fmt.Errorf("failed to parse detections %s: %w", path, err)
		}
		cameraID := strings.ToLower(strings.TrimSuffix(entry.Name(), ".json"))
		d.Detections[cameraID] = dets
	}

	criminalsPath := filepath.Join(dataDir, "criminals.json")
	if raw, err := os.ReadFile(criminalsPath); err == nil {
		if err := json.Unmarshal(raw, &d.Criminals); err != nil {
			return nil, fmt.Errorf("failed to parse criminals %s: %w", criminalsPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read criminals: %w", err)
	}

	return d, nil
}

// FindDetection resolves a timeline event back to its full detection
// record: among the camera's detections with a matching person ID, the
// one whose timestamp is nearest to globalTime wins. A nearest-neighbor
// join, not an exact match, because timeline and per-camera timestamps
// are computed along slightly different paths.
func (d *Data) FindDetection(cameraID, personID string, globalTime float64) (models.Detection, bool) {
	dets := d.Detections[strings.ToLower(cameraID)]

	var best models.Detection
	bestDiff := math.Inf(1)
	found := false
	for _, det := range dets {
		if det.PersonID != personID {
			continue
		}
		diff := math.Abs(det.Timestamp - globalTime)
		if diff < bestDiff {
			best = det
			bestDiff = diff
			found = true
		}
	}
	return best, found
}
