package models

import (
	"encoding/json"
	"fmt"
)

// Category classifies a person for alerting policy
type Category string

const (
	// CategoryPolice marks authorized personnel (recorded, never alerted)
	CategoryPolice Category = "A"
	// CategoryCriminal marks persons of interest (recorded and broadcast)
	CategoryCriminal Category = "B"
)

// UnknownLabel is the sentinel identity for faces the gallery cannot place
const UnknownLabel = "Unknown"

// BBox is a pixel bounding box as [x1, y1, x2, y2] with x1<x2, y1<y2
type BBox [4]int

// Valid reports whether the box has positive area
func (b BBox) Valid() bool {
	return b[0] < b[2] && b[1] < b[3]
}

// Coords is a camera location on the dashboard map
type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Detection is one stabilized track observation, as persisted per camera
// in the offline detection files. Immutable once emitted.
type Detection struct {
	PersonID            string   `json:"person_id"`
	Category            Category `json:"category"`
	CameraID            string   `json:"camera_id"`
	Timestamp           float64  `json:"timestamp"`
	FrameID             int      `json:"frame_id"`
	TrackID             int      `json:"track_id,omitempty"`
	BBox                BBox     `json:"bbox"`
	Confidence          float64  `json:"confidence"`
	DetectionConfidence *float64 `json:"detection_confidence,omitempty"`
	FaceImagePath       string   `json:"face_image_path,omitempty"`
}

// TimelineEvent is one entry of the merged multi-camera timeline.
// FrameID is carried so the merge order has a deterministic tie-break.
type TimelineEvent struct {
	GlobalTime float64 `json:"global_time"`
	CameraID   string  `json:"camera_id"`
	PersonID   string  `json:"person_id"`
	FrameID    int     `json:"frame_id"`
}

// DetectionCreate is the ingestion payload for POST /report-detection
type DetectionCreate struct {
	Detected    bool     `json:"detected"`
	Category    Category `json:"category"`
	CameraID    string   `json:"camera_id"`
	Timestamp   string   `json:"timestamp,omitempty"`
	Coords      Coords   `json:"coords"`
	PersonID    string   `json:"person_id,omitempty"`
	PersonName  string   `json:"person_name,omitempty"`
	PersonImage string   `json:"person_image,omitempty"`
	Crime       string   `json:"crime,omitempty"`
}

// Validate checks the fields that have to be present at the ingestion boundary
func (d *DetectionCreate) Validate() error {
	if d.CameraID == "" {
		return fmt.Errorf("camera_id is required")
	}
	if d.Category != CategoryPolice && d.Category != CategoryCriminal {
		return fmt.Errorf("invalid category %q", d.Category)
	}
	return nil
}

// DetectionEvent is the canonical record stored by the backend and pushed
// to dashboard subscribers. Person fields are filled in when person_id
// resolves against the person database.
type DetectionEvent struct {
	ID          int      `json:"id"`
	Detected    bool     `json:"detected"`
	Category    Category `json:"category"`
	CameraID    string   `json:"camera_id"`
	Timestamp   string   `json:"timestamp"`
	Coords      Coords   `json:"coords"`
	PersonID    string   `json:"person_id,omitempty"`
	PersonName  string   `json:"person_name,omitempty"`
	PersonImage string   `json:"person_image,omitempty"`
	Crime       string   `json:"crime,omitempty"`
}

// ToJSON serializes the event for broadcast
func (e *DetectionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
