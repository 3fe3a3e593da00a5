package models

// PersonRecord is one entry of the person database. FirstSeen is set
// exactly once on the first sighting; LastSeen moves on every sighting.
type PersonRecord struct {
	PersonID       string            `json:"person_id"`
	Name           string            `json:"name"`
	Category       Category          `json:"category"`
	ImagePath      string            `json:"image_path"`
	Crime          string            `json:"crime"`
	AdditionalInfo map[string]string `json:"additional_info,omitempty"`
	FirstSeen      string            `json:"first_seen,omitempty"`
	LastSeen       string            `json:"last_seen,omitempty"`
}

// CriminalMeta is the per-person entry of the offline criminals file
type CriminalMeta struct {
	Name            string  `json:"name"`
	Crime           string  `json:"crime"`
	FirstSeenCamera string  `json:"first_seen_camera"`
	FirstSeenTime   float64 `json:"first_seen_time"`
	FaceImage       string  `json:"face_image"`
}
