package simulation

import (
	"sort"

	"copcam-go/internal/models"
)

// MergeTimelines interleaves per-camera event lists into one global
// timeline, sorted ascending by (global_time, camera_id, frame_id).
// The sort is stable so equal keys keep their input order; the
// tie-break makes the merge deterministic across runs.
func MergeTimelines(lists ...[]models.TimelineEvent) []models.TimelineEvent {
	var merged []models.TimelineEvent
	for _, list := range lists {
		merged = append(merged, list...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.GlobalTime != b.GlobalTime {
			return a.GlobalTime < b.GlobalTime
		}
		if a.CameraID != b.CameraID {
			return a.CameraID < b.CameraID
		}
		return a.FrameID < b.FrameID
	})
	return merged
}
