package tracking

// Multi-object tracker used by the frame pipeline.
//
// Association is IOU-based with a single-frame linear velocity prediction,
// which is enough to carry a track across short occlusions; appearance
// continuity comes from the identity stabilizer downstream. Track IDs are
// monotonic and unique only within one tracker instance: a new camera or a
// new video gets a fresh tracker and a fresh ID space starting at zero.

import (
	"image"
	"sort"
)

// Observation is one per-frame detection fed into the tracker
type Observation struct {
	Box   image.Rectangle
	Score float64
	// Label is the tentative per-frame identity attached by the resolver
	Label string
}

type trackState int

const (
	stateTentative trackState = iota
	stateConfirmed
	stateDeleted
)

// Track is a temporally persistent association of observations believed to
// be the same physical subject.
type Track struct {
	id      int
	box     image.Rectangle
	prevBox image.Rectangle
	hasPrev bool
	label   string
	score   float64
	state   trackState
	hits    int
	misses  int
}

// ID returns the per-tracker-instance track identifier
func (t *Track) ID() int { return t.id }

// Box returns the current bounding box
func (t *Track) Box() image.Rectangle { return t.box }

// Label returns the tentative identity of the last matched observation
func (t *Track) Label() string { return t.label }

// Score returns the detector confidence of the last matched observation
func (t *Track) Score() float64 { return t.score }

// IsConfirmed reports whether the track survived the initial probation
func (t *Track) IsConfirmed() bool { return t.state == stateConfirmed }

// predicted extrapolates the next-frame box assuming linear velocity
func (t *Track) predicted() image.Rectangle {
	if !t.hasPrev {
		return t.box
	}
	oldCX, oldCY := center(t.prevBox)
	curCX, curCY := center(t.box)
	dx, dy := curCX-oldCX, curCY-oldCY
	return t.box.Add(image.Pt(dx, dy))
}

func center(r image.Rectangle) (int, int) {
	return (r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2
}

// Tracker is the capability contract the pipeline depends on. Any engine
// that keeps stable IDs across missed frames can be substituted.
type Tracker interface {
	// Update consumes one frame's detections and returns the live tracks
	// (tentative and confirmed) after association.
	Update(observations []Observation) []*Track
}

// IOUTracker associates detections to tracks greedily by best IOU
type IOUTracker struct {
	nextID       int
	tracks       []*Track
	maxAge       int
	initHits     int
	iouThreshold float64
}

// NewIOUTracker creates a tracker. maxAge is the number of consecutive
// missed frames before a track is deleted; initHits is the number of
// matched frames before a track is confirmed.
func NewIOUTracker(maxAge, initHits int, iouThreshold float64) *IOUTracker {
	if maxAge <= 0 {
		maxAge = 20
	}
	if initHits <= 0 {
		initHits = 3
	}
	if iouThreshold <= 0 {
		iouThreshold = 0.3
	}
	return &IOUTracker{
		maxAge:       maxAge,
		initHits:     initHits,
		iouThreshold: iouThreshold,
	}
}

type candidate struct {
	trackIdx int
	obsIdx   int
	iou      float64
}

// Update implements Tracker
func (tr *IOUTracker) Update(observations []Observation) []*Track {
	// Score every (track, observation) pair above the gate
	var candidates []candidate
	for ti, t := range tr.tracks {
		pred := t.predicted()
		for oi, obs := range observations {
			v := iou(pred, obs.Box)
			if v >= tr.iouThreshold {
				candidates = append(candidates, candidate{trackIdx: ti, obsIdx: oi, iou: v})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].iou != candidates[j].iou {
			return candidates[i].iou > candidates[j].iou
		}
		// Deterministic order for equal overlaps
		if candidates[i].trackIdx != candidates[j].trackIdx {
			return candidates[i].trackIdx < candidates[j].trackIdx
		}
		return candidates[i].obsIdx < candidates[j].obsIdx
	})

	matchedTracks := make(map[int]bool, len(tr.tracks))
	matchedObs := make(map[int]bool, len(observations))
	for _, c := range candidates {
		if matchedTracks[c.trackIdx] || matchedObs[c.obsIdx] {
			continue
		}
		matchedTracks[c.trackIdx] = true
		matchedObs[c.obsIdx] = true

		t := tr.tracks[c.trackIdx]
		obs := observations[c.obsIdx]
		t.prevBox, t.hasPrev = t.box, true
		t.box = obs.Box
		t.label = obs.Label
		t.score = obs.Score
		t.hits++
		t.misses = 0
		if t.state == stateTentative && t.hits >= tr.initHits {
			t.state = stateConfirmed
		}
	}

	// Age unmatched tracks
	for ti, t := range tr.tracks {
		if matchedTracks[ti] {
			continue
		}
		t.misses++
		if t.misses > tr.maxAge {
			t.state = stateDeleted
		}
	}

	// Spawn tentative tracks for unmatched observations
	for oi, obs := range observations {
		if matchedObs[oi] {
			continue
		}
		tr.tracks = append(tr.tracks, &Track{
			id:    tr.nextID,
			box:   obs.Box,
			label: obs.Label,
			score: obs.Score,
			state: stateTentative,
			hits:  1,
		})
		tr.nextID++
	}

	// Drop deleted tracks and report the rest
	live := tr.tracks[:0]
	for _, t := range tr.tracks {
		if t.state != stateDeleted {
			live = append(live, t)
		}
	}
	tr.tracks = live

	out := make([]*Track, len(tr.tracks))
	copy(out, tr.tracks)
	return out
}

// iou returns the intersection over union of two rectangles
func iou(r1, r2 image.Rectangle) float64 {
	inter := r1.Intersect(r2)
	if inter.Empty() {
		return 0
	}
	interArea := inter.Dx() * inter.Dy()
	unionArea := r1.Dx()*r1.Dy() + r2.Dx()*r2.Dy() - interArea
	if unionArea <= 0 {
		return 0
	}
	return float64(interArea) / float64(unionArea)
}
