package tracking

import (
	"image"
	"testing"
)

func obs(x, y, w, h int, label string) Observation {
	return Observation{Box: image.Rect(x, y, x+w, y+h), Score: 0.9, Label: label}
}

func TestTrackerConfirmsAfterInitHits(t *testing.T) {
	t.Parallel()

	tr := NewIOUTracker(5, 3, 0.3)

	tracks := tr.Update([]Observation{obs(100, 100, 50, 80, "ayush")})
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tracks))
	}
	if tracks[0].IsConfirmed() {
		t.Fatal("track must start tentative")
	}

	tr.Update([]Observation{obs(102, 101, 50, 80, "ayush")})
	tracks = tr.Update([]Observation{obs(104, 102, 50, 80, "ayush")})
	if !tracks[0].IsConfirmed() {
		t.Fatal("expected track confirmed after 3 hits")
	}
	if tracks[0].ID() != 0 {
		t.Fatalf("expected first track ID 0, got %d", tracks[0].ID())
	}
	if tracks[0].Label() != "ayush" {
		t.Fatalf("expected label ayush, got %s", tracks[0].Label())
	}
}

func TestTrackerKeepsIDAcrossMissedFrames(t *testing.T) {
	t.Parallel()

	tr := NewIOUTracker(5, 1, 0.3)

	tracks := tr.Update([]Observation{obs(100, 100, 50, 80, "a")})
	id := tracks[0].ID()

	// Two empty frames: track survives within max-age
	tr.Update(nil)
	tr.Update(nil)

	tracks = tr.Update([]Observation{obs(103, 102, 50, 80, "a")})
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track after re-detection, got %d", len(tracks))
	}
	if tracks[0].ID() != id {
		t.Fatalf("expected same track ID %d after occlusion, got %d", id, tracks[0].ID())
	}
}

func TestTrackerDeletesAfterMaxAge(t *testing.T) {
	t.Parallel()

	tr := NewIOUTracker(2, 1, 0.3)
	tr.Update([]Observation{obs(100, 100, 50, 80, "a")})

	tr.Update(nil)
	tr.Update(nil)
	tracks := tr.Update(nil) // third consecutive miss exceeds max-age 2
	if len(tracks) != 0 {
		t.Fatalf("expected track deleted after max-age misses, got %d live", len(tracks))
	}

	// A new detection at the same spot gets a new ID, never a recycled one
	tracks = tr.Update([]Observation{obs(100, 100, 50, 80, "a")})
	if tracks[0].ID() == 0 {
		t.Fatal("expected a fresh track ID after deletion")
	}
}

func TestTrackerSeparatesDistantSubjects(t *testing.T) {
	t.Parallel()

	tr := NewIOUTracker(5, 1, 0.3)
	tracks := tr.Update([]Observation{
		obs(0, 0, 50, 80, "a"),
		obs(400, 300, 50, 80, "b"),
	})
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}

	tracks = tr.Update([]Observation{
		obs(402, 302, 50, 80, "b"),
		obs(2, 1, 50, 80, "a"),
	})
	byLabel := map[string]int{}
	for _, trk := range tracks {
		byLabel[trk.Label()] = trk.ID()
	}
	if byLabel["a"] == byLabel["b"] {
		t.Fatal("distinct subjects must keep distinct track IDs")
	}
}

func TestTrackerInstanceIDSpacesAreIndependent(t *testing.T) {
	t.Parallel()

	tr1 := NewIOUTracker(5, 1, 0.3)
	tr2 := NewIOUTracker(5, 1, 0.3)

	a := tr1.Update([]Observation{obs(0, 0, 50, 80, "a")})
	b := tr2.Update([]Observation{obs(500, 500, 50, 80, "b")})

	// Both start at zero: track IDs are never globally unique across cameras
	if a[0].ID() != 0 || b[0].ID() != 0 {
		t.Fatalf("expected both instances to start their ID space at 0, got %d and %d", a[0].ID(), b[0].ID())
	}
}

func TestIOU(t *testing.T) {
	t.Parallel()

	r := image.Rect(0, 0, 10, 10)
	if got := iou(r, r); got != 1.0 {
		t.Fatalf("expected IOU 1.0 for identical boxes, got %f", got)
	}
	if got := iou(r, image.Rect(20, 20, 30, 30)); got != 0 {
		t.Fatalf("expected IOU 0 for disjoint boxes, got %f", got)
	}
	got := iou(image.Rect(0, 0, 10, 10), image.Rect(5, 0, 15, 10))
	want := 50.0 / 150.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected IOU %f, got %f", want, got)
	}
}
