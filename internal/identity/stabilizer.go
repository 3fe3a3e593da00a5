package identity

// Stabilizer damps per-frame recognition noise by holding, per track, a
// sliding window of the most recent identity votes and emitting the
// majority label once the window is full. The window keeps re-evaluating
// every frame, so a track's stabilized label can change over its lifetime
// if its votes shift.

// Stabilizer accumulates identity votes per track ID
type Stabilizer struct {
	window int
	votes  map[int][]string
}

// NewStabilizer creates a stabilizer with the given confirmation window
func NewStabilizer(window int) *Stabilizer {
	if window <= 0 {
		window = 10
	}
	return &Stabilizer{
		window: window,
		votes:  make(map[int][]string),
	}
}

// Observe records one identity vote for a track. It returns the stabilized
// label and true once the track has accumulated a full window of votes;
// before that the second return is false and no label is emitted.
//
// The stabilized label is the mode of the current window; ties go to the
// label encountered first in window order, so the result is deterministic.
func (s *Stabilizer) Observe(trackID int, label string) (string, bool) {
	buf := append(s.votes[trackID], label)
	if len(buf) > s.window {
		buf = buf[len(buf)-s.window:]
	}
	s.votes[trackID] = buf

	if len(buf) < s.window {
		return "", false
	}
	return majority(buf), true
}

// Votes returns the current number of votes buffered for a track
func (s *Stabilizer) Votes(trackID int) int {
	return len(s.votes[trackID])
}

// Forget drops all state for a track that the tracker deleted
func (s *Stabilizer) Forget(trackID int) {
	delete(s.votes, trackID)
}

// Retain drops state for every track not present in the active set
func (s *Stabilizer) Retain(active map[int]bool) {
	for id := range s.votes {
		if !active[id] {
			delete(s.votes, id)
		}
	}
}

func majority(window []string) string {
	counts := make(map[string]int, len(window))
	for _, label := range window {
		counts[label]++
	}
	// Walking the window in order with a strictly-greater comparison keeps
	// the first-encountered label on ties.
	best := window[0]
	bestCount := counts[best]
	for _, label := range window {
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return best
}
