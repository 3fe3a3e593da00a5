package processor

import (
	"image"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"copcam-go/internal/identity"
	"copcam-go/internal/models"
	"copcam-go/internal/reporter"
	"copcam-go/internal/tracking"
	"copcam-go/internal/vision"
)

// Pipeline runs the per-frame recognition chain for one camera:
// face detection, embedding, identity resolution, tracking, per-track
// vote stabilization, and finally reporting. One pipeline per camera;
// its tracker and stabilizer state never crosses cameras.
type Pipeline struct {
	cameraID string

	faces    vision.FaceDetector
	embedder vision.FaceEmbedder
	persons  vision.PersonDetector

	resolver   *identity.Resolver
	tracker    tracking.Tracker
	stabilizer *identity.Stabilizer
	reporter   *reporter.Reporter

	faceThreshold   float64
	personThreshold float64
	facesDir        string
	cropPad         int

	// latest face embedding and match distance per live track
	embeddings map[int][]float32
	matchDist  map[int]float64

	log zerolog.Logger
}

// PipelineDeps bundles the capabilities a pipeline runs on
type PipelineDeps struct {
	Faces    vision.FaceDetector
	Embedder vision.FaceEmbedder
	Persons  vision.PersonDetector

	Resolver   *identity.Resolver
	Tracker    tracking.Tracker
	Stabilizer *identity.Stabilizer
	Reporter   *reporter.Reporter

	FaceThreshold   float64
	PersonThreshold float64
	FacesDir        string
	CropPad         int

	Log zerolog.Logger
}

// NewPipeline creates a pipeline for one camera
func NewPipeline(cameraID string, deps PipelineDeps) *Pipeline {
	return &Pipeline{
		cameraID:        cameraID,
		faces:           deps.Faces,
		embedder:        deps.Embedder,
		persons:         deps.Persons,
		resolver:        deps.Resolver,
		tracker:         deps.Tracker,
		stabilizer:      deps.Stabilizer,
		reporter:        deps.Reporter,
		faceThreshold:   deps.FaceThreshold,
		personThreshold: deps.PersonThreshold,
		facesDir:        deps.FacesDir,
		cropPad:         deps.CropPad,
		embeddings:      make(map[int][]float32),
		matchDist:       make(map[int]float64),
		log:             deps.Log,
	}
}

// ProcessFrame runs one frame through the chain and returns the
// detection records emitted by stabilized tracks.
func (p *Pipeline) ProcessFrame(frame gocv.Mat, frameID int, globalTime float64) ([]models.Detection, error) {
	faces, err := p.faces.Detect(frame)
	if err != nil {
		return nil, err
	}

	observations := make([]tracking.Observation, 0, len(faces))
	// Per-face data keyed by observation box, re-attached after association
	frameEmbeddings := make(map[image.Rectangle][]float32, len(faces))
	frameDistances := make(map[image.Rectangle]float64, len(faces))
	for _, face := range faces {
		emb, err := p.embedder.Embed(frame, face)
		if err != nil {
			p.log.Debug().Err(err).Int("frame", frameID).Msg("Face embedding failed, skipping face")
			continue
		}
		label, dist := p.resolver.Resolve(emb, p.faceThreshold)
		observations = append(observations, tracking.Observation{
			Box:   face.Box,
			Score: float64(face.Score),
			Label: label,
		})
		frameEmbeddings[face.Box] = emb
		frameDistances[face.Box] = dist
	}

	tracks := p.tracker.Update(observations)

	active := make(map[int]bool, len(tracks))
	var detections []models.Detection
	for _, track := range tracks {
		active[track.ID()] = true
		if emb, ok := frameEmbeddings[track.Box()]; ok {
			p.embeddings[track.ID()] = emb
			p.matchDist[track.ID()] = frameDistances[track.Box()]
		}

		if !track.IsConfirmed() {
			continue
		}

		label := track.Label()
		if label == models.UnknownLabel {
			label = p.reidentify(frame, track)
		}

		stable, ok := p.stabilizer.Observe(track.ID(), label)
		if !ok || stable == models.UnknownLabel {
			continue
		}

		det, err := p.report(frame, track, stable, frameID, globalTime)
		if err != nil {
			p.log.Warn().Err(err).Int("track_id", track.ID()).Msg("Failed to report detection")
			continue
		}
		detections = append(detections, det)
	}

	p.stabilizer.Retain(active)
	for id := range p.embeddings {
		if !active[id] {
			delete(p.embeddings, id)
			delete(p.matchDist, id)
		}
	}
	return detections, nil
}

// reidentify is the lazy fallback for tracks whose face never matched:
// the whole-person crop overlapping the track is embedded and resolved
// against the same gallery with the looser person threshold.
func (p *Pipeline) reidentify(frame gocv.Mat, track *tracking.Track) string {
	if p.persons == nil {
		return models.UnknownLabel
	}
	boxes, err := p.persons.Detect(frame)
	if err != nil {
		p.log.Debug().Err(err).Msg("Person detection failed")
		return models.UnknownLabel
	}

	best := -1
	bestOverlap := 0.0
	for i, pb := range boxes {
		inter := pb.Box.Intersect(track.Box())
		if inter.Empty() {
			continue
		}
		overlap := float64(inter.Dx() * inter.Dy())
		if overlap > bestOverlap {
			best = i
			bestOverlap = overlap
		}
	}
	if best < 0 {
		return models.UnknownLabel
	}

	emb, err := p.embedder.Embed(frame, vision.Face{Box: boxes[best].Box, Score: boxes[best].Score})
	if err != nil {
		return models.UnknownLabel
	}
	label, _ := p.resolver.Resolve(emb, p.personThreshold)
	return label
}

func (p *Pipeline) report(frame gocv.Mat, track *tracking.Track, label string, frameID int, globalTime float64) (models.Detection, error) {
	box := track.Box()
	bbox := models.BBox{box.Min.X, box.Min.Y, box.Max.X, box.Max.Y}
	detScore := track.Score()

	snap := vision.Snapshot{
		Frame:     frame,
		Box:       bbox,
		Pad:       p.cropPad,
		Dir:       p.facesDir,
		Embedding: p.embeddings[track.ID()],
	}
	return p.reporter.Report(reporter.Sighting{
		Label:               label,
		CameraID:            p.cameraID,
		GlobalTime:          globalTime,
		FrameID:             frameID,
		TrackID:             track.ID(),
		BBox:                bbox,
		Confidence:          p.matchDist[track.ID()],
		DetectionConfidence: &detScore,
	}, snap)
}
