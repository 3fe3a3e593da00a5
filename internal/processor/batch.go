package processor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"copcam-go/internal/config"
	"copcam-go/internal/identity"
	"copcam-go/internal/logging"
	"copcam-go/internal/models"
	"copcam-go/internal/reporter"
	"copcam-go/internal/simulation"
	"copcam-go/internal/tracking"
	"copcam-go/internal/vision"
)

var videoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
}

// Batch processes a directory of CCTV recordings sequentially and
// writes the offline artifact set the replay engine consumes. Videos
// are assigned camera IDs in sorted filename order; global time
// accumulates across videos so the merged timeline spans all cameras
// on one clock.
type Batch struct {
	cfg      *config.Config
	rep      *reporter.Reporter
	resolver *identity.Resolver
	faces    vision.FaceDetector
	embedder vision.FaceEmbedder
	persons  vision.PersonDetector
	log      zerolog.Logger
}

// NewBatch creates a batch processor
func NewBatch(cfg *config.Config, rep *reporter.Reporter, resolver *identity.Resolver,
	faces vision.FaceDetector, embedder vision.FaceEmbedder, persons vision.PersonDetector,
	log zerolog.Logger) *Batch {
	return &Batch{
		cfg:      cfg,
		rep:      rep,
		resolver: resolver,
		faces:    faces,
		embedder: embedder,
		persons:  persons,
		log:      log,
	}
}

// Run processes every video under the configured directory and writes
// detections, timeline, and criminals artifacts to the simulation data
// directory.
func (b *Batch) Run() error {
	videos, err := listVideos(b.cfg.VideoDir)
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		return fmt.Errorf("no videos found in %s", b.cfg.VideoDir)
	}

	cameras := models.DefaultCameras()
	var perCamera [][]models.TimelineEvent
	globalOffset := 0.0

	for i, video := range videos {
		if i >= len(cameras) {
			b.log.Warn().Str("video", video).Msg("More videos than cameras, skipping remainder")
			break
		}
		cameraID := cameras[i].ID
		camLog := logging.WithCamera(b.log, cameraID).With().Str("video", filepath.Base(video)).Logger()
		camLog.Info().Float64("global_offset", globalOffset).Msg("Processing video")

		events, duration, detections, err := b.processVideo(video, cameraID, globalOffset, camLog)
		if err != nil {
			return fmt.Errorf("failed to process %s: %w", video, err)
		}
		globalOffset += duration
		perCamera = append(perCamera, events)

		if err := b.writeDetections(cameraID, detections); err != nil {
			return err
		}
		camLog.Info().Int("detections", len(detections)).Float64("duration", duration).Msg("Video processed")
	}

	timeline := simulation.MergeTimelines(perCamera...)
	if err := b.writeJSON(b.cfg.TimelinePath(), timeline); err != nil {
		return err
	}
	if err := b.writeJSON(b.cfg.CriminalsPath(), b.rep.Criminals()); err != nil {
		return err
	}
	b.log.Info().Int("timeline_events", len(timeline)).Msg("Offline processing complete")
	return nil
}

// processVideo runs one recording through a fresh pipeline. Each video
// gets its own tracker and stabilizer, so track IDs restart at zero per
// camera and votes never bleed across recordings.
func (b *Batch) processVideo(path, cameraID string, globalOffset float64, log zerolog.Logger) ([]models.TimelineEvent, float64, []models.Detection, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to open video: %w", err)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		log.Warn().Float64("default_fps", b.cfg.DefaultFPS).Msg("Video reports no FPS, using default")
		fps = b.cfg.DefaultFPS
	}

	pipeline := NewPipeline(cameraID, PipelineDeps{
		Faces:           b.faces,
		Embedder:        b.embedder,
		Persons:         b.persons,
		Resolver:        b.resolver,
		Tracker:         tracking.NewIOUTracker(b.cfg.TrackerMaxAge, b.cfg.TrackerInitHits, b.cfg.TrackerIOUThreshold),
		Stabilizer:      identity.NewStabilizer(b.cfg.VoteWindow),
		Reporter:        b.rep,
		FaceThreshold:   b.cfg.FaceMatchThreshold,
		PersonThreshold: b.cfg.PersonMatchThreshold,
		FacesDir:        b.cfg.FacesDir(),
		CropPad:         b.cfg.FaceCropPad,
		Log:             log,
	})

	frame := gocv.NewMat()
	defer frame.Close()

	var events []models.TimelineEvent
	var detections []models.Detection
	frameID := 0
	for {
		if ok := capture.Read(&frame); !ok {
			break
		}
		frameID++
		if frame.Empty() {
			continue
		}
		if b.cfg.FrameSkip > 1 && frameID%b.cfg.FrameSkip != 0 {
			continue
		}

		globalTime := globalOffset + float64(frameID)/fps
		dets, err := pipeline.ProcessFrame(frame, frameID, globalTime)
		if err != nil {
			log.Warn().Err(err).Int("frame", frameID).Msg("Frame processing failed")
			continue
		}
		for _, det := range dets {
			detections = append(detections, det)
			events = append(events, models.TimelineEvent{
				GlobalTime: det.Timestamp,
				CameraID:   det.CameraID,
				PersonID:   det.PersonID,
				FrameID:    det.FrameID,
			})
		}
	}

	duration := float64(frameID) / fps
	return events, duration, detections, nil
}

func (b *Batch) writeDetections(cameraID string, detections []models.Detection) error {
	// Within one camera the records sort by (timestamp, frame) so the
	// per-camera files are independently time-ordered.
	sort.SliceStable(detections, func(i, j int) bool {
		if detections[i].Timestamp != detections[j].Timestamp {
			return detections[i].Timestamp < detections[j].Timestamp
		}
		return detections[i].FrameID < detections[j].FrameID
	})
	return b.writeJSON(filepath.Join(b.cfg.DetectionsDir(), cameraID+".json"), detections)
}

func (b *Batch) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func listVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read video directory: %w", err)
	}
	var videos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			videos = append(videos, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(videos)
	return videos, nil
}
