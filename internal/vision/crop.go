package vision

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"copcam-go/internal/models"
)

// clampRect clips a rectangle to frame bounds
func clampRect(r image.Rectangle, width, height int) image.Rectangle {
	return r.Intersect(image.Rect(0, 0, width, height))
}

// PaddedCrop returns a copy of the frame region around box, expanded by
// pad pixels on every side and clamped to the frame bounds. The caller
// owns the returned Mat.
func PaddedCrop(frame gocv.Mat, box models.BBox, pad int) (gocv.Mat, error) {
	r := image.Rect(box[0]-pad, box[1]-pad, box[2]+pad, box[3]+pad)
	r = clampRect(r, frame.Cols(), frame.Rows())
	if r.Empty() {
		return gocv.Mat{}, fmt.Errorf("crop region outside frame bounds")
	}
	region := frame.Region(r)
	crop := region.Clone()
	region.Close()
	return crop, nil
}

// Snapshot captures one frame plus the face box and embedding of a
// stabilized sighting. The reporter uses it to persist the first-seen
// face image without depending on gocv itself.
type Snapshot struct {
	Frame     gocv.Mat
	Box       models.BBox
	Pad       int
	Dir       string
	Embedding []float32
}

// SaveFace writes the padded face crop as <personID>_<cameraID>.jpg under
// the snapshot directory and returns the path relative to the simulation
// data root (the form stored in detection records).
func (s Snapshot) SaveFace(personID, cameraID string) (string, error) {
	crop, err := PaddedCrop(s.Frame, s.Box, s.Pad)
	if err != nil {
		return "", err
	}
	defer crop.Close()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create faces directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.jpg", personID, cameraID)
	path := filepath.Join(s.Dir, filename)
	if ok := gocv.IMWrite(path, crop); !ok {
		return "", fmt.Errorf("failed to write face image %s", path)
	}
	return filepath.Join("faces", filename), nil
}

// FaceEmbedding returns the track's latest embedding, if one was captured
func (s Snapshot) FaceEmbedding() []float32 { return s.Embedding }
