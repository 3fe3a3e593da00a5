package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// Face is one detected face in a frame
type Face struct {
	Box   image.Rectangle
	Score float32
}

// PersonBox is one detected whole-person box in a frame
type PersonBox struct {
	Box   image.Rectangle
	Score float32
}

// FaceDetector locates faces in a frame. Implementations wrap whatever
// model the deployment ships; the pipeline only depends on this contract.
type FaceDetector interface {
	Detect(frame gocv.Mat) ([]Face, error)
	Close() error
}

// FaceEmbedder produces a fixed-dimension embedding for a detected face
type FaceEmbedder interface {
	Embed(frame gocv.Mat, face Face) ([]float32, error)
	Dim() int
	Close() error
}

// PersonDetector locates whole-person boxes, used by the secondary
// crop re-identification path.
type PersonDetector interface {
	Detect(frame gocv.Mat) ([]PersonBox, error)
	Close() error
}
