package vision

// gocv DNN-backed implementations of the detector/embedder capabilities.
//
// The detector models are expected to be deployment exports with box
// decoding and NMS baked into the graph, producing [x1, y1, x2, y2, score]
// rows in input-scale pixels. The embedder is an ArcFace-style net taking a
// 112x112 crop and producing a 512-dimensional vector.

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// DNNFaceDetector runs an ONNX face detection model
type DNNFaceDetector struct {
	net       gocv.Net
	inputSize int
	minScore  float32
}

// NewDNNFaceDetector loads the model at path
func NewDNNFaceDetector(path string, inputSize int, minScore float32) (*DNNFaceDetector, error) {
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("failed to read face detector model %s", path)
	}
	return &DNNFaceDetector{net: net, inputSize: inputSize, minScore: minScore}, nil
}

// Detect implements FaceDetector
func (d *DNNFaceDetector) Detect(frame gocv.Mat) ([]Face, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	blob := gocv.BlobFromImage(frame, 1.0/128.0, image.Pt(d.inputSize, d.inputSize),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	rows := out.Total() / 5
	flat := out.Reshape(1, rows)
	defer flat.Close()

	scaleX := float32(frame.Cols()) / float32(d.inputSize)
	scaleY := float32(frame.Rows()) / float32(d.inputSize)

	var faces []Face
	for i := 0; i < rows; i++ {
		score := flat.GetFloatAt(i, 4)
		if score < d.minScore {
			continue
		}
		x1 := int(flat.GetFloatAt(i, 0) * scaleX)
		y1 := int(flat.GetFloatAt(i, 1) * scaleY)
		x2 := int(flat.GetFloatAt(i, 2) * scaleX)
		y2 := int(flat.GetFloatAt(i, 3) * scaleY)
		box := clampRect(image.Rect(x1, y1, x2, y2), frame.Cols(), frame.Rows())
		if box.Empty() {
			continue
		}
		faces = append(faces, Face{Box: box, Score: score})
	}
	return faces, nil
}

// Close releases the underlying network
func (d *DNNFaceDetector) Close() error { return d.net.Close() }

// DNNFaceEmbedder runs an ONNX face recognition model over face crops
type DNNFaceEmbedder struct {
	net gocv.Net
	dim int
}

const embedderInputSize = 112

// NewDNNFaceEmbedder loads the embedding model at path
func NewDNNFaceEmbedder(path string, dim int) (*DNNFaceEmbedder, error) {
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("failed to read face embedder model %s", path)
	}
	return &DNNFaceEmbedder{net: net, dim: dim}, nil
}

// Dim returns the embedding dimension
func (e *DNNFaceEmbedder) Dim() int { return e.dim }

// Embed implements FaceEmbedder
func (e *DNNFaceEmbedder) Embed(frame gocv.Mat, face Face) ([]float32, error) {
	box := clampRect(face.Box, frame.Cols(), frame.Rows())
	if box.Empty() {
		return nil, fmt.Errorf("face box outside frame bounds")
	}

	region := frame.Region(box)
	crop := region.Clone()
	region.Close()
	defer crop.Close()

	blob := gocv.BlobFromImage(crop, 1.0/127.5, image.Pt(embedderInputSize, embedderInputSize),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	out := e.net.Forward("")
	defer out.Close()

	if out.Total() != e.dim {
		return nil, fmt.Errorf("embedder produced %d values (expected %d)", out.Total(), e.dim)
	}

	flat := out.Reshape(1, 1)
	defer flat.Close()

	embedding := make([]float32, e.dim)
	for i := 0; i < e.dim; i++ {
		embedding[i] = flat.GetFloatAt(0, i)
	}
	return embedding, nil
}

// Close releases the underlying network
func (e *DNNFaceEmbedder) Close() error { return e.net.Close() }

// DNNPersonDetector runs an ONNX person detection model
type DNNPersonDetector struct {
	net       gocv.Net
	inputSize int
	minScore  float32
}

// NewDNNPersonDetector loads the model at path
func NewDNNPersonDetector(path string, inputSize int, minScore float32) (*DNNPersonDetector, error) {
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("failed to read person detector model %s", path)
	}
	return &DNNPersonDetector{net: net, inputSize: inputSize, minScore: minScore}, nil
}

// Detect implements PersonDetector
func (d *DNNPersonDetector) Detect(frame gocv.Mat) ([]PersonBox, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(d.inputSize, d.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	rows := out.Total() / 5
	flat := out.Reshape(1, rows)
	defer flat.Close()

	scaleX := float32(frame.Cols()) / float32(d.inputSize)
	scaleY := float32(frame.Rows()) / float32(d.inputSize)

	var boxes []image.Rectangle
	var scores []float32
	for i := 0; i < rows; i++ {
		score := flat.GetFloatAt(i, 4)
		if score < d.minScore {
			continue
		}
		x1 := int(flat.GetFloatAt(i, 0) * scaleX)
		y1 := int(flat.GetFloatAt(i, 1) * scaleY)
		x2 := int(flat.GetFloatAt(i, 2) * scaleX)
		y2 := int(flat.GetFloatAt(i, 3) * scaleY)
		box := clampRect(image.Rect(x1, y1, x2, y2), frame.Cols(), frame.Rows())
		if box.Empty() {
			continue
		}
		boxes = append(boxes, box)
		scores = append(scores, score)
	}

	keep := gocv.NMSBoxes(boxes, scores, d.minScore, 0.45)
	persons := make([]PersonBox, 0, len(keep))
	for _, i := range keep {
		persons = append(persons, PersonBox{Box: boxes[i], Score: scores[i]})
	}
	return persons, nil
}

// Close releases the underlying network
func (d *DNNPersonDetector) Close() error { return d.net.Close() }
