package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"copcam-go/internal/config"
	"copcam-go/internal/gallery"
	"copcam-go/internal/vision"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// galleryctl ingests reference photos into the embedding gallery.
// Layout: one directory per person under the root, directory name is
// the person's label, each photo becomes one "name-variant" entry.
func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	root := "reference_photos"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	index, err := gallery.LoadIndex(cfg.GalleryPath, cfg.EmbeddingDim)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.GalleryPath).Msg("Failed to load gallery")
	}

	faces, err := vision.NewDNNFaceDetector(cfg.FaceDetectorModel, cfg.DetectorInputSize, 0.5)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load face detector")
	}
	defer faces.Close()

	embedder, err := vision.NewDNNFaceEmbedder(cfg.FaceEmbedderModel, cfg.EmbeddingDim)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load face embedder")
	}
	defer embedder.Close()

	persons, err := os.ReadDir(root)
	if err != nil {
		log.Fatal().Err(err).Str("root", root).Msg("Failed to read photo directory")
	}

	added, skipped := 0, 0
	for _, person := range persons {
		if !person.IsDir() {
			continue
		}
		name := person.Name()
		photos, err := os.ReadDir(filepath.Join(root, name))
		if err != nil {
			log.Warn().Err(err).Str("person", name).Msg("Skipping unreadable person directory")
			continue
		}

		for _, photo := range photos {
			if photo.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(photo.Name()))] {
				continue
			}
			path := filepath.Join(root, name, photo.Name())
			if ingestPhoto(index, faces, embedder, name, path) {
				added++
			} else {
				skipped++
			}
		}
	}

	if err := index.Save(); err != nil {
		log.Fatal().Err(err).Msg("Failed to save gallery")
	}
	log.Info().
		Int("added", added).
		Int("skipped", skipped).
		Int("entries", index.Len()).
		Str("path", cfg.GalleryPath).
		Msg("Gallery ingestion complete")
}

// ingestPhoto embeds the most confident face in one reference photo.
// Unreadable files and photos with no detectable face are skipped.
func ingestPhoto(index *gallery.Index, faces vision.FaceDetector, embedder vision.FaceEmbedder, name, path string) bool {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		log.Warn().Str("path", path).Msg("Skipping unreadable image")
		return false
	}
	defer img.Close()

	detected, err := faces.Detect(img)
	if err != nil || len(detected) == 0 {
		log.Warn().Err(err).Str("path", path).Msg("Skipping image with no detectable face")
		return false
	}

	best := detected[0]
	for _, f := range detected[1:] {
		if f.Score > best.Score {
			best = f
		}
	}

	embedding, err := embedder.Embed(img, best)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Skipping image, embedding failed")
		return false
	}

	variant := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	label := name + "-" + variant
	if err := index.Add(label, embedding); err != nil {
		log.Warn().Err(err).Str("label", label).Msg("Skipping image, gallery insert failed")
		return false
	}
	log.Debug().Str("label", label).Msg("Reference embedding added")
	return true
}
