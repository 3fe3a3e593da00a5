package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"copcam-go/internal/config"
	"copcam-go/internal/gallery"
	"copcam-go/internal/identity"
	"copcam-go/internal/logging"
	"copcam-go/internal/messaging"
	"copcam-go/internal/processor"
	"copcam-go/internal/reporter"
	"copcam-go/internal/vision"
)

// preprocess runs the offline pipeline over a directory of CCTV
// recordings and writes the simulation artifacts the backend replays.
func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("video_dir", cfg.VideoDir).
		Str("data_dir", cfg.SimulationDataDir).
		Msg("Starting offline preprocessing")

	poi, err := reporter.LoadPOI(cfg.POIPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.POIPath).Msg("Failed to load POI list")
	}
	log.Info().Int("persons_of_interest", len(poi)).Msg("POI list loaded")

	index, err := gallery.LoadIndex(cfg.GalleryPath, cfg.EmbeddingDim)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.GalleryPath).Msg("Failed to load gallery")
	}
	if index.Len() == 0 {
		log.Fatal().Str("path", cfg.GalleryPath).Msg("Gallery is empty, run galleryctl first")
	}
	log.Info().Int("entries", index.Len()).Msg("Gallery loaded")

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

	persons, err := vision.NewDNNPersonDetector(cfg.PersonDetectorModel, cfg.DetectorInputSize, 0.5)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load person detector")
	}
	defer persons.Close()

	db, err := reporter.LoadPersonDB(cfg.PersonDBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.PersonDBPath).Msg("Failed to load person database")
	}

	resolverOpts := []identity.Option{}
	if cfg.EchoBackEnabled {
		resolverOpts = append(resolverOpts, identity.WithEchoBack(cfg.EchoBackThreshold))
	}
	resolver := identity.NewResolver(index, cfg.EmbeddingDim, logging.NewServiceLogger(cfg, "resolver"), resolverOpts...)

	// Category-B first sightings go out on the alerts subject even during
	// offline runs, so a monitoring consumer sees them as they are found
	reporterOpts := []reporter.Option{}
	if cfg.NatsEnabled {
		if nats, err := messaging.NewService(cfg); err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, alerts disabled")
		} else {
			defer nats.Shutdown(context.Background())
			reporterOpts = append(reporterOpts, reporter.WithAlertPublisher(nats))
		}
	}

	rep := reporter.New(reporter.NewRegistry(poi), db, cfg.EmbeddingsDir(),
		logging.NewServiceLogger(cfg, "reporter"), reporterOpts...)

	batch := processor.NewBatch(cfg, rep, resolver, faces, embedder, persons, logging.NewServiceLogger(cfg, "processor"))
	if err := batch.Run(); err != nil {
		log.Fatal().Err(err).Msg("Offline preprocessing failed")
	}

	if cfg.EchoBackEnabled {
		if err := index.Save(); err != nil {
			log.Warn().Err(err).Msg("Failed to persist updated gallery")
		}
	}
	log.Info().Msg("Preprocessing finished")
}
