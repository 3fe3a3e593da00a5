package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"copcam-go/internal/api"
	"copcam-go/internal/config"
	"copcam-go/internal/logging"
	"copcam-go/internal/messaging"
	"copcam-go/internal/models"
	"copcam-go/internal/reporter"
	"copcam-go/internal/simulation"
	"copcam-go/internal/store"
	"copcam-go/internal/ws"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg := config.Load()

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Optionally tee logs into the embedded Logdy UI
	if cfg.LogdyEnabled {
		if writer, url, err := logging.StartLogdy(cfg); err == nil {
			console := zerolog.ConsoleWriter{Out: os.Stderr}
			log.Logger = log.Output(io.MultiWriter(console, writer))
			log.Info().Str("url", url).Msg("Logs mirrored to Logdy")
		} else {
			log.Warn().Err(err).Msg("Failed to start Logdy, continuing with console logging")
		}
	}

	log.Info().
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Bool("simulation_mode", cfg.SimulationMode).
		Msg("Starting Cop-Cam backend")

	// Person database backs the enrichment and person lookup endpoints
	persons, err := reporter.LoadPersonDB(cfg.PersonDBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.PersonDBPath).Msg("Failed to load person database")
	}

	detectionStore := store.NewDetectionStore(persons)
	hub := ws.NewHub(logging.NewServiceLogger(cfg, "ws"))

	// NATS alert fan-out is optional; the backend serves without a broker
	var nats *messaging.Service
	if cfg.NatsEnabled {
		nats, err = messaging.NewService(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, alerts disabled")
			nats = nil
		}
	}

	// In simulation mode the offline artifacts drive the replay engine
	var simData *simulation.Data
	if cfg.SimulationMode {
		simData, err = simulation.Load(cfg.SimulationDataDir)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.SimulationDataDir).Msg("No simulation data, replay disabled")
		} else {
			log.Info().Int("timeline_events", len(simData.Timeline)).Msg("Simulation data loaded")
			seedPersonDB(persons, simData)
		}
	}
	replay := simulation.NewReplay(simData, detectionStore, hub,
		logging.NewServiceLogger(cfg, "replay"), simulation.WithAlerts(nats))

	server := api.NewServer(cfg, api.Deps{
		Store:   detectionStore,
		Persons: persons,
		Replay:  replay,
		Hub:     hub,
		Alerts:  nats,
	})
	if err := server.Setup(); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up server")
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	if cfg.SimulationMode && cfg.ReplayAutoStart && simData != nil {
		go func() {
			time.Sleep(cfg.ReplayStartDelay)
			if err := replay.Start(cfg.ReplaySpeed); err != nil {
				log.Warn().Err(err).Msg("Replay auto-start failed")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	replay.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := nats.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("NATS shutdown failed")
	}
	if err := server.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	} else {
		log.Info().Msg("Server shutdown complete")
	}
}

// seedPersonDB backfills person records from the offline criminals
// metadata so lookups resolve before the replay reaches a sighting.
// Existing records are never overwritten.
func seedPersonDB(persons *reporter.PersonDB, data *simulation.Data) {
	for personID, meta := range data.Criminals {
		err := persons.AddPerson(models.PersonRecord{
			PersonID:  personID,
			Name:      meta.Name,
			Category:  models.CategoryCriminal,
			ImagePath: meta.FaceImage,
			Crime:     meta.Crime,
		})
		if err != nil {
			log.Warn().Err(err).Str("person_id", personID).Msg("Failed to seed person record")
		}
	}
}
