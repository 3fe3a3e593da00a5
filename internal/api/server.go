package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"copcam-go/internal/api/handlers"
	"copcam-go/internal/config"
	"copcam-go/internal/messaging"
	"copcam-go/internal/reporter"
	"copcam-go/internal/simulation"
	"copcam-go/internal/store"
	"copcam-go/internal/ws"
)

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler     *handlers.HealthHandler
	detectionHandler  *handlers.DetectionHandler
	personHandler     *handlers.PersonHandler
	cameraHandler     *handlers.CameraHandler
	simulationHandler *handlers.SimulationHandler
	wsHandler         *ws.Handler
}

// Deps are the services the API serves
type Deps struct {
	Store   *store.DetectionStore
	Persons *reporter.PersonDB
	Replay  *simulation.Replay
	Hub     *ws.Hub
	Alerts  *messaging.Service
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	apiLog := log.With().Str("component", "api").Logger()

	return &Server{
		config:            cfg,
		router:            router,
		healthHandler:     handlers.NewHealthHandler(cfg.Version, cfg.SimulationMode, deps.Alerts),
		detectionHandler:  handlers.NewDetectionHandler(deps.Store, deps.Hub, deps.Alerts, apiLog),
		personHandler:     handlers.NewPersonHandler(deps.Persons),
		cameraHandler:     handlers.NewCameraHandler(),
		simulationHandler: handlers.NewSimulationHandler(deps.Replay, cfg.SimulationMode, apiLog),
		wsHandler:         ws.NewHandler(deps.Hub, apiLog),
	}
}

func (s *Server) Setup() error {
	s.setupMiddleware()

	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}

	return nil
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting backend API")
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping backend API")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetServer() *http.Server {
	return s.server
}
