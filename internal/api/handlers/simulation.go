package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"copcam-go/internal/simulation"
)

type SimulationHandler struct {
	replay  *simulation.Replay
	enabled bool
	log     zerolog.Logger
}

func NewSimulationHandler(replay *simulation.Replay, enabled bool, log zerolog.Logger) *SimulationHandler {
	return &SimulationHandler{replay: replay, enabled: enabled, log: log}
}

// Start launches the timeline replay. speed is an optional query
// parameter; a missing value falls back to 1.0. State errors (disabled
// mode, already running, no data) are structured error bodies with 200
// status, not HTTP failures.
func (h *SimulationHandler) Start(c *gin.Context) {
	if !h.enabled {
		c.JSON(http.StatusOK, gin.H{"error": "simulation mode is disabled"})
		return
	}

	speed := 1.0
	if raw := c.Query("speed"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "speed must be a positive number"})
			return
		}
		speed = parsed
	}

	if err := h.replay.Start(speed); err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started", "speed": speed})
}

// Stop halts a running replay; stopping an idle replay is a no-op
func (h *SimulationHandler) Stop(c *gin.Context) {
	h.replay.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// Status reports the replay engine state
func (h *SimulationHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.replay.Status(h.enabled))
}
