package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BrokerStatus reports whether the message broker is reachable
type BrokerStatus interface {
	IsConnected() bool
}

type HealthHandler struct {
	Version        string
	SimulationMode bool
	broker         BrokerStatus
}

func NewHealthHandler(version string, simulationMode bool, broker BrokerStatus) *HealthHandler {
	return &HealthHandler{Version: version, SimulationMode: simulationMode, broker: broker}
}

type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	SimulationMode bool   `json:"simulation_mode"`
	NatsConnected  bool   `json:"nats_connected"`
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:         "healthy",
		Version:        h.Version,
		SimulationMode: h.SimulationMode,
	}
	if h.broker != nil {
		resp.NatsConnected = h.broker.IsConnected()
	}
	c.JSON(http.StatusOK, resp)
}
