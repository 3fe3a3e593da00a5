package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"copcam-go/internal/logging"
	"copcam-go/internal/models"
	"copcam-go/internal/store"
)

// Broadcaster pushes a serialized detection event to live subscribers
type Broadcaster interface {
	Broadcast(data []byte)
}

// AlertPublisher fans a category-B alert out to the message broker
type AlertPublisher interface {
	PublishAlert(ctx context.Context, data []byte) error
}

type DetectionHandler struct {
	store       *store.DetectionStore
	broadcaster Broadcaster
	alerts      AlertPublisher
	log         zerolog.Logger
}

func NewDetectionHandler(st *store.DetectionStore, broadcaster Broadcaster, alerts AlertPublisher, log zerolog.Logger) *DetectionHandler {
	return &DetectionHandler{store: st, broadcaster: broadcaster, alerts: alerts, log: log}
}

// ReportDetection ingests one live detection event. Positive category-B
// events are pushed to WebSocket subscribers and the alerts subject
// immediately; category A and negative reports are recorded only.
func (h *DetectionHandler) ReportDetection(c *gin.Context) {
	var in models.DetectionCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		logging.Warn(c).Err(err).Msg("Rejected malformed detection payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := in.Validate(); err != nil {
		logging.Warn(c).Err(err).Msg("Rejected invalid detection payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := h.store.Add(in)
	h.log.Info().
		Int("id", event.ID).
		Str("category", string(event.Category)).
		Str("camera_id", event.CameraID).
		Str("person_id", event.PersonID).
		Msg("Detection reported")

	if event.Detected && event.Category == models.CategoryCriminal {
		h.publish(c, &event)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "id": event.ID})
}

func (h *DetectionHandler) publish(c *gin.Context, event *models.DetectionEvent) {
	data, err := event.ToJSON()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode detection event")
		return
	}
	if h.broadcaster != nil {
		h.broadcaster.Broadcast(data)
	}
	if h.alerts != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.alerts.PublishAlert(ctx, data); err != nil {
			h.log.Warn().Err(err).Int("id", event.ID).Msg("Failed to publish alert")
		}
	}
}

// GetDetections returns every detection event received this run
func (h *DetectionHandler) GetDetections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"detections": h.store.All()})
}
