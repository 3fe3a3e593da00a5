package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"copcam-go/internal/models"
)

type CameraHandler struct {
	cameras []models.Camera
}

func NewCameraHandler() *CameraHandler {
	return &CameraHandler{cameras: models.DefaultCameras()}
}

// ListCameras returns the static camera registry for the dashboard map
func (h *CameraHandler) ListCameras(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cameras": h.cameras})
}
