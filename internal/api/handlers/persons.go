package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"copcam-go/internal/reporter"
)

type PersonHandler struct {
	db *reporter.PersonDB
}

func NewPersonHandler(db *reporter.PersonDB) *PersonHandler {
	return &PersonHandler{db: db}
}

// GetPerson returns one person record by ID. A miss is a structured
// error body with 200 status so the dashboard renders it gracefully.
func (h *PersonHandler) GetPerson(c *gin.Context) {
	rec, ok := h.db.Get(c.Param("person_id"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"error": "Person not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListPersons returns all person records partitioned by category
func (h *PersonHandler) ListPersons(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"criminals": h.db.Criminals(),
		"police":    h.db.Police(),
	})
}
