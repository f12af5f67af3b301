package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/chordgrid/chordgrid-api/internal/models"
	"github.com/chordgrid/chordgrid-api/internal/services"
	"github.com/gin-gonic/gin"
)

type CorrectionsHandler struct {
	service *services.AnalysisService
}

func NewCorrectionsHandler(service *services.AnalysisService) *CorrectionsHandler {
	return &CorrectionsHandler{service: service}
}

type correctionRequest struct {
	ChordDisplay    string `json:"chordDisplay" binding:"required"`
	OccurrenceIndex *int   `json:"occurrenceIndex" binding:"required"`
	Replacement     string `json:"replacement"`
}

// ApplyCorrection records a relabeling for one occurrence of a chord
// PUT /api/v1/analyses/:recordingID/corrections
func (h *CorrectionsHandler) ApplyCorrection(c *gin.Context) {
	recordingID := c.Param("recordingID")
	c.Set("recording_id", recordingID)

	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("❌ ApplyCorrection: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Replacement == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "replacement is required"})
		return
	}
	if *req.OccurrenceIndex < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "occurrenceIndex must be non-negative"})
		return
	}

	key := models.OccurrenceKey{
		ChordDisplay:    req.ChordDisplay,
		OccurrenceIndex: *req.OccurrenceIndex,
	}
	if err := h.service.ApplyCorrection(c.Request.Context(), recordingID, key, req.Replacement, "user"); err != nil {
		log.Printf("❌ ApplyCorrection: %s: %v", recordingID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("✅ ApplyCorrection: %s %s[%d] -> %s", recordingID, key.ChordDisplay, key.OccurrenceIndex, req.Replacement)
	c.JSON(http.StatusOK, gin.H{
		"recordingId":     recordingID,
		"chordDisplay":    key.ChordDisplay,
		"occurrenceIndex": key.OccurrenceIndex,
		"replacement":     req.Replacement,
	})
}

// RemoveCorrection deletes a correction by its occurrence key
// DELETE /api/v1/analyses/:recordingID/corrections
func (h *CorrectionsHandler) RemoveCorrection(c *gin.Context) {
	recordingID := c.Param("recordingID")
	c.Set("recording_id", recordingID)

	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("❌ RemoveCorrection: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := models.OccurrenceKey{
		ChordDisplay:    req.ChordDisplay,
		OccurrenceIndex: *req.OccurrenceIndex,
	}
	if err := h.service.RemoveCorrection(c.Request.Context(), recordingID, key); err != nil {
		log.Printf("❌ RemoveCorrection: %s: %v", recordingID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recordingId":     recordingID,
		"chordDisplay":    key.ChordDisplay,
		"occurrenceIndex": key.OccurrenceIndex,
		"removed":         true,
	})
}

// AutoCorrect runs the single-beat blip pass and persists the suggestions
// POST /api/v1/analyses/:recordingID/corrections/auto
func (h *CorrectionsHandler) AutoCorrect(c *gin.Context) {
	recordingID := c.Param("recordingID")
	c.Set("recording_id", recordingID)

	count, err := h.service.AutoCorrect(c.Request.Context(), recordingID)
	if err != nil {
		if errors.Is(err, services.ErrNotAnalyzed) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recording has not been analyzed yet"})
			return
		}
		log.Printf("❌ AutoCorrect: %s: %v", recordingID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("✅ AutoCorrect: %s recorded %d corrections", recordingID, count)
	c.JSON(http.StatusOK, gin.H{
		"recordingId": recordingID,
		"applied":     count,
	})
}
