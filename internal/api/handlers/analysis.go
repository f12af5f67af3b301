package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/chordgrid/chordgrid-api/internal/logger"
	"github.com/chordgrid/chordgrid-api/internal/models"
	"github.com/chordgrid/chordgrid-api/internal/services"
	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	service *services.AnalysisService
}

func NewAnalysisHandler(service *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

type analysisResponse struct {
	RecordingID     string            `json:"recordingId"`
	BeatModelID     string            `json:"beatModelId"`
	ChordModelID    string            `json:"chordModelId"`
	ShiftCount      int               `json:"shiftCount"`
	PaddingCount    int               `json:"paddingCount"`
	BeatsPerMeasure int               `json:"beatsPerMeasure"`
	InvalidLabels   int               `json:"invalidLabels"`
	OverlapTies     int               `json:"overlapTies"`
	FromCache       bool              `json:"fromCache"`
	Cells           []models.GridCell `json:"cells"`
	CorrectionCount int               `json:"correctionCount"`
}

func toResponse(a *services.Analysis) analysisResponse {
	return analysisResponse{
		RecordingID:     a.RecordingID,
		BeatModelID:     a.BeatModelID,
		ChordModelID:    a.ChordModelID,
		ShiftCount:      a.Grid.ShiftCount,
		PaddingCount:    a.Grid.PaddingCount,
		BeatsPerMeasure: a.Grid.BeatsPerMeasure,
		InvalidLabels:   a.Grid.InvalidLabels,
		OverlapTies:     a.Grid.OverlapTies,
		FromCache:       a.FromCache,
		Cells:           a.Grid.Cells,
		CorrectionCount: a.Corrections.Len(),
	}
}

// GetAnalysis builds or returns the cached chord grid for a recording
// GET /api/v1/analyses/:recordingID?audioUrl=...
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	recordingID := c.Param("recordingID")
	c.Set("recording_id", recordingID)
	audioURL := c.Query("audioUrl")

	analysis, err := h.service.GetAnalysis(c.Request.Context(), recordingID, audioURL)
	if err != nil {
		if errors.Is(err, services.ErrAudioURLRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "audioUrl query parameter required for a recording that has not been analyzed"})
			return
		}
		logger.Error("Analysis failed", err, logger.WithContext(c))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toResponse(analysis))
}

// rebuildRequest fields are pointers: an omitted field keeps the cached
// value instead of binding to zero. beatsPerMeasure may be negative to mark
// the signature unknown.
type rebuildRequest struct {
	ShiftCount      *int `json:"shiftCount"`
	PaddingCount    *int `json:"paddingCount"`
	BeatsPerMeasure *int `json:"beatsPerMeasure"`
}

// Rebuild re-derives the grid with new structural parameters
// POST /api/v1/analyses/:recordingID/rebuild
func (h *AnalysisHandler) Rebuild(c *gin.Context) {
	recordingID := c.Param("recordingID")
	c.Set("recording_id", recordingID)

	var req rebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("❌ Rebuild: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if (req.ShiftCount != nil && *req.ShiftCount < 0) || (req.PaddingCount != nil && *req.PaddingCount < 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shiftCount and paddingCount must be non-negative"})
		return
	}

	analysis, err := h.service.Rebuild(c.Request.Context(), recordingID, services.RebuildParams{
		ShiftCount:      req.ShiftCount,
		PaddingCount:    req.PaddingCount,
		BeatsPerMeasure: req.BeatsPerMeasure,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotAnalyzed) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recording has not been analyzed yet"})
			return
		}
		log.Printf("❌ Rebuild: %s: %v", recordingID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("✅ Rebuild: %s shift=%d padding=%d bpm=%d", recordingID, analysis.Grid.ShiftCount, analysis.Grid.PaddingCount, analysis.Grid.BeatsPerMeasure)
	c.JSON(http.StatusOK, toResponse(analysis))
}

// DeleteAnalysis drops the cached analysis for a recording
// DELETE /api/v1/analyses/:recordingID
func (h *AnalysisHandler) DeleteAnalysis(c *gin.Context) {
	recordingID := c.Param("recordingID")
	c.Set("recording_id", recordingID)

	if err := h.service.Invalidate(c.Request.Context(), recordingID); err != nil {
		log.Printf("❌ DeleteAnalysis: %s: %v", recordingID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recordingId": recordingID,
		"deleted":     true,
	})
}

// GetGrid returns the render-ready cells with corrections resolved or not
// GET /api/v1/analyses/:recordingID/grid?corrected=true
func (h *AnalysisHandler) GetGrid(c *gin.Context) {
	recordingID := c.Param("recordingID")
	c.Set("recording_id", recordingID)
	audioURL := c.Query("audioUrl")

	showCorrected := true
	if raw := c.Query("corrected"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "corrected must be a boolean"})
			return
		}
		showCorrected = parsed
	}

	analysis, err := h.service.GetAnalysis(c.Request.Context(), recordingID, audioURL)
	if err != nil {
		if errors.Is(err, services.ErrAudioURLRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "audioUrl query parameter required for a recording that has not been analyzed"})
			return
		}
		logger.Error("Grid read failed", err, logger.WithContext(c))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	g := analysis.Grid
	c.JSON(http.StatusOK, gin.H{
		"recordingId":     recordingID,
		"corrected":       showCorrected,
		"beatsPerMeasure": g.BeatsPerMeasure,
		"cells":           g.DisplayCells(analysis.Corrections, showCorrected),
	})
}
