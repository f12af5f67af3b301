package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/chordgrid/chordgrid-api/internal/models"
)

// HTTPChordDetector talks to the external chord detection service.
type HTTPChordDetector struct {
	httpClient
}

// NewHTTPChordDetector creates a chord detector client for the given base URL.
func NewHTTPChordDetector(baseURL string, timeout time.Duration) *HTTPChordDetector {
	return &HTTPChordDetector{httpClient: newHTTPClient(baseURL, timeout)}
}

func (d *HTTPChordDetector) Name() string { return "chords" }

// DetectChords runs chord detection for one recording. Labels are the
// detector's raw spellings; normalization happens in the alignment core, not
// here.
func (d *HTTPChordDetector) DetectChords(ctx context.Context, audioURL string) (*models.ChordDetection, error) {
	var result models.ChordDetection
	if err := d.postJSON(ctx, "/v1/chords", audioURL, &result); err != nil {
		return nil, fmt.Errorf("chord detection: %w", err)
	}
	if result.ModelID == "" {
		return nil, fmt.Errorf("chord detection: response missing model identifier")
	}
	return &result, nil
}
