package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/chordgrid/chordgrid-api/internal/models"
)

// HTTPBeatDetector talks to the external beat detection service.
type HTTPBeatDetector struct {
	httpClient
}

// NewHTTPBeatDetector creates a beat detector client for the given base URL.
func NewHTTPBeatDetector(baseURL string, timeout time.Duration) *HTTPBeatDetector {
	return &HTTPBeatDetector{httpClient: newHTTPClient(baseURL, timeout)}
}

func (d *HTTPBeatDetector) Name() string { return "beats" }

// DetectBeats runs beat/downbeat detection for one recording. Beat
// timestamps come back ordered and strictly increasing; the model identifier
// is opaque and passed through for display and cache keying only.
func (d *HTTPBeatDetector) DetectBeats(ctx context.Context, audioURL string) (*models.BeatDetection, error) {
	var result models.BeatDetection
	if err := d.postJSON(ctx, "/v1/beats", audioURL, &result); err != nil {
		return nil, fmt.Errorf("beat detection: %w", err)
	}
	if result.ModelID == "" {
		return nil, fmt.Errorf("beat detection: response missing model identifier")
	}
	return &result, nil
}
