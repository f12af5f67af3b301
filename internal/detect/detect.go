package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chordgrid/chordgrid-api/internal/models"
)

// BeatDetector invokes the external beat/downbeat detection model.
type BeatDetector interface {
	DetectBeats(ctx context.Context, audioURL string) (*models.BeatDetection, error)
	Name() string
}

// ChordDetector invokes the external chord detection model.
type ChordDetector interface {
	DetectChords(ctx context.Context, audioURL string) (*models.ChordDetection, error)
	Name() string
}

const maxResponseBytes = 16 << 20

// detectRequest is the wire request both detector services accept.
type detectRequest struct {
	AudioURL string `json:"audio_url"`
}

// httpClient is the shared plumbing for the two detector clients: POST a
// JSON body, decode a JSON response. Retry and fallback policy belongs to
// the detector services themselves, not here.
type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string, timeout time.Duration) httpClient {
	return httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c httpClient) postJSON(ctx context.Context, path, audioURL string, out interface{}) error {
	body, err := json.Marshal(detectRequest{AudioURL: audioURL})
	if err != nil {
		return fmt.Errorf("failed to encode detector request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build detector request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("detector request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("detector returned %d: %s", resp.StatusCode, string(payload))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode detector response: %w", err)
	}
	return nil
}
