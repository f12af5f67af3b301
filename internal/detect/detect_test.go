package detect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPBeatDetector_DetectBeats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/beats", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://cdn.example.com/rec-1.m4a", req["audio_url"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"beats":           []float64{0.48, 0.97, 1.46, 1.95},
			"downbeats":       []float64{0.97},
			"beatsPerMeasure": 4,
			"modelId":         "beat-net-v2",
		})
	}))
	defer server.Close()

	detector := NewHTTPBeatDetector(server.URL, 5*time.Second)
	result, err := detector.DetectBeats(context.Background(), "https://cdn.example.com/rec-1.m4a")
	require.NoError(t, err)

	assert.Equal(t, []float64{0.48, 0.97, 1.46, 1.95}, result.Beats)
	assert.Equal(t, []float64{0.97}, result.Downbeats)
	assert.Equal(t, 4, result.BeatsPerMeasure)
	assert.Equal(t, "beat-net-v2", result.ModelID)
}

func TestHTTPChordDetector_DetectChords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chords", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"segments": []map[string]interface{}{
				{"label": "Ab/C", "startSeconds": 0.0, "endSeconds": 2.1, "confidence": 0.83},
			},
			"modelId": "chord-net-v1",
		})
	}))
	defer server.Close()

	detector := NewHTTPChordDetector(server.URL, 5*time.Second)
	result, err := detector.DetectChords(context.Background(), "https://cdn.example.com/rec-1.m4a")
	require.NoError(t, err)

	require.Len(t, result.Segments, 1)
	assert.Equal(t, "Ab/C", result.Segments[0].Label)
	assert.Equal(t, "chord-net-v1", result.ModelID)
}

func TestDetector_MissingModelID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"beats": []float64{0.5}})
	}))
	defer server.Close()

	detector := NewHTTPBeatDetector(server.URL, 5*time.Second)
	_, err := detector.DetectBeats(context.Background(), "https://cdn.example.com/rec-1.m4a")
	require.Error(t, err)
}

func TestDetector_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	detector := NewHTTPChordDetector(server.URL, 5*time.Second)
	_, err := detector.DetectChords(context.Background(), "https://cdn.example.com/rec-1.m4a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
