package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	// Create a span for API request tracking using the request context
	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordGridBuild records one full fusion pipeline run as a span, tagged
// with the detector models so regressions can be traced to a model change.
func (m *SentryMetrics) RecordGridBuild(ctx context.Context, beatModelID, chordModelID string, beatCount, cellCount int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "grid.build")
	defer span.Finish()

	span.SetTag("beat_model", beatModelID)
	span.SetTag("chord_model", chordModelID)
	span.SetData("beat_count", beatCount)
	span.SetData("cell_count", cellCount)
	span.SetData("duration_ms", duration.Milliseconds())
	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Grid build: %d beats", beatCount)
}

// RecordDetectorCall records one external detector invocation as a span.
func (m *SentryMetrics) RecordDetectorCall(ctx context.Context, detector, modelID string, duration time.Duration, err error) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "detector.invoke")
	defer span.Finish()

	span.SetTag("detector", detector)
	if modelID != "" {
		span.SetTag("model", modelID)
	}
	span.SetData("duration_ms", duration.Milliseconds())

	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		span.SetData("error", err.Error())
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Description = fmt.Sprintf("Detector: %s", detector)
}
