package grid

import (
	"fmt"

	"github.com/chordgrid/chordgrid-api/internal/models"
)

// ConsistencyError reports a persisted chord-to-beat index that exceeds the
// currently loaded beat array. It indicates a stale cache entry built
// against a different-length beat array; the caller decides whether to
// discard the cached analysis. Indices are never clamped.
type ConsistencyError struct {
	MaxChordBeatIndex int
	BeatCount         int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("persisted chord beat index %d out of range for %d beats",
		e.MaxChordBeatIndex, e.BeatCount)
}

// Validate checks a persisted synchronized-chord projection against the beat
// array it is about to be attached to: every beat index must fall inside the
// array. Returns nil when consistent, or a *ConsistencyError describing the
// worst violation.
func Validate(beatCount int, synced []models.SynchronizedChord) error {
	maxIndex := -1
	for _, sc := range synced {
		if sc.BeatIndex > maxIndex {
			maxIndex = sc.BeatIndex
		}
	}
	if maxIndex >= beatCount {
		return &ConsistencyError{MaxChordBeatIndex: maxIndex, BeatCount: beatCount}
	}
	return nil
}
