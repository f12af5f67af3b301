package store

import (
	"encoding/json"
	"fmt"

	"github.com/chordgrid/chordgrid-api/internal/models"
)

// decodeRecord turns a persisted row into a CachedAnalysis, applying the
// migration that matches the row's tagged schema version. There is exactly
// one decoder per version; the stored JSON is never shape-probed.
func decodeRecord(record *models.AnalysisRecord) (*CachedAnalysis, error) {
	analysis := &CachedAnalysis{
		ShiftCount:      record.ShiftCount,
		PaddingCount:    record.PaddingCount,
		BeatsPerMeasure: record.BeatsPerMeasure,
	}

	if err := json.Unmarshal([]byte(record.BeatsJSON), &analysis.Beats); err != nil {
		return nil, fmt.Errorf("failed to decode beats: %w", err)
	}
	if err := json.Unmarshal([]byte(record.SegmentsJSON), &analysis.Chords); err != nil {
		return nil, fmt.Errorf("failed to decode segments: %w", err)
	}

	switch record.SchemaVersion {
	case 1:
		synced, err := decodeSynchronizedV1(record.SynchronizedJSON)
		if err != nil {
			return nil, err
		}
		analysis.Synchronized = synced
	case models.AnalysisSchemaVersion:
		if err := json.Unmarshal([]byte(record.SynchronizedJSON), &analysis.Synchronized); err != nil {
			return nil, fmt.Errorf("failed to decode synchronized chords: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrSchemaVersion, record.SchemaVersion)
	}

	return analysis, nil
}

// synchronizedChordV1 is the version-1 row shape, which stored beat indices
// and beat numbers as floats.
type synchronizedChordV1 struct {
	Chord     string  `json:"chord"`
	BeatIndex float64 `json:"beatIndex"`
	BeatNum   float64 `json:"beatNum"`
}

func decodeSynchronizedV1(raw string) ([]models.SynchronizedChord, error) {
	var v1 []synchronizedChordV1
	if err := json.Unmarshal([]byte(raw), &v1); err != nil {
		return nil, fmt.Errorf("failed to decode v1 synchronized chords: %w", err)
	}

	out := make([]models.SynchronizedChord, len(v1))
	for i, sc := range v1 {
		out[i] = models.SynchronizedChord{
			Chord:     sc.Chord,
			BeatIndex: int(sc.BeatIndex),
			BeatNum:   int(sc.BeatNum),
		}
	}
	return out, nil
}
