package store

import (
	"errors"
	"testing"

	"github.com/chordgrid/chordgrid-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseRecord(version int, syncedJSON string) *models.AnalysisRecord {
	return &models.AnalysisRecord{
		RecordingID:      "rec-1",
		BeatModelID:      "beat-net-v2",
		ChordModelID:     "chord-net-v1",
		SchemaVersion:    version,
		BeatsJSON:        `{"beats":[0.5,1.0,1.5],"modelId":"beat-net-v2"}`,
		SegmentsJSON:     `{"segments":[{"label":"C","startSeconds":0,"endSeconds":2,"confidence":0.9}],"modelId":"chord-net-v1"}`,
		SynchronizedJSON: syncedJSON,
		ShiftCount:       1,
		PaddingCount:     2,
		BeatsPerMeasure:  4,
	}
}

func TestDecodeRecord_CurrentVersion(t *testing.T) {
	record := baseRecord(models.AnalysisSchemaVersion,
		`[{"chord":"C","beatIndex":0,"beatNum":1},{"chord":"G","beatIndex":2,"beatNum":3}]`)

	analysis, err := decodeRecord(record)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.5, 1.0, 1.5}, analysis.Beats.Beats)
	assert.Equal(t, "beat-net-v2", analysis.Beats.ModelID)
	assert.Equal(t, "chord-net-v1", analysis.Chords.ModelID)
	assert.Len(t, analysis.Synchronized, 2)
	assert.Equal(t, 2, analysis.Synchronized[1].BeatIndex)
	assert.Equal(t, 1, analysis.ShiftCount)
	assert.Equal(t, 2, analysis.PaddingCount)
	assert.Equal(t, 4, analysis.BeatsPerMeasure)
}

func TestDecodeRecord_MigratesV1Floats(t *testing.T) {
	record := baseRecord(1,
		`[{"chord":"Fm7","beatIndex":3.0,"beatNum":4.0}]`)

	analysis, err := decodeRecord(record)
	require.NoError(t, err)

	require.Len(t, analysis.Synchronized, 1)
	assert.Equal(t, models.SynchronizedChord{Chord: "Fm7", BeatIndex: 3, BeatNum: 4}, analysis.Synchronized[0])
}

func TestDecodeRecord_UnknownVersion(t *testing.T) {
	record := baseRecord(99, `[]`)

	_, err := decodeRecord(record)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaVersion))
}

func TestDecodeRecord_CorruptJSON(t *testing.T) {
	record := baseRecord(models.AnalysisSchemaVersion, `not json`)

	_, err := decodeRecord(record)
	require.Error(t, err)
}
