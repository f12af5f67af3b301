package models

import (
	"time"

	"gorm.io/gorm"
)

// AnalysisSchemaVersion is the version written to new AnalysisRecord rows.
// Version 1 stored synchronized chord beat indices as floats; version 2
// stores them as integers. Loading is handled by an explicit migration per
// version, never by probing the shape of the stored JSON.
const AnalysisSchemaVersion = 2

// AnalysisRecord caches one completed analysis run, keyed by the recording
// and the pair of detector models that produced it. Detector outputs are
// stored raw so the grid can be rebuilt with different shift/padding without
// re-invoking the detectors.
type AnalysisRecord struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	RecordingID  string `gorm:"uniqueIndex:idx_analysis_key;not null;index" json:"recording_id"`
	BeatModelID  string `gorm:"uniqueIndex:idx_analysis_key;not null" json:"beat_model_id"`
	ChordModelID string `gorm:"uniqueIndex:idx_analysis_key;not null" json:"chord_model_id"`

	SchemaVersion int `gorm:"not null" json:"schema_version"`

	// Raw detector outputs, JSON-encoded.
	BeatsJSON    string `gorm:"type:text;not null" json:"-"`
	SegmentsJSON string `gorm:"type:text;not null" json:"-"`

	// Computed grid projection, JSON-encoded []SynchronizedChord.
	SynchronizedJSON string `gorm:"type:text;not null" json:"-"`

	ShiftCount      int `json:"shift_count"`
	PaddingCount    int `json:"padding_count"`
	BeatsPerMeasure int `json:"beats_per_measure"`
}

// CorrectionRecord persists one user- or system-supplied relabeling, keyed by
// the occurrence key it was created against. BeatTimestamp captures the
// timestamp of the first cell of the corrected run at save time; it is not
// used for lookup today but gives a future stable-identity reattachment
// strategy the data it would need.
type CorrectionRecord struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	RecordingID     string `gorm:"uniqueIndex:idx_correction_key;not null;index" json:"recording_id"`
	ChordDisplay    string `gorm:"uniqueIndex:idx_correction_key;not null" json:"chord_display"`
	OccurrenceIndex int    `gorm:"uniqueIndex:idx_correction_key;not null" json:"occurrence_index"`

	Replacement   string   `gorm:"not null" json:"replacement"`
	Source        string   `gorm:"default:'user'" json:"source"` // "user" or "auto"
	BeatTimestamp *float64 `json:"beat_timestamp,omitempty"`
}

// Key returns the occurrence key this correction is attached to.
func (r CorrectionRecord) Key() OccurrenceKey {
	return OccurrenceKey{ChordDisplay: r.ChordDisplay, OccurrenceIndex: r.OccurrenceIndex}
}
