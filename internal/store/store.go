package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chordgrid/chordgrid-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSchemaVersion is returned when a persisted record carries a schema
// version this build has no migration for. The caller treats the entry as a
// cache miss and rebuilds from the detectors.
var ErrSchemaVersion = errors.New("unsupported analysis schema version")

// CachedAnalysis is one decoded cache entry: the raw detector outputs plus
// the last computed grid projection and the structural parameters it was
// built with.
type CachedAnalysis struct {
	Beats        models.BeatDetection
	Chords       models.ChordDetection
	Synchronized []models.SynchronizedChord

	ShiftCount      int
	PaddingCount    int
	BeatsPerMeasure int
}

// AnalysisStore persists analysis runs and corrections.
type AnalysisStore struct {
	db *gorm.DB
}

// NewAnalysisStore creates a store over the given database handle.
func NewAnalysisStore(db *gorm.DB) *AnalysisStore {
	return &AnalysisStore{db: db}
}

// Get loads the most recent cached analysis for a recording. A missing entry
// returns (nil, nil).
func (s *AnalysisStore) Get(ctx context.Context, recordingID string) (*CachedAnalysis, error) {
	var record models.AnalysisRecord
	err := s.db.WithContext(ctx).
		Where("recording_id = ?", recordingID).
		Order("updated_at DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis record: %w", err)
	}

	return decodeRecord(&record)
}

// Put upserts the cache entry for (recording, beat model, chord model).
func (s *AnalysisStore) Put(ctx context.Context, recordingID string, analysis *CachedAnalysis) error {
	beatsJSON, err := json.Marshal(analysis.Beats)
	if err != nil {
		return fmt.Errorf("failed to encode beats: %w", err)
	}
	segmentsJSON, err := json.Marshal(analysis.Chords)
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}
	syncedJSON, err := json.Marshal(analysis.Synchronized)
	if err != nil {
		return fmt.Errorf("failed to encode synchronized chords: %w", err)
	}

	record := models.AnalysisRecord{
		RecordingID:      recordingID,
		BeatModelID:      analysis.Beats.ModelID,
		ChordModelID:     analysis.Chords.ModelID,
		SchemaVersion:    models.AnalysisSchemaVersion,
		BeatsJSON:        string(beatsJSON),
		SegmentsJSON:     string(segmentsJSON),
		SynchronizedJSON: string(syncedJSON),
		ShiftCount:       analysis.ShiftCount,
		PaddingCount:     analysis.PaddingCount,
		BeatsPerMeasure:  analysis.BeatsPerMeasure,
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "recording_id"}, {Name: "beat_model_id"}, {Name: "chord_model_id"},
		},
		UpdateAll: true,
	}).Create(&record).Error
}

// Delete removes all cached analyses for a recording, typically after a
// consistency violation.
func (s *AnalysisStore) Delete(ctx context.Context, recordingID string) error {
	return s.db.WithContext(ctx).
		Where("recording_id = ?", recordingID).
		Delete(&models.AnalysisRecord{}).Error
}

// Corrections loads every persisted correction for a recording.
func (s *AnalysisStore) Corrections(ctx context.Context, recordingID string) ([]models.CorrectionRecord, error) {
	var records []models.CorrectionRecord
	err := s.db.WithContext(ctx).
		Where("recording_id = ?", recordingID).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load corrections: %w", err)
	}
	return records, nil
}

// SaveCorrection upserts one correction row.
func (s *AnalysisStore) SaveCorrection(ctx context.Context, record *models.CorrectionRecord) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "recording_id"}, {Name: "chord_display"}, {Name: "occurrence_index"},
		},
		UpdateAll: true,
	}).Create(record).Error
}

// DeleteCorrection removes the correction row for one occurrence key.
func (s *AnalysisStore) DeleteCorrection(ctx context.Context, recordingID string, key models.OccurrenceKey) error {
	return s.db.WithContext(ctx).
		Where("recording_id = ? AND chord_display = ? AND occurrence_index = ?",
			recordingID, key.ChordDisplay, key.OccurrenceIndex).
		Delete(&models.CorrectionRecord{}).Error
}
