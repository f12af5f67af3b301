package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chordgrid/chordgrid-api/internal/chords"
	"github.com/chordgrid/chordgrid-api/internal/detect"
	"github.com/chordgrid/chordgrid-api/internal/grid"
	"github.com/chordgrid/chordgrid-api/internal/logger"
	"github.com/chordgrid/chordgrid-api/internal/metrics"
	"github.com/chordgrid/chordgrid-api/internal/models"
	"github.com/chordgrid/chordgrid-api/internal/store"
)

// ErrNotAnalyzed is returned when an operation needs a cached analysis that
// does not exist yet.
var ErrNotAnalyzed = errors.New("recording has not been analyzed")

// ErrAudioURLRequired is returned when a recording has no cached analysis and
// no audio URL was supplied to run the detectors with.
var ErrAudioURLRequired = errors.New("audio URL required")

// Store is the persistence surface the service needs. Implemented by
// *store.AnalysisStore.
type Store interface {
	Get(ctx context.Context, recordingID string) (*store.CachedAnalysis, error)
	Put(ctx context.Context, recordingID string, analysis *store.CachedAnalysis) error
	Delete(ctx context.Context, recordingID string) error
	Corrections(ctx context.Context, recordingID string) ([]models.CorrectionRecord, error)
	SaveCorrection(ctx context.Context, record *models.CorrectionRecord) error
	DeleteCorrection(ctx context.Context, recordingID string, key models.OccurrenceKey) error
}

// Analysis is one recording's fused timeline plus its attached corrections.
// The grid is immutable; corrections are the only mutable state and belong
// to this analysis instance.
type Analysis struct {
	RecordingID  string
	BeatModelID  string
	ChordModelID string
	Grid         *grid.Grid
	Corrections  *grid.Corrections
	FromCache    bool
}

// AnalysisService orchestrates detector invocation, the cache store, grid
// builds, and correction persistence.
type AnalysisService struct {
	store         Store
	beats         detect.BeatDetector
	chordDetector detect.ChordDetector
	cloudwatch    *metrics.Client
	sentryMetrics *metrics.SentryMetrics
	cacheSize     int
}

// NewAnalysisService wires the service.
func NewAnalysisService(s Store, beats detect.BeatDetector, chordDetector detect.ChordDetector, cloudwatch *metrics.Client, normalizerCacheSize int) *AnalysisService {
	return &AnalysisService{
		store:         s,
		beats:         beats,
		chordDetector: chordDetector,
		cloudwatch:    cloudwatch,
		sentryMetrics: metrics.NewSentryMetrics(),
		cacheSize:     normalizerCacheSize,
	}
}

// GetAnalysis returns the fused grid for a recording, from cache when
// possible. A cached entry whose persisted projection fails the consistency
// check is discarded and rebuilt from the raw detector outputs stored
// alongside it; the detectors are only re-invoked on a true miss.
func (s *AnalysisService) GetAnalysis(ctx context.Context, recordingID, audioURL string) (*Analysis, error) {
	cached, err := s.store.Get(ctx, recordingID)
	if err != nil {
		if errors.Is(err, store.ErrSchemaVersion) {
			logger.Warn("Cached analysis has unsupported schema version, rebuilding", logger.Fields{
				"recording_id": recordingID,
			})
			cached = nil
		} else {
			return nil, err
		}
	}

	fromCache := cached != nil
	if cached == nil {
		cached, err = s.detect(ctx, recordingID, audioURL)
		if err != nil {
			return nil, err
		}
	}

	g := s.build(ctx, cached)

	if fromCache {
		if verr := grid.Validate(len(g.Cells), cached.Synchronized); verr != nil {
			// Stale cache entry: the persisted projection was built against
			// a different-length beat array. Surface it, never clamp.
			logger.Warn("Cached grid failed consistency check, invalidating", logger.Fields{
				"recording_id": recordingID,
				"detail":       verr.Error(),
			})
			if s.cloudwatch != nil {
				s.cloudwatch.RecordCacheInvalidation()
			}
			cached.Synchronized = g.SynchronizedChords()
			if err := s.store.Put(ctx, recordingID, cached); err != nil {
				return nil, fmt.Errorf("failed to refresh invalidated cache entry: %w", err)
			}
		}
	} else {
		cached.Synchronized = g.SynchronizedChords()
		cached.ShiftCount = g.ShiftCount
		cached.PaddingCount = g.PaddingCount
		cached.BeatsPerMeasure = g.BeatsPerMeasure
		if err := s.store.Put(ctx, recordingID, cached); err != nil {
			return nil, fmt.Errorf("failed to persist analysis: %w", err)
		}
	}

	corrections, err := s.loadCorrections(ctx, recordingID)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		RecordingID:  recordingID,
		BeatModelID:  cached.Beats.ModelID,
		ChordModelID: cached.Chords.ModelID,
		Grid:         g,
		Corrections:  corrections,
		FromCache:    fromCache,
	}, nil
}

// RebuildParams carries the structural parameters of a rebuild. Nil fields
// keep the cached value, so a shift-only nudge never clobbers the
// detector-reported time signature. A negative BeatsPerMeasure marks the
// signature unknown (every beat gets position 1).
type RebuildParams struct {
	ShiftCount      *int
	PaddingCount    *int
	BeatsPerMeasure *int
}

// Rebuild re-derives the grid from the cached detector outputs with new
// structural parameters. Corrections are reattached by occurrence key; keys
// that no longer resolve simply stop matching (best effort, see the
// correction model notes).
func (s *AnalysisService) Rebuild(ctx context.Context, recordingID string, params RebuildParams) (*Analysis, error) {
	cached, err := s.store.Get(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return nil, ErrNotAnalyzed
	}

	if params.ShiftCount != nil {
		cached.ShiftCount = *params.ShiftCount
	}
	if params.PaddingCount != nil {
		cached.PaddingCount = *params.PaddingCount
	}
	if params.BeatsPerMeasure != nil {
		cached.BeatsPerMeasure = *params.BeatsPerMeasure
	}

	g := s.build(ctx, cached)
	cached.Synchronized = g.SynchronizedChords()
	cached.ShiftCount = g.ShiftCount
	cached.PaddingCount = g.PaddingCount
	cached.BeatsPerMeasure = g.BeatsPerMeasure

	if err := s.store.Put(ctx, recordingID, cached); err != nil {
		return nil, fmt.Errorf("failed to persist rebuilt analysis: %w", err)
	}

	corrections, err := s.loadCorrections(ctx, recordingID)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		RecordingID:  recordingID,
		BeatModelID:  cached.Beats.ModelID,
		ChordModelID: cached.Chords.ModelID,
		Grid:         g,
		Corrections:  corrections,
		FromCache:    true,
	}, nil
}

// ApplyCorrection records a relabeling for one occurrence key. The original
// grid data is never touched; corrections resolve at read time.
func (s *AnalysisService) ApplyCorrection(ctx context.Context, recordingID string, key models.OccurrenceKey, replacement, source string) error {
	if replacement == "" {
		return fmt.Errorf("replacement label must not be empty")
	}
	if source == "" {
		source = "user"
	}

	record := &models.CorrectionRecord{
		RecordingID:     recordingID,
		ChordDisplay:    key.ChordDisplay,
		OccurrenceIndex: key.OccurrenceIndex,
		Replacement:     replacement,
		Source:          source,
	}

	// Capture the run's current timestamp so a future stable-identity
	// reattachment strategy has something to match on.
	if cached, err := s.store.Get(ctx, recordingID); err == nil && cached != nil {
		g := s.build(ctx, cached)
		for i, k := range g.Keys {
			if k == key {
				record.BeatTimestamp = g.Cells[i].TimestampSeconds
				break
			}
		}
	}

	return s.store.SaveCorrection(ctx, record)
}

// RemoveCorrection deletes the relabeling for one occurrence key.
func (s *AnalysisService) RemoveCorrection(ctx context.Context, recordingID string, key models.OccurrenceKey) error {
	return s.store.DeleteCorrection(ctx, recordingID, key)
}

// Invalidate drops the cached analysis so the next read re-runs the
// detectors. Corrections are kept; they reattach by occurrence key.
func (s *AnalysisService) Invalidate(ctx context.Context, recordingID string) error {
	return s.store.Delete(ctx, recordingID)
}

// AutoCorrect runs the sequence-correction pass over the current grid and
// persists each suggestion as an "auto" correction. Returns how many were
// recorded.
func (s *AnalysisService) AutoCorrect(ctx context.Context, recordingID string) (int, error) {
	cached, err := s.store.Get(ctx, recordingID)
	if err != nil {
		return 0, err
	}
	if cached == nil {
		return 0, ErrNotAnalyzed
	}

	g := s.build(ctx, cached)
	suggestions := g.SuggestSequenceCorrections()
	for key, replacement := range suggestions {
		if err := s.ApplyCorrection(ctx, recordingID, key, replacement, "auto"); err != nil {
			return 0, err
		}
	}

	if len(suggestions) > 0 {
		logger.Info("Sequence-correction pass recorded corrections", logger.Fields{
			"recording_id": recordingID,
			"count":        len(suggestions),
		})
	}
	return len(suggestions), nil
}

// detect invokes both external detectors for a recording.
func (s *AnalysisService) detect(ctx context.Context, recordingID, audioURL string) (*store.CachedAnalysis, error) {
	if audioURL == "" {
		return nil, fmt.Errorf("cannot analyze %s: %w", recordingID, ErrAudioURLRequired)
	}

	start := time.Now()
	beats, err := s.beats.DetectBeats(ctx, audioURL)
	s.sentryMetrics.RecordDetectorCall(ctx, s.beats.Name(), modelID(beats), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if s.cloudwatch != nil {
		s.cloudwatch.RecordDetectorLatency(s.beats.Name(), beats.ModelID, time.Since(start))
	}

	start = time.Now()
	chordResult, err := s.chordDetector.DetectChords(ctx, audioURL)
	s.sentryMetrics.RecordDetectorCall(ctx, s.chordDetector.Name(), chordModelID(chordResult), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if s.cloudwatch != nil {
		s.cloudwatch.RecordDetectorLatency(s.chordDetector.Name(), chordResult.ModelID, time.Since(start))
	}

	logger.Info("Detection complete", logger.Fields{
		"recording_id": recordingID,
		"beat_model":   beats.ModelID,
		"chord_model":  chordResult.ModelID,
		"beats":        len(beats.Beats),
		"segments":     len(chordResult.Segments),
	})

	return &store.CachedAnalysis{
		Beats:           *beats,
		Chords:          *chordResult,
		ShiftCount:      beats.ShiftCount,
		PaddingCount:    beats.PaddingCount,
		BeatsPerMeasure: beats.BeatsPerMeasure,
	}, nil
}

// build runs the fusion pipeline over one cache entry. Each run gets its own
// normalizer so the memo cache stays session-owned.
func (s *AnalysisService) build(ctx context.Context, cached *store.CachedAnalysis) *grid.Grid {
	start := time.Now()
	g := grid.Build(cached.Beats.Beats, cached.Chords.Segments, chords.NewNormalizer(s.cacheSize), grid.BuildOptions{
		BeatsPerMeasure: cached.BeatsPerMeasure,
		ShiftCount:      cached.ShiftCount,
		PaddingCount:    cached.PaddingCount,
		Downbeats:       cached.Beats.Downbeats,
	})

	s.sentryMetrics.RecordGridBuild(ctx, cached.Beats.ModelID, cached.Chords.ModelID, len(cached.Beats.Beats), len(g.Cells), time.Since(start))
	if s.cloudwatch != nil && (g.InvalidLabels > 0 || g.OverlapTies > 0) {
		s.cloudwatch.RecordGridQuality(cached.Chords.ModelID, g.InvalidLabels, g.OverlapTies)
	}
	return g
}

// loadCorrections reattaches persisted corrections after a (re)build.
func (s *AnalysisService) loadCorrections(ctx context.Context, recordingID string) (*grid.Corrections, error) {
	records, err := s.store.Corrections(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	corrections := grid.NewCorrections()
	for _, r := range records {
		corrections.Set(r.Key(), r.Replacement)
	}
	return corrections, nil
}

func modelID(d *models.BeatDetection) string {
	if d == nil {
		return ""
	}
	return d.ModelID
}

func chordModelID(d *models.ChordDetection) string {
	if d == nil {
		return ""
	}
	return d.ModelID
}
