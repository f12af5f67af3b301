package grid

import (
	"errors"
	"sort"

	"github.com/chordgrid/chordgrid-api/internal/chords"
	"github.com/chordgrid/chordgrid-api/internal/logger"
	"github.com/chordgrid/chordgrid-api/internal/models"
)

// MapResult carries the fused cells plus the diagnostics the mapping
// produced. Diagnostics never abort a build: a bad label or an overlapping
// segment degrades one cell, not the grid.
type MapResult struct {
	Cells []models.GridCell

	// InvalidLabels counts labels rejected by the normalizer.
	InvalidLabels int

	// OverlapTies counts beats claimed by more than one segment, resolved
	// to the later start.
	OverlapTies int
}

// MapChords attaches one normalized chord (or the empty marker) to every
// beat frame. A frame takes the segment whose [start, end) interval contains
// its timestamp; with no containing segment the most recently started one is
// forward-filled; before any segment has started the cell is empty. Ties
// between overlapping segments go to the later start. Padding frames are
// always empty.
func MapChords(frames []models.BeatFrame, segments []models.ChordSegment, normalizer *chords.Normalizer) MapResult {
	ordered := make([]models.ChordSegment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartSeconds < ordered[j].StartSeconds
	})

	result := MapResult{Cells: make([]models.GridCell, 0, len(frames))}

	for i, frame := range frames {
		cell := models.GridCell{
			BeatIndex:        i,
			TimestampSeconds: frame.TimestampSeconds,
			BeatNumber:       frame.PositionInMeasure,
		}

		if frame.TimestampSeconds != nil {
			label, ambiguous := labelAt(ordered, *frame.TimestampSeconds)
			if ambiguous {
				result.OverlapTies++
				logger.Debug("Ambiguous segment overlap resolved to later start", logger.Fields{
					"beat_index": i,
					"timestamp":  *frame.TimestampSeconds,
				})
			}

			chord, err := normalizer.Normalize(label)
			if err != nil {
				if errors.Is(err, chords.ErrInvalidChordLabel) {
					result.InvalidLabels++
					logger.Warn("Invalid chord label degraded to no-chord", logger.Fields{
						"label":      label,
						"beat_index": i,
					})
				}
				chord = models.NormalizedChord{}
			}
			cell.Chord = chord
		}

		result.Cells = append(result.Cells, cell)
	}

	return result
}

// labelAt picks the raw label covering timestamp t. Segments are sorted by
// start; the winner is the containing segment with the latest start, or the
// most recently started segment when none contains t (forward-fill). The
// second return reports whether more than one segment contained t.
func labelAt(ordered []models.ChordSegment, t float64) (string, bool) {
	// Index of the last segment with start <= t.
	last := sort.Search(len(ordered), func(i int) bool {
		return ordered[i].StartSeconds > t
	}) - 1
	if last < 0 {
		return "", false
	}

	containing := -1
	count := 0
	for i := last; i >= 0; i-- {
		if ordered[i].EndSeconds > t {
			count++
			if containing < 0 {
				containing = i
			}
		}
	}

	if containing >= 0 {
		return ordered[containing].Label, count > 1
	}
	// Forward-fill: chords persist until explicitly replaced.
	return ordered[last].Label, false
}
