package grid

import (
	"github.com/chordgrid/chordgrid-api/internal/chords"
	"github.com/chordgrid/chordgrid-api/internal/models"
)

// Grid is one immutable fusion of a beat timeline and a chord timeline.
// Building is a pure function of its inputs: identical beats, segments and
// options always produce a structurally identical Grid, so re-renders
// triggered by unrelated state never perturb alignment or occurrence
// numbering. Changing any input means building a new Grid, never mutating
// this one.
type Grid struct {
	Frames          []models.BeatFrame
	Cells           []models.GridCell
	Keys            []models.OccurrenceKey
	ShiftCount      int
	PaddingCount    int
	BeatsPerMeasure int

	// Detector-quality diagnostics from the mapping pass.
	InvalidLabels int
	OverlapTies   int
}

// Build runs the full fusion pipeline: beat grid construction, chord
// normalization and mapping, then occurrence numbering. Malformed labels and
// segment overlaps degrade individual cells and are counted, never fatal.
func Build(beats []float64, segments []models.ChordSegment, normalizer *chords.Normalizer, opts BuildOptions) *Grid {
	beatGrid := BuildBeatGrid(beats, opts)
	mapped := MapChords(beatGrid.Frames, segments, normalizer)
	keys := AssignOccurrences(mapped.Cells)

	return &Grid{
		Frames:          beatGrid.Frames,
		Cells:           mapped.Cells,
		Keys:            keys,
		ShiftCount:      beatGrid.ShiftCount,
		PaddingCount:    beatGrid.PaddingCount,
		BeatsPerMeasure: beatGrid.BeatsPerMeasure,
		InvalidLabels:   mapped.InvalidLabels,
		OverlapTies:     mapped.OverlapTies,
	}
}

// KeyAt returns the occurrence key for a beat index.
func (g *Grid) KeyAt(beatIndex int) (models.OccurrenceKey, bool) {
	if beatIndex < 0 || beatIndex >= len(g.Keys) {
		return models.OccurrenceKey{}, false
	}
	return g.Keys[beatIndex], true
}

// CellDisplay is one cell resolved for rendering.
type CellDisplay struct {
	BeatIndex        int      `json:"beatIndex"`
	TimestampSeconds *float64 `json:"timestampSeconds"`
	BeatNumber       int      `json:"beatNumber"`
	Clickable        bool     `json:"clickable"`
	Label            string   `json:"label"`
	WasCorrected     bool     `json:"wasCorrected"`
	OccurrenceIndex  int      `json:"occurrenceIndex"`
}

// DisplayCells resolves every cell through the correction set. The original
// cells are left untouched; passing showCorrected=false reproduces the
// uncorrected grid with no information loss.
func (g *Grid) DisplayCells(corrections *Corrections, showCorrected bool) []CellDisplay {
	out := make([]CellDisplay, len(g.Cells))
	for i, cell := range g.Cells {
		key := g.Keys[i]
		resolved := corrections.Resolve(key, showCorrected)
		out[i] = CellDisplay{
			BeatIndex:        cell.BeatIndex,
			TimestampSeconds: cell.TimestampSeconds,
			BeatNumber:       cell.BeatNumber,
			Clickable:        cell.TimestampSeconds != nil,
			Label:            resolved.Label,
			WasCorrected:     resolved.WasCorrected,
			OccurrenceIndex:  key.OccurrenceIndex,
		}
	}
	return out
}

// SynchronizedChords projects the grid into the persisted form: one entry
// per non-empty cell.
func (g *Grid) SynchronizedChords() []models.SynchronizedChord {
	out := make([]models.SynchronizedChord, 0, len(g.Cells))
	for _, cell := range g.Cells {
		if cell.Chord.IsEmpty() {
			continue
		}
		out = append(out, models.SynchronizedChord{
			Chord:     cell.Chord.Display,
			BeatIndex: cell.BeatIndex,
			BeatNum:   cell.BeatNumber,
		})
	}
	return out
}

// SuggestSequenceCorrections runs the automatic sequence-correction pass: a
// single-beat run sandwiched between two longer runs of one other chord is
// usually detector jitter, so its occurrence key is proposed for relabeling
// to the surrounding chord. Suggestions are returned, not applied; they feed
// the same correction map user edits do.
func (g *Grid) SuggestSequenceCorrections() map[models.OccurrenceKey]string {
	runs := collectRuns(g.Cells, g.Keys)
	suggestions := make(map[models.OccurrenceKey]string)

	for i := 1; i < len(runs)-1; i++ {
		prev, cur, next := runs[i-1], runs[i], runs[i+1]
		if cur.length != 1 || cur.display == "" {
			continue
		}
		if prev.display == "" || prev.display != next.display || prev.display == cur.display {
			continue
		}
		if prev.length < 2 || next.length < 2 {
			continue
		}
		suggestions[cur.key] = prev.display
	}

	return suggestions
}

type run struct {
	display string
	key     models.OccurrenceKey
	length  int
}

func collectRuns(cells []models.GridCell, keys []models.OccurrenceKey) []run {
	var runs []run
	for i := range cells {
		if len(runs) > 0 && runs[len(runs)-1].key == keys[i] {
			runs[len(runs)-1].length++
			continue
		}
		runs = append(runs, run{
			display: cells[i].Chord.Display,
			key:     keys[i],
			length:  1,
		})
	}
	return runs
}
