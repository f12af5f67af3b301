package grid

import (
	"testing"

	"github.com/chordgrid/chordgrid-api/internal/chords"
	"github.com/chordgrid/chordgrid-api/internal/models"
)

func segment(label string, start, end float64) models.ChordSegment {
	return models.ChordSegment{Label: label, StartSeconds: start, EndSeconds: end, Confidence: 0.9}
}

func TestMapChords_Containment(t *testing.T) {
	frames := BuildBeatGrid([]float64{0.0, 1.0, 2.0, 3.0}, BuildOptions{}).Frames
	segments := []models.ChordSegment{
		segment("C", 0.0, 2.0),
		segment("G", 2.0, 4.0),
	}

	result := MapChords(frames, segments, chords.NewNormalizer(0))

	expected := []string{"C", "C", "G", "G"}
	for i, cell := range result.Cells {
		if cell.Chord.Display != expected[i] {
			t.Errorf("cell %d: expected %q, got %q", i, expected[i], cell.Chord.Display)
		}
	}
}

func TestMapChords_ForwardFill(t *testing.T) {
	frames := BuildBeatGrid([]float64{0.0, 1.0, 5.0, 6.0}, BuildOptions{}).Frames
	segments := []models.ChordSegment{segment("Am", 0.0, 1.5)}

	result := MapChords(frames, segments, chords.NewNormalizer(0))

	// Chords persist until explicitly replaced; beats past the segment end
	// keep the most recently started chord.
	for i, cell := range result.Cells {
		if cell.Chord.Display != "Am" {
			t.Errorf("cell %d: expected forward-filled Am, got %q", i, cell.Chord.Display)
		}
	}
}

func TestMapChords_EmptyBeforeFirstSegment(t *testing.T) {
	frames := BuildBeatGrid([]float64{0.0, 1.0, 2.0}, BuildOptions{}).Frames
	segments := []models.ChordSegment{segment("F", 1.5, 3.0)}

	result := MapChords(frames, segments, chords.NewNormalizer(0))

	if !result.Cells[0].Chord.IsEmpty() || !result.Cells[1].Chord.IsEmpty() {
		t.Error("expected empty cells before the first segment starts")
	}
	if result.Cells[2].Chord.Display != "F" {
		t.Errorf("expected F once the segment has started, got %q", result.Cells[2].Chord.Display)
	}
}

func TestMapChords_OverlapResolvesToLaterStart(t *testing.T) {
	frames := BuildBeatGrid([]float64{3.0}, BuildOptions{}).Frames
	segments := []models.ChordSegment{
		segment("C", 0.0, 4.0),
		segment("G", 2.0, 4.0),
	}

	result := MapChords(frames, segments, chords.NewNormalizer(0))

	if result.Cells[0].Chord.Display != "G" {
		t.Errorf("expected later start to win the overlap, got %q", result.Cells[0].Chord.Display)
	}
	if result.OverlapTies != 1 {
		t.Errorf("expected 1 overlap tie recorded, got %d", result.OverlapTies)
	}
}

func TestMapChords_ExplicitNoChordSegment(t *testing.T) {
	frames := BuildBeatGrid([]float64{0.5, 1.5, 2.5}, BuildOptions{}).Frames
	segments := []models.ChordSegment{
		segment("C", 0.0, 1.0),
		segment("", 1.0, 2.0), // detector-emitted silence
		segment("C", 2.0, 3.0),
	}

	result := MapChords(frames, segments, chords.NewNormalizer(0))

	if result.Cells[0].Chord.Display != "C" {
		t.Errorf("cell 0: expected C, got %q", result.Cells[0].Chord.Display)
	}
	if !result.Cells[1].Chord.IsEmpty() {
		t.Errorf("cell 1: expected explicit no-chord, got %q", result.Cells[1].Chord.Display)
	}
	if result.Cells[2].Chord.Display != "C" {
		t.Errorf("cell 2: expected C, got %q", result.Cells[2].Chord.Display)
	}
}

func TestMapChords_InvalidLabelDegradesToEmpty(t *testing.T) {
	frames := BuildBeatGrid([]float64{0.5}, BuildOptions{}).Frames
	segments := []models.ChordSegment{segment("X9", 0.0, 1.0)}

	result := MapChords(frames, segments, chords.NewNormalizer(0))

	if !result.Cells[0].Chord.IsEmpty() {
		t.Errorf("expected invalid label to degrade to empty, got %q", result.Cells[0].Chord.Display)
	}
	if result.InvalidLabels != 1 {
		t.Errorf("expected 1 invalid label recorded, got %d", result.InvalidLabels)
	}
}

func TestMapChords_PaddingAlwaysEmpty(t *testing.T) {
	frames := BuildBeatGrid([]float64{0.0, 1.0}, BuildOptions{PaddingCount: 2}).Frames
	segments := []models.ChordSegment{segment("C", 0.0, 10.0)}

	result := MapChords(frames, segments, chords.NewNormalizer(0))

	for i := 0; i < 2; i++ {
		if !result.Cells[i].Chord.IsEmpty() {
			t.Errorf("padding cell %d carries a chord", i)
		}
		if result.Cells[i].TimestampSeconds != nil {
			t.Errorf("padding cell %d carries a timestamp", i)
		}
	}
	for i := 2; i < 4; i++ {
		if result.Cells[i].Chord.Display != "C" {
			t.Errorf("real cell %d: expected C, got %q", i, result.Cells[i].Chord.Display)
		}
	}
}

func TestMapChords_BeatIndexAndBeatNumber(t *testing.T) {
	frames := BuildBeatGrid([]float64{0.0, 1.0, 2.0}, BuildOptions{PaddingCount: 1}).Frames
	result := MapChords(frames, nil, chords.NewNormalizer(0))

	for i, cell := range result.Cells {
		if cell.BeatIndex != i {
			t.Errorf("cell %d: beat index %d", i, cell.BeatIndex)
		}
		if cell.BeatNumber != frames[i].PositionInMeasure {
			t.Errorf("cell %d: beat number %d does not mirror frame position %d",
				i, cell.BeatNumber, frames[i].PositionInMeasure)
		}
	}
}
