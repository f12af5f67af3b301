package grid

import (
	"reflect"
	"testing"

	"github.com/chordgrid/chordgrid-api/internal/chords"
	"github.com/chordgrid/chordgrid-api/internal/models"
)

func testSegments() []models.ChordSegment {
	return []models.ChordSegment{
		segment("C", 0.0, 2.0),
		segment("C", 2.0, 4.0),
		segment("G", 4.0, 6.0),
		segment("Fm7/Ab", 6.0, 8.0),
	}
}

func TestBuild_Idempotent(t *testing.T) {
	beats := seconds(16, 0.5)
	opts := BuildOptions{ShiftCount: 1, PaddingCount: 3}

	first := Build(beats, testSegments(), chords.NewNormalizer(0), opts)
	second := Build(beats, testSegments(), chords.NewNormalizer(0), opts)

	if !reflect.DeepEqual(first.Cells, second.Cells) {
		t.Error("identical inputs produced different cells")
	}
	if !reflect.DeepEqual(first.Keys, second.Keys) {
		t.Error("identical inputs produced different occurrence keys")
	}
	if first.ShiftCount != second.ShiftCount || first.PaddingCount != second.PaddingCount {
		t.Error("identical inputs produced different applied corrections")
	}
}

func TestBuild_SynchronizedChordsSkipEmptyCells(t *testing.T) {
	g := Build(seconds(4, 1.0), []models.ChordSegment{segment("Dm7", 2.0, 4.0)}, chords.NewNormalizer(0), BuildOptions{})

	synced := g.SynchronizedChords()
	if len(synced) != 2 {
		t.Fatalf("expected 2 synchronized chords, got %d", len(synced))
	}
	for _, sc := range synced {
		if sc.Chord != "Dm7" {
			t.Errorf("expected Dm7, got %q", sc.Chord)
		}
		if sc.BeatIndex < 2 {
			t.Errorf("empty leading cell leaked into projection at index %d", sc.BeatIndex)
		}
	}

	// The projection must validate against its own grid.
	if err := Validate(len(g.Cells), synced); err != nil {
		t.Errorf("self-validation failed: %v", err)
	}
}

func TestGrid_DisplayCells(t *testing.T) {
	g := Build(seconds(6, 1.0), []models.ChordSegment{
		segment("C", 0.0, 2.0),
		segment("G", 2.0, 4.0),
		segment("C", 4.0, 6.0),
	}, chords.NewNormalizer(0), BuildOptions{})

	corrections := NewCorrections()
	corrections.Set(models.OccurrenceKey{ChordDisplay: "C", OccurrenceIndex: 1}, "Am")

	corrected := g.DisplayCells(corrections, true)
	if corrected[4].Label != "Am" || !corrected[4].WasCorrected {
		t.Errorf("expected second C run corrected to Am, got %+v", corrected[4])
	}
	if corrected[0].Label != "C" || corrected[0].WasCorrected {
		t.Errorf("first C run must stay original, got %+v", corrected[0])
	}

	original := g.DisplayCells(corrections, false)
	for i, cell := range original {
		if cell.WasCorrected {
			t.Errorf("cell %d flagged corrected with corrections off", i)
		}
		if cell.Label != g.Cells[i].Chord.Display {
			t.Errorf("cell %d: corrections-off label %q differs from original %q",
				i, cell.Label, g.Cells[i].Chord.Display)
		}
	}
}

func TestGrid_DisplayCellsClickability(t *testing.T) {
	g := Build(seconds(2, 1.0), nil, chords.NewNormalizer(0), BuildOptions{PaddingCount: 2})

	cells := g.DisplayCells(NewCorrections(), false)
	for i := 0; i < 2; i++ {
		if cells[i].Clickable {
			t.Errorf("padding cell %d reports clickable", i)
		}
	}
	for i := 2; i < 4; i++ {
		if !cells[i].Clickable {
			t.Errorf("real cell %d should be clickable", i)
		}
	}
}

func TestGrid_SuggestSequenceCorrections(t *testing.T) {
	// C C G C C: the lone G between two solid C runs is detector jitter.
	g := Build(seconds(5, 1.0), []models.ChordSegment{
		segment("C", 0.0, 2.0),
		segment("G", 2.0, 3.0),
		segment("C", 3.0, 5.0),
	}, chords.NewNormalizer(0), BuildOptions{})

	suggestions := g.SuggestSequenceCorrections()
	want := models.OccurrenceKey{ChordDisplay: "G", OccurrenceIndex: 0}
	if replacement, ok := suggestions[want]; !ok || replacement != "C" {
		t.Errorf("expected blip %+v suggested as C, got %v", want, suggestions)
	}
}

func TestGrid_SuggestSequenceCorrections_NoFalsePositives(t *testing.T) {
	// A two-beat G run is a real chord change, not jitter.
	g := Build(seconds(6, 1.0), []models.ChordSegment{
		segment("C", 0.0, 2.0),
		segment("G", 2.0, 4.0),
		segment("C", 4.0, 6.0),
	}, chords.NewNormalizer(0), BuildOptions{})

	if suggestions := g.SuggestSequenceCorrections(); len(suggestions) != 0 {
		t.Errorf("expected no suggestions for stable runs, got %v", suggestions)
	}
}

func TestGrid_KeyAt(t *testing.T) {
	g := Build(seconds(3, 1.0), []models.ChordSegment{segment("E", 0.0, 3.0)}, chords.NewNormalizer(0), BuildOptions{})

	key, ok := g.KeyAt(1)
	if !ok || key.ChordDisplay != "E" {
		t.Errorf("expected E key at index 1, got %+v ok=%v", key, ok)
	}
	if _, ok := g.KeyAt(99); ok {
		t.Error("expected out-of-range index to report missing")
	}
}
