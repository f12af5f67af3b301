package grid

import (
	"github.com/chordgrid/chordgrid-api/internal/models"
)

// AssignOccurrences walks the finished cells once, left to right, and gives
// every cell an occurrence key: its chord display value plus the index of
// the consecutive run it belongs to. Each distinct display value keeps its
// own run counter, incremented only when a new run of that value begins.
// Transitions through empty cells break runs like any other change.
//
// Keys are only valid for the exact cell slice they were computed from; a
// rebuild must recompute them, never patch them incrementally.
func AssignOccurrences(cells []models.GridCell) []models.OccurrenceKey {
	keys := make([]models.OccurrenceKey, len(cells))
	runCounts := make(map[string]int)

	lastDisplay := ""
	inRun := false
	current := 0

	for i, cell := range cells {
		display := cell.Chord.Display
		if !inRun || display != lastDisplay {
			current = runCounts[display]
			runCounts[display] = current + 1
			lastDisplay = display
			inRun = true
		}
		keys[i] = models.OccurrenceKey{ChordDisplay: display, OccurrenceIndex: current}
	}

	return keys
}
