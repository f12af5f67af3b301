package grid

import (
	"github.com/chordgrid/chordgrid-api/internal/models"
)

const defaultBeatsPerMeasure = 4

// BuildOptions carries the structural hints used to turn raw beat timestamps
// into a measured grid. The zero value means: 4/4, no shift, no padding,
// derive shift from downbeat hints when present.
type BuildOptions struct {
	// BeatsPerMeasure is the time-signature numerator. Zero means "use the
	// default"; a negative value means the signature is unknown and every
	// frame gets position 1.
	BeatsPerMeasure int

	// ShiftCount rotates the assignment of beat-of-measure positions: the
	// first raw beat is labeled position 1 + ShiftCount mod BeatsPerMeasure.
	// Timestamps are never reordered.
	ShiftCount int

	// PaddingCount synthetic frames are prepended so measure 1 can begin on
	// a grid boundary. Padding frames have nil timestamps.
	PaddingCount int

	// Downbeats are optional downbeat timestamps from the detector, used to
	// derive ShiftCount when none was supplied.
	Downbeats []float64
}

// BeatGrid is the structural result of a build: the full frame array
// (padding included) and the corrections actually applied.
type BeatGrid struct {
	Frames          []models.BeatFrame
	ShiftCount      int
	PaddingCount    int
	BeatsPerMeasure int
}

// BuildBeatGrid converts ordered, strictly increasing beat timestamps into a
// BeatFrame array with cycling position-in-measure assignments. An empty
// timestamp list yields an empty grid; that is a legitimate result, not an
// error.
func BuildBeatGrid(timestamps []float64, opts BuildOptions) BeatGrid {
	bpm := opts.BeatsPerMeasure
	if bpm == 0 {
		bpm = defaultBeatsPerMeasure
	}

	if len(timestamps) == 0 {
		return BeatGrid{Frames: []models.BeatFrame{}, BeatsPerMeasure: bpm}
	}

	padding := opts.PaddingCount
	if padding < 0 {
		padding = 0
	}

	shift := opts.ShiftCount
	if shift == 0 && len(opts.Downbeats) > 0 && bpm > 0 {
		shift = deriveShift(timestamps, opts.Downbeats[0], bpm, padding)
	}
	if bpm > 0 {
		shift = ((shift % bpm) + bpm) % bpm
	}

	frames := make([]models.BeatFrame, 0, padding+len(timestamps))
	for i := 0; i < padding+len(timestamps); i++ {
		pos := 1
		if bpm > 0 {
			pos = ((i+shift)%bpm + bpm) % bpm
			pos++
		}

		frame := models.BeatFrame{PositionInMeasure: pos}
		if i >= padding {
			ts := timestamps[i-padding]
			frame.TimestampSeconds = &ts
			frame.IsDownbeat = bpm > 0 && pos == 1
		}
		frames = append(frames, frame)
	}

	return BeatGrid{
		Frames:          frames,
		ShiftCount:      shift,
		PaddingCount:    padding,
		BeatsPerMeasure: bpm,
	}
}

// deriveShift finds the raw beat closest to the first detected downbeat and
// returns the rotation that labels it position 1. Positions are assigned
// over the padded array, so the padding offset is part of the rotation.
func deriveShift(timestamps []float64, downbeat float64, bpm, padding int) int {
	nearest := 0
	best := abs(timestamps[0] - downbeat)
	for i, ts := range timestamps[1:] {
		if d := abs(ts - downbeat); d < best {
			best = d
			nearest = i + 1
		}
	}
	return ((-(nearest + padding))%bpm + bpm) % bpm
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
