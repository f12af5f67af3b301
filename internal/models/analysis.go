package models

// BeatFrame is one beat on the fused timeline. The grid may prepend synthetic
// padding frames to align the first real beat to a measure boundary; padding
// frames carry a nil timestamp and are never seekable.
type BeatFrame struct {
	TimestampSeconds  *float64 `json:"timestampSeconds"`
	PositionInMeasure int      `json:"positionInMeasure"`
	IsDownbeat        bool     `json:"isDownbeat,omitempty"`
}

// Clickable reports whether the frame can be used as a seek target.
// Padding frames have no timestamp and are never clickable.
func (f BeatFrame) Clickable() bool {
	return f.TimestampSeconds != nil
}

// ChordSegment is one chord span as emitted by the external chord detector.
// The label is the detector's raw spelling; an empty label is an explicit
// no-chord (silence) segment.
type ChordSegment struct {
	Label        string  `json:"label"`
	StartSeconds float64 `json:"startSeconds"`
	EndSeconds   float64 `json:"endSeconds"`
	Confidence   float64 `json:"confidence"`
}

// NormalizedChord is the canonical form of a raw chord label. Normalization
// is a pure function of the label: the same raw label always yields the same
// NormalizedChord. The zero value is the empty marker (no chord).
type NormalizedChord struct {
	Root    string `json:"root"`
	Suffix  string `json:"suffix"`
	Display string `json:"display"`
}

// IsEmpty reports whether the chord is the no-chord marker.
func (c NormalizedChord) IsEmpty() bool {
	return c.Root == ""
}

// GridCell is one addressable unit of the fused timeline, one per BeatFrame.
type GridCell struct {
	BeatIndex        int             `json:"beatIndex"`
	TimestampSeconds *float64        `json:"timestampSeconds"`
	Chord            NormalizedChord `json:"chord"`
	BeatNumber       int             `json:"beatNumber"`
}

// OccurrenceKey addresses a cell by its chord display value and the index of
// the consecutive run it belongs to. Keys are stable for a fixed grid and
// must be fully recomputed after any rebuild.
type OccurrenceKey struct {
	ChordDisplay    string `json:"chordDisplay"`
	OccurrenceIndex int    `json:"occurrenceIndex"`
}

// SynchronizedChord is the persisted per-cell projection of a built grid.
type SynchronizedChord struct {
	Chord     string `json:"chord"`
	BeatIndex int    `json:"beatIndex"`
	BeatNum   int    `json:"beatNum"`
}

// BeatDetection is the beat detector's complete output for one recording.
type BeatDetection struct {
	Beats           []float64 `json:"beats"`
	Downbeats       []float64 `json:"downbeats,omitempty"`
	BeatsPerMeasure int       `json:"beatsPerMeasure,omitempty"`
	ShiftCount      int       `json:"shiftCount,omitempty"`
	PaddingCount    int       `json:"paddingCount,omitempty"`
	ModelID         string    `json:"modelId"`
}

// ChordDetection is the chord detector's complete output for one recording.
type ChordDetection struct {
	Segments []ChordSegment `json:"segments"`
	ModelID  string         `json:"modelId"`
}
