package grid

import (
	"github.com/chordgrid/chordgrid-api/internal/models"
)

// Display is the render-time resolution of one cell's label.
type Display struct {
	Label        string `json:"label"`
	WasCorrected bool   `json:"wasCorrected"`
}

// Corrections holds user- or system-supplied relabelings keyed by occurrence
// key. Corrections are additive and reversible: the original cell chord is
// never touched, so resolving with showCorrected=false always reproduces the
// uncorrected grid exactly.
//
// A Corrections value is owned by one session at a time and must only be
// mutated between grid rebuilds; after a rebuild the occurrence keys have to
// be recomputed before any lookup here is trusted again.
type Corrections struct {
	entries map[models.OccurrenceKey]string
}

// NewCorrections returns an empty correction set.
func NewCorrections() *Corrections {
	return &Corrections{entries: make(map[models.OccurrenceKey]string)}
}

// Set records a replacement display for the given occurrence key.
func (c *Corrections) Set(key models.OccurrenceKey, replacement string) {
	c.entries[key] = replacement
}

// Remove deletes the correction for the given key, if any.
func (c *Corrections) Remove(key models.OccurrenceKey) {
	delete(c.entries, key)
}

// Get returns the replacement for key and whether one exists.
func (c *Corrections) Get(key models.OccurrenceKey) (string, bool) {
	replacement, ok := c.entries[key]
	return replacement, ok
}

// Len reports the number of corrections held.
func (c *Corrections) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the correction map.
func (c *Corrections) Entries() map[models.OccurrenceKey]string {
	out := make(map[models.OccurrenceKey]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Resolve returns the label to display for a cell addressed by key.
// showCorrected is an explicit caller decision, not UI state read from
// anywhere else; with it off the original label is returned unchanged.
func (c *Corrections) Resolve(key models.OccurrenceKey, showCorrected bool) Display {
	if showCorrected {
		if replacement, ok := c.entries[key]; ok {
			return Display{Label: replacement, WasCorrected: true}
		}
	}
	return Display{Label: key.ChordDisplay}
}
