package chords

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chordgrid/chordgrid-api/internal/models"
)

// ErrInvalidChordLabel is returned when a label's root does not name any of
// the twelve pitch classes. Callers treat it as no-chord, never as fatal.
var ErrInvalidChordLabel = errors.New("invalid chord label")

const defaultCacheSize = 512

// pitchClasses maps every accepted root spelling to its pitch class
// (0=C .. 11=B). Enharmonic identity is decided here, by pitch class,
// never by string equality.
var pitchClasses = map[string]int{
	"C": 0, "B#": 0,
	"C#": 1, "Db": 1,
	"D":  2,
	"D#": 3, "Eb": 3,
	"E": 4, "Fb": 4,
	"F": 5, "E#": 5,
	"F#": 6, "Gb": 6,
	"G":  7,
	"G#": 8, "Ab": 8,
	"A":  9,
	"A#": 10, "Bb": 10,
	"B": 11, "Cb": 11,
}

// canonicalRoots is the display spelling per pitch class.
var canonicalRoots = [12]string{
	"C", "Db", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B",
}

// suffixAliases maps raw suffix spellings to their canonical form. Lookup is
// exact-match first (so "M7" keeps its major-seventh meaning), then
// lowercased. An empty canonical suffix means a plain major triad.
//
// A suffix missing from this table is kept verbatim: the detector's quality
// is never collapsed to major just because the spelling is unrecognized.
var suffixAliases = map[string]string{
	"":      "",
	"M":     "",
	"maj":   "",
	"major": "",

	"m":     "m",
	"min":   "m",
	"minor": "m",
	"-":     "m",

	"7":    "7",
	"dom7": "7",

	"m7":      "m7",
	"min7":    "m7",
	"minor7":  "m7",
	"-7":      "m7",
	"mi7":     "m7",
	"M7":      "maj7",
	"maj7":    "maj7",
	"major7":  "maj7",
	"ma7":     "maj7",
	"mmaj7":   "mmaj7",
	"minmaj7": "mmaj7",
	"mM7":     "mmaj7",

	"dim":        "dim",
	"o":          "dim",
	"dim7":       "dim7",
	"o7":         "dim7",
	"m7b5":       "m7b5",
	"min7b5":     "m7b5",
	"ø":          "m7b5",
	"ø7":         "m7b5",
	"halfdim":    "m7b5",
	"aug":        "aug",
	"+":          "aug",
	"aug7":       "aug7",
	"+7":         "aug7",
	"7#5":        "aug7",
	"sus":        "sus4",
	"sus4":       "sus4",
	"sus2":       "sus2",
	"7sus4":      "7sus4",
	"6":          "6",
	"maj6":       "6",
	"m6":         "m6",
	"min6":       "m6",
	"9":          "9",
	"maj9":       "maj9",
	"M9":         "maj9",
	"m9":         "m9",
	"min9":       "m9",
	"11":         "11",
	"m11":        "m11",
	"13":         "13",
	"m13":        "m13",
	"add9":       "add9",
	"5":          "5",
	"powerchord": "5",
}

// Normalizer canonicalizes raw chord labels into {root, suffix} pairs.
// It memoizes results per unique raw label; the cache is owned by the
// session that owns the Normalizer, not by the process.
type Normalizer struct {
	cache   map[string]models.NormalizedChord
	maxSize int
}

// NewNormalizer returns a Normalizer with a bounded memo cache. A
// non-positive cacheSize falls back to the default.
func NewNormalizer(cacheSize int) *Normalizer {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	return &Normalizer{
		cache:   make(map[string]models.NormalizedChord, cacheSize),
		maxSize: cacheSize,
	}
}

// CacheLen reports the number of memoized labels.
func (n *Normalizer) CacheLen() int {
	return len(n.cache)
}

// Normalize canonicalizes a raw chord label. An empty (or whitespace-only)
// label is an explicit no-chord and yields the empty marker with no error.
// A label whose root names no pitch class yields the empty marker and
// ErrInvalidChordLabel.
func (n *Normalizer) Normalize(label string) (models.NormalizedChord, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return models.NormalizedChord{}, nil
	}

	if cached, ok := n.cache[trimmed]; ok {
		return cached, nil
	}

	chord, err := normalize(trimmed)
	if err != nil {
		return models.NormalizedChord{}, err
	}

	if len(n.cache) >= n.maxSize {
		// Bounded cache: reset rather than grow without limit. One session
		// sees far fewer unique labels than this in practice.
		n.cache = make(map[string]models.NormalizedChord, n.maxSize)
	}
	n.cache[trimmed] = chord
	return chord, nil
}

func normalize(label string) (models.NormalizedChord, error) {
	// Inversion/bass annotations are display-only: "Ab/C" normalizes as "Ab".
	base := label
	if idx := strings.Index(base, "/"); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}
	if base == "" {
		return models.NormalizedChord{}, fmt.Errorf("%w: %q has no chord before bass note", ErrInvalidChordLabel, label)
	}

	root, rest, err := splitRoot(base)
	if err != nil {
		return models.NormalizedChord{}, err
	}

	suffix := canonicalSuffix(rest)

	return models.NormalizedChord{
		Root:    root,
		Suffix:  suffix,
		Display: root + suffix,
	}, nil
}

// splitRoot extracts the canonical root (first 1-2 characters forming a
// pitch name, allowing a trailing accidental) and returns the remaining
// suffix text.
func splitRoot(symbol string) (root, rest string, err error) {
	letter := strings.ToUpper(symbol[:1])
	raw := letter
	rest = symbol[1:]

	if len(symbol) > 1 {
		switch symbol[1] {
		case '#':
			raw = letter + "#"
			rest = symbol[2:]
		case 'b':
			raw = letter + "b"
			rest = symbol[2:]
		}
	}

	pc, ok := pitchClasses[raw]
	if !ok {
		return "", "", fmt.Errorf("%w: root %q is not a pitch class", ErrInvalidChordLabel, raw)
	}
	return canonicalRoots[pc], rest, nil
}

// canonicalSuffix resolves a raw suffix to its canonical spelling. An empty
// suffix means major; an unrecognized suffix is preserved verbatim so a
// quality the table does not know is never silently downgraded.
func canonicalSuffix(raw string) string {
	if canonical, ok := suffixAliases[raw]; ok {
		return canonical
	}
	if canonical, ok := suffixAliases[strings.ToLower(raw)]; ok {
		return canonical
	}
	return raw
}
