package theory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jsphweid/chordgen/model"
	"github.com/jsphweid/chordgen/util"
)

const defaultRootMidi = 60

// Octave 4 convention, C=60.
var noteToMidi = map[string]int{
	"C": 60, "C#": 61, "Db": 61, "B#": 60,
	"D": 62, "D#": 63, "Eb": 63,
	"E": 64, "Fb": 64, "E#": 65,
	"F": 65, "F#": 66, "Gb": 66,
	"G": 67, "G#": 68, "Ab": 68,
	"A": 69, "A#": 70, "Bb": 70,
	"B": 71, "Cb": 71,
}

var qualityIntervals = map[model.Quality][]int{
	model.Major:     {0, 4, 7},
	model.Minor:     {0, 3, 7},
	model.Dominant7: {0, 4, 7, 10},
	model.Major7:    {0, 4, 7, 11},
	model.Minor7:    {0, 3, 7, 10},
}

// SplitChordName separates the root ("F#") from the quality suffix ("m7").
func SplitChordName(name string) (root string, suffix string) {
	if len(name) >= 2 && (name[1] == '#' || name[1] == 'b') {
		return name[:2], name[2:]
	}
	if len(name) == 0 {
		return "", ""
	}
	return name[:1], name[1:]
}

func qualityOf(suffix string) model.Quality {
	switch {
	case strings.Contains(suffix, "m") && !strings.Contains(suffix, "maj") && !strings.Contains(suffix, "7"):
		return model.Minor
	case strings.Contains(suffix, "7"):
		if strings.Contains(suffix, "maj") || strings.Contains(suffix, "M") {
			return model.Major7
		}
		if strings.Contains(suffix, "m") {
			return model.Minor7
		}
		return model.Dominant7
	default:
		return model.Major
	}
}

func rootMidi(root string) int {
	if n, ok := noteToMidi[root]; ok {
		return n
	}
	return defaultRootMidi
}

func ParseChord(name string) model.Chord {
	name = strings.TrimSpace(name)
	root, suffix := SplitChordName(name)
	return model.Chord{
		Name:    name,
		Root:    model.PitchClass(rootMidi(root) % 12),
		Quality: qualityOf(suffix),
		Shape:   Shape(name),
	}
}

// ChordToNotes returns the MIDI notes of chord name, root first. Unknown
// roots play as C. octaveOffset is in semitones (±12 per octave).
func ChordToNotes(name string, octaveOffset int) model.Notes {
	root, suffix := SplitChordName(strings.TrimSpace(name))
	base := rootMidi(root) + octaveOffset
	intervals := qualityIntervals[qualityOf(suffix)]

	notes := make(model.Notes, 0, len(intervals))
	for _, interval := range intervals {
		notes = append(notes, uint8(util.Clamp(base+interval, 0, 127)))
	}
	return notes
}

// CreateChordKey renders notes as a sorted "60-64-67" string.
func CreateChordKey(notes model.Notes) string {
	sorted := make(model.Notes, len(notes))
	copy(sorted, notes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	var res string
	for i, note := range sorted {
		res += fmt.Sprintf("%v", note)
		if i < len(sorted)-1 {
			res += "-"
		}
	}
	return res
}
