package model

type Notes = []uint8

type PitchClass uint8

type Quality int

const (
	Major Quality = iota
	Minor
	Dominant7
	Major7
	Minor7
)

func (q Quality) String() string {
	switch q {
	case Minor:
		return "minor"
	case Dominant7:
		return "dominant-7"
	case Major7:
		return "major-7"
	case Minor7:
		return "minor-7"
	default:
		return "major"
	}
}

type Chord struct {
	Name    string
	Root    PitchClass
	Quality Quality

	// NOTE: display only, "N/A" when there is no known fingering
	Shape string
}
