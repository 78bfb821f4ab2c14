package theory

import "strings"

const DefaultKey = "C"

// Diatonic triads of each supported major key, indexed by scale degree.
var diatonicMajor = map[string][]string{
	"C":  {"C", "Dm", "Em", "F", "G", "Am", "Bdim"},
	"G":  {"G", "Am", "Bm", "C", "D", "Em", "F#dim"},
	"D":  {"D", "Em", "F#m", "G", "A", "Bm", "C#dim"},
	"A":  {"A", "Bm", "C#m", "D", "E", "F#m", "G#dim"},
	"E":  {"E", "F#m", "G#m", "A", "B", "C#m", "D#dim"},
	"B":  {"B", "C#m", "D#m", "E", "F#", "G#m", "A#dim"},
	"F#": {"F#", "G#m", "A#m", "B", "C#", "D#m", "E#dim"},
	"Gb": {"Gb", "Abm", "Bbm", "Cb", "Db", "Ebm", "Fdim"},
	"F":  {"F", "Gm", "Am", "Bb", "C", "Dm", "Edim"},
	"Bb": {"Bb", "Cm", "Dm", "Eb", "F", "Gm", "Adim"},
	"Eb": {"Eb", "Fm", "Gm", "Ab", "Bb", "Cm", "Ddim"},
	"Ab": {"Ab", "Bbm", "Cm", "Db", "Eb", "Fm", "Gdim"},
}

var keyOrder = []string{"C", "G", "D", "A", "E", "B", "F#", "Gb", "F", "Bb", "Eb", "Ab"}

var RomanToIndex = map[string]int{
	"I": 0, "i": 0,
	"II": 1, "ii": 1,
	"III": 2, "iii": 2,
	"IV": 3, "iv": 3,
	"V": 4, "v": 4,
	"VI": 5, "vi": 5,
	"VII": 6, "vii": 6, "vii°": 6,
}

// Keys returns the supported tonics in circle-of-fifths order.
func Keys() []string {
	res := make([]string, len(keyOrder))
	copy(res, keyOrder)
	return res
}

func IsKnownKey(key string) bool {
	_, ok := diatonicMajor[key]
	return ok
}

// DiatonicChords returns the seven chords of key. Unknown keys get the C table.
func DiatonicChords(key string) []string {
	chords, ok := diatonicMajor[key]
	if !ok {
		chords = diatonicMajor[DefaultKey]
	}
	res := make([]string, len(chords))
	copy(res, chords)
	return res
}

// ResolveDegree turns a roman numeral token such as "vi" or "V7" into the
// chord it names in key. Unrecognised numerals resolve to the tonic.
func ResolveDegree(token string, key string) string {
	numeral := strings.TrimSpace(token)
	add7 := false
	if strings.HasSuffix(numeral, "7") {
		add7 = true
		numeral = strings.TrimSuffix(numeral, "7")
	}
	numeral = strings.TrimSuffix(numeral, "°")
	numeral = strings.TrimSuffix(numeral, "o")

	idx := RomanToIndex[numeral]
	res := DiatonicChords(key)[idx]
	// seventh quality is left for ChordToNotes to decide
	if add7 {
		res += "7"
	}
	return res
}
