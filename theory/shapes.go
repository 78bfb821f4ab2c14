package theory

const ShapeNotAvailable = "N/A"

// Open position fingerings, low E string first. x = muted.
var chordShapes = map[string]string{
	"C":   "x32010",
	"G":   "320003",
	"Am":  "x02210",
	"F":   "133211",
	"Dm":  "xx0231",
	"Em":  "022000",
	"D":   "xx0232",
	"E":   "022100",
	"A":   "x02220",
	"Bm":  "x24432",
	"F#m": "244222",
	"B":   "x24442",
	"Bb":  "x13331",
}

func Shape(chord string) string {
	if shape, ok := chordShapes[chord]; ok {
		return shape
	}
	return ShapeNotAvailable
}
