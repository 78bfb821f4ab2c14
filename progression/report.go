package progression

import (
	"fmt"
	"os"
	"strings"

	"github.com/jsphweid/chordgen/theory"
)

type Report struct {
	Key    string
	Style  string
	Bars   int
	Chords []string
}

func (r Report) Shapes() []string {
	res := make([]string, len(r.Chords))
	for i, c := range r.Chords {
		res[i] = theory.Shape(c)
	}
	return res
}

// String renders the report the way it is shown and saved.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Key: %s    Style: %s    Bars: %d\n\n", r.Key, r.Style, r.Bars)
	fmt.Fprintf(&b, "Progression: | %s |\n\n", strings.Join(r.Chords, " | "))
	for _, c := range r.Chords {
		fmt.Fprintf(&b, "%-6s → %s\n", c, theory.Shape(c))
	}
	return b.String()
}

func Save(path string, r Report) error {
	if err := os.WriteFile(path, []byte(r.String()), 0644); err != nil {
		return fmt.Errorf("could not save progression to %v: %w", path, err)
	}
	return nil
}
