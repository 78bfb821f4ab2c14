package progression

import (
	"sync"
	"time"

	"github.com/jsphweid/chordgen/theory"
	"github.com/jsphweid/chordgen/util"
	"golang.org/x/exp/rand"
)

// Picker chooses an index in [0, n).
type Picker interface {
	Intn(n int) int
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

func NewRandomPicker() Picker {
	src := rand.NewSource(uint64(time.Now().UnixNano()))
	return &lockedRand{rnd: rand.New(src)}
}

type Generator struct {
	pools  Pools
	picker Picker
}

type Option func(*Generator)

func WithPicker(p Picker) Option {
	return func(g *Generator) {
		g.picker = p
	}
}

// WithStyles adds pools on top of the built-in ones, replacing any style of
// the same name.
func WithStyles(pools Pools) Option {
	return func(g *Generator) {
		for name, patterns := range pools {
			var kept []Pattern
			for _, p := range patterns {
				if len(p) > 0 {
					kept = append(kept, p)
				}
			}
			// a style with nothing to pick from stays unknown
			if len(kept) > 0 {
				g.pools[name] = kept
			}
		}
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{pools: DefaultPools()}
	for _, opt := range opts {
		opt(g)
	}
	if g.picker == nil {
		g.picker = NewRandomPicker()
	}
	return g
}

func (g *Generator) Styles() []string {
	return util.GetSortedKeys(g.pools)
}

func (g *Generator) HasStyle(style string) bool {
	_, ok := g.pools[style]
	return ok
}

// Pick returns one pattern of style, falling back to the Pop pool.
func (g *Generator) Pick(style string) Pattern {
	patterns, ok := g.pools[style]
	if !ok {
		patterns = g.pools[DefaultStyle]
	}
	return patterns[g.picker.Intn(len(patterns))]
}

// Generate returns exactly bars chords by cycling a pattern of style in key.
func (g *Generator) Generate(key string, style string, bars int) []string {
	if bars <= 0 {
		return []string{}
	}
	return Expand(g.Pick(style), key, bars)
}

// Expand resolves pattern in key, wrapping around it until bars chords exist.
func Expand(pattern Pattern, key string, bars int) []string {
	res := make([]string, 0, bars)
	if len(pattern) == 0 {
		return res
	}
	for i := 0; len(res) < bars; i++ {
		res = append(res, theory.ResolveDegree(pattern[i%len(pattern)], key))
	}
	return res
}
