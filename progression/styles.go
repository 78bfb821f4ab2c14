package progression

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultStyle = "Pop"

type Pattern = []string

type Pools = map[string][]Pattern

func DefaultPools() Pools {
	return Pools{
		"Pop": {
			{"I", "V", "vi", "IV"},
			{"I", "vi", "IV", "V"},
			{"vi", "IV", "I", "V"},
		},
		"Rock": {
			{"I", "IV", "V", "IV"},
			{"I", "V", "I", "V"},
		},
		"Ballad": {
			{"I", "vi", "IV", "V"},
			{"I", "V", "vi", "IV"},
		},
		"Blues": {
			{"I", "IV", "I", "V"},
			{"I", "I", "IV", "I", "V", "IV", "I", "V"},
		},
	}
}

type stylesFile struct {
	Styles map[string][]Pattern `yaml:"styles"`
}

// LoadStyles reads extra style pools from a YAML file of the form
//
//	styles:
//	  Jazz:
//	    - [ii7, V7, I]
//
// Empty patterns are dropped, as are styles left with no patterns.
func LoadStyles(path string) (Pools, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read styles file %v: %w", path, err)
	}
	var f stylesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("could not parse styles file %v: %w", path, err)
	}

	res := make(Pools)
	for name, patterns := range f.Styles {
		var kept []Pattern
		for _, p := range patterns {
			if len(p) > 0 {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			res[name] = kept
		}
	}
	return res, nil
}
