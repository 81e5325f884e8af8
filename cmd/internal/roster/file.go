package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML roster layout:
//
//	divisions:
//	  - code: CS-SE-A
//	    candidates:
//	      - id: T1
//	        name: Dr. Rao
//	        subject: Algorithms
type File struct {
	Divisions []FileDivision `yaml:"divisions"`
}

// FileDivision is one division block in a roster file.
type FileDivision struct {
	Code       string          `yaml:"code"`
	Candidates []FileCandidate `yaml:"candidates"`
}

// FileCandidate is one candidate row in a roster file.
type FileCandidate struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Subject string `yaml:"subject"`
}

// LoadFile reads a YAML roster file into a StaticProvider.
func LoadFile(path string) (*StaticProvider, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("roster file path is required")
	}
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	return ParseFile(raw)
}

// ParseFile decodes YAML roster bytes into a StaticProvider.
func ParseFile(raw []byte) (*StaticProvider, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode roster file: %w", err)
	}

	rosters := make(map[string][]Candidate, len(f.Divisions))
	for _, d := range f.Divisions {
		code, err := NormalizeDivisionCode(d.Code)
		if err != nil {
			return nil, err
		}
		if _, dup := rosters[code]; dup {
			return nil, fmt.Errorf("%w: division %s listed twice", ErrInvalidRoster, code)
		}
		cs := make([]Candidate, 0, len(d.Candidates))
		for _, c := range d.Candidates {
			cs = append(cs, Candidate{ID: c.ID, Name: c.Name, SubjectLabel: c.Subject})
		}
		rosters[code] = cs
	}
	return NewStaticProvider(rosters)
}
