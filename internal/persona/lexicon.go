package persona

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Lexicon maps role keys to the terms that role tends to care about.
type Lexicon interface {
	Interests() map[string][]string
}

// StaticLexicon is a fixed role-to-interests table.
type StaticLexicon map[string][]string

func (l StaticLexicon) Interests() map[string][]string { return l }

// DefaultLexicon is the built-in role table.
var DefaultLexicon = StaticLexicon{
	"researcher": {"methodology", "results", "data", "analysis", "findings", "study", "experiment"},
	"student":    {"concepts", "examples", "definitions", "principles", "theory", "learning"},
	"analyst":    {"trends", "performance", "metrics", "comparison", "insights", "statistics"},
	"manager":    {"strategy", "planning", "objectives", "outcomes", "decisions", "leadership"},
	"developer":  {"implementation", "architecture", "design", "technical", "code", "system"},
	"doctor":     {"symptoms", "treatment", "diagnosis", "clinical", "patient", "medical"},
	"engineer":   {"design", "specification", "requirements", "testing", "performance"},
	"scientist":  {"hypothesis", "experiment", "observation", "theory", "validation"},
	"teacher":    {"curriculum", "pedagogy", "assessment", "learning", "education"},
	"lawyer":     {"legal", "regulation", "compliance", "case", "precedent", "law"},
}

type lexiconFile struct {
	// Extend keeps the built-in roles and overlays the file's roles on top.
	Extend bool                `yaml:"extend"`
	Roles  map[string][]string `yaml:"roles"`
}

// LoadLexicon reads a YAML role table from path.
//
//	extend: true
//	roles:
//	  auditor: [controls, evidence, risk]
func LoadLexicon(path string) (StaticLexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// ParseLexicon decodes a YAML role table.
func ParseLexicon(data []byte) (StaticLexicon, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("lexicon has no roles")
	}

	out := StaticLexicon{}
	if f.Extend {
		for role, terms := range DefaultLexicon {
			out[role] = terms
		}
	}
	for role, terms := range f.Roles {
		key := strings.ToLower(strings.TrimSpace(role))
		if key == "" {
			return nil, fmt.Errorf("lexicon role name is empty")
		}
		out[key] = terms
	}
	return out, nil
}
