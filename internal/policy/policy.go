// Package policy manages scan policies — declarative rules for which files a
// scan analyses and what the AI analysis focuses on. A bundled default policy
// ships with the binary; operators may override it with a YAML file.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed default.yaml
var defaultPolicy []byte

// Policy is a parsed scan policy.
type Policy struct {
	// Name is a human-readable identifier for the policy.
	Name string `yaml:"name"`
	// Extensions are the file extensions eligible for analysis (with dots,
	// lowercase).
	Extensions []string `yaml:"extensions"`
	// SpecialFiles are extensionless filenames scanned regardless of
	// extension (compared case-insensitively).
	SpecialFiles []string `yaml:"special_files"`
	// MaxFileBytes excludes files larger than this at listing time.
	MaxFileBytes int64 `yaml:"max_file_bytes"`
	// MaxContentChars skips a file whose fetched content exceeds this.
	MaxContentChars int `yaml:"max_content_chars"`
	// MaxPromptChars truncates file content embedded in the analysis prompt.
	MaxPromptChars int `yaml:"max_prompt_chars"`
	// FocusAreas steer the AI analysis.
	FocusAreas []string `yaml:"focus_areas"`

	extSet     map[string]struct{}
	specialSet map[string]struct{}
}

// Load returns the policy at path, or the bundled default when path is empty.
func Load(path string) (*Policy, error) {
	data := defaultPolicy
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading policy %s: %w", path, err)
		}
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	if len(p.Extensions) == 0 {
		return nil, fmt.Errorf("policy defines no scannable extensions")
	}
	if p.MaxFileBytes <= 0 {
		p.MaxFileBytes = 1024 * 1024
	}
	if p.MaxContentChars <= 0 {
		p.MaxContentChars = 50000
	}
	if p.MaxPromptChars <= 0 {
		p.MaxPromptChars = 8000
	}

	p.extSet = make(map[string]struct{}, len(p.Extensions))
	for _, e := range p.Extensions {
		p.extSet[strings.ToLower(e)] = struct{}{}
	}
	p.specialSet = make(map[string]struct{}, len(p.SpecialFiles))
	for _, f := range p.SpecialFiles {
		p.specialSet[strings.ToLower(f)] = struct{}{}
	}
	return &p, nil
}

// Default returns the bundled policy.
func Default() *Policy {
	p, err := Load("")
	if err != nil {
		// The bundled policy is validated by tests; this cannot happen at
		// runtime.
		panic(err)
	}
	return p
}

// IsScannable reports whether a file with the given name is eligible for
// analysis under this policy. The decision uses the name only, never content.
func (p *Policy) IsScannable(filename string) bool {
	lower := strings.ToLower(filename)
	if _, ok := p.specialSet[lower]; ok {
		return true
	}
	i := strings.LastIndexByte(lower, '.')
	if i < 0 {
		return false
	}
	_, ok := p.extSet[lower[i:]]
	return ok
}
