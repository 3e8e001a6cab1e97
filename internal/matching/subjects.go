package matching

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SubjectMap maps alias subject names ("Maths", "Math Lit") to canonical names. Lookups
// are case-insensitive.
type SubjectMap struct {
	byFold map[string]string
}

func NewSubjectMap(aliases map[string]string) *SubjectMap {
	m := &SubjectMap{byFold: make(map[string]string, len(aliases))}
	for alias, canon := range aliases {
		a := foldSubject(alias)
		c := strings.TrimSpace(canon)
		if a == "" || c == "" {
			continue
		}
		m.byFold[a] = c
	}
	return m
}

// LoadSubjectMap reads a flat alias -> canonical mapping from YAML or JSON.
func LoadSubjectMap(path string) (*SubjectMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("subject map: %w", err)
	}
	var aliases map[string]string
	if err := yaml.Unmarshal(b, &aliases); err != nil {
		return nil, fmt.Errorf("subject map %s: %w", path, err)
	}
	return NewSubjectMap(aliases), nil
}

// Canonical returns the mapped name, or the trimmed input when no alias matches.
func (m *SubjectMap) Canonical(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if m == nil {
		return name
	}
	if c, ok := m.byFold[foldSubject(name)]; ok {
		return c
	}
	return name
}

// Normalize canonicalizes a subject -> mark map. Later aliases of the same subject
// overwrite earlier ones only when the mark is higher.
func (m *SubjectMap) Normalize(marks map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(marks))
	for name, mark := range marks {
		key := foldSubject(m.Canonical(name))
		if key == "" {
			continue
		}
		if prev, ok := out[key]; !ok || mark > prev {
			out[key] = mark
		}
	}
	return out
}

func foldSubject(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
