package ingestion

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultCodePattern matches handbook module codes such as CS101 or EEE4200.
const DefaultCodePattern = `\b([A-Z]{2,4}\d{3,4})\b`

const (
	minNameLen = 6
	maxNameLen = 99
)

// ModuleRecord is one module cut out of a handbook text dump.
type ModuleRecord struct {
	Code        string `json:"code" yaml:"code" validate:"required"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description_text" yaml:"description_text"`
}

type Splitter struct {
	re *regexp.Regexp
}

// NewSplitter compiles pattern, which must have a capture group holding the code.
// An empty pattern uses DefaultCodePattern.
func NewSplitter(pattern string) (*Splitter, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultCodePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("module code pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("module code pattern %q has no capture group", pattern)
	}
	return &Splitter{re: re}, nil
}

// Split cuts text at every code match; each chunk runs to the next match. When a code
// occurs more than once the longest chunk is kept, at the position of the first one.
func (s *Splitter) Split(text string) []ModuleRecord {
	locs := s.re.FindAllStringSubmatchIndex(text, -1)
	out := make([]ModuleRecord, 0, len(locs))
	at := map[string]int{}
	for i, loc := range locs {
		start := loc[0]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		code := text[loc[2]:loc[3]]
		chunk := strings.TrimSpace(text[start:end])
		rec := ModuleRecord{Code: code, Name: guessName(chunk, code), Description: chunk}
		if j, ok := at[code]; ok {
			if len(chunk) > len(out[j].Description) {
				out[j] = rec
			}
			continue
		}
		at[code] = len(out)
		out = append(out, rec)
	}
	return out
}

// guessName uses the chunk's first line without the code when it looks like a title.
func guessName(chunk, code string) string {
	first, _, _ := strings.Cut(chunk, "\n")
	first = strings.TrimSpace(strings.ReplaceAll(first, code, ""))
	first = strings.Trim(first, " \t-:–")
	if n := len([]rune(first)); n >= minNameLen && n <= maxNameLen {
		return first
	}
	return "Module " + code
}
