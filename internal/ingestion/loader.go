package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var seedValidate = validator.New()

type ModuleSeed struct {
	Code        string `json:"code" yaml:"code" validate:"required"`
	Title       string `json:"title" yaml:"title"`
	YearLevel   int    `json:"year_level" yaml:"year_level" validate:"gte=0"`
	Description string `json:"description" yaml:"description"`
}

type ProgrammeSeed struct {
	Code        string       `json:"code" yaml:"code" validate:"required"`
	Name        string       `json:"name" yaml:"name" validate:"required"`
	Faculty     string       `json:"faculty" yaml:"faculty"`
	URL         string       `json:"url" yaml:"url" validate:"omitempty,url"`
	Description string       `json:"description" yaml:"description"`
	Modules     []ModuleSeed `json:"modules" yaml:"modules" validate:"dive"`
}

type RequirementSeed struct {
	Subject     string  `json:"subject" yaml:"subject" validate:"required"`
	MinimumMark float64 `json:"minimum_mark" yaml:"minimum_mark" validate:"gte=0,lte=100"`
}

type DegreeSeed struct {
	Name         string            `json:"name" yaml:"name" validate:"required"`
	Faculty      string            `json:"faculty" yaml:"faculty" validate:"required"`
	Description  string            `json:"description" yaml:"description"`
	Requirements []RequirementSeed `json:"requirements" yaml:"requirements" validate:"dive"`
}

// SeedFile is the programmes/degrees seed document. Either list may be absent.
type SeedFile struct {
	Programmes []ProgrammeSeed `json:"programmes" yaml:"programmes" validate:"dive"`
	Degrees    []DegreeSeed    `json:"degrees" yaml:"degrees" validate:"dive"`
}

// ParseSeed decodes YAML or JSON (YAML is a superset) and validates the result.
func ParseSeed(b []byte) (SeedFile, error) {
	var out SeedFile
	if len(bytes.TrimSpace(b)) == 0 {
		return out, fmt.Errorf("seed: empty document")
	}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return SeedFile{}, fmt.Errorf("seed: decode: %w", err)
	}
	if err := seedValidate.Struct(out); err != nil {
		return SeedFile{}, fmt.Errorf("seed: %w", err)
	}
	return out, nil
}

// ParseRecords reads module records either as a JSON array (the structured handbook
// export) or, for anything else, by splitting the text on module codes.
func ParseRecords(b []byte, splitter *Splitter) ([]ModuleRecord, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var recs []ModuleRecord
		if err := json.Unmarshal(trimmed, &recs); err != nil {
			return nil, fmt.Errorf("records: decode: %w", err)
		}
		out := recs[:0]
		for _, r := range recs {
			r.Code = strings.TrimSpace(r.Code)
			if err := seedValidate.Struct(r); err != nil {
				return nil, fmt.Errorf("records: %w", err)
			}
			if strings.TrimSpace(r.Name) == "" {
				r.Name = guessName(r.Description, r.Code)
			}
			out = append(out, r)
		}
		return out, nil
	}
	if splitter == nil {
		var err error
		if splitter, err = NewSplitter(""); err != nil {
			return nil, err
		}
	}
	return splitter.Split(string(b)), nil
}
