package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Stage string

const (
	StageStrict   Stage = "strict"
	StageFallback Stage = "object_fallback"
)

var payloadValidate = validator.New()

// objectFallback pulls the outermost {...} span out of chatty output ("Here you go: {...}").
var objectFallback = regexp.MustCompile(`(?s)\{.*\}`)

// Decode runs the staged decoder: strict JSON first, then the object fallback. Both
// stages validate the result. Anything else is a malformed error carrying raw.
func Decode[T any](op, raw string, out *T) (Stage, error) {
	strictErr := decodeStrict(raw, out)
	if strictErr == nil {
		return StageStrict, nil
	}
	if span := objectFallback.FindString(raw); span != "" && span != strings.TrimSpace(raw) {
		var alt T
		if err := decodeStrict(span, &alt); err == nil {
			*out = alt
			return StageFallback, nil
		}
	}
	return "", malformed(op, raw, strictErr)
}

func decodeStrict[T any](raw string, out *T) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("empty output")
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	var v T
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if dec.More() {
		return errors.New("decode: trailing data after object")
	}
	if err := payloadValidate.Struct(v); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	*out = v
	return nil
}
