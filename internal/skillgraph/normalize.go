package skillgraph

import (
	"errors"
	"math"
	"strings"

	"golang.org/x/text/cases"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
)

var ErrInvalidSkillName = errors.New("invalid skill name")

// Normalize returns the canonical lookup key for a skill name: trimmed, internal
// whitespace collapsed to single spaces, Unicode case-folded ("Straße" and "STRASSE"
// share a key).
func Normalize(raw string) (string, error) {
	display := DisplayName(raw)
	if display == "" {
		return "", ErrInvalidSkillName
	}
	// A Caser holds state; build one per call since the pipeline normalizes concurrently.
	return cases.Fold().String(display), nil
}

// DisplayName trims and collapses whitespace but keeps the original casing.
func DisplayName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// NormalizeCategory maps extractor categories onto Technical, Soft or Domain.
func NormalizeCategory(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "technical", "tech", "hard":
		return types.SkillCategoryTechnical
	case "soft", "transferable", "soft/transferable", "interpersonal":
		return types.SkillCategorySoft
	default:
		return types.SkillCategoryDomain
	}
}

// ClampConfidence clamps to [0,1]; NaN becomes 0.
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return 0
	}
	return math.Max(0, math.Min(1, c))
}
