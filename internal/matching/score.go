package matching

import (
	"math"
	"sort"

	"github.com/google/uuid"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
)

const DefaultThreshold = 0.6

type Match struct {
	DegreeID            uuid.UUID `json:"degree_id"`
	Degree              string    `json:"degree"`
	Faculty             string    `json:"faculty"`
	Score               float64   `json:"score"`
	MissingRequirements []string  `json:"missing_requirements"`
}

// Score rates every degree that has requirements. Per requirement the fraction is
// min(mark/minimum, 1), 1 when minimum <= 0, and 0 when the subject is missing. The
// degree score is the mean fraction rounded to 3 decimals. Results at or above
// threshold are returned, best first, ties by degree name.
func Score(degrees []*types.Degree, marks map[string]float64, threshold float64) []Match {
	out := make([]Match, 0, len(degrees))
	for _, d := range degrees {
		if d == nil || len(d.Requirements) == 0 {
			continue
		}
		m := Match{DegreeID: d.ID, Degree: d.Name, Faculty: d.Faculty, MissingRequirements: []string{}}
		var sum float64
		for _, r := range d.Requirements {
			mark, ok := marks[foldSubject(r.Subject)]
			switch {
			case !ok:
				m.MissingRequirements = append(m.MissingRequirements, r.Subject)
			case r.MinimumMark <= 0:
				sum += 1
			default:
				sum += math.Min(mark/r.MinimumMark, 1)
			}
		}
		m.Score = round3(sum / float64(len(d.Requirements)))
		if m.Score >= threshold {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Degree < out[j].Degree
	})
	return out
}

// Qualify returns the names of degrees whose every requirement is met. A missing subject
// counts as a mark of 0.
func Qualify(degrees []*types.Degree, marks map[string]float64) []string {
	out := []string{}
	for _, d := range degrees {
		if d == nil {
			continue
		}
		ok := true
		for _, r := range d.Requirements {
			if marks[foldSubject(r.Subject)] < r.MinimumMark {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, d.Name)
		}
	}
	sort.Strings(out)
	return out
}

func round3(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Round(f*1000) / 1000
}
