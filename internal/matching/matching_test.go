package matching

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
)

func degree(name, faculty string, reqs map[string]float64) *types.Degree {
	d := &types.Degree{ID: uuid.New(), Name: name, Faculty: faculty}
	for s, m := range reqs {
		d.Requirements = append(d.Requirements, types.CourseRequirement{Subject: s, MinimumMark: m})
	}
	return d
}

func TestScore(t *testing.T) {
	marks := NewSubjectMap(nil).Normalize(map[string]float64{"Mathematics": 60, "english": 80})
	degrees := []*types.Degree{
		degree("BSc Computer Science", "Science", map[string]float64{"Mathematics": 70, "English": 50}),
		degree("BA History", "Humanities", map[string]float64{"English": 60, "History": 60}),
		degree("BCom", "Commerce", map[string]float64{"Mathematics": 0}),
		degree("Empty", "Nowhere", nil),
	}
	got := Score(degrees, marks, 0)
	if len(got) != 3 {
		t.Fatalf("want 3 scored degrees, got=%+v", got)
	}
	if got[0].Degree != "BCom" || got[0].Score != 1 {
		t.Fatalf("got[0]: %+v", got[0])
	}
	// (60/70 + 1) / 2 = 0.92857 -> 0.929
	if got[1].Degree != "BSc Computer Science" || got[1].Score != 0.929 || len(got[1].MissingRequirements) != 0 {
		t.Fatalf("got[1]: %+v", got[1])
	}
	if got[2].Degree != "BA History" || got[2].Score != 0.5 || len(got[2].MissingRequirements) != 1 || got[2].MissingRequirements[0] != "History" {
		t.Fatalf("got[2]: %+v", got[2])
	}

	filtered := Score(degrees, marks, DefaultThreshold)
	if len(filtered) != 2 {
		t.Fatalf("threshold filter: %+v", filtered)
	}
}

func TestScoreTieBreaksByName(t *testing.T) {
	marks := map[string]float64{"mathematics": 50}
	got := Score([]*types.Degree{
		degree("Zoology", "Science", map[string]float64{"Mathematics": 50}),
		degree("Actuarial Science", "Commerce", map[string]float64{"Mathematics": 50}),
	}, marks, 0)
	if len(got) != 2 || got[0].Degree != "Actuarial Science" {
		t.Fatalf("tie order: %+v", got)
	}
}

func TestQualify(t *testing.T) {
	marks := map[string]float64{"mathematics": 75, "english": 60}
	got := Qualify([]*types.Degree{
		degree("Engineering", "EBE", map[string]float64{"Mathematics": 70, "Physical Science": 65}),
		degree("Economics", "Commerce", map[string]float64{"Mathematics": 65, "English": 60}),
		degree("Law", "Law", map[string]float64{"English": 70}),
	}, marks)
	if len(got) != 1 || got[0] != "Economics" {
		t.Fatalf("Qualify: %v", got)
	}
	if got := Qualify(nil, marks); got == nil || len(got) != 0 {
		t.Fatalf("Qualify(nil): want empty non-nil, got=%v", got)
	}
}

func TestSubjectMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subjects.yaml")
	if err := os.WriteFile(path, []byte("Maths: Mathematics\nmath lit: Mathematical Literacy\nIT: Information Technology\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := LoadSubjectMap(path)
	if err != nil {
		t.Fatalf("LoadSubjectMap: %v", err)
	}
	if got := m.Canonical(" maths "); got != "Mathematics" {
		t.Fatalf("Canonical(maths): %q", got)
	}
	if got := m.Canonical("Life  Sciences"); got != "Life Sciences" {
		t.Fatalf("Canonical(unmapped): %q", got)
	}
	marks := m.Normalize(map[string]float64{"Maths": 55, "Mathematics": 70, "Math Lit": 80})
	if marks["mathematics"] != 70 || marks["mathematical literacy"] != 80 {
		t.Fatalf("Normalize: %v", marks)
	}

	jsonPath := filepath.Join(t.TempDir(), "subjects.json")
	_ = os.WriteFile(jsonPath, []byte(`{"Eng": "English"}`), 0o600)
	jm, err := LoadSubjectMap(jsonPath)
	if err != nil || jm.Canonical("eng") != "English" {
		t.Fatalf("json subject map: err=%v", err)
	}
}

func TestBuildBubble(t *testing.T) {
	id := uuid.New()
	b := BuildBubble([]Match{
		{DegreeID: id, Degree: "BSc CS", Faculty: "Science", Score: 0.929},
		{DegreeID: uuid.New(), Degree: "BA", Faculty: "Humanities", Score: 0.1},
	})
	if len(b.Nodes) != 4 || len(b.Links) != 2 {
		t.Fatalf("bubble: %+v", b)
	}
	if b.Nodes[0].ID != "faculty-Humanities" || b.Nodes[0].Size != 40 || b.Nodes[0].Group != "faculty" {
		t.Fatalf("faculty node: %+v", b.Nodes[0])
	}
	deg := b.Nodes[2]
	if deg.ID != "degree-"+id.String() || deg.Label != "BSc CS (92%)" || deg.Size != 74 {
		t.Fatalf("degree node: %+v", deg)
	}
	if b.Nodes[3].Size != 10 {
		t.Fatalf("minimum size: %+v", b.Nodes[3])
	}
	if b.Links[0].Source != "faculty-Science" || b.Links[0].Target != deg.ID {
		t.Fatalf("link: %+v", b.Links[0])
	}
	if empty := BuildBubble(nil); empty.Nodes == nil || empty.Links == nil {
		t.Fatalf("empty bubble must have non-nil slices")
	}
}
