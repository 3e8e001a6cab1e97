package matching

import (
	"fmt"
	"math"
	"sort"
)

const (
	facultyNodeSize   = 40
	degreeNodeMinSize = 10
	degreeNodeScale   = 80
)

type BubbleNode struct {
	ID                  string   `json:"id"`
	Label               string   `json:"label"`
	Group               string   `json:"group"`
	Size                int      `json:"size"`
	Score               *float64 `json:"score,omitempty"`
	MissingRequirements []string `json:"missing_requirements,omitempty"`
}

type BubbleLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type Bubble struct {
	Nodes []BubbleNode `json:"nodes"`
	Links []BubbleLink `json:"links"`
}

// BuildBubble groups matches under one node per faculty.
func BuildBubble(matches []Match) Bubble {
	b := Bubble{Nodes: []BubbleNode{}, Links: []BubbleLink{}}
	faculties := map[string]bool{}
	for _, m := range matches {
		faculties[m.Faculty] = true
	}
	names := make([]string, 0, len(faculties))
	for f := range faculties {
		names = append(names, f)
	}
	sort.Strings(names)
	for _, f := range names {
		b.Nodes = append(b.Nodes, BubbleNode{ID: "faculty-" + f, Label: f, Group: "faculty", Size: facultyNodeSize})
	}
	for _, m := range matches {
		score := m.Score
		id := "degree-" + m.DegreeID.String()
		b.Nodes = append(b.Nodes, BubbleNode{
			ID:                  id,
			Label:               fmt.Sprintf("%s (%d%%)", m.Degree, percent(score)),
			Group:               m.Faculty,
			Size:                max(degreeNodeMinSize, int(math.Floor(score*degreeNodeScale+1e-9))),
			Score:               &score,
			MissingRequirements: m.MissingRequirements,
		})
		b.Links = append(b.Links, BubbleLink{Source: "faculty-" + m.Faculty, Target: id})
	}
	return b
}

// percent truncates like the label always has, tolerating float noise (0.29 -> 29).
func percent(score float64) int {
	return int(math.Floor(score*100 + 1e-9))
}
