package skillgraph

import (
	"context"
	"fmt"

	"github.com/yungbote/skillbridge-backend/internal/data/graph"
)

const CoreCategory = "Core"

type Node struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	IsCore      bool   `json:"is_core"`
	IsSuggested bool   `json:"is_suggested"`
}

type Payload struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// BuildPayload labels core and suggested nodes. Core skills missing from known fall
// back to their trimmed input name and the Core category.
func BuildPayload(coreNames []string, known []graph.SkillNode, suggested []Suggestion, links []Link) Payload {
	byKey := make(map[string]graph.SkillNode, len(known))
	for _, k := range known {
		byKey[k.Key] = k
	}
	p := Payload{Nodes: []Node{}, Links: links}
	if p.Links == nil {
		p.Links = []Link{}
	}
	seen := map[string]bool{}
	for _, raw := range coreNames {
		key, err := Normalize(raw)
		if err != nil || seen[key] {
			continue
		}
		seen[key] = true
		n := Node{ID: key, Name: DisplayName(raw), Category: CoreCategory, IsCore: true}
		if sk, ok := byKey[key]; ok {
			if sk.Name != "" {
				n.Name = sk.Name
			}
			if sk.Category != "" {
				n.Category = sk.Category
			}
		}
		p.Nodes = append(p.Nodes, n)
	}
	for _, s := range suggested {
		p.Nodes = append(p.Nodes, Node{ID: s.Key, Name: s.Name, Category: s.Category, IsSuggested: true})
	}
	return p
}

// SuggestPayload runs Suggest and assembles the visualization payload.
func (e *Engine) SuggestPayload(ctx context.Context, coreNames []string, limit int) (Payload, error) {
	suggested, links, err := e.Suggest(ctx, coreNames, limit)
	if err != nil {
		return Payload{}, err
	}
	keys := CoreKeys(coreNames)
	var known []graph.SkillNode
	if len(keys) > 0 {
		known, err = e.store.GetSkills(ctx, keys)
		if err != nil {
			return Payload{}, fmt.Errorf("suggest payload: core skills: %w", err)
		}
	}
	return BuildPayload(coreNames, known, suggested, links), nil
}
