package skillgraph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yungbote/skillbridge-backend/internal/data/graph"
	"github.com/yungbote/skillbridge-backend/internal/observability"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

const DefaultSuggestLimit = 10

type Suggestion struct {
	Key               string `json:"key"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	AggregateStrength int    `json:"aggregate_strength"`
}

// Link is a co-occurrence edge from a core skill to a suggested skill, by key.
type Link struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Strength int    `json:"strength"`
}

type Engine struct {
	store graph.Store
	log   *logger.Logger
}

func NewEngine(store graph.Store, log *logger.Logger) *Engine {
	return &Engine{store: store, log: log.With("component", "SuggestionEngine")}
}

// Suggest ranks skills adjacent to the core set by summed co-occurrence strength.
// Unknown or blank core names contribute nothing.
func (e *Engine) Suggest(ctx context.Context, coreNames []string, limit int) ([]Suggestion, []Link, error) {
	coreKeys := CoreKeys(coreNames)
	if len(coreKeys) == 0 || limit <= 0 {
		return []Suggestion{}, []Link{}, nil
	}
	start := time.Now()
	defer func() { observability.Current().ObserveSuggest(time.Since(start)) }()

	neighbors, err := e.store.Neighbors(ctx, coreKeys)
	if err != nil {
		return nil, nil, fmt.Errorf("suggest: neighbors: %w", err)
	}
	suggested, links := RankNeighbors(coreKeys, neighbors, limit)
	e.log.Debug("suggestions ranked", "core", len(coreKeys), "candidates", len(neighbors), "returned", len(suggested))
	return suggested, links, nil
}

// CoreKeys normalizes names into distinct keys, preserving first-seen order.
func CoreKeys(names []string) []string {
	out := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, n := range names {
		k, err := Normalize(n)
		if err != nil || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// RankNeighbors aggregates strength per candidate, orders by strength desc then
// case-folded name asc, truncates to limit and keeps only the links that reach a
// surviving candidate.
func RankNeighbors(coreKeys []string, neighbors []graph.Neighbor, limit int) ([]Suggestion, []Link) {
	if len(coreKeys) == 0 || limit <= 0 {
		return []Suggestion{}, []Link{}
	}
	core := make(map[string]bool, len(coreKeys))
	for _, k := range coreKeys {
		core[k] = true
	}

	type edgeKey struct{ from, to string }
	edges := map[edgeKey]int{}
	cands := map[string]*Suggestion{}
	for _, n := range neighbors {
		if !core[n.FromKey] || core[n.NeighborKey] || n.NeighborKey == "" {
			continue
		}
		ek := edgeKey{n.FromKey, n.NeighborKey}
		if prev, ok := edges[ek]; ok && prev >= n.Strength {
			continue
		}
		edges[ek] = n.Strength
		if _, ok := cands[n.NeighborKey]; !ok {
			name := n.NeighborName
			if name == "" {
				name = n.NeighborKey
			}
			cands[n.NeighborKey] = &Suggestion{Key: n.NeighborKey, Name: name, Category: n.NeighborCategory}
		}
	}
	for ek, s := range edges {
		cands[ek.to].AggregateStrength += s
	}

	ranked := make([]Suggestion, 0, len(cands))
	for _, s := range cands {
		ranked = append(ranked, *s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.AggregateStrength != b.AggregateStrength {
			return a.AggregateStrength > b.AggregateStrength
		}
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.Name < b.Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	rank := make(map[string]int, len(ranked))
	for i, s := range ranked {
		rank[s.Key] = i
	}
	links := make([]Link, 0, len(edges))
	for ek, s := range edges {
		if _, ok := rank[ek.to]; !ok {
			continue
		}
		links = append(links, Link{Source: ek.from, Target: ek.to, Strength: s})
	}
	sort.Slice(links, func(i, j int) bool {
		ri, rj := rank[links[i].Target], rank[links[j].Target]
		if ri != rj {
			return ri < rj
		}
		return links[i].Source < links[j].Source
	})
	return ranked, links
}
