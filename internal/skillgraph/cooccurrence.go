package skillgraph

import (
	"sort"

	"github.com/yungbote/skillbridge-backend/internal/data/graph"
)

// ComputeCooccurrence derives one edge per unordered skill pair co-taught by at least one
// module, weighted by the number of distinct such modules. Pairs are enumerated per
// module, so cost is O(M*k^2) for M modules with k skills each. Output is sorted by pair.
func ComputeCooccurrence(teaches []graph.TeachesEdge) []graph.CooccurrenceEdge {
	byModule := map[string]map[string]struct{}{}
	for _, t := range teaches {
		if t.ModuleCode == "" || t.SkillKey == "" {
			continue
		}
		set := byModule[t.ModuleCode]
		if set == nil {
			set = map[string]struct{}{}
			byModule[t.ModuleCode] = set
		}
		set[t.SkillKey] = struct{}{}
	}

	type pair struct{ a, b string }
	counts := map[pair]int{}
	for _, set := range byModule {
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i := 0; i < len(keys); i++ {
			for j := i + 1; j < len(keys); j++ {
				counts[pair{keys[i], keys[j]}]++
			}
		}
	}

	out := make([]graph.CooccurrenceEdge, 0, len(counts))
	for p, n := range counts {
		out = append(out, graph.CooccurrenceEdge{
			SourceKey:     p.a,
			TargetKey:     p.b,
			Strength:      n,
			SharedModules: n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceKey != out[j].SourceKey {
			return out[i].SourceKey < out[j].SourceKey
		}
		return out[i].TargetKey < out[j].TargetKey
	})
	return out
}
