package skillgraph

import (
	"context"
	"fmt"
	"testing"

	"github.com/yungbote/skillbridge-backend/internal/data/graph"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

func seedSkills(t *testing.T, store *graph.MemoryStore, names ...string) {
	t.Helper()
	for _, n := range names {
		key, err := Normalize(n)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", n, err)
		}
		if _, err := store.MergeSkill(context.Background(), graph.SkillNode{Key: key, Name: n, Category: "Technical"}); err != nil {
			t.Fatalf("MergeSkill: %v", err)
		}
	}
}

func TestSuggestRanksByStrength(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	seedSkills(t, store, "Python", "SQL", "ML")
	if err := store.ReplaceCooccurrence(ctx, []graph.CooccurrenceEdge{
		{SourceKey: "python", TargetKey: "sql", Strength: 5, SharedModules: 5},
		{SourceKey: "ml", TargetKey: "python", Strength: 3, SharedModules: 3},
	}); err != nil {
		t.Fatalf("ReplaceCooccurrence: %v", err)
	}
	e := NewEngine(store, logger.Nop())

	got, links, err := e.Suggest(ctx, []string{"Python"}, 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 2 || got[0].Name != "SQL" || got[0].AggregateStrength != 5 || got[1].Name != "ML" || got[1].AggregateStrength != 3 {
		t.Fatalf("suggestions: %+v", got)
	}
	if len(links) != 2 || links[0] != (Link{Source: "python", Target: "sql", Strength: 5}) || links[1] != (Link{Source: "python", Target: "ml", Strength: 3}) {
		t.Fatalf("links: %+v", links)
	}
}

func TestSuggestExcludesCoreAndSumsAcrossCore(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	seedSkills(t, store, "Python", "SQL", "Statistics", "R")
	_ = store.ReplaceCooccurrence(ctx, []graph.CooccurrenceEdge{
		{SourceKey: "python", TargetKey: "sql", Strength: 4},
		{SourceKey: "python", TargetKey: "statistics", Strength: 2},
		{SourceKey: "sql", TargetKey: "statistics", Strength: 3},
		{SourceKey: "r", TargetKey: "sql", Strength: 1},
	})
	e := NewEngine(store, logger.Nop())

	got, links, err := e.Suggest(ctx, []string{"python", " SQL "}, 5)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 2 || got[0].Key != "statistics" || got[0].AggregateStrength != 5 || got[1].Key != "r" {
		t.Fatalf("suggestions: %+v", got)
	}
	for _, l := range links {
		if l.Target == "python" || l.Target == "sql" {
			t.Fatalf("core skill suggested through link %+v", l)
		}
	}
	if len(links) != 3 {
		t.Fatalf("links: %+v", links)
	}
}

func TestSuggestEmptyInputs(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	seedSkills(t, store, "Python", "SQL")
	_ = store.ReplaceCooccurrence(ctx, []graph.CooccurrenceEdge{{SourceKey: "python", TargetKey: "sql", Strength: 1}})
	e := NewEngine(store, logger.Nop())

	for _, tc := range []struct {
		core  []string
		limit int
	}{
		{nil, 10},
		{[]string{"", "  "}, 10},
		{[]string{"Unknown Skill"}, 10},
		{[]string{"Python"}, 0},
		{[]string{"Python"}, -3},
	} {
		got, links, err := e.Suggest(ctx, tc.core, tc.limit)
		if err != nil {
			t.Fatalf("Suggest(%v,%d): %v", tc.core, tc.limit, err)
		}
		if got == nil || links == nil || len(got) != 0 || len(links) != 0 {
			t.Fatalf("Suggest(%v,%d): want empty non-nil slices, got=%v %v", tc.core, tc.limit, got, links)
		}
	}
}

func TestRankNeighborsTruncatesWithTieBreak(t *testing.T) {
	var neighbors []graph.Neighbor
	// 15 candidates: strengths 1..5 repeating, names shuffled in case.
	for i := 0; i < 15; i++ {
		name := fmt.Sprintf("Skill %02d", 14-i)
		if i%2 == 0 {
			name = fmt.Sprintf("skill %02d", 14-i)
		}
		key, _ := Normalize(name)
		neighbors = append(neighbors, graph.Neighbor{FromKey: "core", NeighborKey: key, NeighborName: name, Strength: i%5 + 1})
	}
	got, links := RankNeighbors([]string{"core"}, neighbors, 10)
	if len(got) != 10 || len(links) != 10 {
		t.Fatalf("want 10 suggestions and 10 links, got=%d/%d", len(got), len(links))
	}
	for i := 1; i < len(got); i++ {
		a, b := got[i-1], got[i]
		if a.AggregateStrength < b.AggregateStrength || (a.AggregateStrength == b.AggregateStrength && a.Key > b.Key) {
			t.Fatalf("order broken at %d: %+v then %+v", i, a, b)
		}
	}
	// strengths 5,4,3 each have three members; strength 2 has three and only one survives.
	if got[9].AggregateStrength != 2 || got[9].Key != "skill 03" {
		t.Fatalf("last survivor: %+v", got[9])
	}
	survivors := map[string]bool{}
	for _, s := range got {
		survivors[s.Key] = true
	}
	for i, l := range links {
		if !survivors[l.Target] {
			t.Fatalf("link to truncated candidate: %+v", l)
		}
		if l.Target != got[i].Key {
			t.Fatalf("links must follow suggestion order: %+v vs %+v", l, got[i])
		}
	}
}

func TestRankNeighborsKeepsStrongestDuplicateEdge(t *testing.T) {
	got, links := RankNeighbors([]string{"a"}, []graph.Neighbor{
		{FromKey: "a", NeighborKey: "b", NeighborName: "B", Strength: 2},
		{FromKey: "a", NeighborKey: "b", NeighborName: "B", Strength: 3},
	}, 5)
	if len(got) != 1 || got[0].AggregateStrength != 3 || len(links) != 1 {
		t.Fatalf("got=%+v links=%+v", got, links)
	}
}
