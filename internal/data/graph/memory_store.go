package graph

import (
	"context"
	"sort"
	"sync"
)

type pairKey struct{ a, b string }

// MemoryStore is an in-process Store used by tests and when no graph database is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	modules   map[string]ModuleNode
	skills    map[string]SkillNode
	teaches   map[pairKey]float64
	related   map[pairKey]CooccurrenceEdge
	relations map[pairKey]RelationEdge
	order     []pairKey
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		modules:   map[string]ModuleNode{},
		skills:    map[string]SkillNode{},
		teaches:   map[pairKey]float64{},
		related:   map[pairKey]CooccurrenceEdge{},
		relations: map[pairKey]RelationEdge{},
	}
}

func (s *MemoryStore) MergeModule(ctx context.Context, m ModuleNode) (ModuleNode, error) {
	if err := ctx.Err(); err != nil {
		return ModuleNode{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.modules[m.Code]; ok {
		return existing, nil
	}
	s.modules[m.Code] = m
	return m, nil
}

func (s *MemoryStore) MergeSkill(ctx context.Context, sk SkillNode) (SkillNode, error) {
	if err := ctx.Err(); err != nil {
		return SkillNode{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.skills[sk.Key]; ok {
		return existing, nil
	}
	s.skills[sk.Key] = sk
	return sk, nil
}

func (s *MemoryStore) MergeTeaches(ctx context.Context, e TeachesEdge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.modules[e.ModuleCode]; !ok {
		return ErrMissingEndpoint
	}
	if _, ok := s.skills[e.SkillKey]; !ok {
		return ErrMissingEndpoint
	}
	s.teaches[pairKey{e.ModuleCode, e.SkillKey}] = e.Confidence
	return nil
}

func (s *MemoryStore) ListTeaches(ctx context.Context) ([]TeachesEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TeachesEdge, 0, len(s.teaches))
	for k, c := range s.teaches {
		out = append(out, TeachesEdge{ModuleCode: k.a, SkillKey: k.b, Confidence: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModuleCode != out[j].ModuleCode {
			return out[i].ModuleCode < out[j].ModuleCode
		}
		return out[i].SkillKey < out[j].SkillKey
	})
	return out, nil
}

func (s *MemoryStore) ReplaceCooccurrence(ctx context.Context, edges []CooccurrenceEdge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := make(map[pairKey]CooccurrenceEdge, len(edges))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range edges {
		if _, ok := s.skills[e.SourceKey]; !ok {
			continue
		}
		if _, ok := s.skills[e.TargetKey]; !ok {
			continue
		}
		a, b := CanonicalPair(e.SourceKey, e.TargetKey)
		e.SourceKey, e.TargetKey = a, b
		next[pairKey{a, b}] = e
	}
	s.related = next
	return nil
}

func (s *MemoryStore) Neighbors(ctx context.Context, keys []string) ([]Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Neighbor
	for _, e := range s.related {
		if want[e.SourceKey] {
			out = append(out, s.neighbor(e.SourceKey, e.TargetKey, e.Strength))
		}
		if want[e.TargetKey] {
			out = append(out, s.neighbor(e.TargetKey, e.SourceKey, e.Strength))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromKey != out[j].FromKey {
			return out[i].FromKey < out[j].FromKey
		}
		return out[i].NeighborKey < out[j].NeighborKey
	})
	return out, nil
}

func (s *MemoryStore) neighbor(from, to string, strength int) Neighbor {
	sk := s.skills[to]
	return Neighbor{
		FromKey:          from,
		NeighborKey:      to,
		NeighborName:     sk.Name,
		NeighborCategory: sk.Category,
		Strength:         strength,
	}
}

func (s *MemoryStore) GetSkills(ctx context.Context, keys []string) ([]SkillNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SkillNode, 0, len(keys))
	seen := map[string]bool{}
	for _, k := range keys {
		if sk, ok := s.skills[k]; ok && !seen[k] {
			seen[k] = true
			out = append(out, sk)
		}
	}
	return out, nil
}

func (s *MemoryStore) MergeRelation(ctx context.Context, e RelationEdge) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.skills[e.SourceKey]; !ok {
		return false, ErrMissingEndpoint
	}
	if _, ok := s.skills[e.TargetKey]; !ok {
		return false, ErrMissingEndpoint
	}
	k := pairKey{e.SourceKey, e.TargetKey}
	if _, ok := s.relations[k]; ok {
		return false, nil
	}
	s.relations[k] = e
	s.order = append(s.order, k)
	return true, nil
}

func (s *MemoryStore) ListRelations(ctx context.Context, keys []string) ([]RelationEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RelationEdge
	for _, k := range s.order {
		if want[k.a] && want[k.b] {
			out = append(out, s.relations[k])
		}
	}
	return out, nil
}

// Cooccurrence returns a copy of the current RELATED_TO edges, sorted by pair.
func (s *MemoryStore) Cooccurrence() []CooccurrenceEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CooccurrenceEdge, 0, len(s.related))
	for _, e := range s.related {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceKey != out[j].SourceKey {
			return out[i].SourceKey < out[j].SourceKey
		}
		return out[i].TargetKey < out[j].TargetKey
	})
	return out
}

// SkillCount reports how many Skill nodes exist.
func (s *MemoryStore) SkillCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.skills)
}

func (s *MemoryStore) Close(context.Context) error { return nil }
