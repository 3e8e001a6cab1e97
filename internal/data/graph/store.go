package graph

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable wraps connectivity failures so callers can abort a batch.
	ErrStoreUnavailable = errors.New("graph store unavailable")
	// ErrMissingEndpoint is returned when an edge references a node that does not exist.
	ErrMissingEndpoint = errors.New("graph edge endpoint not found")
)

const (
	LabelModule  = "Module"
	LabelSkill   = "Skill"
	RelTeaches   = "TEACHES"
	RelRelatedTo = "RELATED_TO"
	RelSkillRel  = "SKILL_RELATION"
)

type ModuleNode struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	SourceID string `json:"source_id,omitempty"`
}

type SkillNode struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type TeachesEdge struct {
	ModuleCode string  `json:"module_code"`
	SkillKey   string  `json:"skill_key"`
	Confidence float64 `json:"confidence"`
}

// CooccurrenceEdge is stored once per unordered pair with SourceKey < TargetKey.
type CooccurrenceEdge struct {
	SourceKey     string `json:"source_key"`
	TargetKey     string `json:"target_key"`
	Strength      int    `json:"strength"`
	SharedModules int    `json:"shared_modules"`
}

// Neighbor is one co-occurrence edge seen from a queried skill.
type Neighbor struct {
	FromKey          string
	NeighborKey      string
	NeighborName     string
	NeighborCategory string
	Strength         int
}

type RelationEdge struct {
	SourceKey  string  `json:"source_key"`
	TargetKey  string  `json:"target_key"`
	Relation   string  `json:"relation"`
	Confidence float64 `json:"confidence"`
}

// Store is the property-graph collaborator. Node merges never overwrite existing
// attributes; TEACHES merges overwrite confidence.
type Store interface {
	MergeModule(ctx context.Context, m ModuleNode) (ModuleNode, error)
	MergeSkill(ctx context.Context, s SkillNode) (SkillNode, error)
	MergeTeaches(ctx context.Context, e TeachesEdge) error
	ListTeaches(ctx context.Context) ([]TeachesEdge, error)

	// ReplaceCooccurrence drops every RELATED_TO edge and writes edges in their place.
	ReplaceCooccurrence(ctx context.Context, edges []CooccurrenceEdge) error
	Neighbors(ctx context.Context, keys []string) ([]Neighbor, error)
	GetSkills(ctx context.Context, keys []string) ([]SkillNode, error)

	// MergeRelation keeps the first relation written for an ordered pair and reports
	// whether this call created it.
	MergeRelation(ctx context.Context, e RelationEdge) (bool, error)
	ListRelations(ctx context.Context, keys []string) ([]RelationEdge, error)

	Close(ctx context.Context) error
}

// CanonicalPair orders two keys so the lower one is the source.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*Neo4jStore)(nil)
)
