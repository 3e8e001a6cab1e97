package skillgraph

import (
	"context"
	"strings"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/observability"
)

type RejectReason string

const (
	RejectSelfLink            RejectReason = "SelfLink"
	RejectUnknownSkill        RejectReason = "UnknownSkill"
	RejectInvalidRelationType RejectReason = "InvalidRelationType"
	RejectDuplicateRelation   RejectReason = "DuplicateRelation"
	RejectPersistFailed       RejectReason = "PersistFailed"
)

var validRelations = map[string]bool{
	types.RelationRequires:    true,
	types.RelationBuildsOn:    true,
	types.RelationComplements: true,
}

// ProposedRelation is a model-proposed typed edge between two skills, named as the
// model wrote them.
type ProposedRelation struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Relation   string  `json:"relation"`
	Confidence float64 `json:"confidence"`
}

// AcceptedRelation carries canonical keys and a clamped confidence.
type AcceptedRelation struct {
	SourceKey  string  `json:"source_key"`
	TargetKey  string  `json:"target_key"`
	Relation   string  `json:"relation"`
	Confidence float64 `json:"confidence"`

	Proposed ProposedRelation `json:"-"`
}

type Rejection struct {
	Item   ProposedRelation `json:"item"`
	Reason RejectReason     `json:"reason"`
	Detail string           `json:"detail,omitempty"`
}

type MergeResult struct {
	Accepted []AcceptedRelation `json:"accepted"`
	Rejected []Rejection        `json:"rejected"`
}

// Pair is an ordered (source, target) pair of canonical keys.
type Pair struct{ Source, Target string }

// MergeRelations validates proposals against the programme's skill keys and the pairs
// already stored. Checks run in order: self link, unknown skill, relation type,
// confidence clamp, duplicate pair. Relation type is ignored for duplicates, so each
// ordered pair holds at most one relation and the first one wins.
func MergeRelations(programmeSkills map[string]bool, existing []Pair, proposed []ProposedRelation) MergeResult {
	res := MergeResult{Accepted: []AcceptedRelation{}, Rejected: []Rejection{}}
	taken := make(map[Pair]bool, len(existing)+len(proposed))
	for _, p := range existing {
		taken[p] = true
	}
	for _, item := range proposed {
		src, srcErr := Normalize(item.Source)
		dst, dstErr := Normalize(item.Target)
		if srcErr == nil && dstErr == nil && src == dst {
			res.Rejected = append(res.Rejected, Rejection{Item: item, Reason: RejectSelfLink})
			continue
		}
		if srcErr != nil || !programmeSkills[src] {
			res.Rejected = append(res.Rejected, Rejection{Item: item, Reason: RejectUnknownSkill, Detail: "source"})
			continue
		}
		if dstErr != nil || !programmeSkills[dst] {
			res.Rejected = append(res.Rejected, Rejection{Item: item, Reason: RejectUnknownSkill, Detail: "target"})
			continue
		}
		rel := NormalizeRelationType(item.Relation)
		if !validRelations[rel] {
			res.Rejected = append(res.Rejected, Rejection{Item: item, Reason: RejectInvalidRelationType})
			continue
		}
		pair := Pair{Source: src, Target: dst}
		if taken[pair] {
			res.Rejected = append(res.Rejected, Rejection{Item: item, Reason: RejectDuplicateRelation})
			continue
		}
		taken[pair] = true
		res.Accepted = append(res.Accepted, AcceptedRelation{
			SourceKey:  src,
			TargetKey:  dst,
			Relation:   rel,
			Confidence: ClampConfidence(item.Confidence),
			Proposed:   item,
		})
	}
	return res
}

// NormalizeRelationType lowercases and maps spaces and hyphens to underscores.
func NormalizeRelationType(raw string) string {
	r := strings.ToLower(strings.TrimSpace(raw))
	r = strings.NewReplacer(" ", "_", "-", "_").Replace(r)
	return r
}

// PersistFunc writes one accepted relation. created=false means the pair already existed.
type PersistFunc func(ctx context.Context, rel AcceptedRelation) (created bool, err error)

// PersistAccepted writes each accepted relation independently. Failed writes move to
// Rejected as PersistFailed; pairs found to exist at write time move as DuplicateRelation.
func PersistAccepted(ctx context.Context, res MergeResult, persist PersistFunc) MergeResult {
	out := MergeResult{Accepted: []AcceptedRelation{}, Rejected: append([]Rejection{}, res.Rejected...)}
	for _, rel := range res.Accepted {
		item := rel.Proposed
		created, err := persist(ctx, rel)
		switch {
		case err != nil:
			out.Rejected = append(out.Rejected, Rejection{Item: item, Reason: RejectPersistFailed, Detail: err.Error()})
		case !created:
			out.Rejected = append(out.Rejected, Rejection{Item: item, Reason: RejectDuplicateRelation, Detail: "exists in store"})
		default:
			out.Accepted = append(out.Accepted, rel)
		}
	}
	m := observability.Current()
	m.AddRelationsMerged("accepted", len(out.Accepted))
	for _, r := range out.Rejected {
		m.AddRelationsMerged(string(r.Reason), 1)
	}
	return out
}
