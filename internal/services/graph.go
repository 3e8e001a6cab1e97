package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/skillbridge-backend/internal/data/graph"
	"github.com/yungbote/skillbridge-backend/internal/data/repos"
	"github.com/yungbote/skillbridge-backend/internal/platform/apierr"
	"github.com/yungbote/skillbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
	"github.com/yungbote/skillbridge-backend/internal/skillgraph"
)

type GraphService interface {
	Suggest(ctx context.Context, skills []string, limit int) (skillgraph.Payload, error)
	KnowledgeGraph(ctx context.Context, programmeID uuid.UUID) (*KnowledgeGraph, error)
	// Rebuild mirrors every relational TEACHES row and typed relation into the graph
	// store, then recomputes co-occurrence.
	Rebuild(ctx context.Context) (*RebuildReport, error)
}

type KGNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Code     string `json:"code,omitempty"`
	Category string `json:"category,omitempty"`
}

type KGEdge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

type KnowledgeGraph struct {
	ProgrammeID uuid.UUID `json:"programme_id"`
	Nodes       []KGNode  `json:"nodes"`
	Edges       []KGEdge  `json:"edges"`
}

type RebuildReport struct {
	Graph        skillgraph.BatchReport  `json:"graph"`
	Relations    int                     `json:"relations"`
	Cooccurrence skillgraph.RebuildStats `json:"cooccurrence"`
	Duration     time.Duration           `json:"duration"`
}

const (
	NodeTypeModule = "module"
	NodeTypeSkill  = "skill"
	EdgeTypeTeaches = "teaches"
)

type graphService struct {
	log     *logger.Logger
	repos   repos.Set
	store   graph.Store
	builder *skillgraph.Builder
	engine  *skillgraph.Engine
}

func NewGraphService(baseLog *logger.Logger, set repos.Set, store graph.Store, builder *skillgraph.Builder, engine *skillgraph.Engine) GraphService {
	return &graphService{
		log:     baseLog.With("service", "GraphService"),
		repos:   set,
		store:   store,
		builder: builder,
		engine:  engine,
	}
}

func (s *graphService) Suggest(ctx context.Context, skills []string, limit int) (skillgraph.Payload, error) {
	p, err := s.engine.SuggestPayload(ctx, skills, limit)
	if errors.Is(err, graph.ErrStoreUnavailable) {
		return skillgraph.Payload{}, apierr.Unavailable("graph_unavailable", err)
	}
	return p, err
}

func (s *graphService) KnowledgeGraph(ctx context.Context, programmeID uuid.UUID) (*KnowledgeGraph, error) {
	dbc := dbctx.New(ctx)
	p, err := s.repos.Programmes.GetByID(dbc, programmeID)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: load programme: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("programme_not_found", fmt.Errorf("programme %s not found", programmeID))
	}
	kg := &KnowledgeGraph{ProgrammeID: p.ID, Nodes: []KGNode{}, Edges: []KGEdge{}}

	mods, err := s.repos.Modules.ListByProgramme(dbc, p.ID)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: modules: %w", err)
	}
	for _, m := range mods {
		kg.Nodes = append(kg.Nodes, KGNode{ID: m.ID.String(), Name: m.Title, Type: NodeTypeModule, Code: m.Code})
	}

	teaches, err := s.repos.ModuleSkills.ListTeachesByProgramme(dbc, p.ID)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: teaches: %w", err)
	}
	seen := map[uuid.UUID]bool{}
	var skillNodes []KGNode
	for _, t := range teaches {
		if !seen[t.SkillID] {
			seen[t.SkillID] = true
			skillNodes = append(skillNodes, KGNode{ID: t.SkillID.String(), Name: t.SkillName, Type: NodeTypeSkill, Category: t.SkillCategory})
		}
		kg.Edges = append(kg.Edges, KGEdge{Source: t.ModuleID.String(), Target: t.SkillID.String(), Type: EdgeTypeTeaches, Confidence: t.Confidence})
	}
	sort.Slice(skillNodes, func(i, j int) bool { return skillNodes[i].Name < skillNodes[j].Name })
	kg.Nodes = append(kg.Nodes, skillNodes...)

	rels, err := s.repos.SkillRelations.ListByProgramme(dbc, p.ID)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: relations: %w", err)
	}
	for _, r := range rels {
		if !seen[r.SourceSkillID] || !seen[r.TargetSkillID] {
			continue
		}
		kg.Edges = append(kg.Edges, KGEdge{Source: r.SourceSkillID.String(), Target: r.TargetSkillID.String(), Type: r.Relation, Confidence: r.Confidence})
	}
	return kg, nil
}

func (s *graphService) Rebuild(ctx context.Context) (*RebuildReport, error) {
	start := time.Now()
	dbc := dbctx.New(ctx)
	rows, err := s.repos.ModuleSkills.ListTeaches(dbc)
	if err != nil {
		return nil, fmt.Errorf("rebuild: load teaches: %w", err)
	}

	var order []string
	byModule := map[string]*skillgraph.Record{}
	for _, r := range rows {
		rec, ok := byModule[r.ModuleCode]
		if !ok {
			rec = &skillgraph.Record{ModuleCode: r.ModuleCode, ModuleTitle: r.ModuleTitle, SourceID: r.ModuleID.String()}
			byModule[r.ModuleCode] = rec
			order = append(order, r.ModuleCode)
		}
		rec.Skills = append(rec.Skills, skillgraph.SkillCandidate{Name: r.SkillName, Category: r.SkillCategory, Confidence: r.Confidence})
	}
	recs := make([]skillgraph.Record, 0, len(order))
	for _, code := range order {
		recs = append(recs, *byModule[code])
	}

	rep := &RebuildReport{Graph: s.builder.ApplyBatch(ctx, recs)}
	if rep.Graph.Aborted {
		return rep, apierr.Unavailable("graph_unavailable", fmt.Errorf("rebuild aborted after %d of %d modules", rep.Graph.Attempted, len(recs)))
	}

	n, err := s.syncRelations(ctx)
	rep.Relations = n
	if err != nil {
		return rep, err
	}

	stats, err := s.builder.RebuildCooccurrence(ctx)
	if err != nil {
		if errors.Is(err, graph.ErrStoreUnavailable) {
			return rep, apierr.Unavailable("graph_unavailable", err)
		}
		return rep, err
	}
	rep.Cooccurrence = stats
	rep.Duration = time.Since(start)
	s.log.Info("graph rebuilt",
		"modules", rep.Graph.Succeeded,
		"failed", len(rep.Graph.Failed),
		"relations", rep.Relations,
		"edges", stats.Edges,
	)
	return rep, nil
}

func (s *graphService) syncRelations(ctx context.Context) (int, error) {
	dbc := dbctx.New(ctx)
	rels, err := s.repos.SkillRelations.List(dbc)
	if err != nil {
		return 0, fmt.Errorf("rebuild: load relations: %w", err)
	}
	if len(rels) == 0 {
		return 0, nil
	}
	idSet := map[uuid.UUID]bool{}
	for _, r := range rels {
		idSet[r.SourceSkillID] = true
		idSet[r.TargetSkillID] = true
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	skills, err := s.repos.Skills.GetByIDs(dbc, ids)
	if err != nil {
		return 0, fmt.Errorf("rebuild: load relation skills: %w", err)
	}
	keyOf := make(map[uuid.UUID]string, len(skills))
	for _, sk := range skills {
		if _, err := s.store.MergeSkill(ctx, graph.SkillNode{Key: sk.Key, Name: sk.Name, Category: sk.Category}); err != nil {
			return 0, fmt.Errorf("rebuild: merge skill %s: %w", sk.Key, err)
		}
		keyOf[sk.ID] = sk.Key
	}
	n := 0
	for _, r := range rels {
		src, dst := keyOf[r.SourceSkillID], keyOf[r.TargetSkillID]
		if src == "" || dst == "" {
			continue
		}
		if _, err := s.store.MergeRelation(ctx, graph.RelationEdge{SourceKey: src, TargetKey: dst, Relation: r.Relation, Confidence: r.Confidence}); err != nil {
			return n, fmt.Errorf("rebuild: merge relation %s -> %s: %w", src, dst, err)
		}
		n++
	}
	return n, nil
}
