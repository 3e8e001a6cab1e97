package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/skillbridge-backend/internal/data/graph"
	"github.com/yungbote/skillbridge-backend/internal/data/repos"
	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/extraction"
	"github.com/yungbote/skillbridge-backend/internal/platform/apierr"
	"github.com/yungbote/skillbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
	"github.com/yungbote/skillbridge-backend/internal/skillgraph"
)

// Extractor is the subset of *extraction.Extractor used here.
type Extractor interface {
	ModuleSkills(ctx context.Context, in extraction.ModuleInput) (extraction.ModuleSkills, bool, error)
	ProgrammeRelations(ctx context.Context, in extraction.ProgrammeInput) (extraction.ProgrammeRelations, bool, error)
}

type GenerationService interface {
	// PersistModuleSkills writes skills and TEACHES rows relationally, then mirrors them
	// into the graph store.
	PersistModuleSkills(ctx context.Context, m *types.Module, skills []skillgraph.SkillCandidate) (skillgraph.ApplyResult, error)
	GenerateModuleSkills(ctx context.Context, moduleID uuid.UUID) (*ModuleSkillsResult, error)
	GenerateProgrammeRelations(ctx context.Context, programmeID uuid.UUID) (*RelationsReport, error)
}

type TaughtSkill struct {
	SkillID    uuid.UUID `json:"skill_id"`
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
}

type ModuleSkillsResult struct {
	ModuleID   uuid.UUID                 `json:"module_id"`
	ModuleCode string                    `json:"module_code"`
	Cached     bool                      `json:"cached"`
	Skills     []TaughtSkill             `json:"skills"`
	Skipped    []skillgraph.SkippedSkill `json:"skipped,omitempty"`
}

type RelationsReport struct {
	ProgrammeID uuid.UUID                     `json:"programme_id"`
	Cached      bool                          `json:"cached"`
	Proposed    int                           `json:"proposed"`
	Accepted    []skillgraph.AcceptedRelation `json:"accepted"`
	Rejected    []skillgraph.Rejection        `json:"rejected"`
}

type generationService struct {
	db        *gorm.DB
	log       *logger.Logger
	repos     repos.Set
	builder   *skillgraph.Builder
	store     graph.Store
	extractor Extractor
}

func NewGenerationService(db *gorm.DB, baseLog *logger.Logger, set repos.Set, builder *skillgraph.Builder, store graph.Store, extractor Extractor) GenerationService {
	return &generationService{
		db:        db,
		log:       baseLog.With("service", "GenerationService"),
		repos:     set,
		builder:   builder,
		store:     store,
		extractor: extractor,
	}
}

func (s *generationService) PersistModuleSkills(ctx context.Context, m *types.Module, candidates []skillgraph.SkillCandidate) (skillgraph.ApplyResult, error) {
	if m == nil {
		return skillgraph.ApplyResult{}, errors.New("module required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, c := range candidates {
			key, err := skillgraph.Normalize(c.Name)
			if err != nil {
				continue
			}
			sk, err := s.repos.Skills.UpsertByKey(dbc, &types.Skill{
				Key:      key,
				Name:     skillgraph.DisplayName(c.Name),
				Category: skillgraph.NormalizeCategory(c.Category),
			})
			if err != nil {
				return fmt.Errorf("skill %q: %w", c.Name, err)
			}
			if err := s.repos.ModuleSkills.Upsert(dbc, &types.ModuleSkill{
				ModuleID:   m.ID,
				SkillID:    sk.ID,
				Confidence: skillgraph.ClampConfidence(c.Confidence),
			}); err != nil {
				return fmt.Errorf("teaches %s -> %q: %w", m.Code, c.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return skillgraph.ApplyResult{}, fmt.Errorf("persist module skills: %w", err)
	}
	res, err := s.builder.Apply(ctx, skillgraph.Record{
		ModuleCode:  m.Code,
		ModuleTitle: m.Title,
		SourceID:    m.ID.String(),
		Skills:      candidates,
	})
	if err != nil {
		return res, fmt.Errorf("persist module skills: graph: %w", err)
	}
	return res, nil
}

// GenerateModuleSkills returns the module's stored skills when it already has any
// (cached=true); otherwise it extracts, persists and marks the module processed. The
// module is only marked processed once both stores hold its skills.
func (s *generationService) GenerateModuleSkills(ctx context.Context, moduleID uuid.UUID) (*ModuleSkillsResult, error) {
	dbc := dbctx.New(ctx)
	m, err := s.repos.Modules.GetByID(dbc, moduleID)
	if err != nil {
		return nil, fmt.Errorf("generate skills: load module: %w", err)
	}
	if m == nil {
		return nil, apierr.NotFound("module_not_found", fmt.Errorf("module %s not found", moduleID))
	}
	out := &ModuleSkillsResult{ModuleID: m.ID, ModuleCode: m.Code}

	rows, err := s.repos.ModuleSkills.ListTeachesByModule(dbc, m.ID)
	if err != nil {
		return nil, fmt.Errorf("generate skills: load teaches: %w", err)
	}
	if len(rows) > 0 {
		// Rows on an unprocessed module mean an earlier graph write failed after the
		// relational commit; replay them before answering from the store.
		if !m.IsProcessed {
			if err := s.resyncModuleGraph(ctx, m, rows); err != nil {
				return nil, err
			}
		}
		out.Cached = true
		out.Skills = taughtSkills(rows)
		return out, nil
	}

	payload, _, err := s.extractor.ModuleSkills(ctx, extraction.ModuleInput{
		ID:    m.ID.String(),
		Code:  m.Code,
		Title: m.Title,
		Text:  m.Description,
	})
	if err != nil {
		return nil, extractionAPIError(err)
	}
	res, err := s.PersistModuleSkills(ctx, m, payload.Skills)
	if err != nil {
		if errors.Is(err, graph.ErrStoreUnavailable) {
			return nil, apierr.Unavailable("graph_unavailable", err)
		}
		return nil, err
	}
	if err := s.repos.Modules.MarkProcessed(dbc, m.ID); err != nil {
		s.log.Warn("mark processed failed", "module_id", m.ID, "module_code", m.Code, "error", err)
	}
	out.Skipped = res.Skipped

	rows, err = s.repos.ModuleSkills.ListTeachesByModule(dbc, m.ID)
	if err != nil {
		return nil, fmt.Errorf("generate skills: reload teaches: %w", err)
	}
	out.Skills = taughtSkills(rows)
	return out, nil
}

func (s *generationService) resyncModuleGraph(ctx context.Context, m *types.Module, rows []repos.TeachesRow) error {
	cands := make([]skillgraph.SkillCandidate, 0, len(rows))
	for _, r := range rows {
		cands = append(cands, skillgraph.SkillCandidate{Name: r.SkillName, Category: r.SkillCategory, Confidence: r.Confidence})
	}
	if _, err := s.builder.Apply(ctx, skillgraph.Record{
		ModuleCode:  m.Code,
		ModuleTitle: m.Title,
		SourceID:    m.ID.String(),
		Skills:      cands,
	}); err != nil {
		err = fmt.Errorf("generate skills: resync graph: %w", err)
		if errors.Is(err, graph.ErrStoreUnavailable) {
			return apierr.Unavailable("graph_unavailable", err)
		}
		return err
	}
	if err := s.repos.Modules.MarkProcessed(dbctx.New(ctx), m.ID); err != nil {
		s.log.Warn("mark processed failed", "module_id", m.ID, "module_code", m.Code, "error", err)
	}
	s.log.Info("module graph resynced from stored skills", "module_id", m.ID, "module_code", m.Code, "skills", len(rows))
	return nil
}

// GenerateProgrammeRelations proposes typed relations among a programme's skills, merges
// them against what is stored, and persists each accepted relation on its own.
func (s *generationService) GenerateProgrammeRelations(ctx context.Context, programmeID uuid.UUID) (*RelationsReport, error) {
	dbc := dbctx.New(ctx)
	p, err := s.repos.Programmes.GetByID(dbc, programmeID)
	if err != nil {
		return nil, fmt.Errorf("generate relations: load programme: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("programme_not_found", fmt.Errorf("programme %s not found", programmeID))
	}
	rep := &RelationsReport{
		ProgrammeID: p.ID,
		Accepted:    []skillgraph.AcceptedRelation{},
		Rejected:    []skillgraph.Rejection{},
	}

	skills, err := s.repos.Skills.ListByProgramme(dbc, p.ID)
	if err != nil {
		return nil, fmt.Errorf("generate relations: load skills: %w", err)
	}
	if len(skills) < 2 {
		return rep, nil
	}
	byKey := make(map[string]*types.Skill, len(skills))
	byID := make(map[uuid.UUID]*types.Skill, len(skills))
	known := make(map[string]bool, len(skills))
	names := make([]string, 0, len(skills))
	ids := make([]uuid.UUID, 0, len(skills))
	for _, sk := range skills {
		byKey[sk.Key] = sk
		byID[sk.ID] = sk
		known[sk.Key] = true
		names = append(names, sk.Name)
		ids = append(ids, sk.ID)
	}

	stored, err := s.repos.SkillRelations.ListAmong(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("generate relations: load existing: %w", err)
	}
	existing := make([]skillgraph.Pair, 0, len(stored))
	for _, r := range stored {
		src, dst := byID[r.SourceSkillID], byID[r.TargetSkillID]
		if src != nil && dst != nil {
			existing = append(existing, skillgraph.Pair{Source: src.Key, Target: dst.Key})
		}
	}

	payload, cached, err := s.extractor.ProgrammeRelations(ctx, extraction.ProgrammeInput{
		ID:     p.ID.String(),
		Name:   p.Name,
		Skills: names,
	})
	if err != nil {
		return nil, extractionAPIError(err)
	}
	rep.Cached = cached
	rep.Proposed = len(payload.Relations)

	merged := skillgraph.MergeRelations(known, existing, payload.Relations)
	persisted := skillgraph.PersistAccepted(ctx, merged, func(ctx context.Context, rel skillgraph.AcceptedRelation) (bool, error) {
		return s.persistRelation(ctx, p.ID, byKey[rel.SourceKey], byKey[rel.TargetKey], rel)
	})
	rep.Accepted = persisted.Accepted
	rep.Rejected = persisted.Rejected
	s.log.Info("programme relations generated",
		"programme_id", p.ID,
		"proposed", rep.Proposed,
		"accepted", len(rep.Accepted),
		"rejected", len(rep.Rejected),
		"cached", cached,
	)
	return rep, nil
}

// persistRelation writes the relational row, then the graph edge. A failed graph write
// removes the row again so the item is reported as failed in both stores and a later run
// can retry it.
func (s *generationService) persistRelation(ctx context.Context, programmeID uuid.UUID, src, dst *types.Skill, rel skillgraph.AcceptedRelation) (bool, error) {
	if src == nil || dst == nil {
		return false, fmt.Errorf("skill missing for %s -> %s", rel.SourceKey, rel.TargetKey)
	}
	pid := programmeID
	row := &types.SkillRelation{
		ProgrammeID:   &pid,
		SourceSkillID: src.ID,
		TargetSkillID: dst.ID,
		Relation:      rel.Relation,
		Confidence:    rel.Confidence,
	}
	err := s.repos.SkillRelations.Create(dbctx.New(ctx), row)
	if errors.Is(err, repos.ErrRelationExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.mergeGraphRelation(ctx, src, dst, rel); err != nil {
		if derr := s.repos.SkillRelations.Delete(dbctx.New(context.WithoutCancel(ctx)), row.ID); derr != nil {
			s.log.Error("relation rollback failed; run rebuild-graph to resync",
				"source", rel.SourceKey, "target", rel.TargetKey, "error", derr)
			return false, fmt.Errorf("%w (rollback: %v)", err, derr)
		}
		return false, err
	}
	return true, nil
}

func (s *generationService) mergeGraphRelation(ctx context.Context, src, dst *types.Skill, rel skillgraph.AcceptedRelation) error {
	// Endpoints may predate the graph store (fresh in-memory graph); merge them first.
	for _, sk := range []*types.Skill{src, dst} {
		if _, err := s.store.MergeSkill(ctx, graph.SkillNode{Key: sk.Key, Name: sk.Name, Category: sk.Category}); err != nil {
			return fmt.Errorf("graph skill %s: %w", sk.Key, err)
		}
	}
	if _, err := s.store.MergeRelation(ctx, graph.RelationEdge{
		SourceKey:  rel.SourceKey,
		TargetKey:  rel.TargetKey,
		Relation:   rel.Relation,
		Confidence: rel.Confidence,
	}); err != nil {
		return fmt.Errorf("graph relation: %w", err)
	}
	return nil
}

func taughtSkills(rows []repos.TeachesRow) []TaughtSkill {
	out := make([]TaughtSkill, 0, len(rows))
	for _, r := range rows {
		out = append(out, TaughtSkill{SkillID: r.SkillID, Key: r.SkillKey, Name: r.SkillName, Category: r.SkillCategory, Confidence: r.Confidence})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func extractionAPIError(err error) error {
	switch {
	case extraction.IsMalformed(err):
		return apierr.New(http.StatusBadGateway, "extraction_malformed", err)
	case extraction.IsTransient(err):
		return apierr.Unavailable("extraction_unavailable", err)
	default:
		return err
	}
}
