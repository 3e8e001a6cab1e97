package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/skillbridge-backend/internal/data/graph"
	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/extraction"
	"github.com/yungbote/skillbridge-backend/internal/observability"
	"github.com/yungbote/skillbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
	"github.com/yungbote/skillbridge-backend/internal/skillgraph"
)

const (
	DefaultConcurrency = 10
	DefaultBatchLimit  = 500
	DefaultUnitTimeout = 3 * time.Minute
)

// Failure reasons reported per unit.
const (
	ReasonExtractionFailed = "ExtractionFailed"
	ReasonStoreUnavailable = "StoreUnavailable"
	ReasonPersistFailed    = "PersistFailed"
	ReasonMarkFailed       = "MarkProcessedFailed"
)

type ModuleSource interface {
	ListUnprocessed(dbc dbctx.Context, limit int) ([]*types.Module, error)
	MarkProcessed(dbc dbctx.Context, id uuid.UUID) error
}

type SkillExtractor interface {
	ModuleSkills(ctx context.Context, in extraction.ModuleInput) (extraction.ModuleSkills, bool, error)
}

// SkillPersister writes one module's skills to the relational and graph stores.
type SkillPersister interface {
	PersistModuleSkills(ctx context.Context, m *types.Module, skills []skillgraph.SkillCandidate) (skillgraph.ApplyResult, error)
}

type Config struct {
	Concurrency int
	BatchLimit  int
	UnitTimeout time.Duration
}

type UnitFailure struct {
	ModuleID   uuid.UUID `json:"module_id"`
	ModuleCode string    `json:"module_code"`
	Reason     string    `json:"reason"`
	Error      string    `json:"error"`
}

type MalformedUnit struct {
	ModuleID   uuid.UUID `json:"module_id"`
	ModuleCode string    `json:"module_code"`
	Raw        string    `json:"raw"`
	Error      string    `json:"error"`
}

type Report struct {
	Selected  int             `json:"selected"`
	Attempted int             `json:"attempted"`
	Succeeded int             `json:"succeeded"`
	Skills    int             `json:"skills"`
	Failed    []UnitFailure   `json:"failed"`
	Malformed []MalformedUnit `json:"malformed"`
	Cancelled bool            `json:"cancelled"`
}

// Processor extracts and persists skills for unprocessed modules, with at most
// Concurrency units in flight.
type Processor struct {
	log       *logger.Logger
	modules   ModuleSource
	extractor SkillExtractor
	persister SkillPersister
	cfg       Config
}

func NewProcessor(log *logger.Logger, modules ModuleSource, extractor SkillExtractor, persister SkillPersister, cfg Config) *Processor {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = DefaultBatchLimit
	}
	if cfg.UnitTimeout <= 0 {
		cfg.UnitTimeout = DefaultUnitTimeout
	}
	return &Processor{
		log:       log.With("component", "ModuleProcessor"),
		modules:   modules,
		extractor: extractor,
		persister: persister,
		cfg:       cfg,
	}
}

// Run selects up to limit unprocessed modules (BatchLimit when limit <= 0) and processes them.
func (p *Processor) Run(ctx context.Context, limit int) (Report, error) {
	if limit <= 0 || limit > p.cfg.BatchLimit {
		limit = p.cfg.BatchLimit
	}
	mods, err := p.modules.ListUnprocessed(dbctx.New(ctx), limit)
	if err != nil {
		return Report{Failed: []UnitFailure{}, Malformed: []MalformedUnit{}}, fmt.Errorf("pipeline: list unprocessed: %w", err)
	}
	return p.Process(ctx, mods), nil
}

// Process runs every module as an independent unit. Cancelling ctx stops new units from
// starting; units already in flight finish and their results stay in the report.
func (p *Processor) Process(ctx context.Context, mods []*types.Module) Report {
	ctx, span := observability.StartSpan(ctx, "pipeline.Process")
	defer span.End()

	rep := Report{Selected: len(mods), Failed: []UnitFailure{}, Malformed: []MalformedUnit{}}
	var mu sync.Mutex
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	unitBase := context.WithoutCancel(ctx)

	for _, m := range mods {
		if m == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		m := m
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			uctx, cancel := context.WithTimeout(unitBase, p.cfg.UnitTimeout)
			defer cancel()
			out := p.processOne(uctx, m)

			mu.Lock()
			defer mu.Unlock()
			rep.Attempted++
			switch {
			case out.malformed != nil:
				rep.Malformed = append(rep.Malformed, *out.malformed)
			case out.failure != nil:
				rep.Failed = append(rep.Failed, *out.failure)
			default:
				rep.Succeeded++
				rep.Skills += out.skills
			}
			return nil
		})
	}
	_ = g.Wait()
	rep.Cancelled = ctx.Err() != nil && rep.Attempted < countNonNil(mods)

	sort.Slice(rep.Failed, func(i, j int) bool { return rep.Failed[i].ModuleCode < rep.Failed[j].ModuleCode })
	sort.Slice(rep.Malformed, func(i, j int) bool { return rep.Malformed[i].ModuleCode < rep.Malformed[j].ModuleCode })

	fields := []interface{}{
		"selected", rep.Selected,
		"attempted", rep.Attempted,
		"succeeded", rep.Succeeded,
		"failed", len(rep.Failed),
		"malformed", len(rep.Malformed),
		"cancelled", rep.Cancelled,
		"duration", time.Since(start).String(),
	}
	p.log.Info("module batch finished", append(fields, ctxutil.LogFields(ctx)...)...)
	return rep
}

type unitOutcome struct {
	skills    int
	failure   *UnitFailure
	malformed *MalformedUnit
}

func (p *Processor) processOne(ctx context.Context, m *types.Module) unitOutcome {
	metrics := observability.Current()
	fail := func(reason string, err error) unitOutcome {
		fields := []interface{}{"module_id", m.ID, "module_code", m.Code, "reason", reason, "error", err}
		p.log.Warn("module unit failed", append(fields, ctxutil.LogFields(ctx)...)...)
		metrics.IncPipelineUnit("failed")
		return unitOutcome{failure: &UnitFailure{ModuleID: m.ID, ModuleCode: m.Code, Reason: reason, Error: err.Error()}}
	}

	payload, cached, err := p.extractor.ModuleSkills(ctx, extraction.ModuleInput{
		ID:    m.ID.String(),
		Code:  m.Code,
		Title: m.Title,
		Text:  moduleText(m),
	})
	if err != nil {
		if extraction.IsMalformed(err) {
			fields := []interface{}{"module_id", m.ID, "module_code", m.Code, "error", err}
			p.log.Warn("module output malformed", append(fields, ctxutil.LogFields(ctx)...)...)
			metrics.IncPipelineUnit("malformed")
			return unitOutcome{malformed: &MalformedUnit{
				ModuleID:   m.ID,
				ModuleCode: m.Code,
				Raw:        extraction.RawOutput(err),
				Error:      err.Error(),
			}}
		}
		return fail(ReasonExtractionFailed, err)
	}

	res, err := p.persister.PersistModuleSkills(ctx, m, payload.Skills)
	if err != nil {
		if errors.Is(err, graph.ErrStoreUnavailable) {
			return fail(ReasonStoreUnavailable, err)
		}
		return fail(ReasonPersistFailed, err)
	}
	if err := p.modules.MarkProcessed(dbctx.New(ctx), m.ID); err != nil {
		return fail(ReasonMarkFailed, err)
	}
	for _, s := range res.Skipped {
		p.log.Debug("skill skipped", "module_code", m.Code, "skill", s.Name, "reason", s.Reason)
	}
	metrics.IncPipelineUnit("succeeded")
	p.log.Debug("module processed", "module_code", m.Code, "skills", len(res.Skills), "cached", cached)
	return unitOutcome{skills: len(res.Skills)}
}

func moduleText(m *types.Module) string {
	if t := strings.TrimSpace(m.Description); t != "" {
		return t
	}
	return strings.TrimSpace(m.Title)
}

func countNonNil(mods []*types.Module) int {
	n := 0
	for _, m := range mods {
		if m != nil {
			n++
		}
	}
	return n
}
