package skillgraph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/skillbridge-backend/internal/data/graph"
	"github.com/yungbote/skillbridge-backend/internal/observability"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

var ErrInvalidModuleCode = errors.New("invalid module code")

// SkillCandidate is one extracted skill before normalization.
type SkillCandidate struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Record is one module and the skills extracted from it.
type Record struct {
	ModuleCode  string
	ModuleTitle string
	SourceID    string
	Skills      []SkillCandidate
}

type SkippedSkill struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type ApplyResult struct {
	Module  graph.ModuleNode `json:"module"`
	Skills  []graph.SkillNode `json:"skills"`
	Skipped []SkippedSkill    `json:"skipped,omitempty"`
}

type RecordFailure struct {
	ModuleCode string `json:"module_code"`
	Error      string `json:"error"`
}

type BatchReport struct {
	Attempted int             `json:"attempted"`
	Succeeded int             `json:"succeeded"`
	Failed    []RecordFailure `json:"failed"`
	Aborted   bool            `json:"aborted"`
}

type RebuildStats struct {
	TeachesEdges int           `json:"teaches_edges"`
	Edges        int           `json:"edges"`
	Duration     time.Duration `json:"duration"`
}

// Builder writes Module/Skill nodes and edges through a graph.Store. Rebuilds are
// serialized; other writes rely on the store's atomic merge.
type Builder struct {
	store     graph.Store
	log       *logger.Logger
	rebuildMu sync.Mutex
}

func NewBuilder(store graph.Store, log *logger.Logger) *Builder {
	return &Builder{store: store, log: log.With("component", "GraphBuilder")}
}

// UpsertModule matches by code; title and source id are written on create only.
func (b *Builder) UpsertModule(ctx context.Context, code, title, sourceID string) (graph.ModuleNode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return graph.ModuleNode{}, ErrInvalidModuleCode
	}
	return b.store.MergeModule(ctx, graph.ModuleNode{
		Code:     code,
		Title:    strings.TrimSpace(title),
		SourceID: sourceID,
	})
}

// UpsertSkill matches by canonical key; the first display name and category win.
func (b *Builder) UpsertSkill(ctx context.Context, name, category string) (graph.SkillNode, error) {
	key, err := Normalize(name)
	if err != nil {
		return graph.SkillNode{}, err
	}
	return b.store.MergeSkill(ctx, graph.SkillNode{
		Key:      key,
		Name:     DisplayName(name),
		Category: NormalizeCategory(category),
	})
}

// LinkTeaches creates the TEACHES edge or overwrites its confidence.
func (b *Builder) LinkTeaches(ctx context.Context, moduleCode, skillKey string, confidence float64) error {
	return b.store.MergeTeaches(ctx, graph.TeachesEdge{
		ModuleCode: strings.TrimSpace(moduleCode),
		SkillKey:   skillKey,
		Confidence: ClampConfidence(confidence),
	})
}

// Apply writes one record: module, then skills, then edges last, so an interrupted
// record never leaves an edge pointing at a missing node.
func (b *Builder) Apply(ctx context.Context, rec Record) (ApplyResult, error) {
	var res ApplyResult
	mod, err := b.UpsertModule(ctx, rec.ModuleCode, rec.ModuleTitle, rec.SourceID)
	if err != nil {
		return res, fmt.Errorf("upsert module %q: %w", rec.ModuleCode, err)
	}
	res.Module = mod

	confidence := map[string]float64{}
	for _, cand := range rec.Skills {
		sk, err := b.UpsertSkill(ctx, cand.Name, cand.Category)
		if errors.Is(err, ErrInvalidSkillName) {
			res.Skipped = append(res.Skipped, SkippedSkill{Name: cand.Name, Reason: "InvalidSkillName"})
			continue
		}
		if err != nil {
			return res, fmt.Errorf("upsert skill %q: %w", cand.Name, err)
		}
		if _, dup := confidence[sk.Key]; !dup {
			res.Skills = append(res.Skills, sk)
		}
		confidence[sk.Key] = cand.Confidence
	}

	for _, sk := range res.Skills {
		if err := b.LinkTeaches(ctx, mod.Code, sk.Key, confidence[sk.Key]); err != nil {
			return res, fmt.Errorf("link %s -> %s: %w", mod.Code, sk.Key, err)
		}
	}
	return res, nil
}

// ApplyBatch applies records in order. A store outage aborts the remainder; other
// per-record failures are reported and the batch continues.
func (b *Builder) ApplyBatch(ctx context.Context, recs []Record) BatchReport {
	report := BatchReport{Failed: []RecordFailure{}}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			break
		}
		report.Attempted++
		if _, err := b.Apply(ctx, rec); err != nil {
			report.Failed = append(report.Failed, RecordFailure{ModuleCode: rec.ModuleCode, Error: err.Error()})
			b.log.Warn("graph record failed", "module_code", rec.ModuleCode, "error", err)
			if errors.Is(err, graph.ErrStoreUnavailable) {
				report.Aborted = true
				break
			}
			continue
		}
		report.Succeeded++
	}
	if report.Aborted {
		b.log.Error("graph batch aborted", "attempted", report.Attempted, "succeeded", report.Succeeded, "total", len(recs))
	}
	return report
}

// RebuildCooccurrence recomputes every RELATED_TO edge from the current TEACHES edges.
// Concurrent calls queue behind the running one.
func (b *Builder) RebuildCooccurrence(ctx context.Context) (RebuildStats, error) {
	b.rebuildMu.Lock()
	defer b.rebuildMu.Unlock()

	ctx, span := observability.StartSpan(ctx, "skillgraph.RebuildCooccurrence")
	defer span.End()

	start := time.Now()
	teaches, err := b.store.ListTeaches(ctx)
	if err != nil {
		return RebuildStats{}, fmt.Errorf("rebuild cooccurrence: list teaches: %w", err)
	}
	edges := ComputeCooccurrence(teaches)
	if err := b.store.ReplaceCooccurrence(ctx, edges); err != nil {
		return RebuildStats{}, fmt.Errorf("rebuild cooccurrence: replace edges: %w", err)
	}
	stats := RebuildStats{TeachesEdges: len(teaches), Edges: len(edges), Duration: time.Since(start)}
	observability.Current().ObserveRebuild(stats.Duration, stats.Edges)
	b.log.Info("cooccurrence rebuilt", "teaches", stats.TeachesEdges, "edges", stats.Edges, "duration", stats.Duration.String())
	return stats, nil
}
