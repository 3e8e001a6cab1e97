package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/skillbridge-backend/internal/data/graph"
	"github.com/yungbote/skillbridge-backend/internal/data/repos"
	"github.com/yungbote/skillbridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/extraction"
	"github.com/yungbote/skillbridge-backend/internal/ingestion"
	"github.com/yungbote/skillbridge-backend/internal/platform/apierr"
	"github.com/yungbote/skillbridge-backend/internal/skillgraph"
)

type fakeExtractor struct {
	skills      map[string][]skillgraph.SkillCandidate
	relations   []skillgraph.ProposedRelation
	err         error
	moduleCalls int
}

func (f *fakeExtractor) ModuleSkills(ctx context.Context, in extraction.ModuleInput) (extraction.ModuleSkills, bool, error) {
	f.moduleCalls++
	if f.err != nil {
		return extraction.ModuleSkills{}, false, f.err
	}
	return extraction.ModuleSkills{Skills: f.skills[in.Code]}, false, nil
}

func (f *fakeExtractor) ProgrammeRelations(ctx context.Context, in extraction.ProgrammeInput) (extraction.ProgrammeRelations, bool, error) {
	if f.err != nil {
		return extraction.ProgrammeRelations{}, false, f.err
	}
	return extraction.ProgrammeRelations{Relations: f.relations}, false, nil
}

type fixture struct {
	db      *gorm.DB
	set     repos.Set
	store   *graph.MemoryStore
	builder *skillgraph.Builder
	gen     GenerationService
	graph   GraphService
	ext     *fakeExtractor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	store := graph.NewMemoryStore()
	builder := skillgraph.NewBuilder(store, log)
	ext := &fakeExtractor{skills: map[string][]skillgraph.SkillCandidate{}}
	return &fixture{
		db:      db,
		set:     set,
		store:   store,
		builder: builder,
		ext:     ext,
		gen:     NewGenerationService(db, log, set, builder, store, ext),
		graph:   NewGraphService(log, set, store, builder, skillgraph.NewEngine(store, log)),
	}
}

func TestGenerateModuleSkillsPersistsAndCaches(t *testing.T) {
	f := newFixture(t)
	p := testutil.SeedProgramme(t, f.db, "BSC-CS")
	m := testutil.SeedModule(t, f.db, p.ID, "CSC1015F", "Intro to Programming")
	f.ext.skills["CSC1015F"] = []skillgraph.SkillCandidate{
		{Name: "Python", Category: "Technical", Confidence: 0.9},
		{Name: "  sql ", Category: "technical", Confidence: 1.4},
		{Name: "   ", Category: "Soft", Confidence: 0.5},
	}

	res, err := f.gen.GenerateModuleSkills(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("GenerateModuleSkills: %v", err)
	}
	if res.Cached || len(res.Skills) != 2 || len(res.Skipped) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Skills[0].Key != "sql" || res.Skills[0].Confidence != 1 {
		t.Fatalf("want sql first with clamped confidence, got=%+v", res.Skills[0])
	}
	if f.store.SkillCount() != 2 {
		t.Fatalf("graph skills: want=2 got=%d", f.store.SkillCount())
	}
	stored, err := f.set.Modules.GetByID(testutil.DBC(f.db), m.ID)
	if err != nil || stored == nil || !stored.IsProcessed {
		t.Fatalf("module must be marked processed: %+v err=%v", stored, err)
	}

	again, err := f.gen.GenerateModuleSkills(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("GenerateModuleSkills(again): %v", err)
	}
	if !again.Cached || len(again.Skills) != 2 || f.ext.moduleCalls != 1 {
		t.Fatalf("second call must reuse stored skills: %+v calls=%d", again, f.ext.moduleCalls)
	}
}

func TestGenerateModuleSkillsErrors(t *testing.T) {
	f := newFixture(t)
	_, err := f.gen.GenerateModuleSkills(context.Background(), uuid.New())
	if ae := apierr.As(err, ""); ae.Status != http.StatusNotFound {
		t.Fatalf("want 404, got=%v", err)
	}

	p := testutil.SeedProgramme(t, f.db, "BSC-CS")
	m := testutil.SeedModule(t, f.db, p.ID, "CSC2001F", "Data Structures")
	f.ext.err = &extraction.Error{Kind: extraction.KindMalformed, Op: "module_skills", Raw: "nope", Err: errors.New("bad json")}
	_, err = f.gen.GenerateModuleSkills(context.Background(), m.ID)
	if ae := apierr.As(err, ""); ae.Status != http.StatusBadGateway || ae.Code != "extraction_malformed" {
		t.Fatalf("want 502 extraction_malformed, got=%v", err)
	}
	if extraction.RawOutput(err) != "nope" {
		t.Fatalf("raw output must survive wrapping")
	}

	f.ext.err = &extraction.Error{Kind: extraction.KindTransient, Op: "module_skills", Err: errors.New("timeout")}
	_, err = f.gen.GenerateModuleSkills(context.Background(), m.ID)
	if ae := apierr.As(err, ""); ae.Status != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got=%v", err)
	}
}

func seedTaught(t *testing.T, f *fixture, programmeID uuid.UUID, code string, skills ...*types.Skill) *types.Module {
	t.Helper()
	m := testutil.SeedModule(t, f.db, programmeID, code, code+" title")
	for _, s := range skills {
		testutil.SeedTeaches(t, f.db, m.ID, s.ID, 0.8)
	}
	return m
}

func TestGenerateProgrammeRelations(t *testing.T) {
	f := newFixture(t)
	p := testutil.SeedProgramme(t, f.db, "BSC-DS")
	py := testutil.SeedSkill(t, f.db, "python", "Python", "Technical")
	sql := testutil.SeedSkill(t, f.db, "sql", "SQL", "Technical")
	ml := testutil.SeedSkill(t, f.db, "machine learning", "Machine Learning", "Domain")
	seedTaught(t, f, p.ID, "DS1", py, sql)
	seedTaught(t, f, p.ID, "DS2", py, ml)

	f.ext.relations = []skillgraph.ProposedRelation{
		{Source: "Machine Learning", Target: "python", Relation: "Requires", Confidence: 0.9},
		{Source: "SQL", Target: "sql", Relation: "requires", Confidence: 0.5},
		{Source: "Rust", Target: "SQL", Relation: "requires", Confidence: 0.5},
		{Source: "python", Target: "sql", Relation: "depends", Confidence: 0.5},
		{Source: "machine learning", Target: "Python", Relation: "builds on", Confidence: 0.7},
		{Source: "SQL", Target: "Machine Learning", Relation: "complements", Confidence: 2},
	}

	rep, err := f.gen.GenerateProgrammeRelations(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GenerateProgrammeRelations: %v", err)
	}
	if rep.Proposed != 6 || len(rep.Accepted) != 2 || len(rep.Rejected) != 4 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	wantReasons := []skillgraph.RejectReason{
		skillgraph.RejectSelfLink,
		skillgraph.RejectUnknownSkill,
		skillgraph.RejectInvalidRelationType,
		skillgraph.RejectDuplicateRelation,
	}
	for i, want := range wantReasons {
		if rep.Rejected[i].Reason != want {
			t.Fatalf("rejection %d: want=%s got=%s", i, want, rep.Rejected[i].Reason)
		}
	}
	if rep.Accepted[1].Confidence != 1 {
		t.Fatalf("confidence must clamp, got=%v", rep.Accepted[1].Confidence)
	}
	rels, err := f.store.ListRelations(context.Background(), []string{"python", "sql", "machine learning"})
	if err != nil || len(rels) != 2 {
		t.Fatalf("graph relations: %v err=%v", rels, err)
	}

	// A second run proposes the same pairs; they are all duplicates now.
	rep, err = f.gen.GenerateProgrammeRelations(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GenerateProgrammeRelations(again): %v", err)
	}
	if len(rep.Accepted) != 0 {
		t.Fatalf("rerun must not accept stored pairs: %+v", rep.Accepted)
	}
	stored, err := f.set.SkillRelations.ListByProgramme(testutil.DBC(f.db), p.ID)
	if err != nil || len(stored) != 2 {
		t.Fatalf("stored relations: %d err=%v", len(stored), err)
	}
}

func TestGenerateProgrammeRelationsNeedsTwoSkills(t *testing.T) {
	f := newFixture(t)
	p := testutil.SeedProgramme(t, f.db, "BSC-X")
	py := testutil.SeedSkill(t, f.db, "python", "Python", "Technical")
	seedTaught(t, f, p.ID, "X1", py)
	f.ext.err = errors.New("must not be called")

	rep, err := f.gen.GenerateProgrammeRelations(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GenerateProgrammeRelations: %v", err)
	}
	if rep.Proposed != 0 || len(rep.Accepted) != 0 || rep.Rejected == nil {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestRebuildMirrorsRelationalRowsAndSuggests(t *testing.T) {
	f := newFixture(t)
	p := testutil.SeedProgramme(t, f.db, "BSC-DS")
	py := testutil.SeedSkill(t, f.db, "python", "Python", "Technical")
	sql := testutil.SeedSkill(t, f.db, "sql", "SQL", "Technical")
	ml := testutil.SeedSkill(t, f.db, "machine learning", "Machine Learning", "Domain")
	seedTaught(t, f, p.ID, "M1", py, sql)
	seedTaught(t, f, p.ID, "M2", py, sql)
	seedTaught(t, f, p.ID, "M3", py, ml)
	pid := p.ID
	if err := f.set.SkillRelations.Create(testutil.DBC(f.db), &types.SkillRelation{
		ProgrammeID: &pid, SourceSkillID: ml.ID, TargetSkillID: py.ID, Relation: types.RelationRequires, Confidence: 0.8,
	}); err != nil {
		t.Fatalf("seed relation: %v", err)
	}

	rep, err := f.graph.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if rep.Graph.Succeeded != 3 || rep.Relations != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.Cooccurrence.TeachesEdges != 6 || rep.Cooccurrence.Edges != 2 {
		t.Fatalf("unexpected cooccurrence stats: %+v", rep.Cooccurrence)
	}

	payload, err := f.graph.Suggest(context.Background(), []string{"Python"}, 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(payload.Nodes) != 3 || payload.Nodes[1].ID != "sql" || payload.Nodes[2].ID != "machine learning" {
		t.Fatalf("unexpected nodes: %+v", payload.Nodes)
	}
	if len(payload.Links) != 2 || payload.Links[0].Strength != 2 {
		t.Fatalf("unexpected links: %+v", payload.Links)
	}
}

func TestKnowledgeGraph(t *testing.T) {
	f := newFixture(t)
	if _, err := f.graph.KnowledgeGraph(context.Background(), uuid.New()); apierr.As(err, "").Status != http.StatusNotFound {
		t.Fatalf("want 404, got=%v", err)
	}

	p := testutil.SeedProgramme(t, f.db, "BSC-DS")
	other := testutil.SeedProgramme(t, f.db, "BSC-OTHER")
	py := testutil.SeedSkill(t, f.db, "python", "Python", "Technical")
	sql := testutil.SeedSkill(t, f.db, "sql", "SQL", "Technical")
	rust := testutil.SeedSkill(t, f.db, "rust", "Rust", "Technical")
	seedTaught(t, f, p.ID, "M1", py, sql)
	seedTaught(t, f, other.ID, "O1", rust)
	pid := p.ID
	if err := f.set.SkillRelations.Create(testutil.DBC(f.db), &types.SkillRelation{
		ProgrammeID: &pid, SourceSkillID: sql.ID, TargetSkillID: py.ID, Relation: types.RelationComplements, Confidence: 0.6,
	}); err != nil {
		t.Fatalf("seed relation: %v", err)
	}

	kg, err := f.graph.KnowledgeGraph(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("KnowledgeGraph: %v", err)
	}
	if len(kg.Nodes) != 3 || kg.Nodes[0].Type != NodeTypeModule || kg.Nodes[1].Name != "Python" {
		t.Fatalf("unexpected nodes: %+v", kg.Nodes)
	}
	var teaches, typed int
	for _, e := range kg.Edges {
		switch e.Type {
		case EdgeTypeTeaches:
			teaches++
		case types.RelationComplements:
			typed++
		}
	}
	if teaches != 2 || typed != 1 {
		t.Fatalf("edges: teaches=%d typed=%d all=%+v", teaches, typed, kg.Edges)
	}
}

func TestDegreeServiceMatchAndQualify(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewDegreeService(log, repos.NewDegreeRepo(db, log), nil)
	ctx := context.Background()

	n, err := svc.Seed(ctx, []ingestion.DegreeSeed{
		{Name: "BSc Computer Science", Faculty: "Science", Requirements: []ingestion.RequirementSeed{
			{Subject: "Mathematics", MinimumMark: 70},
			{Subject: "English", MinimumMark: 50},
		}},
		{Name: "BCom Accounting", Faculty: "Commerce", Requirements: []ingestion.RequirementSeed{
			{Subject: "Mathematics", MinimumMark: 60},
			{Subject: "Accounting", MinimumMark: 60},
		}},
		{Name: "BA General", Faculty: "Humanities"},
	})
	if err != nil || n != 3 {
		t.Fatalf("Seed: n=%d err=%v", n, err)
	}

	res, err := svc.Match(ctx, map[string]float64{"mathematics": 70, "English ": 40}, 0.6)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].Degree != "BSc Computer Science" || res.Results[0].Score != 0.9 {
		t.Fatalf("unexpected results: %+v", res.Results)
	}
	if len(res.Bubble.Nodes) != 2 || res.Bubble.Nodes[0].ID != "faculty-Science" {
		t.Fatalf("unexpected bubble: %+v", res.Bubble)
	}

	names, err := svc.Qualify(ctx, map[string]float64{"Mathematics": 75, "Accounting": 65, "English": 45})
	if err != nil {
		t.Fatalf("Qualify: %v", err)
	}
	// A degree without requirements is open to everyone.
	if len(names) != 2 || names[0] != "BA General" || names[1] != "BCom Accounting" {
		t.Fatalf("Qualify: got=%v", names)
	}
}

func TestCatalogSeedAndImport(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewCatalogService(db, log, repos.NewProgrammeRepo(db, log), repos.NewModuleRepo(db, log))
	ctx := context.Background()

	rep, err := svc.SeedProgrammes(ctx, []ingestion.ProgrammeSeed{{
		Code: "BSC-CS", Name: "Computer Science",
		Modules: []ingestion.ModuleSeed{{Code: "CSC1015F", Title: "Intro"}, {Code: "CSC1016S"}},
	}})
	if err != nil || rep.Programmes != 1 || rep.Modules != 2 {
		t.Fatalf("SeedProgrammes: rep=%+v err=%v", rep, err)
	}
	progs, err := svc.ListProgrammes(ctx)
	if err != nil || len(progs) != 1 {
		t.Fatalf("ListProgrammes: %v err=%v", progs, err)
	}

	imp, err := svc.ImportRecords(ctx, "BSC-CS", []ingestion.ModuleRecord{
		{Code: "CSC1015F", Name: "Renamed", Description: "ignored"},
		{Code: "CSC2001F", Name: "Data Structures", Description: "Trees and graphs."},
	})
	if err != nil || imp.Modules != 2 {
		t.Fatalf("ImportRecords: rep=%+v err=%v", imp, err)
	}
	mods, err := svc.ListModules(ctx, progs[0].ID)
	if err != nil || len(mods) != 3 {
		t.Fatalf("ListModules: %d err=%v", len(mods), err)
	}
	for _, m := range mods {
		if m.Code == "CSC1015F" && m.Title != "Intro" {
			t.Fatalf("existing module must be unchanged, got title %q", m.Title)
		}
		if m.Code == "CSC1016S" && m.Title != "Module CSC1016S" {
			t.Fatalf("blank title must default, got %q", m.Title)
		}
	}

	if _, err := svc.ImportRecords(ctx, "NOPE", nil); apierr.As(err, "").Status != http.StatusNotFound {
		t.Fatalf("want 404 for unknown programme, got=%v", err)
	}
}

func TestJobServiceTrack(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewJobService(log, repos.NewJobRunRepo(db, log))
	ctx := context.Background()

	run, err := svc.Track(ctx, "rebuild_graph", "test", map[string]int{"limit": 2}, func(ctx context.Context) (any, error) {
		return map[string]int{"edges": 4}, nil
	})
	if err != nil || run == nil {
		t.Fatalf("Track: run=%v err=%v", run, err)
	}
	if run.Status != "succeeded" || !run.Finished() || !sameJSON(run.Result, `{"edges":4}`) || !sameJSON(run.Payload, `{"limit":2}`) {
		t.Fatalf("succeeded run: %+v", run)
	}

	boom := errors.New("store down")
	failed, err := svc.Track(ctx, "rebuild_graph", "test", nil, func(ctx context.Context) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) || failed == nil || failed.Status != "failed" || failed.Error != "store down" {
		t.Fatalf("failed run: run=%+v err=%v", failed, err)
	}

	runs, err := svc.List(ctx, "rebuild_graph", 10)
	if err != nil || len(runs) != 2 {
		t.Fatalf("List: len=%d err=%v", len(runs), err)
	}
	got, err := svc.Get(ctx, run.ID)
	if err != nil || got.ID != run.ID {
		t.Fatalf("Get: got=%v err=%v", got, err)
	}
	if _, err := svc.Get(ctx, uuid.New()); apierr.As(err, "").Status != http.StatusNotFound {
		t.Fatalf("Get(missing): err=%v", err)
	}
}

func sameJSON(got []byte, want string) bool {
	var a, b any
	if json.Unmarshal(got, &a) != nil || json.Unmarshal([]byte(want), &b) != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// flakyStore fails selected graph writes and delegates everything else.
type flakyStore struct {
	*graph.MemoryStore
	teachesFailures int
	relationsDown   bool
}

var errGraphWrite = errors.New("graph write failed")

func (s *flakyStore) MergeTeaches(ctx context.Context, e graph.TeachesEdge) error {
	if s.teachesFailures > 0 {
		s.teachesFailures--
		return errGraphWrite
	}
	return s.MemoryStore.MergeTeaches(ctx, e)
}

func (s *flakyStore) MergeRelation(ctx context.Context, e graph.RelationEdge) (bool, error) {
	if s.relationsDown {
		return false, errGraphWrite
	}
	return s.MemoryStore.MergeRelation(ctx, e)
}

func newFlakyGeneration(t *testing.T, f *fixture) (GenerationService, *flakyStore) {
	t.Helper()
	log := testutil.Logger(t)
	store := &flakyStore{MemoryStore: f.store}
	return NewGenerationService(f.db, log, f.set, skillgraph.NewBuilder(store, log), store, f.ext), store
}

func TestGenerateModuleSkillsReplaysGraphAfterFailedWrite(t *testing.T) {
	f := newFixture(t)
	gen, store := newFlakyGeneration(t, f)
	p := testutil.SeedProgramme(t, f.db, "BSC-CS")
	m := testutil.SeedModule(t, f.db, p.ID, "M1", "Module One")
	f.ext.skills["M1"] = []skillgraph.SkillCandidate{
		{Name: "Python", Category: "Technical", Confidence: 0.9},
		{Name: "SQL", Category: "Technical", Confidence: 0.7},
	}
	store.teachesFailures = 1

	if _, err := gen.GenerateModuleSkills(context.Background(), m.ID); !errors.Is(err, errGraphWrite) {
		t.Fatalf("first call: want graph write error, got=%v", err)
	}
	stored, err := f.set.Modules.GetByID(testutil.DBC(f.db), m.ID)
	if err != nil || stored == nil || stored.IsProcessed {
		t.Fatalf("module must stay unprocessed after a failed graph write: %+v err=%v", stored, err)
	}

	res, err := gen.GenerateModuleSkills(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !res.Cached || len(res.Skills) != 2 {
		t.Fatalf("second call must answer from stored rows: %+v", res)
	}
	edges, err := f.store.ListTeaches(context.Background())
	if err != nil || len(edges) != 2 {
		t.Fatalf("graph must hold both TEACHES edges after replay: edges=%v err=%v", edges, err)
	}
	stored, _ = f.set.Modules.GetByID(testutil.DBC(f.db), m.ID)
	if stored == nil || !stored.IsProcessed {
		t.Fatalf("module must be processed after replay")
	}
	if f.ext.moduleCalls != 1 {
		t.Fatalf("replay must not call the extractor again, calls=%d", f.ext.moduleCalls)
	}
}

func TestGenerateProgrammeRelationsRollsBackOnGraphFailure(t *testing.T) {
	f := newFixture(t)
	gen, store := newFlakyGeneration(t, f)
	p := testutil.SeedProgramme(t, f.db, "BSC-DS")
	py := testutil.SeedSkill(t, f.db, "python", "Python", "Technical")
	sql := testutil.SeedSkill(t, f.db, "sql", "SQL", "Technical")
	seedTaught(t, f, p.ID, "DS1", py, sql)
	f.ext.relations = []skillgraph.ProposedRelation{
		{Source: "SQL", Target: "Python", Relation: "requires", Confidence: 0.8},
	}
	store.relationsDown = true

	rep, err := gen.GenerateProgrammeRelations(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GenerateProgrammeRelations: %v", err)
	}
	if len(rep.Accepted) != 0 || len(rep.Rejected) != 1 || rep.Rejected[0].Reason != skillgraph.RejectPersistFailed {
		t.Fatalf("want one PersistFailed rejection: %+v", rep)
	}
	rows, err := f.set.SkillRelations.ListByProgramme(testutil.DBC(f.db), p.ID)
	if err != nil || len(rows) != 0 {
		t.Fatalf("failed item must not leave a relational row: rows=%d err=%v", len(rows), err)
	}

	store.relationsDown = false
	rep, err = gen.GenerateProgrammeRelations(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GenerateProgrammeRelations(retry): %v", err)
	}
	if len(rep.Accepted) != 1 || len(rep.Rejected) != 0 {
		t.Fatalf("retry must accept the pair: %+v", rep)
	}
	rels, err := f.store.ListRelations(context.Background(), []string{"python", "sql"})
	if err != nil || len(rels) != 1 {
		t.Fatalf("graph relations after retry: %v err=%v", rels, err)
	}
}
