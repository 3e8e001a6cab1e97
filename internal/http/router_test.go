package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/skillbridge-backend/internal/data/graph"
	"github.com/yungbote/skillbridge-backend/internal/data/repos"
	"github.com/yungbote/skillbridge-backend/internal/data/repos/testutil"
	"github.com/yungbote/skillbridge-backend/internal/extraction"
	httpH "github.com/yungbote/skillbridge-backend/internal/http/handlers"
	"github.com/yungbote/skillbridge-backend/internal/http/response"
	"github.com/yungbote/skillbridge-backend/internal/matching"
	"github.com/yungbote/skillbridge-backend/internal/pipeline"
	"github.com/yungbote/skillbridge-backend/internal/services"
	"github.com/yungbote/skillbridge-backend/internal/skillgraph"
)

type stubExtractor struct {
	err error
}

func (s *stubExtractor) ModuleSkills(ctx context.Context, in extraction.ModuleInput) (extraction.ModuleSkills, bool, error) {
	if s.err != nil {
		return extraction.ModuleSkills{}, false, s.err
	}
	return extraction.ModuleSkills{Skills: []skillgraph.SkillCandidate{{Name: "Python", Category: "Technical", Confidence: 0.9}}}, false, nil
}

func (s *stubExtractor) ProgrammeRelations(ctx context.Context, in extraction.ProgrammeInput) (extraction.ProgrammeRelations, bool, error) {
	return extraction.ProgrammeRelations{}, false, s.err
}

type testEnv struct {
	db      *gorm.DB
	router  *gin.Engine
	set     repos.Set
	builder *skillgraph.Builder
	ext     *stubExtractor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	store := graph.NewMemoryStore()
	builder := skillgraph.NewBuilder(store, log)
	ext := &stubExtractor{}

	catalog := services.NewCatalogService(db, log, set.Programmes, set.Modules)
	gen := services.NewGenerationService(db, log, set, builder, store, ext)
	gs := services.NewGraphService(log, set, store, builder, skillgraph.NewEngine(store, log))
	degrees := services.NewDegreeService(log, set.Degrees, matching.NewSubjectMap(map[string]string{"Maths": "Mathematics"}))
	proc := pipeline.NewProcessor(log, set.Modules, ext, gen, pipeline.Config{})
	jobs := services.NewJobService(log, set.JobRuns)

	r := NewRouter(RouterConfig{
		Log:              log,
		ProgrammeHandler: httpH.NewProgrammeHandler(catalog, gen, gs),
		ModuleHandler:    httpH.NewModuleHandler(catalog, gen),
		GraphHandler:     httpH.NewGraphHandler(gs, jobs, skillgraph.DefaultSuggestLimit),
		JobHandler:       httpH.NewJobHandler(proc, jobs),
		DegreeHandler:    httpH.NewDegreeHandler(degrees),
		HealthHandler:    httpH.NewHealthHandler(nil),
	})
	return &testEnv{db: db, router: r, set: set, builder: builder, ext: ext}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v body=%s", err, rec.Body.String())
	}
	return env.Error
}

func TestHealthcheck(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/healthcheck", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: status=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.builder.ApplyBatch(ctx, []skillgraph.Record{
		{ModuleCode: "M1", Skills: []skillgraph.SkillCandidate{{Name: "Python"}, {Name: "SQL"}}},
		{ModuleCode: "M2", Skills: []skillgraph.SkillCandidate{{Name: "Python"}, {Name: "SQL"}, {Name: "Statistics"}}},
	})
	if _, err := e.builder.RebuildCooccurrence(ctx); err != nil {
		t.Fatalf("RebuildCooccurrence: %v", err)
	}

	rec := e.do(t, http.MethodPost, "/api/skills/suggestions", map[string]any{"skills": []string{"python"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var p skillgraph.Payload
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(p.Nodes) != 3 || !p.Nodes[0].IsCore || p.Nodes[1].ID != "sql" || len(p.Links) != 2 {
		t.Fatalf("unexpected payload: %+v", p)
	}

	rec = e.do(t, http.MethodPost, "/api/skills/suggestions", map[string]any{"skills": []string{"python"}, "limit": 0})
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil || len(p.Links) != 0 || len(p.Nodes) != 1 {
		t.Fatalf("limit 0 must suggest nothing: %+v err=%v", p, err)
	}

	rec = e.do(t, http.MethodPost, "/api/skills/suggestions", "{not json")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_request" {
		t.Fatalf("bad body: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestProgrammeRoutes(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/api/programmes/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_programme_id" {
		t.Fatalf("bad id: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = e.do(t, http.MethodGet, "/api/programmes/"+uuid.NewString()+"/knowledge-graph", nil)
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "programme_not_found" {
		t.Fatalf("unknown programme: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = e.do(t, http.MethodGet, "/api/programmes", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != `{"programmes":[]}` {
		t.Fatalf("empty list: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestGenerateSkillsAndProcessModules(t *testing.T) {
	e := newTestEnv(t)
	prog := testutil.SeedProgramme(t, e.db, "BSC-CS")
	m1 := testutil.SeedModule(t, e.db, prog.ID, "CSC1015F", "Intro")
	testutil.SeedModule(t, e.db, prog.ID, "CSC1016S", "Next")

	e.ext.err = &extraction.Error{Kind: extraction.KindMalformed, Op: "module_skills", Raw: "not json", Err: errors.New("decode")}
	rec := e.do(t, http.MethodPost, "/api/modules/"+m1.ID.String()+"/generate-skills", nil)
	apiErr := decodeError(t, rec)
	if rec.Code != http.StatusBadGateway || apiErr.Code != "extraction_malformed" || apiErr.Raw != "not json" {
		t.Fatalf("malformed: status=%d err=%+v", rec.Code, apiErr)
	}

	e.ext.err = nil
	rec = e.do(t, http.MethodPost, "/api/modules/"+m1.ID.String()+"/generate-skills", nil)
	var res services.ModuleSkillsResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("generate: status=%d body=%s", rec.Code, rec.Body.String())
	}
	if res.Cached || len(res.Skills) != 1 || res.Skills[0].Key != "python" {
		t.Fatalf("unexpected result: %+v", res)
	}

	rec = e.do(t, http.MethodPost, "/api/jobs/process-modules", nil)
	var rep pipeline.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("process: status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rep.Selected != 1 || rep.Succeeded != 1 {
		t.Fatalf("only the unprocessed module should run: %+v", rep)
	}
	jobID := rec.Header().Get("X-Job-Id")
	if jobID == "" {
		t.Fatalf("job id header missing")
	}
	rec = e.do(t, http.MethodGet, "/api/jobs/"+jobID, nil)
	var jobBody struct {
		Job struct {
			JobType string          `json:"job_type"`
			Status  string          `json:"status"`
			Result  json.RawMessage `json:"result"`
		} `json:"job"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &jobBody); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("get job: status=%d body=%s", rec.Code, rec.Body.String())
	}
	if jobBody.Job.JobType != "process_modules" || jobBody.Job.Status != "succeeded" || len(jobBody.Job.Result) == 0 {
		t.Fatalf("job run: %+v", jobBody.Job)
	}
	if rec = e.do(t, http.MethodGet, "/api/jobs/"+uuid.NewString(), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing job: status=%d", rec.Code)
	}
	if rec = e.do(t, http.MethodGet, "/api/jobs?type=process_modules", nil); rec.Code != http.StatusOK {
		t.Fatalf("list jobs: status=%d", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/jobs/process-modules", map[string]int{"limit": -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative limit: status=%d", rec.Code)
	}
}

func TestDegreeRoutes(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/match-degrees", map[string]any{"threshold": 0.5})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing subjects: status=%d", rec.Code)
	}

	svc := services.NewDegreeService(testutil.Logger(t), e.set.Degrees, nil)
	if _, err := svc.Seed(context.Background(), nil); err != nil {
		t.Fatalf("Seed(nil): %v", err)
	}
	rec = e.do(t, http.MethodGet, "/api/degrees", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != `{"degrees":[]}` {
		t.Fatalf("degrees: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/api/match-degrees", map[string]any{"subjects": map[string]float64{"Maths": 80}})
	var res services.MatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("match: status=%d body=%s", rec.Code, rec.Body.String())
	}
	if len(res.Results) != 0 || len(res.Bubble.Nodes) != 0 {
		t.Fatalf("no degrees means no matches: %+v", res)
	}

	rec = e.do(t, http.MethodPost, "/api/recommend-course", map[string]any{"subjects": map[string]float64{}})
	if rec.Code != http.StatusOK || rec.Body.String() != `{"qualified_courses":[]}` {
		t.Fatalf("recommend: status=%d body=%s", rec.Code, rec.Body.String())
	}
}
