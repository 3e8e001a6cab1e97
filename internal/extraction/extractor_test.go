package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/yungbote/skillbridge-backend/internal/data/repos"
	"github.com/yungbote/skillbridge-backend/internal/data/repos/testutil"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
	"github.com/yungbote/skillbridge-backend/internal/platform/openai"
)

type fakeLLM struct {
	calls      int
	out        string
	err        error
	lastUser   string
	lastSchema string
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, system, user, schemaName string, schema *jsonschema.Definition) (string, error) {
	f.calls++
	f.lastUser = user
	f.lastSchema = schemaName
	return f.out, f.err
}

func (f *fakeLLM) Model() string { return "fake-model" }

func TestModuleSkillsUsesCache(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	cache := NewCache(logger.Nop(), nil, repos.NewAICacheRepo(db, logger.Nop()), 0)
	llm := &fakeLLM{out: `{"skills":[{"name":"SQL","category":"Technical","confidence":0.8}]}`}
	x := NewExtractor(logger.Nop(), llm, cache)

	in := ModuleInput{ID: uuid.NewString(), Code: "INF201", Title: "Databases", Text: "Relational modelling and SQL."}
	out, cached, err := x.ModuleSkills(ctx, in)
	if err != nil || cached {
		t.Fatalf("ModuleSkills: cached=%v err=%v", cached, err)
	}
	if len(out.Skills) != 1 || llm.lastSchema != SchemaModuleSkills {
		t.Fatalf("first call: out=%+v schema=%q", out, llm.lastSchema)
	}
	if !strings.Contains(llm.lastUser, "INF201") || !strings.Contains(llm.lastUser, "Relational modelling") {
		t.Fatalf("prompt missing module data: %q", llm.lastUser)
	}

	out, cached, err = x.ModuleSkills(ctx, in)
	if err != nil || !cached || llm.calls != 1 {
		t.Fatalf("second call should hit cache: cached=%v calls=%d err=%v", cached, llm.calls, err)
	}
	if len(out.Skills) != 1 || out.Skills[0].Name != "SQL" {
		t.Fatalf("cached payload: %+v", out)
	}

	if err := x.InvalidateModule(ctx, in.ID); err != nil {
		t.Fatalf("InvalidateModule: %v", err)
	}
	if _, cached, _ = x.ModuleSkills(ctx, in); cached || llm.calls != 2 {
		t.Fatalf("after invalidate: cached=%v calls=%d", cached, llm.calls)
	}
}

func TestModuleSkillsMalformedIsNotCached(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(logger.Nop(), nil, repos.NewAICacheRepo(testutil.DB(t), logger.Nop()), 0)
	llm := &fakeLLM{out: "no json here"}
	x := NewExtractor(logger.Nop(), llm, cache)
	in := ModuleInput{ID: uuid.NewString(), Code: "X100", Text: "text"}

	_, _, err := x.ModuleSkills(ctx, in)
	if !IsMalformed(err) || RawOutput(err) != "no json here" {
		t.Fatalf("want malformed with raw, got=%v", err)
	}
	var probe ModuleSkills
	if hit, _ := cache.Get(ctx, ModuleSkillsCacheKey(in.ID), &probe); hit {
		t.Fatalf("malformed output must not be cached")
	}
}

func TestModuleSkillsClassifiesClientErrors(t *testing.T) {
	ctx := context.Background()
	in := ModuleInput{Code: "X100", Text: "text"}

	x := NewExtractor(logger.Nop(), &fakeLLM{err: errors.New("openai http 503: down")}, nil)
	if _, _, err := x.ModuleSkills(ctx, in); !IsTransient(err) {
		t.Fatalf("want transient, got=%v", err)
	}
	x = NewExtractor(logger.Nop(), &fakeLLM{err: openai.ErrRefused}, nil)
	if _, _, err := x.ModuleSkills(ctx, in); !IsMalformed(err) {
		t.Fatalf("refusal should be malformed, got=%v", err)
	}
}

func TestModuleSkillsRejectsEmptyModule(t *testing.T) {
	llm := &fakeLLM{out: `{"skills":[]}`}
	x := NewExtractor(logger.Nop(), llm, nil)
	if _, _, err := x.ModuleSkills(context.Background(), ModuleInput{Code: "X100"}); err == nil {
		t.Fatalf("expected error for module without text")
	}
	if llm.calls != 0 {
		t.Fatalf("model must not be called")
	}
}

func TestProgrammeRelationsPrompt(t *testing.T) {
	llm := &fakeLLM{out: `{"relations":[]}`}
	x := NewExtractor(logger.Nop(), llm, nil)
	out, _, err := x.ProgrammeRelations(context.Background(), ProgrammeInput{
		ID: "p1", Name: "BSc Data Science", Skills: []string{"Python", "Statistics"},
	})
	if err != nil || out.Relations == nil {
		t.Fatalf("ProgrammeRelations: out=%+v err=%v", out, err)
	}
	if !strings.Contains(llm.lastUser, "- Python") || !strings.Contains(llm.lastUser, "BSc Data Science") {
		t.Fatalf("prompt: %q", llm.lastUser)
	}
	if _, _, err := x.ProgrammeRelations(context.Background(), ProgrammeInput{Skills: []string{"only"}}); err == nil {
		t.Fatalf("expected error with fewer than two skills")
	}
}
