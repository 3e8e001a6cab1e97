package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/skillbridge-backend/internal/observability"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
	"github.com/yungbote/skillbridge-backend/internal/platform/openai"
)

type ModuleInput struct {
	ID    string
	Code  string
	Title string
	Text  string
}

type ProgrammeInput struct {
	ID     string
	Name   string
	Skills []string
}

// Extractor turns module and programme text into decoded, validated payloads through the
// language model, with a read-through cache in front of it.
type Extractor struct {
	llm   openai.Client
	cache Cache
	log   *logger.Logger
}

// NewExtractor accepts a nil cache.
func NewExtractor(log *logger.Logger, llm openai.Client, cache Cache) *Extractor {
	return &Extractor{llm: llm, cache: cache, log: log.With("component", "Extractor")}
}

// ModuleSkills returns the skills taught by one module. cached reports a cache hit.
func (x *Extractor) ModuleSkills(ctx context.Context, in ModuleInput) (out ModuleSkills, cached bool, err error) {
	p, err := ModuleSkillsPrompt(PromptInput{ModuleCode: in.Code, ModuleTitle: in.Title, ModuleText: in.Text})
	if err != nil {
		return out, false, err
	}
	key := ""
	if in.ID != "" {
		key = ModuleSkillsCacheKey(in.ID)
	}
	cached, err = run(ctx, x, p, key, ModuleSkillsSchema(), &out, attribute.String("module_code", in.Code))
	return out, cached, err
}

// ProgrammeRelations asks for typed relations among a programme's skill names.
func (x *Extractor) ProgrammeRelations(ctx context.Context, in ProgrammeInput) (out ProgrammeRelations, cached bool, err error) {
	p, err := ProgrammeRelationsPrompt(PromptInput{ProgrammeName: in.Name, Skills: in.Skills})
	if err != nil {
		return out, false, err
	}
	key := ""
	if in.ID != "" {
		key = ProgrammeRelationsCacheKey(in.ID)
	}
	cached, err = run(ctx, x, p, key, ProgrammeRelationsSchema(), &out, attribute.String("programme_id", in.ID))
	return out, cached, err
}

// InvalidateModule drops a module's cached answer so the next call re-extracts.
func (x *Extractor) InvalidateModule(ctx context.Context, moduleID string) error {
	if x.cache == nil {
		return nil
	}
	return x.cache.Invalidate(ctx, ModuleSkillsCacheKey(moduleID))
}

func run[T any](ctx context.Context, x *Extractor, p Prompt, cacheKey string, schema *jsonschema.Definition, out *T, attrs ...attribute.KeyValue) (bool, error) {
	ctx, span := observability.StartSpan(ctx, "extraction."+p.Name, attrs...)
	defer span.End()

	if x.cache != nil && cacheKey != "" {
		hit, err := x.cache.Get(ctx, cacheKey, out)
		if err != nil {
			x.log.Warn("cache lookup failed", "cache_key", cacheKey, "error", err)
		}
		if hit {
			return true, nil
		}
	}

	raw, err := x.llm.GenerateJSON(ctx, p.System, p.User, p.SchemaName, schema)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, openai.ErrRefused) || errors.Is(err, openai.ErrEmptyOutput) {
			return false, malformed(p.Name, strings.TrimSpace(raw), err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, fmt.Errorf("extraction %s: %w", p.Name, ctxErr)
		}
		return false, transient(p.Name, err)
	}

	stage, err := Decode(p.Name, raw, out)
	if err != nil {
		span.RecordError(err)
		x.log.Warn("malformed extractor output", "prompt", p.Name, "cache_key", cacheKey, "raw_len", len(raw), "error", err)
		return false, err
	}
	if stage != StageStrict {
		x.log.Info("extractor output recovered by fallback", "prompt", p.Name, "stage", string(stage))
	}

	if x.cache != nil && cacheKey != "" {
		if err := x.cache.Put(ctx, cacheKey, x.llm.Model(), out); err != nil {
			x.log.Warn("cache store failed", "cache_key", cacheKey, "error", err)
		}
	}
	return false, nil
}
