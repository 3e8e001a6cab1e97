package extraction

import (
	"github.com/sashabaranov/go-openai/jsonschema"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/skillgraph"
)

const (
	SchemaModuleSkills       = "module_skills"
	SchemaProgrammeRelations = "programme_relations"
)

// ModuleSkills is the decoded answer for one module. An empty list is a valid answer.
type ModuleSkills struct {
	Skills []skillgraph.SkillCandidate `json:"skills" validate:"required"`
}

type ProgrammeRelations struct {
	Relations []skillgraph.ProposedRelation `json:"relations" validate:"required"`
}

func ModuleSkillsSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"skills": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"name": {Type: jsonschema.String, Description: "Short skill name, 1-5 words"},
						"category": {
							Type: jsonschema.String,
							Enum: []string{types.SkillCategoryTechnical, types.SkillCategorySoft, types.SkillCategoryDomain},
						},
						"confidence": {Type: jsonschema.Number, Description: "0.0 to 1.0"},
					},
					Required:             []string{"name", "category", "confidence"},
					AdditionalProperties: false,
				},
			},
		},
		Required:             []string{"skills"},
		AdditionalProperties: false,
	}
}

func ProgrammeRelationsSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"relations": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"source": {Type: jsonschema.String, Description: "Skill name exactly as listed"},
						"target": {Type: jsonschema.String, Description: "Skill name exactly as listed"},
						"relation": {
							Type: jsonschema.String,
							Enum: []string{types.RelationRequires, types.RelationBuildsOn, types.RelationComplements},
						},
						"confidence": {Type: jsonschema.Number, Description: "0.0 to 1.0"},
					},
					Required:             []string{"source", "target", "relation", "confidence"},
					AdditionalProperties: false,
				},
			},
		},
		Required:             []string{"relations"},
		AdditionalProperties: false,
	}
}
