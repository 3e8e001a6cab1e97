package extraction

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// PromptInput feeds the prompt templates.
type PromptInput struct {
	ModuleCode    string
	ModuleTitle   string
	ModuleText    string
	ProgrammeName string
	Skills        []string
}

type promptSpec struct {
	Name       string
	SchemaName string
	System     string
	User       string
}

type Prompt struct {
	Name       string
	SchemaName string
	System     string
	User       string
}

var moduleSkillsSpec = promptSpec{
	Name:       "module_skills",
	SchemaName: SchemaModuleSkills,
	System: `You are an expert curriculum analyst. Extract the key technical, soft and
domain-specific skills taught by the university module described by the user.
Use category "Technical", "Soft" or "Domain". Estimate confidence between 0.6 and 1.0
based on how central the skill is to the description. Use short, conventional skill names.
If no skills are found, return an empty skills list.`,
	User: `Module Code: {{.ModuleCode}}
{{- if .ModuleTitle}}
Title: {{.ModuleTitle}}
{{- end}}
Description:
---
{{.ModuleText}}
---`,
}

var programmeRelationsSpec = promptSpec{
	Name:       "programme_relations",
	SchemaName: SchemaProgrammeRelations,
	System: `You are an educational skill-mapping system. Given the skills of a university
programme, return the useful relationships between them.
Relation types:
- "requires": the source skill must be known before the target skill
- "builds_on": the target skill enhances or expands the source skill
- "complements": the two skills are often used together
Rules: only reference skills from the list, spelled exactly as listed. No self links.
No duplicate pairs. Confidence is between 0.0 and 1.0.`,
	User: `Programme: {{.ProgrammeName}}
Skills:
{{- range .Skills}}
- {{.}}
{{- end}}`,
}

var (
	moduleSkillsTemplates       = mustCompile(moduleSkillsSpec)
	programmeRelationsTemplates = mustCompile(programmeRelationsSpec)
)

type compiledSpec struct {
	spec   promptSpec
	system *template.Template
	user   *template.Template
}

func mustCompile(s promptSpec) compiledSpec {
	sys, err := template.New(s.Name + "_system").Option("missingkey=zero").Parse(s.System)
	if err != nil {
		panic(fmt.Errorf("%s system template parse: %w", s.Name, err))
	}
	user, err := template.New(s.Name + "_user").Option("missingkey=zero").Parse(s.User)
	if err != nil {
		panic(fmt.Errorf("%s user template parse: %w", s.Name, err))
	}
	return compiledSpec{spec: s, system: sys, user: user}
}

func (c compiledSpec) build(in PromptInput) (Prompt, error) {
	render := func(t *template.Template) (string, error) {
		var b bytes.Buffer
		if err := t.Execute(&b, in); err != nil {
			return "", fmt.Errorf("%s: render: %w", c.spec.Name, err)
		}
		return strings.TrimSpace(b.String()), nil
	}
	sys, err := render(c.system)
	if err != nil {
		return Prompt{}, err
	}
	user, err := render(c.user)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Name: c.spec.Name, SchemaName: c.spec.SchemaName, System: sys, User: user}, nil
}

func ModuleSkillsPrompt(in PromptInput) (Prompt, error) {
	if strings.TrimSpace(in.ModuleCode) == "" {
		return Prompt{}, fmt.Errorf("module_skills: missing module code")
	}
	if strings.TrimSpace(in.ModuleText) == "" && strings.TrimSpace(in.ModuleTitle) == "" {
		return Prompt{}, fmt.Errorf("module_skills: module %s has no text", in.ModuleCode)
	}
	return moduleSkillsTemplates.build(in)
}

func ProgrammeRelationsPrompt(in PromptInput) (Prompt, error) {
	if len(in.Skills) < 2 {
		return Prompt{}, fmt.Errorf("programme_relations: need at least two skills, got %d", len(in.Skills))
	}
	return programmeRelationsTemplates.build(in)
}

// Cache keys match the stored ai_cache rows.
func ModuleSkillsCacheKey(moduleID string) string { return "skills_module_" + moduleID }

func ProgrammeRelationsCacheKey(programmeID string) string {
	return "relations_programme_" + programmeID
}
