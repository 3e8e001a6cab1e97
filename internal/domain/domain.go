package domain

import (
	"github.com/yungbote/skillbridge-backend/internal/domain/aicache"
	"github.com/yungbote/skillbridge-backend/internal/domain/catalog"
	"github.com/yungbote/skillbridge-backend/internal/domain/degrees"
	"github.com/yungbote/skillbridge-backend/internal/domain/jobs"
	"github.com/yungbote/skillbridge-backend/internal/domain/skills"
)

const (
	SkillCategoryTechnical = skills.CategoryTechnical
	SkillCategorySoft      = skills.CategorySoft
	SkillCategoryDomain    = skills.CategoryDomain

	RelationRequires    = skills.RelationRequires
	RelationBuildsOn    = skills.RelationBuildsOn
	RelationComplements = skills.RelationComplements

	JobTypeProcessModules    = jobs.TypeProcessModules
	JobTypeRebuildGraph      = jobs.TypeRebuildGraph
	JobTypeGenerateRelations = jobs.TypeGenerateRelations

	JobStatusRunning   = jobs.StatusRunning
	JobStatusSucceeded = jobs.StatusSucceeded
	JobStatusFailed    = jobs.StatusFailed
)

type (
	Programme = catalog.Programme
	Module    = catalog.Module

	Skill         = skills.Skill
	ModuleSkill   = skills.ModuleSkill
	SkillRelation = skills.SkillRelation

	Degree            = degrees.Degree
	CourseRequirement = degrees.CourseRequirement

	AICacheEntry = aicache.Entry

	JobRun = jobs.JobRun
)

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&Programme{},
		&Module{},
		&Skill{},
		&ModuleSkill{},
		&SkillRelation{},
		&Degree{},
		&CourseRequirement{},
		&AICacheEntry{},
		&JobRun{},
	}
}
