package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/skillbridge-backend/internal/data/repos/aicache"
	"github.com/yungbote/skillbridge-backend/internal/data/repos/catalog"
	"github.com/yungbote/skillbridge-backend/internal/data/repos/degrees"
	"github.com/yungbote/skillbridge-backend/internal/data/repos/jobs"
	"github.com/yungbote/skillbridge-backend/internal/data/repos/skills"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

type ProgrammeRepo = catalog.ProgrammeRepo
type ModuleRepo = catalog.ModuleRepo

type SkillRepo = skills.SkillRepo
type ModuleSkillRepo = skills.ModuleSkillRepo
type SkillRelationRepo = skills.SkillRelationRepo
type TeachesRow = skills.TeachesRow

type DegreeRepo = degrees.DegreeRepo

type AICacheRepo = aicache.AICacheRepo

type JobRunRepo = jobs.JobRunRepo

var ErrRelationExists = skills.ErrRelationExists

func NewProgrammeRepo(db *gorm.DB, baseLog *logger.Logger) ProgrammeRepo {
	return catalog.NewProgrammeRepo(db, baseLog)
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return catalog.NewModuleRepo(db, baseLog)
}

func NewSkillRepo(db *gorm.DB, baseLog *logger.Logger) SkillRepo {
	return skills.NewSkillRepo(db, baseLog)
}

func NewModuleSkillRepo(db *gorm.DB, baseLog *logger.Logger) ModuleSkillRepo {
	return skills.NewModuleSkillRepo(db, baseLog)
}

func NewSkillRelationRepo(db *gorm.DB, baseLog *logger.Logger) SkillRelationRepo {
	return skills.NewSkillRelationRepo(db, baseLog)
}

func NewDegreeRepo(db *gorm.DB, baseLog *logger.Logger) DegreeRepo {
	return degrees.NewDegreeRepo(db, baseLog)
}

func NewAICacheRepo(db *gorm.DB, baseLog *logger.Logger) AICacheRepo {
	return aicache.NewAICacheRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}

// Set bundles every repo the services need.
type Set struct {
	Programmes     ProgrammeRepo
	Modules        ModuleRepo
	Skills         SkillRepo
	ModuleSkills   ModuleSkillRepo
	SkillRelations SkillRelationRepo
	Degrees        DegreeRepo
	AICache        AICacheRepo
	JobRuns        JobRunRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Programmes:     NewProgrammeRepo(db, baseLog),
		Modules:        NewModuleRepo(db, baseLog),
		Skills:         NewSkillRepo(db, baseLog),
		ModuleSkills:   NewModuleSkillRepo(db, baseLog),
		SkillRelations: NewSkillRelationRepo(db, baseLog),
		Degrees:        NewDegreeRepo(db, baseLog),
		AICache:        NewAICacheRepo(db, baseLog),
		JobRuns:        NewJobRunRepo(db, baseLog),
	}
}
