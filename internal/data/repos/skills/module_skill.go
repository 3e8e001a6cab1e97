package skills

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

// TeachesRow is a module_skill row joined with its module and skill.
type TeachesRow struct {
	ModuleID      uuid.UUID
	ProgrammeID   uuid.UUID
	ModuleCode    string
	ModuleTitle   string
	SkillID       uuid.UUID
	SkillKey      string
	SkillName     string
	SkillCategory string
	Confidence    float64
}

type ModuleSkillRepo interface {
	// Upsert creates the link or overwrites its confidence.
	Upsert(dbc dbctx.Context, row *types.ModuleSkill) error
	ListTeachesByModule(dbc dbctx.Context, moduleID uuid.UUID) ([]TeachesRow, error)
	ListTeachesByProgramme(dbc dbctx.Context, programmeID uuid.UUID) ([]TeachesRow, error)
	ListTeaches(dbc dbctx.Context) ([]TeachesRow, error)
}

type moduleSkillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleSkillRepo(db *gorm.DB, baseLog *logger.Logger) ModuleSkillRepo {
	return &moduleSkillRepo{db: db, log: baseLog.With("repo", "ModuleSkillRepo")}
}

func (r *moduleSkillRepo) Upsert(dbc dbctx.Context, row *types.ModuleSkill) error {
	if row == nil || row.ModuleID == uuid.Nil || row.SkillID == uuid.Nil {
		return errors.New("module_skill module_id and skill_id required")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "module_id"}, {Name: "skill_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"confidence", "updated_at"}),
		}).
		Create(row).Error
}

func (r *moduleSkillRepo) ListTeachesByModule(dbc dbctx.Context, moduleID uuid.UUID) ([]TeachesRow, error) {
	if moduleID == uuid.Nil {
		return []TeachesRow{}, nil
	}
	return r.listTeaches(dbc, "m.id = ?", moduleID)
}

func (r *moduleSkillRepo) ListTeachesByProgramme(dbc dbctx.Context, programmeID uuid.UUID) ([]TeachesRow, error) {
	if programmeID == uuid.Nil {
		return []TeachesRow{}, nil
	}
	return r.listTeaches(dbc, "m.programme_id = ?", programmeID)
}

func (r *moduleSkillRepo) ListTeaches(dbc dbctx.Context) ([]TeachesRow, error) {
	return r.listTeaches(dbc, "")
}

func (r *moduleSkillRepo) listTeaches(dbc dbctx.Context, where string, args ...interface{}) ([]TeachesRow, error) {
	q := dbc.DB(r.db).
		Table("module_skill AS ms").
		Select(`ms.module_id AS module_id, m.programme_id AS programme_id, m.code AS module_code,
			m.title AS module_title, ms.skill_id AS skill_id, s."key" AS skill_key,
			s.name AS skill_name, s.category AS skill_category, ms.confidence AS confidence`).
		Joins("JOIN module AS m ON m.id = ms.module_id").
		Joins("JOIN skill AS s ON s.id = ms.skill_id")
	if where != "" {
		q = q.Where(where, args...)
	}
	out := []TeachesRow{}
	if err := q.Order(`m.code ASC, s."key" ASC`).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
