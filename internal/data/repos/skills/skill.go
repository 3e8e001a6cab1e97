package skills

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

type SkillRepo interface {
	// UpsertByKey inserts the skill if its key is new. The stored row wins on conflict,
	// so name and category keep their first-written values.
	UpsertByKey(dbc dbctx.Context, row *types.Skill) (*types.Skill, error)
	GetByKeys(dbc dbctx.Context, keys []string) ([]*types.Skill, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Skill, error)
	ListByProgramme(dbc dbctx.Context, programmeID uuid.UUID) ([]*types.Skill, error)
}

type skillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillRepo(db *gorm.DB, baseLog *logger.Logger) SkillRepo {
	return &skillRepo{db: db, log: baseLog.With("repo", "SkillRepo")}
}

func (r *skillRepo) UpsertByKey(dbc dbctx.Context, row *types.Skill) (*types.Skill, error) {
	if row == nil || strings.TrimSpace(row.Key) == "" {
		return nil, errors.New("skill key required")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now

	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	var out types.Skill
	if err := dbc.DB(r.db).Where(`"key" = ?`, row.Key).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *skillRepo) GetByKeys(dbc dbctx.Context, keys []string) ([]*types.Skill, error) {
	var out []*types.Skill
	if len(keys) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where(`"key" IN ?`, keys).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Skill, error) {
	var out []*types.Skill
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByProgramme returns the distinct skills taught by any module of the programme.
func (r *skillRepo) ListByProgramme(dbc dbctx.Context, programmeID uuid.UUID) ([]*types.Skill, error) {
	var out []*types.Skill
	if programmeID == uuid.Nil {
		return out, nil
	}
	sub := dbc.DB(r.db).
		Table("module_skill AS ms").
		Select("ms.skill_id").
		Joins("JOIN module AS m ON m.id = ms.module_id").
		Where("m.programme_id = ?", programmeID)
	if err := dbc.DB(r.db).
		Where("id IN (?)", sub).
		Order(`"key" ASC`).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
