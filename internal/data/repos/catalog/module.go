package catalog

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

type ModuleRepo interface {
	// UpsertByProgrammeAndCode inserts the module if absent; an existing row is returned unchanged.
	UpsertByProgrammeAndCode(dbc dbctx.Context, row *types.Module) (*types.Module, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Module, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Module, error)
	ListByProgramme(dbc dbctx.Context, programmeID uuid.UUID) ([]*types.Module, error)
	ListUnprocessed(dbc dbctx.Context, limit int) ([]*types.Module, error)
	MarkProcessed(dbc dbctx.Context, id uuid.UUID) error
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return &moduleRepo{db: db, log: baseLog.With("repo", "ModuleRepo")}
}

func (r *moduleRepo) UpsertByProgrammeAndCode(dbc dbctx.Context, row *types.Module) (*types.Module, error) {
	if row == nil || row.ProgrammeID == uuid.Nil || strings.TrimSpace(row.Code) == "" {
		return nil, errors.New("module programme_id and code required")
	}
	row.Code = strings.TrimSpace(row.Code)
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now

	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "programme_id"}, {Name: "code"}},
			DoNothing: true,
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	var out types.Module
	if err := dbc.DB(r.db).
		Where("programme_id = ? AND code = ?", row.ProgrammeID, row.Code).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *moduleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Module, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *moduleRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Module, error) {
	var out []*types.Module
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleRepo) ListByProgramme(dbc dbctx.Context, programmeID uuid.UUID) ([]*types.Module, error) {
	var out []*types.Module
	if programmeID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("programme_id = ?", programmeID).
		Order("year_level ASC, code ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleRepo) ListUnprocessed(dbc dbctx.Context, limit int) ([]*types.Module, error) {
	var out []*types.Module
	if limit <= 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("is_processed = ?", false).
		Order("created_at ASC, code ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleRepo) MarkProcessed(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	return dbc.DB(r.db).
		Model(&types.Module{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_processed": true,
			"processed_at": now,
			"updated_at":   now,
		}).Error
}
