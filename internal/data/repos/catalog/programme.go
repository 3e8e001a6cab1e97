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

type ProgrammeRepo interface {
	UpsertByCode(dbc dbctx.Context, row *types.Programme) (*types.Programme, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Programme, error)
	GetByCode(dbc dbctx.Context, code string) (*types.Programme, error)
	List(dbc dbctx.Context) ([]*types.Programme, error)
}

type programmeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgrammeRepo(db *gorm.DB, baseLog *logger.Logger) ProgrammeRepo {
	return &programmeRepo{db: db, log: baseLog.With("repo", "ProgrammeRepo")}
}

// UpsertByCode creates the programme or refreshes its descriptive fields.
func (r *programmeRepo) UpsertByCode(dbc dbctx.Context, row *types.Programme) (*types.Programme, error) {
	if row == nil || strings.TrimSpace(row.Code) == "" {
		return nil, errors.New("programme code required")
	}
	row.Code = strings.TrimSpace(row.Code)
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now

	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "faculty", "url", "description", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.GetByCode(dbc, row.Code)
}

func (r *programmeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Programme, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Programme
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *programmeRepo) GetByCode(dbc dbctx.Context, code string) (*types.Programme, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var out types.Programme
	err := dbc.DB(r.db).Where("code = ?", code).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *programmeRepo) List(dbc dbctx.Context) ([]*types.Programme, error) {
	var out []*types.Programme
	if err := dbc.DB(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
