package skills

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

// ErrRelationExists is returned by Create when the ordered pair already has a relation.
var ErrRelationExists = errors.New("skill relation already exists for pair")

type SkillRelationRepo interface {
	Create(dbc dbctx.Context, row *types.SkillRelation) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	// ListAmong returns relations whose endpoints are both in skillIDs.
	ListAmong(dbc dbctx.Context, skillIDs []uuid.UUID) ([]*types.SkillRelation, error)
	ListByProgramme(dbc dbctx.Context, programmeID uuid.UUID) ([]*types.SkillRelation, error)
	List(dbc dbctx.Context) ([]*types.SkillRelation, error)
}

type skillRelationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillRelationRepo(db *gorm.DB, baseLog *logger.Logger) SkillRelationRepo {
	return &skillRelationRepo{db: db, log: baseLog.With("repo", "SkillRelationRepo")}
}

func (r *skillRelationRepo) Create(dbc dbctx.Context, row *types.SkillRelation) error {
	if row == nil || row.SourceSkillID == uuid.Nil || row.TargetSkillID == uuid.Nil {
		return errors.New("skill relation endpoints required")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	err := dbc.DB(r.db).Create(row).Error
	if isUniqueViolation(err, "idx_skill_relation_pair") {
		return ErrRelationExists
	}
	return err
}

func (r *skillRelationRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.SkillRelation{}).Error
}

func (r *skillRelationRepo) ListAmong(dbc dbctx.Context, skillIDs []uuid.UUID) ([]*types.SkillRelation, error) {
	var out []*types.SkillRelation
	if len(skillIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("source_skill_id IN ? AND target_skill_id IN ?", skillIDs, skillIDs).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillRelationRepo) ListByProgramme(dbc dbctx.Context, programmeID uuid.UUID) ([]*types.SkillRelation, error) {
	var out []*types.SkillRelation
	if programmeID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("programme_id = ?", programmeID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skillRelationRepo) List(dbc dbctx.Context) ([]*types.SkillRelation, error) {
	var out []*types.SkillRelation
	if err := dbc.DB(r.db).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			if strings.TrimSpace(constraint) == "" || pgErr.ConstraintName == "" {
				return true
			}
			return strings.EqualFold(strings.TrimSpace(pgErr.ConstraintName), strings.TrimSpace(constraint))
		}
		return false
	}

	// Fallback: string match (sqlite, or wrapped errors that lose type info).
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlstate 23505") || strings.Contains(msg, "unique constraint failed")
}
