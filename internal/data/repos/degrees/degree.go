package degrees

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

type DegreeRepo interface {
	// UpsertWithRequirements upserts the degree by name and replaces its requirements.
	UpsertWithRequirements(dbc dbctx.Context, row *types.Degree) (*types.Degree, error)
	List(dbc dbctx.Context) ([]*types.Degree, error)
	GetByName(dbc dbctx.Context, name string) (*types.Degree, error)
}

type degreeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDegreeRepo(db *gorm.DB, baseLog *logger.Logger) DegreeRepo {
	return &degreeRepo{db: db, log: baseLog.With("repo", "DegreeRepo")}
}

func (r *degreeRepo) UpsertWithRequirements(dbc dbctx.Context, row *types.Degree) (*types.Degree, error) {
	if row == nil || strings.TrimSpace(row.Name) == "" {
		return nil, errors.New("degree name required")
	}
	row.Name = strings.TrimSpace(row.Name)
	reqs := row.Requirements

	err := dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		head := types.Degree{
			ID:          uuid.New(),
			Name:        row.Name,
			Faculty:     strings.TrimSpace(row.Faculty),
			Description: row.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Omit("Requirements").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"faculty", "description", "updated_at"}),
			}).
			Create(&head).Error; err != nil {
			return err
		}
		var stored types.Degree
		if err := tx.Where("name = ?", row.Name).Take(&stored).Error; err != nil {
			return err
		}
		if err := tx.Where("degree_id = ?", stored.ID).Delete(&types.CourseRequirement{}).Error; err != nil {
			return err
		}
		if len(reqs) == 0 {
			return nil
		}
		rows := make([]types.CourseRequirement, 0, len(reqs))
		seen := map[string]bool{}
		for _, req := range reqs {
			subject := strings.TrimSpace(req.Subject)
			if subject == "" || seen[strings.ToLower(subject)] {
				continue
			}
			seen[strings.ToLower(subject)] = true
			rows = append(rows, types.CourseRequirement{
				ID:          uuid.New(),
				DegreeID:    stored.ID,
				Subject:     subject,
				MinimumMark: req.MinimumMark,
			})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByName(dbc, row.Name)
}

func (r *degreeRepo) List(dbc dbctx.Context) ([]*types.Degree, error) {
	var out []*types.Degree
	if err := dbc.DB(r.db).
		Preload("Requirements", func(db *gorm.DB) *gorm.DB { return db.Order("subject ASC") }).
		Order("faculty ASC, name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *degreeRepo) GetByName(dbc dbctx.Context, name string) (*types.Degree, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var out types.Degree
	err := dbc.DB(r.db).
		Preload("Requirements", func(db *gorm.DB) *gorm.DB { return db.Order("subject ASC") }).
		Where("name = ?", name).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
