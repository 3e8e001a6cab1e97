package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/skillbridge-backend/internal/data/repos"
	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/ingestion"
	"github.com/yungbote/skillbridge-backend/internal/platform/apierr"
	"github.com/yungbote/skillbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

type CatalogService interface {
	ListProgrammes(ctx context.Context) ([]*types.Programme, error)
	GetProgramme(ctx context.Context, id uuid.UUID) (*types.Programme, error)
	ListModules(ctx context.Context, programmeID uuid.UUID) ([]*types.Module, error)
	GetModule(ctx context.Context, id uuid.UUID) (*types.Module, error)
	SeedProgrammes(ctx context.Context, seeds []ingestion.ProgrammeSeed) (SeedReport, error)
	ImportRecords(ctx context.Context, programmeCode string, recs []ingestion.ModuleRecord) (ImportReport, error)
}

type SeedReport struct {
	Programmes int `json:"programmes"`
	Modules    int `json:"modules"`
	Degrees    int `json:"degrees"`
}

type ImportReport struct {
	ProgrammeID uuid.UUID `json:"programme_id"`
	Records     int       `json:"records"`
	Modules     int       `json:"modules"`
}

type catalogService struct {
	db         *gorm.DB
	log        *logger.Logger
	programmes repos.ProgrammeRepo
	modules    repos.ModuleRepo
}

func NewCatalogService(db *gorm.DB, baseLog *logger.Logger, programmes repos.ProgrammeRepo, modules repos.ModuleRepo) CatalogService {
	return &catalogService{
		db:         db,
		log:        baseLog.With("service", "CatalogService"),
		programmes: programmes,
		modules:    modules,
	}
}

func (s *catalogService) ListProgrammes(ctx context.Context) ([]*types.Programme, error) {
	out, err := s.programmes.List(dbctx.New(ctx))
	if err != nil {
		return nil, fmt.Errorf("list programmes: %w", err)
	}
	if out == nil {
		out = []*types.Programme{}
	}
	return out, nil
}

func (s *catalogService) GetProgramme(ctx context.Context, id uuid.UUID) (*types.Programme, error) {
	p, err := s.programmes.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("get programme: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("programme_not_found", fmt.Errorf("programme %s not found", id))
	}
	return p, nil
}

func (s *catalogService) ListModules(ctx context.Context, programmeID uuid.UUID) ([]*types.Module, error) {
	if _, err := s.GetProgramme(ctx, programmeID); err != nil {
		return nil, err
	}
	out, err := s.modules.ListByProgramme(dbctx.New(ctx), programmeID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	if out == nil {
		out = []*types.Module{}
	}
	return out, nil
}

func (s *catalogService) GetModule(ctx context.Context, id uuid.UUID) (*types.Module, error) {
	m, err := s.modules.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}
	if m == nil {
		return nil, apierr.NotFound("module_not_found", fmt.Errorf("module %s not found", id))
	}
	return m, nil
}

// SeedProgrammes upserts programmes by code and their modules by (programme, code), one
// transaction per programme.
func (s *catalogService) SeedProgrammes(ctx context.Context, seeds []ingestion.ProgrammeSeed) (SeedReport, error) {
	var rep SeedReport
	for _, ps := range seeds {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			dbc := dbctx.Context{Ctx: ctx, Tx: tx}
			p, err := s.programmes.UpsertByCode(dbc, &types.Programme{
				Code:        ps.Code,
				Name:        ps.Name,
				Faculty:     ps.Faculty,
				URL:         ps.URL,
				Description: ps.Description,
			})
			if err != nil {
				return err
			}
			for _, ms := range ps.Modules {
				title := strings.TrimSpace(ms.Title)
				if title == "" {
					title = "Module " + ms.Code
				}
				if _, err := s.modules.UpsertByProgrammeAndCode(dbc, &types.Module{
					ProgrammeID: p.ID,
					Code:        ms.Code,
					Title:       title,
					YearLevel:   ms.YearLevel,
					Description: ms.Description,
				}); err != nil {
					return fmt.Errorf("module %s: %w", ms.Code, err)
				}
			}
			return nil
		})
		if err != nil {
			return rep, fmt.Errorf("seed programme %s: %w", ps.Code, err)
		}
		rep.Programmes++
		rep.Modules += len(ps.Modules)
	}
	s.log.Info("programmes seeded", "programmes", rep.Programmes, "modules", rep.Modules)
	return rep, nil
}

// ImportRecords loads split handbook records into an existing programme.
func (s *catalogService) ImportRecords(ctx context.Context, programmeCode string, recs []ingestion.ModuleRecord) (ImportReport, error) {
	rep := ImportReport{Records: len(recs)}
	p, err := s.programmes.GetByCode(dbctx.New(ctx), programmeCode)
	if err != nil {
		return rep, fmt.Errorf("import: load programme: %w", err)
	}
	if p == nil {
		return rep, apierr.NotFound("programme_not_found", fmt.Errorf("programme %q not found", programmeCode))
	}
	rep.ProgrammeID = p.ID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, r := range recs {
			if _, err := s.modules.UpsertByProgrammeAndCode(dbc, &types.Module{
				ProgrammeID: p.ID,
				Code:        r.Code,
				Title:       r.Name,
				Description: r.Description,
			}); err != nil {
				return fmt.Errorf("module %s: %w", r.Code, err)
			}
			rep.Modules++
		}
		return nil
	})
	if err != nil {
		return ImportReport{ProgrammeID: p.ID, Records: len(recs)}, fmt.Errorf("import: %w", err)
	}
	s.log.Info("handbook imported", "programme_code", p.Code, "records", rep.Records)
	return rep, nil
}
