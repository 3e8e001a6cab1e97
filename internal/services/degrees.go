package services

import (
	"context"
	"fmt"

	"github.com/yungbote/skillbridge-backend/internal/data/repos"
	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/ingestion"
	"github.com/yungbote/skillbridge-backend/internal/matching"
	"github.com/yungbote/skillbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

type DegreeService interface {
	List(ctx context.Context) ([]*types.Degree, error)
	Match(ctx context.Context, subjects map[string]float64, threshold float64) (*MatchResult, error)
	Qualify(ctx context.Context, subjects map[string]float64) ([]string, error)
	Seed(ctx context.Context, seeds []ingestion.DegreeSeed) (int, error)
}

type MatchResult struct {
	Results []matching.Match `json:"results"`
	Bubble  matching.Bubble  `json:"bubble"`
}

type degreeService struct {
	log      *logger.Logger
	degrees  repos.DegreeRepo
	subjects *matching.SubjectMap
}

// NewDegreeService accepts a nil subject map; names are then only trimmed and case-folded.
func NewDegreeService(baseLog *logger.Logger, degrees repos.DegreeRepo, subjects *matching.SubjectMap) DegreeService {
	return &degreeService{
		log:      baseLog.With("service", "DegreeService"),
		degrees:  degrees,
		subjects: subjects,
	}
}

func (s *degreeService) List(ctx context.Context) ([]*types.Degree, error) {
	out, err := s.degrees.List(dbctx.New(ctx))
	if err != nil {
		return nil, fmt.Errorf("list degrees: %w", err)
	}
	if out == nil {
		out = []*types.Degree{}
	}
	return out, nil
}

func (s *degreeService) Match(ctx context.Context, subjects map[string]float64, threshold float64) (*MatchResult, error) {
	degrees, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	matches := matching.Score(degrees, s.subjects.Normalize(subjects), threshold)
	s.log.Debug("degrees matched", "subjects", len(subjects), "degrees", len(degrees), "matches", len(matches))
	return &MatchResult{Results: matches, Bubble: matching.BuildBubble(matches)}, nil
}

func (s *degreeService) Qualify(ctx context.Context, subjects map[string]float64) ([]string, error) {
	degrees, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return matching.Qualify(degrees, s.subjects.Normalize(subjects)), nil
}

func (s *degreeService) Seed(ctx context.Context, seeds []ingestion.DegreeSeed) (int, error) {
	n := 0
	for _, ds := range seeds {
		d := &types.Degree{Name: ds.Name, Faculty: ds.Faculty, Description: ds.Description}
		for _, r := range ds.Requirements {
			d.Requirements = append(d.Requirements, types.CourseRequirement{
				Subject:     s.subjects.Canonical(r.Subject),
				MinimumMark: r.MinimumMark,
			})
		}
		if _, err := s.degrees.UpsertWithRequirements(dbctx.New(ctx), d); err != nil {
			return n, fmt.Errorf("seed degree %q: %w", ds.Name, err)
		}
		n++
	}
	s.log.Info("degrees seeded", "degrees", n)
	return n, nil
}
