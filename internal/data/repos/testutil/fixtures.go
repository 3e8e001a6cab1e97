package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillbridge-backend/internal/domain"
)

func SeedProgramme(tb testing.TB, tx *gorm.DB, code string) *types.Programme {
	tb.Helper()
	p := &types.Programme{
		ID:      uuid.New(),
		Code:    code,
		Name:    "Programme " + code,
		Faculty: "Science",
	}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed programme: %v", err)
	}
	return p
}

func SeedModule(tb testing.TB, tx *gorm.DB, programmeID uuid.UUID, code, title string) *types.Module {
	tb.Helper()
	m := &types.Module{
		ID:          uuid.New(),
		ProgrammeID: programmeID,
		Code:        code,
		Title:       title,
		YearLevel:   1,
		Description: title + " description",
	}
	if err := tx.Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedSkill(tb testing.TB, tx *gorm.DB, key, name, category string) *types.Skill {
	tb.Helper()
	s := &types.Skill{
		ID:       uuid.New(),
		Key:      key,
		Name:     name,
		Category: category,
	}
	if err := tx.Create(s).Error; err != nil {
		tb.Fatalf("seed skill: %v", err)
	}
	return s
}

func SeedTeaches(tb testing.TB, tx *gorm.DB, moduleID, skillID uuid.UUID, confidence float64) *types.ModuleSkill {
	tb.Helper()
	ms := &types.ModuleSkill{
		ID:         uuid.New(),
		ModuleID:   moduleID,
		SkillID:    skillID,
		Confidence: confidence,
	}
	if err := tx.Create(ms).Error; err != nil {
		tb.Fatalf("seed module skill: %v", err)
	}
	return ms
}
