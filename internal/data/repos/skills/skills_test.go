package skills

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/skillbridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/skillbridge-backend/internal/domain"
)

func TestSkillRepoUpsertKeepsFirstWrite(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	repo := NewSkillRepo(db, testutil.Logger(t))

	first, err := repo.UpsertByKey(dbc, &types.Skill{Key: "data analysis", Name: "Data Analysis", Category: types.SkillCategoryTechnical})
	if err != nil {
		t.Fatalf("UpsertByKey(create): %v", err)
	}
	second, err := repo.UpsertByKey(dbc, &types.Skill{Key: "data analysis", Name: "data  ANALYSIS", Category: types.SkillCategorySoft})
	if err != nil {
		t.Fatalf("UpsertByKey(existing): %v", err)
	}
	if second.ID != first.ID || second.Category != types.SkillCategoryTechnical || second.Name != "Data Analysis" {
		t.Fatalf("first write must win: got=%+v", second)
	}
	var n int64
	if err := tx.Model(&types.Skill{}).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("count: n=%d err=%v", n, err)
	}
	if rows, err := repo.GetByKeys(dbc, []string{"data analysis", "missing"}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByKeys: err=%v len=%d", err, len(rows))
	}
}

func TestModuleSkillRepoUpsertAndTeaches(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	log := testutil.Logger(t)
	links := NewModuleSkillRepo(db, log)
	skillRepo := NewSkillRepo(db, log)

	prog := testutil.SeedProgramme(t, tx, "P1")
	other := testutil.SeedProgramme(t, tx, "P2")
	m1 := testutil.SeedModule(t, tx, prog.ID, "CS101", "Intro")
	m2 := testutil.SeedModule(t, tx, other.ID, "CS999", "Other")
	py := testutil.SeedSkill(t, tx, "python", "Python", types.SkillCategoryTechnical)
	sql := testutil.SeedSkill(t, tx, "sql", "SQL", types.SkillCategoryTechnical)

	if err := links.Upsert(dbc, &types.ModuleSkill{ModuleID: m1.ID, SkillID: py.ID, Confidence: 0.4}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := links.Upsert(dbc, &types.ModuleSkill{ModuleID: m1.ID, SkillID: py.ID, Confidence: 0.9}); err != nil {
		t.Fatalf("Upsert(again): %v", err)
	}
	if err := links.Upsert(dbc, &types.ModuleSkill{ModuleID: m2.ID, SkillID: sql.ID, Confidence: 0.5}); err != nil {
		t.Fatalf("Upsert(other): %v", err)
	}

	rows, err := links.ListTeachesByModule(dbc, m1.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListTeachesByModule: err=%v len=%d", err, len(rows))
	}
	if rows[0].Confidence != 0.9 || rows[0].SkillKey != "python" || rows[0].ModuleCode != "CS101" {
		t.Fatalf("confidence must be last-write-wins: got=%+v", rows[0])
	}
	if rows, err := links.ListTeachesByProgramme(dbc, prog.ID); err != nil || len(rows) != 1 {
		t.Fatalf("ListTeachesByProgramme: err=%v len=%d", err, len(rows))
	}
	if rows, err := links.ListTeaches(dbc); err != nil || len(rows) != 2 {
		t.Fatalf("ListTeaches: err=%v len=%d", err, len(rows))
	}
	if skills, err := skillRepo.ListByProgramme(dbc, prog.ID); err != nil || len(skills) != 1 || skills[0].ID != py.ID {
		t.Fatalf("ListByProgramme: err=%v skills=%v", err, skills)
	}
}

func TestSkillRelationRepoRejectsDuplicatePair(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	repo := NewSkillRelationRepo(db, testutil.Logger(t))

	a := testutil.SeedSkill(t, tx, "a", "A", types.SkillCategoryTechnical)
	b := testutil.SeedSkill(t, tx, "b", "B", types.SkillCategoryTechnical)
	progID := uuid.New()

	if err := repo.Create(dbc, &types.SkillRelation{ProgrammeID: &progID, SourceSkillID: a.ID, TargetSkillID: b.ID, Relation: types.RelationRequires, Confidence: 0.7}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Reverse direction is a different ordered pair.
	if err := repo.Create(dbc, &types.SkillRelation{ProgrammeID: &progID, SourceSkillID: b.ID, TargetSkillID: a.ID, Relation: types.RelationComplements, Confidence: 0.3}); err != nil {
		t.Fatalf("Create(reverse): %v", err)
	}
	rows, err := repo.ListAmong(dbc, []uuid.UUID{a.ID, b.ID})
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListAmong: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.ListByProgramme(dbc, progID); err != nil || len(rows) != 2 {
		t.Fatalf("ListByProgramme: err=%v len=%d", err, len(rows))
	}
}

func TestSkillRelationRepoDuplicateIsErrRelationExists(t *testing.T) {
	db := testutil.DB(t)
	dbc := testutil.DBC(nil)
	repo := NewSkillRelationRepo(db, testutil.Logger(t))

	a := testutil.SeedSkill(t, db, "x"+uuid.NewString(), "X", types.SkillCategoryTechnical)
	b := testutil.SeedSkill(t, db, "y"+uuid.NewString(), "Y", types.SkillCategoryTechnical)
	t.Cleanup(func() {
		db.Where("source_skill_id = ?", a.ID).Delete(&types.SkillRelation{})
		db.Delete(&types.Skill{}, []uuid.UUID{a.ID, b.ID})
	})

	if err := repo.Create(dbc, &types.SkillRelation{SourceSkillID: a.ID, TargetSkillID: b.ID, Relation: types.RelationRequires}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(dbc, &types.SkillRelation{SourceSkillID: a.ID, TargetSkillID: b.ID, Relation: types.RelationBuildsOn})
	if !errors.Is(err, ErrRelationExists) {
		t.Fatalf("want ErrRelationExists, got=%v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if isUniqueViolation(nil, "") {
		t.Fatalf("nil is not a violation")
	}
	if !isUniqueViolation(errors.New("UNIQUE constraint failed: skill_relation.source_skill_id"), "") {
		t.Fatalf("sqlite message should match")
	}
	if isUniqueViolation(errors.New("connection refused"), "") {
		t.Fatalf("unrelated error should not match")
	}
}
