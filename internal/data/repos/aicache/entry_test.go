package aicache

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/skillbridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/skillbridge-backend/internal/domain"
)

func TestAICacheRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	repo := NewAICacheRepo(db, testutil.Logger(t)).(*aiCacheRepo)

	if got, err := repo.Get(dbc, "skills_module_x"); err != nil || got != nil {
		t.Fatalf("Get(missing): got=%v err=%v", got, err)
	}
	exp := time.Now().Add(time.Hour).UTC()
	if err := repo.Put(dbc, &types.AICacheEntry{CacheKey: "skills_module_x", Model: "m", Payload: datatypes.JSON(`{"skills":[]}`), ExpiresAt: &exp}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := repo.Put(dbc, &types.AICacheEntry{CacheKey: "skills_module_x", Model: "m2", Payload: datatypes.JSON(`{"skills":[1]}`), ExpiresAt: &exp}); err != nil {
		t.Fatalf("Put(overwrite): %v", err)
	}
	got, err := repo.Get(dbc, "skills_module_x")
	if err != nil || got == nil || got.Model != "m2" || !sameJSON(got.Payload, `{"skills":[1]}`) {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}

	repo.now = func() time.Time { return exp.Add(time.Minute) }
	if got, err := repo.Get(dbc, "skills_module_x"); err != nil || got != nil {
		t.Fatalf("Get(expired): got=%v err=%v", got, err)
	}

	if err := repo.Delete(dbc, "skills_module_x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func sameJSON(got []byte, want string) bool {
	var a, b any
	if json.Unmarshal(got, &a) != nil || json.Unmarshal([]byte(want), &b) != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}
