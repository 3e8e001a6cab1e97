package aicache

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

type AICacheRepo interface {
	// Get returns nil when the key is absent or expired.
	Get(dbc dbctx.Context, key string) (*types.AICacheEntry, error)
	Put(dbc dbctx.Context, row *types.AICacheEntry) error
	Delete(dbc dbctx.Context, key string) error
}

type aiCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewAICacheRepo(db *gorm.DB, baseLog *logger.Logger) AICacheRepo {
	return &aiCacheRepo{db: db, log: baseLog.With("repo", "AICacheRepo"), now: time.Now}
}

func (r *aiCacheRepo) Get(dbc dbctx.Context, key string) (*types.AICacheEntry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var out types.AICacheEntry
	err := dbc.DB(r.db).
		Where("cache_key = ?", key).
		Where("expires_at IS NULL OR expires_at > ?", r.now().UTC()).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *aiCacheRepo) Put(dbc dbctx.Context, row *types.AICacheEntry) error {
	if row == nil || strings.TrimSpace(row.CacheKey) == "" {
		return errors.New("cache key required")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := r.now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"model", "payload", "expires_at", "updated_at"}),
		}).
		Create(row).Error
}

func (r *aiCacheRepo) Delete(dbc dbctx.Context, key string) error {
	return dbc.DB(r.db).Where("cache_key = ?", strings.TrimSpace(key)).Delete(&types.AICacheEntry{}).Error
}
