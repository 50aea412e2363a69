package repository

import (
	"context"

	"adminapi/internal/model"
	"adminapi/pkg/pagination"

	"gorm.io/gorm"
)

// AuditFilter narrows an audit listing. Zero fields match everything.
type AuditFilter struct {
	Entity   string
	EntityID uint
	ActorID  uint
}

// Match reports whether entry passes the filter.
func (f AuditFilter) Match(entry model.AuditLog) bool {
	if f.Entity != "" && entry.Entity != f.Entity {
		return false
	}
	if f.EntityID != 0 && entry.EntityID != f.EntityID {
		return false
	}
	if f.ActorID != 0 && (entry.ActorID == nil || *entry.ActorID != f.ActorID) {
		return false
	}
	return true
}

type AuditRepository interface {
	// Log appends an entry; call it with the transaction context of the mutation.
	Log(ctx context.Context, entry *model.AuditLog) error
	// List returns matching entries, newest first.
	List(ctx context.Context, f AuditFilter, p pagination.Params) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, f AuditFilter, p pagination.Params) ([]model.AuditLog, int64, error) {
	scoped := func() *gorm.DB {
		q := GetDB(ctx, r.db).Model(&model.AuditLog{})
		if f.Entity != "" {
			q = q.Where("entity = ?", f.Entity)
		}
		if f.EntityID != 0 {
			q = q.Where("entity_id = ?", f.EntityID)
		}
		if f.ActorID != 0 {
			q = q.Where("actor_id = ?", f.ActorID)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := make([]model.AuditLog, 0, p.Limit)
	if err := scoped().Order("created_at desc, id desc").Offset(p.Offset).Limit(p.Limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
