package memory

import (
	"context"
	"sort"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/pkg/pagination"
)

type auditRepository struct {
	store *Store
}

func NewAuditRepository(store *Store) repository.AuditRepository {
	return &auditRepository{store: store}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return r.store.write(ctx, func(d *state) error {
		d.lastAuditID++
		entry.ID = d.lastAuditID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = r.store.now()
		}
		d.audit = append(d.audit, *entry)
		return nil
	})
}

func (r *auditRepository) List(ctx context.Context, f repository.AuditFilter, p pagination.Params) ([]model.AuditLog, int64, error) {
	all := []model.AuditLog{}
	err := r.store.read(ctx, func(d *state) error {
		for _, entry := range d.audit {
			if f.Match(entry) {
				all = append(all, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	start, end := p.Window(len(all))
	return all[start:end], int64(len(all)), nil
}
