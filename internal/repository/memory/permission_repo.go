package memory

import (
	"context"
	"sort"

	"adminapi/internal/model"
	"adminapi/internal/repository"
)

type permissionRepository struct {
	store *Store
}

func NewPermissionRepository(store *Store) repository.PermissionRepository {
	return &permissionRepository{store: store}
}

func keyTaken(d *state, key string, exceptID uint) bool {
	for id, p := range d.permissions {
		if id != exceptID && p.Key == key {
			return true
		}
	}
	return false
}

func (r *permissionRepository) Create(ctx context.Context, perm *model.Permission) error {
	return r.store.write(ctx, func(d *state) error {
		if keyTaken(d, perm.Key, 0) {
			return repository.ErrDuplicate
		}
		d.lastPermissionID++
		now := r.store.now()
		perm.ID = d.lastPermissionID
		perm.CreatedAt = now
		perm.UpdatedAt = now
		d.permissions[perm.ID] = *perm
		return nil
	})
}

func (r *permissionRepository) Update(ctx context.Context, perm *model.Permission) error {
	return r.store.write(ctx, func(d *state) error {
		if _, ok := d.permissions[perm.ID]; !ok {
			return repository.ErrNotFound
		}
		if keyTaken(d, perm.Key, perm.ID) {
			return repository.ErrDuplicate
		}
		perm.UpdatedAt = r.store.now()
		d.permissions[perm.ID] = *perm
		return nil
	})
}

func (r *permissionRepository) Delete(ctx context.Context, id uint) error {
	return r.store.write(ctx, func(d *state) error {
		if _, ok := d.permissions[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.permissions, id)
		return nil
	})
}

func (r *permissionRepository) FindByID(ctx context.Context, id uint) (*model.Permission, error) {
	var out *model.Permission
	err := r.store.read(ctx, func(d *state) error {
		p, ok := d.permissions[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *permissionRepository) FindByKey(ctx context.Context, key string) (*model.Permission, error) {
	var out *model.Permission
	err := r.store.read(ctx, func(d *state) error {
		for _, p := range d.permissions {
			if p.Key == key {
				p := p
				out = &p
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *permissionRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Permission, error) {
	perms := make([]model.Permission, 0, len(ids))
	err := r.store.read(ctx, func(d *state) error {
		for _, id := range repository.NormalizeIDs(ids) {
			if p, ok := d.permissions[id]; ok {
				perms = append(perms, p)
			}
		}
		return nil
	})
	sortByKey(perms)
	return perms, err
}

func (r *permissionRepository) List(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	err := r.store.read(ctx, func(d *state) error {
		perms = make([]model.Permission, 0, len(d.permissions))
		for _, p := range d.permissions {
			perms = append(perms, p)
		}
		return nil
	})
	sortByKey(perms)
	return perms, err
}

func (r *permissionRepository) MissingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	var missing []uint
	err := r.store.read(ctx, func(d *state) error {
		for _, id := range repository.NormalizeIDs(ids) {
			if _, ok := d.permissions[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil
	})
	return missing, err
}

func (r *permissionRepository) CountReferences(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.store.read(ctx, func(d *state) error {
		for _, role := range d.roles {
			if containsID(role.PermissionIDs, id) {
				n++
			}
		}
		for _, u := range d.users {
			if containsID(u.ExtraPermissionIDs, id) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *permissionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.store.read(ctx, func(d *state) error {
		n = int64(len(d.permissions))
		return nil
	})
	return n, err
}

func sortByKey(perms []model.Permission) {
	sort.Slice(perms, func(i, j int) bool { return perms[i].Key < perms[j].Key })
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
