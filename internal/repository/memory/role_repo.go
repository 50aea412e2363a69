package memory

import (
	"context"
	"sort"

	"adminapi/internal/model"
	"adminapi/internal/repository"
)

type roleRepository struct {
	store *Store
}

func NewRoleRepository(store *Store) repository.RoleRepository {
	return &roleRepository{store: store}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return r.store.write(ctx, func(d *state) error {
		d.lastRoleID++
		now := r.store.now()
		role.ID = d.lastRoleID
		role.PermissionIDs = repository.NormalizeIDs(role.PermissionIDs)
		role.CreatedAt = now
		role.UpdatedAt = now

		stored := *role
		stored.PermissionIDs = cloneIDs(role.PermissionIDs)
		d.roles[role.ID] = stored
		return nil
	})
}

// Update keeps the stored permission set, matching the gorm implementation.
func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return r.store.write(ctx, func(d *state) error {
		existing, ok := d.roles[role.ID]
		if !ok {
			return repository.ErrNotFound
		}
		role.UpdatedAt = r.store.now()
		stored := *role
		stored.PermissionIDs = existing.PermissionIDs
		d.roles[role.ID] = stored
		return nil
	})
}

func (r *roleRepository) Delete(ctx context.Context, id uint) error {
	return r.store.write(ctx, func(d *state) error {
		if _, ok := d.roles[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.roles, id)
		return nil
	})
}

func (r *roleRepository) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var out *model.Role
	err := r.store.read(ctx, func(d *state) error {
		role, ok := d.roles[id]
		if !ok {
			return repository.ErrNotFound
		}
		role.PermissionIDs = cloneIDs(role.PermissionIDs)
		out = &role
		return nil
	})
	return out, err
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var out *model.Role
	err := r.store.read(ctx, func(d *state) error {
		var match *model.Role
		for _, role := range d.roles {
			if role.Name == name && (match == nil || role.ID < match.ID) {
				role := role
				match = &role
			}
		}
		if match == nil {
			return repository.ErrNotFound
		}
		match.PermissionIDs = cloneIDs(match.PermissionIDs)
		out = match
		return nil
	})
	return out, err
}

func (r *roleRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.store.read(ctx, func(d *state) error {
		roles = make([]model.Role, 0, len(d.roles))
		for _, role := range d.roles {
			role.PermissionIDs = cloneIDs(role.PermissionIDs)
			roles = append(roles, role)
		}
		return nil
	})
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].Name != roles[j].Name {
			return roles[i].Name < roles[j].Name
		}
		return roles[i].ID < roles[j].ID
	})
	return roles, err
}

func (r *roleRepository) ReplacePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	return r.store.write(ctx, func(d *state) error {
		role, ok := d.roles[roleID]
		if !ok {
			return repository.ErrNotFound
		}
		role.PermissionIDs = repository.NormalizeIDs(permissionIDs)
		role.UpdatedAt = r.store.now()
		d.roles[roleID] = role
		return nil
	})
}

func (r *roleRepository) MissingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	var missing []uint
	err := r.store.read(ctx, func(d *state) error {
		for _, id := range repository.NormalizeIDs(ids) {
			if _, ok := d.roles[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil
	})
	return missing, err
}

func (r *roleRepository) PermissionIDsOf(ctx context.Context, roleIDs []uint) ([]uint, error) {
	var union []uint
	err := r.store.read(ctx, func(d *state) error {
		for _, id := range roleIDs {
			if role, ok := d.roles[id]; ok {
				union = append(union, role.PermissionIDs...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repository.NormalizeIDs(union), nil
}

func (r *roleRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.store.read(ctx, func(d *state) error {
		n = int64(len(d.roles))
		return nil
	})
	return n, err
}
