package memory

import (
	"context"
	"sort"

	"adminapi/internal/model"
	"adminapi/internal/repository"
	"adminapi/pkg/pagination"
)

type userRepository struct {
	store *Store
}

func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

func emailTaken(d *state, email string, exceptID uint) bool {
	for id, u := range d.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func copyUser(u model.User) *model.User {
	u.RoleIDs = cloneIDs(u.RoleIDs)
	u.ExtraPermissionIDs = cloneIDs(u.ExtraPermissionIDs)
	return &u
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.store.write(ctx, func(d *state) error {
		if emailTaken(d, user.Email, 0) {
			return repository.ErrDuplicate
		}
		d.lastUserID++
		now := r.store.now()
		user.ID = d.lastUserID
		user.RoleIDs = repository.NormalizeIDs(user.RoleIDs)
		user.ExtraPermissionIDs = repository.NormalizeIDs(user.ExtraPermissionIDs)
		user.CreatedAt = now
		user.UpdatedAt = now
		d.users[user.ID] = *copyUser(*user)
		return nil
	})
}

// Update writes scalar fields; the link sets stay as stored.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.store.write(ctx, func(d *state) error {
		existing, ok := d.users[user.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if emailTaken(d, user.Email, user.ID) {
			return repository.ErrDuplicate
		}
		user.UpdatedAt = r.store.now()
		stored := *user
		stored.RoleIDs = existing.RoleIDs
		stored.ExtraPermissionIDs = existing.ExtraPermissionIDs
		d.users[user.ID] = stored
		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.store.write(ctx, func(d *state) error {
		if _, ok := d.users[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.users, id)
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var out *model.User
	err := r.store.read(ctx, func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var out *model.User
	err := r.store.read(ctx, func(d *state) error {
		for _, u := range d.users {
			if u.Email == email {
				out = copyUser(u)
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepository) List(ctx context.Context, p pagination.Params) ([]model.User, int64, error) {
	var all []model.User
	err := r.store.read(ctx, func(d *state) error {
		all = make([]model.User, 0, len(d.users))
		for _, u := range d.users {
			all = append(all, *copyUser(u))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	start, end := p.Window(len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *userRepository) ReplaceRoles(ctx context.Context, userID uint, roleIDs []uint) error {
	return r.store.write(ctx, func(d *state) error {
		u, ok := d.users[userID]
		if !ok {
			return repository.ErrNotFound
		}
		u.RoleIDs = repository.NormalizeIDs(roleIDs)
		u.UpdatedAt = r.store.now()
		d.users[userID] = u
		return nil
	})
}

func (r *userRepository) ReplacePermissions(ctx context.Context, userID uint, permissionIDs []uint) error {
	return r.store.write(ctx, func(d *state) error {
		u, ok := d.users[userID]
		if !ok {
			return repository.ErrNotFound
		}
		u.ExtraPermissionIDs = repository.NormalizeIDs(permissionIDs)
		u.UpdatedAt = r.store.now()
		d.users[userID] = u
		return nil
	})
}

func (r *userRepository) DetachRole(ctx context.Context, roleID uint) (int64, error) {
	var n int64
	err := r.store.write(ctx, func(d *state) error {
		for id, u := range d.users {
			if !containsID(u.RoleIDs, roleID) {
				continue
			}
			kept := make([]uint, 0, len(u.RoleIDs)-1)
			for _, rid := range u.RoleIDs {
				if rid != roleID {
					kept = append(kept, rid)
				}
			}
			u.RoleIDs = kept
			d.users[id] = u
			n++
		}
		return nil
	})
	return n, err
}

func (r *userRepository) CountByActive(ctx context.Context) (int64, int64, error) {
	var active, inactive int64
	err := r.store.read(ctx, func(d *state) error {
		for _, u := range d.users {
			if u.IsActive {
				active++
			} else {
				inactive++
			}
		}
		return nil
	})
	return active, inactive, err
}
