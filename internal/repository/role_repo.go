package repository

import (
	"context"

	"adminapi/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	// Create inserts the role and links role.PermissionIDs.
	Create(ctx context.Context, role *model.Role) error
	// Update writes scalar fields only; use ReplacePermissions for the set.
	Update(ctx context.Context, role *model.Role) error
	// Delete removes the role and its permission links.
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
	ReplacePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error
	MissingIDs(ctx context.Context, ids []uint) ([]uint, error)
	// PermissionIDsOf returns the union of permission ids granted by the roles.
	PermissionIDsOf(ctx context.Context, roleIDs []uint) ([]uint, error)
	Count(ctx context.Context) (int64, error)
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return atomic(ctx, r.db, func(db *gorm.DB) error {
		if err := db.Create(role).Error; err != nil {
			return translate(err)
		}
		role.PermissionIDs = NormalizeIDs(role.PermissionIDs)
		return insertRolePermissions(db, role.ID, role.PermissionIDs)
	})
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return translate(GetDB(ctx, r.db).Save(role).Error)
}

func (r *roleRepository) Delete(ctx context.Context, id uint) error {
	return atomic(ctx, r.db, func(db *gorm.DB) error {
		if err := db.Where("role_id = ?", id).Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		res := db.Delete(&model.Role{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *roleRepository) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	db := GetDB(ctx, r.db)
	var role model.Role
	if err := db.First(&role, id).Error; err != nil {
		return nil, translate(err)
	}
	roles := []model.Role{role}
	if err := loadRolePermissionIDs(db, roles); err != nil {
		return nil, err
	}
	return &roles[0], nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	db := GetDB(ctx, r.db)
	var role model.Role
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	roles := []model.Role{role}
	if err := loadRolePermissionIDs(db, roles); err != nil {
		return nil, err
	}
	return &roles[0], nil
}

func (r *roleRepository) List(ctx context.Context) ([]model.Role, error) {
	db := GetDB(ctx, r.db)
	var roles []model.Role
	if err := db.Order("name asc, id asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	if err := loadRolePermissionIDs(db, roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// ReplacePermissions swaps the whole permission set in one transaction, so no
// reader observes the emptied intermediate state.
func (r *roleRepository) ReplacePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	return atomic(ctx, r.db, func(db *gorm.DB) error {
		if err := db.Where("role_id = ?", roleID).Delete(&model.RolePermission{}).Error; err != nil {
			return err
		}
		return insertRolePermissions(db, roleID, NormalizeIDs(permissionIDs))
	})
}

func (r *roleRepository) MissingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := GetDB(ctx, r.db).Model(&model.Role{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	return Difference(ids, found), nil
}

func (r *roleRepository) PermissionIDsOf(ctx context.Context, roleIDs []uint) ([]uint, error) {
	if len(roleIDs) == 0 {
		return []uint{}, nil
	}
	var ids []uint
	err := GetDB(ctx, r.db).Model(&model.RolePermission{}).
		Distinct("permission_id").
		Where("role_id IN ?", roleIDs).
		Order("permission_id asc").
		Pluck("permission_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return NormalizeIDs(ids), nil
}

func (r *roleRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Role{}).Count(&n).Error
	return n, err
}

func insertRolePermissions(db *gorm.DB, roleID uint, permissionIDs []uint) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	links := make([]model.RolePermission, 0, len(permissionIDs))
	for _, pid := range permissionIDs {
		links = append(links, model.RolePermission{RoleID: roleID, PermissionID: pid})
	}
	return translate(db.Create(&links).Error)
}

func loadRolePermissionIDs(db *gorm.DB, roles []model.Role) error {
	if len(roles) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(roles))
	index := make(map[uint]int, len(roles))
	for i := range roles {
		ids = append(ids, roles[i].ID)
		index[roles[i].ID] = i
		roles[i].PermissionIDs = []uint{}
	}

	var links []model.RolePermission
	if err := db.Where("role_id IN ?", ids).Order("role_id asc, permission_id asc").Find(&links).Error; err != nil {
		return err
	}
	for _, l := range links {
		i := index[l.RoleID]
		roles[i].PermissionIDs = append(roles[i].PermissionIDs, l.PermissionID)
	}
	return nil
}
