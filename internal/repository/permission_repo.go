package repository

import (
	"context"

	"adminapi/internal/model"

	"gorm.io/gorm"
)

type PermissionRepository interface {
	Create(ctx context.Context, perm *model.Permission) error
	Update(ctx context.Context, perm *model.Permission) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Permission, error)
	FindByKey(ctx context.Context, key string) (*model.Permission, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Permission, error)
	List(ctx context.Context) ([]model.Permission, error)
	MissingIDs(ctx context.Context, ids []uint) ([]uint, error)
	CountReferences(ctx context.Context, id uint) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Create(ctx context.Context, perm *model.Permission) error {
	return translate(GetDB(ctx, r.db).Create(perm).Error)
}

func (r *permissionRepository) Update(ctx context.Context, perm *model.Permission) error {
	return translate(GetDB(ctx, r.db).Save(perm).Error)
}

func (r *permissionRepository) Delete(ctx context.Context, id uint) error {
	res := GetDB(ctx, r.db).Delete(&model.Permission{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *permissionRepository) FindByID(ctx context.Context, id uint) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).First(&perm, id).Error; err != nil {
		return nil, translate(err)
	}
	return &perm, nil
}

func (r *permissionRepository) FindByKey(ctx context.Context, key string) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).Where(`"key" = ?`, key).First(&perm).Error; err != nil {
		return nil, translate(err)
	}
	return &perm, nil
}

func (r *permissionRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Permission, error) {
	perms := make([]model.Permission, 0, len(ids))
	if len(ids) == 0 {
		return perms, nil
	}
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Order(`"key" asc`).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *permissionRepository) List(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order(`"key" asc`).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *permissionRepository) MissingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := GetDB(ctx, r.db).Model(&model.Permission{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	return Difference(ids, found), nil
}

// CountReferences counts role and user-override links pointing at the permission.
func (r *permissionRepository) CountReferences(ctx context.Context, id uint) (int64, error) {
	db := GetDB(ctx, r.db)

	var byRoles, byUsers int64
	if err := db.Model(&model.RolePermission{}).Where("permission_id = ?", id).Count(&byRoles).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&model.UserPermission{}).Where("permission_id = ?", id).Count(&byUsers).Error; err != nil {
		return 0, err
	}
	return byRoles + byUsers, nil
}

func (r *permissionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Permission{}).Count(&n).Error
	return n, err
}
