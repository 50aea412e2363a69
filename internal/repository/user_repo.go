package repository

import (
	"context"

	"adminapi/internal/model"
	"adminapi/pkg/pagination"

	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	// Create inserts the user and links RoleIDs and ExtraPermissionIDs.
	Create(ctx context.Context, user *model.User) error
	// Update writes scalar fields only.
	Update(ctx context.Context, user *model.User) error
	// Delete removes the user and all of its role and permission links.
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, p pagination.Params) ([]model.User, int64, error)
	ReplaceRoles(ctx context.Context, userID uint, roleIDs []uint) error
	ReplacePermissions(ctx context.Context, userID uint, permissionIDs []uint) error
	// DetachRole removes the role from every user holding it and returns how many were affected.
	DetachRole(ctx context.Context, roleID uint) (int64, error)
	CountByActive(ctx context.Context) (active, inactive int64, err error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return atomic(ctx, r.db, func(db *gorm.DB) error {
		if err := db.Create(user).Error; err != nil {
			return translate(err)
		}
		user.RoleIDs = NormalizeIDs(user.RoleIDs)
		user.ExtraPermissionIDs = NormalizeIDs(user.ExtraPermissionIDs)
		if err := insertUserRoles(db, user.ID, user.RoleIDs); err != nil {
			return err
		}
		return insertUserPermissions(db, user.ID, user.ExtraPermissionIDs)
	})
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return translate(GetDB(ctx, r.db).Save(user).Error)
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return atomic(ctx, r.db, func(db *gorm.DB) error {
		if err := db.Where("user_id = ?", id).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		if err := db.Where("user_id = ?", id).Delete(&model.UserPermission{}).Error; err != nil {
			return err
		}
		res := db.Delete(&model.User{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) findOne(ctx context.Context, cond string, arg interface{}) (*model.User, error) {
	db := GetDB(ctx, r.db)
	var user model.User
	if err := db.Where(cond, arg).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	users := []model.User{user}
	if err := loadUserLinks(db, users); err != nil {
		return nil, err
	}
	return &users[0], nil
}

func (r *userRepository) List(ctx context.Context, p pagination.Params) ([]model.User, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	if err := db.Order("id desc").Offset(p.Offset).Limit(p.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	if err := loadUserLinks(db, users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) ReplaceRoles(ctx context.Context, userID uint, roleIDs []uint) error {
	return atomic(ctx, r.db, func(db *gorm.DB) error {
		if err := db.Where("user_id = ?", userID).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		return insertUserRoles(db, userID, NormalizeIDs(roleIDs))
	})
}

func (r *userRepository) ReplacePermissions(ctx context.Context, userID uint, permissionIDs []uint) error {
	return atomic(ctx, r.db, func(db *gorm.DB) error {
		if err := db.Where("user_id = ?", userID).Delete(&model.UserPermission{}).Error; err != nil {
			return err
		}
		return insertUserPermissions(db, userID, NormalizeIDs(permissionIDs))
	})
}

func (r *userRepository) DetachRole(ctx context.Context, roleID uint) (int64, error) {
	res := GetDB(ctx, r.db).Where("role_id = ?", roleID).Delete(&model.UserRole{})
	return res.RowsAffected, res.Error
}

func (r *userRepository) CountByActive(ctx context.Context) (int64, int64, error) {
	db := GetDB(ctx, r.db)

	var active, inactive int64
	if err := db.Model(&model.User{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, err
	}
	if err := db.Model(&model.User{}).Where("is_active = ?", false).Count(&inactive).Error; err != nil {
		return 0, 0, err
	}
	return active, inactive, nil
}

func insertUserRoles(db *gorm.DB, userID uint, roleIDs []uint) error {
	if len(roleIDs) == 0 {
		return nil
	}
	links := make([]model.UserRole, 0, len(roleIDs))
	for _, rid := range roleIDs {
		links = append(links, model.UserRole{UserID: userID, RoleID: rid})
	}
	return translate(db.Create(&links).Error)
}

func insertUserPermissions(db *gorm.DB, userID uint, permissionIDs []uint) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	links := make([]model.UserPermission, 0, len(permissionIDs))
	for _, pid := range permissionIDs {
		links = append(links, model.UserPermission{UserID: userID, PermissionID: pid})
	}
	return translate(db.Create(&links).Error)
}

func loadUserLinks(db *gorm.DB, users []model.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(users))
	index := make(map[uint]int, len(users))
	for i := range users {
		ids = append(ids, users[i].ID)
		index[users[i].ID] = i
		users[i].RoleIDs = []uint{}
		users[i].ExtraPermissionIDs = []uint{}
	}

	var roles []model.UserRole
	if err := db.Where("user_id IN ?", ids).Order("user_id asc, role_id asc").Find(&roles).Error; err != nil {
		return err
	}
	for _, l := range roles {
		i := index[l.UserID]
		users[i].RoleIDs = append(users[i].RoleIDs, l.RoleID)
	}

	var perms []model.UserPermission
	if err := db.Where("user_id IN ?", ids).Order("user_id asc, permission_id asc").Find(&perms).Error; err != nil {
		return err
	}
	for _, l := range perms {
		i := index[l.UserID]
		users[i].ExtraPermissionIDs = append(users[i].ExtraPermissionIDs, l.PermissionID)
	}
	return nil
}
