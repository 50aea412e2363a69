package service

// --- Permission DTOs ---

type CreatePermissionRequest struct {
	Key         string  `json:"key" binding:"required,min=3,max=64,permkey" example:"users.view"`
	Description *string `json:"description" binding:"omitempty,max=255"`
}

// UpdatePermissionRequest is a partial patch; nil fields are left unchanged.
type UpdatePermissionRequest struct {
	Key         *string `json:"key" binding:"omitempty,min=3,max=64,permkey"`
	Description *string `json:"description" binding:"omitempty,max=255"`
}

// --- Role DTOs ---

type CreateRoleRequest struct {
	Name          string  `json:"name" binding:"required,min=3,max=64" example:"Manager"`
	Description   *string `json:"description" binding:"omitempty,max=255"`
	PermissionIDs []uint  `json:"permission_ids"`
}

type UpdateRoleRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=3,max=64"`
	Description *string `json:"description" binding:"omitempty,max=255"`
}

type SetPermissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids" binding:"required"`
}

// --- User DTOs ---

type CreateUserRequest struct {
	Email              string `json:"email" binding:"required,email,max=255" example:"jane.doe@example.com"`
	Password           string `json:"password" binding:"required,min=8,max=72"`
	FirstName          string `json:"first_name" binding:"required,min=1,max=64"`
	LastName           string `json:"last_name" binding:"required,min=1,max=64"`
	IsActive           *bool  `json:"is_active"`
	RoleIDs            []uint `json:"role_ids"`
	ExtraPermissionIDs []uint `json:"extra_permission_ids"`
}

// UpdateUserRequest merges over the stored user. RoleIDs and ExtraPermissionIDs,
// when present (including an empty list), replace the stored sets.
type UpdateUserRequest struct {
	Email              *string `json:"email" binding:"omitempty,email,max=255"`
	Password           *string `json:"password" binding:"omitempty,min=8,max=72"`
	FirstName          *string `json:"first_name" binding:"omitempty,min=1,max=64"`
	LastName           *string `json:"last_name" binding:"omitempty,min=1,max=64"`
	IsActive           *bool   `json:"is_active"`
	RoleIDs            []uint  `json:"role_ids"`
	ExtraPermissionIDs []uint  `json:"extra_permission_ids"`
}

type SetRolesRequest struct {
	RoleIDs []uint `json:"role_ids" binding:"required"`
}
